package inmem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/whoameye/biocard"
)

func TestAuthBroadcaster(t *testing.T) {
	assert := assert.New(t)

	b := NewAuthBroadcaster()
	var first, second []biocard.AuthEvent
	sub := b.Subscribe(func(e biocard.AuthEvent) { first = append(first, e) })
	b.Subscribe(func(e biocard.AuthEvent) { second = append(second, e) })

	signOut := biocard.AuthEvent{Kind: biocard.AuthSignedOut, UserId: "1", SessionId: "s1"}
	b.Publish(signOut)
	assert.Equal([]biocard.AuthEvent{signOut}, first)
	assert.Equal([]biocard.AuthEvent{signOut}, second)

	assert.NoError(sub.Close())
	assert.NoError(sub.Close())

	deleted := biocard.AuthEvent{Kind: biocard.AuthAccountDeleted, UserId: "1"}
	b.Publish(deleted)
	assert.Equal(1, len(first))
	assert.Equal([]biocard.AuthEvent{signOut, deleted}, second)
	assert.Equal("account_deleted", deleted.Kind.String())
}
