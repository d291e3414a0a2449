package inmem

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/whoameye/biocard"
)

func TestActivityStore(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	uid := biocard.UserId("5")

	s := NewActivityStore()
	{
		logs, err := s.ByUserId(ctx, uid)
		if assert.NoError(err) {
			assert.Equal(0, len(logs))
		}
	}

	err := s.AddLog(ctx, uid, biocard.Activity{Name: "profile_saved", Data: map[string]interface{}{"username": "kay"}})
	if !assert.NoError(err) {
		return
	}
	err = s.AddLog(ctx, uid, biocard.Activity{Name: "profile_deleted"})
	if !assert.NoError(err) {
		return
	}

	{
		logs, err := s.ByUserId(ctx, uid)
		if !assert.NoError(err) {
			return
		}
		if !assert.Equal(2, len(logs)) {
			return
		}
		assert.Equal("profile_deleted", logs[0].Name)
		assert.Equal("profile_saved", logs[1].Name)
		assert.Equal(map[string]interface{}{"username": "kay"}, logs[1].Data)
		assert.True(logs[0].Id > logs[1].Id)
	}

	{
		// unknown user id
		logs, err := s.ByUserId(ctx, biocard.UserId("34290"))
		if assert.NoError(err) {
			assert.Equal(0, len(logs))
		}
	}
}
