package passwordreset

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/whoameye/biocard"
	"github.com/whoameye/biocard/inmem"
)

type sentMail struct {
	to   biocard.Email
	link string
}

func newTestService(t *testing.T) (*Service, *inmem.UserStore, *[]sentMail) {
	users := inmem.NewUserStore()
	var sent []sentMail
	return &Service{
		Users:  users,
		Tokens: NewTokens(testSecret, time.Hour),
		Mailer: MailerFunc(func(ctx context.Context, to biocard.Email, link string) error {
			sent = append(sent, sentMail{to, link})
			return nil
		}),
		Activities: inmem.NewActivityStore(),
		ResetUrl:   "http://localhost:2137/reset-password",
	}, users, &sent
}

func tokenOf(t *testing.T, link string) string {
	u, err := url.Parse(link)
	if err != nil {
		t.Fatal(err)
	}
	return u.Query().Get("token")
}

func TestResetFlow(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	s, users, sent := newTestService(t)
	hash, err := biocard.HashPassword("Old-pass1")
	if !assert.NoError(err) {
		return
	}
	user, err := users.RegisterEmailUser(ctx, "kay@example.com", hash)
	if !assert.NoError(err) {
		return
	}

	if !assert.NoError(s.Request(ctx, "kay@example.com")) || !assert.Len(*sent, 1) {
		return
	}
	mail := (*sent)[0]
	assert.Equal(biocard.Email("kay@example.com"), mail.to)
	token := tokenOf(t, mail.link)
	assert.NotEmpty(token)

	_, err = s.Confirm(ctx, token, "weak")
	assert.ErrorIs(err, biocard.ErrWeakPassword)

	updated, err := s.Confirm(ctx, token, "New-pass2")
	if assert.NoError(err) {
		assert.Equal(user.Id, updated.Id)
		assert.NoError(biocard.ComparePassword(updated.PasswordHash, "New-pass2"))
	}

	_, err = s.Confirm(ctx, token, "Again-pass3")
	assert.ErrorIs(err, ErrInvalidToken)

	logs, err := s.Activities.ByUserId(ctx, user.Id)
	if assert.NoError(err) && assert.Len(logs, 1) {
		assert.Equal(biocard.ActivityPasswordReset, logs[0].Name)
	}
}

func TestRequestDoesNotRevealUnknownEmail(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	s, users, sent := newTestService(t)
	_, err := users.RegisterDiscordUser(ctx, "123", "social@example.com")
	assert.NoError(err)

	assert.NoError(s.Request(ctx, "nobody@example.com"))
	assert.NoError(s.Request(ctx, "social@example.com"))
	assert.Empty(*sent)
}

func TestRequestMailerFailure(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	s, users, _ := newTestService(t)
	_, err := users.RegisterEmailUser(ctx, "kay@example.com", "hash")
	assert.NoError(err)

	mailErr := errors.New("smtp down")
	s.Mailer = MailerFunc(func(ctx context.Context, to biocard.Email, link string) error {
		return mailErr
	})
	assert.ErrorIs(s.Request(ctx, "kay@example.com"), mailErr)
}
