package mock

import (
	"context"

	"github.com/whoameye/biocard"
)

type UserStore struct {
	RegisterEmailUserFn func(ctx context.Context, email biocard.Email, passwordHash string) (biocard.User, error)

	RegisterDiscordUserFn func(ctx context.Context, discordId string, email biocard.Email) (biocard.User, error)

	ByIdFn func(ctx context.Context, userId biocard.UserId) (biocard.User, error)

	ByEmailFn func(ctx context.Context, email biocard.Email) (biocard.User, error)

	UpdateFn func(ctx context.Context, user biocard.User) error
}

func (s UserStore) RegisterEmailUser(ctx context.Context, email biocard.Email, passwordHash string) (biocard.User, error) {
	return s.RegisterEmailUserFn(ctx, email, passwordHash)
}

func (s UserStore) RegisterDiscordUser(ctx context.Context, discordId string, email biocard.Email) (biocard.User, error) {
	return s.RegisterDiscordUserFn(ctx, discordId, email)
}

func (s UserStore) ById(ctx context.Context, userId biocard.UserId) (biocard.User, error) {
	return s.ByIdFn(ctx, userId)
}

func (s UserStore) ByEmail(ctx context.Context, email biocard.Email) (biocard.User, error) {
	return s.ByEmailFn(ctx, email)
}

func (s UserStore) Update(ctx context.Context, user biocard.User) error {
	return s.UpdateFn(ctx, user)
}
