package mock

import (
	"context"

	"github.com/whoameye/biocard"
)

type ProfileStore struct {
	ByUserIdFn func(ctx context.Context, userId biocard.UserId) (biocard.Profile, error)

	ByUsernameFn func(ctx context.Context, username string) (biocard.Profile, error)

	UpsertFn func(ctx context.Context, profile biocard.Profile) error

	DeleteByUserIdFn func(ctx context.Context, userId biocard.UserId) error
}

func (s ProfileStore) ByUserId(ctx context.Context, userId biocard.UserId) (biocard.Profile, error) {
	return s.ByUserIdFn(ctx, userId)
}

func (s ProfileStore) ByUsername(ctx context.Context, username string) (biocard.Profile, error) {
	return s.ByUsernameFn(ctx, username)
}

func (s ProfileStore) Upsert(ctx context.Context, profile biocard.Profile) error {
	return s.UpsertFn(ctx, profile)
}

func (s ProfileStore) DeleteByUserId(ctx context.Context, userId biocard.UserId) error {
	return s.DeleteByUserIdFn(ctx, userId)
}
