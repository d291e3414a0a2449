package mock

import (
	"context"

	"github.com/whoameye/biocard"
)

type ActivityStore struct {
	AddLogFn func(ctx context.Context, userId biocard.UserId, activity biocard.Activity) error

	ByUserIdFn func(ctx context.Context, userId biocard.UserId) ([]biocard.ActivityLog, error)
}

func (s ActivityStore) AddLog(ctx context.Context, userId biocard.UserId, activity biocard.Activity) error {
	return s.AddLogFn(ctx, userId, activity)
}

func (s ActivityStore) ByUserId(ctx context.Context, userId biocard.UserId) ([]biocard.ActivityLog, error) {
	return s.ByUserIdFn(ctx, userId)
}
