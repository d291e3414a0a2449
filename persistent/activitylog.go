package persistent

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/whoameye/biocard"
)

type ActivityLog struct {
	bun.BaseModel `bun:"table:activity_log"`

	Id        int64                  `bun:",pk,autoincrement"`
	CreatedAt time.Time              `bun:",nullzero,notnull,default:current_timestamp"`
	UserId    string                 `bun:",notnull"`
	Name      string                 `bun:",notnull"`
	Data      map[string]interface{} `bun:",notnull"`
}

func (l *ActivityLog) ToDomain() biocard.ActivityLog {
	return biocard.ActivityLog{
		Id:        l.Id,
		CreatedAt: l.CreatedAt,
		UserId:    biocard.UserId(l.UserId),
		Name:      l.Name,
		Data:      l.Data,
	}
}

type ActivityStore struct {
	DB *bun.DB
}

var _ biocard.ActivityStore = (*ActivityStore)(nil)

func (s *ActivityStore) AddLog(ctx context.Context, userId biocard.UserId, activity biocard.Activity) error {
	data := activity.Data
	if data == nil {
		data = map[string]interface{}{}
	}
	_, err := s.DB.NewInsert().
		Model(&ActivityLog{
			CreatedAt: time.Now().UTC(),
			UserId:    string(userId),
			Name:      activity.Name,
			Data:      data,
		}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("insert log entry: %w", err)
	}
	return nil
}

func (s *ActivityStore) ByUserId(ctx context.Context, userId biocard.UserId) ([]biocard.ActivityLog, error) {
	var logs []ActivityLog
	err := s.DB.NewSelect().
		Model((*ActivityLog)(nil)).
		Where("user_id = ?", string(userId)).
		Order("id DESC").
		Scan(ctx, &logs)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	ml := make([]biocard.ActivityLog, len(logs))
	for i, l := range logs {
		ml[i] = l.ToDomain()
	}
	return ml, nil
}
