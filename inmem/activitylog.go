package inmem

import (
	"context"
	"sync"
	"time"

	"github.com/whoameye/biocard"
)

type ActivityStore struct {
	lastId int64
	logs   map[biocard.UserId][]biocard.ActivityLog
	mutex  sync.RWMutex
	// Defaults to time.Now.
	Now func() time.Time
}

func NewActivityStore() *ActivityStore {
	return &ActivityStore{
		logs: make(map[biocard.UserId][]biocard.ActivityLog),
		Now:  time.Now,
	}
}

var _ biocard.ActivityStore = (*ActivityStore)(nil)

func (s *ActivityStore) AddLog(ctx context.Context, userId biocard.UserId, activity biocard.Activity) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.lastId++
	s.logs[userId] = append(s.logs[userId], biocard.ActivityLog{
		Id:        s.lastId,
		CreatedAt: s.Now(),
		UserId:    userId,
		Name:      activity.Name,
		Data:      activity.Data,
	})
	return nil
}

func (s *ActivityStore) ByUserId(ctx context.Context, userId biocard.UserId) ([]biocard.ActivityLog, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	logs := s.logs[userId]
	recent := make([]biocard.ActivityLog, len(logs))
	for i, l := range logs {
		recent[len(logs)-1-i] = l
	}
	return recent, nil
}
