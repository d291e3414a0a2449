package inmem

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/whoameye/biocard"
)

type ProfileStore struct {
	profiles map[biocard.UserId]biocard.Profile
	mutex    sync.RWMutex
	// Stamps profiles upserted without UpdatedAt. Defaults to time.Now.
	Now func() time.Time
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{
		profiles: make(map[biocard.UserId]biocard.Profile),
		Now:      time.Now,
	}
}

var _ biocard.ProfileStore = (*ProfileStore)(nil)

func (s *ProfileStore) ByUserId(ctx context.Context, userId biocard.UserId) (biocard.Profile, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	p, ok := s.profiles[userId]
	if !ok {
		return biocard.Profile{}, biocard.ErrProfileNotFound
	}
	return p.Clone(), nil
}

func (s *ProfileStore) ByUsername(ctx context.Context, username string) (biocard.Profile, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if username == "" {
		return biocard.Profile{}, biocard.ErrProfileNotFound
	}
	for _, p := range s.profiles {
		if strings.EqualFold(p.Username, username) {
			return p.Clone(), nil
		}
	}
	return biocard.Profile{}, biocard.ErrProfileNotFound
}

func (s *ProfileStore) Upsert(ctx context.Context, profile biocard.Profile) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if profile.Username != "" {
		for uid, p := range s.profiles {
			if uid != profile.UserId && strings.EqualFold(p.Username, profile.Username) {
				return biocard.ErrUsernameTaken
			}
		}
	}
	stored := profile.Clone()
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = s.Now()
	}
	s.profiles[profile.UserId] = stored
	return nil
}

func (s *ProfileStore) DeleteByUserId(ctx context.Context, userId biocard.UserId) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.profiles, userId)
	return nil
}
