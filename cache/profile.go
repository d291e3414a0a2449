// Package cache keeps public profile lookups in redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/whoameye/biocard"
)

const DefaultTTL = 5 * time.Minute

// ProfileStore caches username lookups of Next. Writes go to Next and
// evict the cached entry.
type ProfileStore struct {
	Next   biocard.ProfileStore
	Client redis.UniversalClient
	TTL    time.Duration
}

var _ biocard.ProfileStore = (*ProfileStore)(nil)

func usernameKey(username string) string {
	return "profile:username:" + strings.ToLower(username)
}

func (s *ProfileStore) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultTTL
	}
	return s.TTL
}

func (s *ProfileStore) ByUserId(ctx context.Context, userId biocard.UserId) (biocard.Profile, error) {
	return s.Next.ByUserId(ctx, userId)
}

func (s *ProfileStore) ByUsername(ctx context.Context, username string) (biocard.Profile, error) {
	key := usernameKey(username)
	cached, err := s.Client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var profile biocard.Profile
		if err := json.Unmarshal(cached, &profile); err == nil {
			return profile, nil
		}
		logrus.WithField("key", key).Warnln("Dropping undecodable cached profile.")
	case !errors.Is(err, redis.Nil):
		logrus.WithError(err).Warnln("Profile cache read failed.")
	}

	profile, err := s.Next.ByUsername(ctx, username)
	if err != nil {
		return biocard.Profile{}, err
	}

	encoded, err := json.Marshal(profile)
	if err != nil {
		return biocard.Profile{}, fmt.Errorf("marshal profile: %w", err)
	}
	if err := s.Client.Set(ctx, key, encoded, s.ttl()).Err(); err != nil {
		logrus.WithError(err).Warnln("Profile cache write failed.")
	}
	return profile, nil
}

// evict drops the cached entry. The write it follows is already committed,
// so a failure only leaves a stale entry until the ttl passes.
func (s *ProfileStore) evict(ctx context.Context, username string) {
	if username == "" {
		return
	}
	if err := s.Client.Del(ctx, usernameKey(username)).Err(); err != nil {
		logrus.WithError(err).
			WithField("username", username).
			Warnln("Could not evict cached profile.")
	}
}

func (s *ProfileStore) Upsert(ctx context.Context, profile biocard.Profile) error {
	if err := s.Next.Upsert(ctx, profile); err != nil {
		return err
	}
	s.evict(ctx, profile.Username)
	return nil
}

func (s *ProfileStore) DeleteByUserId(ctx context.Context, userId biocard.UserId) error {
	profile, err := s.Next.ByUserId(ctx, userId)
	if err != nil && !errors.Is(err, biocard.ErrProfileNotFound) {
		return err
	}
	if err := s.Next.DeleteByUserId(ctx, userId); err != nil {
		return err
	}
	s.evict(ctx, profile.Username)
	return nil
}
