package inmem

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/whoameye/biocard"
)

type UserStore struct {
	lastId int64
	users  map[biocard.UserId]biocard.User
	mutex  sync.RWMutex
}

func NewUserStore() *UserStore {
	return &UserStore{
		lastId: 0,
		users:  map[biocard.UserId]biocard.User{},
		mutex:  sync.RWMutex{},
	}
}

var _ biocard.UserStore = (*UserStore)(nil)

func (s *UserStore) newUser(email biocard.Email) biocard.User {
	s.lastId++
	return biocard.User{
		Id:        biocard.UserId(strconv.FormatInt(s.lastId, 10)),
		CreatedAt: time.Now(),
		Roles:     biocard.Roles{},
		Email:     email,
	}
}

func (s *UserStore) byEmail(email biocard.Email) (biocard.User, bool) {
	for _, u := range s.users {
		if strings.EqualFold(string(u.Email), string(email)) {
			return u, true
		}
	}
	return biocard.User{}, false
}

func (s *UserStore) RegisterEmailUser(ctx context.Context, email biocard.Email, passwordHash string) (biocard.User, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.byEmail(email); ok {
		return biocard.User{}, biocard.ErrUserAlreadyRegistered
	}
	user := s.newUser(email)
	user.PasswordHash = passwordHash
	s.users[user.Id] = user
	return user, nil
}

func (s *UserStore) RegisterDiscordUser(ctx context.Context, discordId string, email biocard.Email) (biocard.User, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for id, u := range s.users {
		if u.DiscordId == discordId {
			u.Email = email
			s.users[id] = u
			return u, nil
		}
	}
	user := s.newUser(email)
	user.DiscordId = discordId
	s.users[user.Id] = user
	return user, nil
}

func (s *UserStore) ById(ctx context.Context, userId biocard.UserId) (biocard.User, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	u, ok := s.users[userId]
	if !ok {
		return u, biocard.ErrUserNotFound
	}
	return u, nil
}

func (s *UserStore) ByEmail(ctx context.Context, email biocard.Email) (biocard.User, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	u, ok := s.byEmail(email)
	if !ok {
		return u, biocard.ErrUserNotFound
	}
	return u, nil
}

func (s *UserStore) Update(ctx context.Context, user biocard.User) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.users[user.Id]; !ok {
		return biocard.ErrUserNotFound
	}
	s.users[user.Id] = user
	return nil
}
