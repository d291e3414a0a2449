package persistent

import (
	"context"
	crand "crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/buntdb"
	"github.com/whoameye/biocard"
)

const sessionTTL = 30 * 24 * time.Hour // 30 days

type Session struct {
	Id             string    `json:"id"`
	UserId         string    `json:"userId"`
	Token          string    `json:"token"`
	Ip             string    `json:"ip"`
	UserAgent      string    `json:"userAgent"`
	LastAccessedAt time.Time `json:"lastAccessedAt"`
	ExpiresAt      time.Time `json:"expiresAt"`
}

func (s Session) ToDomain() biocard.Session {
	return biocard.Session{
		Id:             s.Id,
		UserId:         biocard.UserId(s.UserId),
		Token:          s.Token,
		Ip:             s.Ip,
		UserAgent:      s.UserAgent,
		LastAccessedAt: s.LastAccessedAt,
		ExpiresAt:      s.ExpiresAt,
	}
}

type SessionStore struct {
	Buntdb        *buntdb.DB
	ActivityStore biocard.ActivityStore
	// Defaults to 30 days.
	TTL time.Duration
}

var _ biocard.SessionStore = (*SessionStore)(nil)

func (s *SessionStore) ttl() time.Duration {
	if s.TTL <= 0 {
		return sessionTTL
	}
	return s.TTL
}

// PublishExpired makes sessions dropped by ttl publish AuthSignedOut.
func (s *SessionStore) PublishExpired(events biocard.AuthEvents) error {
	var config buntdb.Config
	if err := s.Buntdb.ReadConfig(&config); err != nil {
		return fmt.Errorf("read buntdb config: %w", err)
	}
	config.OnExpiredSync = func(key, value string, tx *buntdb.Tx) error {
		if _, err := tx.Delete(key); err != nil && !errors.Is(err, buntdb.ErrNotFound) {
			return err
		}
		if !strings.HasPrefix(key, "session:") {
			return nil
		}
		var session Session
		if err := json.Unmarshal([]byte(value), &session); err != nil {
			logrus.WithError(err).WithField("key", key).Warnln("Could not decode expired session.")
			return nil
		}
		// Listeners may use the store, so they can not run inside this transaction.
		go events.Publish(biocard.AuthEvent{
			Kind:      biocard.AuthSignedOut,
			UserId:    biocard.UserId(session.UserId),
			SessionId: session.Id,
		})
		return nil
	}
	if err := s.Buntdb.SetConfig(config); err != nil {
		return fmt.Errorf("set buntdb config: %w", err)
	}
	return nil
}

func (s *SessionStore) CreateIndexes() error {
	err := s.Buntdb.CreateIndex("sessions", "session:*", buntdb.IndexString)
	if err != nil && !errors.Is(err, buntdb.ErrIndexExists) {
		return fmt.Errorf("create sessions index: %w", err)
	}
	return nil
}

func (s *SessionStore) RegisterNew(ctx context.Context, userId biocard.UserId, ip string, userAgent string) (biocard.Session, error) {
	token, err := generateSessionToken()
	if err != nil {
		return biocard.Session{}, fmt.Errorf("generate token: %s", err)
	}
	id := uuid.New().String()

	err = s.ActivityStore.AddLog(ctx, userId, biocard.Activity{Name: biocard.ActivitySessionCreated, Data: map[string]interface{}{
		"ip":         ip,
		"userAgent":  userAgent,
		"session_id": id,
	}})
	if err != nil {
		return biocard.Session{}, fmt.Errorf("add session_created activity log: %s", err)
	}

	session := Session{
		Id:             id,
		UserId:         string(userId),
		Token:          token,
		Ip:             ip,
		UserAgent:      userAgent,
		LastAccessedAt: time.Now().UTC(),
		ExpiresAt:      time.Now().UTC().Add(s.ttl()),
	}
	serializedSession, err := json.Marshal(&session)
	if err != nil {
		return biocard.Session{}, fmt.Errorf("session serialize: %s", err)
	}

	err = s.Buntdb.Update(func(tx *buntdb.Tx) error {
		expireOptions := &buntdb.SetOptions{Expires: true, TTL: s.ttl()}

		_, replaced, err := tx.Set("session_by_id:"+session.Id, session.Token, expireOptions)
		if err != nil {
			return fmt.Errorf("set map session id to auth token: %w", err)
		}
		if replaced {
			return fmt.Errorf("rarest uuid collision '%s' (not possible)", session.Id)
		}

		_, _, err = tx.Set("session:"+session.Token, string(serializedSession), expireOptions)
		if err != nil {
			return fmt.Errorf("set session: %w", err)
		}
		return nil
	})
	if err != nil {
		return biocard.Session{}, fmt.Errorf("bunt update: %s", err)
	}
	return session.ToDomain(), nil
}

func getSession(tx *buntdb.Tx, token string) (Session, error) {
	var session Session
	serializedSession, err := tx.Get("session:" + token)
	if err != nil {
		return session, fmt.Errorf("get serialized session: %w", err)
	}
	if err := json.Unmarshal([]byte(serializedSession), &session); err != nil {
		return session, fmt.Errorf("deserialize session: %w", err)
	}
	return session, nil
}

func (s *SessionStore) ByToken(token string) (biocard.Session, error) {
	var session Session
	err := s.Buntdb.View(func(tx *buntdb.Tx) error {
		var err error
		session, err = getSession(tx, token)
		return err
	})
	if err != nil {
		if errors.Is(err, buntdb.ErrNotFound) {
			return biocard.Session{}, biocard.ErrSessionNotFound
		} else {
			return biocard.Session{}, fmt.Errorf("buntdb view: %s", err)
		}
	}
	return session.ToDomain(), nil
}

func (s *SessionStore) Exists(token string) (bool, error) {
	err := s.Buntdb.View(func(tx *buntdb.Tx) error {
		_, err := tx.Get("session:" + token)
		return err
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, buntdb.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("bunt view: %s", err)
	}
}

// userSessions lists sessions of the user owning token.
func (s *SessionStore) userSessions(tx *buntdb.Tx, token string) ([]Session, error) {
	owner, err := getSession(tx, token)
	if err != nil {
		return nil, err
	}

	sessions := make([]Session, 0, 10)
	var listErr error
	err = tx.Ascend("sessions", func(key, value string) bool {
		var session Session
		if err := json.Unmarshal([]byte(value), &session); err != nil {
			listErr = fmt.Errorf("deserialize session: %s", err)
			return false
		}
		if session.UserId == owner.UserId {
			sessions = append(sessions, session)
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("ascend sessions: %w", err)
	}
	if listErr != nil {
		return nil, fmt.Errorf("ascend content sessions: %w", listErr)
	}
	return sessions, nil
}

func (s *SessionStore) ActiveSessions(token string) ([]biocard.Session, error) {
	var sessions []Session
	err := s.Buntdb.View(func(tx *buntdb.Tx) error {
		var err error
		sessions, err = s.userSessions(tx, token)
		if err != nil {
			return fmt.Errorf("lookup active sessions: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, buntdb.ErrNotFound) {
			return nil, biocard.ErrSessionNotFound
		} else {
			return nil, fmt.Errorf("buntdb view: %s", err)
		}
	}
	active := make([]biocard.Session, len(sessions))
	for i, session := range sessions {
		active[i] = session.ToDomain()
	}
	return active, nil
}

func (s *SessionStore) AcquireAndRefresh(ctx context.Context, token string, ip string, userAgent string) (biocard.Session, error) {
	var previousSession Session
	err := s.Buntdb.View(func(tx *buntdb.Tx) error {
		var err error
		previousSession, err = getSession(tx, token)
		return err
	})
	if err != nil {
		if errors.Is(err, buntdb.ErrNotFound) {
			return biocard.Session{}, biocard.ErrSessionNotFound
		} else {
			return biocard.Session{}, fmt.Errorf("get session from buntdb: %s", err)
		}
	}

	// copy session
	session := previousSession
	session.Ip = ip
	session.UserAgent = userAgent
	session.LastAccessedAt = time.Now().UTC()
	session.ExpiresAt = time.Now().UTC().Add(s.ttl())
	serializedSession, err := json.Marshal(session)
	if err != nil {
		return biocard.Session{}, fmt.Errorf("serialize session: %s", err)
	}

	err = s.Buntdb.Update(func(tx *buntdb.Tx) error {
		expireOptions := &buntdb.SetOptions{Expires: true, TTL: s.ttl()}
		_, _, err := tx.Set("session:"+token, string(serializedSession), expireOptions)
		if err != nil {
			return fmt.Errorf("store session: %w", err)
		}
		_, _, err = tx.Set("session_by_id:"+session.Id, token, expireOptions)
		if err != nil {
			return fmt.Errorf("store session id: %w", err)
		}
		return nil
	})
	if err != nil {
		return biocard.Session{}, fmt.Errorf("refresh session in buntdb: %s", err)
	}

	if previousSession.Ip != session.Ip {
		activity := biocard.Activity{Name: "session_changed_ip", Data: map[string]interface{}{
			"session_id":  session.Id,
			"previous_ip": previousSession.Ip,
			"new_ip":      session.Ip,
		}}
		if err := s.ActivityStore.AddLog(ctx, biocard.UserId(session.UserId), activity); err != nil {
			return biocard.Session{}, fmt.Errorf("log ip change: %s", err)
		}
	}
	if previousSession.UserAgent != session.UserAgent {
		activity := biocard.Activity{Name: "session_changed_user_agent", Data: map[string]interface{}{
			"session_id":          session.Id,
			"previous_user_agent": previousSession.UserAgent,
			"new_user_agent":      session.UserAgent,
		}}
		if err := s.ActivityStore.AddLog(ctx, biocard.UserId(session.UserId), activity); err != nil {
			return biocard.Session{}, fmt.Errorf("log useragent change: %s", err)
		}
	}
	return session.ToDomain(), nil
}

func deleteSession(tx *buntdb.Tx, session Session) error {
	_, err := tx.Delete("session_by_id:" + session.Id)
	if err != nil && !errors.Is(err, buntdb.ErrNotFound) {
		return fmt.Errorf("delete session_by_id: %w", err)
	}
	_, err = tx.Delete("session:" + session.Token)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SessionStore) InvalidateById(userId biocard.UserId, sessionId string) (biocard.Session, error) {
	var session Session
	err := s.Buntdb.Update(func(tx *buntdb.Tx) error {
		token, err := tx.Get("session_by_id:" + sessionId)
		if err != nil {
			return fmt.Errorf("get session by id: %w", err)
		}
		session, err = getSession(tx, token)
		if err != nil {
			return err
		}
		if userId != biocard.UserId(session.UserId) {
			return fmt.Errorf("different user id (required: %s, found: %s): %w",
				userId, session.UserId, buntdb.ErrNotFound)
		}
		return deleteSession(tx, session)
	})
	if err != nil {
		if errors.Is(err, buntdb.ErrNotFound) {
			return biocard.Session{}, biocard.ErrSessionNotFound
		}
		return biocard.Session{}, fmt.Errorf("bunt update: %w", err)
	}
	return session.ToDomain(), nil
}

func (s *SessionStore) InvalidateByAuthToken(authToken string) (biocard.Session, error) {
	var session Session
	err := s.Buntdb.Update(func(tx *buntdb.Tx) error {
		var err error
		session, err = getSession(tx, authToken)
		if err != nil {
			return err
		}
		return deleteSession(tx, session)
	})
	if err != nil {
		if errors.Is(err, buntdb.ErrNotFound) {
			return biocard.Session{}, biocard.ErrSessionNotFound
		}
		return biocard.Session{}, fmt.Errorf("bunt update: %s", err)
	}
	return session.ToDomain(), nil
}

func (s *SessionStore) InvalidateAllExcept(expectToken string) ([]biocard.Session, error) {
	var invalidated []biocard.Session
	err := s.Buntdb.Update(func(tx *buntdb.Tx) error {
		sessions, err := s.userSessions(tx, expectToken)
		if err != nil {
			return fmt.Errorf("user sessions: %w", err)
		}
		for _, session := range sessions {
			if session.Token == expectToken {
				continue
			}
			if err := deleteSession(tx, session); err != nil {
				return err
			}
			invalidated = append(invalidated, session.ToDomain())
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, buntdb.ErrNotFound) {
			return nil, biocard.ErrSessionNotFound
		}
		return nil, fmt.Errorf("bunt update: %s", err)
	}
	return invalidated, nil
}

func generateSessionToken() (string, error) {
	const tokenBytes = 60
	rawToken := make([]byte, tokenBytes)
	// crypto/rand - getentropy(2)
	bytesRead, err := crand.Read(rawToken)
	if err != nil {
		return "", fmt.Errorf("rand read: %w", err)
	}
	if bytesRead != tokenBytes {
		return "", fmt.Errorf("bytes read %d / required %d", bytesRead, tokenBytes)
	}
	dirtyToken := base64.StdEncoding.EncodeToString(rawToken)

	// ":" separates buntdb key segments, keep it out of tokens
	token := strings.Replace(dirtyToken, ":", "_", -1)
	return token, nil
}
