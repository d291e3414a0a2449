package biocard

import (
	"context"
	"errors"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")

type Session struct {
	Id             string
	UserId         UserId
	Token          string
	Ip             string
	UserAgent      string
	LastAccessedAt time.Time
	ExpiresAt      time.Time
}

type SessionStore interface {
	RegisterNew(ctx context.Context, userId UserId, ip string, userAgent string) (Session, error)

	ByToken(token string) (Session, error)

	Exists(token string) (bool, error)

	// Sessions of the user owning token.
	ActiveSessions(token string) ([]Session, error)

	AcquireAndRefresh(ctx context.Context, token string, ip string, userAgent string) (Session, error)

	InvalidateById(userId UserId, sessionId string) (Session, error)

	InvalidateByAuthToken(authToken string) (Session, error)

	// Invalidates every other session of the user owning expectToken.
	InvalidateAllExcept(expectToken string) ([]Session, error)
}

type AuthEventKind int

const (
	AuthSignedIn AuthEventKind = iota + 1
	AuthSignedOut
	AuthAccountDeleted
)

func (k AuthEventKind) String() string {
	switch k {
	case AuthSignedIn:
		return "signed_in"
	case AuthSignedOut:
		return "signed_out"
	case AuthAccountDeleted:
		return "account_deleted"
	default:
		return "unknown"
	}
}

// AuthEvent notifies about a change of identity of a session.
type AuthEvent struct {
	Kind      AuthEventKind
	UserId    UserId
	SessionId string
}

// Subscription is a handle of an AuthEvents listener.
// Close stops delivery; it is safe to call more than once.
type Subscription interface {
	Close() error
}

type AuthEvents interface {
	Subscribe(listener func(AuthEvent)) Subscription

	Publish(event AuthEvent)
}
