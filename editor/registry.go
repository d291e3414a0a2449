package editor

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/whoameye/biocard"
)

// Registry keeps one editor per session in memory. Drafts are dropped
// without saving when their session signs out or the account is deleted.
type Registry struct {
	stores Stores
	// Applied to every new editor.
	Configure func(*Editor)

	mutex   sync.Mutex
	editors map[string]*Editor
	sub     biocard.Subscription
}

func NewRegistry(stores Stores, events biocard.AuthEvents) *Registry {
	r := &Registry{
		stores:  stores,
		editors: make(map[string]*Editor),
	}
	r.sub = events.Subscribe(r.handleAuthEvent)
	return r
}

func (r *Registry) handleAuthEvent(event biocard.AuthEvent) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	switch event.Kind {
	case biocard.AuthSignedOut:
		delete(r.editors, event.SessionId)
	case biocard.AuthAccountDeleted:
		for sessionId, e := range r.editors {
			if e.userId == event.UserId {
				delete(r.editors, sessionId)
			}
		}
	default:
		return
	}
	logrus.WithField("user_id", event.UserId).
		WithField("event", event.Kind).
		Debugln("Discarded drafts.")
}

// Acquire returns the editor of the session, loading a new draft when the
// session has none yet.
func (r *Registry) Acquire(ctx context.Context, session biocard.Session) (*Editor, error) {
	r.mutex.Lock()
	e, ok := r.editors[session.Id]
	r.mutex.Unlock()
	if ok && e.userId == session.UserId {
		return e, nil
	}

	e = New(session.UserId, r.stores)
	if r.Configure != nil {
		r.Configure(e)
	}
	if err := e.LoadDraft(ctx); err != nil {
		return nil, err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if existing, ok := r.editors[session.Id]; ok && existing.userId == session.UserId {
		return existing, nil
	}
	r.editors[session.Id] = e
	return e, nil
}

// Discard drops the draft of the session without saving it.
func (r *Registry) Discard(sessionId string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.editors, sessionId)
}

func (r *Registry) Len() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return len(r.editors)
}

func (r *Registry) Close() error {
	return r.sub.Close()
}
