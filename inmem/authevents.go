package inmem

import (
	"sync"

	"github.com/whoameye/biocard"
)

// AuthBroadcaster delivers auth events synchronously to every subscriber.
type AuthBroadcaster struct {
	lastId    int64
	listeners map[int64]func(biocard.AuthEvent)
	mutex     sync.RWMutex
}

func NewAuthBroadcaster() *AuthBroadcaster {
	return &AuthBroadcaster{
		listeners: make(map[int64]func(biocard.AuthEvent)),
	}
}

var _ biocard.AuthEvents = (*AuthBroadcaster)(nil)

type subscription struct {
	once sync.Once
	b    *AuthBroadcaster
	id   int64
}

func (s *subscription) Close() error {
	s.once.Do(func() {
		s.b.mutex.Lock()
		defer s.b.mutex.Unlock()
		delete(s.b.listeners, s.id)
	})
	return nil
}

func (b *AuthBroadcaster) Subscribe(listener func(biocard.AuthEvent)) biocard.Subscription {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.lastId++
	b.listeners[b.lastId] = listener
	return &subscription{b: b, id: b.lastId}
}

func (b *AuthBroadcaster) Publish(event biocard.AuthEvent) {
	b.mutex.RLock()
	listeners := make([]func(biocard.AuthEvent), 0, len(b.listeners))
	for _, l := range b.listeners {
		listeners = append(listeners, l)
	}
	b.mutex.RUnlock()

	for _, l := range listeners {
		l(event)
	}
}
