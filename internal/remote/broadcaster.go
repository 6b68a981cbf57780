package remote

import (
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/strrl/idea-vault/pkg/models"
)

// Listener receives session transitions. It runs on the goroutine that
// caused the transition and should return promptly.
type Listener func(models.AuthEvent)

// Subscription is the handle returned by OnAuthStateChange
type Subscription struct {
	id   int
	bus  *broadcaster
	once sync.Once
}

// Unsubscribe stops delivery to the listener. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.bus.remove(s.id)
	})
}

type broadcaster struct {
	mu        sync.RWMutex
	listeners map[int]Listener
	nextID    int
}

func newBroadcaster() *broadcaster {
	return &broadcaster{
		listeners: make(map[int]Listener),
	}
}

func (b *broadcaster) add(fn Listener) *Subscription {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.listeners[id] = fn
	count := len(b.listeners)
	b.mu.Unlock()

	log.Debug().
		Int("listenerId", id).
		Int("totalListeners", count).
		Msg("Auth listener subscribed")

	return &Subscription{id: id, bus: b}
}

func (b *broadcaster) remove(id int) {
	b.mu.Lock()
	delete(b.listeners, id)
	count := len(b.listeners)
	b.mu.Unlock()

	log.Debug().
		Int("listenerId", id).
		Int("totalListeners", count).
		Msg("Auth listener unsubscribed")
}

func (b *broadcaster) count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

func (b *broadcaster) removeAll() {
	b.mu.Lock()
	b.listeners = make(map[int]Listener)
	b.mu.Unlock()
}

// publish delivers a copy of the session to every listener
func (b *broadcaster) publish(event models.AuthEvent) {
	b.mu.RLock()
	listeners := make([]Listener, 0, len(b.listeners))
	for _, fn := range b.listeners {
		listeners = append(listeners, fn)
	}
	b.mu.RUnlock()

	log.Debug().
		Str("event", string(event.Kind)).
		Int("listeners", len(listeners)).
		Msg("Publishing auth event")

	for _, fn := range listeners {
		e := event
		if event.Session != nil {
			s := *event.Session
			e.Session = &s
		}
		fn(e)
	}
}
