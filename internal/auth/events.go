package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventSignedIn  EventType = "signed_in"
	EventSignedOut EventType = "signed_out"
)

type Event struct {
	Type   EventType
	UserID uuid.UUID
	At     time.Time
}

// Events fans session changes out to listeners. Listeners run synchronously
// on the publishing goroutine and must not block.
type Events struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(Event)
}

func NewEvents() *Events {
	return &Events{subs: make(map[int]func(Event))}
}

// Subscribe registers fn and returns a function that removes it.
func (e *Events) Subscribe(fn func(Event)) func() {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.subs[id] = fn
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.subs, id)
		e.mu.Unlock()
	}
}

func (e *Events) Publish(t EventType, userID uuid.UUID) {
	ev := Event{Type: t, UserID: userID, At: time.Now().UTC()}

	e.mu.RLock()
	fns := make([]func(Event), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	e.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}
