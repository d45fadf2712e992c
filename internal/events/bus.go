// Package events fans out sink and device snapshots to API event streams.
package events

import (
	"sync"

	"github.com/google/uuid"

	"github.com/micro-nova/pwsink-go/internal/models"
)

const subBufferSize = 8

// Bus is a non-blocking publish-subscribe bus of status snapshots. A slow
// subscriber misses snapshots instead of blocking publishers; each snapshot is
// complete, so the next one supersedes whatever was dropped.
type Bus struct {
	mu   sync.Mutex
	subs map[string]chan models.Status
}

// Subscription receives snapshots on C until Close.
type Subscription struct {
	ID string
	C  <-chan models.Status

	bus *Bus
}

// Close ends the subscription and closes C. It is safe to call twice.
func (s *Subscription) Close() {
	s.bus.unsubscribe(s.ID)
}

// NewBus creates a new event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]chan models.Status)}
}

// Subscribe registers a new subscriber.
func (b *Bus) Subscribe() *Subscription {
	ch := make(chan models.Status, subBufferSize)
	id := uuid.NewString()

	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()
	return &Subscription{ID: id, C: ch, bus: b}
}

func (b *Bus) unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish hands st to every subscriber with room in its buffer.
func (b *Bus) Publish(st models.Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- st:
		default:
		}
	}
}

// Len returns the number of subscribers.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
