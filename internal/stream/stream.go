package stream

import (
	"context"
	"sync"
	"time"
)

// LifecycleEvent describes one committed registration transition for live
// organizer dashboards.
type LifecycleEvent struct {
	EventID            string    `json:"event_id"`
	RegistrationID     string    `json:"registration_id"`
	Action             string    `json:"action"`
	Status             string    `json:"status"`
	RegistrationNumber string    `json:"registration_number,omitempty"`
	Timestamp          time.Time `json:"timestamp"`
}

// Feed fan-outs lifecycle events to all active subscribers (SSE clients).
type Feed struct {
	mu   sync.RWMutex
	subs map[int]subscriber
	next int
}

type subscriber struct {
	eventID string
	ch      chan LifecycleEvent
}

// New initialises an empty feed.
func New() *Feed {
	return &Feed{subs: make(map[int]subscriber)}
}

// Subscribe registers a subscriber for one event's transitions and returns a
// channel which will receive them. The channel is closed when the provided
// context ends. An empty eventID subscribes to every event.
func (f *Feed) Subscribe(ctx context.Context, eventID string) <-chan LifecycleEvent {
	ch := make(chan LifecycleEvent, 16)

	f.mu.Lock()
	id := f.next
	f.next++
	f.subs[id] = subscriber{eventID: eventID, ch: ch}
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.subs, id)
		close(ch)
		f.mu.Unlock()
	}()

	return ch
}

// Publish fan-outs the event to all matching subscribers.
func (f *Feed) Publish(evt LifecycleEvent) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, sub := range f.subs {
		if sub.eventID != "" && sub.eventID != evt.EventID {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			// Drop when subscriber is slow to avoid blocking.
		}
	}
}
