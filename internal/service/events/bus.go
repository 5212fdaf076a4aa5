// Package events is an in-process notification bus. Handlers publish
// domain events (plan updates, parked thoughts) and the event push
// endpoints fan them out to connected clients.
package events

import (
	"log"
	"sync"
)

// Event is one notification pushed to connected clients.
type Event struct {
	Name string         `json:"event"`
	Data map[string]any `json:"data,omitempty"`
}

// Well-known event names.
const (
	EventPlanUpdated   = "plan_updated"
	EventThoughtParked = "thought_parked"
	EventHeartbeat     = "heartbeat"
)

const subscriberBuffer = 16

// Bus fans published events out to all subscribers. Each subscriber
// owns a buffered queue; a full queue drops the event rather than
// blocking the publisher.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]chan Event
	next int
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers a new listener. The returned cancel func must be
// called when the listener goes away; it closes the channel.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber queue.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subs {
		select {
		case ch <- event:
		default:
			log.Printf("[events] subscriber %d queue full, dropping %s", id, event.Name)
		}
	}
}

// Subscribers reports the current listener count.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
