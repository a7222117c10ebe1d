// Package events carries full-snapshot notifications from the core to
// its observers. Every publish delivers the complete record for its
// topic, so an observer that misses intermediate events converges to a
// consistent view by reading the latest one.
package events

import "sync"

// Topic names one snapshot stream.
type Topic string

const (
	TopicUpdateStatus  Topic = "update-status"
	TopicUpdateConfig  Topic = "update-config"
	TopicPrivacyConfig Topic = "privacy-config"
	TopicPrivacyStats  Topic = "privacy-stats"
)

// Event is one published snapshot.
type Event struct {
	Topic   Topic       `json:"type"`
	Payload interface{} `json:"payload"`
}

// Bus is an in-process fan-out channel. Publish never blocks: a
// subscriber whose buffer is full loses the event and catches up on
// the next snapshot.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]chan Event
	next int
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers an observer. The returned cancel func must be
// called when the observer goes away.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

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

// Publish fans an event out to every subscriber without blocking.
func (b *Bus) Publish(topic Topic, payload interface{}) {
	ev := Event{Topic: topic, Payload: payload}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribers returns the current observer count.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
