package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusFanOut(t *testing.T) {
	b := NewBus()
	a, cancelA := b.Subscribe(4)
	defer cancelA()
	c, cancelC := b.Subscribe(4)
	defer cancelC()

	b.Publish(TopicUpdateStatus, "snapshot")

	evA := <-a
	evC := <-c
	assert.Equal(t, TopicUpdateStatus, evA.Topic)
	assert.Equal(t, "snapshot", evA.Payload)
	assert.Equal(t, evA, evC)
}

func TestBusPublishNeverBlocks(t *testing.T) {
	b := NewBus()
	sub, cancel := b.Subscribe(1)
	defer cancel()

	// The second publish overflows the buffer and must be dropped,
	// not block the publisher.
	b.Publish(TopicPrivacyStats, 1)
	b.Publish(TopicPrivacyStats, 2)

	ev := <-sub
	assert.Equal(t, 1, ev.Payload)
	select {
	case ev := <-sub:
		t.Fatalf("unexpected buffered event: %v", ev)
	default:
	}
}

func TestBusCancel(t *testing.T) {
	b := NewBus()
	sub, cancel := b.Subscribe(4)
	require.Equal(t, 1, b.Subscribers())

	cancel()
	assert.Equal(t, 0, b.Subscribers())

	_, open := <-sub
	assert.False(t, open)

	// Publishing after cancel reaches nobody and must not panic.
	b.Publish(TopicUpdateStatus, "late")

	// Double cancel is safe.
	cancel()
}
