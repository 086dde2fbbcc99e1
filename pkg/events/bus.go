package events

import (
	"context"
	"sync"
)

// defaultBusCapacity bounds how many events may queue before Emit blocks.
const defaultBusCapacity = 64

// Bus is the per-execution FIFO event queue. Emit enqueues in order and
// blocks under back-pressure; events are never dropped or reordered.
//
// Ownership contract: the single producing goroutine calls Emit and, when
// finished, Close. Consumers only range over Events.
type Bus struct {
	ch        chan Event
	done      chan struct{}
	closeOnce sync.Once
}

// NewBus creates a bus. capacity ≤ 0 uses the default.
func NewBus(capacity int) *Bus {
	if capacity <= 0 {
		capacity = defaultBusCapacity
	}
	return &Bus{
		ch:   make(chan Event, capacity),
		done: make(chan struct{}),
	}
}

// Emit enqueues an event, blocking while the queue is full. Returns false
// when the bus is closed or ctx is cancelled before the event is accepted.
func (b *Bus) Emit(ctx context.Context, ev Event) bool {
	select {
	case <-b.done:
		return false
	default:
	}
	select {
	case b.ch <- ev:
		return true
	case <-b.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// Events returns the receive side of the queue. The channel is closed after
// Close once all queued events have been drained.
func (b *Bus) Events() <-chan Event {
	return b.ch
}

// Close marks the bus finished. Pending events remain readable; subsequent
// Emit calls return false. Safe to call multiple times.
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		close(b.done)
		close(b.ch)
	})
}
