// Package notify fans events out to subscribers without ever blocking the
// publisher.
//
// Each Subscription owns a small buffered channel. Publish delivers to every
// subscription in registration order; when a subscriber has not drained its
// buffer the event is dropped for that subscriber only. This suits
// "something changed, re-read the state" signals, where a pending event
// already carries everything a late reader needs to know.
package notify

import (
	"slices"
	"sync"
)

// DefaultBuffer is the per-subscription buffer used by NewBroker.
const DefaultBuffer = 1

// Subscription receives events published after it was created, until it is
// unsubscribed or the broker is closed. Its channel is closed at that point.
type Subscription[T any] struct {
	ch chan T
}

// C returns the channel events are delivered on.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Broker is safe for concurrent use.
type Broker[T any] struct {
	mu     sync.Mutex
	subs   []*Subscription[T]
	buffer int
	closed bool
}

func NewBroker[T any]() *Broker[T] {
	return NewBrokerWithBuffer[T](DefaultBuffer)
}

// NewBrokerWithBuffer creates a broker whose subscriptions buffer up to n
// events. n below 1 is raised to 1.
func NewBrokerWithBuffer[T any](n int) *Broker[T] {
	if n < 1 {
		n = 1
	}
	return &Broker[T]{buffer: n}
}

// Subscribe registers a new subscription. On a closed broker the returned
// subscription's channel is already closed.
func (b *Broker[T]) Subscribe() *Subscription[T] {
	s := &Subscription[T]{ch: make(chan T, b.buffer)}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(s.ch)
		return s
	}
	b.subs = append(b.subs, s)
	return s
}

// Unsubscribe removes s and closes its channel. Unknown or already removed
// subscriptions are ignored.
func (b *Broker[T]) Unsubscribe(s *Subscription[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := slices.Index(b.subs, s)
	if i < 0 {
		return
	}
	b.subs = slices.Delete(b.subs, i, i+1)
	close(s.ch)
}

// Publish offers ev to every subscription in registration order and returns
// how many accepted it.
func (b *Broker[T]) Publish(ev T) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	delivered := 0
	for _, s := range b.subs {
		select {
		case s.ch <- ev:
			delivered++
		default:
		}
	}
	return delivered
}

// Len returns the number of active subscriptions.
func (b *Broker[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close unsubscribes everyone. Later publishes are no-ops.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, s := range b.subs {
		close(s.ch)
	}
	b.subs = nil
}
