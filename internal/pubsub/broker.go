// Package pubsub provides a small generic publish/subscribe broker.
// Subscribers receive events on buffered channels scoped to a context;
// slow subscribers drop events rather than block the publisher.
package pubsub

import (
	"context"
	"sync"
)

// EventType describes the kind of change an event carries.
type EventType int

const (
	// CreatedEvent signals that the payload was created.
	CreatedEvent EventType = iota
	// UpdatedEvent signals that the payload changed.
	UpdatedEvent
	// DeletedEvent signals that the payload was removed.
	DeletedEvent
)

// Event pairs an event type with its payload.
type Event[T any] struct {
	Type    EventType
	Payload T
}

// subscriberBufferSize bounds how far a subscriber may lag before events
// are dropped for it.
const subscriberBufferSize = 64

// Broker fans events out to all active subscribers.
type Broker[T any] struct {
	mu   sync.Mutex
	subs map[chan Event[T]]struct{}
}

// NewBroker creates an empty broker.
func NewBroker[T any]() *Broker[T] {
	return &Broker[T]{subs: make(map[chan Event[T]]struct{})}
}

// Subscribe registers a new subscriber. The returned channel is closed when
// ctx is cancelled.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	ch := make(chan Event[T], subscriberBufferSize)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, ch)
		b.mu.Unlock()
		close(ch)
	}()

	return ch
}

// Publish delivers the event to every current subscriber. Delivery is
// non-blocking: a subscriber whose buffer is full misses the event.
func (b *Broker[T]) Publish(eventType EventType, payload T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs {
		select {
		case ch <- Event[T]{Type: eventType, Payload: payload}:
		default:
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Broker[T]) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// ContinuousListener wraps a subscription for consumers that pull events one
// at a time (for example a TUI update loop).
type ContinuousListener[T any] struct {
	ch <-chan Event[T]
}

// NewContinuousListener subscribes to the broker and returns a listener bound
// to ctx.
func NewContinuousListener[T any](ctx context.Context, b *Broker[T]) *ContinuousListener[T] {
	return &ContinuousListener[T]{ch: b.Subscribe(ctx)}
}

// Next blocks until the next event arrives. The second return value is false
// once the subscription's context has been cancelled.
func (l *ContinuousListener[T]) Next() (Event[T], bool) {
	ev, ok := <-l.ch
	return ev, ok
}
