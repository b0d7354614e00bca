package serve

import (
	"context"
	"errors"
	"sync"
)

// DefaultBusCapacity bounds how many undelivered notifications a single
// subscriber may accumulate before it is marked overrun.
const DefaultBusCapacity = 100

// ErrOverrun is returned by Subscriber.Receive when the subscriber fell
// behind the buffer bound. Callers must treat it like a delivered
// notification: in this protocol any signal means "reload now".
var ErrOverrun = errors.New("subscriber overrun: missed reload notifications")

// Message is a reload notification. It carries no payload; the signal
// itself means "content changed, reload now".
type Message struct{}

// Bus is a multi-subscriber broadcast channel for reload notifications.
//
// Publish never blocks and never fails, even with zero subscribers.
// Each subscriber observes only notifications published after it
// subscribed; a subscriber that drains too slowly is overrun rather
// than blocking the publisher or growing without bound.
type Bus struct {
	mu       sync.Mutex
	subs     map[*Subscriber]struct{}
	capacity int
}

// NewBus creates a bus with the default per-subscriber capacity.
func NewBus() *Bus {
	return NewBusWithCapacity(DefaultBusCapacity)
}

// NewBusWithCapacity creates a bus with the given per-subscriber
// capacity. Capacity must be at least 1.
func NewBusWithCapacity(capacity int) *Bus {
	if capacity < 1 {
		capacity = 1
	}
	return &Bus{
		subs:     make(map[*Subscriber]struct{}),
		capacity: capacity,
	}
}

// Subscribe returns a fresh subscriber that will observe only future
// publishes. Each subscriber must be closed by its owner.
func (b *Bus) Subscribe() *Subscriber {
	sub := &Subscriber{
		bus:     b,
		ch:      make(chan Message, b.capacity),
		overrun: make(chan struct{}),
	}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	return sub
}

// Publish broadcasts a reload notification to all current subscribers.
// It never blocks: a subscriber whose buffer is full is marked overrun
// instead.
func (b *Bus) Publish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subs {
		select {
		case sub.ch <- Message{}:
		default:
			if !sub.overrunSet {
				sub.overrunSet = true
				close(sub.overrun)
			}
		}
	}
}

// SubscriberCount returns the number of live subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Bus) remove(sub *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, sub)
}

// Subscriber is a consumer-side handle on the bus. It is owned by
// exactly one connection and is not safe for concurrent Receive calls.
type Subscriber struct {
	bus     *Bus
	ch      chan Message
	overrun chan struct{}

	// overrunSet is guarded by the bus mutex.
	overrunSet bool

	closeOnce sync.Once
}

// Receive blocks until a notification arrives, the subscriber is
// overrun, or the context is canceled. On overrun it returns
// ErrOverrun, which callers treat identically to a notification.
func (s *Subscriber) Receive(ctx context.Context) error {
	select {
	case <-s.ch:
		return nil
	case <-s.overrun:
		return ErrOverrun
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close detaches the subscriber from the bus.
func (s *Subscriber) Close() {
	s.closeOnce.Do(func() {
		s.bus.remove(s)
	})
}
