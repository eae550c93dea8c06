// Package notify carries "votes changed, fetch again" signals from the
// code that writes votes to everyone watching.
//
// Signals carry no vote data. Subscribers always re-read the full vote
// set, so a signal can be merged with others or delivered late without
// losing anything.
package notify

import (
	"context"
	"sync"
	"time"
)

// Event describes a change. CategoryID is informational; subscribers
// refresh everything regardless.
type Event struct {
	CategoryID string    `json:"categoryId"`
	At         time.Time `json:"at"`
}

// Publisher announces that votes changed.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Broker fans events out to in-process subscribers.
//
// Each subscription has a one-slot buffer. Publishing never blocks: if a
// subscriber already has a pending signal, the new one merges into it.
type Broker struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

var _ Publisher = (*Broker)(nil)

func NewBroker() *Broker {
	return &Broker{subs: make(map[*Subscription]struct{})}
}

// Subscription receives one value on C per burst of changes. C is
// closed when the subscription or the broker is closed.
type Subscription struct {
	C <-chan struct{}

	c      chan struct{}
	broker *Broker
	once   sync.Once
}

// Subscribe registers a new subscriber. Subscribing to a closed broker
// returns an already-closed subscription.
func (b *Broker) Subscribe() *Subscription {
	c := make(chan struct{}, 1)
	s := &Subscription{C: c, c: c, broker: b}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		s.once.Do(func() { close(c) })
		return s
	}
	b.subs[s] = struct{}{}
	return s
}

// Close unsubscribes. Safe to call more than once.
func (s *Subscription) Close() {
	s.broker.mu.Lock()
	defer s.broker.mu.Unlock()
	s.closeLocked()
}

func (s *Subscription) closeLocked() {
	s.once.Do(func() {
		delete(s.broker.subs, s)
		close(s.c)
	})
}

// Publish signals every subscriber.
func (b *Broker) Publish(_ context.Context, _ Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for s := range b.subs {
		select {
		case s.c <- struct{}{}:
		default:
			// already pending
		}
	}
	return nil
}

// Subscribers returns the number of live subscriptions.
func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close closes every subscription and rejects new ones.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for s := range b.subs {
		s.closeLocked()
	}
}
