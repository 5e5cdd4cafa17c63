// Package publish distributes live simulation state to independent
// subscribers.
//
// The coupling is strictly one-directional: the simulation pushes, the
// subscribers receive, and the publisher retains nothing the simulation
// depends on. Removing every subscriber must not change simulation
// behavior. A misbehaving observer is logged and skipped; it can never
// block or corrupt notification of the others.
package publish

import (
	"fmt"
	"log"
	"sync"

	"github.com/louisbranch/palimpsest/internal/narrative/event"
	apperrors "github.com/louisbranch/palimpsest/internal/platform/errors"
	"github.com/louisbranch/palimpsest/internal/platform/id"
	"github.com/louisbranch/palimpsest/internal/world"
)

var (
	// ErrSubscriberRequired indicates a nil subscriber.
	ErrSubscriberRequired = apperrors.New(apperrors.CodeSubscriberRequired, "subscriber is required")
	// ErrSubscriberNotFound indicates an unsubscribe for an unknown id.
	ErrSubscriberNotFound = apperrors.New(apperrors.CodeSubscriberNotFound, "subscriber not found")
)

// StateObserver receives full-state updates. State is read-only by
// convention; observers must not mutate it.
type StateObserver interface {
	StateUpdated(state world.State, eventType string, metadata map[string]string)
}

// EventObserver receives individual game events without a state snapshot.
type EventObserver interface {
	GameEvent(evt event.Event)
}

type subscriber struct {
	id    string
	state StateObserver
	event EventObserver
}

// Publisher pushes state and events to subscribers in subscription order.
type Publisher struct {
	mu          sync.Mutex
	subscribers []subscriber
	logf        func(format string, args ...any)
	newID       func() (string, error)
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithLogger overrides the subscriber-fault logger. Used by tests.
func WithLogger(logf func(format string, args ...any)) Option {
	return func(p *Publisher) {
		if logf != nil {
			p.logf = logf
		}
	}
}

// NewPublisher creates a publisher with no subscribers.
func NewPublisher(opts ...Option) *Publisher {
	publisher := &Publisher{
		logf:  log.Printf,
		newID: id.NewID,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(publisher)
		}
	}
	return publisher
}

// Subscribe registers a subscriber and returns its id. The subscriber
// should implement StateObserver, EventObserver, or both; one that
// implements neither is accepted but logged as a warning, since it will
// never be notified of anything.
func (p *Publisher) Subscribe(s any) (string, error) {
	if s == nil {
		return "", ErrSubscriberRequired
	}

	stateObserver, _ := s.(StateObserver)
	eventObserver, _ := s.(EventObserver)
	if stateObserver == nil && eventObserver == nil {
		p.logf("publish: subscriber %T implements neither StateObserver nor EventObserver", s)
	}

	subscriberID, err := p.newID()
	if err != nil {
		return "", fmt.Errorf("generate subscriber id: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = append(p.subscribers, subscriber{
		id:    subscriberID,
		state: stateObserver,
		event: eventObserver,
	})
	return subscriberID, nil
}

// Unsubscribe removes the subscriber with the given id.
func (p *Publisher) Unsubscribe(subscriberID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, sub := range p.subscribers {
		if sub.id == subscriberID {
			p.subscribers = append(p.subscribers[:i], p.subscribers[i+1:]...)
			return nil
		}
	}
	return apperrors.WithMetadata(apperrors.CodeSubscriberNotFound,
		fmt.Sprintf("subscriber %q not found", subscriberID),
		map[string]string{"subscriber_id": subscriberID})
}

// Len returns the number of subscribers.
func (p *Publisher) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subscribers)
}

// Publish synchronously notifies every StateObserver in subscription order.
// A subscriber that panics is logged and skipped; the rest are still
// notified exactly once.
func (p *Publisher) Publish(state world.State, eventType string, metadata map[string]string) {
	for _, sub := range p.snapshot() {
		if sub.state == nil {
			continue
		}
		p.notify(sub.id, func() {
			sub.state.StateUpdated(state, eventType, metadata)
		})
	}
}

// Broadcast notifies every EventObserver of one event, without a state
// snapshot.
func (p *Publisher) Broadcast(evt event.Event) {
	for _, sub := range p.snapshot() {
		if sub.event == nil {
			continue
		}
		p.notify(sub.id, func() {
			sub.event.GameEvent(evt)
		})
	}
}

func (p *Publisher) snapshot() []subscriber {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]subscriber, len(p.subscribers))
	copy(out, p.subscribers)
	return out
}

func (p *Publisher) notify(subscriberID string, deliver func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logf("publish: subscriber %s panicked: %v", subscriberID, r)
		}
	}()
	deliver()
}
