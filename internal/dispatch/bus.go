// Package dispatch provides the in-process publish/subscribe bus used by
// simulation subsystems to communicate without direct coupling.
//
// Delivery is strictly ordered: Publish enqueues, and a single iterative
// drain loop processes the queue. Events published from inside a handler are
// processed after every handler of the current event has run, never
// interleaved with them, and never reentrantly. The ordering guarantee comes
// from the explicit queue, not from any scheduler.
package dispatch

import (
	"log"
	"strings"
	"sync"
)

// DefaultHistoryCap bounds the trailing dispatch history kept for diagnostics.
const DefaultHistoryCap = 10000

// Event is a dispatched bus event.
type Event struct {
	// Seq is the dispatch order, assigned when the event is drained.
	Seq uint64
	// Name is the event name, conventionally "category.action".
	Name string
	// Payload is the event payload; handlers must treat it as read-only.
	Payload any
}

// Handler receives dispatched events.
type Handler func(Event)

type subscription struct {
	id      uint64
	pattern string
	handler Handler
	removed bool
}

// Bus is an in-process publish/subscribe dispatcher.
type Bus struct {
	mu         sync.Mutex
	subs       []*subscription
	nextSubID  uint64
	queue      []Event
	draining   bool
	nextSeq    uint64
	history    []Event
	historyCap int
	logf       func(format string, args ...any)
}

// Option configures a Bus.
type Option func(*Bus)

// WithHistoryCap overrides the bounded dispatch-history size.
func WithHistoryCap(cap int) Option {
	return func(b *Bus) {
		if cap > 0 {
			b.historyCap = cap
		}
	}
}

// WithLogger overrides the handler-fault logger. Used by tests.
func WithLogger(logf func(format string, args ...any)) Option {
	return func(b *Bus) {
		if logf != nil {
			b.logf = logf
		}
	}
}

// NewBus creates a dispatcher with an empty subscription set.
func NewBus(opts ...Option) *Bus {
	bus := &Bus{
		historyCap: DefaultHistoryCap,
		logf:       log.Printf,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(bus)
		}
	}
	return bus
}

// Subscribe registers a handler for events matching pattern and returns the
// function that removes the subscription.
//
// Patterns are matched three ways: an exact event name, a category prefix
// ending in "*" (for example "scene.*" matches any name starting with
// "scene."), and the single wildcard "*" which matches every event.
func (b *Bus) Subscribe(pattern string, handler Handler) (unsubscribe func()) {
	if handler == nil {
		return func() {}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSubID++
	sub := &subscription{
		id:      b.nextSubID,
		pattern: pattern,
		handler: handler,
	}
	b.subs = append(b.subs, sub)

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		sub.removed = true
		for i, candidate := range b.subs {
			if candidate.id == sub.id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish enqueues an event and, unless a drain pass is already running,
// drains the queue. A handler that panics is logged and skipped; delivery
// continues to the remaining handlers of that event.
func (b *Bus) Publish(name string, payload any) {
	b.mu.Lock()
	b.queue = append(b.queue, Event{Name: name, Payload: payload})
	if b.draining {
		// A drain pass higher on the stack will pick this event up after
		// the current event's handlers finish.
		b.mu.Unlock()
		return
	}
	b.draining = true
	b.mu.Unlock()

	b.drain()
}

func (b *Bus) drain() {
	for {
		b.mu.Lock()
		if len(b.queue) == 0 {
			b.draining = false
			b.mu.Unlock()
			return
		}
		evt := b.queue[0]
		b.queue = b.queue[1:]
		b.nextSeq++
		evt.Seq = b.nextSeq
		b.recordHistory(evt)
		matched := b.matchingSubs(evt.Name)
		b.mu.Unlock()

		for _, sub := range matched {
			b.deliver(sub, evt)
		}
	}
}

// matchingSubs snapshots the matching subscriptions in registration order.
// Callers must hold b.mu.
func (b *Bus) matchingSubs(name string) []*subscription {
	matched := make([]*subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		if matchPattern(sub.pattern, name) {
			matched = append(matched, sub)
		}
	}
	return matched
}

func (b *Bus) deliver(sub *subscription, evt Event) {
	b.mu.Lock()
	removed := sub.removed
	b.mu.Unlock()
	if removed {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			b.logf("dispatch: handler for %q panicked on %q: %v", sub.pattern, evt.Name, r)
		}
	}()
	sub.handler(evt)
}

func (b *Bus) recordHistory(evt Event) {
	b.history = append(b.history, evt)
	if len(b.history) > b.historyCap {
		b.history = b.history[len(b.history)-b.historyCap:]
	}
}

// History returns a copy of the bounded trailing dispatch history, oldest
// first.
func (b *Bus) History() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Event, len(b.history))
	copy(out, b.history)
	return out
}

func matchPattern(pattern, name string) bool {
	if pattern == "*" {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(name, prefix)
	}
	return pattern == name
}
