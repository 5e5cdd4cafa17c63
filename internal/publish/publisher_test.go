package publish

import (
	"errors"
	"fmt"
	"testing"

	"github.com/louisbranch/palimpsest/internal/narrative/event"
	"github.com/louisbranch/palimpsest/internal/world"
)

type recordingObserver struct {
	states []string
	events []event.Type
}

func (r *recordingObserver) StateUpdated(state world.State, eventType string, metadata map[string]string) {
	r.states = append(r.states, eventType)
}

func (r *recordingObserver) GameEvent(evt event.Event) {
	r.events = append(r.events, evt.Type)
}

type panickingObserver struct{}

func (panickingObserver) StateUpdated(world.State, string, map[string]string) {
	panic("observer exploded")
}

type stateOnlyObserver struct{ calls int }

func (s *stateOnlyObserver) StateUpdated(world.State, string, map[string]string) { s.calls++ }

func TestPublish_FaultIsolation(t *testing.T) {
	var logged []string
	publisher := NewPublisher(WithLogger(func(format string, args ...any) {
		logged = append(logged, fmt.Sprintf(format, args...))
	}))

	if _, err := publisher.Subscribe(panickingObserver{}); err != nil {
		t.Fatalf("subscribe panicking: %v", err)
	}
	recorder := &recordingObserver{}
	if _, err := publisher.Subscribe(recorder); err != nil {
		t.Fatalf("subscribe recorder: %v", err)
	}

	publisher.Publish(world.State{}, "x", nil)

	if len(recorder.states) != 1 {
		t.Fatalf("recorder notified %d times, want exactly 1", len(recorder.states))
	}
	if len(logged) != 1 {
		t.Fatalf("logged %d faults, want 1", len(logged))
	}
}

func TestPublish_NotifiesInSubscriptionOrder(t *testing.T) {
	publisher := NewPublisher()
	var order []string

	first := &orderObserver{name: "first", order: &order}
	second := &orderObserver{name: "second", order: &order}
	if _, err := publisher.Subscribe(first); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if _, err := publisher.Subscribe(second); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	publisher.Publish(world.State{}, "tick", nil)

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("order = %v, want [first second]", order)
	}
}

type orderObserver struct {
	name  string
	order *[]string
}

func (o *orderObserver) StateUpdated(world.State, string, map[string]string) {
	*o.order = append(*o.order, o.name)
}

func TestBroadcast_ReachesEventObserversOnly(t *testing.T) {
	publisher := NewPublisher()
	recorder := &recordingObserver{}
	stateOnly := &stateOnlyObserver{}

	if _, err := publisher.Subscribe(recorder); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if _, err := publisher.Subscribe(stateOnly); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	publisher.Broadcast(event.Event{Type: event.TypeActorSpoke})

	if len(recorder.events) != 1 || recorder.events[0] != event.TypeActorSpoke {
		t.Fatalf("recorder events = %v", recorder.events)
	}
	if stateOnly.calls != 0 {
		t.Fatal("state-only observer received a broadcast")
	}
}

func TestSubscribe_WarnsWhenNoCallbacks(t *testing.T) {
	var logged []string
	publisher := NewPublisher(WithLogger(func(format string, args ...any) {
		logged = append(logged, fmt.Sprintf(format, args...))
	}))

	if _, err := publisher.Subscribe(struct{}{}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if len(logged) != 1 {
		t.Fatalf("logged %d warnings, want 1", len(logged))
	}
}

func TestSubscribe_RejectsNil(t *testing.T) {
	publisher := NewPublisher()
	if _, err := publisher.Subscribe(nil); !errors.Is(err, ErrSubscriberRequired) {
		t.Fatalf("err = %v, want ErrSubscriberRequired", err)
	}
}

func TestUnsubscribe(t *testing.T) {
	publisher := NewPublisher()
	recorder := &recordingObserver{}

	subscriberID, err := publisher.Subscribe(recorder)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	publisher.Publish(world.State{}, "one", nil)

	if err := publisher.Unsubscribe(subscriberID); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	publisher.Publish(world.State{}, "two", nil)

	if len(recorder.states) != 1 {
		t.Fatalf("recorder notified %d times, want 1", len(recorder.states))
	}
	if err := publisher.Unsubscribe(subscriberID); !errors.Is(err, ErrSubscriberNotFound) {
		t.Fatalf("err = %v, want ErrSubscriberNotFound", err)
	}
	if publisher.Len() != 0 {
		t.Fatalf("len = %d, want 0", publisher.Len())
	}
}
