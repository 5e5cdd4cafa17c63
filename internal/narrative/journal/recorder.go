// Package journal provides the append-only event recorder for a single
// recorded session.
//
// The journal is append-only in time order: an event whose frame is older
// than the tail is rejected outright. This is the central ordering invariant
// the rest of the system depends on: checkpoints, containers and
// continuations all assume the log never runs backward.
package journal

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/louisbranch/palimpsest/internal/narrative/checkpoint"
	"github.com/louisbranch/palimpsest/internal/narrative/event"
	apperrors "github.com/louisbranch/palimpsest/internal/platform/errors"
	"github.com/louisbranch/palimpsest/internal/world"
)

var (
	// ErrFrameOrder indicates an append with a frame older than the journal tail.
	ErrFrameOrder = apperrors.New(apperrors.CodeJournalFrameOrder, "event frame is older than the journal tail")
	// ErrUnknownType indicates an append with an unregistered event type.
	ErrUnknownType = apperrors.New(apperrors.CodeJournalTypeUnknown, "event type is not registered")
)

// AppendInput describes the input for recording an event.
type AppendInput struct {
	// Frame is the logical time of the event; must not precede the tail.
	Frame uint64
	// Type is the semantic event name.
	Type event.Type
	// Payload is marshalled to JSON; []byte and json.RawMessage values are
	// taken as already-encoded documents.
	Payload any
	// ActorID names the acting entity; empty for system events.
	ActorID string
	// Snapshot optionally attaches a full-state copy for fine-grained
	// random access at this exact frame.
	Snapshot *world.State
}

// Recorder accumulates immutable events for one session timeline.
type Recorder struct {
	mu          sync.Mutex
	registry    *event.Registry
	checkpoints *checkpoint.Store
	events      []event.Event
	nextSeq     uint64
	lastFrame   uint64
	appended    bool
	permissive  bool
	now         func() time.Time
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock overrides the append timestamp source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// Permissive disables the registered-type check, letting the recorder accept
// event types it has no definition for, such as events carried over from
// containers produced by newer builds.
func Permissive() Option {
	return func(r *Recorder) {
		r.permissive = true
	}
}

// NewRecorder creates an empty recorder. The checkpoint store may be shared
// with the simulation that owns the recorder.
func NewRecorder(registry *event.Registry, checkpoints *checkpoint.Store, opts ...Option) *Recorder {
	recorder := &Recorder{
		registry:    registry,
		checkpoints: checkpoints,
		now:         time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(recorder)
		}
	}
	return recorder
}

// Append records an event, assigning its sequence number and timestamp.
// Appends with a frame older than the journal tail are rejected and leave
// the journal unchanged.
func (r *Recorder) Append(in AppendInput) (event.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.appended && in.Frame < r.lastFrame {
		return event.Event{}, apperrors.WithMetadata(
			apperrors.CodeJournalFrameOrder,
			fmt.Sprintf("append at frame %d precedes journal tail %d", in.Frame, r.lastFrame),
			map[string]string{
				"frame": fmt.Sprintf("%d", in.Frame),
				"tail":  fmt.Sprintf("%d", r.lastFrame),
			},
		)
	}
	if !r.permissive && r.registry != nil && !r.registry.Known(in.Type) {
		return event.Event{}, apperrors.WithMetadata(
			apperrors.CodeJournalTypeUnknown,
			fmt.Sprintf("event type %q is not registered", in.Type),
			map[string]string{"type": string(in.Type)},
		)
	}

	payload, err := encodePayload(in.Payload)
	if err != nil {
		return event.Event{}, fmt.Errorf("marshal event payload: %w", err)
	}

	var snapshot *world.State
	if in.Snapshot != nil {
		cloned := in.Snapshot.Clone()
		snapshot = &cloned
	}

	r.nextSeq++
	evt := event.Event{
		Seq:       r.nextSeq,
		Frame:     in.Frame,
		Type:      in.Type,
		Payload:   payload,
		ActorID:   in.ActorID,
		Timestamp: r.now().UTC(),
		Snapshot:  snapshot,
	}
	r.events = append(r.events, evt)
	r.lastFrame = in.Frame
	r.appended = true
	return evt, nil
}

// Checkpoint captures a full-state snapshot at the given frame, delegating
// to the checkpoint store.
func (r *Recorder) Checkpoint(frame uint64, state world.State) (checkpoint.Checkpoint, error) {
	if r.checkpoints == nil {
		return checkpoint.Checkpoint{}, fmt.Errorf("checkpoint store is not configured")
	}
	return r.checkpoints.Capture(frame, state)
}

// Events returns a copy of the recorded events in append order.
func (r *Recorder) Events() []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]event.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// LastFrame returns the frame of the most recent append and whether any
// event has been appended.
func (r *Recorder) LastFrame() (uint64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastFrame, r.appended
}

// Flush hands off the accumulated events and checkpoints to the container
// writer and clears the recorder's internal slices, preventing double
// ownership. Sequence numbers keep advancing across flushes.
func (r *Recorder) Flush() ([]event.Event, []checkpoint.Checkpoint) {
	r.mu.Lock()
	events := r.events
	r.events = nil
	r.mu.Unlock()

	var checkpoints []checkpoint.Checkpoint
	if r.checkpoints != nil {
		checkpoints = r.checkpoints.Flush()
	}
	return events, checkpoints
}

func encodePayload(payload any) ([]byte, error) {
	switch typed := payload.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		out := make([]byte, len(typed))
		copy(out, typed)
		return out, nil
	case []byte:
		out := make([]byte, len(typed))
		copy(out, typed)
		return out, nil
	default:
		return json.Marshal(payload)
	}
}
