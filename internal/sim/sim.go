// Package sim hosts the live, mutable simulation instance.
//
// A Simulation owns its world state, journal, checkpoint store, dispatch
// bus, seed deriver, and publisher. Execution is single-threaded and
// cooperative: operations mutate state, then append events, then publish.
// Nothing runs in parallel with them.
package sim

import (
	"fmt"
	"time"

	"github.com/louisbranch/palimpsest/internal/dispatch"
	"github.com/louisbranch/palimpsest/internal/generator"
	"github.com/louisbranch/palimpsest/internal/narrative/checkpoint"
	"github.com/louisbranch/palimpsest/internal/narrative/event"
	"github.com/louisbranch/palimpsest/internal/narrative/journal"
	"github.com/louisbranch/palimpsest/internal/publish"
	"github.com/louisbranch/palimpsest/internal/seed"
	"github.com/louisbranch/palimpsest/internal/world"
)

// DefaultCheckpointInterval is the default frame spacing between automatic
// checkpoints.
const DefaultCheckpointInterval = 50

// framesPerDay is the number of frames in one in-world day.
const framesPerDay = 24

// frameTick is the in-world time one frame represents.
const frameTick = time.Hour

// Options configures a new Simulation.
type Options struct {
	// Seed is the root seed; all derived operation seeds descend from it.
	Seed uint64
	// InitialState is deep-copied into the simulation; the caller's copy
	// stays untouched.
	InitialState world.State
	// CheckpointInterval overrides the automatic checkpoint spacing.
	CheckpointInterval uint64
	// Generator is the narrative collaborator; defaults to the procedural
	// stand-in. It is wrapped for call recording either way.
	Generator generator.Generator
	// Registry overrides the event-type registry.
	Registry *event.Registry
	// Clock overrides the wall-clock source. Used by tests.
	Clock func() time.Time
}

// Simulation is one live, independently mutable narrative run.
type Simulation struct {
	state       world.State
	initial     world.State
	rootSeed    uint64
	registry    *event.Registry
	checkpoints *checkpoint.Store
	journal     *journal.Recorder
	bus         *dispatch.Bus
	deriver     *seed.Deriver
	publisher   *publish.Publisher
	generator   generator.Generator
	calls       *generator.Log
	interval    uint64
	now         func() time.Time
}

// New constructs a simulation from a validated initial state and captures
// the frame-zero checkpoint.
func New(opts Options) (*Simulation, error) {
	if err := opts.InitialState.Validate(); err != nil {
		return nil, fmt.Errorf("initial state: %w", err)
	}

	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	registry := opts.Registry
	if registry == nil {
		registry = event.DefaultRegistry()
	}
	interval := opts.CheckpointInterval
	if interval == 0 {
		interval = DefaultCheckpointInterval
	}
	inner := opts.Generator
	if inner == nil {
		inner = generator.Procedural{}
	}

	checkpoints := checkpoint.NewStore(checkpoint.WithClock(now))
	calls := generator.NewLog()
	s := &Simulation{
		state:       opts.InitialState.Clone(),
		initial:     opts.InitialState.Clone(),
		rootSeed:    opts.Seed,
		registry:    registry,
		checkpoints: checkpoints,
		journal:     journal.NewRecorder(registry, checkpoints, journal.WithClock(now)),
		bus:         dispatch.NewBus(),
		deriver:     seed.NewDeriver(opts.Seed),
		publisher:   publish.NewPublisher(),
		generator:   generator.NewRecording(inner, calls),
		calls:       calls,
		interval:    interval,
		now:         now,
	}
	// The opening checkpoint anchors random access: every frame from here on
	// is reachable by replaying forward from some checkpoint.
	if _, err := s.journal.Checkpoint(s.state.Clock.Frame, s.state); err != nil {
		return nil, err
	}
	return s, nil
}

// Frame returns the current simulation frame.
func (s *Simulation) Frame() uint64 {
	return s.state.Clock.Frame
}

// Seed returns the root seed of this run.
func (s *Simulation) Seed() uint64 {
	return s.rootSeed
}

// State returns a deep copy of the current state; the simulation's own
// state is never handed out by reference.
func (s *Simulation) State() world.State {
	return s.state.Clone()
}

// EventCount returns the number of events recorded so far.
func (s *Simulation) EventCount() int {
	return s.journal.Len()
}

// CheckpointCount returns the number of checkpoints captured so far.
func (s *Simulation) CheckpointCount() int {
	return s.checkpoints.Len()
}

// Bus exposes the dispatch bus for subsystem wiring.
func (s *Simulation) Bus() *dispatch.Bus {
	return s.bus
}

// Publisher exposes the state publisher for presentation subscriptions.
func (s *Simulation) Publisher() *publish.Publisher {
	return s.publisher
}

// Deriver exposes the seed deriver for rule subsystems that roll their own
// randomized operations.
func (s *Simulation) Deriver() *seed.Deriver {
	return s.deriver
}

// emit appends one event to the journal, dispatches it on the bus, and
// broadcasts it to event observers.
func (s *Simulation) emit(in journal.AppendInput) (event.Event, error) {
	evt, err := s.journal.Append(in)
	if err != nil {
		return event.Event{}, err
	}
	s.bus.Publish(string(evt.Type), evt)
	s.publisher.Broadcast(evt)
	return evt, nil
}

// MarkCheckpoint captures a caller-marked checkpoint at the current frame,
// used around semantically important events. Capturing twice at the same
// frame is a no-op.
func (s *Simulation) MarkCheckpoint() error {
	if last, ok := s.checkpoints.LastFrame(); ok && last >= s.state.Clock.Frame {
		return nil
	}
	_, err := s.journal.Checkpoint(s.state.Clock.Frame, s.state)
	return err
}

// maybeCheckpoint captures an automatic checkpoint when the frame lands on
// the configured interval.
func (s *Simulation) maybeCheckpoint() error {
	if s.state.Clock.Frame%s.interval != 0 {
		return nil
	}
	return s.MarkCheckpoint()
}
