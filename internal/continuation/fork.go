package continuation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/louisbranch/palimpsest/internal/generator"
	"github.com/louisbranch/palimpsest/internal/narrative/event"
	"github.com/louisbranch/palimpsest/internal/platform/id"
	"github.com/louisbranch/palimpsest/internal/random"
	"github.com/louisbranch/palimpsest/internal/sim"
)

// ForkOptions configures a continuation fork.
type ForkOptions struct {
	// Frame is where to fork from; nil means the head of the recording.
	Frame *uint64
	// Seed becomes the new run's root seed; zero draws a fresh random one.
	// Passing the parent's seed deliberately replays the parent's luck.
	Seed uint64
	// CheckpointInterval is passed through to the new simulation.
	CheckpointInterval uint64
	// Generator is the collaborator for the new run; nil falls back to the
	// simulation default.
	Generator generator.Generator
	// Clock overrides the wall-clock source. Used by tests.
	Clock func() time.Time
}

// Fork describes one continuation lineage link: which recording it came
// from, where it branched, and the seed the new timeline runs under.
type Fork struct {
	// ID uniquely names this fork.
	ID string
	// ParentSeed is the root seed of the recording forked from.
	ParentSeed uint64
	// Seed is the new run's root seed.
	Seed uint64
	// Frame is the branch point on the parent timeline.
	Frame uint64
	// Resolution records how the branch-point state was reconstructed.
	Resolution Resolution
	// CreatedAt is when the fork was made.
	CreatedAt time.Time
}

// ContinueAsNewGame branches a fresh, live simulation off the loaded
// recording. The new simulation starts at the branch frame with an empty
// journal and its own seed lineage; the loaded container is read-only and
// unaffected.
func (e *Engine) ContinueAsNewGame(ctx context.Context, opts ForkOptions) (*sim.Simulation, Fork, error) {
	_, span := tracer.Start(ctx, "continuation.fork")
	defer span.End()

	if !e.loaded {
		return nil, Fork{}, ErrNotLoaded
	}

	frame := e.container.Header.FrameCount
	if opts.Frame != nil {
		frame = *opts.Frame
	}
	span.SetAttributes(attribute.Int64("fork.frame", int64(frame)))

	state, resolution, err := e.StateAtFrame(frame)
	if err != nil {
		return nil, Fork{}, err
	}
	span.SetAttributes(attribute.String("fork.tier", string(resolution.Tier)))

	newSeed := opts.Seed
	if newSeed == 0 {
		newSeed, err = random.NewSeed()
		if err != nil {
			return nil, Fork{}, fmt.Errorf("draw fork seed: %w", err)
		}
	}

	simulation, err := sim.New(sim.Options{
		Seed:               newSeed,
		InitialState:       state,
		CheckpointInterval: opts.CheckpointInterval,
		Generator:          opts.Generator,
		Clock:              opts.Clock,
	})
	if err != nil {
		return nil, Fork{}, fmt.Errorf("start fork: %w", err)
	}

	forkID, err := id.NewID()
	if err != nil {
		return nil, Fork{}, fmt.Errorf("generate fork id: %w", err)
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	fork := Fork{
		ID:         forkID,
		ParentSeed: e.container.Header.Seed,
		Seed:       newSeed,
		Frame:      frame,
		Resolution: resolution,
		CreatedAt:  now().UTC(),
	}
	return simulation, fork, nil
}

// PlayAndContinue replays the recorded events of the first n frames
// through perEvent in sequence order, then forks a new game from frame n.
// The walk is read-only and each event handed to perEvent is a deep copy;
// a nil perEvent skips straight to the fork. Cancellation between events
// aborts before any fork is made.
func (e *Engine) PlayAndContinue(ctx context.Context, n uint64, opts ForkOptions, perEvent func(evt event.Event) error) (*sim.Simulation, Fork, error) {
	if !e.loaded {
		return nil, Fork{}, ErrNotLoaded
	}

	for _, evt := range e.container.Events {
		if evt.Frame > n {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, Fork{}, err
		}
		if perEvent == nil {
			continue
		}
		if err := perEvent(evt.Clone()); err != nil {
			return nil, Fork{}, fmt.Errorf("replay event %d: %w", evt.Seq, err)
		}
	}

	branch := n
	opts.Frame = &branch
	return e.ContinueAsNewGame(ctx, opts)
}
