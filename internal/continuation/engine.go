// Package continuation turns saved containers back into live simulations.
//
// An Engine loads one container read-only and answers two questions: what
// did the world look like at frame N, and what would a new game continuing
// from frame N be. The loaded container is never mutated; every answer is
// a deep copy.
package continuation

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"

	"github.com/louisbranch/palimpsest/internal/container"
	"github.com/louisbranch/palimpsest/internal/generator"
	"github.com/louisbranch/palimpsest/internal/narrative/event"
	apperrors "github.com/louisbranch/palimpsest/internal/platform/errors"
	"github.com/louisbranch/palimpsest/internal/world"
)

var tracer = otel.Tracer("github.com/louisbranch/palimpsest/internal/continuation")

var (
	// ErrNotLoaded indicates an engine used before a container was loaded.
	ErrNotLoaded = apperrors.New(apperrors.CodeContinuationNotLoaded, "no container loaded")
	// ErrFrameInFuture indicates a frame past the end of the recording.
	ErrFrameInFuture = apperrors.New(apperrors.CodeContinuationFrameInFuture, "frame is beyond the recorded timeline")
)

// Tier names how a historical state was reconstructed, from most to least
// precise.
type Tier string

const (
	// TierExactCheckpoint means a checkpoint existed at the exact frame.
	TierExactCheckpoint Tier = "exact-checkpoint"
	// TierEventSnapshot means an event at the exact frame carried a snapshot.
	TierEventSnapshot Tier = "event-snapshot"
	// TierCheckpoint means the nearest earlier checkpoint was used; the
	// returned state is as-of that earlier frame, restamped to the request.
	TierCheckpoint Tier = "checkpoint"
	// TierInitialState means no checkpoint preceded the frame and the
	// container's initial state was used.
	TierInitialState Tier = "initial-state"
)

// Resolution reports which tier answered a state request and the frame the
// source material was captured at. SourceFrame differs from the requested
// frame only on the coarser tiers.
type Resolution struct {
	Tier        Tier
	SourceFrame uint64
}

// Engine resolves historical states from one loaded container.
type Engine struct {
	container container.Container
	loaded    bool
}

// NewEngine creates an engine with nothing loaded.
func NewEngine() *Engine {
	return &Engine{}
}

// LoadReplay reads a container from disk into the engine, replacing any
// previously loaded one.
func (e *Engine) LoadReplay(ctx context.Context, path string) error {
	c, err := container.ReadFile(ctx, path)
	if err != nil {
		return fmt.Errorf("load replay: %w", err)
	}
	e.container = c
	e.loaded = true
	return nil
}

// LoadContainer adopts an in-memory container, replacing any previously
// loaded one.
func (e *Engine) LoadContainer(c container.Container) {
	e.container = c
	e.loaded = true
}

// Header returns the loaded container's header.
func (e *Engine) Header() (container.Header, error) {
	if !e.loaded {
		return container.Header{}, ErrNotLoaded
	}
	return e.container.Header, nil
}

// Events returns the loaded container's event log in sequence order. Each
// event is a deep copy; mutating one cannot reach the recording.
func (e *Engine) Events() ([]event.Event, error) {
	if !e.loaded {
		return nil, ErrNotLoaded
	}
	out := make([]event.Event, len(e.container.Events))
	for i, evt := range e.container.Events {
		out[i] = evt.Clone()
	}
	return out, nil
}

// Playback returns a playback generator backed by the container's recorded
// calls, so a replay pass never re-invokes the live collaborator.
func (e *Engine) Playback() (*generator.Playback, error) {
	if !e.loaded {
		return nil, ErrNotLoaded
	}
	return generator.NewPlayback(e.container.GeneratorCalls), nil
}

// StateAtFrame reconstructs the world as of the given frame. Resolution
// tiers are tried from most to least precise: a checkpoint at the exact
// frame, an event snapshot at the exact frame, the nearest earlier
// checkpoint, and finally the container's initial state. The returned
// state's clock is restamped to the requested frame; Resolution records
// the tier and the frame the source material came from.
func (e *Engine) StateAtFrame(frame uint64) (world.State, Resolution, error) {
	if !e.loaded {
		return world.State{}, Resolution{}, ErrNotLoaded
	}
	if frame > e.container.Header.FrameCount {
		return world.State{}, Resolution{}, apperrors.WithMetadata(
			apperrors.CodeContinuationFrameInFuture,
			fmt.Sprintf("frame %d is beyond the recorded timeline (ends at %d)", frame, e.container.Header.FrameCount),
			map[string]string{
				"frame": fmt.Sprintf("%d", frame),
				"head":  fmt.Sprintf("%d", e.container.Header.FrameCount),
			},
		)
	}

	state, res := e.resolve(frame)
	state.Clock.Frame = frame
	return state, res, nil
}

func (e *Engine) resolve(frame uint64) (world.State, Resolution) {
	checkpoints := e.container.Checkpoints

	// Exact checkpoint wins outright.
	for i := len(checkpoints) - 1; i >= 0; i-- {
		if checkpoints[i].Frame == frame {
			return checkpoints[i].State.Clone(), Resolution{Tier: TierExactCheckpoint, SourceFrame: frame}
		}
		if checkpoints[i].Frame < frame {
			break
		}
	}

	// An event snapshot at the exact frame is just as precise.
	for i := len(e.container.Events) - 1; i >= 0; i-- {
		evt := e.container.Events[i]
		if evt.Frame < frame {
			break
		}
		if evt.Frame == frame && evt.Snapshot != nil {
			return evt.Snapshot.Clone(), Resolution{Tier: TierEventSnapshot, SourceFrame: frame}
		}
	}

	// Otherwise the nearest earlier checkpoint.
	for i := len(checkpoints) - 1; i >= 0; i-- {
		if checkpoints[i].Frame <= frame {
			return checkpoints[i].State.Clone(), Resolution{Tier: TierCheckpoint, SourceFrame: checkpoints[i].Frame}
		}
	}

	// Decode rejects containers without an initial state, so for a loaded
	// container the coarsest tier always serves. The state needs no actors
	// or checkpoints to be a valid branch point.
	return e.container.InitialState.Clone(), Resolution{Tier: TierInitialState, SourceFrame: 0}
}
