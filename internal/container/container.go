// Package container packs one recorded session (header, initial state,
// event log, checkpoints, and recorded generator calls) into a single
// versioned, compressed artifact, and unpacks it with structural validation.
//
// A container is created once at save time and never mutated; every load
// produces fresh structures that alias nothing the caller holds.
package container

import (
	"fmt"
	"time"

	"github.com/louisbranch/palimpsest/internal/generator"
	"github.com/louisbranch/palimpsest/internal/narrative/checkpoint"
	"github.com/louisbranch/palimpsest/internal/narrative/event"
	apperrors "github.com/louisbranch/palimpsest/internal/platform/errors"
	"github.com/louisbranch/palimpsest/internal/world"
)

// Version is the container format version this build writes.
const Version = "1"

// decodeVersions is the set of versions this reader understands.
var decodeVersions = map[string]bool{
	Version: true,
}

var (
	// ErrUnreadable indicates bytes that do not decompress or parse as a container.
	ErrUnreadable = apperrors.New(apperrors.CodeContainerUnreadable, "container is unreadable")
	// ErrVersionUnsupported indicates a container version outside the supported set.
	ErrVersionUnsupported = apperrors.New(apperrors.CodeContainerVersionUnsupported, "container version is not supported")
	// ErrCountMismatch indicates header counts that disagree with array lengths.
	ErrCountMismatch = apperrors.New(apperrors.CodeContainerCountMismatch, "container header counts do not match contents")
	// ErrMissingInitialState indicates a container without an initial state.
	ErrMissingInitialState = apperrors.New(apperrors.CodeContainerMissingInitialState, "container has no initial state")
)

// Header carries container metadata. Counts must equal the corresponding
// array lengths; a mismatch is a structural-integrity error at load time.
type Header struct {
	Version            string
	CreatedAt          time.Time
	Seed               uint64
	FrameCount         uint64
	EventCount         uint64
	CheckpointCount    uint64
	GeneratorCallCount uint64
}

// Container is one session's full recorded history.
type Container struct {
	Header         Header
	InitialState   world.State
	Events         []event.Event
	Checkpoints    []checkpoint.Checkpoint
	GeneratorCalls []generator.Call
}

// BuildInput describes the input for assembling a container.
type BuildInput struct {
	Seed           uint64
	CreatedAt      time.Time
	InitialState   world.State
	Events         []event.Event
	Checkpoints    []checkpoint.Checkpoint
	GeneratorCalls []generator.Call
}

// Build assembles a container, deriving header counts and the frame count
// from the contents. The initial state is deep-copied so the container never
// aliases the caller's live state.
func Build(in BuildInput) Container {
	createdAt := in.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	frameCount := in.InitialState.Clock.Frame
	for _, evt := range in.Events {
		if evt.Frame > frameCount {
			frameCount = evt.Frame
		}
	}
	for _, cp := range in.Checkpoints {
		if cp.Frame > frameCount {
			frameCount = cp.Frame
		}
	}

	return Container{
		Header: Header{
			Version:            Version,
			CreatedAt:          createdAt.UTC(),
			Seed:               in.Seed,
			FrameCount:         frameCount,
			EventCount:         uint64(len(in.Events)),
			CheckpointCount:    uint64(len(in.Checkpoints)),
			GeneratorCallCount: uint64(len(in.GeneratorCalls)),
		},
		InitialState:   in.InitialState.Clone(),
		Events:         in.Events,
		Checkpoints:    in.Checkpoints,
		GeneratorCalls: in.GeneratorCalls,
	}
}

// LastFrame returns the frame of the latest recorded instant.
func (c Container) LastFrame() uint64 {
	return c.Header.FrameCount
}

// validate runs the structural checks shared by Encode and Decode. It
// reports which check failed to aid diagnosis.
func (c Container) validate() error {
	if !decodeVersions[c.Header.Version] {
		return apperrors.WithMetadata(
			apperrors.CodeContainerVersionUnsupported,
			fmt.Sprintf("container version %q is not supported", c.Header.Version),
			map[string]string{"version": c.Header.Version},
		)
	}
	if c.Header.EventCount != uint64(len(c.Events)) {
		return countMismatch("events", c.Header.EventCount, len(c.Events))
	}
	if c.Header.CheckpointCount != uint64(len(c.Checkpoints)) {
		return countMismatch("checkpoints", c.Header.CheckpointCount, len(c.Checkpoints))
	}
	if c.Header.GeneratorCallCount != uint64(len(c.GeneratorCalls)) {
		return countMismatch("generator calls", c.Header.GeneratorCallCount, len(c.GeneratorCalls))
	}
	return nil
}

func countMismatch(section string, declared uint64, actual int) error {
	return apperrors.WithMetadata(
		apperrors.CodeContainerCountMismatch,
		fmt.Sprintf("header declares %d %s but container holds %d", declared, section, actual),
		map[string]string{
			"section":  section,
			"declared": fmt.Sprintf("%d", declared),
			"actual":   fmt.Sprintf("%d", actual),
		},
	)
}
