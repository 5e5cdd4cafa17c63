// Package checkpoint stores periodic full-state snapshots keyed by frame,
// bounding the cost of reconstructing state at an arbitrary point.
package checkpoint

import (
	"fmt"
	"sync"
	"time"

	apperrors "github.com/louisbranch/palimpsest/internal/platform/errors"
	"github.com/louisbranch/palimpsest/internal/world"
)

var (
	// ErrFrameOrder indicates a capture whose frame does not advance the store.
	ErrFrameOrder = apperrors.New(apperrors.CodeCheckpointFrameOrder, "checkpoint frames must be strictly increasing")
)

// Checkpoint is one complete state snapshot.
type Checkpoint struct {
	// Frame is the logical time of the capture.
	Frame uint64 `json:"frame"`
	// Timestamp is the wall-clock capture time.
	Timestamp time.Time `json:"timestamp"`
	// State is a complete, self-contained snapshot, never a delta.
	State world.State `json:"state"`
}

// Store keeps checkpoints ordered by frame.
type Store struct {
	mu          sync.Mutex
	checkpoints []Checkpoint
	now         func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the capture timestamp source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates an empty checkpoint store.
func NewStore(opts ...Option) *Store {
	store := &Store{now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store
}

// Capture deep-copies state and stores it keyed by frame. Frames must be
// strictly increasing across captures; a stale frame is rejected and the
// store is left unchanged.
func (s *Store) Capture(frame uint64, state world.State) (Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n := len(s.checkpoints); n > 0 && frame <= s.checkpoints[n-1].Frame {
		return Checkpoint{}, apperrors.WithMetadata(
			apperrors.CodeCheckpointFrameOrder,
			fmt.Sprintf("capture at frame %d does not advance past frame %d", frame, s.checkpoints[n-1].Frame),
			map[string]string{
				"frame": fmt.Sprintf("%d", frame),
				"tail":  fmt.Sprintf("%d", s.checkpoints[n-1].Frame),
			},
		)
	}

	cp := Checkpoint{
		Frame:     frame,
		Timestamp: s.now().UTC(),
		State:     state.Clone(),
	}
	s.checkpoints = append(s.checkpoints, cp)
	return cp, nil
}

// Find returns the checkpoint whose frame is the greatest value less than or
// equal to the requested frame, and false when no checkpoint qualifies (the
// caller must then fall back to the initial state).
//
// Lookup is a descending linear scan; checkpoint counts stay in the tens to
// low hundreds, so O(n) holds up. The captures being strictly increasing
// makes the first hit the right one.
func (s *Store) Find(frame uint64) (Checkpoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.checkpoints) - 1; i >= 0; i-- {
		if s.checkpoints[i].Frame <= frame {
			cp := s.checkpoints[i]
			cp.State = cp.State.Clone()
			return cp, true
		}
	}
	return Checkpoint{}, false
}

// LastFrame returns the frame of the most recent capture and whether any
// checkpoint exists.
func (s *Store) LastFrame() (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.checkpoints) == 0 {
		return 0, false
	}
	return s.checkpoints[len(s.checkpoints)-1].Frame, true
}

// Len returns the number of stored checkpoints.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.checkpoints)
}

// Flush hands off the accumulated checkpoints and clears the store. After
// Flush the store retains no reference to the returned slice.
func (s *Store) Flush() []Checkpoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	flushed := s.checkpoints
	s.checkpoints = nil
	return flushed
}
