package checkpoint

import (
	"errors"
	"testing"
	"time"

	"github.com/louisbranch/palimpsest/internal/world"
)

func stateAtFrame(frame uint64) world.State {
	return world.State{
		Clock: world.Clock{Frame: frame, Day: 1, Weather: world.WeatherClear},
		Actors: map[string]world.Actor{
			"npc-a": {ID: "npc-a", Name: "A", LocationID: "loc-1", Stats: map[string]int{"health": 10}},
		},
		Graph: world.LocationGraph{
			Locations: map[string]world.Location{"loc-1": {ID: "loc-1", Name: "One"}},
		},
	}
}

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	}
}

func TestCapture_EnforcesStrictlyIncreasingFrames(t *testing.T) {
	store := NewStore(WithClock(fixedClock()))

	if _, err := store.Capture(10, stateAtFrame(10)); err != nil {
		t.Fatalf("capture 10: %v", err)
	}
	if _, err := store.Capture(10, stateAtFrame(10)); !errors.Is(err, ErrFrameOrder) {
		t.Fatalf("repeat capture error = %v, want frame-order code", err)
	}
	if _, err := store.Capture(5, stateAtFrame(5)); !errors.Is(err, ErrFrameOrder) {
		t.Fatalf("stale capture error = %v, want frame-order code", err)
	}
	if store.Len() != 1 {
		t.Fatalf("store length = %d after rejected captures, want 1", store.Len())
	}
}

func TestFind_NearestPreceding(t *testing.T) {
	store := NewStore(WithClock(fixedClock()))
	for _, frame := range []uint64{0, 50, 100} {
		if _, err := store.Capture(frame, stateAtFrame(frame)); err != nil {
			t.Fatalf("capture %d: %v", frame, err)
		}
	}

	tests := []struct {
		query     uint64
		wantFrame uint64
		wantOK    bool
	}{
		{73, 50, true},
		{150, 100, true},
		{50, 50, true},
		{0, 0, true},
	}
	for _, tc := range tests {
		got, ok := store.Find(tc.query)
		if ok != tc.wantOK {
			t.Fatalf("find(%d) ok = %v, want %v", tc.query, ok, tc.wantOK)
		}
		if got.Frame != tc.wantFrame {
			t.Fatalf("find(%d) frame = %d, want %d", tc.query, got.Frame, tc.wantFrame)
		}
	}
}

func TestFind_EmptyStore(t *testing.T) {
	store := NewStore()
	if _, ok := store.Find(10); ok {
		t.Fatal("expected no checkpoint from empty store")
	}
}

func TestCapture_DeepCopiesState(t *testing.T) {
	store := NewStore(WithClock(fixedClock()))
	state := stateAtFrame(10)
	if _, err := store.Capture(10, state); err != nil {
		t.Fatalf("capture: %v", err)
	}

	// Mutating the caller's state after capture must not leak in.
	state.Actors["npc-a"].Stats["health"] = 0

	found, ok := store.Find(10)
	if !ok {
		t.Fatal("expected checkpoint at frame 10")
	}
	if got := found.State.Actors["npc-a"].Stats["health"]; got != 10 {
		t.Fatalf("captured health = %d, want 10", got)
	}

	// Mutating the found copy must not corrupt the stored checkpoint.
	found.State.Actors["npc-a"].Stats["health"] = 1
	again, _ := store.Find(10)
	if got := again.State.Actors["npc-a"].Stats["health"]; got != 10 {
		t.Fatalf("stored health = %d after mutating a lookup result, want 10", got)
	}
}

func TestFlush_TransfersOwnership(t *testing.T) {
	store := NewStore(WithClock(fixedClock()))
	if _, err := store.Capture(10, stateAtFrame(10)); err != nil {
		t.Fatalf("capture: %v", err)
	}

	flushed := store.Flush()
	if len(flushed) != 1 {
		t.Fatalf("flushed %d checkpoints, want 1", len(flushed))
	}
	if store.Len() != 0 {
		t.Fatalf("store length = %d after flush, want 0", store.Len())
	}
	if _, ok := store.Find(10); ok {
		t.Fatal("expected no checkpoint after flush")
	}
}
