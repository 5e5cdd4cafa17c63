package sim

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/louisbranch/palimpsest/internal/narrative/event"
	apperrors "github.com/louisbranch/palimpsest/internal/platform/errors"
	"github.com/louisbranch/palimpsest/internal/world"
)

func fixtureState() world.State {
	return world.State{
		Clock: world.Clock{Day: 1, Weather: world.WeatherClear},
		Actors: map[string]world.Actor{
			"npc-brena": {
				ID: "npc-brena", Name: "Brena", LocationID: "loc-mill",
				Dispositions: map[string]int{"npc-tam": 2},
				Stats:        map[string]int{"health": 10},
			},
			"npc-tam": {
				ID: "npc-tam", Name: "Tam", LocationID: "loc-square",
			},
		},
		Graph: world.LocationGraph{
			Locations: map[string]world.Location{
				"loc-mill":   {ID: "loc-mill", Name: "Old Mill", Exits: []string{"loc-square"}},
				"loc-square": {ID: "loc-square", Name: "Market Square", Exits: []string{"loc-mill", "loc-gate"}},
				"loc-gate":   {ID: "loc-gate", Name: "North Gate", Exits: []string{"loc-square"}},
			},
			Discovered: map[string]bool{"loc-mill": true, "loc-square": true},
			Visited:    map[string]bool{"loc-mill": true},
		},
	}
}

func fixtureSim(t *testing.T, opts Options) *Simulation {
	t.Helper()

	if opts.InitialState.Actors == nil {
		opts.InitialState = fixtureState()
	}
	if opts.Clock == nil {
		stamp := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
		opts.Clock = func() time.Time { return stamp }
	}
	s, err := New(opts)
	if err != nil {
		t.Fatalf("new simulation: %v", err)
	}
	return s
}

func TestNew_RejectsInvalidInitialState(t *testing.T) {
	state := fixtureState()
	state.Actors["npc-lost"] = world.Actor{ID: "npc-lost", LocationID: "loc-nowhere"}

	if _, err := New(Options{Seed: 1, InitialState: state}); err == nil {
		t.Fatal("expected dangling-reference error")
	}
}

func TestNew_CapturesOpeningCheckpoint(t *testing.T) {
	s := fixtureSim(t, Options{Seed: 1})

	if s.EventCount() != 0 {
		t.Fatalf("event count = %d, want 0", s.EventCount())
	}
	if s.CheckpointCount() != 1 {
		t.Fatalf("checkpoint count = %d, want 1", s.CheckpointCount())
	}
}

func TestAdvanceFrame(t *testing.T) {
	s := fixtureSim(t, Options{Seed: 7, CheckpointInterval: 2})

	for i := 0; i < 4; i++ {
		if err := s.AdvanceFrame(); err != nil {
			t.Fatalf("advance frame %d: %v", i, err)
		}
	}

	if s.Frame() != 4 {
		t.Fatalf("frame = %d, want 4", s.Frame())
	}
	if s.EventCount() != 4 {
		t.Fatalf("event count = %d, want 4", s.EventCount())
	}
	// Opening checkpoint at 0 plus interval captures at 2 and 4.
	if s.CheckpointCount() != 3 {
		t.Fatalf("checkpoint count = %d, want 3", s.CheckpointCount())
	}
	if s.State().Clock.Elapsed != 4*time.Hour {
		t.Fatalf("elapsed = %v, want 4h", s.State().Clock.Elapsed)
	}
}

func TestAdvanceFrame_IsDeterministicAcrossRuns(t *testing.T) {
	run := func() []world.Weather {
		s := fixtureSim(t, Options{Seed: 99})
		var seen []world.Weather
		for i := 0; i < 24; i++ {
			if err := s.AdvanceFrame(); err != nil {
				t.Fatalf("advance: %v", err)
			}
			seen = append(seen, s.State().Clock.Weather)
		}
		return seen
	}

	first := run()
	second := run()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("weather diverged at frame %d: %v vs %v", i+1, first[i], second[i])
		}
	}
}

func TestMoveActor(t *testing.T) {
	s := fixtureSim(t, Options{Seed: 1})

	if err := s.MoveActor("npc-brena", "loc-square"); err != nil {
		t.Fatalf("move: %v", err)
	}
	if got := s.State().Actors["npc-brena"].LocationID; got != "loc-square" {
		t.Fatalf("location = %q, want loc-square", got)
	}
	// Known destination: moved + arrived, no discovery.
	if s.EventCount() != 2 {
		t.Fatalf("event count = %d, want 2", s.EventCount())
	}

	// loc-gate has never been discovered.
	if err := s.MoveActor("npc-brena", "loc-gate"); err != nil {
		t.Fatalf("move to gate: %v", err)
	}
	state := s.State()
	if !state.Graph.Discovered["loc-gate"] || !state.Graph.Visited["loc-gate"] {
		t.Fatal("gate not marked discovered and visited")
	}
	if s.EventCount() != 5 {
		t.Fatalf("event count = %d, want 5 (discovery emitted)", s.EventCount())
	}
}

func TestMoveActor_RejectsUnreachable(t *testing.T) {
	s := fixtureSim(t, Options{Seed: 1})

	// loc-gate is not an exit of loc-mill.
	if err := s.MoveActor("npc-brena", "loc-gate"); !errors.Is(err, apperrors.New(apperrors.CodeNotFound, "")) {
		t.Fatalf("error = %v, want not-found code", err)
	}
	if err := s.MoveActor("npc-brena", "loc-void"); err == nil {
		t.Fatal("expected error for unknown location")
	}
	if err := s.MoveActor("npc-ghost", "loc-square"); err == nil {
		t.Fatal("expected error for unknown actor")
	}
	if s.EventCount() != 0 {
		t.Fatalf("event count = %d after rejected moves, want 0", s.EventCount())
	}
}

func TestMoveActor_DeadEndHasNoExits(t *testing.T) {
	state := fixtureState()
	state.Graph.Locations["loc-cellar"] = world.Location{ID: "loc-cellar", Name: "Cellar"}
	actor := state.Actors["npc-brena"]
	actor.LocationID = "loc-cellar"
	state.Actors["npc-brena"] = actor
	s := fixtureSim(t, Options{Seed: 1, InitialState: state})

	if err := s.MoveActor("npc-brena", "loc-square"); !errors.Is(err, apperrors.New(apperrors.CodeNotFound, "")) {
		t.Fatalf("error = %v, want not-found code", err)
	}
	if got := s.State().Actors["npc-brena"].LocationID; got != "loc-cellar" {
		t.Fatalf("location = %q, want still loc-cellar", got)
	}
	if s.EventCount() != 0 {
		t.Fatalf("event count = %d after rejected move, want 0", s.EventCount())
	}
}

func TestSpeak(t *testing.T) {
	ctx := context.Background()
	s := fixtureSim(t, Options{Seed: 42})

	text, err := s.Speak(ctx, "npc-brena", "greet the miller")
	if err != nil {
		t.Fatalf("speak: %v", err)
	}
	if text == "" {
		t.Fatal("expected non-empty dialogue")
	}

	actor := s.State().Actors["npc-brena"]
	if len(actor.Memories) != 1 || actor.Memories[0].Text != text {
		t.Fatalf("memories = %+v, want one holding the spoken text", actor.Memories)
	}

	events := s.journal.Events()
	if len(events) != 1 || events[0].Type != event.TypeActorSpoke {
		t.Fatalf("events = %+v, want one actor.spoke", events)
	}
	var payload event.ActorSpokePayload
	if err := json.Unmarshal(events[0].Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Text != text || payload.Seed == 0 {
		t.Fatalf("payload = %+v, want spoken text with derived seed", payload)
	}
}

func TestSpeak_SameSeedSameDialogue(t *testing.T) {
	ctx := context.Background()

	first, err := fixtureSim(t, Options{Seed: 42}).Speak(ctx, "npc-brena", "greet the miller")
	if err != nil {
		t.Fatalf("first speak: %v", err)
	}
	second, err := fixtureSim(t, Options{Seed: 42}).Speak(ctx, "npc-brena", "greet the miller")
	if err != nil {
		t.Fatalf("second speak: %v", err)
	}

	if first != second {
		t.Fatalf("dialogue diverged: %q vs %q", first, second)
	}
}

func TestNarrate_RecordsCallIdentityOnly(t *testing.T) {
	ctx := context.Background()
	s := fixtureSim(t, Options{Seed: 5})

	text, err := s.Narrate(ctx, "describe the mill at dawn")
	if err != nil {
		t.Fatalf("narrate: %v", err)
	}

	events := s.journal.Events()
	if len(events) != 1 || events[0].Type != event.TypeNarration {
		t.Fatalf("events = %+v, want one narration.generated", events)
	}
	var payload event.NarrationPayload
	if err := json.Unmarshal(events[0].Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}

	calls := s.calls.Calls()
	if len(calls) != 1 {
		t.Fatalf("call log holds %d calls, want 1", len(calls))
	}
	if calls[0].PromptHash != payload.PromptHash || calls[0].Seed != payload.Seed {
		t.Fatal("event identity does not match the logged call")
	}
	if calls[0].Result != text {
		t.Fatalf("logged result = %q, want %q", calls[0].Result, text)
	}
}

func TestAdjustDisposition(t *testing.T) {
	s := fixtureSim(t, Options{Seed: 1})

	if err := s.AdjustDisposition("npc-brena", "npc-tam", -3); err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if got := s.State().Actors["npc-brena"].Dispositions["npc-tam"]; got != -1 {
		t.Fatalf("score = %d, want -1", got)
	}

	// Tam has no disposition map yet.
	if err := s.AdjustDisposition("npc-tam", "npc-brena", 4); err != nil {
		t.Fatalf("adjust fresh map: %v", err)
	}
	if got := s.State().Actors["npc-tam"].Dispositions["npc-brena"]; got != 4 {
		t.Fatalf("score = %d, want 4", got)
	}

	if err := s.AdjustDisposition("npc-brena", "npc-ghost", 1); err == nil {
		t.Fatal("expected error for unknown target")
	}
}

func TestItems(t *testing.T) {
	s := fixtureSim(t, Options{Seed: 1})

	if err := s.TakeItem("npc-brena", world.Item{ID: "item-coin", Name: "Coin", Quantity: 3}); err != nil {
		t.Fatalf("take: %v", err)
	}
	if err := s.TakeItem("npc-brena", world.Item{ID: "item-coin", Name: "Coin", Quantity: 2}); err != nil {
		t.Fatalf("take again: %v", err)
	}

	inventory := s.State().Actors["npc-brena"].Inventory
	if len(inventory) != 1 || inventory[0].Quantity != 5 {
		t.Fatalf("inventory = %+v, want one stack of 5", inventory)
	}

	if err := s.DropItem("npc-brena", "item-coin", 2); err != nil {
		t.Fatalf("drop partial: %v", err)
	}
	if got := s.State().Actors["npc-brena"].Inventory[0].Quantity; got != 3 {
		t.Fatalf("quantity = %d, want 3", got)
	}

	if err := s.DropItem("npc-brena", "item-coin", 99); err != nil {
		t.Fatalf("drop all: %v", err)
	}
	if got := len(s.State().Actors["npc-brena"].Inventory); got != 0 {
		t.Fatalf("inventory size = %d, want 0", got)
	}

	if err := s.DropItem("npc-brena", "item-coin", 1); err == nil {
		t.Fatal("expected error dropping unheld item")
	}
}

func TestQuestLifecycle(t *testing.T) {
	s := fixtureSim(t, Options{Seed: 1})
	if err := s.AdvanceFrame(); err != nil {
		t.Fatalf("advance: %v", err)
	}

	if err := s.StartQuest("quest-flour", "The Missing Flour", "npc-brena"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.StartQuest("quest-flour", "The Missing Flour", ""); !errors.Is(err, apperrors.New(apperrors.CodeAlreadyExists, "")) {
		t.Fatalf("error = %v, want already-exists code", err)
	}

	if err := s.AdvanceQuest("quest-flour"); err != nil {
		t.Fatalf("advance quest: %v", err)
	}
	if got := s.State().Quests["quest-flour"].Stage; got != 1 {
		t.Fatalf("stage = %d, want 1", got)
	}

	before := s.CheckpointCount()
	if err := s.CompleteQuest("quest-flour"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got := s.State().Quests["quest-flour"].Status; got != world.QuestCompleted {
		t.Fatalf("status = %q, want completed", got)
	}
	if s.CheckpointCount() != before+1 {
		t.Fatal("completion did not capture a landmark checkpoint")
	}

	events := s.journal.Events()
	last := events[len(events)-1]
	if last.Type != event.TypeQuestCompleted || last.Snapshot == nil {
		t.Fatalf("last event = %+v, want quest.completed with snapshot", last.Type)
	}

	if err := s.AdvanceQuest("quest-flour"); err == nil {
		t.Fatal("expected error advancing a completed quest")
	}
}

func TestState_ReturnsIsolatedCopy(t *testing.T) {
	s := fixtureSim(t, Options{Seed: 1})

	leaked := s.State()
	leaked.Actors["npc-brena"].Stats["health"] = 0
	delete(leaked.Actors, "npc-tam")

	state := s.State()
	if state.Actors["npc-brena"].Stats["health"] != 10 {
		t.Fatal("external mutation reached the live state")
	}
	if _, ok := state.Actors["npc-tam"]; !ok {
		t.Fatal("external delete reached the live state")
	}
}

func TestBuildContainer_DrainsAndContinues(t *testing.T) {
	ctx := context.Background()
	s := fixtureSim(t, Options{Seed: 42, CheckpointInterval: 2})

	for i := 0; i < 3; i++ {
		if err := s.AdvanceFrame(); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}
	if _, err := s.Speak(ctx, "npc-brena", "hello"); err != nil {
		t.Fatalf("speak: %v", err)
	}

	c := s.BuildContainer()
	if c.Header.Seed != 42 {
		t.Fatalf("seed = %d, want 42", c.Header.Seed)
	}
	if c.Header.EventCount != 4 || c.Header.FrameCount != 3 {
		t.Fatalf("counts = events %d frames %d, want 4/3", c.Header.EventCount, c.Header.FrameCount)
	}
	if c.Header.GeneratorCallCount != 1 {
		t.Fatalf("generator calls = %d, want 1", c.Header.GeneratorCallCount)
	}
	if c.InitialState.Clock.Frame != 0 {
		t.Fatalf("initial state frame = %d, want 0", c.InitialState.Clock.Frame)
	}

	// The drain transfers ownership; the live simulation keeps running from
	// where it stopped.
	if s.EventCount() != 0 || s.CheckpointCount() != 0 {
		t.Fatal("logs not drained")
	}
	if err := s.AdvanceFrame(); err != nil {
		t.Fatalf("advance after drain: %v", err)
	}
	next := s.journal.Events()
	if len(next) != 1 || next[0].Seq != 5 {
		t.Fatalf("sequence after drain = %+v, want continuation at seq 5", next)
	}
}
