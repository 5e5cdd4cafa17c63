package event

import (
	"time"

	"github.com/louisbranch/palimpsest/internal/world"
)

// Type is the semantic event name, conventionally "category.action".
type Type string

// Core event types recorded by the simulation.
const (
	TypeSceneArrived       Type = "scene.arrived"
	TypeSceneDiscovered    Type = "scene.discovered"
	TypeActorSpoke         Type = "actor.spoke"
	TypeActorMoved         Type = "actor.moved"
	TypeDispositionChanged Type = "actor.disposition_changed"
	TypeMemoryAdded        Type = "actor.memory_added"
	TypeItemTaken          Type = "item.taken"
	TypeItemDropped        Type = "item.dropped"
	TypeQuestStarted       Type = "quest.started"
	TypeQuestAdvanced      Type = "quest.advanced"
	TypeQuestCompleted     Type = "quest.completed"
	TypeClockAdvanced      Type = "clock.advanced"
	TypeNarration          Type = "narration.generated"
)

// Category returns the portion of the type before the first dot, used by
// prefix subscriptions.
func (t Type) Category() string {
	for i := 0; i < len(t); i++ {
		if t[i] == '.' {
			return string(t[:i])
		}
	}
	return string(t)
}

// Event is one immutable record in the session timeline.
type Event struct {
	// Seq is strictly increasing across the journal, assigned at append.
	Seq uint64 `json:"seq"`
	// Frame is the logical time of the event; monotonically non-decreasing
	// across the whole journal. Multiple events may share a frame.
	Frame uint64 `json:"frame"`
	// Type is the semantic event name.
	Type Type `json:"type"`
	// Payload is the JSON-encoded payload document.
	Payload []byte `json:"payload,omitempty"`
	// ActorID names the acting entity; empty for system events.
	ActorID string `json:"actor_id,omitempty"`
	// Timestamp is the wall-clock append time.
	Timestamp time.Time `json:"timestamp"`
	// Snapshot, when present, is a complete copy of simulation state at
	// this event, never a delta. It enables exact random access at this
	// frame without replaying.
	Snapshot *world.State `json:"snapshot,omitempty"`
}

// Clone returns a deep copy sharing no memory with the receiver, so a
// caller mutating the copy cannot reach the recorded original.
func (e Event) Clone() Event {
	out := e
	if e.Payload != nil {
		out.Payload = append([]byte(nil), e.Payload...)
	}
	if e.Snapshot != nil {
		snapshot := e.Snapshot.Clone()
		out.Snapshot = &snapshot
	}
	return out
}
