package event

// SceneArrivedPayload records an actor arriving at a location.
type SceneArrivedPayload struct {
	ActorID    string `json:"actor_id"`
	LocationID string `json:"location_id"`
}

// SceneDiscoveredPayload records a location entering the discovered set.
type SceneDiscoveredPayload struct {
	LocationID string `json:"location_id"`
}

// ActorSpokePayload records a line of dialogue and the seed that produced it.
type ActorSpokePayload struct {
	ActorID string `json:"actor_id"`
	Text    string `json:"text"`
	Seed    uint32 `json:"seed"`
}

// ActorMovedPayload records a location change.
type ActorMovedPayload struct {
	ActorID string `json:"actor_id"`
	FromID  string `json:"from_id"`
	ToID    string `json:"to_id"`
}

// DispositionChangedPayload records a shift in one actor's attitude toward
// another. Score is the resulting value after applying Delta.
type DispositionChangedPayload struct {
	ActorID  string `json:"actor_id"`
	TargetID string `json:"target_id"`
	Delta    int    `json:"delta"`
	Score    int    `json:"score"`
}

// MemoryAddedPayload records a new memory forming.
type MemoryAddedPayload struct {
	ActorID   string `json:"actor_id"`
	SubjectID string `json:"subject_id,omitempty"`
	Text      string `json:"text"`
}

// ItemTakenPayload records an item entering an actor's inventory.
type ItemTakenPayload struct {
	ActorID  string `json:"actor_id"`
	ItemID   string `json:"item_id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// ItemDroppedPayload records an item leaving an actor's inventory.
type ItemDroppedPayload struct {
	ActorID  string `json:"actor_id"`
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// QuestStartedPayload records a quest opening.
type QuestStartedPayload struct {
	QuestID string `json:"quest_id"`
	Name    string `json:"name"`
	GiverID string `json:"giver_id,omitempty"`
}

// QuestAdvancedPayload records quest progress.
type QuestAdvancedPayload struct {
	QuestID string `json:"quest_id"`
	Stage   int    `json:"stage"`
}

// QuestCompletedPayload records a quest closing.
type QuestCompletedPayload struct {
	QuestID string `json:"quest_id"`
}

// ClockAdvancedPayload records the simulation clock moving forward.
type ClockAdvancedPayload struct {
	Frame   uint64 `json:"frame"`
	Day     uint32 `json:"day"`
	Weather string `json:"weather"`
}

// NarrationPayload records an opaque-generator invocation on the timeline.
// The full call (prompt and result text) lives in the container's generator
// call log; the event carries only the identity needed to correlate them.
type NarrationPayload struct {
	Seed       uint32 `json:"seed"`
	PromptHash string `json:"prompt_hash"`
}

// OpaquePayload is the escape hatch for event types this build does not
// know. Raw holds the undecoded payload document.
type OpaquePayload struct {
	Type Type
	Raw  []byte
}
