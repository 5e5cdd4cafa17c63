package event

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Definition describes one registered event type.
type Definition struct {
	// Type is the semantic event name.
	Type Type
	// NewPayload allocates the typed payload this event decodes into.
	NewPayload func() any
}

// Registry maps event types to payload definitions.
type Registry struct {
	mu   sync.RWMutex
	defs map[Type]Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[Type]Definition)}
}

// Register adds a definition. Registering the same type twice is an error.
func (r *Registry) Register(def Definition) error {
	if def.Type == "" {
		return fmt.Errorf("event type is required")
	}
	if def.NewPayload == nil {
		return fmt.Errorf("payload constructor is required for %q", def.Type)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.defs[def.Type]; exists {
		return fmt.Errorf("event type %q already registered", def.Type)
	}
	r.defs[def.Type] = def
	return nil
}

// Known reports whether the type is registered.
func (r *Registry) Known(t Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.defs[t]
	return ok
}

// Decode parses the event payload. Registered types decode into their typed
// payload struct; unknown types return an OpaquePayload carrying the raw
// document so forward-compatible readers can still walk the log.
func (r *Registry) Decode(evt Event) (any, error) {
	r.mu.RLock()
	def, ok := r.defs[evt.Type]
	r.mu.RUnlock()

	if !ok {
		return OpaquePayload{Type: evt.Type, Raw: evt.Payload}, nil
	}

	payload := def.NewPayload()
	if len(evt.Payload) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(evt.Payload, payload); err != nil {
		return nil, fmt.Errorf("decode %q payload: %w", evt.Type, err)
	}
	return payload, nil
}

// DefaultRegistry returns a registry with every core event type registered.
func DefaultRegistry() *Registry {
	registry := NewRegistry()
	for _, def := range []Definition{
		{Type: TypeSceneArrived, NewPayload: func() any { return &SceneArrivedPayload{} }},
		{Type: TypeSceneDiscovered, NewPayload: func() any { return &SceneDiscoveredPayload{} }},
		{Type: TypeActorSpoke, NewPayload: func() any { return &ActorSpokePayload{} }},
		{Type: TypeActorMoved, NewPayload: func() any { return &ActorMovedPayload{} }},
		{Type: TypeDispositionChanged, NewPayload: func() any { return &DispositionChangedPayload{} }},
		{Type: TypeMemoryAdded, NewPayload: func() any { return &MemoryAddedPayload{} }},
		{Type: TypeItemTaken, NewPayload: func() any { return &ItemTakenPayload{} }},
		{Type: TypeItemDropped, NewPayload: func() any { return &ItemDroppedPayload{} }},
		{Type: TypeQuestStarted, NewPayload: func() any { return &QuestStartedPayload{} }},
		{Type: TypeQuestAdvanced, NewPayload: func() any { return &QuestAdvancedPayload{} }},
		{Type: TypeQuestCompleted, NewPayload: func() any { return &QuestCompletedPayload{} }},
		{Type: TypeClockAdvanced, NewPayload: func() any { return &ClockAdvancedPayload{} }},
		{Type: TypeNarration, NewPayload: func() any { return &NarrationPayload{} }},
	} {
		if err := registry.Register(def); err != nil {
			// Core definitions are static; duplicates here are programmer error.
			panic(err)
		}
	}
	return registry
}
