package sim

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/louisbranch/palimpsest/internal/generator"
	"github.com/louisbranch/palimpsest/internal/narrative/event"
	"github.com/louisbranch/palimpsest/internal/narrative/journal"
	apperrors "github.com/louisbranch/palimpsest/internal/platform/errors"
	"github.com/louisbranch/palimpsest/internal/world"
)

// weatherPeriod is how many frames pass between weather rolls.
const weatherPeriod = 6

var weatherTable = []world.Weather{
	world.WeatherClear,
	world.WeatherClear,
	world.WeatherRain,
	world.WeatherFog,
	world.WeatherStorm,
}

// AdvanceFrame moves the simulation clock forward one frame, rolls weather
// on its period, and captures an automatic checkpoint when the frame lands
// on the checkpoint interval.
func (s *Simulation) AdvanceFrame() error {
	s.state.Clock.Frame++
	s.state.Clock.Elapsed += frameTick
	s.state.Clock.Day = uint32(s.state.Clock.Frame/framesPerDay) + 1

	if s.state.Clock.Frame%weatherPeriod == 0 {
		roll := s.deriver.Derive("world", "weather", s.state.Clock.Frame)
		rng := rand.New(rand.NewSource(int64(roll)))
		s.state.Clock.Weather = weatherTable[rng.Intn(len(weatherTable))]
	}

	_, err := s.emit(journal.AppendInput{
		Frame: s.state.Clock.Frame,
		Type:  event.TypeClockAdvanced,
		Payload: event.ClockAdvancedPayload{
			Frame:   s.state.Clock.Frame,
			Day:     s.state.Clock.Day,
			Weather: string(s.state.Clock.Weather),
		},
	})
	if err != nil {
		return err
	}
	if err := s.maybeCheckpoint(); err != nil {
		return err
	}
	s.publishState(string(event.TypeClockAdvanced), nil)
	return nil
}

// MoveActor relocates an actor to a reachable location, discovering it if
// this is the first time anyone has seen it.
func (s *Simulation) MoveActor(actorID, locationID string) error {
	actor, err := s.actor(actorID)
	if err != nil {
		return err
	}
	if _, ok := s.state.Graph.Locations[locationID]; !ok {
		return apperrors.WithMetadata(apperrors.CodeNotFound,
			fmt.Sprintf("location %q not found", locationID),
			map[string]string{"location_id": locationID})
	}
	// A location with no exits is a dead end; nothing leaves it.
	from := actor.LocationID
	if current, ok := s.state.Graph.Locations[from]; ok {
		if !contains(current.Exits, locationID) {
			return apperrors.WithMetadata(apperrors.CodeNotFound,
				fmt.Sprintf("no exit from %q to %q", from, locationID),
				map[string]string{"from": from, "to": locationID})
		}
	}

	actor.LocationID = locationID
	s.state.Actors[actorID] = actor

	if _, err := s.emit(journal.AppendInput{
		Frame:   s.state.Clock.Frame,
		Type:    event.TypeActorMoved,
		ActorID: actorID,
		Payload: event.ActorMovedPayload{ActorID: actorID, FromID: from, ToID: locationID},
	}); err != nil {
		return err
	}

	if !s.state.Graph.Discovered[locationID] {
		if s.state.Graph.Discovered == nil {
			s.state.Graph.Discovered = make(map[string]bool)
		}
		s.state.Graph.Discovered[locationID] = true
		if _, err := s.emit(journal.AppendInput{
			Frame:   s.state.Clock.Frame,
			Type:    event.TypeSceneDiscovered,
			Payload: event.SceneDiscoveredPayload{LocationID: locationID},
		}); err != nil {
			return err
		}
	}
	if s.state.Graph.Visited == nil {
		s.state.Graph.Visited = make(map[string]bool)
	}
	s.state.Graph.Visited[locationID] = true

	if _, err := s.emit(journal.AppendInput{
		Frame:   s.state.Clock.Frame,
		Type:    event.TypeSceneArrived,
		ActorID: actorID,
		Payload: event.SceneArrivedPayload{ActorID: actorID, LocationID: locationID},
	}); err != nil {
		return err
	}

	s.publishState(string(event.TypeSceneArrived), map[string]string{"actor_id": actorID})
	return nil
}

// Speak asks the generator for a line of dialogue from the actor, records
// it as a memory, and journals the spoken text with the seed that produced
// it.
func (s *Simulation) Speak(ctx context.Context, actorID, prompt string) (string, error) {
	actor, err := s.actor(actorID)
	if err != nil {
		return "", err
	}

	callSeed := s.deriver.Derive(actorID, "speak", s.state.Clock.Frame)
	text, err := s.generator.Generate(ctx, prompt, generator.Options{Seed: callSeed})
	if err != nil {
		return "", fmt.Errorf("generate dialogue: %w", err)
	}

	actor.Memories = append(actor.Memories, world.Memory{
		Frame: s.state.Clock.Frame,
		Text:  text,
	})
	s.state.Actors[actorID] = actor

	if _, err := s.emit(journal.AppendInput{
		Frame:   s.state.Clock.Frame,
		Type:    event.TypeActorSpoke,
		ActorID: actorID,
		Payload: event.ActorSpokePayload{ActorID: actorID, Text: text, Seed: callSeed},
	}); err != nil {
		return "", err
	}
	s.publishState(string(event.TypeActorSpoke), map[string]string{"actor_id": actorID})
	return text, nil
}

// Narrate asks the generator for scene narration. The full prompt and
// result go to the generator call log; the timeline carries only the seed
// and prompt hash needed to correlate them.
func (s *Simulation) Narrate(ctx context.Context, prompt string) (string, error) {
	callSeed := s.deriver.Derive("narrator", "narrate", s.state.Clock.Frame)
	text, err := s.generator.Generate(ctx, prompt, generator.Options{Seed: callSeed})
	if err != nil {
		return "", fmt.Errorf("generate narration: %w", err)
	}

	if _, err := s.emit(journal.AppendInput{
		Frame: s.state.Clock.Frame,
		Type:  event.TypeNarration,
		Payload: event.NarrationPayload{
			Seed:       callSeed,
			PromptHash: generator.HashPrompt(prompt),
		},
	}); err != nil {
		return "", err
	}
	s.publishState(string(event.TypeNarration), nil)
	return text, nil
}

// AdjustDisposition shifts one actor's attitude toward another by delta.
func (s *Simulation) AdjustDisposition(actorID, targetID string, delta int) error {
	actor, err := s.actor(actorID)
	if err != nil {
		return err
	}
	if _, err := s.actor(targetID); err != nil {
		return err
	}

	if actor.Dispositions == nil {
		actor.Dispositions = make(map[string]int)
	}
	actor.Dispositions[targetID] += delta
	score := actor.Dispositions[targetID]
	s.state.Actors[actorID] = actor

	if _, err := s.emit(journal.AppendInput{
		Frame:   s.state.Clock.Frame,
		Type:    event.TypeDispositionChanged,
		ActorID: actorID,
		Payload: event.DispositionChangedPayload{
			ActorID: actorID, TargetID: targetID, Delta: delta, Score: score,
		},
	}); err != nil {
		return err
	}
	s.publishState(string(event.TypeDispositionChanged), map[string]string{"actor_id": actorID})
	return nil
}

// AddMemory records a memory on an actor. SubjectID may be empty for
// memories not about anyone in particular.
func (s *Simulation) AddMemory(actorID, subjectID, text string) error {
	actor, err := s.actor(actorID)
	if err != nil {
		return err
	}
	if subjectID != "" {
		if _, err := s.actor(subjectID); err != nil {
			return err
		}
	}

	actor.Memories = append(actor.Memories, world.Memory{
		Frame:     s.state.Clock.Frame,
		SubjectID: subjectID,
		Text:      text,
	})
	s.state.Actors[actorID] = actor

	if _, err := s.emit(journal.AppendInput{
		Frame:   s.state.Clock.Frame,
		Type:    event.TypeMemoryAdded,
		ActorID: actorID,
		Payload: event.MemoryAddedPayload{ActorID: actorID, SubjectID: subjectID, Text: text},
	}); err != nil {
		return err
	}
	s.publishState(string(event.TypeMemoryAdded), map[string]string{"actor_id": actorID})
	return nil
}

// TakeItem adds an item to an actor's inventory, merging quantities when
// the item is already held.
func (s *Simulation) TakeItem(actorID string, item world.Item) error {
	actor, err := s.actor(actorID)
	if err != nil {
		return err
	}
	if item.Quantity <= 0 {
		item.Quantity = 1
	}

	merged := false
	for i, held := range actor.Inventory {
		if held.ID == item.ID {
			actor.Inventory[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		actor.Inventory = append(actor.Inventory, item)
	}
	s.state.Actors[actorID] = actor

	if _, err := s.emit(journal.AppendInput{
		Frame:   s.state.Clock.Frame,
		Type:    event.TypeItemTaken,
		ActorID: actorID,
		Payload: event.ItemTakenPayload{
			ActorID: actorID, ItemID: item.ID, Name: item.Name, Quantity: item.Quantity,
		},
	}); err != nil {
		return err
	}
	s.publishState(string(event.TypeItemTaken), map[string]string{"actor_id": actorID})
	return nil
}

// DropItem removes up to quantity of an item from an actor's inventory.
func (s *Simulation) DropItem(actorID, itemID string, quantity int) error {
	actor, err := s.actor(actorID)
	if err != nil {
		return err
	}
	if quantity <= 0 {
		quantity = 1
	}

	index := -1
	for i, held := range actor.Inventory {
		if held.ID == itemID {
			index = i
			break
		}
	}
	if index < 0 {
		return apperrors.WithMetadata(apperrors.CodeNotFound,
			fmt.Sprintf("actor %q does not hold item %q", actorID, itemID),
			map[string]string{"actor_id": actorID, "item_id": itemID})
	}
	if actor.Inventory[index].Quantity > quantity {
		actor.Inventory[index].Quantity -= quantity
	} else {
		quantity = actor.Inventory[index].Quantity
		actor.Inventory = append(actor.Inventory[:index], actor.Inventory[index+1:]...)
	}
	s.state.Actors[actorID] = actor

	if _, err := s.emit(journal.AppendInput{
		Frame:   s.state.Clock.Frame,
		Type:    event.TypeItemDropped,
		ActorID: actorID,
		Payload: event.ItemDroppedPayload{ActorID: actorID, ItemID: itemID, Quantity: quantity},
	}); err != nil {
		return err
	}
	s.publishState(string(event.TypeItemDropped), map[string]string{"actor_id": actorID})
	return nil
}

// StartQuest opens a quest. The giver, when named, must exist.
func (s *Simulation) StartQuest(questID, name, giverID string) error {
	if _, exists := s.state.Quests[questID]; exists {
		return apperrors.WithMetadata(apperrors.CodeAlreadyExists,
			fmt.Sprintf("quest %q already exists", questID),
			map[string]string{"quest_id": questID})
	}
	if giverID != "" {
		if _, err := s.actor(giverID); err != nil {
			return err
		}
	}

	if s.state.Quests == nil {
		s.state.Quests = make(map[string]world.Quest)
	}
	s.state.Quests[questID] = world.Quest{
		ID:      questID,
		Name:    name,
		GiverID: giverID,
		Status:  world.QuestActive,
	}

	if _, err := s.emit(journal.AppendInput{
		Frame:   s.state.Clock.Frame,
		Type:    event.TypeQuestStarted,
		Payload: event.QuestStartedPayload{QuestID: questID, Name: name, GiverID: giverID},
	}); err != nil {
		return err
	}
	s.publishState(string(event.TypeQuestStarted), map[string]string{"quest_id": questID})
	return nil
}

// AdvanceQuest moves an active quest to its next stage.
func (s *Simulation) AdvanceQuest(questID string) error {
	quest, err := s.quest(questID)
	if err != nil {
		return err
	}
	quest.Stage++
	s.state.Quests[questID] = quest

	if _, err := s.emit(journal.AppendInput{
		Frame:   s.state.Clock.Frame,
		Type:    event.TypeQuestAdvanced,
		Payload: event.QuestAdvancedPayload{QuestID: questID, Stage: quest.Stage},
	}); err != nil {
		return err
	}
	s.publishState(string(event.TypeQuestAdvanced), map[string]string{"quest_id": questID})
	return nil
}

// CompleteQuest closes a quest. Completion is a landmark on the timeline,
// so the event carries a full-state snapshot and a caller-marked checkpoint
// is captured at the same frame.
func (s *Simulation) CompleteQuest(questID string) error {
	quest, err := s.quest(questID)
	if err != nil {
		return err
	}
	quest.Status = world.QuestCompleted
	s.state.Quests[questID] = quest

	snapshot := s.state.Clone()
	if _, err := s.emit(journal.AppendInput{
		Frame:    s.state.Clock.Frame,
		Type:     event.TypeQuestCompleted,
		Payload:  event.QuestCompletedPayload{QuestID: questID},
		Snapshot: &snapshot,
	}); err != nil {
		return err
	}
	if err := s.MarkCheckpoint(); err != nil {
		return err
	}
	s.publishState(string(event.TypeQuestCompleted), map[string]string{"quest_id": questID})
	return nil
}

func (s *Simulation) actor(actorID string) (world.Actor, error) {
	actor, ok := s.state.Actors[actorID]
	if !ok {
		return world.Actor{}, apperrors.WithMetadata(apperrors.CodeNotFound,
			fmt.Sprintf("actor %q not found", actorID),
			map[string]string{"actor_id": actorID})
	}
	return actor, nil
}

func (s *Simulation) quest(questID string) (world.Quest, error) {
	quest, ok := s.state.Quests[questID]
	if !ok || quest.Status != world.QuestActive {
		return world.Quest{}, apperrors.WithMetadata(apperrors.CodeNotFound,
			fmt.Sprintf("active quest %q not found", questID),
			map[string]string{"quest_id": questID})
	}
	return quest, nil
}

func (s *Simulation) publishState(eventType string, metadata map[string]string) {
	s.publisher.Publish(s.state.Clone(), eventType, metadata)
}

func contains(list []string, want string) bool {
	for _, item := range list {
		if item == want {
			return true
		}
	}
	return false
}
