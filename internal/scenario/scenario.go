// Package scenario loads world definitions from YAML files and turns them
// into validated initial simulation states.
package scenario

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "github.com/louisbranch/palimpsest/internal/platform/errors"
	"github.com/louisbranch/palimpsest/internal/world"
)

var (
	// ErrInvalid indicates a scenario file that fails structural validation.
	ErrInvalid = apperrors.New(apperrors.CodeScenarioInvalid, "scenario is invalid")
	// ErrDanglingRef indicates a reference to an id the scenario never defines.
	ErrDanglingRef = apperrors.New(apperrors.CodeScenarioDanglingRef, "scenario reference does not resolve")
)

// Scenario is one parsed world definition.
type Scenario struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Seed        uint64     `yaml:"seed,omitempty"`
	Clock       ClockDef   `yaml:"clock,omitempty"`
	Locations   []Location `yaml:"locations"`
	Actors      []Actor    `yaml:"actors"`
	Quests      []Quest    `yaml:"quests,omitempty"`
}

// ClockDef seeds the simulation clock. Day and weather default to 1 and
// clear.
type ClockDef struct {
	Day     uint32 `yaml:"day,omitempty"`
	Weather string `yaml:"weather,omitempty"`
}

// Location is one node of the scenario map.
type Location struct {
	ID    string   `yaml:"id"`
	Name  string   `yaml:"name"`
	Exits []string `yaml:"exits,omitempty"`
}

// Actor is one starting entity.
type Actor struct {
	ID           string         `yaml:"id"`
	Name         string         `yaml:"name"`
	Location     string         `yaml:"location"`
	Dispositions map[string]int `yaml:"dispositions,omitempty"`
	Stats        map[string]int `yaml:"stats,omitempty"`
	Inventory    []Item         `yaml:"inventory,omitempty"`
}

// Item is one starting inventory entry.
type Item struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Quantity int    `yaml:"quantity,omitempty"`
}

// Quest is one quest open at the start of the scenario.
type Quest struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Giver string `yaml:"giver,omitempty"`
}

// Load reads and parses the scenario file at path.
func Load(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML scenario document.
func Parse(data []byte) (Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Scenario{}, apperrors.Wrap(apperrors.CodeScenarioInvalid, "parse scenario yaml", err)
	}
	if err := s.validate(); err != nil {
		return Scenario{}, err
	}
	return s, nil
}

func (s Scenario) validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return invalid("scenario name is required", nil)
	}
	if len(s.Locations) == 0 {
		return invalid("scenario defines no locations", nil)
	}
	if len(s.Actors) == 0 {
		return invalid("scenario defines no actors", nil)
	}

	locations := make(map[string]bool, len(s.Locations))
	for _, loc := range s.Locations {
		if strings.TrimSpace(loc.ID) == "" {
			return invalid("location id is required", map[string]string{"name": loc.Name})
		}
		if locations[loc.ID] {
			return invalid(fmt.Sprintf("duplicate location %q", loc.ID), map[string]string{"location_id": loc.ID})
		}
		locations[loc.ID] = true
	}
	for _, loc := range s.Locations {
		for _, exit := range loc.Exits {
			if !locations[exit] {
				return dangling(fmt.Sprintf("location %q exits to undefined %q", loc.ID, exit),
					map[string]string{"location_id": loc.ID, "exit": exit})
			}
		}
	}

	actors := make(map[string]bool, len(s.Actors))
	for _, actor := range s.Actors {
		if strings.TrimSpace(actor.ID) == "" {
			return invalid("actor id is required", map[string]string{"name": actor.Name})
		}
		if actors[actor.ID] {
			return invalid(fmt.Sprintf("duplicate actor %q", actor.ID), map[string]string{"actor_id": actor.ID})
		}
		actors[actor.ID] = true
		if !locations[actor.Location] {
			return dangling(fmt.Sprintf("actor %q starts at undefined location %q", actor.ID, actor.Location),
				map[string]string{"actor_id": actor.ID, "location_id": actor.Location})
		}
	}
	for _, actor := range s.Actors {
		for target := range actor.Dispositions {
			if !actors[target] {
				return dangling(fmt.Sprintf("actor %q has a disposition toward undefined %q", actor.ID, target),
					map[string]string{"actor_id": actor.ID, "target_id": target})
			}
		}
	}

	quests := make(map[string]bool, len(s.Quests))
	for _, quest := range s.Quests {
		if strings.TrimSpace(quest.ID) == "" {
			return invalid("quest id is required", map[string]string{"name": quest.Name})
		}
		if quests[quest.ID] {
			return invalid(fmt.Sprintf("duplicate quest %q", quest.ID), map[string]string{"quest_id": quest.ID})
		}
		quests[quest.ID] = true
		if quest.Giver != "" && !actors[quest.Giver] {
			return dangling(fmt.Sprintf("quest %q names undefined giver %q", quest.ID, quest.Giver),
				map[string]string{"quest_id": quest.ID, "giver_id": quest.Giver})
		}
	}
	return nil
}

// State builds the initial world state the scenario describes. Actor
// starting locations count as discovered and visited.
func (s Scenario) State() world.State {
	state := world.State{
		Clock:  world.Clock{Day: 1, Weather: world.WeatherClear},
		Actors: make(map[string]world.Actor, len(s.Actors)),
		Graph: world.LocationGraph{
			Locations:  make(map[string]world.Location, len(s.Locations)),
			Discovered: make(map[string]bool),
			Visited:    make(map[string]bool),
		},
	}
	if s.Clock.Day > 0 {
		state.Clock.Day = s.Clock.Day
	}
	if s.Clock.Weather != "" {
		state.Clock.Weather = world.Weather(s.Clock.Weather)
	}

	for _, loc := range s.Locations {
		exits := make([]string, len(loc.Exits))
		copy(exits, loc.Exits)
		state.Graph.Locations[loc.ID] = world.Location{ID: loc.ID, Name: loc.Name, Exits: exits}
	}

	for _, actor := range s.Actors {
		converted := world.Actor{
			ID:         actor.ID,
			Name:       actor.Name,
			LocationID: actor.Location,
		}
		if len(actor.Dispositions) > 0 {
			converted.Dispositions = make(map[string]int, len(actor.Dispositions))
			for target, score := range actor.Dispositions {
				converted.Dispositions[target] = score
			}
		}
		if len(actor.Stats) > 0 {
			converted.Stats = make(map[string]int, len(actor.Stats))
			for stat, value := range actor.Stats {
				converted.Stats[stat] = value
			}
		}
		for _, item := range actor.Inventory {
			quantity := item.Quantity
			if quantity <= 0 {
				quantity = 1
			}
			converted.Inventory = append(converted.Inventory, world.Item{
				ID: item.ID, Name: item.Name, Quantity: quantity,
			})
		}
		state.Actors[actor.ID] = converted
		state.Graph.Discovered[actor.Location] = true
		state.Graph.Visited[actor.Location] = true
	}

	if len(s.Quests) > 0 {
		state.Quests = make(map[string]world.Quest, len(s.Quests))
		for _, quest := range s.Quests {
			state.Quests[quest.ID] = world.Quest{
				ID:      quest.ID,
				Name:    quest.Name,
				GiverID: quest.Giver,
				Status:  world.QuestActive,
			}
		}
	}
	return state
}

func invalid(message string, metadata map[string]string) error {
	if metadata == nil {
		return apperrors.New(apperrors.CodeScenarioInvalid, message)
	}
	return apperrors.WithMetadata(apperrors.CodeScenarioInvalid, message, metadata)
}

func dangling(message string, metadata map[string]string) error {
	return apperrors.WithMetadata(apperrors.CodeScenarioDanglingRef, message, metadata)
}
