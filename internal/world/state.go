// Package world defines the self-describing simulation state.
//
// A State carries everything needed to resume the simulation: the clock, the
// full set of live actors, the location graph, and active quests. States
// cross ownership boundaries only as deep copies (Clone), and are never
// partially valid: every relational reference inside a State must resolve
// within that same State (Validate).
package world

import "time"

// Weather enumerates the simulation weather conditions.
type Weather string

const (
	WeatherClear Weather = "clear"
	WeatherRain  Weather = "rain"
	WeatherFog   Weather = "fog"
	WeatherStorm Weather = "storm"
)

// Clock is the simulation's logical time.
type Clock struct {
	// Frame is the discrete logical time unit; events and checkpoints are
	// indexed by frame.
	Frame uint64 `json:"frame"`
	// Elapsed is the accumulated in-world time.
	Elapsed time.Duration `json:"elapsed"`
	// Day is the in-world calendar day, starting at 1.
	Day uint32 `json:"day"`
	// Weather is the current weather condition.
	Weather Weather `json:"weather"`
}

// Memory is one accumulated memory record held by an actor.
type Memory struct {
	// Frame is when the memory formed.
	Frame uint64 `json:"frame"`
	// SubjectID optionally names the actor the memory is about.
	SubjectID string `json:"subject_id,omitempty"`
	// Text is the memory content.
	Text string `json:"text"`
}

// Item is an inventory entry.
type Item struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Actor is a live entity in the simulation.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// LocationID references a location in the same State's graph.
	LocationID string `json:"location_id"`
	// Dispositions scores this actor's attitude toward other actors,
	// keyed by actor id.
	Dispositions map[string]int `json:"dispositions,omitempty"`
	// Memories accumulate in formation order.
	Memories  []Memory       `json:"memories,omitempty"`
	Inventory []Item         `json:"inventory,omitempty"`
	Stats     map[string]int `json:"stats,omitempty"`
}

// Location is one node of the location graph.
type Location struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Exits references neighbouring location ids within the same graph.
	Exits []string `json:"exits,omitempty"`
}

// LocationGraph is the world map: the keyed location table plus the
// discovered and visited sets.
type LocationGraph struct {
	Locations  map[string]Location `json:"locations"`
	Discovered map[string]bool     `json:"discovered,omitempty"`
	Visited    map[string]bool     `json:"visited,omitempty"`
}

// QuestStatus enumerates quest lifecycle states.
type QuestStatus string

const (
	QuestActive    QuestStatus = "active"
	QuestCompleted QuestStatus = "completed"
	QuestFailed    QuestStatus = "failed"
)

// Quest is an active long-running objective with progress fields.
type Quest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// GiverID optionally references the actor who issued the quest.
	GiverID string `json:"giver_id,omitempty"`
	// Stage is the current step in the quest line.
	Stage int `json:"stage"`
	// Progress tracks named counters toward the current stage.
	Progress map[string]int `json:"progress,omitempty"`
	Status   QuestStatus    `json:"status"`
}

// State is a complete, independently-interpretable snapshot of the
// simulation. It is handed across ownership boundaries only via Clone.
type State struct {
	Clock  Clock            `json:"clock"`
	Actors map[string]Actor `json:"actors"`
	Graph  LocationGraph    `json:"graph"`
	Quests map[string]Quest `json:"quests,omitempty"`
}
