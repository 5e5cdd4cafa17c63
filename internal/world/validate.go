package world

import (
	"fmt"

	apperrors "github.com/louisbranch/palimpsest/internal/platform/errors"
)

// ErrDanglingReference indicates a relational reference that does not resolve
// within the same State.
var ErrDanglingReference = apperrors.New(apperrors.CodeStateDanglingRef, "state contains a dangling reference")

// Validate checks the referential integrity of the state: every relational
// reference (an actor's location, a disposition target, a quest giver, a
// location exit, a discovered or visited id) must resolve to an id present
// elsewhere in the same State.
func (s State) Validate() error {
	for id, actor := range s.Actors {
		if actor.ID != id {
			return dangling("actor", id, fmt.Sprintf("keyed as %q but carries id %q", id, actor.ID))
		}
		if _, ok := s.Graph.Locations[actor.LocationID]; !ok {
			return dangling("actor", id, fmt.Sprintf("location %q not in graph", actor.LocationID))
		}
		for target := range actor.Dispositions {
			if _, ok := s.Actors[target]; !ok {
				return dangling("actor", id, fmt.Sprintf("disposition target %q not in actors", target))
			}
		}
		for _, memory := range actor.Memories {
			if memory.SubjectID == "" {
				continue
			}
			if _, ok := s.Actors[memory.SubjectID]; !ok {
				return dangling("actor", id, fmt.Sprintf("memory subject %q not in actors", memory.SubjectID))
			}
		}
	}

	for id, location := range s.Graph.Locations {
		if location.ID != id {
			return dangling("location", id, fmt.Sprintf("keyed as %q but carries id %q", id, location.ID))
		}
		for _, exit := range location.Exits {
			if _, ok := s.Graph.Locations[exit]; !ok {
				return dangling("location", id, fmt.Sprintf("exit %q not in graph", exit))
			}
		}
	}
	for id := range s.Graph.Discovered {
		if _, ok := s.Graph.Locations[id]; !ok {
			return dangling("graph", "discovered", fmt.Sprintf("location %q not in graph", id))
		}
	}
	for id := range s.Graph.Visited {
		if _, ok := s.Graph.Locations[id]; !ok {
			return dangling("graph", "visited", fmt.Sprintf("location %q not in graph", id))
		}
	}

	for id, quest := range s.Quests {
		if quest.ID != id {
			return dangling("quest", id, fmt.Sprintf("keyed as %q but carries id %q", id, quest.ID))
		}
		if quest.GiverID != "" {
			if _, ok := s.Actors[quest.GiverID]; !ok {
				return dangling("quest", id, fmt.Sprintf("giver %q not in actors", quest.GiverID))
			}
		}
	}

	return nil
}

func dangling(kind, id, detail string) error {
	return apperrors.WithMetadata(
		apperrors.CodeStateDanglingRef,
		fmt.Sprintf("%s %q: %s", kind, id, detail),
		map[string]string{"kind": kind, "id": id},
	)
}
