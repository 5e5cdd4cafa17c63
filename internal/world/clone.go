package world

// Clone returns a deep copy of the state. The copy shares no mutable
// structure with the source: mutating either side never observes the other.
//
// Clone is exhaustive over the known entity graph rather than a
// serialization round-trip, so structural drift between the copy and the
// schema fails at compile time.
func (s State) Clone() State {
	cloned := s
	cloned.Actors = cloneActors(s.Actors)
	cloned.Graph = s.Graph.clone()
	cloned.Quests = cloneQuests(s.Quests)
	return cloned
}

func cloneActors(source map[string]Actor) map[string]Actor {
	if source == nil {
		return nil
	}
	cloned := make(map[string]Actor, len(source))
	for id, actor := range source {
		cloned[id] = actor.clone()
	}
	return cloned
}

func (a Actor) clone() Actor {
	cloned := a
	if a.Dispositions != nil {
		cloned.Dispositions = make(map[string]int, len(a.Dispositions))
		for target, score := range a.Dispositions {
			cloned.Dispositions[target] = score
		}
	}
	if a.Memories != nil {
		cloned.Memories = make([]Memory, len(a.Memories))
		copy(cloned.Memories, a.Memories)
	}
	if a.Inventory != nil {
		cloned.Inventory = make([]Item, len(a.Inventory))
		copy(cloned.Inventory, a.Inventory)
	}
	if a.Stats != nil {
		cloned.Stats = make(map[string]int, len(a.Stats))
		for stat, value := range a.Stats {
			cloned.Stats[stat] = value
		}
	}
	return cloned
}

func (g LocationGraph) clone() LocationGraph {
	cloned := g
	if g.Locations != nil {
		cloned.Locations = make(map[string]Location, len(g.Locations))
		for id, location := range g.Locations {
			cloned.Locations[id] = location.clone()
		}
	}
	if g.Discovered != nil {
		cloned.Discovered = make(map[string]bool, len(g.Discovered))
		for id, ok := range g.Discovered {
			cloned.Discovered[id] = ok
		}
	}
	if g.Visited != nil {
		cloned.Visited = make(map[string]bool, len(g.Visited))
		for id, ok := range g.Visited {
			cloned.Visited[id] = ok
		}
	}
	return cloned
}

func (l Location) clone() Location {
	cloned := l
	if l.Exits != nil {
		cloned.Exits = make([]string, len(l.Exits))
		copy(cloned.Exits, l.Exits)
	}
	return cloned
}

func cloneQuests(source map[string]Quest) map[string]Quest {
	if source == nil {
		return nil
	}
	cloned := make(map[string]Quest, len(source))
	for id, quest := range source {
		cloned[id] = quest.clone()
	}
	return cloned
}

func (q Quest) clone() Quest {
	cloned := q
	if q.Progress != nil {
		cloned.Progress = make(map[string]int, len(q.Progress))
		for key, value := range q.Progress {
			cloned.Progress[key] = value
		}
	}
	return cloned
}
