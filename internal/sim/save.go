package sim

import (
	"context"

	"github.com/louisbranch/palimpsest/internal/container"
)

// BuildContainer drains the journal, checkpoint store, and generator call
// log into a portable container. Draining transfers ownership: after the
// call the simulation's logs are empty and the events belong to the
// container alone. The simulation itself stays live and can keep running;
// later saves pick up where this one left off.
func (s *Simulation) BuildContainer() container.Container {
	events, checkpoints := s.journal.Flush()
	return container.Build(container.BuildInput{
		Seed:           s.rootSeed,
		CreatedAt:      s.now().UTC(),
		InitialState:   s.initial,
		Events:         events,
		Checkpoints:    checkpoints,
		GeneratorCalls: s.calls.Flush(),
	})
}

// SaveContainer drains the session into a container and writes it to path.
func (s *Simulation) SaveContainer(ctx context.Context, path string) error {
	return container.WriteFile(ctx, path, s.BuildContainer())
}
