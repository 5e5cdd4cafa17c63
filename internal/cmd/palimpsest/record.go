package palimpsest

import (
	"context"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/louisbranch/palimpsest/internal/catalog"
	platformcmd "github.com/louisbranch/palimpsest/internal/platform/cmd"
	"github.com/louisbranch/palimpsest/internal/random"
	"github.com/louisbranch/palimpsest/internal/scenario"
	"github.com/louisbranch/palimpsest/internal/sim"
)

// narrationPeriod is how often the recorder asks for ambient narration, in
// frames.
const narrationPeriod = 12

func runRecord(ctx context.Context, cfg Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("record", flag.ContinueOnError)
	fs.SetOutput(stdout)
	scenarioPath := fs.String("scenario", "", "scenario yaml file (required)")
	frames := fs.Uint64("frames", 100, "frames to simulate")
	rootSeed := fs.Uint64("seed", 0, "root seed; 0 uses the scenario's, then a random one")
	outPath := fs.String("out", "", "container output path (default <data-dir>/<scenario>.plmp)")
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return err
	}
	if *scenarioPath == "" {
		return fmt.Errorf("-scenario is required")
	}

	scn, err := scenario.Load(*scenarioPath)
	if err != nil {
		return err
	}

	seed := *rootSeed
	if seed == 0 {
		seed = scn.Seed
	}
	if seed == 0 {
		if seed, err = random.NewSeed(); err != nil {
			return fmt.Errorf("draw root seed: %w", err)
		}
	}

	simulation, err := sim.New(sim.Options{
		Seed:               seed,
		InitialState:       scn.State(),
		CheckpointInterval: cfg.CheckpointInterval,
	})
	if err != nil {
		return err
	}

	for i := uint64(0); i < *frames; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := simulation.AdvanceFrame(); err != nil {
			return fmt.Errorf("advance frame: %w", err)
		}
		if simulation.Frame()%narrationPeriod == 0 {
			state := simulation.State()
			prompt := fmt.Sprintf("describe day %d under %s skies", state.Clock.Day, state.Clock.Weather)
			if _, err := simulation.Narrate(ctx, prompt); err != nil {
				return fmt.Errorf("narrate: %w", err)
			}
		}
	}

	path := *outPath
	if path == "" {
		path = filepath.Join(cfg.DataDir, scn.Name+".plmp")
	}
	events := simulation.EventCount()
	checkpoints := simulation.CheckpointCount()
	if err := simulation.SaveContainer(ctx, path); err != nil {
		return err
	}

	store, err := catalog.Open(cfg.CatalogPath)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := registerContainer(ctx, store, path, seed, simulation.Frame(), uint64(events), uint64(checkpoints)); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "recorded %q: %d frames, %d events, %d checkpoints, seed %d -> %s\n",
		scn.Name, simulation.Frame(), events, checkpoints, seed, path)
	return nil
}

func registerContainer(ctx context.Context, store *catalog.Store, path string, seed, frames, events, checkpoints uint64) error {
	return store.PutContainer(ctx, catalog.ContainerRecord{
		ID:              containerID(path),
		Path:            path,
		Seed:            seed,
		FrameCount:      frames,
		EventCount:      events,
		CheckpointCount: checkpoints,
		CreatedAt:       time.Now().UTC(),
		SavedAt:         time.Now().UTC(),
	})
}
