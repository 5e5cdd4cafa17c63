package palimpsest

import (
	"context"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/louisbranch/palimpsest/internal/catalog"
	"github.com/louisbranch/palimpsest/internal/continuation"
	platformcmd "github.com/louisbranch/palimpsest/internal/platform/cmd"
)

func runFork(ctx context.Context, cfg Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("fork", flag.ContinueOnError)
	fs.SetOutput(stdout)
	inPath := fs.String("in", "", "parent container file (required)")
	frame := fs.Int64("frame", -1, "frame to branch from (default: head of recording)")
	forkSeed := fs.Uint64("seed", 0, "root seed for the new timeline; 0 draws a random one")
	frames := fs.Uint64("frames", 0, "frames to play on the new timeline before saving")
	outPath := fs.String("out", "", "new container path (default <in>-fork.plmp)")
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return err
	}
	if *inPath == "" {
		return fmt.Errorf("-in is required")
	}

	engine := continuation.NewEngine()
	if err := engine.LoadReplay(ctx, *inPath); err != nil {
		return err
	}

	opts := continuation.ForkOptions{
		Seed:               *forkSeed,
		CheckpointInterval: cfg.CheckpointInterval,
	}
	if *frame >= 0 {
		branch := uint64(*frame)
		opts.Frame = &branch
	}

	simulation, fork, err := engine.ContinueAsNewGame(ctx, opts)
	if err != nil {
		return err
	}
	for i := uint64(0); i < *frames; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := simulation.AdvanceFrame(); err != nil {
			return fmt.Errorf("advance fork frame: %w", err)
		}
	}

	path := *outPath
	if path == "" {
		base := strings.TrimSuffix(*inPath, filepath.Ext(*inPath))
		path = base + "-fork.plmp"
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

	// The parent must be in the catalog before the lineage row can point
	// at it.
	header, err := engine.Header()
	if err != nil {
		return err
	}
	if err := registerContainer(ctx, store, *inPath, header.Seed, header.FrameCount, header.EventCount, header.CheckpointCount); err != nil {
		return err
	}
	if err := registerContainer(ctx, store, path, fork.Seed, simulation.Frame(), uint64(events), uint64(checkpoints)); err != nil {
		return err
	}
	if _, err := store.PutFork(ctx, catalog.ForkRecord{
		ID:          fork.ID,
		ContainerID: containerID(*inPath),
		Frame:       fork.Frame,
		Seed:        fork.Seed,
		Tier:        string(fork.Resolution.Tier),
		CreatedAt:   fork.CreatedAt,
	}); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "forked at frame %d (%s from frame %d), seed %d, played %d frames -> %s\n",
		fork.Frame, fork.Resolution.Tier, fork.Resolution.SourceFrame, fork.Seed, *frames, path)
	return nil
}
