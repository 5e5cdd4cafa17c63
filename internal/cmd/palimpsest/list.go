package palimpsest

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/louisbranch/palimpsest/internal/catalog"
	platformcmd "github.com/louisbranch/palimpsest/internal/platform/cmd"
)

func runList(ctx context.Context, cfg Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(stdout)
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return err
	}

	store, err := catalog.Open(cfg.CatalogPath)
	if err != nil {
		return err
	}
	defer store.Close()

	containers, err := store.ListContainers(ctx)
	if err != nil {
		return err
	}
	if len(containers) == 0 {
		fmt.Fprintln(stdout, "no recorded sessions")
		return nil
	}

	for _, rec := range containers {
		fmt.Fprintf(stdout, "%s\n  seed %d, %d frames, %d events, saved %s\n",
			rec.Path, rec.Seed, rec.FrameCount, rec.EventCount,
			rec.SavedAt.Format("2006-01-02 15:04"))

		forks, err := store.ListForks(ctx, rec.ID)
		if err != nil {
			return err
		}
		for _, fork := range forks {
			fmt.Fprintf(stdout, "  fork %s at frame %d (seed %d, depth %d)\n",
				fork.ID, fork.Frame, fork.Seed, fork.Depth)
		}
	}
	return nil
}

func runLineage(ctx context.Context, cfg Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("lineage", flag.ContinueOnError)
	fs.SetOutput(stdout)
	forkID := fs.String("fork", "", "fork id to trace (required)")
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return err
	}
	if *forkID == "" {
		return fmt.Errorf("-fork is required")
	}

	store, err := catalog.Open(cfg.CatalogPath)
	if err != nil {
		return err
	}
	defer store.Close()

	chain, err := store.Lineage(ctx, *forkID)
	if err != nil {
		return err
	}
	for _, link := range chain {
		fmt.Fprintf(stdout, "%s  frame %d  seed %d  depth %d  (%s)\n",
			link.ID, link.Frame, link.Seed, link.Depth, link.Tier)
	}
	return nil
}
