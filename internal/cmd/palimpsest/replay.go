package palimpsest

import (
	"context"
	"flag"
	"fmt"
	"io"
	"sort"

	"github.com/louisbranch/palimpsest/internal/continuation"
	platformcmd "github.com/louisbranch/palimpsest/internal/platform/cmd"
)

func runReplay(ctx context.Context, cfg Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	fs.SetOutput(stdout)
	inPath := fs.String("in", "", "container file (required)")
	frame := fs.Int64("frame", -1, "frame to reconstruct (default: head of recording)")
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
	header, err := engine.Header()
	if err != nil {
		return err
	}

	target := header.FrameCount
	if *frame >= 0 {
		target = uint64(*frame)
	}

	state, resolution, err := engine.StateAtFrame(target)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "frame %d (%s from frame %d)\n", target, resolution.Tier, resolution.SourceFrame)
	fmt.Fprintf(stdout, "  day %d, %s, %s elapsed\n", state.Clock.Day, state.Clock.Weather, state.Clock.Elapsed)

	actorIDs := make([]string, 0, len(state.Actors))
	for actorID := range state.Actors {
		actorIDs = append(actorIDs, actorID)
	}
	sort.Strings(actorIDs)
	for _, actorID := range actorIDs {
		actor := state.Actors[actorID]
		location := state.Graph.Locations[actor.LocationID]
		fmt.Fprintf(stdout, "  %s at %s (%d memories, %d items)\n",
			actor.Name, location.Name, len(actor.Memories), len(actor.Inventory))
	}
	for questID, quest := range state.Quests {
		fmt.Fprintf(stdout, "  quest %s: %s (stage %d)\n", questID, quest.Status, quest.Stage)
	}
	return nil
}
