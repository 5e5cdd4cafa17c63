package palimpsest

import (
	"context"
	"flag"
	"fmt"
	"io"
	"sort"

	"github.com/louisbranch/palimpsest/internal/container"
	platformcmd "github.com/louisbranch/palimpsest/internal/platform/cmd"
)

func runInspect(ctx context.Context, cfg Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(stdout)
	inPath := fs.String("in", "", "container file (required)")
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return err
	}
	if *inPath == "" {
		return fmt.Errorf("-in is required")
	}

	c, err := container.ReadFile(ctx, *inPath)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "container %s\n", *inPath)
	fmt.Fprintf(stdout, "  version:     %s\n", c.Header.Version)
	fmt.Fprintf(stdout, "  created:     %s\n", c.Header.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(stdout, "  seed:        %d\n", c.Header.Seed)
	fmt.Fprintf(stdout, "  frames:      %d\n", c.Header.FrameCount)
	fmt.Fprintf(stdout, "  events:      %d\n", c.Header.EventCount)
	fmt.Fprintf(stdout, "  checkpoints: %d\n", c.Header.CheckpointCount)
	fmt.Fprintf(stdout, "  gen calls:   %d\n", c.Header.GeneratorCallCount)

	if len(c.Events) == 0 {
		return nil
	}

	histogram := make(map[string]int)
	for _, evt := range c.Events {
		histogram[string(evt.Type)]++
	}
	types := make([]string, 0, len(histogram))
	for eventType := range histogram {
		types = append(types, eventType)
	}
	sort.Strings(types)

	fmt.Fprintln(stdout, "  event types:")
	for _, eventType := range types {
		fmt.Fprintf(stdout, "    %-28s %d\n", eventType, histogram[eventType])
	}
	return nil
}
