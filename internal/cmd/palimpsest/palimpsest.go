// Package palimpsest implements the palimpsest command-line tool: record a
// scenario into a container, inspect and replay containers, and fork new
// timelines off them.
package palimpsest

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	platformcmd "github.com/louisbranch/palimpsest/internal/platform/cmd"
)

// Config is the environment-driven tool configuration. Flags on the
// individual subcommands override it.
type Config struct {
	// DataDir is where containers and the catalog live by default.
	DataDir string `env:"PALIMPSEST_DATA_DIR" envDefault:"."`
	// CatalogPath overrides the catalog database location.
	CatalogPath string `env:"PALIMPSEST_CATALOG_PATH"`
	// CheckpointInterval is the automatic checkpoint spacing for new
	// recordings.
	CheckpointInterval uint64 `env:"PALIMPSEST_CHECKPOINT_INTERVAL" envDefault:"50"`
}

// ParseConfig loads the tool configuration from the environment.
func ParseConfig() (Config, error) {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.CatalogPath == "" {
		cfg.CatalogPath = filepath.Join(cfg.DataDir, "catalog.db")
	}
	return cfg, nil
}

// Run dispatches to the named subcommand. args holds the subcommand name
// followed by its flags.
func Run(ctx context.Context, cfg Config, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		usage(stdout)
		return fmt.Errorf("a subcommand is required")
	}

	command, rest := args[0], args[1:]
	switch command {
	case "record":
		return runRecord(ctx, cfg, rest, stdout)
	case "inspect":
		return runInspect(ctx, cfg, rest, stdout)
	case "replay":
		return runReplay(ctx, cfg, rest, stdout)
	case "fork":
		return runFork(ctx, cfg, rest, stdout)
	case "list":
		return runList(ctx, cfg, rest, stdout)
	case "lineage":
		return runLineage(ctx, cfg, rest, stdout)
	default:
		usage(stdout)
		return fmt.Errorf("unknown subcommand %q", command)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: palimpsest <command> [flags]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "commands:")
	fmt.Fprintln(w, "  record   run a scenario and save the session container")
	fmt.Fprintln(w, "  inspect  summarize a saved container")
	fmt.Fprintln(w, "  replay   reconstruct the world at a frame of a container")
	fmt.Fprintln(w, "  fork     continue a new timeline off a container")
	fmt.Fprintln(w, "  list     list recorded sessions and their forks")
	fmt.Fprintln(w, "  lineage  trace a fork back to its origin")
}

// containerID is the catalog identity of a container file. Using the
// cleaned path keeps re-registration idempotent.
func containerID(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
