package palimpsest

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/louisbranch/palimpsest/internal/catalog"
	"github.com/louisbranch/palimpsest/internal/container"
)

const scenarioYAML = `
name: riverside
seed: 42
locations:
  - id: loc-mill
    name: Old Mill
    exits: [loc-square]
  - id: loc-square
    name: Market Square
    exits: [loc-mill]
actors:
  - id: npc-brena
    name: Brena
    location: loc-mill
`

func testConfig(t *testing.T) Config {
	t.Helper()

	dir := t.TempDir()
	return Config{
		DataDir:            dir,
		CatalogPath:        filepath.Join(dir, "catalog.db"),
		CheckpointInterval: 10,
	}
}

func writeScenario(t *testing.T, cfg Config) string {
	t.Helper()

	path := filepath.Join(cfg.DataDir, "riverside.yaml")
	if err := os.WriteFile(path, []byte(scenarioYAML), 0o644); err != nil {
		t.Fatalf("write scenario: %v", err)
	}
	return path
}

func TestRun_RequiresSubcommand(t *testing.T) {
	var out bytes.Buffer
	if err := Run(context.Background(), testConfig(t), nil, &out); err == nil {
		t.Fatal("expected error without a subcommand")
	}
	if !strings.Contains(out.String(), "usage:") {
		t.Fatal("usage not printed")
	}

	if err := Run(context.Background(), testConfig(t), []string{"bogus"}, &out); err == nil {
		t.Fatal("expected error for unknown subcommand")
	}
}

func TestRecordInspectReplayFork(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	scenarioPath := writeScenario(t, cfg)
	containerPath := filepath.Join(cfg.DataDir, "riverside.plmp")

	var out bytes.Buffer
	err := Run(ctx, cfg, []string{
		"record", "-scenario", scenarioPath, "-frames", "30", "-out", containerPath,
	}, &out)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !strings.Contains(out.String(), "recorded \"riverside\"") {
		t.Fatalf("record output = %q", out.String())
	}

	c, err := container.ReadFile(ctx, containerPath)
	if err != nil {
		t.Fatalf("read recorded container: %v", err)
	}
	if c.Header.FrameCount != 30 || c.Header.Seed != 42 {
		t.Fatalf("header = %+v, want 30 frames at seed 42", c.Header)
	}
	// 30 clock events plus narration every 12 frames.
	if c.Header.EventCount != 32 {
		t.Fatalf("event count = %d, want 32", c.Header.EventCount)
	}
	if c.Header.GeneratorCallCount != 2 {
		t.Fatalf("generator calls = %d, want 2", c.Header.GeneratorCallCount)
	}
	// Opening checkpoint plus interval captures at 10, 20, 30.
	if c.Header.CheckpointCount != 4 {
		t.Fatalf("checkpoint count = %d, want 4", c.Header.CheckpointCount)
	}

	out.Reset()
	if err := Run(ctx, cfg, []string{"inspect", "-in", containerPath}, &out); err != nil {
		t.Fatalf("inspect: %v", err)
	}
	inspectOutput := out.String()
	if !strings.Contains(inspectOutput, "frames:      30") || !strings.Contains(inspectOutput, "clock.advanced") {
		t.Fatalf("inspect output = %q", inspectOutput)
	}

	out.Reset()
	if err := Run(ctx, cfg, []string{"replay", "-in", containerPath, "-frame", "15"}, &out); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !strings.Contains(out.String(), "frame 15") || !strings.Contains(out.String(), "Brena") {
		t.Fatalf("replay output = %q", out.String())
	}

	out.Reset()
	forkPath := filepath.Join(cfg.DataDir, "riverside-fork.plmp")
	err = Run(ctx, cfg, []string{
		"fork", "-in", containerPath, "-seed", "7", "-frames", "5", "-out", forkPath,
	}, &out)
	if err != nil {
		t.Fatalf("fork: %v", err)
	}

	forked, err := container.ReadFile(ctx, forkPath)
	if err != nil {
		t.Fatalf("read forked container: %v", err)
	}
	if forked.Header.Seed != 7 {
		t.Fatalf("fork seed = %d, want 7", forked.Header.Seed)
	}
	if forked.Header.FrameCount != 35 {
		t.Fatalf("fork frame count = %d, want 35", forked.Header.FrameCount)
	}
	if forked.InitialState.Clock.Frame != 30 {
		t.Fatalf("fork initial frame = %d, want branch point 30", forked.InitialState.Clock.Frame)
	}

	// Both containers and the lineage link are in the catalog.
	store, err := catalog.Open(cfg.CatalogPath)
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	defer store.Close()

	containers, err := store.ListContainers(ctx)
	if err != nil {
		t.Fatalf("list containers: %v", err)
	}
	if len(containers) != 2 {
		t.Fatalf("catalog holds %d containers, want 2", len(containers))
	}
	forks, err := store.ListForks(ctx, containerID(containerPath))
	if err != nil {
		t.Fatalf("list forks: %v", err)
	}
	if len(forks) != 1 || forks[0].Seed != 7 || forks[0].Frame != 30 {
		t.Fatalf("forks = %+v, want one at frame 30 with seed 7", forks)
	}

	out.Reset()
	if err := Run(ctx, cfg, []string{"list"}, &out); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out.String(), "seed 42") || !strings.Contains(out.String(), "fork "+forks[0].ID) {
		t.Fatalf("list output = %q", out.String())
	}

	out.Reset()
	if err := Run(ctx, cfg, []string{"lineage", "-fork", forks[0].ID}, &out); err != nil {
		t.Fatalf("lineage: %v", err)
	}
	if !strings.Contains(out.String(), forks[0].ID) {
		t.Fatalf("lineage output = %q", out.String())
	}
}

func TestRecord_RequiresScenario(t *testing.T) {
	var out bytes.Buffer
	if err := Run(context.Background(), testConfig(t), []string{"record"}, &out); err == nil {
		t.Fatal("expected error without -scenario")
	}
}

func TestParseConfig_DefaultsCatalogPath(t *testing.T) {
	t.Setenv("PALIMPSEST_DATA_DIR", "/tmp/palimpsest-test")
	t.Setenv("PALIMPSEST_CATALOG_PATH", "")

	cfg, err := ParseConfig()
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.CatalogPath != filepath.Join("/tmp/palimpsest-test", "catalog.db") {
		t.Fatalf("catalog path = %q", cfg.CatalogPath)
	}
}
