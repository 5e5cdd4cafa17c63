package config

import "testing"

type testConfig struct {
	ContainerDir       string `env:"PALIMPSEST_CONTAINER_DIR" envDefault:"containers"`
	CheckpointInterval uint64 `env:"PALIMPSEST_CHECKPOINT_INTERVAL" envDefault:"50"`
}

func TestParseEnv_Defaults(t *testing.T) {
	t.Setenv("PALIMPSEST_CONTAINER_DIR", "")
	t.Setenv("PALIMPSEST_CHECKPOINT_INTERVAL", "")

	var cfg testConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ContainerDir != "containers" {
		t.Fatalf("container dir = %q, want %q", cfg.ContainerDir, "containers")
	}
	if cfg.CheckpointInterval != 50 {
		t.Fatalf("checkpoint interval = %d, want %d", cfg.CheckpointInterval, 50)
	}
}

func TestParseEnv_Overrides(t *testing.T) {
	t.Setenv("PALIMPSEST_CONTAINER_DIR", "/tmp/sessions")
	t.Setenv("PALIMPSEST_CHECKPOINT_INTERVAL", "100")

	var cfg testConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ContainerDir != "/tmp/sessions" {
		t.Fatalf("container dir = %q, want %q", cfg.ContainerDir, "/tmp/sessions")
	}
	if cfg.CheckpointInterval != 100 {
		t.Fatalf("checkpoint interval = %d, want %d", cfg.CheckpointInterval, 100)
	}
}

func TestParseEnv_RejectsInvalidValue(t *testing.T) {
	t.Setenv("PALIMPSEST_CHECKPOINT_INTERVAL", "not-a-number")

	var cfg testConfig
	if err := ParseEnv(&cfg); err == nil {
		t.Fatal("expected error for invalid integer value")
	}
}
