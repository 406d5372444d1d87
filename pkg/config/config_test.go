package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_Values(t *testing.T) {
	cfg := Default()

	if cfg.Version != 1 {
		t.Errorf("version = %d, want 1", cfg.Version)
	}
	if !cfg.Compute.Probability {
		t.Error("probability computation must default to on")
	}
	if cfg.Integration.MaxIter != 5 {
		t.Errorf("max_iter = %d, want 5", cfg.Integration.MaxIter)
	}
	if cfg.Integration.DiracDelta != 1e-4 {
		t.Errorf("dirac_delta = %v, want 1e-4", cfg.Integration.DiracDelta)
	}
	if cfg.Parser.BufferSize != 64*1024 {
		t.Errorf("buffer_size = %d, want 64KiB", cfg.Parser.BufferSize)
	}
	if cfg.Mining.Algorithm != "apriori" || cfg.Mining.Matcher != "serial" {
		t.Errorf("mining defaults = %q/%q, want apriori/serial", cfg.Mining.Algorithm, cfg.Mining.Matcher)
	}
	if cfg.Telemetry.Enabled {
		t.Error("telemetry must default to off")
	}
}

func TestMerge_NonZeroFieldsOnly(t *testing.T) {
	m := NewManager()
	m.merge(&Config{
		Compute:     ComputeConfig{Workers: 8},
		Integration: IntegrationConfig{AbsTol: 1e-6},
		Mining:      MiningConfig{Algorithm: "winepi"},
	})

	cfg := m.Get()
	if cfg.Compute.Workers != 8 {
		t.Errorf("workers = %d, want 8", cfg.Compute.Workers)
	}
	if cfg.Integration.AbsTol != 1e-6 {
		t.Errorf("abs_tol = %v, want 1e-6", cfg.Integration.AbsTol)
	}
	if cfg.Mining.Algorithm != "winepi" {
		t.Errorf("algorithm = %q, want winepi", cfg.Mining.Algorithm)
	}
	// Untouched fields keep their defaults.
	if cfg.Integration.RelTol != 1e-3 {
		t.Errorf("rel_tol = %v, want default 1e-3", cfg.Integration.RelTol)
	}
	if cfg.Parser.BufferSize != 64*1024 {
		t.Errorf("buffer_size = %d, want default", cfg.Parser.BufferSize)
	}
}

func TestLoadFile_MergesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("version: 1\ncompute:\n  workers: 4\nbewilder:\n  seed: 99\n  activity_p: 0.25\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	m := NewManager()
	if err := m.loadFile(path); err != nil {
		t.Fatalf("loadFile: %v", err)
	}

	cfg := m.Get()
	if cfg.Compute.Workers != 4 {
		t.Errorf("workers = %d, want 4", cfg.Compute.Workers)
	}
	if cfg.Bewilder.Seed != 99 {
		t.Errorf("seed = %d, want 99", cfg.Bewilder.Seed)
	}
	if cfg.Bewilder.ActivityP != 0.25 {
		t.Errorf("activity_p = %v, want 0.25", cfg.Bewilder.ActivityP)
	}
	if cfg.Bewilder.TimestampP != 0.1 {
		t.Errorf("timestamp_p = %v, want default 0.1", cfg.Bewilder.TimestampP)
	}
}

func TestLoadFile_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("compute: [not a map"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	m := NewManager()
	if err := m.loadFile(path); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestLoadEnv_Overrides(t *testing.T) {
	t.Setenv("VERALOG_WORKERS", "16")
	t.Setenv("VERALOG_SEED", "7")
	t.Setenv("VERALOG_TELEMETRY_ENDPOINT", "localhost:4317")

	m := NewManager()
	m.loadEnv()

	cfg := m.Get()
	if cfg.Compute.Workers != 16 {
		t.Errorf("workers = %d, want 16", cfg.Compute.Workers)
	}
	if cfg.Bewilder.Seed != 7 {
		t.Errorf("seed = %d, want 7", cfg.Bewilder.Seed)
	}
	if cfg.Telemetry.Endpoint != "localhost:4317" || !cfg.Telemetry.Enabled {
		t.Error("telemetry endpoint must enable telemetry")
	}
}

func TestLoadEnv_IgnoresMalformed(t *testing.T) {
	t.Setenv("VERALOG_WORKERS", "many")

	m := NewManager()
	m.loadEnv()

	if got := m.Get().Compute.Workers; got != 0 {
		t.Errorf("workers = %d, want untouched default 0", got)
	}
}
