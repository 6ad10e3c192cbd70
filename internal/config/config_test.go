package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	config := Default()

	if config.Simulation.Reps != 0 {
		t.Errorf("expected Reps 0 (use scenario), got %d", config.Simulation.Reps)
	}
	if config.Simulation.Trials != 500 {
		t.Errorf("expected Trials 500, got %d", config.Simulation.Trials)
	}
	if config.Simulation.Seed != nil {
		t.Errorf("expected no seed, got %d", *config.Simulation.Seed)
	}
	if config.Simulation.Threshold != 0.9 {
		t.Errorf("expected Threshold 0.9, got %f", config.Simulation.Threshold)
	}
	if config.Chart.Format != "png" {
		t.Errorf("expected Chart.Format 'png', got '%s'", config.Chart.Format)
	}
	if !config.Chart.Legend {
		t.Error("expected Chart.Legend to be true by default")
	}
	if config.Logging.Level != "info" {
		t.Errorf("expected Logging.Level 'info', got '%s'", config.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
simulation:
  reps: 120
  seed: 9
  threshold: 0.75

chart:
  format: svg
  width: 10
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if config.Simulation.Reps != 120 {
		t.Errorf("expected Reps 120, got %d", config.Simulation.Reps)
	}
	if config.Simulation.Seed == nil || *config.Simulation.Seed != 9 {
		t.Errorf("expected Seed 9, got %v", config.Simulation.Seed)
	}
	if config.Simulation.Threshold != 0.75 {
		t.Errorf("expected Threshold 0.75, got %f", config.Simulation.Threshold)
	}
	// Unset keys keep their defaults.
	if config.Simulation.Trials != 500 {
		t.Errorf("expected Trials 500, got %d", config.Simulation.Trials)
	}
	if config.Chart.Format != "svg" || config.Chart.Width != 10 || config.Chart.Height != 5 {
		t.Errorf("unexpected chart config: %+v", config.Chart)
	}
}

func TestLoadFromFile_EnvExpansion(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  trace_dir: ${TEST_TRACE_ROOT}/steps
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("TEST_TRACE_ROOT", "/tmp/washout")

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if config.Logging.TraceDir != "/tmp/washout/steps" {
		t.Errorf("expected TraceDir '/tmp/washout/steps', got '%s'", config.Logging.TraceDir)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("WASHOUT_REPS", "75")
	t.Setenv("WASHOUT_TRIALS", "40")
	t.Setenv("WASHOUT_SEED", "123")
	t.Setenv("WASHOUT_THRESHOLD", "0.8")
	t.Setenv("WASHOUT_CHART_FORMAT", "HTML")
	t.Setenv("WASHOUT_LOG_LEVEL", "debug")

	config := Default()
	applyEnvOverrides(config)

	if config.Simulation.Reps != 75 {
		t.Errorf("expected Reps 75, got %d", config.Simulation.Reps)
	}
	if config.Simulation.Trials != 40 {
		t.Errorf("expected Trials 40, got %d", config.Simulation.Trials)
	}
	if config.Simulation.Seed == nil || *config.Simulation.Seed != 123 {
		t.Errorf("expected Seed 123, got %v", config.Simulation.Seed)
	}
	if config.Simulation.Threshold != 0.8 {
		t.Errorf("expected Threshold 0.8, got %f", config.Simulation.Threshold)
	}
	if config.Chart.Format != "html" {
		t.Errorf("expected Chart.Format 'html', got '%s'", config.Chart.Format)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("expected Logging.Level 'debug', got '%s'", config.Logging.Level)
	}
}

func TestEnvOverrides_IgnoresMalformed(t *testing.T) {
	t.Setenv("WASHOUT_REPS", "many")
	t.Setenv("WASHOUT_SEED", "-1")

	config := Default()
	applyEnvOverrides(config)

	if config.Simulation.Reps != 0 {
		t.Errorf("expected Reps unchanged, got %d", config.Simulation.Reps)
	}
	if config.Simulation.Seed != nil {
		t.Errorf("expected Seed unchanged, got %d", *config.Simulation.Seed)
	}
}

func TestLoad_LayersFileAndEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("WASHOUT_TRIALS", "")
	t.Setenv("WASHOUT_REPS", "33")

	dir := filepath.Join(home, ".washout")
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("simulation:\n  reps: 10\n  trials: 20\n"), 0600); err != nil {
		t.Fatal(err)
	}

	config, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.Simulation.Trials != 20 {
		t.Errorf("expected Trials 20 from file, got %d", config.Simulation.Trials)
	}
	if config.Simulation.Reps != 33 {
		t.Errorf("expected Reps 33 from env, got %d", config.Simulation.Reps)
	}
}

func TestValidate_Valid(t *testing.T) {
	config := Default()
	if err := config.Validate(); err != nil {
		t.Errorf("expected valid config, got error: %v", err)
	}
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *WashoutConfig)
	}{
		{"negative reps", func(c *WashoutConfig) { c.Simulation.Reps = -1 }},
		{"too many reps", func(c *WashoutConfig) { c.Simulation.Reps = 1_000_000 }},
		{"zero trials", func(c *WashoutConfig) { c.Simulation.Trials = 0 }},
		{"threshold of one", func(c *WashoutConfig) { c.Simulation.Threshold = 1 }},
		{"negative threshold", func(c *WashoutConfig) { c.Simulation.Threshold = -0.1 }},
		{"unknown format", func(c *WashoutConfig) { c.Chart.Format = "dot" }},
		{"zero width", func(c *WashoutConfig) { c.Chart.Width = 0 }},
		{"unknown log level", func(c *WashoutConfig) { c.Logging.Level = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Default()
			tt.mutate(config)
			if err := config.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidate_ValidLogLevels(t *testing.T) {
	validLevels := []string{"", "info", "debug", "trace"}

	for _, level := range validLevels {
		t.Run(level, func(t *testing.T) {
			config := Default()
			config.Logging.Level = level
			if err := config.Validate(); err != nil {
				t.Errorf("expected log level '%s' to be valid, got error: %v", level, err)
			}
		})
	}
}

func TestGetSet(t *testing.T) {
	config := Default()

	if err := config.Set("simulation.seed", "42"); err != nil {
		t.Fatalf("Set seed: %v", err)
	}
	if v, ok := config.Get("simulation.seed"); !ok || v != uint64(42) {
		t.Errorf("Get seed = %v, %v", v, ok)
	}
	if err := config.Set("simulation.seed", "none"); err != nil {
		t.Fatalf("clear seed: %v", err)
	}
	if config.Simulation.Seed != nil {
		t.Error("expected seed cleared")
	}

	if err := config.Set("chart.legend", "false"); err != nil {
		t.Fatalf("Set legend: %v", err)
	}
	if config.Chart.Legend {
		t.Error("expected legend false")
	}

	// Invalid values leave the config unchanged.
	if err := config.Set("simulation.threshold", "2"); err == nil {
		t.Error("expected error for threshold 2")
	}
	if config.Simulation.Threshold != 0.9 {
		t.Errorf("threshold changed to %f", config.Simulation.Threshold)
	}
	if err := config.Set("simulation.trials", "lots"); err == nil {
		t.Error("expected error for non-integer trials")
	}
	if err := config.Set("no.such.key", "1"); err == nil {
		t.Error("expected error for unknown key")
	}
	if _, ok := config.Get("no.such.key"); ok {
		t.Error("expected unknown key to be missing")
	}
}

func TestKeys(t *testing.T) {
	config := Default()
	keys := Keys()
	if len(keys) != 10 {
		t.Errorf("expected 10 keys, got %d: %v", len(keys), keys)
	}
	for _, k := range keys {
		if _, ok := config.Get(k); !ok {
			t.Errorf("Get(%q) not found", k)
		}
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	config := Default()
	config.Simulation.Reps = 64
	config.Chart.Format = "svg"

	if err := config.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected mode 0600, got %v", info.Mode().Perm())
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if loaded.Simulation.Reps != 64 || loaded.Chart.Format != "svg" {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}

func TestLoadFromFile_NotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadFromFile_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	invalidYAML := `
simulation:
  reps: [invalid yaml
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := LoadFromFile(configPath)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}
