package main

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/washout/internal/config"
)

func TestConfigSetGet(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)

	if _, err := execute(t, newConfigCmd(), "config", "set", "chart.format", "svg"); err != nil {
		t.Fatalf("config set failed: %v", err)
	}

	path, err := config.DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	saved, err := config.LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if saved.Chart.Format != "svg" {
		t.Errorf("saved chart.format = %q, want svg", saved.Chart.Format)
	}

	out, err := execute(t, newConfigCmd(), "config", "get", "chart.format", "--json")
	if err != nil {
		t.Fatalf("config get failed: %v", err)
	}
	var got map[string]interface{}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got["value"] != "svg" {
		t.Errorf("value = %v, want svg", got["value"])
	}
}

func TestConfigSet_ExplicitPath(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)
	path := filepath.Join(tmpDir, "custom", "washout.yaml")

	// --config must name an existing file for loading, so seed it first.
	if err := config.Default().Save(path); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, newConfigCmd(), "config", "set", "simulation.seed", "42", "--config", path); err != nil {
		t.Fatalf("config set failed: %v", err)
	}

	saved, err := config.LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if saved.Simulation.Seed == nil || *saved.Simulation.Seed != 42 {
		t.Errorf("seed = %v, want 42", saved.Simulation.Seed)
	}
}

func TestConfigSet_Invalid(t *testing.T) {
	isolateHome(t, t.TempDir())

	tests := []struct {
		name string
		args []string
	}{
		{"unknown key", []string{"config", "set", "llm.provider", "openai"}},
		{"bad number", []string{"config", "set", "simulation.trials", "many"}},
		{"out of range", []string{"config", "set", "simulation.threshold", "2"}},
		{"bad format", []string{"config", "set", "chart.format", "gif"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, newConfigCmd(), tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestConfigList(t *testing.T) {
	isolateHome(t, t.TempDir())

	out, err := execute(t, newConfigCmd(), "config", "list")
	if err != nil {
		t.Fatalf("config list failed: %v", err)
	}
	for _, key := range config.Keys() {
		if !strings.Contains(out, key+":") {
			t.Errorf("list missing %s", key)
		}
	}
	if !strings.Contains(out, "(not set)") {
		t.Error("unset seed should print (not set)")
	}
}

func TestConfigGet_UnknownKey(t *testing.T) {
	isolateHome(t, t.TempDir())

	if _, err := execute(t, newConfigCmd(), "config", "get", "nope"); err == nil {
		t.Error("expected error for unknown key")
	}
}
