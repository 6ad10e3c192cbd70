package main

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/nvandessel/washout/internal/credence"
	"github.com/nvandessel/washout/internal/simulation"
)

type runResult struct {
	Scenario   string                 `json:"scenario"`
	Seed       uint64                 `json:"seed"`
	Trajectory *simulation.Trajectory `json:"trajectory"`
}

func TestRunCmd_JSONUsesScenarioSeed(t *testing.T) {
	isolateHome(t, t.TempDir())

	out, err := execute(t, newRunCmd(), "run", "--json")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	var got runResult
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.Scenario != "coin-bias" || got.Seed != 7 {
		t.Errorf("scenario=%q seed=%d, want coin-bias/7", got.Scenario, got.Seed)
	}

	want, err := simulation.NewSeededSimulator(7).SimulateScenario(simulation.DefaultScenario())
	if err != nil {
		t.Fatalf("SimulateScenario: %v", err)
	}
	if got.Trajectory.Reps() != want.Reps() {
		t.Fatalf("reps = %d, want %d", got.Trajectory.Reps(), want.Reps())
	}
	if !credence.Equal(got.Trajectory.Final(), want.Final(), 1e-12) {
		t.Errorf("final = %v, want %v", got.Trajectory.Final(), want.Final())
	}
}

func TestRunCmd_Overrides(t *testing.T) {
	isolateHome(t, t.TempDir())

	out, err := execute(t, newRunCmd(), "run", "--format", "json", "--reps", "12", "--seed", "99")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	var got runResult
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.Seed != 99 || got.Trajectory.Reps() != 12 || got.Trajectory.Len() != 13 {
		t.Errorf("seed=%d reps=%d len=%d", got.Seed, got.Trajectory.Reps(), got.Trajectory.Len())
	}
}

func TestRunCmd_CSV(t *testing.T) {
	isolateHome(t, t.TempDir())

	out, err := execute(t, newRunCmd(), "run", "--format", "csv", "--reps", "5")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(records) != 7 {
		t.Fatalf("got %d records, want header + 6 steps", len(records))
	}
	if len(records[0]) != 2+3*4 {
		t.Errorf("header has %d columns, want 14", len(records[0]))
	}
	if records[0][2] != "bias 0.2/skeptic" {
		t.Errorf("first credence column = %q", records[0][2])
	}
	if records[1][1] != "" {
		t.Errorf("step 0 outcome = %q, want empty", records[1][1])
	}
}

func TestRunCmd_Table(t *testing.T) {
	isolateHome(t, t.TempDir())

	out, err := execute(t, newRunCmd(), "run")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	for _, want := range []string{"Scenario coin-bias: 50 draws (seed 7)", "Outcomes:", "Final credences:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunCmd_Errors(t *testing.T) {
	isolateHome(t, t.TempDir())

	tests := []struct {
		name string
		args []string
	}{
		{"bad format", []string{"run", "--format", "xml"}},
		{"negative reps", []string{"run", "--reps", "-1"}},
		{"missing scenario", []string{"run", "--scenario", "/nonexistent/scenario.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, newRunCmd(), tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}
