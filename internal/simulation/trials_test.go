package simulation

import (
	"errors"
	"math"
	"testing"

	"github.com/nvandessel/washout/internal/constants"
	"github.com/nvandessel/washout/internal/credence"
)

func ptr[T any](v T) *T { return &v }

func informativeScenario() *Scenario {
	truth := 0
	seed := uint64(2024)
	return &Scenario{
		Name:            "informative",
		Priors:          [][]float64{{0.1, 0.5, 0.9}, {0.9, 0.5, 0.1}},
		Likelihoods:     [][]float64{{0.9, 0.1}, {0.1, 0.9}},
		TrueLikelihoods: []float64{0.9, 0.1},
		TrueHypothesis:  &truth,
		Reps:            200,
		Seed:            &seed,
	}
}

func TestRunTrials_Converges(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping convergence run in short mode")
	}
	summary, err := RunTrials(informativeScenario(), TrialConfig{Trials: ptr(500)})
	if err != nil {
		t.Fatalf("RunTrials: %v", err)
	}
	if summary.Trials != 500 || summary.Reps != 200 {
		t.Errorf("trials/reps = %d/%d, want 500/200", summary.Trials, summary.Reps)
	}
	AssertMeanAbove(t, summary, 0.9)
	for _, a := range summary.Agents {
		if a.WashedOut < 0.95 {
			t.Errorf("agent %d washed out in %.3f of trials, want >= 0.95", a.Index, a.WashedOut)
		}
		if a.Final.CI.Lower > a.Final.Mean || a.Final.CI.Upper < a.Final.Mean {
			t.Errorf("agent %d: mean %.4f outside CI [%.4f, %.4f]", a.Index, a.Final.Mean, a.Final.CI.Lower, a.Final.CI.Upper)
		}
	}
}

func TestRunTrials_MeanPathStartsAtPrior(t *testing.T) {
	sc := informativeScenario()
	summary, err := RunTrials(sc, TrialConfig{Trials: ptr(20), Reps: ptr(10)})
	if err != nil {
		t.Fatalf("RunTrials: %v", err)
	}
	if len(summary.MeanPath) != 3 {
		t.Fatalf("len(MeanPath) = %d, want 3", len(summary.MeanPath))
	}
	for j, path := range summary.MeanPath {
		if len(path) != 11 {
			t.Fatalf("agent %d: path length %d, want 11", j, len(path))
		}
		if math.Abs(path[0]-sc.Priors[0][j]) > 1e-12 {
			t.Errorf("agent %d: path starts at %g, want prior %g", j, path[0], sc.Priors[0][j])
		}
		if summary.Agents[j].Prior != sc.Priors[0][j] {
			t.Errorf("agent %d: Prior = %g, want %g", j, summary.Agents[j].Prior, sc.Priors[0][j])
		}
	}
}

func TestRunTrials_Reproducible(t *testing.T) {
	a, err := RunTrials(informativeScenario(), TrialConfig{Trials: ptr(30), Reps: ptr(15)})
	if err != nil {
		t.Fatalf("RunTrials: %v", err)
	}
	b, err := RunTrials(informativeScenario(), TrialConfig{Trials: ptr(30), Reps: ptr(15)})
	if err != nil {
		t.Fatalf("RunTrials: %v", err)
	}
	if a.Seed != b.Seed {
		t.Fatalf("seeds differ: %d vs %d", a.Seed, b.Seed)
	}
	for j := range a.Agents {
		if a.Agents[j].Final != b.Agents[j].Final {
			t.Errorf("agent %d: summaries differ: %+v vs %+v", j, a.Agents[j].Final, b.Agents[j].Final)
		}
	}
}

func TestRunTrials_SeedOverride(t *testing.T) {
	seed := uint64(5)
	summary, err := RunTrials(informativeScenario(), TrialConfig{Trials: ptr(2), Reps: ptr(2), Seed: &seed})
	if err != nil {
		t.Fatalf("RunTrials: %v", err)
	}
	if summary.Seed != 5 {
		t.Errorf("Seed = %d, want 5", summary.Seed)
	}
}

func TestRunTrials_InfersTrueHypothesis(t *testing.T) {
	sc := DefaultScenario()
	sc.TrueHypothesis = nil
	summary, err := RunTrials(sc, TrialConfig{Trials: ptr(5), Reps: ptr(5)})
	if err != nil {
		t.Fatalf("RunTrials: %v", err)
	}
	if summary.TrueHypothesis != 2 {
		t.Errorf("TrueHypothesis = %d, want 2", summary.TrueHypothesis)
	}
	if summary.Agents[1].Label != "agnostic" {
		t.Errorf("agent 1 label = %q, want agnostic", summary.Agents[1].Label)
	}
}

func TestRunTrials_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  TrialConfig
	}{
		{"negative trials", TrialConfig{Trials: ptr(-1)}},
		{"zero trials", TrialConfig{Trials: ptr(0)}},
		{"negative reps", TrialConfig{Trials: ptr(1), Reps: ptr(-2)}},
		{"threshold of one", TrialConfig{Trials: ptr(1), Threshold: ptr(1.0)}},
		{"negative threshold", TrialConfig{Trials: ptr(1), Threshold: ptr(-0.5)}},
		{"level above one", TrialConfig{Trials: ptr(1), Level: 1.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RunTrials(informativeScenario(), tt.cfg)
			if !errors.Is(err, credence.ErrInvalidArgument) {
				t.Errorf("err = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestRunTrials_ExplicitZeros(t *testing.T) {
	sc := informativeScenario()

	summary, err := RunTrials(sc, TrialConfig{Trials: ptr(4), Reps: ptr(0), Threshold: ptr(0.0)})
	if err != nil {
		t.Fatalf("RunTrials: %v", err)
	}
	if summary.Reps != 0 {
		t.Errorf("Reps = %d, want 0 (not the scenario's %d)", summary.Reps, sc.Reps)
	}
	if summary.Threshold != 0 {
		t.Errorf("Threshold = %g, want 0", summary.Threshold)
	}
	for j, a := range summary.Agents {
		if len(summary.MeanPath[j]) != 1 {
			t.Errorf("agent %d: MeanPath has %d points, want 1", j, len(summary.MeanPath[j]))
		}
		if math.Abs(a.Final.Mean-a.Prior) > 1e-12 {
			t.Errorf("agent %d: final mean %g moved from prior %g with no draws", j, a.Final.Mean, a.Prior)
		}
		// Every prior is above zero, so each trial clears a zero threshold.
		if a.WashedOut != 1 {
			t.Errorf("agent %d: WashedOut = %g, want 1", j, a.WashedOut)
		}
	}
}

func TestRunTrials_NilFieldsTakeDefaults(t *testing.T) {
	sc := informativeScenario()
	sc.Reps = 3

	summary, err := RunTrials(sc, TrialConfig{})
	if err != nil {
		t.Fatalf("RunTrials: %v", err)
	}
	if summary.Trials != constants.DefaultTrials || summary.Reps != 3 {
		t.Errorf("trials/reps = %d/%d, want %d/3", summary.Trials, summary.Reps, constants.DefaultTrials)
	}
	if summary.Threshold != constants.DefaultConvergenceThreshold {
		t.Errorf("Threshold = %g, want %g", summary.Threshold, constants.DefaultConvergenceThreshold)
	}
}
