package simulation

import (
	"math"
	"testing"

	"github.com/nvandessel/washout/internal/credence"
)

// AssertColumnStochastic asserts that every snapshot in traj is a valid set
// of agent distributions within tol.
func AssertColumnStochastic(t *testing.T, traj *Trajectory, tol float64) {
	t.Helper()
	for step := 0; step < traj.Len(); step++ {
		snap := traj.Snapshot(step)
		if !snap.IsColumnStochastic(tol) {
			t.Errorf("AssertColumnStochastic: snapshot %d is not column-stochastic:\n%s", step, snap)
		}
	}
}

// AssertReplays asserts that each snapshot is the Bayesian update of the
// previous one given the recorded outcome.
func AssertReplays(t *testing.T, traj *Trajectory, likelihoods credence.Matrix, tol float64) {
	t.Helper()
	outcomes := traj.Outcomes()
	if len(outcomes) != traj.Len()-1 {
		t.Fatalf("AssertReplays: %d outcomes for %d snapshots", len(outcomes), traj.Len())
	}
	for step, outcome := range outcomes {
		want, err := credence.Update(traj.Snapshot(step), likelihoods, outcome)
		if err != nil {
			t.Errorf("AssertReplays: step %d: %v", step+1, err)
			continue
		}
		if got := traj.Snapshot(step + 1); !credence.Equal(got, want, tol) {
			t.Errorf("AssertReplays: step %d: got\n%s\nwant\n%s", step+1, got, want)
		}
	}
}

// AssertCredenceStaysZero asserts that an agent that starts with zero
// credence in a hypothesis never gains any.
func AssertCredenceStaysZero(t *testing.T, traj *Trajectory, hypothesis, agent int) {
	t.Helper()
	for step, v := range traj.Series(hypothesis, agent) {
		if v != 0 {
			t.Errorf("AssertCredenceStaysZero: step %d: agent %d has credence %g in hypothesis %d", step, agent, v, hypothesis)
			return
		}
	}
}

// AssertMeanAbove asserts that every agent's mean final credence in the
// true hypothesis exceeds min.
func AssertMeanAbove(t *testing.T, summary *TrialSummary, min float64) {
	t.Helper()
	for _, a := range summary.Agents {
		if math.IsNaN(a.Final.Mean) || a.Final.Mean <= min {
			t.Errorf("AssertMeanAbove: agent %d (%s): mean final credence %.4f <= %.4f", a.Index, a.Label, a.Final.Mean, min)
		}
	}
}
