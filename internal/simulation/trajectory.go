package simulation

import (
	"encoding/json"
	"fmt"

	"github.com/nvandessel/washout/internal/credence"
)

// Trajectory is the chronological record of one simulation: the initial
// priors followed by the posterior after each draw, and the outcomes drawn.
// A Trajectory is never modified after it is returned; accessors hand out
// copies.
type Trajectory struct {
	snapshots []credence.Matrix
	outcomes  []int
}

// NewTrajectory builds a Trajectory from recorded data. There must be one
// more snapshot than outcomes, and every snapshot must share a shape.
func NewTrajectory(snapshots []credence.Matrix, outcomes []int) (*Trajectory, error) {
	if len(snapshots) == 0 {
		return nil, fmt.Errorf("%w: trajectory needs at least one snapshot", credence.ErrInvalidArgument)
	}
	if len(snapshots) != len(outcomes)+1 {
		return nil, fmt.Errorf("%w: %d snapshots for %d outcomes", credence.ErrInvalidArgument, len(snapshots), len(outcomes))
	}
	n, k := snapshots[0].Rows(), snapshots[0].Cols()
	copied := make([]credence.Matrix, len(snapshots))
	for t, snap := range snapshots {
		if snap.Rows() != n || snap.Cols() != k {
			return nil, fmt.Errorf("%w: snapshot %d is %dx%d, want %dx%d",
				credence.ErrInvalidArgument, t, snap.Rows(), snap.Cols(), n, k)
		}
		copied[t] = snap.Clone()
	}
	return &Trajectory{snapshots: copied, outcomes: append([]int(nil), outcomes...)}, nil
}

// Len returns the number of snapshots (reps + 1).
func (tr *Trajectory) Len() int { return len(tr.snapshots) }

// Reps returns the number of draws.
func (tr *Trajectory) Reps() int { return len(tr.outcomes) }

// Hypotheses returns the number of hypotheses.
func (tr *Trajectory) Hypotheses() int { return tr.snapshots[0].Rows() }

// Agents returns the number of agents.
func (tr *Trajectory) Agents() int { return tr.snapshots[0].Cols() }

// Snapshot returns a copy of the belief state after t draws.
func (tr *Trajectory) Snapshot(t int) credence.Matrix { return tr.snapshots[t].Clone() }

// Initial returns a copy of the starting priors.
func (tr *Trajectory) Initial() credence.Matrix { return tr.Snapshot(0) }

// Final returns a copy of the last belief state.
func (tr *Trajectory) Final() credence.Matrix { return tr.Snapshot(len(tr.snapshots) - 1) }

// Outcomes returns a copy of the drawn outcome indices, in draw order.
func (tr *Trajectory) Outcomes() []int { return append([]int(nil), tr.outcomes...) }

// Credence returns agent's credence in hypothesis after t draws.
func (tr *Trajectory) Credence(t, hypothesis, agent int) float64 {
	return tr.snapshots[t][hypothesis][agent]
}

// Series returns agent's credence in hypothesis at every step.
func (tr *Trajectory) Series(hypothesis, agent int) []float64 {
	out := make([]float64, len(tr.snapshots))
	for t, snap := range tr.snapshots {
		out[t] = snap[hypothesis][agent]
	}
	return out
}

type trajectoryJSON struct {
	Reps      int           `json:"reps"`
	Outcomes  []int         `json:"outcomes"`
	Snapshots [][][]float64 `json:"snapshots"`
}

// MarshalJSON encodes the trajectory as {reps, outcomes, snapshots}, with
// snapshots indexed [step][hypothesis][agent].
func (tr *Trajectory) MarshalJSON() ([]byte, error) {
	snaps := make([][][]float64, len(tr.snapshots))
	for t, s := range tr.snapshots {
		snaps[t] = s
	}
	outcomes := tr.outcomes
	if outcomes == nil {
		outcomes = []int{}
	}
	return json.Marshal(trajectoryJSON{Reps: tr.Reps(), Outcomes: outcomes, Snapshots: snaps})
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (tr *Trajectory) UnmarshalJSON(data []byte) error {
	var raw trajectoryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	snaps := make([]credence.Matrix, len(raw.Snapshots))
	for t, s := range raw.Snapshots {
		m, err := credence.FromRows(s)
		if err != nil {
			return fmt.Errorf("snapshot %d: %w", t, err)
		}
		snaps[t] = m
	}
	decoded, err := NewTrajectory(snaps, raw.Outcomes)
	if err != nil {
		return err
	}
	*tr = *decoded
	return nil
}
