package simulation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/nvandessel/washout/internal/constants"
	"github.com/nvandessel/washout/internal/credence"
	"gopkg.in/yaml.v3"
)

// Scenario defines a complete washing-out experiment.
type Scenario struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Optional labels. When present their lengths must match the matrices.
	Hypotheses []string `json:"hypotheses,omitempty" yaml:"hypotheses,omitempty"`
	Agents     []string `json:"agents,omitempty" yaml:"agents,omitempty"`
	Outcomes   []string `json:"outcomes,omitempty" yaml:"outcomes,omitempty"`

	// Priors is n×k: row i is hypothesis i, column j is agent j.
	Priors [][]float64 `json:"priors" yaml:"priors,flow"`

	// Likelihoods is n×m: row i is P(outcome | hypothesis i).
	Likelihoods [][]float64 `json:"likelihoods" yaml:"likelihoods,flow"`

	// TrueLikelihoods are the weights outcomes are actually drawn with.
	TrueLikelihoods []float64 `json:"true_likelihoods" yaml:"true_likelihoods,flow"`

	// TrueHypothesis names the hypothesis whose likelihood row generates the
	// data. When nil it is inferred from TrueLikelihoods.
	TrueHypothesis *int `json:"true_hypothesis,omitempty" yaml:"true_hypothesis,omitempty"`

	Reps int `json:"reps" yaml:"reps"`

	// Seed makes runs reproducible. Nil means a fresh seed per run.
	Seed *uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`

	Chart *ChartSpec `json:"chart,omitempty" yaml:"chart,omitempty"`
}

// ChartSpec carries the plotting preferences stored with a scenario.
type ChartSpec struct {
	Title      string   `json:"title,omitempty" yaml:"title,omitempty"`
	Hypotheses []int    `json:"hypotheses,omitempty" yaml:"hypotheses,omitempty,flow"`
	Agents     []int    `json:"agents,omitempty" yaml:"agents,omitempty,flow"`
	Markers    []string `json:"markers,omitempty" yaml:"markers,omitempty,flow"`
	Colors     []string `json:"colors,omitempty" yaml:"colors,omitempty,flow"`
}

// DefaultScenario returns a coin-bias experiment: three hypotheses about a
// coin's chance of heads, four agents with very different priors, and a
// coin that actually lands heads 80% of the time.
func DefaultScenario() *Scenario {
	trueHyp := 2
	seed := uint64(7)
	return &Scenario{
		Name:        "coin-bias",
		Description: "Four agents learn the bias of a coin from repeated flips.",
		Hypotheses:  []string{"bias 0.2", "bias 0.5", "bias 0.8"},
		Agents:      []string{"skeptic", "agnostic", "believer", "contrarian"},
		Outcomes:    []string{"heads", "tails"},
		Priors: [][]float64{
			{0.6, 0.34, 0.1, 0.8},
			{0.3, 0.33, 0.2, 0.15},
			{0.1, 0.33, 0.7, 0.05},
		},
		Likelihoods: [][]float64{
			{0.2, 0.8},
			{0.5, 0.5},
			{0.8, 0.2},
		},
		TrueLikelihoods: []float64{0.8, 0.2},
		TrueHypothesis:  &trueHyp,
		Reps:            constants.DefaultReps,
		Seed:            &seed,
	}
}

// LoadScenario reads and validates a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file: %w", err)
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return sc, nil
}

// ParseScenario decodes and validates a YAML scenario. Unknown keys are
// rejected so that typos do not silently fall back to defaults.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: scenario is empty", credence.ErrInvalidArgument)
		}
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Encode writes sc as YAML in the format ParseScenario reads.
func (sc *Scenario) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(sc); err != nil {
		return fmt.Errorf("encoding scenario: %w", err)
	}
	return enc.Close()
}

// Matrices returns the priors and likelihoods as credence matrices.
func (sc *Scenario) Matrices() (priors, likelihoods credence.Matrix, err error) {
	priors, err = credence.FromRows(sc.Priors)
	if err != nil {
		return nil, nil, fmt.Errorf("priors: %w", err)
	}
	likelihoods, err = credence.FromRows(sc.Likelihoods)
	if err != nil {
		return nil, nil, fmt.Errorf("likelihoods: %w", err)
	}
	return priors, likelihoods, nil
}

// Validate checks shapes, labels, probabilities and indices.
func (sc *Scenario) Validate() error {
	priors, likelihoods, err := sc.Matrices()
	if err != nil {
		return err
	}
	if err := credence.CheckShapes(priors, likelihoods, sc.TrueLikelihoods); err != nil {
		return err
	}
	if err := credence.ValidatePriors(priors, constants.Tolerance); err != nil {
		return err
	}
	if _, err := credence.ValidateLikelihoods(likelihoods, constants.LikelihoodRowTolerance); err != nil {
		return err
	}
	if err := credence.ValidateWeights("true likelihoods", sc.TrueLikelihoods); err != nil {
		return err
	}
	if sc.Reps < 0 {
		return fmt.Errorf("%w: reps must be non-negative, got %d", credence.ErrInvalidArgument, sc.Reps)
	}

	labels := []struct {
		name   string
		labels []string
		want   int
	}{
		{"hypotheses", sc.Hypotheses, priors.Rows()},
		{"agents", sc.Agents, priors.Cols()},
		{"outcomes", sc.Outcomes, likelihoods.Cols()},
	}
	for _, l := range labels {
		if len(l.labels) != 0 && len(l.labels) != l.want {
			return fmt.Errorf("%w: %d %s labels for %d %s", credence.ErrInvalidArgument, len(l.labels), l.name, l.want, l.name)
		}
	}

	if sc.TrueHypothesis != nil {
		if h := *sc.TrueHypothesis; h < 0 || h >= priors.Rows() {
			return fmt.Errorf("%w: true_hypothesis %d outside [0, %d)", credence.ErrInvalidArgument, h, priors.Rows())
		}
	}
	return nil
}

// NumHypotheses returns n.
func (sc *Scenario) NumHypotheses() int { return len(sc.Priors) }

// NumAgents returns k.
func (sc *Scenario) NumAgents() int {
	if len(sc.Priors) == 0 {
		return 0
	}
	return len(sc.Priors[0])
}

// HypothesisLabel returns the label of hypothesis i, or "H<i>".
func (sc *Scenario) HypothesisLabel(i int) string {
	if i >= 0 && i < len(sc.Hypotheses) {
		return sc.Hypotheses[i]
	}
	return fmt.Sprintf("H%d", i)
}

// AgentLabel returns the label of agent j, or "agent <j>".
func (sc *Scenario) AgentLabel(j int) string {
	if j >= 0 && j < len(sc.Agents) {
		return sc.Agents[j]
	}
	return fmt.Sprintf("agent %d", j)
}

// OutcomeLabel returns the label of outcome o, or "o<o>".
func (sc *Scenario) OutcomeLabel(o int) string {
	if o >= 0 && o < len(sc.Outcomes) {
		return sc.Outcomes[o]
	}
	return fmt.Sprintf("o%d", o)
}

// TrueHypothesisIndex returns the explicit true hypothesis, or the unique
// likelihood row matching the (normalized) true likelihoods.
func (sc *Scenario) TrueHypothesisIndex() (int, error) {
	if sc.TrueHypothesis != nil {
		return *sc.TrueHypothesis, nil
	}

	var total float64
	for _, w := range sc.TrueLikelihoods {
		total += w
	}
	match := -1
	for i, row := range sc.Likelihoods {
		if len(row) != len(sc.TrueLikelihoods) || total <= 0 {
			continue
		}
		same := true
		for o, l := range row {
			if math.Abs(l-sc.TrueLikelihoods[o]/total) > constants.TrueHypothesisMatchTolerance {
				same = false
				break
			}
		}
		if same {
			if match >= 0 {
				return 0, fmt.Errorf("%w: hypotheses %d and %d both match the true likelihoods; set true_hypothesis",
					credence.ErrInvalidArgument, match, i)
			}
			match = i
		}
	}
	if match < 0 {
		return 0, fmt.Errorf("%w: no hypothesis matches the true likelihoods; set true_hypothesis", credence.ErrInvalidArgument)
	}
	return match, nil
}
