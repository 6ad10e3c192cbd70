package simulation

import (
	"fmt"
	"math/rand/v2"

	"github.com/nvandessel/washout/internal/constants"
	"github.com/nvandessel/washout/internal/credence"
	"github.com/nvandessel/washout/internal/sampling"
	"github.com/nvandessel/washout/internal/statistics"
)

// TrialConfig controls a repeated-trials run. Nil fields take their
// defaults, so an explicit zero is honored.
type TrialConfig struct {
	Trials *int // number of independent simulations; nil = constants.DefaultTrials
	Reps   *int // draws per simulation; nil = the scenario's reps

	// Threshold is the final credence in the true hypothesis above which a
	// trial counts as washed out. Nil = constants.DefaultConvergenceThreshold.
	Threshold *float64

	// Level is the bootstrap confidence level. 0 = constants.DefaultConfidenceLevel.
	Level float64

	// Seed overrides the scenario seed when non-nil.
	Seed *uint64
}

// resolvedTrials is a TrialConfig with every default applied.
type resolvedTrials struct {
	trials    int
	reps      int
	threshold float64
	level     float64
	seed      *uint64
}

func (c TrialConfig) withDefaults(sc *Scenario) resolvedTrials {
	r := resolvedTrials{
		trials:    constants.DefaultTrials,
		reps:      sc.Reps,
		threshold: constants.DefaultConvergenceThreshold,
		level:     c.Level,
		seed:      c.Seed,
	}
	if c.Trials != nil {
		r.trials = *c.Trials
	}
	if c.Reps != nil {
		r.reps = *c.Reps
	}
	if c.Threshold != nil {
		r.threshold = *c.Threshold
	}
	if r.level == 0 {
		r.level = constants.DefaultConfidenceLevel
	}
	if r.seed == nil {
		r.seed = sc.Seed
	}
	return r
}

// AgentSummary describes one agent's final credence in the true hypothesis
// across trials.
type AgentSummary struct {
	Index int                `json:"index" yaml:"index"`
	Label string             `json:"label" yaml:"label"`
	Prior float64            `json:"prior" yaml:"prior"`
	Final statistics.Summary `json:"final" yaml:"final"`

	// WashedOut is the fraction of trials ending above the threshold.
	WashedOut float64 `json:"washed_out" yaml:"washed_out"`
}

// TrialSummary is the result of RunTrials.
type TrialSummary struct {
	Scenario       string         `json:"scenario" yaml:"scenario"`
	Trials         int            `json:"trials" yaml:"trials"`
	Reps           int            `json:"reps" yaml:"reps"`
	Seed           uint64         `json:"seed" yaml:"seed"`
	TrueHypothesis int            `json:"true_hypothesis" yaml:"true_hypothesis"`
	Threshold      float64        `json:"threshold" yaml:"threshold"`
	Agents         []AgentSummary `json:"agents" yaml:"agents"`

	// MeanPath[j][t] is agent j's credence in the true hypothesis after t
	// draws, averaged over trials.
	MeanPath [][]float64 `json:"mean_path" yaml:"-"`
}

// RunTrials repeats the scenario's experiment cfg.Trials times from a single
// seeded stream and summarizes how strongly each agent ends up believing
// the true hypothesis.
func RunTrials(sc *Scenario, cfg TrialConfig, opts ...Option) (*TrialSummary, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	rc := cfg.withDefaults(sc)
	if rc.trials < 1 {
		return nil, fmt.Errorf("%w: trials must be positive, got %d", credence.ErrInvalidArgument, rc.trials)
	}
	if rc.reps < 0 {
		return nil, fmt.Errorf("%w: reps must be non-negative, got %d", credence.ErrInvalidArgument, rc.reps)
	}
	if rc.threshold < 0 || rc.threshold >= 1 {
		return nil, fmt.Errorf("%w: threshold must be in [0, 1), got %g", credence.ErrInvalidArgument, rc.threshold)
	}
	if rc.level <= 0 || rc.level >= 1 {
		return nil, fmt.Errorf("%w: confidence level must be in (0, 1), got %g", credence.ErrInvalidArgument, rc.level)
	}
	truth, err := sc.TrueHypothesisIndex()
	if err != nil {
		return nil, err
	}

	seed := sampling.RandomSeed()
	if rc.seed != nil {
		seed = *rc.seed
	}

	opts = append([]Option{WithRunName(sc.Name)}, opts...)
	sim := NewSeededSimulator(seed, opts...)

	priors, likelihoods, err := sc.Matrices()
	if err != nil {
		return nil, err
	}
	if err := sim.validate(priors, likelihoods, sc.TrueLikelihoods, rc.reps); err != nil {
		return nil, err
	}

	k := priors.Cols()
	finals := make([][]float64, k)
	meanPath := make([][]float64, k)
	for j := range meanPath {
		finals[j] = make([]float64, 0, rc.trials)
		meanPath[j] = make([]float64, rc.reps+1)
	}

	for trial := 0; trial < rc.trials; trial++ {
		traj, err := sim.simulate(priors, likelihoods, sc.TrueLikelihoods, rc.reps, trial)
		if err != nil {
			return nil, fmt.Errorf("trial %d: %w", trial, err)
		}
		for j := 0; j < k; j++ {
			finals[j] = append(finals[j], traj.Credence(rc.reps, truth, j))
			for t := 0; t <= rc.reps; t++ {
				meanPath[j][t] += traj.Credence(t, truth, j)
			}
		}
	}
	for j := range meanPath {
		for t := range meanPath[j] {
			meanPath[j][t] /= float64(rc.trials)
		}
	}

	// Resampling draws from its own stream so that the bootstrap does not
	// shift the outcomes of later trials.
	bootRNG := rand.New(sampling.NewSource(seed + 1))
	agents := make([]AgentSummary, k)
	for j := 0; j < k; j++ {
		agents[j] = AgentSummary{
			Index:     j,
			Label:     sc.AgentLabel(j),
			Prior:     priors[truth][j],
			Final:     statistics.Summarize(finals[j], rc.level, bootRNG),
			WashedOut: statistics.FractionAbove(finals[j], rc.threshold),
		}
	}

	return &TrialSummary{
		Scenario:       sc.Name,
		Trials:         rc.trials,
		Reps:           rc.reps,
		Seed:           seed,
		TrueHypothesis: truth,
		Threshold:      rc.threshold,
		Agents:         agents,
		MeanPath:       meanPath,
	}, nil
}
