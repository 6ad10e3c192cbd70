package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/nvandessel/washout/internal/constants"
	"github.com/nvandessel/washout/internal/credence"
	"github.com/nvandessel/washout/internal/logging"
	"github.com/nvandessel/washout/internal/sampling"
)

// Simulator draws outcomes and updates beliefs. It owns its random stream
// and is not safe for concurrent use.
type Simulator struct {
	sampler *sampling.Sampler
	logger  *slog.Logger
	steps   *logging.StepLogger
	run     string
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithLogger sets the operational logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStepLogger records every draw to a JSONL step trace.
func WithStepLogger(sl *logging.StepLogger) Option {
	return func(s *Simulator) { s.steps = sl }
}

// WithRunName tags log lines and step events with name.
func WithRunName(name string) Option {
	return func(s *Simulator) { s.run = name }
}

// NewSimulator creates a Simulator reading randomness from src. A nil src
// is seeded from the runtime.
func NewSimulator(src rand.Source, opts ...Option) *Simulator {
	s := &Simulator{
		sampler: sampling.New(src),
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewSeededSimulator creates a Simulator whose draws are reproducible.
func NewSeededSimulator(seed uint64, opts ...Option) *Simulator {
	return NewSimulator(sampling.NewSource(seed), opts...)
}

// RandomUpdate draws one outcome from trueLikelihoods and returns every
// agent's posterior given that outcome, along with the outcome drawn.
func (s *Simulator) RandomUpdate(priors, likelihoods credence.Matrix, trueLikelihoods []float64) (credence.Matrix, int, error) {
	if err := credence.CheckShapes(priors, likelihoods, trueLikelihoods); err != nil {
		return nil, 0, err
	}
	outcome, err := s.sampler.Sample(trueLikelihoods)
	if err != nil {
		return nil, 0, fmt.Errorf("sample outcome: %w", err)
	}
	posterior, err := credence.Update(priors, likelihoods, outcome)
	if err != nil {
		return nil, 0, err
	}
	return posterior, outcome, nil
}

// Simulate runs reps rounds of draw-and-update starting from priors and
// returns the reps+1 snapshots in order. With reps == 0 the trajectory
// holds only the initial priors.
//
// All inputs are validated before the first draw. An update that hits a
// zero normalizing constant aborts the run with credence.ErrNumericalDegeneracy
// and no trajectory.
func (s *Simulator) Simulate(priors, likelihoods credence.Matrix, trueLikelihoods []float64, reps int) (*Trajectory, error) {
	if err := s.validate(priors, likelihoods, trueLikelihoods, reps); err != nil {
		return nil, err
	}
	return s.simulate(priors, likelihoods, trueLikelihoods, reps, 0)
}

// SimulateScenario runs sc with its own reps.
func (s *Simulator) SimulateScenario(sc *Scenario) (*Trajectory, error) {
	priors, likelihoods, err := sc.Matrices()
	if err != nil {
		return nil, err
	}
	return s.Simulate(priors, likelihoods, sc.TrueLikelihoods, sc.Reps)
}

func (s *Simulator) validate(priors, likelihoods credence.Matrix, trueLikelihoods []float64, reps int) error {
	if reps < 0 {
		return fmt.Errorf("%w: reps must be non-negative, got %d", credence.ErrInvalidArgument, reps)
	}
	if err := credence.CheckShapes(priors, likelihoods, trueLikelihoods); err != nil {
		return err
	}
	if err := credence.ValidatePriors(priors, constants.Tolerance); err != nil {
		return err
	}
	unnormalized, err := credence.ValidateLikelihoods(likelihoods, constants.LikelihoodRowTolerance)
	if err != nil {
		return err
	}
	for _, row := range unnormalized {
		s.logger.Warn("likelihood row does not sum to 1; using it as relative likelihoods",
			"run", s.run, "hypothesis", row)
	}
	return credence.ValidateWeights("true likelihoods", trueLikelihoods)
}

// simulate assumes validated inputs. trial only labels step events.
func (s *Simulator) simulate(priors, likelihoods credence.Matrix, trueLikelihoods []float64, reps, trial int) (*Trajectory, error) {
	dist, err := sampling.NewCategorical(trueLikelihoods)
	if err != nil {
		return nil, err
	}

	snapshots := make([]credence.Matrix, 1, reps+1)
	snapshots[0] = priors.Clone()
	outcomes := make([]int, 0, reps)

	current := snapshots[0]
	rng := s.sampler.Rand()
	for step := 1; step <= reps; step++ {
		outcome := dist.Draw(rng)
		next, err := credence.Update(current, likelihoods, outcome)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", step, err)
		}
		snapshots = append(snapshots, next)
		outcomes = append(outcomes, outcome)
		current = next

		s.steps.Log(logging.StepEvent{
			Run:        s.run,
			Trial:      trial,
			Step:       step,
			Outcome:    outcome,
			Posteriors: next,
		})
		s.logger.Log(context.Background(), logging.LevelTrace, "update", "run", s.run, "trial", trial, "step", step, "outcome", outcome)
	}

	s.logger.Debug("simulation finished", "run", s.run, "trial", trial, "reps", reps,
		"hypotheses", priors.Rows(), "agents", priors.Cols())

	return &Trajectory{snapshots: snapshots, outcomes: outcomes}, nil
}
