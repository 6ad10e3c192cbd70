// Package constants provides named constants used throughout the washout codebase.
// This centralizes magic numbers for better maintainability and documentation.
package constants

// Numerical tolerances
const (
	// Tolerance is the absolute slack allowed when checking that a probability
	// vector sums to 1. Priors columns outside this band are rejected.
	Tolerance = 1e-6

	// LikelihoodRowTolerance bounds how far a likelihood row may drift from 1
	// before the simulator warns about it. Rows are never renormalized.
	LikelihoodRowTolerance = 1e-6

	// TrueHypothesisMatchTolerance is used to find the likelihood row that
	// matches the true likelihoods when a scenario names no true hypothesis.
	TrueHypothesisMatchTolerance = 1e-9
)

// Simulation defaults
const (
	// DefaultReps is the number of update rounds when none is configured.
	DefaultReps = 50

	// DefaultTrials is the number of independent simulations in a trial run.
	DefaultTrials = 500

	// DefaultConvergenceThreshold is the credence in the true hypothesis above
	// which a trial counts as washed out.
	DefaultConvergenceThreshold = 0.9

	// DefaultConfidenceLevel is the bootstrap interval level for trial summaries.
	DefaultConfidenceLevel = 0.95
)

// Limits applied to requests arriving over the MCP and preview surfaces.
const (
	// MaxReps caps reps for a single simulation request.
	MaxReps = 100_000

	// MaxTrials caps the number of trials in a single request.
	MaxTrials = 10_000

	// MaxTrialWork caps trials × reps for a single trial request.
	MaxTrialWork = 5_000_000
)

// Chart defaults, in inches.
const (
	DefaultChartWidth  = 8.0
	DefaultChartHeight = 5.0
)
