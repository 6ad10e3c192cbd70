package credence

import "errors"

var (
	// ErrInvalidArgument reports malformed input: mismatched dimensions,
	// negative or non-finite probabilities, out-of-range indices.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNumericalDegeneracy reports an update whose normalizing constant is
	// zero for some agent. The prior gave no weight to any hypothesis that
	// could have produced the observed outcome.
	ErrNumericalDegeneracy = errors.New("numerical degeneracy")
)
