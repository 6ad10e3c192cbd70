package credence

import (
	"fmt"
	"math"
)

// checkEntries rejects negative, NaN and infinite entries.
func checkEntries(name string, m Matrix) error {
	for i := range m {
		for j, v := range m[i] {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: %s[%d][%d] is not finite", ErrInvalidArgument, name, i, j)
			}
			if v < 0 {
				return fmt.Errorf("%w: %s[%d][%d] = %g is negative", ErrInvalidArgument, name, i, j, v)
			}
		}
	}
	return nil
}

// checkRectangular rejects empty and ragged matrices.
func checkRectangular(name string, m Matrix) error {
	if m.Rows() == 0 || m.Cols() == 0 {
		return fmt.Errorf("%w: %s is empty", ErrInvalidArgument, name)
	}
	cols := m.Cols()
	for i := range m {
		if len(m[i]) != cols {
			return fmt.Errorf("%w: %s row %d has %d entries, want %d", ErrInvalidArgument, name, i, len(m[i]), cols)
		}
	}
	return nil
}

// CheckShapes verifies that priors (n×k), likelihoods (n×m) and, when
// non-nil, trueLikelihoods (length m) agree on their shared dimensions.
func CheckShapes(priors, likelihoods Matrix, trueLikelihoods []float64) error {
	if err := checkRectangular("priors", priors); err != nil {
		return err
	}
	if err := checkRectangular("likelihoods", likelihoods); err != nil {
		return err
	}
	if priors.Rows() != likelihoods.Rows() {
		return fmt.Errorf("%w: priors have %d hypotheses, likelihoods have %d",
			ErrInvalidArgument, priors.Rows(), likelihoods.Rows())
	}
	if trueLikelihoods != nil && len(trueLikelihoods) != likelihoods.Cols() {
		return fmt.Errorf("%w: likelihoods have %d outcomes, true likelihoods have %d",
			ErrInvalidArgument, likelihoods.Cols(), len(trueLikelihoods))
	}
	return nil
}

// ValidatePriors checks that priors is non-negative and column-stochastic
// within tol.
func ValidatePriors(priors Matrix, tol float64) error {
	if err := checkRectangular("priors", priors); err != nil {
		return err
	}
	if err := checkEntries("priors", priors); err != nil {
		return err
	}
	for j, s := range priors.ColumnSums() {
		if math.Abs(s-1) > tol {
			return fmt.Errorf("%w: priors for agent %d sum to %g, want 1", ErrInvalidArgument, j, s)
		}
	}
	return nil
}

// ValidateLikelihoods checks that every likelihood row is non-negative with
// a positive total. It returns the indices of rows whose total differs
// from 1 by more than tol; those rows are still usable as relative
// likelihoods and are left as given.
func ValidateLikelihoods(likelihoods Matrix, tol float64) (unnormalized []int, err error) {
	if err := checkRectangular("likelihoods", likelihoods); err != nil {
		return nil, err
	}
	if err := checkEntries("likelihoods", likelihoods); err != nil {
		return nil, err
	}
	for i, row := range likelihoods {
		var total float64
		for _, v := range row {
			total += v
		}
		if total <= 0 {
			return nil, fmt.Errorf("%w: likelihoods for hypothesis %d have no positive mass", ErrInvalidArgument, i)
		}
		if math.Abs(total-1) > tol {
			unnormalized = append(unnormalized, i)
		}
	}
	return unnormalized, nil
}

// ValidateWeights checks that w is a non-empty vector of finite,
// non-negative weights with a positive total.
func ValidateWeights(name string, w []float64) error {
	if len(w) == 0 {
		return fmt.Errorf("%w: %s is empty", ErrInvalidArgument, name)
	}
	var total float64
	for i, v := range w {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s[%d] is not finite", ErrInvalidArgument, name, i)
		}
		if v < 0 {
			return fmt.Errorf("%w: %s[%d] = %g is negative", ErrInvalidArgument, name, i, v)
		}
		total += v
	}
	if total <= 0 {
		return fmt.Errorf("%w: %s has no positive mass", ErrInvalidArgument, name)
	}
	return nil
}
