package credence

import "fmt"

// Update returns every agent's posterior after observing outcome.
//
// For agent j and hypothesis i the unnormalized posterior is
// priors[i][j] * likelihoods[i][outcome]; each column is then divided by
// its sum. Neither input is modified.
//
// Priors should give positive weight to at least one hypothesis with a
// non-zero likelihood for outcome. When an agent's column sums to zero the
// update is undefined and Update returns ErrNumericalDegeneracy with no
// result.
func Update(priors, likelihoods Matrix, outcome int) (Matrix, error) {
	if err := CheckShapes(priors, likelihoods, nil); err != nil {
		return nil, err
	}
	if outcome < 0 || outcome >= likelihoods.Cols() {
		return nil, fmt.Errorf("%w: outcome %d outside [0, %d)", ErrInvalidArgument, outcome, likelihoods.Cols())
	}
	if err := checkEntries("priors", priors); err != nil {
		return nil, err
	}
	if err := checkEntries("likelihoods", likelihoods); err != nil {
		return nil, err
	}

	n, k := priors.Rows(), priors.Cols()
	posterior := NewMatrix(n, k)
	sums := make([]float64, k)
	for i := 0; i < n; i++ {
		l := likelihoods[i][outcome]
		for j := 0; j < k; j++ {
			v := priors[i][j] * l
			posterior[i][j] = v
			sums[j] += v
		}
	}

	for j, s := range sums {
		if s == 0 {
			return nil, fmt.Errorf("%w: agent %d assigns zero probability to outcome %d", ErrNumericalDegeneracy, j, outcome)
		}
	}
	for i := 0; i < n; i++ {
		for j := 0; j < k; j++ {
			posterior[i][j] /= sums[j]
		}
	}
	return posterior, nil
}
