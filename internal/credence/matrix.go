// Package credence implements discrete Bayesian updating of several agents'
// credences over a shared, finite hypothesis space.
//
// Beliefs are held in a Matrix whose rows are hypotheses and whose columns
// are agents, so column j is agent j's probability distribution. Likelihoods
// use the same row convention: row i is P(outcome | hypothesis i).
package credence

import (
	"fmt"
	"math"
	"strings"
)

// Matrix is a dense row-major matrix of float64 values. Rows are indexed by
// hypothesis; columns by agent (priors) or outcome (likelihoods).
type Matrix [][]float64

// NewMatrix returns a rows×cols matrix of zeros.
func NewMatrix(rows, cols int) Matrix {
	m := make(Matrix, rows)
	backing := make([]float64, rows*cols)
	for i := range m {
		m[i] = backing[i*cols : (i+1)*cols : (i+1)*cols]
	}
	return m
}

// FromRows copies rows into a new Matrix. All rows must have the same length.
func FromRows(rows [][]float64) (Matrix, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: matrix has no rows", ErrInvalidArgument)
	}
	cols := len(rows[0])
	if cols == 0 {
		return nil, fmt.Errorf("%w: matrix has no columns", ErrInvalidArgument)
	}
	m := NewMatrix(len(rows), cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d entries, want %d", ErrInvalidArgument, i, len(row), cols)
		}
		copy(m[i], row)
	}
	return m, nil
}

// Rows returns the number of rows.
func (m Matrix) Rows() int { return len(m) }

// Cols returns the number of columns, or 0 for an empty matrix.
func (m Matrix) Cols() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// At returns the entry at row i, column j.
func (m Matrix) At(i, j int) float64 { return m[i][j] }

// Row returns a copy of row i.
func (m Matrix) Row(i int) []float64 {
	out := make([]float64, m.Cols())
	copy(out, m[i])
	return out
}

// Column returns a copy of column j.
func (m Matrix) Column(j int) []float64 {
	out := make([]float64, len(m))
	for i := range m {
		out[i] = m[i][j]
	}
	return out
}

// Clone returns a deep copy of m.
func (m Matrix) Clone() Matrix {
	out := NewMatrix(m.Rows(), m.Cols())
	for i := range m {
		copy(out[i], m[i])
	}
	return out
}

// ColumnSums returns the sum of each column.
func (m Matrix) ColumnSums() []float64 {
	sums := make([]float64, m.Cols())
	for i := range m {
		for j, v := range m[i] {
			sums[j] += v
		}
	}
	return sums
}

// IsColumnStochastic reports whether every entry is non-negative and every
// column sums to 1 within tol.
func (m Matrix) IsColumnStochastic(tol float64) bool {
	if m.Rows() == 0 || m.Cols() == 0 {
		return false
	}
	for i := range m {
		for _, v := range m[i] {
			if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	for _, s := range m.ColumnSums() {
		if math.Abs(s-1) > tol {
			return false
		}
	}
	return true
}

// Equal reports whether a and b have the same shape and every pair of
// entries differs by at most tol.
func Equal(a, b Matrix, tol float64) bool {
	if a.Rows() != b.Rows() || a.Cols() != b.Cols() {
		return false
	}
	for i := range a {
		for j := range a[i] {
			if math.Abs(a[i][j]-b[i][j]) > tol {
				return false
			}
		}
	}
	return true
}

// String renders the matrix one row per line, for debug output.
func (m Matrix) String() string {
	var b strings.Builder
	for i, row := range m {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j, v := range row {
			if j > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%.4f", v)
		}
	}
	return b.String()
}
