package sampling

import (
	"math"
	"testing"

	"github.com/nvandessel/washout/internal/credence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampler_FrequenciesMatchWeights(t *testing.T) {
	tests := []struct {
		name    string
		weights []float64
	}{
		{"normalized", []float64{0.2, 0.3, 0.5}},
		{"relative", []float64{1, 1, 2}},
		{"skewed", []float64{0.95, 0.05}},
	}

	const draws = 100_000
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSeeded(42)
			counts := make([]int, len(tt.weights))
			for i := 0; i < draws; i++ {
				o, err := s.Sample(tt.weights)
				require.NoError(t, err)
				counts[o]++
			}

			var total float64
			for _, w := range tt.weights {
				total += w
			}
			for i, w := range tt.weights {
				got := float64(counts[i]) / draws
				assert.InDelta(t, w/total, got, 0.01, "outcome %d", i)
			}
		})
	}
}

func TestSampler_ExtremeMagnitudes(t *testing.T) {
	tests := []struct {
		name    string
		weights []float64
		want    []float64
	}{
		{"total overflows", []float64{1e308, 1e308}, []float64{0.5, 0.5}},
		{"uneven near max", []float64{math.MaxFloat64, math.MaxFloat64 / 3}, []float64{0.75, 0.25}},
		{"subnormal", []float64{5e-324, 5e-324}, []float64{0.5, 0.5}},
	}

	const draws = 20_000
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCategorical(tt.weights)
			require.NoError(t, err)
			for i, p := range c.Probabilities() {
				assert.InDelta(t, tt.want[i], p, 1e-9, "probability %d", i)
			}

			s := NewSeeded(3)
			counts := make([]int, len(tt.weights))
			for i := 0; i < draws; i++ {
				o, err := s.Sample(tt.weights)
				require.NoError(t, err)
				counts[o]++
			}
			for i, p := range tt.want {
				assert.InDelta(t, p, float64(counts[i])/draws, 0.02, "outcome %d", i)
			}
		})
	}
}

func TestSampler_ZeroWeightNeverDrawn(t *testing.T) {
	s := NewSeeded(7)
	weights := []float64{0, 0.5, 0, 0.5, 0}
	for i := 0; i < 10_000; i++ {
		o, err := s.Sample(weights)
		require.NoError(t, err)
		assert.Contains(t, []int{1, 3}, o)
	}
}

func TestSampler_SingleCategory(t *testing.T) {
	s := NewSeeded(1)
	for i := 0; i < 100; i++ {
		o, err := s.Sample([]float64{3})
		require.NoError(t, err)
		assert.Equal(t, 0, o)
	}
}

func TestSampler_SameSeedSameStream(t *testing.T) {
	a := NewSeeded(2021)
	b := NewSeeded(2021)
	weights := []float64{0.1, 0.2, 0.3, 0.4}
	for i := 0; i < 1_000; i++ {
		oa, err := a.Sample(weights)
		require.NoError(t, err)
		ob, err := b.Sample(weights)
		require.NoError(t, err)
		require.Equal(t, oa, ob, "draw %d", i)
	}
}

func TestSampler_InvalidWeights(t *testing.T) {
	s := NewSeeded(0)
	for _, w := range [][]float64{nil, {0, 0}, {-1, 2}} {
		_, err := s.Sample(w)
		assert.ErrorIs(t, err, credence.ErrInvalidArgument, "weights %v", w)
	}
}

func TestNew_NilSourceIsUsable(t *testing.T) {
	s := New(nil)
	o, err := s.Sample([]float64{1, 1})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, o, 0)
	assert.Less(t, o, 2)
}

func TestCategorical_Probabilities(t *testing.T) {
	c, err := NewCategorical([]float64{2, 0, 6})
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())

	p := c.Probabilities()
	assert.InDelta(t, 0.25, p[0], 1e-12)
	assert.InDelta(t, 0.0, p[1], 1e-12)
	assert.InDelta(t, 0.75, p[2], 1e-12)
}
