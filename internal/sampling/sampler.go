// Package sampling draws outcome indices from categorical distributions
// using an injected, seedable random source.
package sampling

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/nvandessel/washout/internal/credence"
	"gonum.org/v1/gonum/floats"
)

// seedMix is xored into the seed to form the second PCG word.
const seedMix = 0x9e3779b97f4a7c15

// NewSource returns a PCG source seeded from seed. Equal seeds give equal
// streams.
func NewSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed^seedMix)
}

// RandomSeed returns a seed drawn from the runtime's global generator.
func RandomSeed() uint64 {
	return rand.Uint64()
}

// Sampler draws outcome indices with probability proportional to weights.
// It is not safe for concurrent use.
type Sampler struct {
	rng *rand.Rand
}

// New creates a Sampler reading from src. A nil src uses a randomly
// seeded PCG source.
func New(src rand.Source) *Sampler {
	if src == nil {
		src = NewSource(RandomSeed())
	}
	return &Sampler{rng: rand.New(src)}
}

// NewSeeded creates a Sampler with a reproducible stream for seed.
func NewSeeded(seed uint64) *Sampler {
	return New(NewSource(seed))
}

// Rand exposes the underlying generator so that callers sharing a stream
// with the sampler draw from the same sequence.
func (s *Sampler) Rand() *rand.Rand {
	return s.rng
}

// Sample draws one index from weights. Weights need not be normalized but
// must be finite, non-negative and have a positive total.
func (s *Sampler) Sample(weights []float64) (int, error) {
	c, err := NewCategorical(weights)
	if err != nil {
		return 0, err
	}
	return c.Draw(s.rng), nil
}

// Categorical is a prepared distribution over 0..len(weights)-1 for
// repeated draws. The cumulative weights are computed once.
type Categorical struct {
	cumulative []float64
	total      float64
}

// NewCategorical validates weights and prepares their cumulative sums.
func NewCategorical(weights []float64) (*Categorical, error) {
	if err := credence.ValidateWeights("weights", weights); err != nil {
		return nil, fmt.Errorf("categorical: %w", err)
	}
	// Scale by the largest weight so the running total stays finite even
	// when every weight is near math.MaxFloat64.
	peak := floats.Max(weights)
	scaled := make([]float64, len(weights))
	for i, w := range weights {
		scaled[i] = w / peak
	}
	cum := floats.CumSum(make([]float64, len(weights)), scaled)
	return &Categorical{cumulative: cum, total: cum[len(cum)-1]}, nil
}

// Len returns the number of categories.
func (c *Categorical) Len() int { return len(c.cumulative) }

// Draw returns the smallest index whose cumulative weight exceeds a
// uniform draw from [0, total). Zero-weight categories are never returned.
func (c *Categorical) Draw(rng *rand.Rand) int {
	u := rng.Float64() * c.total
	i := sort.Search(len(c.cumulative), func(i int) bool { return c.cumulative[i] > u })
	if i == len(c.cumulative) {
		// u rounded up to total; fall back to the last category with mass.
		i = len(c.cumulative) - 1
		for i > 0 && c.cumulative[i] == c.cumulative[i-1] {
			i--
		}
	}
	return i
}

// Probabilities returns the normalized weights.
func (c *Categorical) Probabilities() []float64 {
	p := make([]float64, len(c.cumulative))
	prev := 0.0
	for i, v := range c.cumulative {
		p[i] = (v - prev) / c.total
		prev = v
	}
	return p
}
