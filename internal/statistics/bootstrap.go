// Package statistics summarizes repeated simulation trials.
package statistics

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// DefaultBootstrapIterations is the number of bootstrap resamples.
const DefaultBootstrapIterations = 10000

// Interval is a percentile bootstrap confidence interval for a mean.
type Interval struct {
	Lower     float64 `json:"lower" yaml:"lower"`
	Upper     float64 `json:"upper" yaml:"upper"`
	Mean      float64 `json:"mean" yaml:"mean"`
	Level     float64 `json:"level" yaml:"level"`
	Resamples int     `json:"resamples" yaml:"resamples"`
}

// Summary describes a sample of values.
type Summary struct {
	N      int      `json:"n" yaml:"n"`
	Mean   float64  `json:"mean" yaml:"mean"`
	StdDev float64  `json:"std_dev" yaml:"std_dev"`
	Min    float64  `json:"min" yaml:"min"`
	Max    float64  `json:"max" yaml:"max"`
	CI     Interval `json:"ci" yaml:"ci"`
}

// Summarize computes descriptive statistics and a bootstrap interval at
// level using rng for resampling. An empty sample yields the zero Summary.
func Summarize(xs []float64, level float64, rng *rand.Rand) Summary {
	if len(xs) == 0 {
		return Summary{}
	}
	mean, std := stat.MeanStdDev(xs, nil)
	if len(xs) < 2 {
		std = 0
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, x := range xs {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return Summary{
		N:      len(xs),
		Mean:   mean,
		StdDev: std,
		Min:    lo,
		Max:    hi,
		CI:     BootstrapMean(xs, level, DefaultBootstrapIterations, rng),
	}
}

// BootstrapMean computes a percentile bootstrap interval for the mean of xs.
// level should be in (0, 1), e.g. 0.95. With fewer than two values the
// interval collapses onto the sample mean and no resampling happens.
func BootstrapMean(xs []float64, level float64, iterations int, rng *rand.Rand) Interval {
	n := len(xs)
	if n < 2 || iterations <= 0 {
		m := 0.0
		if n > 0 {
			m = stat.Mean(xs, nil)
		}
		return Interval{Lower: m, Upper: m, Mean: m, Level: level}
	}

	means := make([]float64, iterations)
	sample := make([]float64, n)
	for i := range means {
		for j := range sample {
			sample[j] = xs[rng.IntN(n)]
		}
		means[i] = stat.Mean(sample, nil)
	}
	sort.Float64s(means)

	alpha := 1 - level
	loIdx := int(math.Floor(alpha / 2 * float64(iterations)))
	hiIdx := int(math.Floor((1 - alpha/2) * float64(iterations)))
	if hiIdx >= iterations {
		hiIdx = iterations - 1
	}

	return Interval{
		Lower:     means[loIdx],
		Upper:     means[hiIdx],
		Mean:      stat.Mean(xs, nil),
		Level:     level,
		Resamples: iterations,
	}
}

// FractionAbove returns the share of xs strictly greater than threshold.
func FractionAbove(xs []float64, threshold float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var count int
	for _, x := range xs {
		if x > threshold {
			count++
		}
	}
	return float64(count) / float64(len(xs))
}
