// Package analytics implements the quantitative metrics engine: performance
// ratios, drawdown analysis, rolling statistics, loss categorization,
// monthly pivots, compounding projections and Monte Carlo resampling over
// in-memory trade datasets. Every computation is a pure function of its
// inputs; the only source of nondeterminism is the Monte Carlo shuffler.
package analytics

import (
	"errors"
	"math"
	"sort"
)

// ErrInsufficientData signals an empty or degenerate dataset for which no
// metrics can be produced. Callers treat it as "no result", not a failure.
var ErrInsufficientData = errors.New("insufficient data")

// tradingDaysPerYear is the annualization base for daily return statistics.
const tradingDaysPerYear = 252

// mean returns the arithmetic mean, 0 for an empty slice.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStdDev returns the sample standard deviation (n-1 denominator),
// 0 when fewer than two observations exist.
func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sumSquares float64
	for _, v := range values {
		diff := v - m
		sumSquares += diff * diff
	}
	return math.Sqrt(sumSquares / float64(len(values)-1))
}

// percentile returns the p-th percentile (0-100) of values using linear
// interpolation between adjacent ranks of the sorted sample.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	index := (p / 100) * float64(len(sorted)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
