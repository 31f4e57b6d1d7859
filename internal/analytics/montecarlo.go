// Package analytics provides Monte Carlo resampling of the trade sequence.
package analytics

import (
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/quantdesk/analytics-backend/pkg/types"
)

// defaultMonteCarloRuns is used when a caller passes a non-positive count.
const defaultMonteCarloRuns = 50

// MonteCarloSimulator produces randomized re-orderings of the trade P&L
// sequence and their cumulative paths. This is the engine's only
// nondeterministic component.
type MonteCarloSimulator struct {
	logger *zap.Logger
	rng    *rand.Rand
}

// NewMonteCarloSimulator creates a simulator seeded from the clock.
func NewMonteCarloSimulator(logger *zap.Logger) *MonteCarloSimulator {
	return &MonteCarloSimulator{
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run builds the original cumulative P&L path plus runs shuffled
// permutation paths. Since each path is a permutation of the same multiset
// of P&L values, every terminal value equals the dataset's total net profit;
// ExpectedTerminal is therefore informational rather than a stochastic
// estimate, and only the intermediate path shapes vary.
func (mc *MonteCarloSimulator) Run(dataset types.TradeDataset, runs int) *types.MonteCarloResult {
	if dataset.Empty() {
		return &types.MonteCarloResult{}
	}
	if runs <= 0 {
		runs = defaultMonteCarloRuns
	}

	sorted := dataset.Sorted()
	pnl := make([]float64, len(sorted.Records))
	for i, r := range sorted.Records {
		v, _ := r.NetPnL.Float64()
		pnl[i] = v
	}

	result := &types.MonteCarloResult{
		Runs:           runs,
		Original:       cumulativeSum(pnl),
		Paths:          make([][]float64, runs),
		TerminalValues: make([]float64, runs),
	}

	for i := 0; i < runs; i++ {
		shuffled := make([]float64, len(pnl))
		copy(shuffled, pnl)
		mc.rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		path := cumulativeSum(shuffled)
		result.Paths[i] = path
		result.TerminalValues[i] = path[len(path)-1]
	}

	result.ExpectedTerminal = mean(result.TerminalValues)

	mc.logger.Debug("monte carlo complete",
		zap.String("strategy", dataset.Strategy),
		zap.Int("runs", runs),
		zap.Float64("expectedTerminal", result.ExpectedTerminal),
	)
	return result
}

// cumulativeSum returns the running prefix sums of values.
func cumulativeSum(values []float64) []float64 {
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		out[i] = sum
	}
	return out
}
