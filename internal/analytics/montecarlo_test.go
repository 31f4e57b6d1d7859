package analytics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quantdesk/analytics-backend/internal/analytics"
)

func TestMonteCarloTerminalIsPermutationInvariant(t *testing.T) {
	mc := analytics.NewMonteCarloSimulator(zap.NewNop())
	ds := dataset("mc",
		trade("2024-01-01", 1000),
		trade("2024-01-02", -400),
		trade("2024-01-03", 1000),
		trade("2024-01-04", -2000),
		trade("2024-01-05", 700),
	)

	result := mc.Run(ds, 200)
	require.Equal(t, 200, result.Runs)
	require.Len(t, result.Paths, 200)

	// Summation is commutative: every shuffled path must terminate at the
	// dataset's total P&L, and the "expected outcome" is that same constant
	// rather than a stochastic estimate.
	total := 300.0
	assert.InDelta(t, total, result.Original[len(result.Original)-1], 1e-9)
	for _, terminal := range result.TerminalValues {
		assert.InDelta(t, total, terminal, 1e-9)
	}
	assert.InDelta(t, total, result.ExpectedTerminal, 1e-9)
}

func TestMonteCarloPathShape(t *testing.T) {
	mc := analytics.NewMonteCarloSimulator(zap.NewNop())
	ds := dataset("mc",
		trade("2024-01-01", 100),
		trade("2024-01-02", -50),
		trade("2024-01-03", 25),
	)

	result := mc.Run(ds, 10)
	assert.Len(t, result.Original, 3)
	for _, path := range result.Paths {
		assert.Len(t, path, 3)
	}
}

func TestMonteCarloDefaultRuns(t *testing.T) {
	mc := analytics.NewMonteCarloSimulator(zap.NewNop())
	ds := dataset("mc", trade("2024-01-01", 100))

	result := mc.Run(ds, 0)
	assert.Equal(t, 50, result.Runs)
}

func TestMonteCarloEmptyDataset(t *testing.T) {
	mc := analytics.NewMonteCarloSimulator(zap.NewNop())
	result := mc.Run(dataset("empty"), 100)

	assert.Equal(t, 0, result.Runs)
	assert.Empty(t, result.Paths)
}
