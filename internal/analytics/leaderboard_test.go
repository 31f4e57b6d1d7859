package analytics_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quantdesk/analytics-backend/internal/analytics"
	"github.com/quantdesk/analytics-backend/pkg/types"
)

func day(date string) time.Time {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return t
}

func TestLeaderboardBuild(t *testing.T) {
	la := analytics.NewLeaderboardAggregator(zap.NewNop())

	datasets := []types.TradeDataset{
		dataset("alpha.xlsx",
			trade("2024-01-05", 1000),
			trade("2024-02-10", -400),
		),
		dataset("beta.xlsx",
			trade("2024-01-20", 2000),
			trade("2024-03-15", 500),
		),
	}

	rows := la.Build(datasets,
		day("2024-01-01"), day("2024-12-31"),
		decimal.NewFromInt(10000), 0, decimal.Zero,
	)

	require.Len(t, rows, 2)
	assert.Equal(t, "alpha", rows[0].Strategy)
	assert.Equal(t, "beta", rows[1].Strategy)
	assert.True(t, rows[0].NetProfit.Equal(decimal.NewFromInt(600)))
	assert.True(t, rows[1].NetProfit.Equal(decimal.NewFromInt(2500)))
}

func TestLeaderboardDateWindowInclusive(t *testing.T) {
	la := analytics.NewLeaderboardAggregator(zap.NewNop())

	datasets := []types.TradeDataset{
		dataset("edge",
			trade("2024-01-01", 100), // on start boundary
			trade("2024-06-30", 200), // on end boundary
			trade("2024-07-01", 999), // outside
		),
	}

	rows := la.Build(datasets,
		day("2024-01-01"), day("2024-06-30"),
		decimal.NewFromInt(10000), 0, decimal.Zero,
	)

	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Trades)
	assert.True(t, rows[0].NetProfit.Equal(decimal.NewFromInt(300)))
}

func TestLeaderboardAppliesSlippage(t *testing.T) {
	la := analytics.NewLeaderboardAggregator(zap.NewNop())

	datasets := []types.TradeDataset{
		dataset("slip",
			trade("2024-01-05", 1000),
			trade("2024-01-10", -400),
		),
	}

	rows := la.Build(datasets,
		day("2024-01-01"), day("2024-12-31"),
		decimal.NewFromInt(10000), 0, decimal.NewFromInt(50),
	)

	require.Len(t, rows, 1)
	// 600 total minus 50 per trade across 2 trades.
	assert.True(t, rows[0].NetProfit.Equal(decimal.NewFromInt(500)), "net: %s", rows[0].NetProfit)
}

func TestLeaderboardOmitsEmptyStrategies(t *testing.T) {
	la := analytics.NewLeaderboardAggregator(zap.NewNop())

	datasets := []types.TradeDataset{
		dataset("inside", trade("2024-02-01", 100)),
		dataset("outside", trade("2023-02-01", 100)),
		dataset("empty"),
	}

	rows := la.Build(datasets,
		day("2024-01-01"), day("2024-12-31"),
		decimal.NewFromInt(10000), 0, decimal.Zero,
	)

	require.Len(t, rows, 1)
	assert.Equal(t, "inside", rows[0].Strategy)
}

func TestLeaderboardDoesNotMutateInput(t *testing.T) {
	la := analytics.NewLeaderboardAggregator(zap.NewNop())

	original := dataset("immutable", trade("2024-01-05", 1000))
	datasets := []types.TradeDataset{original}

	la.Build(datasets,
		day("2024-01-01"), day("2024-12-31"),
		decimal.NewFromInt(10000), 0, decimal.NewFromInt(100),
	)

	assert.True(t, original.Records[0].NetPnL.Equal(decimal.NewFromInt(1000)),
		"slippage adjustment must not write through to the source dataset")
}

func TestStrategyDisplayName(t *testing.T) {
	assert.Equal(t, "alpha", analytics.StrategyDisplayName("alpha.xlsx"))
	assert.Equal(t, "beta", analytics.StrategyDisplayName("beta.XLSX"))
	assert.Equal(t, "gamma", analytics.StrategyDisplayName("gamma.csv"))
	assert.Equal(t, "plain", analytics.StrategyDisplayName("plain"))
}
