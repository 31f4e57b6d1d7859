// Package analytics provides the cross-strategy comparison table.
package analytics

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/quantdesk/analytics-backend/pkg/types"
)

// LeaderboardAggregator runs the ratio calculator across many strategies
// under a shared date window, investment and per-trade cost.
type LeaderboardAggregator struct {
	logger *zap.Logger
	calc   *RatioCalculator
}

// NewLeaderboardAggregator creates a new aggregator.
func NewLeaderboardAggregator(logger *zap.Logger) *LeaderboardAggregator {
	return &LeaderboardAggregator{
		logger: logger,
		calc:   NewRatioCalculator(logger),
	}
}

// Build filters each dataset to [start, end] inclusive, deducts the slippage
// cost from every trade, and computes its metrics bundle. Strategies left
// with no trades in the window are silently omitted. Row order follows the
// input order; any ranking is the caller's concern.
func (la *LeaderboardAggregator) Build(
	datasets []types.TradeDataset,
	start, end time.Time,
	investment decimal.Decimal,
	rfRate float64,
	slippage decimal.Decimal,
) []types.LeaderboardRow {
	rows := make([]types.LeaderboardRow, 0, len(datasets))

	for _, ds := range datasets {
		windowed := ds.Filter(start, end).WithCost(slippage)

		metrics, err := la.calc.Calculate(windowed, investment, rfRate)
		if err != nil {
			// Calculate only fails on an empty window.
			la.logger.Debug("strategy excluded from leaderboard",
				zap.String("strategy", ds.Strategy),
			)
			continue
		}

		rows = append(rows, types.LeaderboardRow{
			Strategy:      StrategyDisplayName(ds.Strategy),
			MetricsResult: *metrics,
		})
	}

	return rows
}

// StrategyDisplayName strips a trailing spreadsheet extension from a
// strategy name sourced from a file.
func StrategyDisplayName(name string) string {
	for _, ext := range []string{".xlsx", ".xls", ".csv"} {
		if strings.HasSuffix(strings.ToLower(name), ext) {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}
