// Package analytics provides drawdown series and underwater duration analysis.
package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/quantdesk/analytics-backend/pkg/types"
)

// DrawdownAnalyzer computes the running drawdown of a strategy's equity and
// the longest continuous underwater stretch.
type DrawdownAnalyzer struct{}

// NewDrawdownAnalyzer creates a new drawdown analyzer.
func NewDrawdownAnalyzer() *DrawdownAnalyzer {
	return &DrawdownAnalyzer{}
}

// Analyze walks the trade sequence in date order, accumulating P&L on top of
// the initial capital and tracking the running equity peak. The peak is
// seeded from the first equity point, not the initial capital, so a sequence
// that opens with losses is not underwater until an earlier equity high is
// given back. Drawdown is equity minus peak (always <= 0); drawdown percent
// is relative to the peak. An empty dataset yields a zero-value result.
func (da *DrawdownAnalyzer) Analyze(dataset types.TradeDataset, initialCapital decimal.Decimal) *types.DrawdownResult {
	if dataset.Empty() {
		return &types.DrawdownResult{}
	}

	sorted := dataset.Sorted()
	points := make([]types.DrawdownPoint, 0, len(sorted.Records))

	cumulative := decimal.Zero
	var peak decimal.Decimal
	maxDDPct := 0.0

	for i, r := range sorted.Records {
		cumulative = cumulative.Add(r.NetPnL)
		equity := initialCapital.Add(cumulative)
		if i == 0 || equity.GreaterThan(peak) {
			peak = equity
		}

		drawdown := equity.Sub(peak)
		ddPct := 0.0
		if peak.IsPositive() {
			v, _ := drawdown.Div(peak).Float64()
			ddPct = v * 100
		}
		if ddPct < maxDDPct {
			maxDDPct = ddPct
		}

		points = append(points, types.DrawdownPoint{
			Date:          r.Date,
			CumulativePnL: cumulative,
			Equity:        equity,
			Peak:          peak,
			Drawdown:      drawdown,
			DrawdownPct:   ddPct,
		})
	}

	return &types.DrawdownResult{
		Points:          points,
		MaxDrawdownPct:  maxDDPct,
		MaxDurationDays: da.maxUnderwaterDays(points),
	}
}

// maxUnderwaterDays finds the longest maximal run of strictly negative
// drawdown and reports its span in days. A dataset that never dips below its
// peak yields 0.
func (da *DrawdownAnalyzer) maxUnderwaterDays(points []types.DrawdownPoint) int {
	maxDays := 0
	runStart := -1

	flush := func(endIdx int) {
		if runStart < 0 {
			return
		}
		days := int(points[endIdx].Date.Sub(points[runStart].Date).Hours() / 24)
		if days > maxDays {
			maxDays = days
		}
		runStart = -1
	}

	for i, p := range points {
		if p.DrawdownPct < 0 {
			if runStart < 0 {
				runStart = i
			}
		} else {
			flush(i - 1)
		}
	}
	flush(len(points) - 1)

	return maxDays
}
