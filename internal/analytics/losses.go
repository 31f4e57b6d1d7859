// Package analytics provides categorical breakdowns of losing trades.
package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/quantdesk/analytics-backend/pkg/types"
)

// LossCategorizer buckets losing trades by realized severity and by the
// unrealized run-up they reached before exit.
type LossCategorizer struct{}

// NewLossCategorizer creates a new loss categorizer.
func NewLossCategorizer() *LossCategorizer {
	return &LossCategorizer{}
}

// runUpBucket is a half-open currency range [Min, Max).
type runUpBucket struct {
	min, max decimal.Decimal
	label    string
}

var runUpBuckets = []runUpBucket{
	{decimal.NewFromInt(3000), decimal.NewFromInt(5000), "3k - 5k"},
	{decimal.NewFromInt(5000), decimal.NewFromInt(8000), "5k - 8k"},
	{decimal.NewFromInt(8000), decimal.NewFromInt(12000), "8k - 12k"},
	{decimal.NewFromInt(12000), decimal.NewFromInt(20000), "12k - 20k"},
	{decimal.NewFromInt(20000), decimal.Decimal{}, "> 20k"}, // unbounded above
}

// severityBucket covers losses in (Min, Max] on the negative axis.
type severityBucket struct {
	floor decimal.Decimal // inclusive lower bound; zero value means unbounded
	label string
}

var severityBuckets = []severityBucket{
	{decimal.NewFromInt(-3000), "Small (0 - 3k)"},
	{decimal.NewFromInt(-5000), "Medium (3k - 5k)"},
	{decimal.NewFromInt(-10000), "Large (5k - 10k)"},
	{decimal.Decimal{}, "Massive (> 10k)"},
}

// Breakdown computes both categorizations. The run-up table is only
// produced when at least one record in the dataset carries a non-zero
// run-up; otherwise RunUpAvailable is false. A dataset without losing
// trades yields empty bucket sets, not an error.
func (lc *LossCategorizer) Breakdown(dataset types.TradeDataset) *types.LossBreakdown {
	losing := make([]types.TradeRecord, 0)
	runUpSeen := false
	for _, r := range dataset.Records {
		if !r.RunUp.IsZero() {
			runUpSeen = true
		}
		if r.NetPnL.IsNegative() {
			losing = append(losing, r)
		}
	}

	result := &types.LossBreakdown{}
	if len(losing) == 0 {
		return result
	}

	result.SeverityBuckets = lc.bySeverity(losing)
	if runUpSeen {
		result.RunUpAvailable = true
		result.RunUpBuckets = lc.byRunUp(losing)
	}
	return result
}

// byRunUp reports, per run-up range, how many losing trades peaked there and
// the average loss they still realized.
func (lc *LossCategorizer) byRunUp(losing []types.TradeRecord) []types.RunUpBucket {
	out := make([]types.RunUpBucket, 0, len(runUpBuckets))
	for _, b := range runUpBuckets {
		count := 0
		sum := decimal.Zero
		for _, r := range losing {
			if r.RunUp.LessThan(b.min) {
				continue
			}
			if !b.max.IsZero() && !r.RunUp.LessThan(b.max) {
				continue
			}
			count++
			sum = sum.Add(r.NetPnL)
		}
		avg := decimal.Zero
		if count > 0 {
			avg = sum.Div(decimal.NewFromInt(int64(count)))
		}
		out = append(out, types.RunUpBucket{Label: b.label, Count: count, AvgRealizedLoss: avg})
	}
	return out
}

// bySeverity reports count and total loss per severity range. A loss
// belongs to the first bucket whose inclusive floor it does not undershoot;
// the final bucket is unbounded.
func (lc *LossCategorizer) bySeverity(losing []types.TradeRecord) []types.SeverityBucket {
	out := make([]types.SeverityBucket, len(severityBuckets))
	for i, b := range severityBuckets {
		out[i] = types.SeverityBucket{Label: b.label, TotalLoss: decimal.Zero}
	}
	for _, r := range losing {
		for i, b := range severityBuckets {
			if b.floor.IsZero() || !r.NetPnL.LessThan(b.floor) {
				out[i].Count++
				out[i].TotalLoss = out[i].TotalLoss.Add(r.NetPnL)
				break
			}
		}
	}
	return out
}
