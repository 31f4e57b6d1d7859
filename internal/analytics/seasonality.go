// Package analytics provides weekday and month seasonality statistics.
package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantdesk/analytics-backend/pkg/types"
)

// SeasonalityAnalyzer averages trade P&L across weekdays and calendar
// months to expose recurring timing patterns.
type SeasonalityAnalyzer struct{}

// NewSeasonalityAnalyzer creates a new seasonality analyzer.
func NewSeasonalityAnalyzer() *SeasonalityAnalyzer {
	return &SeasonalityAnalyzer{}
}

// weekdayOrder lists trading days Monday first, matching how the dashboard
// presents the week.
var weekdayOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// Analyze returns average P&L per weekday (Monday through Sunday) and per
// month (January through December). Buckets with no trades average to zero.
func (sa *SeasonalityAnalyzer) Analyze(dataset types.TradeDataset) *types.SeasonalityResult {
	var daySums [7]decimal.Decimal
	var dayCounts [7]int
	var monthSums [12]decimal.Decimal
	var monthCounts [12]int

	for _, r := range dataset.Records {
		d := int(r.Weekday)
		daySums[d] = daySums[d].Add(r.NetPnL)
		dayCounts[d]++

		m := int(r.Month) - 1
		monthSums[m] = monthSums[m].Add(r.NetPnL)
		monthCounts[m]++
	}

	byWeekday := make([]types.SeasonalityPoint, 0, len(weekdayOrder))
	for _, wd := range weekdayOrder {
		avg := decimal.Zero
		if dayCounts[wd] > 0 {
			avg = daySums[wd].Div(decimal.NewFromInt(int64(dayCounts[wd])))
		}
		byWeekday = append(byWeekday, types.SeasonalityPoint{Label: wd.String(), AvgPnL: avg})
	}

	byMonth := make([]types.SeasonalityPoint, 0, 12)
	for m := time.January; m <= time.December; m++ {
		idx := int(m) - 1
		avg := decimal.Zero
		if monthCounts[idx] > 0 {
			avg = monthSums[idx].Div(decimal.NewFromInt(int64(monthCounts[idx])))
		}
		byMonth = append(byMonth, types.SeasonalityPoint{Label: m.String(), AvgPnL: avg})
	}

	return &types.SeasonalityResult{ByWeekday: byWeekday, ByMonth: byMonth}
}
