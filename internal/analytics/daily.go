// Package analytics provides calendar-day resampling of trade P&L.
package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantdesk/analytics-backend/pkg/types"
)

// dayOf truncates a timestamp to its UTC calendar day.
func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// resampleDaily buckets net P&L by calendar day across the full date span of
// the dataset. Days with no trades are explicit zeros, not gaps. Records
// must already be in ascending date order. Returns the first day and one
// value per day through the last day inclusive.
func resampleDaily(d types.TradeDataset) (time.Time, []decimal.Decimal) {
	if d.Empty() {
		return time.Time{}, nil
	}

	first := dayOf(d.Records[0].Date)
	last := dayOf(d.Records[len(d.Records)-1].Date)
	span := int(last.Sub(first).Hours()/24) + 1

	daily := make([]decimal.Decimal, span)
	for _, r := range d.Records {
		idx := int(dayOf(r.Date).Sub(first).Hours() / 24)
		daily[idx] = daily[idx].Add(r.NetPnL)
	}
	return first, daily
}

// dailyReturns converts a daily P&L series into fractional returns on the
// given investment.
func dailyReturns(daily []decimal.Decimal, investment decimal.Decimal) []float64 {
	inv, _ := investment.Float64()
	returns := make([]float64, len(daily))
	for i, pnl := range daily {
		v, _ := pnl.Float64()
		returns[i] = v / inv
	}
	return returns
}
