// Package types provides shared type definitions for the analytics backend.
package types

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// TradeRecord is one closed trade from a strategy's trade log.
// Date and NetPnL are always populated by ingestion; DrawdownPct and RunUp
// default to zero when the source sheet has no matching column.
type TradeRecord struct {
	Date        time.Time       `json:"date"`
	NetPnL      decimal.Decimal `json:"netPnl"`
	Year        int             `json:"year"`
	Month       time.Month      `json:"month"`
	Weekday     time.Weekday    `json:"weekday"`
	DrawdownPct float64         `json:"drawdownPct"`
	RunUp       decimal.Decimal `json:"runUp"`
}

// TradeDataset is the ordered trade history of one named strategy.
// Transformations return fresh datasets; records are never mutated in place.
type TradeDataset struct {
	Strategy string        `json:"strategy"`
	Records  []TradeRecord `json:"records"`
}

// Empty reports whether the dataset holds no records.
func (d TradeDataset) Empty() bool {
	return len(d.Records) == 0
}

// Sorted returns a copy of the dataset with records in ascending date order.
func (d TradeDataset) Sorted() TradeDataset {
	records := make([]TradeRecord, len(d.Records))
	copy(records, d.Records)
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})
	return TradeDataset{Strategy: d.Strategy, Records: records}
}

// Filter returns a copy restricted to [start, end], inclusive on both ends.
func (d TradeDataset) Filter(start, end time.Time) TradeDataset {
	records := make([]TradeRecord, 0, len(d.Records))
	for _, r := range d.Records {
		if r.Date.Before(start) || r.Date.After(end) {
			continue
		}
		records = append(records, r)
	}
	return TradeDataset{Strategy: d.Strategy, Records: records}
}

// WithCost returns a copy with a fixed per-trade cost subtracted from every
// record's net P&L, modelling slippage and fees.
func (d TradeDataset) WithCost(cost decimal.Decimal) TradeDataset {
	if cost.IsZero() {
		return d
	}
	records := make([]TradeRecord, len(d.Records))
	copy(records, d.Records)
	for i := range records {
		records[i].NetPnL = records[i].NetPnL.Sub(cost)
	}
	return TradeDataset{Strategy: d.Strategy, Records: records}
}

// TotalPnL returns the sum of net P&L across all records.
func (d TradeDataset) TotalPnL() decimal.Decimal {
	total := decimal.Zero
	for _, r := range d.Records {
		total = total.Add(r.NetPnL)
	}
	return total
}

// MetricsResult is the full single-strategy performance bundle. All fields
// are always populated; ratios with a degenerate denominator are exactly 0.
type MetricsResult struct {
	NetProfit      decimal.Decimal `json:"netProfit"`
	ROIPct         float64         `json:"roiPct"`
	ProfitPerTrade decimal.Decimal `json:"profitPerTrade"`
	Sharpe         float64         `json:"sharpe"`
	Sortino        float64         `json:"sortino"`
	Calmar         float64         `json:"calmar"`
	Omega          float64         `json:"omega"`
	TailRatio      float64         `json:"tailRatio"`
	ProfitFactor   float64         `json:"profitFactor"`
	RiskReward     float64         `json:"riskReward"`
	WinRatePct     float64         `json:"winRatePct"`
	MaxDrawdownPct float64         `json:"maxDrawdownPct"`
	Trades         int             `json:"trades"`
	TradesPerYear  float64         `json:"tradesPerYear"`
}

// LeaderboardRow is a MetricsResult tagged with its strategy name.
type LeaderboardRow struct {
	Strategy string `json:"strategy"`
	MetricsResult
}
