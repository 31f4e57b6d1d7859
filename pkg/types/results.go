// Package types provides result types produced by the analytics engine.
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// DrawdownPoint is one point of the running drawdown series.
type DrawdownPoint struct {
	Date          time.Time       `json:"date"`
	CumulativePnL decimal.Decimal `json:"cumulativePnl"`
	Equity        decimal.Decimal `json:"equity"`
	Peak          decimal.Decimal `json:"peak"`
	Drawdown      decimal.Decimal `json:"drawdown"`
	DrawdownPct   float64         `json:"drawdownPct"`
}

// DrawdownResult is the drawdown series plus its summary statistics.
type DrawdownResult struct {
	Points          []DrawdownPoint `json:"points"`
	MaxDrawdownPct  float64         `json:"maxDrawdownPct"`
	MaxDurationDays int             `json:"maxDurationDays"`
}

// RollingSortinoPoint is one day of the rolling Sortino series. Valid is
// false while the trailing window is not yet full or the window holds no
// downside volatility.
type RollingSortinoPoint struct {
	Date    time.Time `json:"date"`
	Sortino float64   `json:"sortino"`
	Valid   bool      `json:"valid"`
}

// CompoundingMode selects how yearly profit is scaled during simulation.
type CompoundingMode string

const (
	CompoundingLinear       CompoundingMode = "linear"
	CompoundingProportional CompoundingMode = "proportional"
)

// CompoundingYearResult is one simulated calendar year of capital growth.
type CompoundingYearResult struct {
	Year          int             `json:"year"`
	StartBalance  decimal.Decimal `json:"startBalance"`
	ScalingFactor decimal.Decimal `json:"scalingFactor"`
	RawProfit     decimal.Decimal `json:"rawProfit"`
	TaxFee        decimal.Decimal `json:"taxFee"`
	NetProfit     decimal.Decimal `json:"netProfit"`
	EndBalance    decimal.Decimal `json:"endBalance"`
	GrowthPct     float64         `json:"growthPct"`
	LinearEquity  decimal.Decimal `json:"linearEquity"`
}

// MonthlyMatrixRow is one row of the Year x Month P&L pivot. Months are
// indexed January = 0. Label is the year as a string, or "Grand Total" for
// the final summary row.
type MonthlyMatrixRow struct {
	Label           string              `json:"label"`
	Months          [12]decimal.Decimal `json:"months"`
	YearlyTotal     decimal.Decimal     `json:"yearlyTotal"`
	YearlyReturnPct float64             `json:"yearlyReturnPct"`
}

// MonthlyMatrix is the full pivot including the grand total row.
type MonthlyMatrix struct {
	Rows []MonthlyMatrixRow `json:"rows"`
}

// MonteCarloResult holds the original cumulative P&L path, the shuffled
// permutation paths, and the mean terminal value across permutations.
// Because every path is a permutation of the same P&L multiset, every
// terminal value equals the dataset's total net profit.
type MonteCarloResult struct {
	Runs             int         `json:"runs"`
	Original         []float64   `json:"original"`
	Paths            [][]float64 `json:"paths"`
	TerminalValues   []float64   `json:"terminalValues"`
	ExpectedTerminal float64     `json:"expectedTerminal"`
}

// RunUpBucket groups losing trades by the unrealized run-up they reached
// before exit.
type RunUpBucket struct {
	Label           string          `json:"label"`
	Count           int             `json:"count"`
	AvgRealizedLoss decimal.Decimal `json:"avgRealizedLoss"`
}

// SeverityBucket groups losing trades by realized loss magnitude.
type SeverityBucket struct {
	Label     string          `json:"label"`
	Count     int             `json:"count"`
	TotalLoss decimal.Decimal `json:"totalLoss"`
}

// LossBreakdown bundles both loss categorizations. RunUpAvailable is false
// when no record in the dataset carries a run-up value, in which case
// RunUpBuckets is empty.
type LossBreakdown struct {
	RunUpAvailable  bool             `json:"runUpAvailable"`
	RunUpBuckets    []RunUpBucket    `json:"runUpBuckets,omitempty"`
	SeverityBuckets []SeverityBucket `json:"severityBuckets"`
}

// SeasonalityPoint is the average P&L for one weekday or calendar month.
type SeasonalityPoint struct {
	Label  string          `json:"label"`
	AvgPnL decimal.Decimal `json:"avgPnl"`
}

// SeasonalityResult holds average P&L bucketed by weekday and by month.
type SeasonalityResult struct {
	ByWeekday []SeasonalityPoint `json:"byWeekday"`
	ByMonth   []SeasonalityPoint `json:"byMonth"`
}
