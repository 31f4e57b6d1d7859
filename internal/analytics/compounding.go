// Package analytics provides the multi-year compounding projection.
package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/quantdesk/analytics-backend/pkg/types"
)

// minScalingFactor floors the proportional scaling factor so a deep
// drawdown cannot collapse position sizing to nothing.
var minScalingFactor = decimal.NewFromFloat(0.1)

// CompoundingSimulator projects capital growth year over year, scaling each
// year's raw profit either linearly (1x, 2x, ...) or proportionally to the
// running equity, net of a tax rate applied to positive profits only.
type CompoundingSimulator struct{}

// NewCompoundingSimulator creates a new compounding simulator.
func NewCompoundingSimulator() *CompoundingSimulator {
	return &CompoundingSimulator{}
}

// Simulate groups trades by calendar year and walks the years in ascending
// order, carrying the compounded equity forward. A parallel linear equity
// accumulates the raw, unscaled profit as a reference baseline. taxRate is a
// percentage deducted from positive scaled profit; losses are never taxed.
func (cs *CompoundingSimulator) Simulate(
	dataset types.TradeDataset,
	initialCapital decimal.Decimal,
	mode types.CompoundingMode,
	taxRate float64,
) []types.CompoundingYearResult {
	profitByYear := make(map[int]decimal.Decimal)
	for _, r := range dataset.Records {
		profitByYear[r.Year] = profitByYear[r.Year].Add(r.NetPnL)
	}

	years := make([]int, 0, len(profitByYear))
	for y := range profitByYear {
		years = append(years, y)
	}
	sort.Ints(years)

	taxFraction := decimal.NewFromFloat(taxRate / 100)
	currentEquity := initialCapital
	linearEquity := initialCapital
	results := make([]types.CompoundingYearResult, 0, len(years))

	for i, year := range years {
		raw := profitByYear[year]

		var scaling decimal.Decimal
		if mode == types.CompoundingLinear {
			scaling = decimal.NewFromInt(int64(1 + i))
		} else {
			scaling = currentEquity.Div(initialCapital)
			if scaling.LessThan(minScalingFactor) {
				scaling = minScalingFactor
			}
		}

		gross := raw.Mul(scaling)
		tax := decimal.Zero
		if gross.IsPositive() {
			tax = gross.Mul(taxFraction)
		}
		net := gross.Sub(tax)

		start := currentEquity
		end := start.Add(net)
		growthPct := 0.0
		if start.IsPositive() {
			v, _ := net.Div(start).Float64()
			growthPct = v * 100
		}
		linearEquity = linearEquity.Add(raw)

		results = append(results, types.CompoundingYearResult{
			Year:          year,
			StartBalance:  start,
			ScalingFactor: scaling,
			RawProfit:     raw,
			TaxFee:        tax,
			NetProfit:     net,
			EndBalance:    end,
			GrowthPct:     growthPct,
			LinearEquity:  linearEquity,
		})
		currentEquity = end
	}

	return results
}
