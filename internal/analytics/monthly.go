// Package analytics provides the Year x Month P&L pivot.
package analytics

import (
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/quantdesk/analytics-backend/pkg/types"
)

// MonthlyMatrixBuilder pivots trade P&L into a year-by-month table with
// yearly totals, yearly return percentages and a grand total row.
type MonthlyMatrixBuilder struct{}

// NewMonthlyMatrixBuilder creates a new matrix builder.
func NewMonthlyMatrixBuilder() *MonthlyMatrixBuilder {
	return &MonthlyMatrixBuilder{}
}

// Build sums net P&L per (year, month), zero-filling missing combinations.
// Each year row carries its total and total/investment*100; the grand total
// row sums every month column across years and recomputes its return
// percentage from the grand total rather than summing the per-year
// percentages. An empty dataset yields an empty matrix.
func (b *MonthlyMatrixBuilder) Build(dataset types.TradeDataset, investment decimal.Decimal) *types.MonthlyMatrix {
	if dataset.Empty() {
		return &types.MonthlyMatrix{}
	}

	byYear := make(map[int]*[12]decimal.Decimal)
	for _, r := range dataset.Records {
		months, ok := byYear[r.Year]
		if !ok {
			months = &[12]decimal.Decimal{}
			byYear[r.Year] = months
		}
		idx := int(r.Month) - 1
		months[idx] = months[idx].Add(r.NetPnL)
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	inv, _ := investment.Float64()
	rows := make([]types.MonthlyMatrixRow, 0, len(years)+1)
	var grand [12]decimal.Decimal
	grandTotal := decimal.Zero

	for _, y := range years {
		row := types.MonthlyMatrixRow{Label: strconv.Itoa(y), Months: *byYear[y]}
		total := decimal.Zero
		for m, v := range row.Months {
			total = total.Add(v)
			grand[m] = grand[m].Add(v)
		}
		row.YearlyTotal = total
		totalF, _ := total.Float64()
		row.YearlyReturnPct = totalF / inv * 100
		grandTotal = grandTotal.Add(total)
		rows = append(rows, row)
	}

	grandF, _ := grandTotal.Float64()
	rows = append(rows, types.MonthlyMatrixRow{
		Label:           "Grand Total",
		Months:          grand,
		YearlyTotal:     grandTotal,
		YearlyReturnPct: grandF / inv * 100,
	})

	return &types.MonthlyMatrix{Rows: rows}
}
