// Package export serializes engine results into CSV and Excel reports with
// the dashboard's display schema. Exported files carry name markers
// (MASTER, Matrix) that ingestion knows to skip.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/quantdesk/analytics-backend/pkg/types"
	"github.com/quantdesk/analytics-backend/pkg/utils"
)

// leaderboardHeader is the display schema: strategy name plus the fourteen
// metric columns.
var leaderboardHeader = []string{
	"Strategy", "Net Profit", "ROI %", "Profit/Trade", "Sharpe", "Sortino",
	"Calmar", "Omega", "Tail Ratio", "Profit Factor", "Risk:Reward",
	"Win Rate %", "Max DD %", "Trades", "Trades/Year",
}

var monthNames = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// WriteLeaderboardCSV writes the comparison table with display headers.
func WriteLeaderboardCSV(w io.Writer, rows []types.LeaderboardRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(leaderboardHeader); err != nil {
		return fmt.Errorf("export: writing header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.Strategy,
			r.NetProfit.String(),
			formatFloat(r.ROIPct),
			r.ProfitPerTrade.String(),
			formatFloat(r.Sharpe),
			formatFloat(r.Sortino),
			formatFloat(r.Calmar),
			formatFloat(r.Omega),
			formatFloat(r.TailRatio),
			formatFloat(r.ProfitFactor),
			formatFloat(r.RiskReward),
			formatFloat(r.WinRatePct),
			formatFloat(r.MaxDrawdownPct),
			strconv.Itoa(r.Trades),
			formatFloat(r.TradesPerYear),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("export: writing row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMonthlyMatrixCSV writes the Year x Month pivot including the grand
// total row.
func WriteMonthlyMatrixCSV(w io.Writer, matrix *types.MonthlyMatrix) error {
	cw := csv.NewWriter(w)

	header := append([]string{"Year"}, monthNames...)
	header = append(header, "Yearly Total", "Yearly Return (%)")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("export: writing header: %w", err)
	}

	for _, row := range matrix.Rows {
		record := make([]string, 0, len(header))
		record = append(record, row.Label)
		for _, m := range row.Months {
			record = append(record, m.String())
		}
		record = append(record, row.YearlyTotal.String(), formatFloat(row.YearlyReturnPct))
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("export: writing row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCompoundingCSV writes the yearly growth projection.
func WriteCompoundingCSV(w io.Writer, results []types.CompoundingYearResult) error {
	cw := csv.NewWriter(w)

	header := []string{
		"Year", "Start Balance", "Scaling Factor", "Raw Profit", "Tax/Fee",
		"Net Profit", "End Balance", "Yearly Growth %", "Linear Equity (Ref)",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("export: writing header: %w", err)
	}

	for _, r := range results {
		record := []string{
			strconv.Itoa(r.Year),
			r.StartBalance.String(),
			utils.FormatScaling(r.ScalingFactor),
			r.RawProfit.String(),
			r.TaxFee.String(),
			r.NetProfit.String(),
			r.EndBalance.String(),
			formatFloat(r.GrowthPct),
			r.LinearEquity.String(),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("export: writing row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReportFilename names a generated report so ingestion's exclusion rules
// recognize it.
func ReportFilename(kind, ext string) string {
	return fmt.Sprintf("MASTER_%s_%s.%s", kind, time.Now().Format("2006-01-02"), ext)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
