// Package export provides the combined Excel report workbook.
package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/quantdesk/analytics-backend/pkg/types"
	"github.com/quantdesk/analytics-backend/pkg/utils"
)

// ExcelReporter writes a styled multi-sheet workbook with the leaderboard,
// monthly matrix and compounding projection.
type ExcelReporter struct {
	Currency string
}

// NewExcelReporter creates a reporter; currency defaults to INR to match
// the dashboard.
func NewExcelReporter(currency string) *ExcelReporter {
	if currency == "" {
		currency = "INR"
	}
	return &ExcelReporter{Currency: currency}
}

type excelStyles struct {
	header int
	money  int
}

// Write renders all three sheets into w.
func (r *ExcelReporter) Write(
	w io.Writer,
	leaderboard []types.LeaderboardRow,
	matrix *types.MonthlyMatrix,
	compounding []types.CompoundingYearResult,
) error {
	f := excelize.NewFile()
	defer f.Close()

	const (
		leaderboardSheet = "Leaderboard"
		matrixSheet      = "Monthly Matrix"
		compoundingSheet = "Compounding"
	)

	f.SetSheetName(f.GetSheetName(0), leaderboardSheet)
	if _, err := f.NewSheet(matrixSheet); err != nil {
		return fmt.Errorf("export: creating sheet: %w", err)
	}
	if _, err := f.NewSheet(compoundingSheet); err != nil {
		return fmt.Errorf("export: creating sheet: %w", err)
	}

	styles, err := r.createStyles(f)
	if err != nil {
		return err
	}

	if err := r.writeLeaderboard(f, leaderboardSheet, leaderboard, styles); err != nil {
		return err
	}
	if err := r.writeMatrix(f, matrixSheet, matrix, styles); err != nil {
		return err
	}
	if err := r.writeCompounding(f, compoundingSheet, compounding, styles); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: writing workbook: %w", err)
	}
	return nil
}

func (r *ExcelReporter) createStyles(f *excelize.File) (excelStyles, error) {
	var styles excelStyles
	var err error

	styles.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"1F4E79"}, Pattern: 1},
	})
	if err != nil {
		return styles, fmt.Errorf("export: header style: %w", err)
	}

	styles.money, err = f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return styles, fmt.Errorf("export: money style: %w", err)
	}
	return styles, nil
}

func (r *ExcelReporter) writeLeaderboard(f *excelize.File, sheet string, rows []types.LeaderboardRow, styles excelStyles) error {
	if err := r.writeRow(f, sheet, 1, toAny(leaderboardHeader), styles.header); err != nil {
		return err
	}
	for i, row := range rows {
		values := []interface{}{
			row.Strategy,
			row.NetProfit.InexactFloat64(),
			row.ROIPct,
			row.ProfitPerTrade.InexactFloat64(),
			row.Sharpe,
			row.Sortino,
			row.Calmar,
			row.Omega,
			row.TailRatio,
			row.ProfitFactor,
			row.RiskReward,
			row.WinRatePct,
			row.MaxDrawdownPct,
			row.Trades,
			row.TradesPerYear,
		}
		if err := r.writeRow(f, sheet, i+2, values, 0); err != nil {
			return err
		}
	}
	return nil
}

func (r *ExcelReporter) writeMatrix(f *excelize.File, sheet string, matrix *types.MonthlyMatrix, styles excelStyles) error {
	header := append([]string{"Year"}, monthNames...)
	header = append(header, "Yearly Total", "Yearly Return (%)")
	if err := r.writeRow(f, sheet, 1, toAny(header), styles.header); err != nil {
		return err
	}
	for i, row := range matrix.Rows {
		values := make([]interface{}, 0, len(header))
		values = append(values, row.Label)
		for _, m := range row.Months {
			values = append(values, m.InexactFloat64())
		}
		values = append(values, row.YearlyTotal.InexactFloat64(), row.YearlyReturnPct)
		if err := r.writeRow(f, sheet, i+2, values, 0); err != nil {
			return err
		}
	}
	return nil
}

func (r *ExcelReporter) writeCompounding(f *excelize.File, sheet string, results []types.CompoundingYearResult, styles excelStyles) error {
	header := []string{
		"Year", "Start Balance", "Scaling Factor", "Raw Profit", "Tax/Fee",
		"Net Profit", "End Balance", "Yearly Growth %", "Linear Equity (Ref)",
	}
	if err := r.writeRow(f, sheet, 1, toAny(header), styles.header); err != nil {
		return err
	}
	for i, res := range results {
		values := []interface{}{
			strconv.Itoa(res.Year),
			utils.FormatMoney(res.StartBalance, r.Currency),
			utils.FormatScaling(res.ScalingFactor),
			utils.FormatMoney(res.RawProfit, r.Currency),
			utils.FormatMoney(res.TaxFee, r.Currency),
			utils.FormatMoney(res.NetProfit, r.Currency),
			utils.FormatMoney(res.EndBalance, r.Currency),
			utils.FormatPercent(res.GrowthPct),
			utils.FormatMoney(res.LinearEquity, r.Currency),
		}
		if err := r.writeRow(f, sheet, i+2, values, 0); err != nil {
			return err
		}
	}
	return nil
}

// writeRow sets one sheet row starting at column A, optionally styled.
func (r *ExcelReporter) writeRow(f *excelize.File, sheet string, rowNum int, values []interface{}, styleID int) error {
	start, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("export: cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, start, &values); err != nil {
		return fmt.Errorf("export: setting row: %w", err)
	}
	if styleID != 0 {
		end, err := excelize.CoordinatesToCellName(len(values), rowNum)
		if err != nil {
			return fmt.Errorf("export: cell name: %w", err)
		}
		if err := f.SetCellStyle(sheet, start, end, styleID); err != nil {
			return fmt.Errorf("export: styling row: %w", err)
		}
	}
	return nil
}

func toAny(s []string) []interface{} {
	out := make([]interface{}, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}
