// Package ingest turns raw strategy spreadsheets into canonical trade
// datasets. It handles file discovery, sheet selection, fuzzy column
// detection and row cleaning; everything downstream works against the fixed
// schema in pkg/types and never re-derives column identity.
package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/quantdesk/analytics-backend/pkg/types"
)

// tradeSheetName is the sheet TradingView-style exports place the trade
// list on; when absent the fourth sheet is used as a fallback.
const tradeSheetName = "List of trades"

var (
	// ErrNoTradeSheet means no sheet holding a trade list could be located.
	ErrNoTradeSheet = errors.New("ingest: no trade list sheet found")
	// ErrSchemaNotDetected means the date or P&L column could not be found.
	ErrSchemaNotDetected = errors.New("ingest: date or net P&L column not detected")
)

// excludedNameMarkers flags generated report files that must never be
// ingested as strategies.
var excludedNameMarkers = []string{"MASTER", "Matrix", "Combined", "Processed", "Graph", "Heatmap"}

// Loader reads strategy workbooks from disk.
type Loader struct {
	logger *zap.Logger
}

// NewLoader creates a new workbook loader.
func NewLoader(logger *zap.Logger) *Loader {
	return &Loader{logger: logger}
}

// Discover lists ingestable workbook paths under dir, skipping editor temp
// files and generated reports.
func (l *Loader) Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("ingest: reading %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, "~") {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(name), ".xlsx") {
			continue
		}
		if isExcludedName(name) {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	return files, nil
}

func isExcludedName(name string) bool {
	for _, marker := range excludedNameMarkers {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}

// Load reads one workbook into a TradeDataset named after the file. Rows
// that cannot be parsed are skipped rather than failing the whole file;
// a workbook with no detectable schema returns an error so upstream can
// report "dataset unavailable" instead of partial records.
func (l *Loader) Load(path string) (types.TradeDataset, error) {
	name := filepath.Base(path)
	if isExcludedName(name) {
		return types.TradeDataset{}, ErrNoTradeSheet
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return types.TradeDataset{}, fmt.Errorf("ingest: opening %s: %w", path, err)
	}
	defer f.Close()

	rows, err := l.tradeRows(f)
	if err != nil {
		return types.TradeDataset{}, err
	}
	if len(rows) < 2 {
		return types.TradeDataset{Strategy: name}, nil
	}

	cols, err := detectColumns(rows[0])
	if err != nil {
		return types.TradeDataset{}, err
	}

	dataset := types.TradeDataset{Strategy: name}
	skipped := 0
	for _, row := range rows[1:] {
		record, ok := l.parseRow(row, cols)
		if !ok {
			skipped++
			continue
		}
		dataset.Records = append(dataset.Records, record)
	}

	l.logger.Info("workbook loaded",
		zap.String("file", name),
		zap.Int("records", len(dataset.Records)),
		zap.Int("skipped", skipped),
	)
	return dataset.Sorted(), nil
}

// tradeRows returns the rows of the trade list sheet, preferring the named
// sheet and falling back to the fourth sheet of the workbook.
func (l *Loader) tradeRows(f *excelize.File) ([][]string, error) {
	if rows, err := f.GetRows(tradeSheetName); err == nil {
		return rows, nil
	}
	sheets := f.GetSheetList()
	if len(sheets) < 4 {
		return nil, ErrNoTradeSheet
	}
	rows, err := f.GetRows(sheets[3])
	if err != nil {
		return nil, ErrNoTradeSheet
	}
	return rows, nil
}

// columnMap holds detected column indexes; -1 means the column is absent.
type columnMap struct {
	date, pnl, drawdown, runUp, tradeType int
}

// detectColumns fuzzily matches header names the way exports from different
// platforms label them.
func detectColumns(header []string) (columnMap, error) {
	cols := columnMap{date: -1, pnl: -1, drawdown: -1, runUp: -1, tradeType: -1}

	for i, raw := range header {
		h := strings.TrimSpace(raw)
		lower := strings.ToLower(h)
		switch {
		case cols.date < 0 && (strings.Contains(h, "Date") || strings.Contains(h, "Time")):
			cols.date = i
		case cols.pnl < 0 && (strings.Contains(h, "Net P&L") || strings.Contains(h, "Profit")):
			cols.pnl = i
		case cols.drawdown < 0 && strings.Contains(h, "Drawdown") && strings.Contains(h, "%"):
			cols.drawdown = i
		case cols.tradeType < 0 && strings.Contains(h, "Type"):
			cols.tradeType = i
		case cols.runUp < 0 && containsAny(lower, "run-up", "run up", "mfe", "max profit", "highest", "max favorable"):
			cols.runUp = i
		}
	}

	if cols.date < 0 || cols.pnl < 0 {
		return cols, ErrSchemaNotDetected
	}
	return cols, nil
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// dateLayouts covers the formats the source spreadsheets have been seen to
// use.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
	"1/2/06 15:04",
	time.RFC3339,
}

// parseRow converts one sheet row into a TradeRecord. Entry rows (when a
// Type column exists) and unparseable rows are dropped.
func (l *Loader) parseRow(row []string, cols columnMap) (types.TradeRecord, bool) {
	if cols.tradeType >= 0 {
		if !strings.Contains(strings.ToLower(cell(row, cols.tradeType)), "exit") {
			return types.TradeRecord{}, false
		}
	}

	date, ok := parseDate(cell(row, cols.date))
	if !ok {
		return types.TradeRecord{}, false
	}

	pnl, err := parseAmount(cell(row, cols.pnl))
	if err != nil {
		return types.TradeRecord{}, false
	}

	record := types.TradeRecord{
		Date:    date,
		NetPnL:  pnl,
		Year:    date.Year(),
		Month:   date.Month(),
		Weekday: date.Weekday(),
	}

	if cols.drawdown >= 0 {
		if dd, err := parseAmount(cell(row, cols.drawdown)); err == nil {
			record.DrawdownPct, _ = dd.Float64()
		}
	}
	if cols.runUp >= 0 {
		if ru, err := parseAmount(cell(row, cols.runUp)); err == nil {
			record.RunUp = ru
		}
	}
	return record, true
}

// cell returns the trimmed value at index i, tolerating short rows.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseAmount reads a currency or percent cell, tolerating thousands
// separators, currency symbols and percent signs.
func parseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer(",", "", "$", "", "%", "", " ", "").Replace(s)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("ingest: empty amount")
	}
	return decimal.NewFromString(cleaned)
}
