package analytics_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quantdesk/analytics-backend/internal/analytics"
	"github.com/quantdesk/analytics-backend/pkg/types"
)

// trade builds a fully-derived record from a date string and P&L amount.
func trade(date string, pnl float64) types.TradeRecord {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return types.TradeRecord{
		Date:    t,
		NetPnL:  decimal.NewFromFloat(pnl),
		Year:    t.Year(),
		Month:   t.Month(),
		Weekday: t.Weekday(),
	}
}

func dataset(name string, records ...types.TradeRecord) types.TradeDataset {
	return types.TradeDataset{Strategy: name, Records: records}
}

func TestCalculateEndToEnd(t *testing.T) {
	calc := analytics.NewRatioCalculator(zap.NewNop())

	ds := dataset("alpha",
		trade("2024-01-05", 1000),
		trade("2024-01-06", -400),
		trade("2024-02-10", 1000),
		trade("2024-03-01", -2000),
	)

	m, err := calc.Calculate(ds, decimal.NewFromInt(10000), 0)
	require.NoError(t, err)

	assert.True(t, m.NetProfit.Equal(decimal.NewFromInt(-400)), "net profit: %s", m.NetProfit)
	assert.InDelta(t, -4.0, m.ROIPct, 1e-9)
	assert.InDelta(t, 50.0, m.WinRatePct, 1e-9)
	assert.Equal(t, 4, m.Trades)

	// Equity walks 11000, 10600, 11600, 9600; the peak before the final
	// trade is 11600, so the deepest drawdown is -2000/11600.
	assert.InDelta(t, -2000.0/11600.0*100, m.MaxDrawdownPct, 1e-9)

	// gross profit 2000 over gross loss 2400
	assert.InDelta(t, 2000.0/2400.0, m.ProfitFactor, 1e-9)

	// avg win 1000, avg loss 1200
	assert.InDelta(t, 1000.0/1200.0, m.RiskReward, 1e-9)

	assert.True(t, m.ProfitPerTrade.Equal(decimal.NewFromInt(-100)), "profit/trade: %s", m.ProfitPerTrade)
}

func TestCalculateIdempotent(t *testing.T) {
	calc := analytics.NewRatioCalculator(zap.NewNop())
	ds := dataset("alpha",
		trade("2024-01-05", 1000),
		trade("2024-01-09", -300),
		trade("2024-02-11", 700),
	)

	first, err := calc.Calculate(ds, decimal.NewFromInt(10000), 2.5)
	require.NoError(t, err)
	second, err := calc.Calculate(ds, decimal.NewFromInt(10000), 2.5)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCalculateEmptyDataset(t *testing.T) {
	calc := analytics.NewRatioCalculator(zap.NewNop())

	_, err := calc.Calculate(dataset("empty"), decimal.NewFromInt(10000), 0)
	assert.ErrorIs(t, err, analytics.ErrInsufficientData)
}

func TestCalculateNoLosingTrades(t *testing.T) {
	calc := analytics.NewRatioCalculator(zap.NewNop())
	ds := dataset("winners",
		trade("2024-01-05", 500),
		trade("2024-01-12", 800),
		trade("2024-01-19", 200),
	)

	m, err := calc.Calculate(ds, decimal.NewFromInt(10000), 0)
	require.NoError(t, err)

	// Zero-denominator policy: no losses means 0, never NaN or +Inf.
	assert.Equal(t, 0.0, m.ProfitFactor)
	assert.Equal(t, 0.0, m.RiskReward)
	assert.Equal(t, 0.0, m.Omega) // no negative daily returns either
	assert.Equal(t, 0.0, m.MaxDrawdownPct)
	assert.Equal(t, 0.0, m.Calmar)
	assert.False(t, isNaNOrInf(m.Sharpe))
	assert.False(t, isNaNOrInf(m.Sortino))
	assert.InDelta(t, 100.0, m.WinRatePct, 1e-9)
}

func TestCalculateSingleDay(t *testing.T) {
	calc := analytics.NewRatioCalculator(zap.NewNop())
	ds := dataset("oneday",
		trade("2024-06-03", 300),
		trade("2024-06-03", -100),
	)

	m, err := calc.Calculate(ds, decimal.NewFromInt(10000), 0)
	require.NoError(t, err)

	// Zero-day span falls back to the raw trade count.
	assert.InDelta(t, 2.0, m.TradesPerYear, 1e-9)
	// One daily observation: std undefined, Sharpe must be 0.
	assert.Equal(t, 0.0, m.Sharpe)
	assert.Equal(t, 0.0, m.Calmar)
}

func TestCalculateIntradaySpanAcrossMidnight(t *testing.T) {
	calc := analytics.NewRatioCalculator(zap.NewNop())

	late := trade("2024-06-03", 300)
	late.Date = late.Date.Add(23 * time.Hour)
	early := trade("2024-06-04", -100)
	early.Date = early.Date.Add(1 * time.Hour)

	m, err := calc.Calculate(dataset("overnight", late, early), decimal.NewFromInt(10000), 0)
	require.NoError(t, err)

	// Two hours of history is a zero-day span despite the date change, so
	// the raw trade count stands in for Trades/Year.
	assert.InDelta(t, 2.0, m.TradesPerYear, 1e-9)
}

func TestCalculateSortsUnorderedRecords(t *testing.T) {
	calc := analytics.NewRatioCalculator(zap.NewNop())

	ordered := dataset("a",
		trade("2024-01-05", 1000),
		trade("2024-01-06", -400),
		trade("2024-02-10", 1000),
		trade("2024-03-01", -2000),
	)
	shuffled := dataset("a",
		trade("2024-03-01", -2000),
		trade("2024-01-05", 1000),
		trade("2024-02-10", 1000),
		trade("2024-01-06", -400),
	)

	want, err := calc.Calculate(ordered, decimal.NewFromInt(10000), 0)
	require.NoError(t, err)
	got, err := calc.Calculate(shuffled, decimal.NewFromInt(10000), 0)
	require.NoError(t, err)

	assert.Equal(t, want, got)
}

func isNaNOrInf(v float64) bool {
	return v != v || v > 1e308 || v < -1e308
}
