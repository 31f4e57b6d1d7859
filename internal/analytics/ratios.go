// Package analytics provides the single-strategy performance metrics bundle.
package analytics

import (
	"math"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/quantdesk/analytics-backend/pkg/types"
)

// RatioCalculator computes the full MetricsResult for one dataset. The
// investment must be positive; rejecting a non-positive investment is the
// caller's responsibility and results are undefined otherwise.
type RatioCalculator struct {
	logger   *zap.Logger
	drawdown *DrawdownAnalyzer
}

// NewRatioCalculator creates a new ratio calculator.
func NewRatioCalculator(logger *zap.Logger) *RatioCalculator {
	return &RatioCalculator{
		logger:   logger,
		drawdown: NewDrawdownAnalyzer(),
	}
}

// Calculate produces all fourteen metrics for the dataset under the given
// investment and annual risk-free rate (percent). Every ratio with a zero
// denominator resolves to exactly 0 so strategies stay comparable; an empty
// dataset returns ErrInsufficientData.
func (rc *RatioCalculator) Calculate(dataset types.TradeDataset, investment decimal.Decimal, rfRate float64) (*types.MetricsResult, error) {
	if dataset.Empty() {
		return nil, ErrInsufficientData
	}

	sorted := dataset.Sorted()
	n := len(sorted.Records)
	inv, _ := investment.Float64()

	totalProfit := sorted.TotalPnL()
	totalProfitF, _ := totalProfit.Float64()
	roi := totalProfitF / inv * 100

	wins := 0
	grossProfit := decimal.Zero
	grossLoss := decimal.Zero
	winCount, lossCount := 0, 0
	for _, r := range sorted.Records {
		if r.NetPnL.IsPositive() {
			wins++
			winCount++
			grossProfit = grossProfit.Add(r.NetPnL)
		} else if r.NetPnL.IsNegative() {
			lossCount++
			grossLoss = grossLoss.Add(r.NetPnL.Abs())
		}
	}
	winRate := float64(wins) / float64(n) * 100

	profitPerTrade := totalProfit.Div(decimal.NewFromInt(int64(n)))

	dd := rc.drawdown.Analyze(sorted, investment)

	// Raw timestamp difference floored to whole days; an intraday history
	// spans zero days even when it crosses midnight.
	daysActive := int(sorted.Records[n-1].Date.Sub(sorted.Records[0].Date).Hours() / 24)
	yearsActive := float64(daysActive) / 365.25
	tradesPerYear := float64(n)
	if yearsActive > 0 {
		tradesPerYear = float64(n) / yearsActive
	}

	_, daily := resampleDaily(sorted)
	returns := dailyReturns(daily, investment)
	dailyRF := (rfRate / 100) / tradingDaysPerYear

	excess := make([]float64, len(returns))
	for i, r := range returns {
		excess[i] = r - dailyRF
	}

	sharpe := 0.0
	if std := sampleStdDev(returns); std != 0 {
		sharpe = mean(excess) / std * math.Sqrt(tradingDaysPerYear)
	}

	sortino := 0.0
	if downside := downsideDeviation(returns, dailyRF); downside != 0 {
		sortino = mean(excess) / downside * math.Sqrt(tradingDaysPerYear)
	}

	var posSum, negSum float64
	for _, r := range returns {
		if r > 0 {
			posSum += r
		} else if r < 0 {
			negSum += r
		}
	}
	omega := 0.0
	if negSum != 0 {
		omega = posSum / math.Abs(negSum)
	}

	tailRatio := 0.0
	if p05 := math.Abs(percentile(returns, 5)); p05 != 0 {
		tailRatio = percentile(returns, 95) / p05
	}

	profitFactor := 0.0
	if !grossLoss.IsZero() {
		v, _ := grossProfit.Div(grossLoss).Float64()
		profitFactor = v
	}

	riskReward := 0.0
	if winCount > 0 && lossCount > 0 {
		avgWin := grossProfit.Div(decimal.NewFromInt(int64(winCount)))
		avgLoss := grossLoss.Div(decimal.NewFromInt(int64(lossCount)))
		if !avgLoss.IsZero() {
			v, _ := avgWin.Div(avgLoss).Float64()
			riskReward = v
		}
	}

	annualReturnPct := 0.0
	if yearsActive > 0 {
		annualReturnPct = (totalProfitF / inv) / yearsActive * 100
	}
	calmar := 0.0
	if dd.MaxDrawdownPct != 0 {
		calmar = math.Abs(annualReturnPct / dd.MaxDrawdownPct)
	}

	return &types.MetricsResult{
		NetProfit:      totalProfit,
		ROIPct:         roi,
		ProfitPerTrade: profitPerTrade,
		Sharpe:         sharpe,
		Sortino:        sortino,
		Calmar:         calmar,
		Omega:          omega,
		TailRatio:      tailRatio,
		ProfitFactor:   profitFactor,
		RiskReward:     riskReward,
		WinRatePct:     winRate,
		MaxDrawdownPct: dd.MaxDrawdownPct,
		Trades:         n,
		TradesPerYear:  tradesPerYear,
	}, nil
}

// downsideDeviation is the root mean square of negative excess returns.
// Returns at or above the daily risk-free rate contribute zero, and the
// denominator is the full day population, not just the negative days.
func downsideDeviation(returns []float64, dailyRF float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	var sumSquares float64
	for _, r := range returns {
		if r < dailyRF {
			diff := r - dailyRF
			sumSquares += diff * diff
		}
	}
	return math.Sqrt(sumSquares / float64(len(returns)))
}
