// Package analytics provides the rolling Sortino time series.
package analytics

import (
	"math"
	"time"

	"github.com/quantdesk/analytics-backend/pkg/types"
)

// RollingSortinoEngine computes a trailing-window Sortino ratio over the
// daily-resampled, zero-filled P&L series. The statistic operates on raw
// daily P&L amounts rather than fractional returns, mirroring the dashboard
// it feeds.
type RollingSortinoEngine struct {
	windowDays int
}

// NewRollingSortinoEngine creates an engine with the given trailing window
// size in days. Sizes below 1 fall back to 90.
func NewRollingSortinoEngine(windowDays int) *RollingSortinoEngine {
	if windowDays < 1 {
		windowDays = 90
	}
	return &RollingSortinoEngine{windowDays: windowDays}
}

// Compute returns one point per calendar day in the dataset's span. A point
// is Valid only once the trailing window is full and the window holds
// downside volatility; before that the value is undefined and Sortino is 0.
// The series is recomputed wholesale on every call.
func (e *RollingSortinoEngine) Compute(dataset types.TradeDataset) []types.RollingSortinoPoint {
	sorted := dataset.Sorted()
	start, daily := resampleDaily(sorted)
	if len(daily) == 0 {
		return nil
	}

	pnl := make([]float64, len(daily))
	for i, d := range daily {
		v, _ := d.Float64()
		pnl[i] = v
	}

	points := make([]types.RollingSortinoPoint, len(pnl))
	var windowSum, windowNegSquares float64

	for i := range pnl {
		windowSum += pnl[i]
		if pnl[i] < 0 {
			windowNegSquares += pnl[i] * pnl[i]
		}
		if i >= e.windowDays {
			out := pnl[i-e.windowDays]
			windowSum -= out
			if out < 0 {
				windowNegSquares -= out * out
			}
			if windowNegSquares < 0 {
				windowNegSquares = 0 // float drift guard
			}
		}

		date := start.Add(time.Duration(i) * 24 * time.Hour)
		points[i] = types.RollingSortinoPoint{Date: date}

		if i < e.windowDays-1 {
			continue
		}
		downside := math.Sqrt(windowNegSquares / float64(e.windowDays))
		if downside == 0 {
			continue
		}
		rollingMean := windowSum / float64(e.windowDays)
		points[i].Sortino = rollingMean / downside * math.Sqrt(tradingDaysPerYear)
		points[i].Valid = true
	}

	return points
}
