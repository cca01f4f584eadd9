// Package forecast projects the cumulative balance forward with an ordinary
// least-squares line fitted over a recent window of balance points.
package forecast

import (
	"fmt"

	"github.com/shopspring/decimal"

	"treasury/internal/core"
	"treasury/internal/report"
)

const (
	// DefaultLookbackDays is the regression window width.
	DefaultLookbackDays = 90
	// DefaultHorizonDays is how far the projection extends.
	DefaultHorizonDays = 60

	// minWindowPoints is the smallest sample a fit is attempted on.
	minWindowPoints = 3
)

// Result is a computed projection. Insufficient is set when the window held
// fewer than three points; that is a normal outcome, not an error, and must
// be distinguished from an empty-but-computed projection (horizon of zero).
type Result struct {
	Points       []report.BalancePoint
	Insufficient bool
	Slope        float64
}

// Forecast fits a least-squares line over the balance points that fall within
// lookbackDays of the latest point's date, re-anchors it through the last
// observed point and extends it horizonDays past the last observed date.
//
// A window whose points all share one date makes the regression degenerate;
// the slope is defined as zero there (flat projection).
func Forecast(points []report.BalancePoint, lookbackDays, horizonDays int) (Result, error) {
	if lookbackDays < 0 {
		return Result{}, fmt.Errorf("negative lookback days %d", lookbackDays)
	}
	if horizonDays < 0 {
		return Result{}, fmt.Errorf("negative horizon days %d", horizonDays)
	}

	if len(points) < minWindowPoints {
		return Result{Insufficient: true}, nil
	}

	last := points[len(points)-1]
	cutoff := last.Date.AddDate(0, 0, -lookbackDays)

	window := points
	for i, p := range points {
		if !p.Date.Before(cutoff) {
			window = points[i:]
			break
		}
	}
	if len(window) < minWindowPoints {
		return Result{Insufficient: true}, nil
	}

	slope := fitSlope(window)

	// Anchor the projection on the last observed balance so the forecast
	// continues the historical line without a jump.
	lastBalance := last.Balance
	out := make([]report.BalancePoint, horizonDays)
	for i := range out {
		offset := i + 1
		projected := lastBalance.Add(decimal.NewFromFloat(slope * float64(offset)))
		out[i] = report.BalancePoint{
			Date:    core.Date{Time: last.Date.AddDate(0, 0, offset)},
			Balance: projected,
		}
	}
	return Result{Points: out, Slope: slope}, nil
}

// fitSlope computes the least-squares slope of balance against days since the
// window start.
func fitSlope(window []report.BalancePoint) float64 {
	start := window[0].Date
	n := float64(len(window))

	var sumX, sumY float64
	xs := make([]float64, len(window))
	ys := make([]float64, len(window))
	for i, p := range window {
		xs[i] = p.Date.Sub(start.Time).Hours() / 24
		ys[i] = p.Balance.InexactFloat64()
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX := sumX / n
	meanY := sumY / n

	var num, den float64
	for i := range xs {
		dx := xs[i] - meanX
		num += dx * (ys[i] - meanY)
		den += dx * dx
	}
	if den == 0 {
		// Single distinct date in the window.
		return 0
	}
	return num / den
}
