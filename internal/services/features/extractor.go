package features

import (
	"math"
	"time"
)

// Cycle states derived from the recent shock-series moves.
const (
	CycleTightening = "tightening"
	CycleEasing     = "easing"
	CycleHold       = "hold"
)

// MoveVolatility computes the sample standard deviation of monthly moves
// over the trailing window. Returns the latest window sigma in bps.
func MoveVolatility(moves []float64, window int) float64 {
	if window <= 1 || len(moves) < window {
		return 0
	}
	sum := 0.0
	sum2 := 0.0
	for i := len(moves) - window; i < len(moves); i++ {
		m := moves[i]
		sum += m
		sum2 += m * m
	}
	n := float64(window)
	mean := sum / n
	variance := (sum2 - n*mean*mean) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// DetectCycle classifies the policy stance from the cumulative move over the
// trailing window: net tightening, net easing, or hold.
func DetectCycle(moves []float64, window int, thresholdBps float64) string {
	if len(moves) == 0 {
		return CycleHold
	}
	if window > len(moves) {
		window = len(moves)
	}
	cum := 0.0
	for i := len(moves) - window; i < len(moves); i++ {
		cum += moves[i]
	}
	switch {
	case cum >= thresholdBps:
		return CycleTightening
	case cum <= -thresholdBps:
		return CycleEasing
	default:
		return CycleHold
	}
}

// SurpriseScore measures how unusual the latest move is relative to the
// trailing move volatility, in standard deviations. Zero when the history is
// too short or flat.
func SurpriseScore(moves []float64, window int) float64 {
	if len(moves) < 2 {
		return 0
	}
	sigma := MoveVolatility(moves[:len(moves)-1], min(window, len(moves)-1))
	if sigma == 0 {
		return 0
	}
	return moves[len(moves)-1] / sigma
}

// CumulativeMove sums the moves over the trailing window, in bps.
func CumulativeMove(moves []float64, window int) float64 {
	if window > len(moves) {
		window = len(moves)
	}
	cum := 0.0
	for i := len(moves) - window; i < len(moves); i++ {
		cum += moves[i]
	}
	return cum
}

// TruncateToMonth floors a time range onto monthly grid boundaries.
func TruncateToMonth(from, to time.Time) (time.Time, time.Time) {
	f := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, time.UTC)
	return f, t
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
