package market

import (
	talib "github.com/markcheno/go-talib"

	"github.com/illi4/asx-screener/internal/models"
)

// tdLookback is the TD setup comparison distance
const tdLookback = 4

// PSAR parameters
const (
	sarAcceleration = 0.02
	sarMaximum      = 0.2
)

// LabelTD returns a copy of bars with the TD direction of each bar set from
// its setup count: green while closes keep finishing above the close 4 bars
// earlier, red while they finish below it. Bars without 4 predecessors, or
// closing level with the reference, are left unlabelled.
func LabelTD(bars []models.Bar) []models.Bar {
	out := make([]models.Bar, len(bars))
	copy(out, bars)

	for i, count := range TDCounts(bars) {
		switch {
		case count > 0:
			out[i].TDDirection = models.DirectionGreen
		case count < 0:
			out[i].TDDirection = models.DirectionRed
		default:
			out[i].TDDirection = ""
		}
	}
	return out
}

// TDCounts returns the length of the TD setup run ending at each bar,
// positive for green runs and negative for red runs.
func TDCounts(bars []models.Bar) []int {
	counts := make([]int, len(bars))
	for i := tdLookback; i < len(bars); i++ {
		ref := bars[i-tdLookback].Close
		prev := counts[i-1]
		switch {
		case bars[i].Close > ref:
			if prev > 0 {
				counts[i] = prev + 1
			} else {
				counts[i] = 1
			}
		case bars[i].Close < ref:
			if prev < 0 {
				counts[i] = prev - 1
			} else {
				counts[i] = -1
			}
		}
	}
	return counts
}

// LabelTrend returns a copy of bars with Trend set from the parabolic SAR:
// 1 while the close is above the SAR, -1 below it. The first bar, and series
// too short for the SAR, are left at 0.
func LabelTrend(bars []models.Bar) []models.Bar {
	out := make([]models.Bar, len(bars))
	copy(out, bars)
	if len(out) < 3 {
		return out
	}

	high := make([]float64, len(out))
	low := make([]float64, len(out))
	for i := range out {
		high[i] = out[i].High
		low[i] = out[i].Low
	}

	sar := talib.Sar(high, low, sarAcceleration, sarMaximum)
	out[0].Trend = 0
	for i := 1; i < len(out); i++ {
		if out[i].Close > sar[i] {
			out[i].Trend = 1
		} else {
			out[i].Trend = -1
		}
	}
	return out
}
