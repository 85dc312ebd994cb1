package signal

import (
	"fmt"
	"math"

	"github.com/illi4/asx-screener/pkg/indicator"
)

// overextensionLookback is the offset from the end of the weekly series of
// the reference close, i.e. the fourth weekly bar counting the last one.
const overextensionLookback = 3

// WeeklyNotOverextended: last weekly close < (1 + thresholdPercent/100) x the
// reference weekly close.
func WeeklyNotOverextended(s Snapshot, thresholdPercent float64) Condition {
	last, ok1 := lastBar(s.Weekly, 0)
	ref, ok2 := lastBar(s.Weekly, overextensionLookback)
	if !ok1 || !ok2 {
		return degraded(s, CondWeeklyNotOverextended, false,
			fmt.Sprintf("need at least %d weekly bars", overextensionLookback+1))
	}
	return newCondition(CondWeeklyNotOverextended, last.Close < (1+thresholdPercent/100)*ref.Close)
}

// WeeklyCloseAboveMA: each of the last 2 weekly closes is above the weekly
// MA10, MA20 and MA30 of the same week. An undefined weekly MA30 resolves to
// true.
func WeeklyCloseAboveMA(s Snapshot) Condition {
	mas := [][]float64{s.weeklyMA(10), s.weeklyMA(20), s.weeklyMA(30)}
	if _, ok := indicator.Last(mas[2], 0); !ok {
		return degraded(s, CondWeeklyCloseAboveMA, true, "MA30 weekly is NaN, considering weekly close rule as true")
	}

	weekly := s.WeeklyCloses()
	for offset := 0; offset < 2; offset++ {
		c, ok := indicator.Last(weekly, offset)
		if !ok {
			return newCondition(CondWeeklyCloseAboveMA, false)
		}
		for _, ma := range mas {
			v, ok := indicator.Last(ma, offset)
			if !ok || !(c > v) {
				return newCondition(CondWeeklyCloseAboveMA, false)
			}
		}
	}
	return newCondition(CondWeeklyCloseAboveMA, true)
}

// BroadRange: over the last weeks weekly bars, (highest high / lowest low - 1)
// x 100 >= percentage.
func BroadRange(s Snapshot, weeks int, percentage float64) Condition {
	if weeks < 1 || len(s.Weekly) < weeks {
		return degraded(s, CondBroadRange, false, fmt.Sprintf("need %d weekly bars", weeks))
	}

	high, low := math.Inf(-1), math.Inf(1)
	for _, b := range s.Weekly[len(s.Weekly)-weeks:] {
		high = math.Max(high, b.High)
		low = math.Min(low, b.Low)
	}
	if low <= 0 {
		return degraded(s, CondBroadRange, false, "weekly low is not positive")
	}
	return newCondition(CondBroadRange, 100*(high/low-1) >= percentage)
}

// BullishSARs: the last weekly trend label is bullish (1)
func BullishSARs(s Snapshot) Condition {
	last, ok := lastBar(s.Weekly, 0)
	if !ok {
		return degraded(s, CondBullishSARs, false, "no weekly bars")
	}
	return newCondition(CondBullishSARs, last.Trend == 1)
}
