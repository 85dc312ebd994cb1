package signal

import (
	"fmt"

	"github.com/illi4/asx-screener/pkg/logger"
)

// LastCandleGreen: last close > last open
func LastCandleGreen(s Snapshot) Condition {
	last, ok := lastBar(s.Daily, 0)
	if !ok {
		return degraded(s, CondLastCandleGreen, false, "no daily bars")
	}
	return newCondition(CondLastCandleGreen, last.IsGreen())
}

// RedDayClose: last close < last open
func RedDayClose(s Snapshot) Condition {
	last, ok := lastBar(s.Daily, 0)
	if !ok {
		return degraded(s, CondRedDayClose, false, "no daily bars")
	}
	return newCondition(CondRedDayClose, last.IsRed())
}

// UpperCondition: the last close is above the candle body of each of the n
// daily bars before it.
func UpperCondition(s Snapshot, n int) Condition {
	if n < 1 || len(s.Daily) < n+1 {
		return degraded(s, CondUpperCondition, false, fmt.Sprintf("need %d daily bars to compare the last close with", n+1))
	}

	recent := s.Daily[len(s.Daily)-1].Close
	window := s.Daily[len(s.Daily)-1-n : len(s.Daily)-1]
	for i := range window {
		if !(window[i].BodyUpper() < recent) {
			return newCondition(CondUpperCondition, false)
		}
	}
	return newCondition(CondUpperCondition, true)
}

// PriceGappedDown: the lower end of the last candle body is more than
// threshold (a fraction, 0.05 = 5%) below the lower end of the previous body.
func PriceGappedDown(s Snapshot, threshold float64) Condition {
	last, ok1 := lastBar(s.Daily, 0)
	prev, ok2 := lastBar(s.Daily, 1)
	if !ok1 || !ok2 {
		return degraded(s, CondPriceGappedDown, false, "need at least 2 daily bars")
	}

	previousLowest := prev.BodyLower()
	currentLowest := last.BodyLower()
	if previousLowest <= 0 {
		return degraded(s, CondPriceGappedDown, false, "previous candle body is not positive")
	}

	gap := (previousLowest - currentLowest) / previousLowest
	if !(gap > threshold) {
		return newCondition(CondPriceGappedDown, false)
	}

	note := fmt.Sprintf("gap down detected: %.1f%% | previous lowest (open/close): $%.2f | current lowest: $%.2f",
		gap*100, previousLowest, currentLowest)
	logger.ForStock(s.Code).Info(note,
		logger.Float64("gap", gap),
		logger.Float64("previous_lowest", previousLowest),
		logger.Float64("current_lowest", currentLowest),
	)
	return Condition{Name: CondPriceGappedDown, Passed: true, Note: note}
}
