package signal

import (
	"fmt"

	"github.com/illi4/asx-screener/internal/models"
	"github.com/illi4/asx-screener/pkg/indicator"
)

// MAMode selects which daily moving averages take part in the trend checks
type MAMode int

const (
	// ThreeMA uses MA10, MA20 and MA30
	ThreeMA MAMode = 3
	// TwoMA uses MA10 and MA30 only
	TwoMA MAMode = 2
)

func (m MAMode) lengths() []int {
	if m == TwoMA {
		return []int{10, 30}
	}
	return []int{10, 20, 30}
}

// CloseHigher: last close > previous close
func CloseHigher(s Snapshot) Condition {
	last, ok1 := lastBar(s.Daily, 0)
	prev, ok2 := lastBar(s.Daily, 1)
	if !ok1 || !ok2 {
		return degraded(s, CondCloseHigher, false, "need at least 2 daily bars")
	}
	return newCondition(CondCloseHigher, last.Close > prev.Close)
}

// TDBullishDaily: the most recent daily directional label is green
func TDBullishDaily(s Snapshot) Condition {
	return tdBullish(s, s.Daily, CondTDBullishDaily)
}

// TDBullishWeekly: the most recent weekly directional label is green
func TDBullishWeekly(s Snapshot) Condition {
	return tdBullish(s, s.Weekly, CondTDBullishWeekly)
}

func tdBullish(s Snapshot, bars []models.Bar, name string) Condition {
	last, ok := lastBar(bars, 0)
	if !ok {
		return degraded(s, name, false, "no bars to read the directional label from")
	}
	return newCondition(name, last.TDDirection == models.DirectionGreen)
}

// MAConsensio: the daily moving averages are stacked fast > slow. ThreeMA
// requires MA10 > MA20 > MA30, TwoMA requires MA10 > MA30. An undefined MA30
// resolves to false.
func MAConsensio(s Snapshot, mode MAMode) Condition {
	lengths := mode.lengths()
	latest := make([]float64, len(lengths))
	for i, length := range lengths {
		latest[i], _ = indicator.Last(s.dailyMA(length, indicator.Simple), 0)
	}

	if !defined(latest[len(latest)-1]) {
		return degraded(s, CondMAConsensio, false, "MA30 is NaN, the stock is too new")
	}
	if !defined(latest...) {
		return degraded(s, CondMAConsensio, false, "fast moving average is undefined")
	}

	for i := 1; i < len(latest); i++ {
		if !(latest[i-1] > latest[i]) {
			return newCondition(CondMAConsensio, false)
		}
	}
	return newCondition(CondMAConsensio, true)
}

// MARising: every considered MA is at or above its value 2 periods ago
func MARising(s Snapshot, mode MAMode) Condition {
	for _, length := range mode.lengths() {
		ma := s.dailyMA(length, indicator.Simple)
		now, ok1 := indicator.Last(ma, 0)
		before, ok2 := indicator.Last(ma, 2)
		if !ok1 || !ok2 {
			return degraded(s, CondMARising, false, fmt.Sprintf("%s is undefined 2 periods back", indicator.Label(length)))
		}
		if now < before {
			return newCondition(CondMARising, false)
		}
	}
	return newCondition(CondMARising, true)
}

// PriceAboveMA: last close > simple MA(length)
func PriceAboveMA(s Snapshot, length int) Condition {
	name := CondPriceAboveMA + fmt.Sprint(length)
	last, ok := lastBar(s.Daily, 0)
	ma, okMA := indicator.Last(s.dailyMA(length, indicator.Simple), 0)
	if !ok || !okMA {
		return degraded(s, name, false, fmt.Sprintf("%s is undefined", indicator.Label(length)))
	}
	return newCondition(name, last.Close > ma)
}

// RecentBullishCross: the fast MA is above the slow MA now and was below it
// one period ago.
func RecentBullishCross(s Snapshot, fast, slow int, maType indicator.MAType) Condition {
	f := s.dailyMA(fast, maType)
	sl := s.dailyMA(slow, maType)

	fNow, ok1 := indicator.Last(f, 0)
	sNow, ok2 := indicator.Last(sl, 0)
	fPrev, ok3 := indicator.Last(f, 1)
	sPrev, ok4 := indicator.Last(sl, 1)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return degraded(s, CondRecentBullishCross, false,
			fmt.Sprintf("%s/%s undefined over the last 2 periods", indicator.Label(fast), indicator.Label(slow)))
	}
	return newCondition(CondRecentBullishCross, fNow > sNow && fPrev < sPrev)
}

// PriceCrossedMA: the previous low was below the slow MA, the current candle
// is green and closed above the slow MA, and the fast MA has been above the
// slow MA both one period ago and now.
func PriceCrossedMA(s Snapshot, fast, slow int, maType indicator.MAType) Condition {
	last, ok1 := lastBar(s.Daily, 0)
	prev, ok2 := lastBar(s.Daily, 1)
	if !ok1 || !ok2 {
		return degraded(s, CondPriceCrossedMA, false, "need at least 2 daily bars")
	}

	f := s.dailyMA(fast, maType)
	sl := s.dailyMA(slow, maType)
	fNow, ok3 := indicator.Last(f, 0)
	sNow, ok4 := indicator.Last(sl, 0)
	fPrev, ok5 := indicator.Last(f, 1)
	sPrev, ok6 := indicator.Last(sl, 1)
	if !ok3 || !ok4 || !ok5 || !ok6 {
		return degraded(s, CondPriceCrossedMA, false,
			fmt.Sprintf("%s/%s undefined over the last 2 periods", indicator.Label(fast), indicator.Label(slow)))
	}

	prevLowBelow := prev.Low < sPrev
	closeAbove := last.Close > sNow
	aboveBefore := fPrev > sPrev
	aboveNow := fNow > sNow

	return newCondition(CondPriceCrossedMA, prevLowBelow && closeAbove && last.IsGreen() && aboveBefore && aboveNow)
}

// MarketBelowMA200: last close < simple MA200
func MarketBelowMA200(s Snapshot) Condition {
	last, ok := lastBar(s.Daily, 0)
	ma, okMA := indicator.Last(s.dailyMA(200, indicator.Simple), 0)
	if !ok || !okMA {
		return degraded(s, CondMarketBelowMA200, false, "ma200 is undefined")
	}
	return newCondition(CondMarketBelowMA200, last.Close < ma)
}

// MA10Decreasing: MA10 is strictly below its value 1, 2 and 4 periods ago
func MA10Decreasing(s Snapshot) Condition {
	ma := s.dailyMA(10, indicator.Simple)
	now, ok := indicator.Last(ma, 0)
	if !ok {
		return degraded(s, CondMA10Decreasing, false, "ma10 is undefined")
	}
	for _, offset := range []int{1, 2, 4} {
		before, ok := indicator.Last(ma, offset)
		if !ok {
			return degraded(s, CondMA10Decreasing, false, fmt.Sprintf("ma10 is undefined %d periods back", offset))
		}
		if !(now < before) {
			return newCondition(CondMA10Decreasing, false)
		}
	}
	return newCondition(CondMA10Decreasing, true)
}
