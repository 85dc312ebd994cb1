package signal

import (
	"math"

	"github.com/illi4/asx-screener/pkg/indicator"
)

// stochRSICeiling is the level at or above which the stochastic RSI is
// treated as overbought
const stochRSICeiling = 0.9

// StochRSIInRange: max(last %K, last %D) < 0.9
func StochRSIInRange(s Snapshot) Condition {
	k, d := s.Cache.StochRSI(sourceDailyClose, s.DailyCloses())
	lastK, ok1 := indicator.Last(k, 0)
	lastD, ok2 := indicator.Last(d, 0)
	if !ok1 || !ok2 {
		return degraded(s, CondStochRSIInRange, false, "stochastic RSI is undefined")
	}
	return newCondition(CondStochRSIInRange, math.Max(lastK, lastD) < stochRSICeiling)
}

// CoppockPositive: the last daily and the last weekly Coppock values are
// both above zero.
func CoppockPositive(s Snapshot) Condition {
	daily, ok1 := indicator.Last(s.Cache.Coppock(sourceDailyClose, s.DailyCloses()), 0)
	weekly, ok2 := indicator.Last(s.Cache.Coppock(sourceWeeklyClose, s.WeeklyCloses()), 0)
	if !ok1 || !ok2 {
		return degraded(s, CondCoppockPositive, false, "coppock curve is undefined")
	}
	return newCondition(CondCoppockPositive, daily > 0 && weekly > 0)
}
