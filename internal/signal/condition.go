package signal

import (
	"github.com/illi4/asx-screener/pkg/indicator"
	"github.com/illi4/asx-screener/pkg/logger"
)

// Condition names
const (
	CondCloseHigher           = "close_higher"
	CondTDBullishDaily        = "td_bullish_daily"
	CondTDBullishWeekly       = "td_bullish_weekly"
	CondMAConsensio           = "ma_consensio"
	CondMARising              = "ma_rising"
	CondWeeklyNotOverextended = "weekly_not_overextended"
	CondLastCandleGreen       = "last_candle_green"
	CondUpperCondition        = "upper_condition"
	CondVolumeSpike           = "volume_spike"
	CondWeeklyCloseAboveMA    = "weekly_close_above_ma"
	CondStochRSIInRange       = "stoch_rsi_in_range"
	CondBroadRange            = "broad_range"
	CondRedDayClose           = "red_day_close"
	CondRedDayVolume          = "red_day_volume"
	CondMarketBelowMA200      = "market_below_ma200"
	CondMA10Decreasing        = "ma10_decreasing"
	CondPriceAboveMA          = "price_above_ma"
	CondRecentBullishCross    = "recent_bullish_cross"
	CondPriceCrossedMA        = "price_crossed_ma"
	CondTrigger               = "trigger"
	CondPriceGappedDown       = "price_gapped_down"
	CondCoppockPositive       = "coppock_positive"
	CondBullishSARs           = "bullish_sars"
)

// Condition is the outcome of one evaluator. Note explains an outcome that
// was not derived from the data (missing history, defaulted result) or
// carries extra detail such as a detected gap.
type Condition struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Note   string `json:"note,omitempty"`
}

func newCondition(name string, passed bool) Condition {
	return Condition{Name: name, Passed: passed}
}

// degraded resolves a condition that could not be computed from the data.
// The note is logged and counted; the evaluation carries on.
func degraded(s Snapshot, name string, passed bool, note string) Condition {
	logger.ForStock(s.Code).Info("-- note: "+note,
		logger.String("condition", name),
		logger.Bool("passed", passed),
	)
	logger.ConditionNotesTotal.WithLabelValues(name).Inc()
	return Condition{Name: name, Passed: passed, Note: note}
}

// defined reports whether every value is usable
func defined(values ...float64) bool {
	for _, v := range values {
		if !indicator.IsDefined(v) {
			return false
		}
	}
	return true
}
