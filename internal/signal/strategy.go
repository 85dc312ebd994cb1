package signal

import (
	"github.com/illi4/asx-screener/internal/config"
	"github.com/illi4/asx-screener/pkg/indicator"
	"github.com/illi4/asx-screener/pkg/logger"
)

// Strategy names
const (
	StrategyMRI             = "mri"
	StrategyLegacy          = "legacy"
	StrategyBreakout        = "breakout"
	StrategyANX             = "anx"
	StrategyEarningsGapDown = "earnings_gap_down"
	StrategyRedDayOnVolume  = "red_day_on_volume"
	StrategyMarketBearish   = "market_bearish"
)

// legacyUpperCandles is the fixed look-back of the legacy upper condition;
// higher_than_n_last_candles only tunes the MRI battery
const legacyUpperCandles = 10

// ANX trigger labels
const (
	TriggerBullishCross = "MA3/MA12 bullish cross"
	TriggerPriceCrossed = "Price crossed above MA12"
)

// BullishMRI is the primary 12-condition bullish strategy. The volume spike
// is forced true when f.ConsiderVolumeSpike is off. Scores round to whole
// numbers.
func BullishMRI(s Snapshot, f config.Filters) Result {
	return evaluate(StrategyMRI, s, func(s Snapshot) Result {
		volume := newCondition(CondVolumeSpike, true)
		if f.ConsiderVolumeSpike {
			volume = VolumeSpike(s, f.VolumeToAverage)
		}

		return aggregate(StrategyMRI, 0,
			TDBullishDaily(s),
			TDBullishWeekly(s),
			MAConsensio(s, ThreeMA),
			MARising(s, ThreeMA),
			WeeklyNotOverextended(s, f.OverextendedThresholdPercent),
			CloseHigher(s),
			volume,
			UpperCondition(s, f.HigherThanNLastCandles),
			LastCandleGreen(s),
			WeeklyCloseAboveMA(s),
			BroadRange(s, f.RangeOverWeeks, f.RangePercentage),
			StochRSIInRange(s),
		)
	})
}

// BullishBreakout is the 3-MA breakout on volume, evaluated as BullishMRI
func BullishBreakout(s Snapshot, f config.Filters) Result {
	r := BullishMRI(s, f)
	r.Strategy = StrategyBreakout
	return r
}

// LegacyBullish is the lighter 9-condition bullish check. Its volume spike
// compares against the plain 20-period average, the upper condition always
// looks back 10 candles and scores keep one decimal.
func LegacyBullish(s Snapshot, f config.Filters) Result {
	return evaluate(StrategyLegacy, s, func(s Snapshot) Result {
		volume := newCondition(CondVolumeSpike, true)
		if f.ConsiderVolumeSpike {
			volume = VolumeSpike(s, 1)
		}

		return aggregate(StrategyLegacy, 1,
			TDBullishDaily(s),
			TDBullishWeekly(s),
			MAConsensio(s, ThreeMA),
			MARising(s, ThreeMA),
			WeeklyNotOverextended(s, f.OverextendedThresholdPercent),
			CloseHigher(s),
			volume,
			UpperCondition(s, legacyUpperCandles),
			LastCandleGreen(s),
		)
	})
}

// BullishANX is the faster EMA3/EMA12 trigger strategy above the MA200. The
// score is always 5; Trigger names the condition that fired.
func BullishANX(s Snapshot, f config.Filters) Result {
	return evaluate(StrategyANX, s, func(s Snapshot) Result {
		cross := RecentBullishCross(s, 3, 12, indicator.Exponential)
		priceCross := PriceCrossedMA(s, 3, 12, indicator.Exponential)

		trigger := Condition{Name: CondTrigger, Passed: cross.Passed || priceCross.Passed}
		switch {
		case cross.Passed:
			trigger.Note = TriggerBullishCross
		case priceCross.Passed:
			trigger.Note = TriggerPriceCrossed
		}

		r := aggregate(StrategyANX, 0,
			PriceAboveMA(s, 200),
			trigger,
			WeeklyNotOverextended(s, f.OverextendedThresholdPercent),
		)
		r.Score = 5
		r.Trigger = trigger.Note
		return r
	})
}

// EarningsGapDown flags a gap down larger than f.EarningsGapThreshold.
// The score is 5 when confirmed and 0 otherwise.
func EarningsGapDown(s Snapshot, f config.Filters) Result {
	return evaluate(StrategyEarningsGapDown, s, func(s Snapshot) Result {
		return aggregate(StrategyEarningsGapDown, 0, PriceGappedDown(s, f.EarningsGapThreshold))
	})
}

// RedDayOnVolume: a red candle on at least average volume
func RedDayOnVolume(s Snapshot, _ config.Filters) Result {
	return evaluate(StrategyRedDayOnVolume, s, func(s Snapshot) Result {
		return aggregate(StrategyRedDayOnVolume, 0, RedDayClose(s), RedDayVolume(s))
	})
}

// MarketBearish is the bearish health check of a market index: close below
// the MA200 and a falling MA10.
func MarketBearish(s Snapshot, _ config.Filters) Result {
	return evaluate(StrategyMarketBearish, s, func(s Snapshot) Result {
		return aggregate(StrategyMarketBearish, 0, MarketBelowMA200(s), MA10Decreasing(s))
	})
}

// evaluate validates the snapshot, gives it a fresh indicator cache and
// records the outcome. An invalid snapshot yields an unconfirmed zero result.
func evaluate(strategy string, s Snapshot, fn func(Snapshot) Result) Result {
	log := logger.ForStock(s.Code)

	if err := s.Validate(); err != nil {
		log.Error("Invalid snapshot",
			logger.String("strategy", strategy),
			logger.ErrorField(err),
		)
		logger.ErrorsTotal.WithLabelValues("signal", "invalid_snapshot").Inc()
		return Result{Strategy: strategy}
	}

	r := fn(s.withFreshCache())

	outcome := "rejected"
	if r.Confirmed {
		outcome = "confirmed"
	}
	logger.EvaluationsTotal.WithLabelValues(strategy, outcome).Inc()
	log.Debug("Strategy evaluated",
		logger.String("strategy", strategy),
		logger.Bool("confirmed", r.Confirmed),
		logger.Float64("score", r.Score),
		logger.String("summary", r.Summary()),
	)
	return r
}
