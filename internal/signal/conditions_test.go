package signal

import (
	"testing"

	"github.com/illi4/asx-screener/internal/models"
	"github.com/illi4/asx-screener/pkg/indicator"
	"github.com/illi4/asx-screener/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(nil) })
	return logs
}

func TestInsufficientHistoryResolvesFalse(t *testing.T) {
	s := Snapshot{
		Code:   "NEW",
		Daily:  []models.Bar{bar(0, 1, 1.1)},
		Weekly: []models.Bar{bar(0, 1, 1.1)},
	}
	f := filters()

	tests := []struct {
		name string
		eval func(Snapshot) Condition
	}{
		{"close higher", CloseHigher},
		{"consensio 3", func(s Snapshot) Condition { return MAConsensio(s, ThreeMA) }},
		{"consensio 2", func(s Snapshot) Condition { return MAConsensio(s, TwoMA) }},
		{"ma rising", func(s Snapshot) Condition { return MARising(s, ThreeMA) }},
		{"weekly not overextended", func(s Snapshot) Condition { return WeeklyNotOverextended(s, f.OverextendedThresholdPercent) }},
		{"upper condition", func(s Snapshot) Condition { return UpperCondition(s, f.HigherThanNLastCandles) }},
		{"volume spike", func(s Snapshot) Condition { return VolumeSpike(s, f.VolumeToAverage) }},
		{"stoch rsi", StochRSIInRange},
		{"broad range", func(s Snapshot) Condition { return BroadRange(s, f.RangeOverWeeks, f.RangePercentage) }},
		{"red day volume", RedDayVolume},
		{"market below ma200", MarketBelowMA200},
		{"ma10 decreasing", MA10Decreasing},
		{"price above ma200", func(s Snapshot) Condition { return PriceAboveMA(s, 200) }},
		{"bullish cross", func(s Snapshot) Condition { return RecentBullishCross(s, 3, 12, indicator.Exponential) }},
		{"price crossed", func(s Snapshot) Condition { return PriceCrossedMA(s, 3, 12, indicator.Exponential) }},
		{"gap down", func(s Snapshot) Condition { return PriceGappedDown(s, f.EarningsGapThreshold) }},
		{"coppock", CoppockPositive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Condition
			require.NotPanics(t, func() { c = tt.eval(s) })
			assert.False(t, c.Passed)
			assert.NotEmpty(t, c.Note)
		})
	}
}

func TestEmptySeriesResolveFalse(t *testing.T) {
	s := Snapshot{Code: "NIL"}

	for _, c := range []Condition{
		TDBullishDaily(s),
		TDBullishWeekly(s),
		LastCandleGreen(s),
		RedDayClose(s),
		BullishSARs(s),
	} {
		assert.False(t, c.Passed, c.Name)
		assert.NotEmpty(t, c.Note, c.Name)
	}
}

func TestCloseHigher(t *testing.T) {
	up := Snapshot{Daily: trendBars(5, 10, 0.1)}
	down := Snapshot{Daily: trendBars(5, 10, -0.1)}

	assert.True(t, CloseHigher(up).Passed)
	assert.False(t, CloseHigher(down).Passed)
}

func TestTDBullish(t *testing.T) {
	daily := trendBars(3, 10, 0.1)
	weekly := weeklyBars(3)
	daily[2].TDDirection = models.DirectionGreen
	weekly[1].TDDirection = models.DirectionGreen
	weekly[2].TDDirection = models.DirectionRed
	s := Snapshot{Daily: daily, Weekly: weekly}

	assert.True(t, TDBullishDaily(s).Passed)
	// only the most recent label counts
	assert.False(t, TDBullishWeekly(s).Passed)
}

func TestMAConsensio(t *testing.T) {
	t.Run("three MAs stacked", func(t *testing.T) {
		s := Snapshot{Daily: trendBars(40, 10, 0.1)}
		assert.True(t, MAConsensio(s, ThreeMA).Passed)
		assert.True(t, MAConsensio(s, TwoMA).Passed)
	})

	t.Run("downtrend", func(t *testing.T) {
		s := Snapshot{Daily: trendBars(40, 20, -0.1)}
		assert.False(t, MAConsensio(s, ThreeMA).Passed)
		assert.False(t, MAConsensio(s, TwoMA).Passed)
	})

	t.Run("MA30 undefined", func(t *testing.T) {
		logs := observeLogs(t)

		// MA10 > MA20 on 29 rising bars, but MA30 needs 30
		s := Snapshot{Code: "YNG", Daily: trendBars(29, 10, 0.1)}
		ma10, _ := indicator.Last(indicator.SMA(s.DailyCloses(), 10), 0)
		ma20, _ := indicator.Last(indicator.SMA(s.DailyCloses(), 20), 0)
		require.Greater(t, ma10, ma20)

		c := MAConsensio(s, ThreeMA)
		assert.False(t, c.Passed)
		assert.Contains(t, c.Note, "MA30 is NaN")

		entries := logs.FilterField(zap.String("condition", CondMAConsensio)).All()
		require.Len(t, entries, 1)
		assert.Equal(t, "YNG", entries[0].ContextMap()["stock"])
		assert.Equal(t, false, entries[0].ContextMap()["passed"])
	})
}

func TestMARising(t *testing.T) {
	assert.True(t, MARising(Snapshot{Daily: trendBars(40, 10, 0.1)}, ThreeMA).Passed)
	assert.False(t, MARising(Snapshot{Daily: trendBars(40, 20, -0.1)}, TwoMA).Passed)

	// flat MAs count as rising (>=)
	assert.True(t, MARising(Snapshot{Daily: trendBars(40, 10, 0)}, ThreeMA).Passed)
}

func TestWeeklyNotOverextended(t *testing.T) {
	weekly := weeklyBars(6)
	s := Snapshot{Weekly: weekly}
	assert.True(t, WeeklyNotOverextended(s, 10).Passed)

	// 15% above the fourth bar from the end
	weekly[5].Close = weekly[2].Close * 1.15
	assert.False(t, WeeklyNotOverextended(s, 10).Passed)
	assert.True(t, WeeklyNotOverextended(s, 20).Passed)
}

func TestLastCandleGreenAndRedDayClose(t *testing.T) {
	green := Snapshot{Daily: []models.Bar{bar(0, 10, 11)}}
	red := Snapshot{Daily: []models.Bar{bar(0, 11, 10)}}
	doji := Snapshot{Daily: []models.Bar{bar(0, 10, 10)}}

	assert.True(t, LastCandleGreen(green).Passed)
	assert.False(t, RedDayClose(green).Passed)
	assert.False(t, LastCandleGreen(red).Passed)
	assert.True(t, RedDayClose(red).Passed)
	assert.False(t, LastCandleGreen(doji).Passed)
	assert.False(t, RedDayClose(doji).Passed)
}

func TestUpperCondition(t *testing.T) {
	daily := trendBars(15, 10, 0.1)
	s := Snapshot{Daily: daily}
	assert.True(t, UpperCondition(s, 10).Passed)

	// a tall body 8 bars back that the last close does not clear
	daily[len(daily)-9].Open = 20
	assert.False(t, UpperCondition(s, 10).Passed)
	// outside a shorter window it no longer matters
	assert.True(t, UpperCondition(s, 5).Passed)

	// the last bar itself is excluded
	daily = trendBars(15, 10, 0.1)
	daily[len(daily)-1].Open = 50
	assert.True(t, UpperCondition(Snapshot{Daily: daily}, 10).Passed)
}

func TestUpperCondition_DoesNotTouchInput(t *testing.T) {
	daily := trendBars(15, 10, 0.1)
	before := append([]models.Bar(nil), daily...)

	UpperCondition(Snapshot{Daily: daily}, 10)
	assert.Equal(t, before, daily)
}

func TestVolumeSpike(t *testing.T) {
	daily := trendBars(30, 10, 0.1)
	daily[len(daily)-1].Volume = 2000
	s := Snapshot{Daily: daily}

	// MA20 = (19*1000 + 2000) / 20 = 1050
	assert.True(t, VolumeSpike(s, 1.0).Passed)
	assert.True(t, VolumeSpike(s, 1.9).Passed)
	assert.False(t, VolumeSpike(s, 2.0).Passed)

	// the explicit volume series wins over the bars
	s.Volume = repeat(1000, 30)
	s.Volume[29] = 900
	assert.False(t, VolumeSpike(s, 1.0).Passed)
	assert.False(t, RedDayVolume(s).Passed)
}

func TestVolumeSpike_TooShort(t *testing.T) {
	logs := observeLogs(t)

	c := VolumeSpike(Snapshot{Code: "SHT", Daily: trendBars(19, 10, 0.1)}, 1)
	assert.False(t, c.Passed)
	assert.Equal(t, "Issue indexing volume", c.Note)
	assert.Equal(t, 1, logs.FilterField(zap.String("condition", CondVolumeSpike)).Len())
}

func TestWeeklyCloseAboveMA(t *testing.T) {
	t.Run("rising weeks", func(t *testing.T) {
		assert.True(t, WeeklyCloseAboveMA(Snapshot{Weekly: weeklyBars(40)}).Passed)
	})

	t.Run("previous week below", func(t *testing.T) {
		weekly := weeklyBars(40)
		weekly[38].Close = 1
		assert.False(t, WeeklyCloseAboveMA(Snapshot{Weekly: weekly}).Passed)
	})

	t.Run("MA30 weekly undefined defaults true", func(t *testing.T) {
		weekly := trendBars(20, 20, -0.5)
		c := WeeklyCloseAboveMA(Snapshot{Weekly: weekly})
		assert.True(t, c.Passed)
		assert.Contains(t, c.Note, "MA30 weekly is NaN")
	})
}

func TestStochRSIInRange(t *testing.T) {
	assert.True(t, StochRSIInRange(breakoutSnapshot()).Passed)

	// closes that only go up keep the oscillator pinned at the top
	assert.False(t, StochRSIInRange(climbSnapshot()).Passed)
}

func TestBroadRange(t *testing.T) {
	weekly := []models.Bar{
		{Timestamp: day0, Open: 10, High: 10.5, Low: 9.8, Close: 10},
		{Timestamp: day0.AddDate(0, 0, 7), Open: 10, High: 10.4, Low: 9.9, Close: 10.2},
		{Timestamp: day0.AddDate(0, 0, 14), Open: 10.2, High: 10.6, Low: 10, Close: 10.5},
		{Timestamp: day0.AddDate(0, 0, 21), Open: 10.5, High: 10.7, Low: 10.1, Close: 10.6},
	}
	s := Snapshot{Weekly: weekly}

	// 10.7 / 9.8 - 1 = 9.18%
	assert.False(t, BroadRange(s, 4, 10).Passed)
	assert.True(t, BroadRange(s, 4, 9).Passed)
	// the last 2 weeks only: 10.7 / 10 - 1 = 7%
	assert.False(t, BroadRange(s, 2, 9).Passed)
	assert.False(t, BroadRange(s, 5, 1).Passed)
}

func TestMarketBearishConditions(t *testing.T) {
	down := Snapshot{Daily: trendBars(230, 30, -0.05)}
	assert.True(t, MarketBelowMA200(down).Passed)
	assert.True(t, MA10Decreasing(down).Passed)

	up := Snapshot{Daily: trendBars(230, 10, 0.05)}
	assert.False(t, MarketBelowMA200(up).Passed)
	assert.False(t, MA10Decreasing(up).Passed)
}

func TestPriceAboveMA(t *testing.T) {
	c := PriceAboveMA(Snapshot{Daily: trendBars(230, 10, 0.05)}, 200)
	assert.Equal(t, "price_above_ma200", c.Name)
	assert.True(t, c.Passed)
	assert.False(t, PriceAboveMA(Snapshot{Daily: trendBars(230, 30, -0.05)}, 200).Passed)
}

func TestRecentBullishCross(t *testing.T) {
	t.Run("fresh cross", func(t *testing.T) {
		daily := appendMoves(trendBars(220, 10, 0.05), -0.3, -0.3, -0.3, -0.3, -0.3, 2.0)
		assert.True(t, RecentBullishCross(Snapshot{Daily: daily}, 3, 12, indicator.Exponential).Passed)
	})

	t.Run("already above", func(t *testing.T) {
		daily := trendBars(230, 10, 0.05)
		assert.False(t, RecentBullishCross(Snapshot{Daily: daily}, 3, 12, indicator.Exponential).Passed)
	})

	t.Run("still below", func(t *testing.T) {
		daily := appendMoves(trendBars(220, 10, 0.05), -0.3, -0.3, -0.3, -0.3, -0.3, 1.2)
		assert.False(t, RecentBullishCross(Snapshot{Daily: daily}, 3, 12, indicator.Exponential).Passed)
	})
}

func TestPriceCrossedMA(t *testing.T) {
	daily := trendBars(230, 10, 0.05)
	s := Snapshot{Daily: daily}
	assert.False(t, PriceCrossedMA(s, 3, 12, indicator.Exponential).Passed)

	// the previous candle wicked below the slow MA and the trend held
	daily[len(daily)-2].Low = daily[len(daily)-2].Close - 1
	assert.True(t, PriceCrossedMA(s, 3, 12, indicator.Exponential).Passed)

	// a red last candle does not count
	last := &daily[len(daily)-1]
	last.Open = last.Close + 0.01
	assert.False(t, PriceCrossedMA(s, 3, 12, indicator.Exponential).Passed)
}

func TestPriceGappedDown(t *testing.T) {
	logs := observeLogs(t)

	s := Snapshot{Code: "GAP", Daily: []models.Bar{
		{Timestamp: day0, Open: 10.5, High: 10.6, Low: 9.9, Close: 10.0},
		{Timestamp: day0.AddDate(0, 0, 1), Open: 9.0, High: 9.4, Low: 8.9, Close: 9.2},
	}}

	c := PriceGappedDown(s, 0.05)
	assert.True(t, c.Passed)
	assert.Contains(t, c.Note, "10.0%")
	assert.Contains(t, c.Note, "$10.00")
	assert.Contains(t, c.Note, "$9.00")
	entries := logs.FilterMessageSnippet("gap down detected").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.InDelta(t, 0.1, fields["gap"], 1e-9)
	assert.Equal(t, 10.0, fields["previous_lowest"])
	assert.Equal(t, 9.0, fields["current_lowest"])

	assert.False(t, PriceGappedDown(s, 0.10).Passed)
	assert.False(t, PriceGappedDown(s, 0.2).Passed)
}

func TestCoppockPositive(t *testing.T) {
	s := Snapshot{Daily: trendBars(60, 10, 0.1), Weekly: weeklyBars(40)}
	assert.True(t, CoppockPositive(s).Passed)

	s.Daily = trendBars(60, 20, -0.1)
	assert.False(t, CoppockPositive(s).Passed)

	// weekly curve needs 24 weeks
	s = Snapshot{Daily: trendBars(60, 10, 0.1), Weekly: weeklyBars(20)}
	c := CoppockPositive(s)
	assert.False(t, c.Passed)
	assert.NotEmpty(t, c.Note)
}

func TestBullishSARs(t *testing.T) {
	weekly := weeklyBars(3)
	assert.True(t, BullishSARs(Snapshot{Weekly: weekly}).Passed)

	weekly[2].Trend = -1
	assert.False(t, BullishSARs(Snapshot{Weekly: weekly}).Passed)
}
