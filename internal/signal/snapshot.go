package signal

import (
	"fmt"

	"github.com/illi4/asx-screener/internal/models"
	"github.com/illi4/asx-screener/pkg/indicator"
)

// Indicator sources used as cache keys
const (
	sourceDailyClose  = "daily.close"
	sourceDailyVolume = "daily.volume"
	sourceWeeklyClose = "weekly.close"
)

// Snapshot is the input of one evaluation: daily and weekly bars of a stock
// ending at the as-of period. Evaluators only read from it.
type Snapshot struct {
	Code   string
	Daily  []models.Bar
	Weekly []models.Bar

	// Volume optionally overrides the volume column of Daily. It must be
	// aligned with Daily when set.
	Volume []float64

	// Cache memoizes indicators for this snapshot only. nil disables memoizing.
	Cache *indicator.Cache
}

// Validate reports structurally invalid input: no daily bars, bars out of
// order or a volume series that does not line up with the daily bars.
func (s Snapshot) Validate() error {
	if err := models.ValidateSeries(s.Daily); err != nil {
		return fmt.Errorf("daily: %w", err)
	}
	if len(s.Weekly) > 0 {
		if err := models.ValidateSeries(s.Weekly); err != nil {
			return fmt.Errorf("weekly: %w", err)
		}
	}
	if s.Volume != nil && len(s.Volume) != len(s.Daily) {
		return fmt.Errorf("volume has %d values for %d daily bars: %w", len(s.Volume), len(s.Daily), models.ErrMisaligned)
	}
	return nil
}

// withFreshCache returns a copy of the snapshot carrying a new cache
func (s Snapshot) withFreshCache() Snapshot {
	s.Cache = indicator.NewCache()
	return s
}

// DailyCloses returns the daily close column
func (s Snapshot) DailyCloses() []float64 {
	return closes(s.Daily)
}

// WeeklyCloses returns the weekly close column
func (s Snapshot) WeeklyCloses() []float64 {
	return closes(s.Weekly)
}

// Volumes returns the daily volume series
func (s Snapshot) Volumes() []float64 {
	if s.Volume != nil {
		return s.Volume
	}
	out := make([]float64, len(s.Daily))
	for i := range s.Daily {
		out[i] = s.Daily[i].Volume
	}
	return out
}

// dailyMA returns a moving average of the daily closes
func (s Snapshot) dailyMA(length int, maType indicator.MAType) []float64 {
	return s.Cache.MovingAverage(sourceDailyClose, s.DailyCloses(), length, maType)
}

// weeklyMA returns a simple moving average of the weekly closes
func (s Snapshot) weeklyMA(length int) []float64 {
	return s.Cache.MovingAverage(sourceWeeklyClose, s.WeeklyCloses(), length, indicator.Simple)
}

// volumeMA returns a simple moving average of the daily volume
func (s Snapshot) volumeMA(length int) []float64 {
	return s.Cache.MovingAverage(sourceDailyVolume, s.Volumes(), length, indicator.Simple)
}

// lastBar returns the bar offset periods before the most recent one
func lastBar(bars []models.Bar, offset int) (models.Bar, bool) {
	idx := len(bars) - 1 - offset
	if offset < 0 || idx < 0 {
		return models.Bar{}, false
	}
	return bars[idx], true
}

func closes(bars []models.Bar) []float64 {
	out := make([]float64, len(bars))
	for i := range bars {
		out[i] = bars[i].Close
	}
	return out
}
