package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Filters holds the tuning options read by the condition evaluators.
// Every field has a default, so a missing option never stops an evaluation.
type Filters struct {
	OverextendedThresholdPercent float64 `yaml:"overextended_threshold_percent"`
	VolumeToAverage              float64 `yaml:"volume_to_average"`
	HigherThanNLastCandles       int     `yaml:"higher_than_n_last_candles"`
	RangeOverWeeks               int     `yaml:"range_over_weeks"`
	RangePercentage              float64 `yaml:"range_percentage"`
	EarningsGapThreshold         float64 `yaml:"earnings_gap_threshold"`
	StocksOnly                   bool    `yaml:"stocks_only"`
	ConsiderVolumeSpike          bool    `yaml:"consider_volume_spike"`
	PriceMin                     float64 `yaml:"price_min"`
	PriceMax                     float64 `yaml:"price_max"`
	MinVolume                    float64 `yaml:"min_volume"`
}

// DefaultFilters returns the documented defaults
func DefaultFilters() Filters {
	return Filters{
		OverextendedThresholdPercent: 10,
		VolumeToAverage:              1.0,
		HigherThanNLastCandles:       10,
		RangeOverWeeks:               4,
		RangePercentage:              10,
		EarningsGapThreshold:         0.05,
		StocksOnly:                   true,
		ConsiderVolumeSpike:          true,
		PriceMin:                     0.01,
		PriceMax:                     1e9,
		MinVolume:                    0,
	}
}

type filtersFile struct {
	Filters Filters `yaml:"filters"`
}

// LoadFilters reads the `filters:` section of a YAML file on top of the
// defaults, then applies FILTER_* environment overrides. A missing file is not
// an error.
func LoadFilters(path string) (Filters, error) {
	file := filtersFile{Filters: DefaultFilters()}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return Filters{}, fmt.Errorf("read filters file: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, &file); err != nil {
				return Filters{}, fmt.Errorf("parse filters file: %w", err)
			}
		}
	}

	f := file.Filters
	f.OverextendedThresholdPercent = getEnvAsFloat("FILTER_OVEREXTENDED_THRESHOLD_PERCENT", f.OverextendedThresholdPercent)
	f.VolumeToAverage = getEnvAsFloat("FILTER_VOLUME_TO_AVERAGE", f.VolumeToAverage)
	f.HigherThanNLastCandles = getEnvAsInt("FILTER_HIGHER_THAN_N_LAST_CANDLES", f.HigherThanNLastCandles)
	f.RangeOverWeeks = getEnvAsInt("FILTER_RANGE_OVER_WEEKS", f.RangeOverWeeks)
	f.RangePercentage = getEnvAsFloat("FILTER_RANGE_PERCENTAGE", f.RangePercentage)
	f.EarningsGapThreshold = getEnvAsFloat("FILTER_EARNINGS_GAP_THRESHOLD", f.EarningsGapThreshold)
	f.StocksOnly = getEnvAsBool("FILTER_STOCKS_ONLY", f.StocksOnly)
	f.ConsiderVolumeSpike = getEnvAsBool("FILTER_CONSIDER_VOLUME_SPIKE", f.ConsiderVolumeSpike)
	f.PriceMin = getEnvAsFloat("FILTER_PRICE_MIN", f.PriceMin)
	f.PriceMax = getEnvAsFloat("FILTER_PRICE_MAX", f.PriceMax)
	f.MinVolume = getEnvAsFloat("FILTER_MIN_VOLUME", f.MinVolume)

	return f, nil
}

// Validate validates the filter values
func (f Filters) Validate() error {
	if f.OverextendedThresholdPercent < 0 {
		return fmt.Errorf("overextended_threshold_percent must not be negative")
	}
	if f.VolumeToAverage <= 0 {
		return fmt.Errorf("volume_to_average must be positive")
	}
	if f.HigherThanNLastCandles < 1 {
		return fmt.Errorf("higher_than_n_last_candles must be at least 1")
	}
	if f.RangeOverWeeks < 1 {
		return fmt.Errorf("range_over_weeks must be at least 1")
	}
	if f.EarningsGapThreshold < 0 {
		return fmt.Errorf("earnings_gap_threshold must not be negative")
	}
	if f.PriceMax <= f.PriceMin {
		return fmt.Errorf("price_max must be greater than price_min")
	}
	return nil
}
