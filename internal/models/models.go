package models

import (
	"time"
)

// Directional count labels attached to bars by the TD labeller
const (
	DirectionGreen = "green"
	DirectionRed   = "red"
)

// StockTypeCommon is the instrument type kept when only stocks are scanned
const StockTypeCommon = "Common Stock"

// Bar represents one OHLC period (a trading day, a week or a month)
type Bar struct {
	Timestamp   time.Time `json:"timestamp"`
	Open        float64   `json:"open"`
	High        float64   `json:"high"`
	Low         float64   `json:"low"`
	Close       float64   `json:"close"`
	Volume      float64   `json:"volume"`
	TDDirection string    `json:"td_direction,omitempty"` // "green", "red" or empty
	Trend       int       `json:"trend,omitempty"`        // 1 bullish, -1 bearish, 0 unknown
}

// Validate validates a Bar
func (b *Bar) Validate() error {
	if b.Timestamp.IsZero() {
		return ErrInvalidTimestamp
	}
	if b.Open <= 0 || b.Close <= 0 || b.Low <= 0 {
		return ErrInvalidPrice
	}
	if b.High < b.Low {
		return ErrInvalidBar
	}
	if b.Volume < 0 {
		return ErrInvalidVolume
	}
	return nil
}

// BodyUpper returns the top of the candle body, max(open, close)
func (b *Bar) BodyUpper() float64 {
	if b.Open > b.Close {
		return b.Open
	}
	return b.Close
}

// BodyLower returns the bottom of the candle body, min(open, close)
func (b *Bar) BodyLower() float64 {
	if b.Open < b.Close {
		return b.Open
	}
	return b.Close
}

// IsGreen reports whether the candle closed above its open
func (b *Bar) IsGreen() bool {
	return b.Close > b.Open
}

// IsRed reports whether the candle closed below its open
func (b *Bar) IsRed() bool {
	return b.Close < b.Open
}

// ValidateSeries checks that bars are non-empty and strictly chronological
func ValidateSeries(bars []Bar) error {
	if len(bars) == 0 {
		return ErrNoBars
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i].Timestamp.After(bars[i-1].Timestamp) {
			return ErrUnorderedBars
		}
	}
	return nil
}

// Stock is an instrument listed on an exchange
type Stock struct {
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
	Exchange  string    `json:"exchange"`
	Type      string    `json:"type,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate validates a Stock
func (s *Stock) Validate() error {
	if s.Code == "" {
		return ErrInvalidSymbol
	}
	if s.Price < 0 {
		return ErrInvalidPrice
	}
	if s.Volume < 0 {
		return ErrInvalidVolume
	}
	return nil
}

// Signal is a persisted strategy result for a stock as of a date
type Signal struct {
	ID        string    `json:"id"`
	ScanID    string    `json:"scan_id,omitempty"`
	Code      string    `json:"code"`
	Strategy  string    `json:"strategy"`
	AsOf      time.Time `json:"as_of"`
	Confirmed bool      `json:"confirmed"`
	Score     float64   `json:"score"`
	Trigger   string    `json:"trigger,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	Close     float64   `json:"close"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate validates a Signal
func (s *Signal) Validate() error {
	if s.ID == "" {
		return ErrInvalidSignalID
	}
	if s.Code == "" {
		return ErrInvalidSymbol
	}
	if s.Strategy == "" {
		return ErrInvalidStrategy
	}
	if s.AsOf.IsZero() {
		return ErrInvalidTimestamp
	}
	return nil
}
