package models

import (
	"testing"
	"time"
)

func TestBar_Validate(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		bar     *Bar
		wantErr error
	}{
		{
			name:    "valid bar",
			bar:     &Bar{Timestamp: now, Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 1000},
			wantErr: nil,
		},
		{
			name:    "zero timestamp",
			bar:     &Bar{Open: 10, High: 11, Low: 9, Close: 10.5},
			wantErr: ErrInvalidTimestamp,
		},
		{
			name:    "non-positive price",
			bar:     &Bar{Timestamp: now, Open: 0, High: 11, Low: 9, Close: 10.5},
			wantErr: ErrInvalidPrice,
		},
		{
			name:    "high below low",
			bar:     &Bar{Timestamp: now, Open: 10, High: 8, Low: 9, Close: 10.5},
			wantErr: ErrInvalidBar,
		},
		{
			name:    "negative volume",
			bar:     &Bar{Timestamp: now, Open: 10, High: 11, Low: 9, Close: 10.5, Volume: -1},
			wantErr: ErrInvalidVolume,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bar.Validate()
			if err != tt.wantErr {
				t.Errorf("Bar.Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBar_Body(t *testing.T) {
	green := Bar{Open: 10, Close: 12}
	red := Bar{Open: 12, Close: 10}

	if green.BodyUpper() != 12 || green.BodyLower() != 10 {
		t.Errorf("green body = [%v, %v], want [10, 12]", green.BodyLower(), green.BodyUpper())
	}
	if red.BodyUpper() != 12 || red.BodyLower() != 10 {
		t.Errorf("red body = [%v, %v], want [10, 12]", red.BodyLower(), red.BodyUpper())
	}
	if !green.IsGreen() || green.IsRed() {
		t.Error("expected green candle")
	}
	if !red.IsRed() || red.IsGreen() {
		t.Error("expected red candle")
	}

	doji := Bar{Open: 10, Close: 10}
	if doji.IsGreen() || doji.IsRed() {
		t.Error("doji should be neither green nor red")
	}
}

func TestValidateSeries(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := ValidateSeries(nil); err != ErrNoBars {
		t.Errorf("ValidateSeries(nil) = %v, want %v", err, ErrNoBars)
	}

	ordered := []Bar{{Timestamp: start}, {Timestamp: start.AddDate(0, 0, 1)}}
	if err := ValidateSeries(ordered); err != nil {
		t.Errorf("ValidateSeries(ordered) = %v, want nil", err)
	}

	unordered := []Bar{{Timestamp: start.AddDate(0, 0, 1)}, {Timestamp: start}}
	if err := ValidateSeries(unordered); err != ErrUnorderedBars {
		t.Errorf("ValidateSeries(unordered) = %v, want %v", err, ErrUnorderedBars)
	}
}

func TestStock_Validate(t *testing.T) {
	tests := []struct {
		name    string
		stock   *Stock
		wantErr bool
	}{
		{name: "valid", stock: &Stock{Code: "BHP", Price: 45.2, Volume: 1e6}, wantErr: false},
		{name: "missing code", stock: &Stock{Price: 1}, wantErr: true},
		{name: "negative price", stock: &Stock{Code: "BHP", Price: -1}, wantErr: true},
		{name: "negative volume", stock: &Stock{Code: "BHP", Volume: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.stock.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Stock.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSignal_Validate(t *testing.T) {
	valid := &Signal{ID: "sig-1", Code: "BHP", Strategy: "mri", AsOf: time.Now()}
	if err := valid.Validate(); err != nil {
		t.Errorf("Signal.Validate() error = %v, want nil", err)
	}

	tests := []struct {
		name    string
		mutate  func(s *Signal)
		wantErr error
	}{
		{name: "missing id", mutate: func(s *Signal) { s.ID = "" }, wantErr: ErrInvalidSignalID},
		{name: "missing code", mutate: func(s *Signal) { s.Code = "" }, wantErr: ErrInvalidSymbol},
		{name: "missing strategy", mutate: func(s *Signal) { s.Strategy = "" }, wantErr: ErrInvalidStrategy},
		{name: "missing date", mutate: func(s *Signal) { s.AsOf = time.Time{} }, wantErr: ErrInvalidTimestamp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := *valid
			tt.mutate(&s)
			if err := s.Validate(); err != tt.wantErr {
				t.Errorf("Signal.Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
