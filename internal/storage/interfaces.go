package storage

import (
	"context"
	"time"

	"github.com/illi4/asx-screener/internal/models"
)

// PriceStorage defines the interface for daily price storage operations
type PriceStorage interface {
	// GetBars retrieves the latest limit daily bars of a stock dated on or
	// before asOf, oldest first. A zero asOf means no upper bound.
	GetBars(ctx context.Context, code string, asOf time.Time, limit int) ([]models.Bar, error)

	// WriteBars upserts daily bars keyed on (stock, date)
	WriteBars(ctx context.Context, code string, bars []models.Bar) error

	// Close closes the storage connection
	Close() error
}

// StockStorage defines the interface for the listed stocks
type StockStorage interface {
	// GetStocks retrieves stocks matching the filter, ordered by code
	GetStocks(ctx context.Context, filter StockFilter) ([]models.Stock, error)

	// WriteStocks upserts stocks keyed on code
	WriteStocks(ctx context.Context, stocks []models.Stock) error

	// Close closes the storage connection
	Close() error
}

// SignalStorage defines the interface for signal storage operations
type SignalStorage interface {
	// WriteSignal writes a signal to storage
	WriteSignal(ctx context.Context, signal *models.Signal) error

	// GetSignals retrieves signals with filtering options, newest first
	GetSignals(ctx context.Context, filter SignalFilter) ([]*models.Signal, error)

	// Close closes the storage connection
	Close() error
}

// StockFilter defines filtering options for stock queries
type StockFilter struct {
	Exchange   string
	Codes      []string // explicit codes; empty means any
	PriceMin   float64
	PriceMax   float64 // 0 means no upper bound
	MinVolume  float64
	StocksOnly bool // only models.StockTypeCommon
	Limit      int
}

// Matches reports whether a stock passes the filter
func (f StockFilter) Matches(s models.Stock) bool {
	if f.Exchange != "" && s.Exchange != f.Exchange {
		return false
	}
	if len(f.Codes) > 0 && !contains(f.Codes, s.Code) {
		return false
	}
	if s.Price < f.PriceMin {
		return false
	}
	if f.PriceMax > 0 && s.Price > f.PriceMax {
		return false
	}
	if s.Volume < f.MinVolume {
		return false
	}
	if f.StocksOnly && s.Type != models.StockTypeCommon {
		return false
	}
	return true
}

// SignalFilter defines filtering options for signal queries
type SignalFilter struct {
	Code          string
	Strategy      string
	ScanID        string
	ConfirmedOnly bool
	StartTime     time.Time
	EndTime       time.Time
	Limit         int
	Offset        int
}

// Matches reports whether a signal passes the filter
func (f SignalFilter) Matches(s *models.Signal) bool {
	if f.Code != "" && s.Code != f.Code {
		return false
	}
	if f.Strategy != "" && s.Strategy != f.Strategy {
		return false
	}
	if f.ScanID != "" && s.ScanID != f.ScanID {
		return false
	}
	if f.ConfirmedOnly && !s.Confirmed {
		return false
	}
	if !f.StartTime.IsZero() && s.AsOf.Before(f.StartTime) {
		return false
	}
	if !f.EndTime.IsZero() && s.AsOf.After(f.EndTime) {
		return false
	}
	return true
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
