package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/illi4/asx-screener/internal/models"
)

// MockPriceStorage is an in-memory PriceStorage for testing
type MockPriceStorage struct {
	mu       sync.Mutex
	Bars     map[string][]models.Bar
	WriteErr error
	GetErr   error
	// GetErrFor fails GetBars for specific codes
	GetErrFor map[string]error
}

// NewMockPriceStorage creates an empty MockPriceStorage
func NewMockPriceStorage() *MockPriceStorage {
	return &MockPriceStorage{Bars: make(map[string][]models.Bar)}
}

func (m *MockPriceStorage) WriteBars(ctx context.Context, code string, bars []models.Bar) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	byDate := make(map[time.Time]models.Bar, len(m.Bars[code])+len(bars))
	for _, b := range m.Bars[code] {
		byDate[b.Timestamp] = b
	}
	for _, b := range bars {
		byDate[b.Timestamp] = b
	}

	merged := make([]models.Bar, 0, len(byDate))
	for _, b := range byDate {
		merged = append(merged, b)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Timestamp.Before(merged[j].Timestamp) })
	m.Bars[code] = merged
	return nil
}

func (m *MockPriceStorage) GetBars(ctx context.Context, code string, asOf time.Time, limit int) ([]models.Bar, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if err, ok := m.GetErrFor[code]; ok {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var end time.Time
	if !asOf.IsZero() {
		y, mo, d := asOf.Date()
		end = time.Date(y, mo, d, 0, 0, 0, 0, asOf.Location()).AddDate(0, 0, 1)
	}

	var result []models.Bar
	for _, b := range m.Bars[code] {
		if !end.IsZero() && !b.Timestamp.Before(end) {
			break
		}
		result = append(result, b)
	}
	if limit > 0 && len(result) > limit {
		result = result[len(result)-limit:]
	}
	out := make([]models.Bar, len(result))
	copy(out, result)
	return out, nil
}

func (m *MockPriceStorage) Close() error {
	return nil
}

// MockStockStorage is an in-memory StockStorage for testing
type MockStockStorage struct {
	mu       sync.Mutex
	Stocks   []models.Stock
	WriteErr error
	GetErr   error
}

func (m *MockStockStorage) GetStocks(ctx context.Context, filter StockFilter) ([]models.Stock, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []models.Stock
	for _, s := range m.Stocks {
		if filter.Matches(s) {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (m *MockStockStorage) WriteStocks(ctx context.Context, stocks []models.Stock) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range stocks {
		replaced := false
		for i := range m.Stocks {
			if m.Stocks[i].Code == s.Code {
				m.Stocks[i] = s
				replaced = true
				break
			}
		}
		if !replaced {
			m.Stocks = append(m.Stocks, s)
		}
	}
	return nil
}

func (m *MockStockStorage) Close() error {
	return nil
}

// MockSignalStorage is an in-memory SignalStorage for testing
type MockSignalStorage struct {
	mu       sync.Mutex
	Signals  []*models.Signal
	WriteErr error
	GetErr   error
}

func (m *MockSignalStorage) WriteSignal(ctx context.Context, signal *models.Signal) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	if err := signal.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Signals = append(m.Signals, signal)
	return nil
}

func (m *MockSignalStorage) GetSignals(ctx context.Context, filter SignalFilter) ([]*models.Signal, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []*models.Signal
	for _, s := range m.Signals {
		if filter.Matches(s) {
			result = append(result, s)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].AsOf.After(result[j].AsOf) })

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return nil, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

// Snapshot returns a copy of the stored signals
func (m *MockSignalStorage) Snapshot() []*models.Signal {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Signal, len(m.Signals))
	copy(out, m.Signals)
	return out
}

func (m *MockSignalStorage) Close() error {
	return nil
}
