package scanner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/illi4/asx-screener/internal/config"
	"github.com/illi4/asx-screener/internal/market"
	"github.com/illi4/asx-screener/internal/models"
	"github.com/illi4/asx-screener/internal/pubsub"
	"github.com/illi4/asx-screener/internal/signal"
	"github.com/illi4/asx-screener/internal/storage"
	"github.com/illi4/asx-screener/pkg/logger"
)

// ErrAlreadyRunning is returned when a scan is requested while one is in flight
var ErrAlreadyRunning = errors.New("scan is already running")

// Config holds configuration for the batch scanner
type Config struct {
	Strategies   []string
	WorkerCount  int
	LookbackBars int
	StockTimeout time.Duration
	PersistAll   bool // persist rejected results too
	Location     *time.Location
	Stocks       storage.StockFilter
	Filters      config.Filters
}

// ConfigFromSettings builds a scanner Config from the loaded configuration
func ConfigFromSettings(sc config.ScannerConfig, filters config.Filters) (Config, error) {
	loc, err := time.LoadLocation(sc.Timezone)
	if err != nil {
		return Config{}, fmt.Errorf("load timezone %q: %w", sc.Timezone, err)
	}

	return Config{
		Strategies:   sc.Strategies,
		WorkerCount:  sc.WorkerCount,
		LookbackBars: sc.LookbackBars,
		StockTimeout: sc.StockTimeout,
		PersistAll:   sc.PersistAll,
		Location:     loc,
		Stocks: storage.StockFilter{
			Exchange:   sc.Exchange,
			Codes:      sc.Codes,
			PriceMin:   filters.PriceMin,
			PriceMax:   filters.PriceMax,
			MinVolume:  filters.MinVolume,
			StocksOnly: filters.StocksOnly,
			Limit:      sc.Limit,
		},
		Filters: filters,
	}, nil
}

// Outcome is the result of one strategy on one stock
type Outcome struct {
	Code   string        `json:"code"`
	Close  float64       `json:"close"`
	Volume float64       `json:"volume"`
	AsOf   time.Time     `json:"as_of"`
	Result signal.Result `json:"result"`
}

// Report summarises a scan run
type Report struct {
	ScanID   string        `json:"scan_id"`
	AsOf     time.Time     `json:"as_of"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Stocks   int           `json:"stocks"`
	Failed   int           `json:"failed"`
	// Confirmed lists confirmed outcomes ordered by strategy then code
	Confirmed []Outcome `json:"confirmed"`
}

// Stats holds cumulative scanner statistics
type Stats struct {
	Runs           int64
	StocksScanned  int64
	StocksFailed   int64
	Evaluations    int64
	Confirmed      int64
	SignalsWritten int64
	LastRunTime    time.Duration
	MaxRunTime     time.Duration
}

// Scanner evaluates strategies across a universe of stocks
type Scanner struct {
	config    Config
	stocks    storage.StockStorage
	prices    storage.PriceStorage
	signals   storage.SignalStorage
	publisher pubsub.Publisher
	now       func() time.Time

	mu      sync.Mutex
	running bool
	stats   Stats
}

// NewScanner creates a new scanner. signals and publisher may be nil.
func NewScanner(
	config Config,
	stocks storage.StockStorage,
	prices storage.PriceStorage,
	signals storage.SignalStorage,
	publisher pubsub.Publisher,
) *Scanner {
	if stocks == nil {
		panic("stocks cannot be nil")
	}
	if prices == nil {
		panic("prices cannot be nil")
	}
	if config.WorkerCount < 1 {
		config.WorkerCount = 1
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if publisher == nil {
		publisher = pubsub.NopPublisher{}
	}

	return &Scanner{
		config:    config,
		stocks:    stocks,
		prices:    prices,
		signals:   signals,
		publisher: publisher,
		now:       time.Now,
	}
}

// GetStats returns a copy of the cumulative statistics
func (s *Scanner) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Scan runs every configured strategy over the matching stocks as of asOf.
// A zero asOf scans the latest data. Failures on a single stock are logged
// and counted; cancelling ctx stops dispatching the remaining stocks.
func (s *Scanner) Scan(ctx context.Context, asOf time.Time) (*Report, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	strategies, err := resolve(s.config.Strategies)
	if err != nil {
		return nil, err
	}

	stocks, err := s.stocks.GetStocks(ctx, s.config.Stocks)
	if err != nil {
		return nil, fmt.Errorf("failed to load stocks: %w", err)
	}

	report := &Report{
		ScanID:  uuid.New().String(),
		AsOf:    asOf,
		Started: s.now(),
		Stocks:  len(stocks),
	}

	log := logger.Get().With(logger.String("scan_id", report.ScanID))
	log.Info("Starting scan",
		logger.Int("stocks", len(stocks)),
		logger.Strings("strategies", s.config.Strategies),
		logger.Int("workers", s.config.WorkerCount),
	)

	jobs := make(chan models.Stock)
	var (
		wg        sync.WaitGroup
		resultsMu sync.Mutex
		failed    int
		evaluated int
		written   int
	)

	for i := 0; i < s.config.WorkerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for stock := range jobs {
				outcomes, nWritten, err := s.scanStock(ctx, report.ScanID, stock.Code, asOf, strategies)

				resultsMu.Lock()
				evaluated += len(outcomes)
				written += nWritten
				if err != nil {
					failed++
				}
				for _, o := range outcomes {
					if o.Result.Confirmed {
						report.Confirmed = append(report.Confirmed, o)
					}
				}
				resultsMu.Unlock()

				if err != nil {
					logger.ErrorsTotal.WithLabelValues("scanner", "stock_failed").Inc()
					log.Warn("Failed to scan stock",
						logger.ErrorField(err),
						logger.String("stock", stock.Code),
					)
				}
			}
		}()
	}

dispatch:
	for _, stock := range stocks {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- stock:
		}
	}
	close(jobs)
	wg.Wait()

	sort.Slice(report.Confirmed, func(i, j int) bool {
		a, b := report.Confirmed[i], report.Confirmed[j]
		if a.Result.Strategy != b.Result.Strategy {
			return a.Result.Strategy < b.Result.Strategy
		}
		return a.Code < b.Code
	})

	report.Failed = failed
	report.Duration = s.now().Sub(report.Started)
	s.updateStats(report, evaluated, written)

	logger.ScanDuration.WithLabelValues(strings.Join(s.config.Strategies, ",")).Observe(report.Duration.Seconds())
	log.Info("Scan finished",
		logger.Int("stocks", report.Stocks),
		logger.Int("failed", report.Failed),
		logger.Int("confirmed", len(report.Confirmed)),
		logger.Duration("duration", report.Duration),
	)

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("scan interrupted: %w", err)
	}
	return report, nil
}

// Evaluate runs a single strategy on one stock without persisting anything
func (s *Scanner) Evaluate(ctx context.Context, code, strategy string, asOf time.Time) (Outcome, error) {
	strategies, err := resolve([]string{strategy})
	if err != nil {
		return Outcome{}, err
	}

	snap, last, err := s.snapshot(ctx, code, asOf)
	if err != nil {
		return Outcome{}, err
	}

	return Outcome{
		Code:   code,
		Close:  last.Close,
		Volume: last.Volume,
		AsOf:   last.Timestamp,
		Result: strategies[0].Evaluate(snap, s.config.Filters),
	}, nil
}

// scanStock evaluates every strategy on one stock and persists the results.
// It returns the outcomes and the number of signals written.
func (s *Scanner) scanStock(ctx context.Context, scanID, code string, asOf time.Time, strategies []signal.Strategy) ([]Outcome, int, error) {
	if s.config.StockTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.StockTimeout)
		defer cancel()
	}

	snap, last, err := s.snapshot(ctx, code, asOf)
	if err != nil {
		return nil, 0, err
	}

	outcomes := make([]Outcome, 0, len(strategies))
	written := 0
	var errs []error

	for _, st := range strategies {
		outcome := Outcome{
			Code:   code,
			Close:  last.Close,
			Volume: last.Volume,
			AsOf:   last.Timestamp,
			Result: st.Evaluate(snap, s.config.Filters),
		}
		outcomes = append(outcomes, outcome)

		if !outcome.Result.Confirmed && !s.config.PersistAll {
			continue
		}

		sig := s.newSignal(scanID, outcome)
		if s.signals != nil {
			if err := s.signals.WriteSignal(ctx, sig); err != nil {
				errs = append(errs, fmt.Errorf("write %s signal: %w", st.Name, err))
				continue
			}
			written++
		}

		if outcome.Result.Confirmed {
			if err := s.publisher.Publish(ctx, sig); err != nil {
				errs = append(errs, fmt.Errorf("publish %s signal: %w", st.Name, err))
			}
		}
	}

	return outcomes, written, errors.Join(errs...)
}

// snapshot loads and labels the price history of a stock as of a date
func (s *Scanner) snapshot(ctx context.Context, code string, asOf time.Time) (signal.Snapshot, models.Bar, error) {
	bars, err := s.prices.GetBars(ctx, code, asOf, s.config.LookbackBars)
	if err != nil {
		return signal.Snapshot{}, models.Bar{}, fmt.Errorf("load prices for %s: %w", code, err)
	}

	if asOf.IsZero() {
		now := s.now()
		if !TodayBarFinal(now, s.config.Location) {
			bars = market.DropIncompleteLast(bars, now, s.config.Location)
		}
	}
	if len(bars) == 0 {
		return signal.Snapshot{}, models.Bar{}, fmt.Errorf("%s: %w", code, models.ErrNoBars)
	}

	series := market.Prepare(bars, asOf, s.config.Location)
	if len(series.Daily) == 0 {
		return signal.Snapshot{}, models.Bar{}, fmt.Errorf("%s: %w", code, models.ErrNoBars)
	}

	snap := signal.Snapshot{Code: code, Daily: series.Daily, Weekly: series.Weekly}
	if err := snap.Validate(); err != nil {
		return signal.Snapshot{}, models.Bar{}, fmt.Errorf("%s: %w", code, err)
	}

	return snap, series.Daily[len(series.Daily)-1], nil
}

func (s *Scanner) newSignal(scanID string, o Outcome) *models.Signal {
	return &models.Signal{
		ID:        uuid.New().String(),
		ScanID:    scanID,
		Code:      o.Code,
		Strategy:  o.Result.Strategy,
		AsOf:      o.AsOf,
		Confirmed: o.Result.Confirmed,
		Score:     o.Result.Score,
		Trigger:   o.Result.Trigger,
		Summary:   o.Result.Summary(),
		Close:     o.Close,
		CreatedAt: s.now().UTC(),
	}
}

func (s *Scanner) updateStats(r *Report, evaluated, written int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.Runs++
	s.stats.StocksScanned += int64(r.Stocks)
	s.stats.StocksFailed += int64(r.Failed)
	s.stats.Evaluations += int64(evaluated)
	s.stats.Confirmed += int64(len(r.Confirmed))
	s.stats.SignalsWritten += int64(written)
	s.stats.LastRunTime = r.Duration
	if r.Duration > s.stats.MaxRunTime {
		s.stats.MaxRunTime = r.Duration
	}
}

func resolve(names []string) ([]signal.Strategy, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("no strategies configured")
	}
	out := make([]signal.Strategy, 0, len(names))
	for _, name := range names {
		st, err := signal.Lookup(name)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}
