package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/illi4/asx-screener/internal/config"
	"github.com/illi4/asx-screener/internal/models"
	"github.com/illi4/asx-screener/pkg/logger"
)

var (
	storageWriteTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_write_total",
			Help: "Total number of rows written to PostgreSQL",
		},
		[]string{"table", "status"}, // status: "success" or "error"
	)

	storageWriteLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storage_write_latency_seconds",
			Help:    "Write latency to PostgreSQL in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		},
		[]string{"table"},
	)
)

// Schema creates the tables used by PostgresStorage
const Schema = `
CREATE TABLE IF NOT EXISTS stocks (
	code       TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	price      DOUBLE PRECISION NOT NULL DEFAULT 0,
	volume     DOUBLE PRECISION NOT NULL DEFAULT 0,
	exchange   TEXT NOT NULL DEFAULT '',
	type       TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS prices (
	stock  TEXT NOT NULL,
	date   TIMESTAMPTZ NOT NULL,
	open   DOUBLE PRECISION NOT NULL,
	high   DOUBLE PRECISION NOT NULL,
	low    DOUBLE PRECISION NOT NULL,
	close  DOUBLE PRECISION NOT NULL,
	volume DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (stock, date)
);

CREATE TABLE IF NOT EXISTS signals (
	id         UUID PRIMARY KEY,
	scan_id    TEXT NOT NULL DEFAULT '',
	code       TEXT NOT NULL,
	strategy   TEXT NOT NULL,
	as_of      TIMESTAMPTZ NOT NULL,
	confirmed  BOOLEAN NOT NULL,
	score      DOUBLE PRECISION NOT NULL,
	trigger    TEXT NOT NULL DEFAULT '',
	summary    TEXT NOT NULL DEFAULT '',
	close      DOUBLE PRECISION NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS signals_code_as_of_idx ON signals (code, as_of DESC);
`

// PostgresStorage implements PriceStorage, StockStorage and SignalStorage
// on top of database/sql and lib/pq
type PostgresStorage struct {
	db         *sql.DB
	maxRetries int
	retryDelay time.Duration
}

// NewPostgresStorage opens and pings a PostgreSQL connection pool
func NewPostgresStorage(dbConfig config.DatabaseConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		dbConfig.Host,
		dbConfig.Port,
		dbConfig.User,
		dbConfig.Password,
		dbConfig.Database,
		dbConfig.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(dbConfig.MaxConnections)
	db.SetMaxIdleConns(dbConfig.MaxIdleConns)
	db.SetConnMaxLifetime(dbConfig.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Connected to PostgreSQL",
		logger.String("host", dbConfig.Host),
		logger.Int("port", dbConfig.Port),
		logger.String("database", dbConfig.Database),
	)

	return NewPostgresStorageFromDB(db, dbConfig.MaxRetries, dbConfig.RetryDelay), nil
}

// NewPostgresStorageFromDB wraps an already opened database handle
func NewPostgresStorageFromDB(db *sql.DB, maxRetries int, retryDelay time.Duration) *PostgresStorage {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &PostgresStorage{db: db, maxRetries: maxRetries, retryDelay: retryDelay}
}

// Migrate creates the tables if they do not exist
func (p *PostgresStorage) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// GetBars retrieves the latest limit bars of a stock on or before asOf
func (p *PostgresStorage) GetBars(ctx context.Context, code string, asOf time.Time, limit int) ([]models.Bar, error) {
	query, args := buildBarsQuery(code, asOf, limit)

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bars: %w", err)
	}
	defer rows.Close()

	var bars []models.Bar
	for rows.Next() {
		var bar models.Bar
		if err := rows.Scan(
			&bar.Timestamp,
			&bar.Open,
			&bar.High,
			&bar.Low,
			&bar.Close,
			&bar.Volume,
		); err != nil {
			return nil, fmt.Errorf("failed to scan bar: %w", err)
		}
		bars = append(bars, bar)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	// Reverse to get chronological order
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}

	return bars, nil
}

// WriteBars upserts daily bars in a single transaction. Invalid bars are
// skipped with a warning.
func (p *PostgresStorage) WriteBars(ctx context.Context, code string, bars []models.Bar) error {
	if code == "" {
		return models.ErrInvalidSymbol
	}

	valid := make([]models.Bar, 0, len(bars))
	for i := range bars {
		if err := bars[i].Validate(); err != nil {
			logger.Warn("Invalid bar, skipping",
				logger.ErrorField(err),
				logger.String("stock", code),
				logger.Time("date", bars[i].Timestamp),
			)
			continue
		}
		valid = append(valid, bars[i])
	}
	if len(valid) == 0 {
		return nil
	}

	return p.write(ctx, "prices", len(valid), func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO prices (stock, date, open, high, low, close, volume)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (stock, date) DO UPDATE SET
				open = EXCLUDED.open,
				high = EXCLUDED.high,
				low = EXCLUDED.low,
				close = EXCLUDED.close,
				volume = EXCLUDED.volume
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, bar := range valid {
			if _, err := stmt.ExecContext(ctx,
				code,
				bar.Timestamp,
				bar.Open,
				bar.High,
				bar.Low,
				bar.Close,
				bar.Volume,
			); err != nil {
				return fmt.Errorf("failed to insert bar: %w", err)
			}
		}
		return nil
	})
}

// GetStocks retrieves stocks matching the filter
func (p *PostgresStorage) GetStocks(ctx context.Context, filter StockFilter) ([]models.Stock, error) {
	query, args := buildStocksQuery(filter)

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stocks: %w", err)
	}
	defer rows.Close()

	var stocks []models.Stock
	for rows.Next() {
		var s models.Stock
		if err := rows.Scan(
			&s.Code,
			&s.Name,
			&s.Price,
			&s.Volume,
			&s.Exchange,
			&s.Type,
			&s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan stock: %w", err)
		}
		stocks = append(stocks, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return stocks, nil
}

// WriteStocks upserts stocks keyed on code
func (p *PostgresStorage) WriteStocks(ctx context.Context, stocks []models.Stock) error {
	for i := range stocks {
		if err := stocks[i].Validate(); err != nil {
			return fmt.Errorf("stock %q: %w", stocks[i].Code, err)
		}
	}
	if len(stocks) == 0 {
		return nil
	}

	return p.write(ctx, "stocks", len(stocks), func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO stocks (code, name, price, volume, exchange, type, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (code) DO UPDATE SET
				name = EXCLUDED.name,
				price = EXCLUDED.price,
				volume = EXCLUDED.volume,
				exchange = EXCLUDED.exchange,
				type = EXCLUDED.type,
				updated_at = EXCLUDED.updated_at
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, s := range stocks {
			updated := s.UpdatedAt
			if updated.IsZero() {
				updated = time.Now().UTC()
			}
			if _, err := stmt.ExecContext(ctx,
				s.Code,
				s.Name,
				s.Price,
				s.Volume,
				s.Exchange,
				s.Type,
				updated,
			); err != nil {
				return fmt.Errorf("failed to insert stock: %w", err)
			}
		}
		return nil
	})
}

// WriteSignal writes a signal to storage
func (p *PostgresStorage) WriteSignal(ctx context.Context, signal *models.Signal) error {
	if err := signal.Validate(); err != nil {
		return fmt.Errorf("invalid signal: %w", err)
	}

	return p.write(ctx, "signals", 1, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO signals (id, scan_id, code, strategy, as_of, confirmed, score, trigger, summary, close, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`,
			signal.ID,
			signal.ScanID,
			signal.Code,
			signal.Strategy,
			signal.AsOf,
			signal.Confirmed,
			signal.Score,
			signal.Trigger,
			signal.Summary,
			signal.Close,
			signal.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert signal: %w", err)
		}
		return nil
	})
}

// GetSignals retrieves signals with filtering options
func (p *PostgresStorage) GetSignals(ctx context.Context, filter SignalFilter) ([]*models.Signal, error) {
	query, args := buildSignalsQuery(filter)

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	defer rows.Close()

	var signals []*models.Signal
	for rows.Next() {
		var s models.Signal
		if err := rows.Scan(
			&s.ID,
			&s.ScanID,
			&s.Code,
			&s.Strategy,
			&s.AsOf,
			&s.Confirmed,
			&s.Score,
			&s.Trigger,
			&s.Summary,
			&s.Close,
			&s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		signals = append(signals, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return signals, nil
}

// Ping checks that the database is reachable
func (p *PostgresStorage) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close closes the database connection
func (p *PostgresStorage) Close() error {
	return p.db.Close()
}

// write runs fn in a transaction with exponential-backoff retries and
// records write metrics for the table
func (p *PostgresStorage) write(ctx context.Context, table string, rows int, fn func(tx *sql.Tx) error) error {
	startTime := time.Now()

	var err error
	for attempt := 0; attempt < p.maxRetries; attempt++ {
		err = p.inTx(ctx, fn)
		if err == nil || !retryable(err) {
			break
		}

		if attempt < p.maxRetries-1 {
			delay := p.retryDelay * time.Duration(1<<uint(attempt)) // Exponential backoff
			logger.Warn("Write failed, retrying",
				logger.ErrorField(err),
				logger.String("table", table),
				logger.Int("attempt", attempt+1),
				logger.Duration("delay", delay),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	storageWriteLatency.WithLabelValues(table).Observe(time.Since(startTime).Seconds())

	if err != nil {
		storageWriteTotal.WithLabelValues(table, "error").Add(float64(rows))
		logger.ErrorsTotal.WithLabelValues("storage", "write_failed").Inc()
		return err
	}

	storageWriteTotal.WithLabelValues(table, "success").Add(float64(rows))
	logger.Debug("Wrote rows to PostgreSQL",
		logger.String("table", table),
		logger.Int("count", rows),
		logger.Duration("latency", time.Since(startTime)),
	)
	return nil
}

func (p *PostgresStorage) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// retryable reports whether a write error may succeed on a later attempt.
// Constraint and data errors (SQLSTATE classes 22 and 23) never do.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "22", "23":
			return false
		}
	}
	return true
}

func buildBarsQuery(code string, asOf time.Time, limit int) (string, []interface{}) {
	query := `
		SELECT date, open, high, low, close, volume
		FROM prices
		WHERE stock = $1`
	args := []interface{}{code}
	argIndex := 2

	if !asOf.IsZero() {
		y, m, d := asOf.Date()
		query += fmt.Sprintf(" AND date < $%d", argIndex)
		args = append(args, time.Date(y, m, d, 0, 0, 0, 0, asOf.Location()).AddDate(0, 0, 1))
		argIndex++
	}

	query += " ORDER BY date DESC"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, limit)
	}

	return query, args
}

func buildStocksQuery(filter StockFilter) (string, []interface{}) {
	query := `
		SELECT code, name, price, volume, exchange, type, updated_at
		FROM stocks
		WHERE 1=1`
	args := []interface{}{}
	argIndex := 1

	if filter.Exchange != "" {
		query += fmt.Sprintf(" AND exchange = $%d", argIndex)
		args = append(args, filter.Exchange)
		argIndex++
	}

	if len(filter.Codes) > 0 {
		query += fmt.Sprintf(" AND code = ANY($%d)", argIndex)
		args = append(args, pq.Array(filter.Codes))
		argIndex++
	}

	if filter.PriceMin > 0 {
		query += fmt.Sprintf(" AND price >= $%d", argIndex)
		args = append(args, filter.PriceMin)
		argIndex++
	}

	if filter.PriceMax > 0 {
		query += fmt.Sprintf(" AND price <= $%d", argIndex)
		args = append(args, filter.PriceMax)
		argIndex++
	}

	if filter.MinVolume > 0 {
		query += fmt.Sprintf(" AND volume >= $%d", argIndex)
		args = append(args, filter.MinVolume)
		argIndex++
	}

	if filter.StocksOnly {
		query += fmt.Sprintf(" AND type = $%d", argIndex)
		args = append(args, models.StockTypeCommon)
		argIndex++
	}

	query += " ORDER BY code ASC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filter.Limit)
	}

	return query, args
}

func buildSignalsQuery(filter SignalFilter) (string, []interface{}) {
	query := `
		SELECT id, scan_id, code, strategy, as_of, confirmed, score, trigger, summary, close, created_at
		FROM signals
		WHERE 1=1`
	args := []interface{}{}
	argIndex := 1

	if filter.Code != "" {
		query += fmt.Sprintf(" AND code = $%d", argIndex)
		args = append(args, filter.Code)
		argIndex++
	}

	if filter.Strategy != "" {
		query += fmt.Sprintf(" AND strategy = $%d", argIndex)
		args = append(args, filter.Strategy)
		argIndex++
	}

	if filter.ScanID != "" {
		query += fmt.Sprintf(" AND scan_id = $%d", argIndex)
		args = append(args, filter.ScanID)
		argIndex++
	}

	if filter.ConfirmedOnly {
		query += " AND confirmed"
	}

	if !filter.StartTime.IsZero() {
		query += fmt.Sprintf(" AND as_of >= $%d", argIndex)
		args = append(args, filter.StartTime)
		argIndex++
	}

	if !filter.EndTime.IsZero() {
		query += fmt.Sprintf(" AND as_of <= $%d", argIndex)
		args = append(args, filter.EndTime)
		argIndex++
	}

	query += " ORDER BY as_of DESC, created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filter.Limit)
		argIndex++
	}

	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, filter.Offset)
	}

	return query, args
}
