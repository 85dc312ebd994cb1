package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/illi4/asx-screener/internal/config"
	"github.com/illi4/asx-screener/internal/market"
	"github.com/illi4/asx-screener/internal/pubsub"
	"github.com/illi4/asx-screener/internal/scanner"
	"github.com/illi4/asx-screener/internal/storage"
	"github.com/illi4/asx-screener/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.LogLevel, cfg.Environment); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting scanner service",
		logger.String("exchange", cfg.Scanner.Exchange),
		logger.Strings("strategies", cfg.Scanner.Strategies),
		logger.Int("worker_count", cfg.Scanner.WorkerCount),
		logger.String("schedule", cfg.Scanner.Schedule),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := storage.NewPostgresStorage(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize storage", logger.ErrorField(err))
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		logger.Fatal("Failed to apply schema", logger.ErrorField(err))
	}

	var publisher pubsub.Publisher = pubsub.NopPublisher{}
	if cfg.Redis.Enabled {
		redisClient, err := pubsub.NewRedisClient(cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to initialize Redis client", logger.ErrorField(err))
		}
		defer redisClient.Close()
		publisher = pubsub.NewSignalPublisher(redisClient, pubsub.DefaultSignalPublisherConfig(cfg.Redis.SignalStream))
	}

	scanCfg, err := scanner.ConfigFromSettings(cfg.Scanner, cfg.Filters)
	if err != nil {
		logger.Fatal("Invalid scanner configuration", logger.ErrorField(err))
	}
	sc := scanner.NewScanner(scanCfg, db, db, db, publisher)

	if cfg.Scanner.MetricsPort > 0 {
		go serveMetrics(cfg.Scanner.MetricsPort)
	}

	// One-shot run
	if cfg.Scanner.Schedule == "" {
		var asOf time.Time
		if cfg.Scanner.AsOf != "" {
			asOf, _ = time.ParseInLocation("2006-01-02", cfg.Scanner.AsOf, scanCfg.Location)
		}

		go func() {
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			<-sigChan
			logger.Info("Interrupt received, stopping scan")
			cancel()
		}()

		report, err := sc.Scan(ctx, asOf)
		if err != nil {
			logger.Error("Scan failed", logger.ErrorField(err))
			os.Exit(1)
		}
		printReport(report)
		return
	}

	sched, err := scanner.NewScheduler(ctx, sc, cfg.Scanner.Schedule, scanCfg.Location)
	if err != nil {
		logger.Fatal("Failed to schedule scans", logger.ErrorField(err))
	}
	sched.Start()
	logger.Info("Next scan scheduled", logger.Time("at", sched.Next()))

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	logger.Info("Shutting down scanner service")
	cancel()
	sched.Stop()
	logger.Info("Scanner service stopped")
}

func serveMetrics(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", port)
	logger.Info("Serving metrics", logger.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		logger.Error("Metrics server failed", logger.ErrorField(err))
	}
}

func printReport(r *scanner.Report) {
	fmt.Printf("Scan %s: %d stocks, %d failed, %d confirmed in %s\n",
		r.ScanID, r.Stocks, r.Failed, len(r.Confirmed), r.Duration.Round(time.Millisecond))
	for _, o := range r.Confirmed {
		fmt.Printf("%-18s %-6s %s close $%.2f vol %s score %.1f | %s\n",
			o.Result.Strategy,
			o.Code,
			o.AsOf.Format("2006-01-02"),
			o.Close,
			market.FormatNumber(o.Volume),
			o.Result.Score,
			o.Result.Summary(),
		)
	}
}
