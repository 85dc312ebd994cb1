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

	"github.com/illi4/asx-screener/internal/api"
	"github.com/illi4/asx-screener/internal/config"
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

	logger.Info("Starting REST API service",
		logger.Int("port", cfg.API.Port),
		logger.Int("rate_limit_rps", cfg.API.RateLimitRPS),
	)

	db, err := storage.NewPostgresStorage(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize storage", logger.ErrorField(err))
	}
	defer db.Close()

	scanCfg, err := scanner.ConfigFromSettings(cfg.Scanner, cfg.Filters)
	if err != nil {
		logger.Fatal("Invalid scanner configuration", logger.ErrorField(err))
	}
	// on-demand evaluation only: nothing is persisted or published
	evaluator := scanner.NewScanner(scanCfg, db, db, nil, nil)

	handler := api.NewSignalHandler(evaluator, db, scanCfg.Location)
	router := api.NewRouter(handler, db.Ping)
	router.Handle("/metrics", promhttp.Handler())

	middlewares := api.ChainMiddleware(
		api.RequestIDMiddleware(),
		api.CORSMiddleware(),
		api.LoggingMiddleware(),
		api.RecoveryMiddleware(),
		api.RateLimitMiddleware(cfg.API.RateLimitRPS),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.API.Port),
		Handler:      middlewares(router),
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
	}

	go func() {
		logger.Info("Starting HTTP server",
			logger.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server",
				logger.ErrorField(err),
			)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	logger.Info("Shutting down REST API service")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Error shutting down HTTP server",
			logger.ErrorField(err),
		)
	}

	logger.Info("REST API service stopped")
}
