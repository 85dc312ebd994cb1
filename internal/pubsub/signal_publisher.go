package pubsub

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/illi4/asx-screener/internal/models"
	"github.com/illi4/asx-screener/pkg/logger"
)

var (
	publishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_publish_total",
			Help: "Total number of signals published to streams",
		},
		[]string{"stream", "strategy"},
	)

	publishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_publish_errors_total",
			Help: "Total number of signal publish errors",
		},
		[]string{"stream"},
	)

	publishLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "signal_publish_latency_seconds",
			Help:    "Publish latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		},
		[]string{"stream"},
	)
)

// signalField is the stream entry field holding the JSON signal
const signalField = "signal"

// Publisher announces persisted signals to downstream consumers
type Publisher interface {
	Publish(ctx context.Context, signal *models.Signal) error
}

// SignalPublisherConfig holds configuration for the signal publisher
type SignalPublisherConfig struct {
	StreamName    string
	RetryAttempts int
	RetryDelay    time.Duration
}

// DefaultSignalPublisherConfig returns default configuration
func DefaultSignalPublisherConfig(streamName string) SignalPublisherConfig {
	return SignalPublisherConfig{
		StreamName:    streamName,
		RetryAttempts: 3,
		RetryDelay:    100 * time.Millisecond,
	}
}

// SignalPublisher publishes signals to a Redis stream
type SignalPublisher struct {
	config SignalPublisherConfig
	client StreamClient
}

// NewSignalPublisher creates a new signal publisher
func NewSignalPublisher(client StreamClient, config SignalPublisherConfig) *SignalPublisher {
	if config.RetryAttempts < 1 {
		config.RetryAttempts = 1
	}
	return &SignalPublisher{config: config, client: client}
}

// Publish appends the signal to the stream, retrying with a linear backoff
func (p *SignalPublisher) Publish(ctx context.Context, signal *models.Signal) error {
	if signal == nil {
		return fmt.Errorf("signal cannot be nil")
	}
	if err := signal.Validate(); err != nil {
		return fmt.Errorf("invalid signal: %w", err)
	}

	stream := p.config.StreamName
	startTime := time.Now()

	var err error
	for attempt := 0; attempt < p.config.RetryAttempts; attempt++ {
		err = p.client.PublishToStream(ctx, stream, signalField, signal)
		if err == nil {
			break
		}

		if attempt < p.config.RetryAttempts-1 {
			logger.Warn("Failed to publish signal, retrying",
				logger.ErrorField(err),
				logger.String("stream", stream),
				logger.Int("attempt", attempt+1),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.config.RetryDelay * time.Duration(attempt+1)):
			}
		}
	}

	publishLatency.WithLabelValues(stream).Observe(time.Since(startTime).Seconds())

	if err != nil {
		publishErrors.WithLabelValues(stream).Inc()
		return fmt.Errorf("failed to publish signal after %d attempts: %w", p.config.RetryAttempts, err)
	}

	publishTotal.WithLabelValues(stream, signal.Strategy).Inc()
	logger.Debug("Published signal",
		logger.String("stream", stream),
		logger.String("stock", signal.Code),
		logger.String("strategy", signal.Strategy),
	)
	return nil
}

// NopPublisher discards signals; used when Redis is disabled
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, signal *models.Signal) error {
	return nil
}
