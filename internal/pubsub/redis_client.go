package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/illi4/asx-screener/internal/config"
	"github.com/illi4/asx-screener/pkg/logger"
)

// StreamClient is the subset of Redis used to publish signals
type StreamClient interface {
	// PublishToStream appends value, JSON encoded under field key, to stream
	PublishToStream(ctx context.Context, stream string, key string, value interface{}) error

	// StreamLength returns the number of entries in stream
	StreamLength(ctx context.Context, stream string) (int64, error)

	// Close closes the Redis connection
	Close() error
}

// RedisClient implements StreamClient with go-redis
type RedisClient struct {
	client    *redis.Client
	maxLength int64
}

// NewRedisClient connects to Redis and pings it
func NewRedisClient(cfg config.RedisConfig) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Connected to Redis",
		logger.String("host", cfg.Host),
		logger.Int("port", cfg.Port),
	)

	return &RedisClient{client: rdb, maxLength: cfg.StreamMaxLength}, nil
}

// PublishToStream publishes a message to a Redis stream. Streams are capped
// approximately at the configured maximum length.
func (r *RedisClient) PublishToStream(ctx context.Context, stream string, key string, value interface{}) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			key: string(jsonData),
		},
	}
	if r.maxLength > 0 {
		args.MaxLen = r.maxLength
		args.Approx = true
	}

	if err := r.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", stream, err)
	}

	return nil
}

// StreamLength returns the number of entries in a stream
func (r *RedisClient) StreamLength(ctx context.Context, stream string) (int64, error) {
	n, err := r.client.XLen(ctx, stream).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read length of stream %s: %w", stream, err)
	}
	return n, nil
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	return r.client.Close()
}
