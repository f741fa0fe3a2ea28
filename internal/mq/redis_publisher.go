package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/metrics"
)

// BrokerRedis labels Redis publish failures.
const BrokerRedis = "redis"

// RedisConfig holds Redis-specific configuration.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Address      string        `mapstructure:"address"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Channel      string        `mapstructure:"channel"`
}

// RedisPublisher implements ThumbnailEventPublisher using Redis PUBLISH.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher connects to Redis and verifies the connection.
func NewRedisPublisher(cfg RedisConfig) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Test connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisPublisher{client: client, channel: cfg.Channel}, nil
}

// PublishThumbnailCreated publishes the event as JSON on the configured channel.
func (r *RedisPublisher) PublishThumbnailCreated(ctx context.Context, event *ThumbnailCreatedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal thumbnail created event: %w", err)
	}

	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		metrics.PublishFailures.WithLabelValues(BrokerRedis).Inc()
		return fmt.Errorf("failed to publish to %s: %w", r.channel, err)
	}
	return nil
}

// Close releases the connection pool.
func (r *RedisPublisher) Close() error {
	return r.client.Close()
}
