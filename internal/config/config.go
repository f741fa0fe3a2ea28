package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/weiawesome/wes-io-live/thumbnail-service/pkg/config"
	"github.com/weiawesome/wes-io-live/thumbnail-service/pkg/storage"

	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/mq"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/thumbnail"
)

// StorageConfig selects the object store backend and the two containers.
type StorageConfig struct {
	Type                 string              `mapstructure:"type"`
	S3                   storage.S3Config    `mapstructure:"s3"`
	Local                storage.LocalConfig `mapstructure:"local"`
	SourceContainer      string              `mapstructure:"source_container"`
	DestinationContainer string              `mapstructure:"destination_container"`
	URLExpiry            time.Duration       `mapstructure:"url_expiry"`
}

type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
	Thumbnail ThumbnailConfig `mapstructure:"thumbnail"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Redis     mq.RedisConfig  `mapstructure:"redis"`
	Events    EventsConfig    `mapstructure:"events"`
	Webhook   WebhookConfig   `mapstructure:"webhook"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// ThumbnailConfig is the externally configurable part of thumbnail.Spec.
type ThumbnailConfig struct {
	MaxWidth       int   `mapstructure:"max_width"`
	Upscale        bool  `mapstructure:"upscale"`
	JpegQuality    int   `mapstructure:"jpeg_quality"`
	MaxPixels      int   `mapstructure:"max_pixels"`
	MaxSourceBytes int64 `mapstructure:"max_source_bytes"`
}

type KafkaConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Brokers         string `mapstructure:"brokers"`
	ConsumerTopic   string `mapstructure:"consumer_topic"`
	ConsumerGroupID string `mapstructure:"consumer_group_id"`
	ProducerTopic   string `mapstructure:"producer_topic"`
	Partitions      int    `mapstructure:"partitions"`
}

type EventsConfig struct {
	PrefixFilter     string   `mapstructure:"prefix_filter"`
	EventNameFilters []string `mapstructure:"event_name_filters"`
}

type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Key     string `mapstructure:"key"`
}

// ThumbnailSpec builds the generator spec from configuration.
func (c *Config) ThumbnailSpec() thumbnail.Spec {
	return thumbnail.Spec{
		MaxWidth:  c.Thumbnail.MaxWidth,
		Fit:       thumbnail.FitWidth,
		Upscale:   c.Thumbnail.Upscale,
		Quality:   c.Thumbnail.JpegQuality,
		MaxPixels: c.Thumbnail.MaxPixels,
	}
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if err := c.ThumbnailSpec().Validate(); err != nil {
		return err
	}
	if c.Thumbnail.MaxSourceBytes <= 0 {
		return fmt.Errorf("thumbnail.max_source_bytes must be positive")
	}
	switch c.Storage.Type {
	case "s3", "local":
	default:
		return fmt.Errorf("unsupported storage type: %q", c.Storage.Type)
	}
	if c.Storage.SourceContainer == "" || c.Storage.DestinationContainer == "" {
		return fmt.Errorf("storage source and destination containers are required")
	}
	if c.Storage.SourceContainer == c.Storage.DestinationContainer {
		return fmt.Errorf("storage source and destination containers must differ, both are %q", c.Storage.SourceContainer)
	}
	if c.Kafka.Enabled && (c.Kafka.Brokers == "" || c.Kafka.ConsumerTopic == "") {
		return fmt.Errorf("kafka.brokers and kafka.consumer_topic are required when kafka is enabled")
	}
	if c.Redis.Enabled && (c.Redis.Address == "" || c.Redis.Channel == "") {
		return fmt.Errorf("redis.address and redis.channel are required when redis is enabled")
	}
	return nil
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("thumbnail.max_width", thumbnail.DefaultMaxWidth)
	v.SetDefault("thumbnail.upscale", true)
	v.SetDefault("thumbnail.jpeg_quality", thumbnail.DefaultQuality)
	v.SetDefault("thumbnail.max_pixels", thumbnail.DefaultMaxPixels)
	v.SetDefault("thumbnail.max_source_bytes", 32<<20)
	v.SetDefault("storage.type", "s3")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.use_path_style", true)
	v.SetDefault("storage.local.base_path", "./data/storage")
	v.SetDefault("storage.source_container", "uploads")
	v.SetDefault("storage.destination_container", "thumbnails")
	v.SetDefault("storage.url_expiry", 15*time.Minute)
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.consumer_topic", "storage-events")
	v.SetDefault("kafka.consumer_group_id", "thumbnail-service")
	v.SetDefault("kafka.producer_topic", "thumbnail-created")
	v.SetDefault("kafka.partitions", 1)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)
	v.SetDefault("redis.channel", "thumbnail-created")
	v.SetDefault("events.prefix_filter", "")
	v.SetDefault("events.event_name_filters", []string{"s3:ObjectCreated:Put", "s3:ObjectCreated:CompleteMultipartUpload", "Microsoft.Storage.BlobCreated"})
	v.SetDefault("webhook.enabled", true)

	// Env bindings
	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("server.port", "PORT")
	v.BindEnv("thumbnail.max_width", "THUMBNAIL_WIDTH")
	v.BindEnv("thumbnail.upscale", "THUMBNAIL_UPSCALE")
	v.BindEnv("kafka.enabled", "KAFKA_ENABLED")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("kafka.consumer_topic", "KAFKA_CONSUMER_TOPIC")
	v.BindEnv("kafka.consumer_group_id", "KAFKA_CONSUMER_GROUP_ID")
	v.BindEnv("kafka.producer_topic", "KAFKA_PRODUCER_TOPIC")
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.address", "REDIS_ADDRESS")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.s3.endpoint", "S3_ENDPOINT")
	v.BindEnv("storage.s3.region", "S3_REGION")
	v.BindEnv("storage.s3.access_key_id", "S3_ACCESS_KEY_ID")
	v.BindEnv("storage.s3.secret_access_key", "S3_SECRET_ACCESS_KEY")
	v.BindEnv("storage.s3.public_url", "S3_PUBLIC_URL")
	v.BindEnv("storage.source_container", "SOURCE_CONTAINER")
	v.BindEnv("storage.destination_container", "DESTINATION_CONTAINER")
	v.BindEnv("webhook.key", "WEBHOOK_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
