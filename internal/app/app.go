// Package app assembles the thumbnail pipeline from configuration. It is
// shared by the long-running service and the Lambda entry point.
package app

import (
	"context"
	"fmt"

	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/config"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/events"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/mq"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/processor"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/thumbnail"
	pkglog "github.com/weiawesome/wes-io-live/thumbnail-service/pkg/log"
	"github.com/weiawesome/wes-io-live/thumbnail-service/pkg/storage"
)

// NewStorages opens the source and destination containers.
func NewStorages(ctx context.Context, cfg config.StorageConfig) (src, dst storage.Storage, err error) {
	l := pkglog.L()

	switch cfg.Type {
	case "s3":
		// One client serves both buckets.
		client, err := storage.NewS3Client(ctx, cfg.S3)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to init s3 client: %w", err)
		}
		src = storage.NewS3StorageFromClient(client, cfg.SourceContainer, cfg.S3.PublicURL)
		dst = storage.NewS3StorageFromClient(client, cfg.DestinationContainer, cfg.S3.PublicURL)
		l.Info().
			Str("endpoint", cfg.S3.Endpoint).
			Str("src_bucket", cfg.SourceContainer).
			Str("dst_bucket", cfg.DestinationContainer).
			Msg("s3 storage initialised")
	case "local":
		srcLocal, err := storage.NewLocalStorage(cfg.Local, cfg.SourceContainer)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to init local source storage: %w", err)
		}
		dstLocal, err := storage.NewLocalStorage(cfg.Local, cfg.DestinationContainer)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to init local destination storage: %w", err)
		}
		src, dst = srcLocal, dstLocal
		l.Info().Str("path", cfg.Local.BasePath).Msg("local storage initialised")
	default:
		return nil, nil, fmt.Errorf("unsupported storage type: %q", cfg.Type)
	}
	return src, dst, nil
}

// NewPublisher returns a publisher for every enabled broker, or a no-op
// publisher when none is enabled.
func NewPublisher(cfg *config.Config) (mq.ThumbnailEventPublisher, error) {
	var pubs mq.MultiPublisher

	if cfg.Kafka.Enabled && cfg.Kafka.ProducerTopic != "" {
		kp, err := mq.NewKafkaPublisher(mq.KafkaPublisherConfig{
			Brokers:    cfg.Kafka.Brokers,
			Topic:      cfg.Kafka.ProducerTopic,
			Partitions: cfg.Kafka.Partitions,
		})
		if err != nil {
			return nil, err
		}
		pubs = append(pubs, kp)
	}

	if cfg.Redis.Enabled {
		rp, err := mq.NewRedisPublisher(cfg.Redis)
		if err != nil {
			pubs.Close()
			return nil, err
		}
		pubs = append(pubs, rp)
	}

	switch len(pubs) {
	case 0:
		return mq.NopPublisher{}, nil
	case 1:
		return pubs[0], nil
	default:
		return pubs, nil
	}
}

// NewProcessor builds the processor for cfg on top of the given stores.
func NewProcessor(cfg *config.Config, src, dst storage.Storage, publisher mq.ThumbnailEventPublisher) (*processor.ThumbnailProcessor, error) {
	gen, err := thumbnail.NewGenerator(cfg.ThumbnailSpec())
	if err != nil {
		return nil, err
	}
	return processor.NewThumbnailProcessor(src, dst, gen, publisher, processor.Options{
		MaxSourceBytes: cfg.Thumbnail.MaxSourceBytes,
		URLExpiry:      cfg.Storage.URLExpiry,
	}), nil
}

// NewFilter restricts notifications to the source container and the
// configured prefix and event names.
func NewFilter(cfg *config.Config) events.Filter {
	return events.Filter{
		Container:  cfg.Storage.SourceContainer,
		Prefix:     cfg.Events.PrefixFilter,
		EventNames: cfg.Events.EventNameFilters,
	}
}
