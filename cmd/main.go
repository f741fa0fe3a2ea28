package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/app"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/config"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/metrics"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/mq"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/webhook"
	pkglog "github.com/weiawesome/wes-io-live/thumbnail-service/pkg/log"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// Initialise structured logger.
	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Level == "debug",
		ServiceName: "thumbnail-service",
	})
	l := pkglog.L()
	l.Info().
		Int("max_width", cfg.Thumbnail.MaxWidth).
		Bool("upscale", cfg.Thumbnail.Upscale).
		Msg("thumbnail-service starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialise storage backends (src = uploads, dst = thumbnails).
	srcStorage, dstStorage, err := app.NewStorages(ctx, cfg.Storage)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to init storage")
	}

	publisher, err := app.NewPublisher(cfg)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to init publisher")
	}

	proc, err := app.NewProcessor(cfg, srcStorage, dstStorage, publisher)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to init processor")
	}
	filter := app.NewFilter(cfg)

	g, gctx := errgroup.WithContext(ctx)

	// Initialise Kafka consumer.
	var consumer mq.UploadEventConsumer
	if cfg.Kafka.Enabled {
		dispatcher := mq.NewDispatcher(filter, proc.WithTransport(mq.TransportKafka), mq.TransportKafka)
		consumer, err = mq.NewKafkaConsumer(
			cfg.Kafka.Brokers,
			cfg.Kafka.ConsumerTopic,
			cfg.Kafka.ConsumerGroupID,
			dispatcher,
		)
		if err != nil {
			l.Fatal().Err(err).Msg("failed to init kafka consumer")
		}
		if err := consumer.Start(gctx); err != nil {
			l.Fatal().Err(err).Msg("failed to start consumer")
		}
	}

	// HTTP server: health, metrics and the push endpoint.
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), pkglog.GinMiddleware(l))
	metrics.RegisterRoutes(r)

	dispatcher := mq.NewDispatcher(filter, proc.WithTransport(webhook.TransportWebhook), webhook.TransportWebhook)
	handler := webhook.NewHandler(dispatcher, cfg.Webhook.Key)
	if cfg.Webhook.Enabled {
		handler.RegisterRoutes(r)
	} else {
		r.GET("/health", handler.Health)
		r.GET("/healthz", handler.Health)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: r,
	}

	g.Go(func() error {
		l.Info().Str("addr", srv.Addr).Bool("webhook", cfg.Webhook.Enabled).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		l.Info().Msg("shutting down: waiting for in-flight processing to complete")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			l.Warn().Err(err).Msg("http server shutdown")
		}

		shutdownDone := make(chan struct{})
		go func() {
			defer close(shutdownDone)
			closeTransports(l, consumer, publisher)
		}()

		select {
		case <-shutdownDone:
			l.Info().Msg("shutdown complete")
		case <-shutdownCtx.Done():
			l.Warn().Dur("timeout", shutdownTimeout).Msg("shutdown timed out")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		l.Error().Err(err).Msg("thumbnail-service stopped with error")
		os.Exit(1)
	}
}

// closeTransports drains the consumer (it waits for the in-flight message),
// then flushes the publisher. Close errors are logged.
func closeTransports(l zerolog.Logger, consumer mq.UploadEventConsumer, publisher mq.ThumbnailEventPublisher) {
	if consumer != nil {
		if err := consumer.Close(); err != nil {
			l.Warn().Err(err).Msg("failed to close consumer")
		}
	}
	if err := publisher.Close(); err != nil {
		l.Warn().Err(err).Msg("failed to close publisher")
	}
}
