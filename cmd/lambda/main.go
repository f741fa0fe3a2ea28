package main

import (
	"context"
	"fmt"

	awsevents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/app"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/config"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/events"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/mq"
	pkglog "github.com/weiawesome/wes-io-live/thumbnail-service/pkg/log"
)

const transportLambda = "lambda"

// Initialised once per execution environment, reused across invocations.
var dispatcher *mq.Dispatcher

// handler processes one S3 trigger invocation. Only failures that a retry
// could fix are returned, so Lambda does not redeliver undecodable images.
func handler(ctx context.Context, evt awsevents.S3Event) error {
	ctx = pkglog.WithFields(ctx, pkglog.FieldTransport, transportLambda)
	l := pkglog.Ctx(ctx)

	notifications := events.FromLambdaS3Event(evt)
	handled, err := dispatcher.DispatchNotifications(ctx, notifications)
	if err != nil {
		l.Error().Err(err).Int("handled", handled).Msg("failed to process s3 event")
		return fmt.Errorf("process s3 event: %w", err)
	}

	l.Info().Int("records", len(evt.Records)).Int("handled", handled).Msg("s3 event processed")
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		ServiceName: "thumbnail-lambda",
	})
	l := pkglog.L()

	ctx := context.Background()
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
	dispatcher = mq.NewDispatcher(app.NewFilter(cfg), proc.WithTransport(transportLambda), transportLambda)

	lambda.Start(handler)
}
