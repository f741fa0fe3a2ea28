package mq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	pkglog "github.com/weiawesome/wes-io-live/thumbnail-service/pkg/log"
)

// TransportKafka labels logs and metrics for Kafka deliveries.
const TransportKafka = "kafka"

// KafkaConsumer implements UploadEventConsumer using confluent-kafka-go.
// Payloads may be S3/MinIO notifications or EventGrid deliveries.
type KafkaConsumer struct {
	consumer   *kafka.Consumer
	topic      string
	dispatcher *Dispatcher
	doneCh     chan struct{}
}

// NewKafkaConsumer creates a consumer for storage notifications on topic.
func NewKafkaConsumer(brokers, topic, groupID string, dispatcher *Dispatcher) (*KafkaConsumer, error) {
	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  brokers,
		"group.id":           groupID,
		"auto.offset.reset":  "latest",
		"enable.auto.commit": true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}

	return &KafkaConsumer{
		consumer:   c,
		topic:      topic,
		dispatcher: dispatcher,
		doneCh:     make(chan struct{}),
	}, nil
}

// Start subscribes and consumes in a background goroutine until ctx is cancelled.
func (kc *KafkaConsumer) Start(ctx context.Context) error {
	if err := kc.consumer.Subscribe(kc.topic, nil); err != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", kc.topic, err)
	}

	l := pkglog.L()
	l.Info().Str("topic", kc.topic).Msg("storage event consumer started")

	go kc.consumeLoop(ctx)

	return nil
}

func (kc *KafkaConsumer) consumeLoop(ctx context.Context) {
	l := pkglog.L()
	defer close(kc.doneCh)

	for {
		select {
		case <-ctx.Done():
			l.Info().Msg("storage event consumer shutting down")
			return
		default:
			msg, err := kc.consumer.ReadMessage(100 * time.Millisecond)
			if err != nil {
				var kerr kafka.Error
				if errors.As(err, &kerr) && kerr.IsTimeout() {
					continue
				}
				l.Error().Err(err).Msg("kafka consumer error")
				continue
			}
			// In-flight processing completes even after the shutdown signal.
			kc.processMessage(context.WithoutCancel(ctx), msg)
		}
	}
}

func (kc *KafkaConsumer) processMessage(ctx context.Context, msg *kafka.Message) {
	ctx = pkglog.WithFields(ctx,
		pkglog.FieldTransport, TransportKafka,
		pkglog.FieldEventID, msg.TopicPartition.String(),
	)
	l := pkglog.Ctx(ctx)

	if _, err := kc.dispatcher.Dispatch(ctx, msg.Value); err != nil {
		l.Error().Err(err).Msg("dropping undecodable storage notification")
	}
}

// Close waits for the consume loop to drain, then closes the Kafka client.
// ctx passed to Start must already be cancelled.
func (kc *KafkaConsumer) Close() error {
	<-kc.doneCh
	if err := kc.consumer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka consumer: %w", err)
	}
	return nil
}
