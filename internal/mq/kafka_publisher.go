package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/metrics"
	pkglog "github.com/weiawesome/wes-io-live/thumbnail-service/pkg/log"
)

// EventTypeThumbnailCreated is sent in the "event-type" header.
const EventTypeThumbnailCreated = "thumbnail.created"

// KafkaPublisherConfig configures the thumbnail-created producer.
type KafkaPublisherConfig struct {
	Brokers      string
	Topic        string
	Partitions   int
	FlushTimeout time.Duration
}

// KafkaPublisher implements ThumbnailEventPublisher using confluent-kafka-go.
// Delivery is asynchronous: failures reported by the broker after Produce
// returns are logged and counted, not returned.
type KafkaPublisher struct {
	producer     *kafka.Producer
	topic        string
	flushTimeout time.Duration
	doneCh       chan struct{}
}

// NewKafkaPublisher creates the producer and makes sure the topic exists.
func NewKafkaPublisher(cfg KafkaPublisherConfig) (*KafkaPublisher, error) {
	if cfg.Partitions <= 0 {
		cfg.Partitions = 1
	}
	if cfg.FlushTimeout <= 0 {
		cfg.FlushTimeout = 5 * time.Second
	}

	if err := ensureTopic(cfg.Brokers, cfg.Topic, cfg.Partitions); err != nil {
		l := pkglog.L()
		l.Warn().Err(err).Str("topic", cfg.Topic).Msg("failed to ensure topic, may already exist")
	}

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": cfg.Brokers,
		"acks":              "1",
		"linger.ms":         5,
		"compression.type":  "snappy",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	kp := &KafkaPublisher{
		producer:     p,
		topic:        cfg.Topic,
		flushTimeout: cfg.FlushTimeout,
		doneCh:       make(chan struct{}),
	}

	go kp.deliveryReportHandler()

	return kp, nil
}

func ensureTopic(brokers, topic string, partitions int) error {
	admin, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin client: %w", err)
	}
	defer admin.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	results, err := admin.CreateTopics(ctx, []kafka.TopicSpecification{
		{Topic: topic, NumPartitions: partitions, ReplicationFactor: 1},
	})
	if err != nil {
		return err
	}

	for _, result := range results {
		switch result.Error.Code() {
		case kafka.ErrNoError, kafka.ErrTopicAlreadyExists:
		default:
			return fmt.Errorf("failed to create topic %s: %v", result.Topic, result.Error)
		}
	}
	return nil
}

func (kp *KafkaPublisher) deliveryReportHandler() {
	defer close(kp.doneCh)

	l := pkglog.L()
	for e := range kp.producer.Events() {
		msg, ok := e.(*kafka.Message)
		if !ok || msg.TopicPartition.Error == nil {
			continue
		}
		metrics.PublishFailures.WithLabelValues(TransportKafka).Inc()
		l.Error().
			Err(msg.TopicPartition.Error).
			Str(pkglog.FieldBlob, string(msg.Key)).
			Msg("kafka delivery failed")
	}
}

// PublishThumbnailCreated enqueues the event keyed by the source object key,
// so events for one upload stay ordered on a single partition.
func (kp *KafkaPublisher) PublishThumbnailCreated(ctx context.Context, event *ThumbnailCreatedEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal thumbnail created event: %w", err)
	}

	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &kp.topic, Partition: kafka.PartitionAny},
		Key:            []byte(event.Source.Key),
		Value:          value,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
			{Key: "event-type", Value: []byte(EventTypeThumbnailCreated)},
			{Key: "event-id", Value: []byte(event.EventID)},
		},
	}
	if err := kp.producer.Produce(msg, nil); err != nil {
		metrics.PublishFailures.WithLabelValues(TransportKafka).Inc()
		return fmt.Errorf("failed to produce message: %w", err)
	}
	return nil
}

// Close flushes pending messages for at most the flush timeout, then
// releases producer resources.
func (kp *KafkaPublisher) Close() error {
	if n := kp.producer.Flush(int(kp.flushTimeout.Milliseconds())); n > 0 {
		l := pkglog.L()
		l.Warn().Int("pending", n).Msg("kafka producer closed with undelivered messages")
	}
	kp.producer.Close()
	<-kp.doneCh
	return nil
}
