package mq

import (
	"context"

	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/events"
)

// ObjectRef identifies a stored object by its bucket and key.
type ObjectRef struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	URL    string `json:"url,omitempty"`
}

// ThumbnailCreatedEvent is published after a thumbnail has been stored.
// Consumers define their own matching struct; the contract is the JSON schema.
type ThumbnailCreatedEvent struct {
	EventID     string    `json:"event_id"`
	Source      ObjectRef `json:"source"`
	Thumbnail   ObjectRef `json:"thumbnail"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Timestamp   int64     `json:"timestamp"`
}

// UploadEventHandler is the business-logic callback injected into consumers.
type UploadEventHandler interface {
	HandleUploadEvent(ctx context.Context, n *events.Notification) error
}

// UploadEventConsumer abstracts a transport delivering storage notifications.
type UploadEventConsumer interface {
	Start(ctx context.Context) error
	Close() error
}

// ThumbnailEventPublisher abstracts the producer for thumbnail-created events.
type ThumbnailEventPublisher interface {
	PublishThumbnailCreated(ctx context.Context, event *ThumbnailCreatedEvent) error
	Close() error
}

// NopPublisher discards events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishThumbnailCreated(context.Context, *ThumbnailCreatedEvent) error {
	return nil
}

func (NopPublisher) Close() error { return nil }
