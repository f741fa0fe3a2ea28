package mq

import (
	"context"
	"errors"
)

// MultiPublisher fans events out to several publishers. Every publisher is
// attempted; errors are joined.
type MultiPublisher []ThumbnailEventPublisher

func (m MultiPublisher) PublishThumbnailCreated(ctx context.Context, event *ThumbnailCreatedEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.PublishThumbnailCreated(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiPublisher) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
