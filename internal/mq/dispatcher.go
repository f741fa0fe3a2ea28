package mq

import (
	"context"
	"errors"
	"fmt"

	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/events"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/metrics"
	pkglog "github.com/weiawesome/wes-io-live/thumbnail-service/pkg/log"
)

// Dispatcher decodes raw notification payloads, filters them and hands each
// matching object to the handler.
type Dispatcher struct {
	filter    events.Filter
	handler   UploadEventHandler
	transport string
}

// NewDispatcher creates a Dispatcher. transport labels logs and metrics.
func NewDispatcher(filter events.Filter, handler UploadEventHandler, transport string) *Dispatcher {
	return &Dispatcher{filter: filter, handler: handler, transport: transport}
}

// Dispatch processes one payload and returns how many notifications were
// handed to the handler. Handler errors are logged, not returned: the
// payload has been consumed either way. Only undecodable payloads are errors.
func (d *Dispatcher) Dispatch(ctx context.Context, body []byte) (int, error) {
	l := pkglog.Ctx(ctx)

	notifications, err := events.Decode(body)
	if err != nil {
		metrics.ThumbnailFailures.WithLabelValues(metrics.ReasonMalformed, d.transport).Inc()
		return 0, fmt.Errorf("decode notification: %w", err)
	}

	handled, err := d.DispatchNotifications(ctx, notifications)
	if err != nil {
		l.Error().Err(err).Msg("failed to handle upload event")
	}
	return handled, nil
}

// DispatchNotifications filters already decoded notifications and hands the
// matching ones to the handler. Every matching notification is attempted;
// handler errors are joined and returned. Notifications that failed to
// resolve to an object are logged and dropped.
func (d *Dispatcher) DispatchNotifications(ctx context.Context, notifications []events.Notification) (int, error) {
	l := pkglog.Ctx(ctx)

	var errs []error
	handled := 0
	for i := range notifications {
		n := &notifications[i]
		metrics.EventsReceived.WithLabelValues(d.transport).Inc()

		if n.Err != nil {
			metrics.ThumbnailFailures.WithLabelValues(metrics.ReasonRejected, d.transport).Inc()
			l.Warn().Err(n.Err).
				Str(pkglog.FieldEventID, n.ID).
				Str(pkglog.FieldEventType, n.EventName).
				Str(pkglog.FieldSubject, n.Subject).
				Msg("dropping unresolvable notification")
			continue
		}

		if !d.filter.Match(n.EventName, n.Locator) {
			l.Debug().
				Str(pkglog.FieldEventType, n.EventName).
				Str(pkglog.FieldContainer, n.Locator.Container).
				Str(pkglog.FieldBlob, n.Locator.Name).
				Msg("notification filtered out")
			continue
		}

		l.Info().
			Str(pkglog.FieldEventType, n.EventName).
			Str(pkglog.FieldSubject, n.Subject).
			Str(pkglog.FieldContainer, n.Locator.Container).
			Str(pkglog.FieldBlob, n.Locator.Name).
			Int64(pkglog.FieldSize, n.Size).
			Msg("received upload event")

		handled++
		if err := d.handler.HandleUploadEvent(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Locator, err))
		}
	}
	return handled, errors.Join(errs...)
}
