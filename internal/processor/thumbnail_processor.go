package processor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/events"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/metrics"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/mq"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/thumbnail"
	pkglog "github.com/weiawesome/wes-io-live/thumbnail-service/pkg/log"
	"github.com/weiawesome/wes-io-live/thumbnail-service/pkg/storage"
)

var (
	// ErrUnexpectedContainer means the locator does not point at the source container.
	ErrUnexpectedContainer = errors.New("object is not in the source container")

	// ErrSourceTooLarge means the source object exceeds the configured byte limit.
	ErrSourceTooLarge = errors.New("source object too large")
)

// IsPermanent reports whether retrying Process for the same object is pointless.
func IsPermanent(err error) bool {
	return thumbnail.IsPermanent(err) ||
		errors.Is(err, ErrUnexpectedContainer) ||
		errors.Is(err, ErrSourceTooLarge) ||
		errors.Is(err, events.ErrInvalidLocator) ||
		errors.Is(err, storage.ErrNotFound)
}

// Options configures a ThumbnailProcessor.
type Options struct {
	// MaxSourceBytes caps how much of a source object is read.
	MaxSourceBytes int64
	// URLExpiry is the lifetime of presigned URLs put into published events.
	URLExpiry time.Duration
	// Transport labels metrics ("kafka", "webhook", "lambda").
	Transport string
}

// ThumbnailProcessor implements Processor and mq.UploadEventHandler.
type ThumbnailProcessor struct {
	srcStorage storage.Storage // reads originals (source container)
	dstStorage storage.Storage // writes thumbnails (destination container)
	generator  *thumbnail.Generator
	publisher  mq.ThumbnailEventPublisher
	opts       Options
}

var (
	_ Processor             = (*ThumbnailProcessor)(nil)
	_ mq.UploadEventHandler = (*ThumbnailProcessor)(nil)
)

// NewThumbnailProcessor wires the generator between the two stores.
func NewThumbnailProcessor(
	srcStorage storage.Storage,
	dstStorage storage.Storage,
	generator *thumbnail.Generator,
	publisher mq.ThumbnailEventPublisher,
	opts Options,
) *ThumbnailProcessor {
	if publisher == nil {
		publisher = mq.NopPublisher{}
	}
	return &ThumbnailProcessor{
		srcStorage: srcStorage,
		dstStorage: dstStorage,
		generator:  generator,
		publisher:  publisher,
		opts:       opts,
	}
}

// WithTransport returns a copy of p whose metrics carry the given transport label.
func (p *ThumbnailProcessor) WithTransport(transport string) *ThumbnailProcessor {
	cp := *p
	cp.opts.Transport = transport
	return &cp
}

// HandleUploadEvent processes a notification. Permanent failures are logged
// and dropped, since redelivery cannot fix them; other errors are returned.
func (p *ThumbnailProcessor) HandleUploadEvent(ctx context.Context, n *events.Notification) error {
	_, err := p.Process(ctx, n.Locator)
	if err != nil && IsPermanent(err) {
		l := pkglog.Ctx(ctx)
		l.Warn().Err(err).
			Str(pkglog.FieldContainer, n.Locator.Container).
			Str(pkglog.FieldBlob, n.Locator.Name).
			Msg("dropping upload event")
		return nil
	}
	return err
}

// Process reads the original, generates the thumbnail, writes it under the
// same name into the destination container (overwriting), and publishes a
// thumbnail-created event.
func (p *ThumbnailProcessor) Process(ctx context.Context, loc events.Locator) (*Result, error) {
	l := pkglog.Ctx(ctx).With().
		Str(pkglog.FieldContainer, loc.Container).
		Str(pkglog.FieldBlob, loc.Name).
		Logger()

	if err := loc.Validate(); err != nil {
		p.fail(metrics.ReasonRejected)
		return nil, err
	}
	if loc.Container != p.srcStorage.Container() {
		p.fail(metrics.ReasonRejected)
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedContainer, loc)
	}

	// 1. Read original from source container.
	src, err := p.readSource(ctx, loc.Name)
	if err != nil {
		p.fail(metrics.ReasonRead)
		return nil, err
	}
	metrics.SourceBytes.Observe(float64(len(src)))

	// 2. Generate.
	start := time.Now()
	thumb, err := p.generator.Generate(src)
	metrics.GenerateDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		p.fail(failureReason(err))
		return nil, fmt.Errorf("generate %s: %w", loc, err)
	}

	// 3. Write to destination container under the same name.
	dst := events.Locator{Container: p.dstStorage.Container(), Name: loc.Name}
	if err := p.dstStorage.Write(ctx, dst.Name, bytes.NewReader(thumb.Data), thumb.Size(), thumb.ContentType); err != nil {
		p.fail(metrics.ReasonWrite)
		return nil, fmt.Errorf("write thumbnail %s: %w", dst, err)
	}

	res := &Result{
		Source:      loc,
		Thumbnail:   dst,
		Width:       thumb.Width,
		Height:      thumb.Height,
		Size:        thumb.Size(),
		ContentType: thumb.ContentType,
	}

	if u, err := p.dstStorage.GetURL(ctx, dst.Name, p.opts.URLExpiry); err != nil {
		l.Warn().Err(err).Msg("failed to resolve thumbnail url")
	} else {
		res.URL = u
	}

	metrics.ThumbnailsGenerated.WithLabelValues(thumb.SourceFormat, p.opts.Transport).Inc()
	l.Info().
		Int(pkglog.FieldWidth, res.Width).
		Int(pkglog.FieldHeight, res.Height).
		Int64(pkglog.FieldSize, res.Size).
		Msg("uploaded thumbnail")

	// 4. Publish thumbnail-created (best-effort).
	if err := p.publisher.PublishThumbnailCreated(ctx, newCreatedEvent(res)); err != nil {
		l.Warn().Err(err).Msg("failed to publish thumbnail created event")
	}

	return res, nil
}

func (p *ThumbnailProcessor) readSource(ctx context.Context, name string) ([]byte, error) {
	rc, err := p.srcStorage.Read(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	defer rc.Close()

	limit := p.opts.MaxSourceBytes
	if limit <= 0 {
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read source: %w", err)
		}
		return data, nil
	}

	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrSourceTooLarge, limit)
	}
	return data, nil
}

func (p *ThumbnailProcessor) fail(reason string) {
	metrics.ThumbnailFailures.WithLabelValues(reason, p.opts.Transport).Inc()
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, thumbnail.ErrDecodeFailed):
		return metrics.ReasonDecode
	case errors.Is(err, thumbnail.ErrEncodeFailed):
		return metrics.ReasonEncode
	default:
		return metrics.ReasonSpec
	}
}

func newCreatedEvent(res *Result) *mq.ThumbnailCreatedEvent {
	return &mq.ThumbnailCreatedEvent{
		EventID:     uuid.NewString(),
		Source:      mq.ObjectRef{Bucket: res.Source.Container, Key: res.Source.Name},
		Thumbnail:   mq.ObjectRef{Bucket: res.Thumbnail.Container, Key: res.Thumbnail.Name, URL: res.URL},
		Width:       res.Width,
		Height:      res.Height,
		Size:        res.Size,
		ContentType: res.ContentType,
		Timestamp:   time.Now().Unix(),
	}
}
