package processor_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/events"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/mq"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/processor"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/thumbnail"
	"github.com/weiawesome/wes-io-live/thumbnail-service/pkg/storage"
)

type fakePublisher struct {
	published []*mq.ThumbnailCreatedEvent
	err       error
}

func (f *fakePublisher) PublishThumbnailCreated(_ context.Context, e *mq.ThumbnailCreatedEvent) error {
	f.published = append(f.published, e)
	return f.err
}

func (f *fakePublisher) Close() error { return nil }

type fixture struct {
	src, dst  *storage.LocalStorage
	publisher *fakePublisher
	proc      *processor.ThumbnailProcessor
}

func newFixture(t *testing.T, maxSourceBytes int64) *fixture {
	t.Helper()
	base := t.TempDir()
	src, err := storage.NewLocalStorage(storage.LocalConfig{BasePath: base}, "uploads")
	require.NoError(t, err)
	dst, err := storage.NewLocalStorage(storage.LocalConfig{BasePath: base}, "thumbnails")
	require.NoError(t, err)

	gen, err := thumbnail.NewGenerator(thumbnail.DefaultSpec())
	require.NoError(t, err)

	pub := &fakePublisher{}
	proc := processor.NewThumbnailProcessor(src, dst, gen, pub, processor.Options{
		MaxSourceBytes: maxSourceBytes,
		Transport:      "test",
	})
	return &fixture{src: src, dst: dst, publisher: pub, proc: proc}
}

func (f *fixture) put(t *testing.T, name string, data []byte) {
	t.Helper()
	require.NoError(t, f.src.Write(context.Background(), name, bytes.NewReader(data), int64(len(data)), "application/octet-stream"))
}

func (f *fixture) thumbnail(t *testing.T, name string) image.Config {
	t.Helper()
	rc, err := f.dst.Read(context.Background(), name)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	return cfg
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(w, h, color.NRGBA{B: 255, A: 255}), imaging.PNG))
	return buf.Bytes()
}

func TestProcess_WritesThumbnailUnderSameName(t *testing.T) {
	f := newFixture(t, 1<<20)
	f.put(t, "photos/cat.png", pngBytes(t, 400, 200))

	res, err := f.proc.Process(context.Background(), events.Locator{Container: "uploads", Name: "photos/cat.png"})
	require.NoError(t, err)

	assert.Equal(t, events.Locator{Container: "thumbnails", Name: "photos/cat.png"}, res.Thumbnail)
	assert.Equal(t, 128, res.Width)
	assert.Equal(t, 64, res.Height)
	assert.Equal(t, "image/jpeg", res.ContentType)
	assert.Equal(t, "/thumbnails/photos/cat.png", res.URL)

	cfg := f.thumbnail(t, "photos/cat.png")
	assert.Equal(t, 128, cfg.Width)
	assert.Equal(t, 64, cfg.Height)

	require.Len(t, f.publisher.published, 1)
	ev := f.publisher.published[0]
	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, mq.ObjectRef{Bucket: "uploads", Key: "photos/cat.png"}, ev.Source)
	assert.Equal(t, "thumbnails", ev.Thumbnail.Bucket)
	assert.Equal(t, res.Size, ev.Size)
}

func TestProcess_OverwritesExistingThumbnail(t *testing.T) {
	f := newFixture(t, 1<<20)
	ctx := context.Background()
	loc := events.Locator{Container: "uploads", Name: "a.png"}

	f.put(t, "a.png", pngBytes(t, 256, 256))
	_, err := f.proc.Process(ctx, loc)
	require.NoError(t, err)

	f.put(t, "a.png", pngBytes(t, 256, 128))
	_, err = f.proc.Process(ctx, loc)
	require.NoError(t, err)

	cfg := f.thumbnail(t, "a.png")
	assert.Equal(t, 64, cfg.Height)
}

func TestProcess_PublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, 1<<20)
	f.publisher.err = errors.New("broker down")
	f.put(t, "a.png", pngBytes(t, 10, 10))

	_, err := f.proc.Process(context.Background(), events.Locator{Container: "uploads", Name: "a.png"})
	require.NoError(t, err)

	ok, err := f.dst.Exists(context.Background(), "a.png")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestProcess_Errors(t *testing.T) {
	f := newFixture(t, 64)
	f.put(t, "big.png", bytes.Repeat([]byte{0xff}, 1024))
	f.put(t, "junk.png", []byte("not an image"))

	tests := []struct {
		name string
		loc  events.Locator
		want error
	}{
		{"wrong container", events.Locator{Container: "thumbnails", Name: "a.png"}, processor.ErrUnexpectedContainer},
		{"missing object", events.Locator{Container: "uploads", Name: "missing.png"}, storage.ErrNotFound},
		{"too large", events.Locator{Container: "uploads", Name: "big.png"}, processor.ErrSourceTooLarge},
		{"not an image", events.Locator{Container: "uploads", Name: "junk.png"}, thumbnail.ErrDecodeFailed},
		{"empty name", events.Locator{Container: "uploads"}, events.ErrInvalidLocator},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.proc.Process(context.Background(), tt.loc)
			require.ErrorIs(t, err, tt.want)
			assert.True(t, processor.IsPermanent(err))
		})
	}

	assert.Empty(t, f.publisher.published)
}

func TestHandleUploadEvent_DropsPermanentFailures(t *testing.T) {
	f := newFixture(t, 1<<20)
	f.put(t, "junk.png", []byte("not an image"))

	err := f.proc.HandleUploadEvent(context.Background(), &events.Notification{
		Locator: events.Locator{Container: "uploads", Name: "junk.png"},
	})
	assert.NoError(t, err)

	ok, err := f.dst.Exists(context.Background(), "junk.png")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsPermanent_TransientErrors(t *testing.T) {
	assert.False(t, processor.IsPermanent(errors.New("connection reset")))
	assert.False(t, processor.IsPermanent(nil))
}
