package mq_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/events"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/mq"
)

type recordingHandler struct {
	got []events.Notification
	err error
}

func (h *recordingHandler) HandleUploadEvent(_ context.Context, n *events.Notification) error {
	h.got = append(h.got, *n)
	return h.err
}

const s3Payload = `{"Records":[
  {"eventName":"s3:ObjectCreated:Put","s3":{"bucket":{"name":"uploads"},"object":{"key":"a.jpg","size":10}}},
  {"eventName":"s3:ObjectRemoved:Delete","s3":{"bucket":{"name":"uploads"},"object":{"key":"b.jpg"}}},
  {"eventName":"s3:ObjectCreated:Put","s3":{"bucket":{"name":"thumbnails"},"object":{"key":"a.jpg"}}}
]}`

func TestDispatcher_FiltersAndDispatches(t *testing.T) {
	h := &recordingHandler{}
	d := mq.NewDispatcher(events.Filter{
		Container:  "uploads",
		EventNames: []string{"s3:ObjectCreated:Put"},
	}, h, "test")

	n, err := d.Dispatch(context.Background(), []byte(s3Payload))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, h.got, 1)
	assert.Equal(t, events.Locator{Container: "uploads", Name: "a.jpg"}, h.got[0].Locator)
	assert.Equal(t, int64(10), h.got[0].Size)
}

func TestDispatcher_HandlerErrorsAreSwallowed(t *testing.T) {
	h := &recordingHandler{err: errors.New("boom")}
	d := mq.NewDispatcher(events.Filter{}, h, "test")

	n, err := d.Dispatch(context.Background(), []byte(s3Payload))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestDispatcher_DispatchNotificationsReturnsHandlerErrors(t *testing.T) {
	boom := errors.New("boom")
	h := &recordingHandler{err: boom}
	d := mq.NewDispatcher(events.Filter{Container: "uploads"}, h, "test")

	n, err := d.DispatchNotifications(context.Background(), []events.Notification{
		{Locator: events.Locator{Container: "uploads", Name: "a.jpg"}},
		{Locator: events.Locator{Container: "other", Name: "b.jpg"}},
		{Locator: events.Locator{Container: "uploads", Name: "c.jpg"}},
	})
	assert.Equal(t, 2, n)
	require.ErrorIs(t, err, boom)
	assert.Len(t, h.got, 2)
}

func TestDispatcher_UnresolvableNotificationsAreDropped(t *testing.T) {
	h := &recordingHandler{}
	d := mq.NewDispatcher(events.Filter{Container: "uploads"}, h, "test")

	n, err := d.DispatchNotifications(context.Background(), []events.Notification{
		{ID: "bad", Err: events.ErrInvalidLocator},
		{Locator: events.Locator{Container: "uploads", Name: "a.jpg"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, h.got, 1)
	assert.Equal(t, "a.jpg", h.got[0].Locator.Name)
}

func TestDispatcher_EventGridPayload(t *testing.T) {
	h := &recordingHandler{}
	d := mq.NewDispatcher(events.Filter{Container: "uploads"}, h, "test")

	body := `[{"id":"1","eventType":"Microsoft.Storage.BlobCreated","subject":"s",
	  "eventTime":"2024-01-01T00:00:00Z","data":{"url":"https://a.blob.core.windows.net/uploads/x.png"}}]`

	n, err := d.Dispatch(context.Background(), []byte(body))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "x.png", h.got[0].Locator.Name)
	assert.Equal(t, "1", h.got[0].ID)
}

func TestDispatcher_Malformed(t *testing.T) {
	d := mq.NewDispatcher(events.Filter{}, &recordingHandler{}, "test")

	_, err := d.Dispatch(context.Background(), []byte("not json"))
	assert.Error(t, err)
}

func TestNopPublisher(t *testing.T) {
	var p mq.ThumbnailEventPublisher = mq.NopPublisher{}
	assert.NoError(t, p.PublishThumbnailCreated(context.Background(), &mq.ThumbnailCreatedEvent{}))
	assert.NoError(t, p.Close())
}
