package mq_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/mq"
)

type countingPublisher struct {
	published int
	closed    bool
	err       error
}

func (c *countingPublisher) PublishThumbnailCreated(context.Context, *mq.ThumbnailCreatedEvent) error {
	c.published++
	return c.err
}

func (c *countingPublisher) Close() error {
	c.closed = true
	return nil
}

func TestMultiPublisher(t *testing.T) {
	broken := errors.New("unavailable")
	a := &countingPublisher{err: broken}
	b := &countingPublisher{}
	p := mq.MultiPublisher{a, b}

	err := p.PublishThumbnailCreated(context.Background(), &mq.ThumbnailCreatedEvent{})
	require.ErrorIs(t, err, broken)
	assert.Equal(t, 1, a.published)
	assert.Equal(t, 1, b.published)

	require.NoError(t, p.Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

func TestNewRedisPublisher_Unreachable(t *testing.T) {
	_, err := mq.NewRedisPublisher(mq.RedisConfig{
		Address:     "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		Channel:     "thumbnail-created",
	})
	assert.Error(t, err)
}
