package storage_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-io-live/thumbnail-service/pkg/storage"
)

func newLocal(t *testing.T, container string) *storage.LocalStorage {
	t.Helper()
	st, err := storage.NewLocalStorage(storage.LocalConfig{BasePath: t.TempDir()}, container)
	require.NoError(t, err)
	return st
}

func TestLocalStorage_WriteReadOverwrite(t *testing.T) {
	ctx := context.Background()
	st := newLocal(t, "thumbnails")

	require.NoError(t, st.Write(ctx, "a/b.jpg", bytes.NewReader([]byte("first")), 5, "image/jpeg"))
	require.NoError(t, st.Write(ctx, "a/b.jpg", bytes.NewReader([]byte("second")), 6, "image/jpeg"))

	rc, err := st.Read(ctx, "a/b.jpg")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Join(st.BasePath(), "a"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLocalStorage_ReadMissing(t *testing.T) {
	st := newLocal(t, "uploads")

	_, err := st.Read(context.Background(), "missing.png")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLocalStorage_ExistsDelete(t *testing.T) {
	ctx := context.Background()
	st := newLocal(t, "uploads")

	ok, err := st.Exists(ctx, "x.png")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, st.Write(ctx, "x.png", bytes.NewReader([]byte("x")), -1, ""))
	ok, err = st.Exists(ctx, "x.png")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, st.Delete(ctx, "x.png"))
	require.NoError(t, st.Delete(ctx, "x.png"))

	ok, err = st.Exists(ctx, "x.png")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalStorage_TraversalStaysInContainer(t *testing.T) {
	ctx := context.Background()
	st := newLocal(t, "uploads")

	require.NoError(t, st.Write(ctx, "../../escape.txt", bytes.NewReader([]byte("x")), 1, ""))

	_, err := os.Stat(filepath.Join(st.BasePath(), "escape.txt"))
	assert.NoError(t, err)
}

func TestLocalStorage_GetURL(t *testing.T) {
	ctx := context.Background()
	st := newLocal(t, "thumbnails")

	_, err := st.GetURL(ctx, "cat.jpg", time.Minute)
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, st.Write(ctx, "cat.jpg", bytes.NewReader([]byte("x")), 1, "image/jpeg"))
	u, err := st.GetURL(ctx, "cat.jpg", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "/thumbnails/cat.jpg", u)
	assert.Equal(t, "thumbnails", st.Container())
}
