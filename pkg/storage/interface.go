package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned (wrapped) when a key does not exist.
var ErrNotFound = errors.New("object not found")

// Storage defines the object store operations used by the thumbnail pipeline.
// One Storage instance addresses exactly one container (S3 bucket or local directory).
type Storage interface {
	// Write stores content from the reader with the given key, overwriting any
	// existing object. size is the expected content size (-1 if unknown).
	Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Read retrieves content for the given key.
	// The caller is responsible for closing the returned ReadCloser.
	Read(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the content with the given key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// Exists checks if content with the given key exists.
	Exists(ctx context.Context, key string) (bool, error)

	// GetURL returns a URL for accessing the content.
	// For local storage this is a path relative to the container root,
	// for S3 a public URL or a presigned URL valid for expires.
	GetURL(ctx context.Context, key string, expires time.Duration) (string, error)

	// Container returns the bucket or directory name this store addresses.
	Container() string
}
