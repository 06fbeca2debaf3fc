package blob

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("blob not found")

// Store is write-once archive storage for run artifacts. Keys are
// slash-separated paths, e.g. "runs/<run-id>.json".
type Store interface {
	// Put writes content under key, replacing any previous value.
	Put(ctx context.Context, key string, reader io.Reader) error

	// Get opens the content stored under key.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// List returns every key with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes a blob.
	Delete(ctx context.Context, key string) error
}
