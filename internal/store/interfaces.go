package store

import (
	"context"
	"errors"
	"io"
)

// ErrNotExist is returned by Get when the requested object is absent.
var ErrNotExist = errors.New("object does not exist")

// ObjectStore is the durable storage the dataset lives in. Object presence is
// the only coordination primitive in the system: the catalog reads completion
// from it and workers write progress into it. Implementations must be safe
// for concurrent use.
type ObjectStore interface {
	// Put writes an object, overwriting any previous version.
	Put(ctx context.Context, key string, r io.Reader, size int64) error

	// Get opens an object for reading. Returns ErrNotExist when absent.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists reports whether an object is present.
	Exists(ctx context.Context, key string) (bool, error)

	// List returns the keys of all objects under the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes an object. Deleting an absent object is not an error.
	Delete(ctx context.Context, key string) error
}
