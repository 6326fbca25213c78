// Package blob defines the named-blob persistence boundary. Application
// state is a small set of named blobs, each holding one serialized entity
// collection; the engine never sees anything richer than Get/Put on opaque
// keys.
package blob

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when no blob exists under the key.
var ErrKeyNotFound = errors.New("blob: key not found")

// Store is a key-value store of opaque byte blobs under stable string keys.
type Store interface {
	// Get returns the blob stored under key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put stores value under key, overwriting any previous blob.
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes the blob under key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}
