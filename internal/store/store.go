package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the requested key does not exist.
var ErrNotFound = errors.New("key not found")

// Store is the local key-value store the catalog persists into.
// Values are opaque byte slices; the catalog writes JSON arrays.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put writes value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists all stored keys in ascending order.
	Keys(ctx context.Context) ([]string, error)

	// Close cleans up resources.
	Close() error
}
