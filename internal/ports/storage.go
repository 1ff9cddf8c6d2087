// Package ports define the storage interface for key-value persistence.
package ports

import (
	"context"
)

// KeyValueStore is a named-value store scoped by key.
// Keys are namespaced by the caller as "<user>:<collection>".
// Each Set replaces the whole value; there are no transactions across keys.
//
// Thread-safety: Implementations must be thread-safe.
type KeyValueStore interface {
	// Get returns the value stored at key.
	// A missing key is reported as (nil, false, nil), never as an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set replaces the value stored at key.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes the key. Deleting a missing key is a no-op.
	Delete(ctx context.Context, key string) error

	// Close releases any connection or file handle held by the store.
	Close() error
}
