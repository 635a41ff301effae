package repositories

import "context"

// UpdateFn receives the current value stored under a key (nil when absent)
// and returns the value to write back. Returning an error aborts the update
// and leaves the stored value unchanged.
type UpdateFn func(current []byte) ([]byte, error)

// KVBackend is a key-value store holding whole serialized collections.
type KVBackend interface {
	// Get returns the value stored under key, or nil when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Update performs an atomic read-modify-write of key. Concurrent updates
	// of the same key never interleave.
	Update(ctx context.Context, key string, fn UpdateFn) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}
