package store

import "context"

// Backend is a flat string key-value store. Implementations must be safe for
// concurrent use; values are full-replace snapshots, so last-write-wins at the
// key level is acceptable.
type Backend interface {
	// Get returns the value for key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// Event reports an externally originated change to a key.
type Event struct {
	Key string
}

// Watcher is an optional Backend capability: it surfaces changes made by
// other processes sharing the same backing store. Changes made through this
// backend instance are not reported.
type Watcher interface {
	// Watch returns a channel of change events. The channel is closed when
	// ctx is cancelled or the backend is closed.
	Watch(ctx context.Context) (<-chan Event, error)
}
