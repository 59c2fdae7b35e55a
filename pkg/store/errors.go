package store

import "errors"

var (
	// ErrKeyNotFound indicates the key has no value in the backend
	ErrKeyNotFound = errors.New("store.key_not_found")

	// ErrReadOnly indicates the backend does not accept writes
	ErrReadOnly = errors.New("store.read_only")

	// ErrWatchUnsupported indicates the backend cannot report external changes
	ErrWatchUnsupported = errors.New("store.watch_unsupported")

	// ErrClosed indicates the backend has been closed
	ErrClosed = errors.New("store.closed")
)
