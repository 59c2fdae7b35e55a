// Package store persists the wallet session token and payload across several
// key-value backends with legacy-key fallback chains.
//
// The Adapter is the only type the session manager talks to. It resolves the
// token through an ordered list of read candidates (ephemeral payload token,
// durable primary key, durable legacy keys, cookie, in-memory fallback) and
// writes through a single canonical path that keeps every location in sync.
// Sentinel values ("null", "undefined") left behind by older front ends are
// treated as absence everywhere.
//
// # Backends
//
//   - MemoryBackend    – process-local, short-lived payload store
//   - FileBackend      – durable JSON file, change-watchable via fsnotify
//   - RedisBackend     – durable shared store for multi-host deployments
//   - CookieJarBackend – read-only view of externally issued wallet cookies
//
// Any Backend may optionally implement Watcher; the Adapter then surfaces
// external changes to its own keys so the owner can reload-and-revalidate
// rather than trust local state.
//
// # Usage
//
//	durable, _ := store.NewFileBackend(path)
//	adapter := store.NewAdapter(
//	    store.WithDurable(durable),
//	    store.WithEphemeral(store.NewMemoryBackend()),
//	)
//	token, payload := adapter.Load(ctx)
package store
