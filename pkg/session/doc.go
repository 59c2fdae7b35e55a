// Package session keeps one process-wide answer to "is this client
// authenticated right now, and with which token?" for the wallet backend.
//
// A Manager restores any persisted session at construction, polls the server
// for validity on a fixed interval, and funnels every state change through a
// synchronous listener registry so dependent components re-render without
// polling the manager themselves.
//
// # Architecture
//
//	┌────────────┐  subscribe/pull   ┌──────────────────────────┐
//	│ consumers  │ ◄───────────────► │         Manager          │
//	└────────────┘                   │  state machine + breaker │
//	                                 └──────┬───────────┬───────┘
//	                          store.Adapter │           │ authclient.Client
//	                                        ▼           ▼
//	                                 local backends   auth API
//
// The failure-handling split is the heart of the design: only an explicit
// server rejection destroys the session. Transient failures (network errors,
// 5xx, unparseable bodies) leave the record byte-for-byte intact
// and simply wait for the next poll. Three consecutive rejections trip the
// circuit breaker and pause polling until the next login.
//
// # Usage
//
//	cfg, _ := session.LoadConfig()
//	mgr := session.New(cfg,
//	    session.WithStore(adapter),
//	)
//	defer mgr.Close()
//
//	unsubscribe := mgr.Subscribe(func(ev session.Event) {
//	    snap := mgr.GetSession() // pull, don't trust the event payload
//	    render(snap)
//	})
//	defer unsubscribe()
//
//	if ok := mgr.CheckSession(ctx); !ok {
//	    // anonymous
//	}
//
// Navigation is never performed here: Authorize returns a Decision and the
// presentation layer decides whether to follow the redirect.
package session
