package session

import (
	"slices"
	"sync"
)

// Event tags a listener notification. Events are informational: consumers
// pull current state via GetSession rather than reading payloads off the
// notification, so repeated or coalesced events are harmless.
type Event int

const (
	EventLogin Event = iota
	EventLogout
	EventValidated
	EventRenewalRequired
	EventReconnectRequired
	EventRedirectRequired
)

func (e Event) String() string {
	switch e {
	case EventLogin:
		return "login"
	case EventLogout:
		return "logout"
	case EventValidated:
		return "validated"
	case EventRenewalRequired:
		return "renewal_required"
	case EventReconnectRequired:
		return "reconnect_required"
	case EventRedirectRequired:
		return "redirect_required"
	default:
		return "unknown"
	}
}

// Listener receives state-transition notifications.
type Listener func(Event)

// listenerRegistry is the observer set downstream consumers subscribe to.
// Notification is synchronous, in subscription order, and happens after the
// manager's internal state is fully updated, never mid-update.
type listenerRegistry struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]Listener
}

func (r *listenerRegistry) subscribe(fn Listener) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.listeners == nil {
		r.listeners = make(map[int]Listener)
	}

	id := r.nextID
	r.nextID++
	r.listeners[id] = fn

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.listeners, id)
	}
}

func (r *listenerRegistry) notify(events ...Event) {
	if len(events) == 0 {
		return
	}

	// Snapshot under the lock, invoke outside it: listeners are expected to
	// call back into the manager (GetSession) while handling an event.
	r.mu.Lock()
	ids := make([]int, 0, len(r.listeners))
	for id := range r.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]Listener, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, r.listeners[id])
	}
	r.mu.Unlock()

	for _, ev := range events {
		for _, fn := range fns {
			fn(ev)
		}
	}
}
