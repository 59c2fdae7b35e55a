package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// Adapter resolves the session token and payload across the configured
// backends. Reads walk an ordered candidate list; writes fan out to the
// canonical key and every legacy key so all locations stay consistent.
type Adapter struct {
	durable   Backend
	ephemeral Backend
	cookies   Backend

	mu       sync.Mutex
	memToken string
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithDurable sets the durable backend (file, Redis).
func WithDurable(b Backend) AdapterOption {
	return func(a *Adapter) { a.durable = b }
}

// WithEphemeral sets the short-lived backend holding the full session payload.
func WithEphemeral(b Backend) AdapterOption {
	return func(a *Adapter) { a.ephemeral = b }
}

// WithCookies sets the read-only cookie backend for externally issued wallet
// sessions.
func WithCookies(b Backend) AdapterOption {
	return func(a *Adapter) { a.cookies = b }
}

// NewAdapter creates an Adapter. Backends default to in-memory stores; the
// cookie backend is optional and absent by default.
func NewAdapter(opts ...AdapterOption) *Adapter {
	a := &Adapter{}
	for _, opt := range opts {
		opt(a)
	}

	if a.durable == nil {
		a.durable = NewMemoryBackend()
	}
	if a.ephemeral == nil {
		a.ephemeral = NewMemoryBackend()
	}

	return a
}

// sanitize maps the sentinel strings older front ends persisted for absent
// values to actual absence.
func sanitize(v string) string {
	if v == "null" || v == "undefined" {
		return ""
	}
	return v
}

// Load returns the current token and the raw session payload, if any.
//
// When the ephemeral payload carries its own token, that token is
// authoritative and is rewritten into the durable primary and legacy keys.
// Otherwise the token resolves in order: durable primary key, durable legacy
// keys, cookie, in-memory fallback.
func (a *Adapter) Load(ctx context.Context) (string, []byte) {
	payload := a.loadPayload(ctx)

	if tok := tokenFromPayload(payload); tok != "" {
		a.writeTokenKeys(ctx, tok)
		a.setMemToken(tok)
		return tok, payload
	}

	return a.resolveToken(ctx), payload
}

// LoadToken returns just the resolved token, or "" when absent.
func (a *Adapter) LoadToken(ctx context.Context) string {
	token, _ := a.Load(ctx)
	return token
}

// StoredToken resolves the token from the backends alone, without the
// payload-token authority rewrite. After an external change the durable store
// is current and the local payload may not be, so the watch path reads
// through here.
func (a *Adapter) StoredToken(ctx context.Context) string {
	return a.resolveToken(ctx)
}

// SaveToken writes token to the durable primary key, every legacy key, and
// the in-memory fallback. Sentinel values are written as absence: the literal
// strings must never reach a durable store.
func (a *Adapter) SaveToken(ctx context.Context, token string) error {
	token = sanitize(token)
	a.setMemToken(token)
	return a.writeTokenKeys(ctx, token)
}

// SavePayload stores the JSON-encoded session payload in the ephemeral store.
func (a *Adapter) SavePayload(ctx context.Context, payload []byte) error {
	return a.ephemeral.Set(ctx, SessionKey, string(payload))
}

// Clear removes every known session key across both stores: the primary and
// legacy token keys, both payload keys, and the per-chain balance caches.
// Partial clears leave stale keys behind, and stale keys resurrect sessions.
func (a *Adapter) Clear(ctx context.Context) error {
	a.setMemToken("")

	var errs []error

	for _, key := range append([]string{TokenKey}, legacyTokenKeys...) {
		if err := a.durable.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	for _, chain := range balanceChains {
		if err := a.durable.Delete(ctx, BalanceKey(chain)); err != nil {
			errs = append(errs, err)
		}
	}
	for _, key := range []string{SessionKey, LegacySessionKey} {
		if err := a.ephemeral.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}

	// The cookie backend is read-only; server logout invalidates the cookie.
	if a.cookies != nil {
		if err := a.cookies.Delete(ctx, CookieName); err != nil && !errors.Is(err, ErrReadOnly) {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Watch surfaces external changes to the adapter's token keys so the owner
// can reload and revalidate instead of trusting local state. Returns
// ErrWatchUnsupported when the durable backend cannot watch.
func (a *Adapter) Watch(ctx context.Context) (<-chan Event, error) {
	watcher, ok := a.durable.(Watcher)
	if !ok {
		return nil, ErrWatchUnsupported
	}

	raw, err := watcher.Watch(ctx)
	if err != nil {
		return nil, err
	}

	own := map[string]struct{}{TokenKey: {}}
	for _, k := range legacyTokenKeys {
		own[k] = struct{}{}
	}

	events := make(chan Event, 16)
	go func() {
		defer close(events)
		for ev := range raw {
			if _, mine := own[ev.Key]; !mine {
				continue
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}

// WalletContext returns the stored wallet address and wallet type for chain.
// Both must be present; a wallet token without its context cannot be
// validated.
func (a *Adapter) WalletContext(ctx context.Context, chain string) (address, walletType string, err error) {
	address, err = a.durable.Get(ctx, WalletAddressKey(chain))
	if err != nil {
		return "", "", err
	}
	walletType, err = a.durable.Get(ctx, WalletTypeKey(chain))
	if err != nil {
		return "", "", err
	}

	address = sanitize(address)
	walletType = sanitize(walletType)
	if address == "" || walletType == "" {
		return "", "", ErrKeyNotFound
	}
	return address, walletType, nil
}

// SetWalletContext persists the connected wallet address and type for chain.
func (a *Adapter) SetWalletContext(ctx context.Context, chain, address, walletType string) error {
	if err := a.durable.Set(ctx, WalletAddressKey(chain), address); err != nil {
		return err
	}
	return a.durable.Set(ctx, WalletTypeKey(chain), walletType)
}

// SetRedirect stores the route to return to after login completes.
func (a *Adapter) SetRedirect(ctx context.Context, route string) error {
	return a.durable.Set(ctx, RedirectKey, route)
}

// TakeRedirect returns and removes the stored post-login route.
func (a *Adapter) TakeRedirect(ctx context.Context) string {
	route, err := a.durable.Get(ctx, RedirectKey)
	if err != nil {
		return ""
	}
	_ = a.durable.Delete(ctx, RedirectKey)
	return sanitize(route)
}

// loadPayload reads the ephemeral payload, trying the current key first and
// the legacy key second.
func (a *Adapter) loadPayload(ctx context.Context) []byte {
	for _, key := range []string{SessionKey, LegacySessionKey} {
		if raw, err := a.ephemeral.Get(ctx, key); err == nil {
			if raw = sanitize(raw); raw != "" {
				return []byte(raw)
			}
		}
	}
	return nil
}

// resolveToken walks the read candidates in priority order.
func (a *Adapter) resolveToken(ctx context.Context) string {
	for _, key := range append([]string{TokenKey}, legacyTokenKeys...) {
		if v, err := a.durable.Get(ctx, key); err == nil {
			if v = sanitize(v); v != "" {
				return v
			}
		}
	}

	if a.cookies != nil {
		if v, err := a.cookies.Get(ctx, CookieName); err == nil {
			if v = sanitize(v); v != "" {
				return v
			}
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.memToken
}

func (a *Adapter) writeTokenKeys(ctx context.Context, token string) error {
	var errs []error
	for _, key := range append([]string{TokenKey}, legacyTokenKeys...) {
		if err := a.durable.Set(ctx, key, token); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *Adapter) setMemToken(token string) {
	a.mu.Lock()
	a.memToken = sanitize(token)
	a.mu.Unlock()
}

func tokenFromPayload(payload []byte) string {
	if len(payload) == 0 {
		return ""
	}
	var probe struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return ""
	}
	return sanitize(probe.Token)
}
