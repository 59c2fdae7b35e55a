package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/walletfront/sessionkit/pkg/authclient"
	"github.com/walletfront/sessionkit/pkg/store"
)

// Manager owns the session state for one process: which bearer token to
// attach to requests, whether it is currently valid, and when to silently
// heal, warn, or log out. It drives the validity poll, the failure circuit
// breaker and the listener notifications; consumers only ever read through
// GetSession and mutate through the public operations.
type Manager struct {
	cfg    Config
	store  *store.Adapter
	client *authclient.Client
	logger *slog.Logger

	mu                sync.Mutex
	record            *Record
	state             authState
	checking          bool
	lastValid         bool
	failures          int
	generation        uuid.UUID
	reconnectRequired bool
	pollStop          chan struct{}
	closed            bool

	watchCancel context.CancelFunc
	wg          sync.WaitGroup

	listeners listenerRegistry
}

// New creates a Manager, restores any locally persisted session, starts
// watching the store for external changes, and, when a session already
// exists, starts the validity poll. Call Close to tear all of that down.
func New(cfg Config, opts ...Option) *Manager {
	m := &Manager{
		cfg:        cfg,
		logger:     slog.Default(),
		generation: uuid.New(),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.store == nil {
		m.store = store.NewAdapter()
	}
	if m.client == nil {
		m.client = authclient.New(cfg.BaseURL, authclient.WithLogger(m.logger))
	}
	if m.cfg.PollInterval <= 0 {
		m.cfg.PollInterval = DefaultConfig().PollInterval
	}
	if m.cfg.FailureThreshold <= 0 {
		m.cfg.FailureThreshold = DefaultConfig().FailureThreshold
	}
	if m.cfg.RequestTimeout <= 0 {
		m.cfg.RequestTimeout = DefaultConfig().RequestTimeout
	}

	m.restoreLocal()
	m.startWatching()

	m.mu.Lock()
	if m.record != nil || m.storeToken() != "" {
		m.startPollingLocked()
	}
	m.mu.Unlock()

	return m
}

// restoreLocal loads the persisted record, if any, and trusts it until the
// next validation round trip.
func (m *Manager) restoreLocal() {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.RequestTimeout)
	defer cancel()

	token, payload := m.store.Load(ctx)
	if len(payload) == 0 {
		return
	}

	var rec Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		m.logger.Debug("discarding unreadable session payload", "error", err)
		return
	}

	if rec.Token == "" {
		rec.Token = token
	}
	if rec.Authenticated && rec.Handle == "" {
		// An authenticated record without a handle violates the data model;
		// treat the whole payload as stale.
		return
	}

	m.mu.Lock()
	m.record = &rec
	if rec.Authenticated {
		m.lastValid = true
		if rec.NeedsRenewal {
			m.state = authState{current: StateNeedsRenewal, prev: StateNeedsRenewal}
		} else {
			m.state = authState{current: StateAuthenticated, prev: StateAuthenticated}
		}
	}
	m.mu.Unlock()
}

// GetSession returns the current snapshot. Pure in-memory read.
func (m *Manager) GetSession() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.record == nil || !m.record.Authenticated {
		return Snapshot{}
	}

	return Snapshot{
		IsLoggedIn:   true,
		Token:        m.record.Token,
		Handle:       m.record.Handle,
		Username:     m.record.Username,
		NeedsRenewal: m.record.NeedsRenewal,
		Wallet:       m.record.Wallet(),
		ExpiresAt:    m.record.ExpiresAt,
	}
}

// IsLoggedIn reports whether a server-confirmed session is present.
func (m *Manager) IsLoggedIn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record != nil && m.record.Authenticated
}

// UserHandle returns the canonical account name, or "" when anonymous.
func (m *Manager) UserHandle() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.record == nil {
		return ""
	}
	return m.record.Handle
}

// WalletData returns the normalized per-chain address view.
func (m *Manager) WalletData() NormalizedWalletData {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record.Wallet()
}

// State returns the current explicit auth state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.current
}

// PollingActive reports whether the background validity poll is running.
// It goes false when the circuit breaker trips and true again on the next
// login.
func (m *Manager) PollingActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pollStop != nil
}

// Subscribe registers a listener for state transitions and returns its
// unsubscribe function.
func (m *Manager) Subscribe(fn Listener) func() {
	return m.listeners.subscribe(fn)
}

// GetSessionToken returns the token from the live record, falling back to
// the storage resolution chain.
func (m *Manager) GetSessionToken(ctx context.Context) string {
	m.mu.Lock()
	if m.record != nil && m.record.Token != "" {
		token := m.record.Token
		m.mu.Unlock()
		return token
	}
	m.mu.Unlock()

	return m.store.LoadToken(ctx)
}

// SetSessionToken swaps the bearer token after a renewal without rebuilding
// the rest of the record, and clears the renewal flag.
func (m *Manager) SetSessionToken(ctx context.Context, token string) error {
	m.mu.Lock()

	if m.record == nil {
		err := m.store.SaveToken(ctx, token)
		m.mu.Unlock()
		return err
	}

	rec := m.record.Clone()
	rec.Token = token
	rec.NeedsRenewal = false
	rec.LastActivity = time.Now()
	m.record = rec

	if m.state.current == StateNeedsRenewal {
		_ = m.state.fire(eventRenewalResolved)
	}

	m.persistLocked(ctx)
	m.mu.Unlock()

	m.listeners.notify(EventValidated)
	return nil
}

// SetSession establishes a fresh authenticated session after a login. It
// resets the failure counter and restarts polling if the circuit breaker had
// paused it.
func (m *Manager) SetSession(ctx context.Context, token string, data LoginData) error {
	if data.Handle == "" {
		data.Handle = data.Username
	}
	if data.Handle == "" {
		return ErrMissingHandle
	}

	now := time.Now()
	rec := &Record{
		Token:             token,
		Handle:            data.Handle,
		Username:          data.Username,
		Authenticated:     true,
		WalletData:        data.WalletData,
		WalletAddresses:   data.WalletAddresses,
		ExpiresAt:         data.ExpiresAt,
		LoginTime:         now,
		LastActivity:      now,
		AutoLogoutEnabled: data.AutoLogoutEnabled,
		AutoLogoutMinutes: data.AutoLogoutMinutes,
	}
	if rec.Username == "" {
		rec.Username = rec.Handle
	}
	if rec.AutoLogoutMinutes <= 0 {
		rec.AutoLogoutMinutes = m.cfg.AutoLogoutMinutes
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}

	m.record = rec
	m.generation = uuid.New()
	m.failures = 0
	m.lastValid = true
	m.reconnectRequired = false
	_ = m.state.fire(eventLoginConfirmed)
	m.persistLocked(ctx)
	m.startPollingLocked()
	m.mu.Unlock()

	m.listeners.notify(EventLogin)
	return nil
}

// LoginData carries the server-provided material for SetSession.
type LoginData struct {
	Handle            string
	Username          string
	WalletData        map[string]any
	WalletAddresses   map[string]string
	ExpiresAt         *time.Time
	AutoLogoutEnabled bool
	AutoLogoutMinutes int
}

// ClearSession destroys the local session: record, every storage key, and
// the in-flight generation, so a validation that is still running cannot
// resurrect the cleared state.
func (m *Manager) ClearSession(ctx context.Context) {
	m.mu.Lock()
	m.clearLocked(ctx)
	m.mu.Unlock()

	m.listeners.notify(EventLogout)
}

// clearLocked implements ClearSession under m.mu, without notifying.
func (m *Manager) clearLocked(ctx context.Context) {
	m.generation = uuid.New()
	m.record = nil
	m.lastValid = false
	_ = m.state.fire(eventSessionCleared)

	if err := m.store.Clear(ctx); err != nil {
		m.logger.Debug("storage clear incomplete", "error", err)
	}
}

// Logout tells the server to drop the session, then clears locally. The
// server call is best-effort: its failure never blocks the local clear.
func (m *Manager) Logout(ctx context.Context) {
	token := m.GetSessionToken(ctx)
	if token != "" {
		m.client.Logout(ctx, token)
	}
	m.ClearSession(ctx)
}

// CheckSession validates the current session against the server and applies
// the outcome. With no local token it attempts a backend restore through the
// cookie-scoped session-info endpoint. Reentrant calls while a check is in
// flight return the cached validity instead of issuing a second request.
func (m *Manager) CheckSession(ctx context.Context) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	if m.checking {
		v := m.lastValid
		m.mu.Unlock()
		return v
	}
	m.checking = true
	gen := m.generation
	var token string
	if m.record != nil {
		token = m.record.Token
	}
	m.mu.Unlock()

	if token == "" {
		token = m.store.LoadToken(ctx)
	}

	if token == "" {
		ok := m.restoreFromBackend(ctx, gen)
		m.mu.Lock()
		m.checking = false
		m.mu.Unlock()
		return ok
	}

	m.mu.Lock()
	if err := m.state.fire(eventValidationStarted); err != nil {
		m.logger.Warn("unexpected auth state before validation", "state", m.state.current.String())
	}
	m.mu.Unlock()

	res := m.client.Validate(ctx, token, m.store)

	return m.applyOutcome(ctx, gen, token, res)
}

// applyOutcome folds a validation result into manager state. Results that
// raced a ClearSession or a fresh login (generation mismatch) are discarded.
func (m *Manager) applyOutcome(ctx context.Context, gen uuid.UUID, token string, res authclient.Result) bool {
	m.mu.Lock()
	m.checking = false

	if m.generation != gen {
		v := m.lastValid
		m.mu.Unlock()
		return v
	}

	var events []Event
	var valid bool

	switch res.Outcome {
	case authclient.OutcomeValid:
		m.record = m.freshRecordLocked(token, res)
		m.failures = 0
		m.lastValid = true
		valid = true
		_ = m.state.fire(eventValidationPassed)
		m.persistLocked(ctx)
		events = append(events, EventValidated)

	case authclient.OutcomeNeedsRenewal:
		m.record = m.renewalRecordLocked(token, res)
		m.failures = 0
		m.lastValid = true
		valid = true
		_ = m.state.fire(eventRenewalRequired)
		m.persistLocked(ctx)
		events = append(events, EventRenewalRequired)

	case authclient.OutcomeInvalid:
		m.failures++
		m.logger.Info("session rejected by server", "consecutive_failures", m.failures)
		if m.failures >= m.cfg.FailureThreshold {
			// The server has repeatedly confirmed this session is dead;
			// stop hammering it. SetSession restarts the poll.
			m.stopPollingLocked()
		}
		_ = m.state.fire(eventValidationFailed)
		m.clearLocked(ctx)
		events = append(events, EventLogout)

	default: // OutcomeTransient
		// Nothing conclusive happened: record, failure counter and schedule
		// all stay exactly as they were.
		_ = m.state.fire(eventValidationInconclusive)
		valid = m.record != nil && m.record.Authenticated
		m.lastValid = valid
	}

	m.mu.Unlock()
	m.listeners.notify(events...)
	return valid
}

// restoreFromBackend adopts an authenticated cookie-scoped backend session
// that the local store does not know about (e.g. a restored device). Adoption
// is a login, not a revalidation.
func (m *Manager) restoreFromBackend(ctx context.Context, gen uuid.UUID) bool {
	info, ok := m.client.SessionInfo(ctx)

	m.mu.Lock()
	if m.closed || m.generation != gen {
		v := m.lastValid
		m.mu.Unlock()
		return v
	}

	if !ok || !info.Authenticated || info.SessionToken == "" || (info.Handle == "" && info.Username == "") {
		m.lastValid = false
		m.reconnectRequired = true
		m.mu.Unlock()
		m.listeners.notify(EventReconnectRequired)
		return false
	}

	now := time.Now()
	rec := &Record{
		Token:             info.SessionToken,
		Handle:            info.Handle,
		Username:          info.Username,
		Authenticated:     true,
		WalletAddresses:   info.WalletAddresses,
		ExpiresAt:         info.ExpiresAt,
		LoginTime:         now,
		LastActivity:      now,
		AutoLogoutMinutes: m.cfg.AutoLogoutMinutes,
	}
	if rec.Handle == "" {
		rec.Handle = rec.Username
	}
	if rec.Username == "" {
		rec.Username = rec.Handle
	}

	m.record = rec
	m.failures = 0
	m.lastValid = true
	m.reconnectRequired = false
	_ = m.state.fire(eventLoginConfirmed)
	m.persistLocked(ctx)
	m.startPollingLocked()
	m.mu.Unlock()

	m.listeners.notify(EventLogin)
	return true
}

// Reconnect re-establishes a session from explicit credentials, used when a
// user must manually recover (e.g. after clearing storage).
func (m *Manager) Reconnect(ctx context.Context, handle, password string) bool {
	res, ok := m.client.Reconnect(ctx, handle, password)
	if !ok {
		return false
	}

	now := time.Now()
	rec := &Record{
		Token:             res.SessionToken,
		Handle:            handle,
		Username:          handle,
		Authenticated:     true,
		WalletData:        res.WalletData,
		ExpiresAt:         res.ExpiresAt,
		LoginTime:         now,
		LastActivity:      now,
		AutoLogoutMinutes: m.cfg.AutoLogoutMinutes,
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.record = rec
	m.generation = uuid.New()
	m.failures = 0
	m.lastValid = true
	m.reconnectRequired = false
	_ = m.state.fire(eventLoginConfirmed)
	m.persistLocked(ctx)
	m.startPollingLocked()
	m.mu.Unlock()

	m.listeners.notify(EventLogin)
	return true
}

// ReconnectRequired reports whether a failed backend restore left the
// manager waiting for explicit credentials.
func (m *Manager) ReconnectRequired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reconnectRequired
}

// Authorize decides whether route may be shown right now. On auth-required
// routes without a session it stores the intended destination and returns
// the login route as a redirect signal; public routes always render, at
// worst anonymously. The manager never navigates by itself.
func (m *Manager) Authorize(ctx context.Context, route string) Decision {
	if m.IsLoggedIn() {
		return Decision{Allowed: true}
	}
	if m.CheckSession(ctx) {
		return Decision{Allowed: true}
	}
	if !RequiresAuth(route) {
		return Decision{Allowed: true}
	}

	if err := m.store.SetRedirect(ctx, route); err != nil {
		m.logger.Debug("storing post-login redirect failed", "error", err)
	}
	m.listeners.notify(EventRedirectRequired)
	return Decision{Allowed: false, RedirectTo: m.cfg.LoginRoute}
}

// Close stops the poll timer and the storage watcher and waits for both to
// exit. The manager must not be used afterwards.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.stopPollingLocked()
	cancel := m.watchCancel
	m.watchCancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
	return nil
}

// freshRecordLocked builds the replacement record for a Valid outcome.
// LoginTime and the idle-logout policy carry over from the previous record;
// everything else comes from the server. Callers must hold m.mu.
func (m *Manager) freshRecordLocked(token string, res authclient.Result) *Record {
	now := time.Now()
	rec := &Record{
		Token:             token,
		Handle:            res.Handle,
		Username:          res.Username,
		Authenticated:     true,
		WalletData:        res.WalletData,
		WalletAddresses:   res.WalletAddresses,
		ExpiresAt:         res.ExpiresAt,
		LoginTime:         now,
		LastActivity:      now,
		AutoLogoutMinutes: m.cfg.AutoLogoutMinutes,
	}

	if prev := m.record; prev != nil {
		rec.LoginTime = prev.LoginTime
		rec.AutoLogoutEnabled = prev.AutoLogoutEnabled
		rec.AutoLogoutMinutes = prev.AutoLogoutMinutes
		if rec.Handle == "" {
			rec.Handle = prev.Handle
		}
	}
	if rec.Username == "" {
		rec.Username = rec.Handle
	}
	return rec
}

// renewalRecordLocked merges a NeedsRenewal response into the existing
// record: identity and wallet fields update, LoginTime and the idle-logout
// settings already in effect are preserved, and Authenticated stays true.
// Callers must hold m.mu.
func (m *Manager) renewalRecordLocked(token string, res authclient.Result) *Record {
	now := time.Now()

	rec := m.record.Clone()
	if rec == nil {
		rec = &Record{
			LoginTime:         now,
			AutoLogoutMinutes: m.cfg.AutoLogoutMinutes,
		}
	}

	rec.Token = token
	if res.Handle != "" {
		rec.Handle = res.Handle
	}
	if res.Username != "" {
		rec.Username = res.Username
	}
	if res.WalletData != nil {
		rec.WalletData = res.WalletData
	}
	if res.WalletAddresses != nil {
		rec.WalletAddresses = res.WalletAddresses
	}
	if res.ExpiresAt != nil {
		rec.ExpiresAt = res.ExpiresAt
	}
	rec.Authenticated = true
	rec.NeedsRenewal = true
	rec.LastActivity = now
	if rec.Username == "" {
		rec.Username = rec.Handle
	}
	return rec
}

// persistLocked writes the current record to both stores. Callers must hold
// m.mu.
func (m *Manager) persistLocked(ctx context.Context) {
	if m.record == nil {
		return
	}

	payload, err := json.Marshal(m.record)
	if err != nil {
		m.logger.Error("session record not serializable", "error", err)
		return
	}
	if err := m.store.SavePayload(ctx, payload); err != nil {
		m.logger.Debug("persisting session payload failed", "error", err)
	}
	if m.record.Token != "" {
		if err := m.store.SaveToken(ctx, m.record.Token); err != nil {
			m.logger.Debug("persisting session token failed", "error", err)
		}
	}
}

// startPollingLocked starts the validity poll if it is not already running.
// Callers must hold m.mu.
func (m *Manager) startPollingLocked() {
	if m.pollStop != nil || m.closed {
		return
	}

	stop := make(chan struct{})
	m.pollStop = stop
	m.wg.Add(1)
	go m.pollLoop(stop)
}

// stopPollingLocked pauses the validity poll. Callers must hold m.mu.
func (m *Manager) stopPollingLocked() {
	if m.pollStop != nil {
		close(m.pollStop)
		m.pollStop = nil
	}
}

func (m *Manager) pollLoop(stop <-chan struct{}) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), m.cfg.RequestTimeout)
			// No session, no poll: the tick is a no-op until first login.
			if m.sessionExists(ctx) {
				m.CheckSession(ctx)
			}
			cancel()
		}
	}
}

func (m *Manager) sessionExists(ctx context.Context) bool {
	m.mu.Lock()
	if m.record != nil && m.record.Token != "" {
		m.mu.Unlock()
		return true
	}
	m.mu.Unlock()

	return m.store.LoadToken(ctx) != ""
}

// storeToken reads the resolved token with a bounded context, for use during
// construction.
func (m *Manager) storeToken() string {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.RequestTimeout)
	defer cancel()
	return m.store.LoadToken(ctx)
}

// startWatching subscribes to external storage changes. Another process
// rewriting or removing the token keys triggers a reload-and-revalidate
// instead of this process trusting its own state.
func (m *Manager) startWatching() {
	ctx, cancel := context.WithCancel(context.Background())

	events, err := m.store.Watch(ctx)
	if err != nil {
		cancel()
		if !errors.Is(err, store.ErrWatchUnsupported) {
			m.logger.Debug("storage watch unavailable", "error", err)
		}
		return
	}

	m.mu.Lock()
	m.watchCancel = cancel
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for ev := range events {
			m.logger.Debug("external storage change", "key", ev.Key)
			m.reloadAndRevalidate()
		}
	}()
}

func (m *Manager) reloadAndRevalidate() {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.RequestTimeout)
	defer cancel()

	// Read the backends directly: after an external change the durable store
	// is current, not this process's payload or record.
	token := m.store.StoredToken(ctx)

	m.mu.Lock()
	hadRecord := m.record != nil
	if hadRecord && token != "" && m.record.Token != token {
		// Another process rotated the shared token. Adopt it before
		// validating; revalidating the stale in-memory token would get a
		// rejection and wipe the other process's fresh session. The
		// generation bump discards any in-flight result for the old token.
		rec := m.record.Clone()
		rec.Token = token
		m.record = rec
		m.generation = uuid.New()
	}
	m.mu.Unlock()

	if token == "" {
		if hadRecord {
			// Another process logged out; follow it.
			m.ClearSession(ctx)
		}
		return
	}

	m.CheckSession(ctx)
}
