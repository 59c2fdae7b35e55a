package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// WalletContextSource supplies the stored wallet address and type for a
// chain. The storage adapter satisfies this interface.
type WalletContextSource interface {
	WalletContext(ctx context.Context, chain string) (address, walletType string, err error)
}

// Client talks to the wallet backend's auth endpoints. It never returns
// transport errors to callers: every failure collapses into an Outcome or a
// false ok flag, so a flaky network can never be mistaken for a rejected
// credential.
type Client struct {
	baseURL string
	httpc   *http.Client
	logger  *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client. Attach a cookie jar here when the
// backend issues cookie-scoped wallet sessions.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) {
		if httpc != nil {
			c.httpc = httpc
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Client for the auth API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 10 * time.Second},
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Validate asks the server whether token is still valid. External-wallet
// tokens are validated through the address+chain endpoint; everything else
// goes through the native session endpoint. Both carry the token as a bearer
// credential.
func (c *Client) Validate(ctx context.Context, token string, wallets WalletContextSource) Result {
	if chain, ok := WalletChain(token); ok {
		return c.validateWallet(ctx, token, chain, wallets)
	}
	return c.validateNative(ctx, token)
}

func (c *Client) validateNative(ctx context.Context, token string) Result {
	env, status, err := c.getJSON(ctx, "/session", token)
	return c.classify(env, status, err, token, "", "")
}

func (c *Client) validateWallet(ctx context.Context, token, chain string, wallets WalletContextSource) Result {
	if wallets == nil {
		return Result{Outcome: OutcomeInvalid}
	}

	address, walletType, err := wallets.WalletContext(ctx, chain)
	if err != nil {
		// A wallet token with no stored wallet context is stale by
		// definition; no request can validate it.
		c.logger.DebugContext(ctx, "wallet token without wallet context", "chain", chain)
		return Result{Outcome: OutcomeInvalid}
	}

	path := "/auth-status/" + url.PathEscape(address) + "/" + url.PathEscape(chain)
	env, status, err := c.getJSON(ctx, path, token)
	return c.classify(env, status, err, token, walletType, address)
}

// classify implements the outcome taxonomy. Only an explicit server
// rejection (401/403 without a renewal signal, or a definitive non-valid
// 2xx body) is Invalid; everything ambiguous is Transient.
func (c *Client) classify(env *envelope, status int, err error, token, walletType, address string) Result {
	if err != nil {
		c.logger.Debug("session validation transport error", "error", err)
		return Result{Outcome: OutcomeTransient}
	}

	switch {
	case status >= 200 && status < 300:
		if env == nil {
			// 2xx with an unparseable body: a broken deploy, not a verdict.
			return Result{Outcome: OutcomeTransient}
		}
		if env.renewalRequested() && env.isAuthenticated() {
			return c.buildResult(OutcomeNeedsRenewal, env, token, walletType, address)
		}
		if env.isValid() {
			return c.buildResult(OutcomeValid, env, token, walletType, address)
		}
		return Result{Outcome: OutcomeInvalid}

	case status == http.StatusUnauthorized:
		// Some backends signal renewal through 401 with a body flag; check
		// before treating the status as a rejection.
		if env != nil && env.renewalRequested() {
			return c.buildResult(OutcomeNeedsRenewal, env, token, walletType, address)
		}
		return Result{Outcome: OutcomeInvalid}

	case status == http.StatusForbidden:
		return Result{Outcome: OutcomeInvalid}

	default:
		return Result{Outcome: OutcomeTransient}
	}
}

func (c *Client) buildResult(outcome Outcome, env *envelope, token, walletType, address string) Result {
	r := Result{
		Outcome:         outcome,
		Handle:          env.Handle,
		Username:        env.Username,
		WalletData:      env.WalletData,
		WalletAddresses: env.WalletAddresses,
		ExpiresAt:       parseTimestamp(env.ExpiresAt),
	}

	if r.Handle == "" {
		r.Handle = r.Username
	}
	if r.Handle == "" && walletType != "" && address != "" {
		r.Handle = SynthesizeHandle(walletType, address)
	}
	if r.ExpiresAt == nil {
		r.ExpiresAt = expiryHint(token)
	}

	return r
}

// SessionInfo queries the cookie-scoped session-info endpoint, used to
// restore a backend session the local store does not know about. No bearer
// header is sent; the cookie jar on the HTTP client carries the credential.
func (c *Client) SessionInfo(ctx context.Context) (Info, bool) {
	env, status, err := c.getJSON(ctx, "/session-info", "")
	if err != nil || env == nil || status < 200 || status >= 300 {
		return Info{}, false
	}

	return Info{
		Authenticated:   env.isAuthenticated(),
		SessionToken:    cleanToken(env.SessionToken),
		Handle:          env.Handle,
		Username:        env.Username,
		WalletAddresses: env.WalletAddresses,
		ExpiresAt:       parseTimestamp(env.ExpiresAt),
	}, true
}

// Reconnect re-establishes a session from explicit credentials.
func (c *Client) Reconnect(ctx context.Context, handle, password string) (ReconnectResult, bool) {
	payload, err := json.Marshal(map[string]string{
		"handle":   handle,
		"password": password,
	})
	if err != nil {
		return ReconnectResult{}, false
	}

	env, status, err := c.postJSON(ctx, "/reconnect", "", payload)
	if err != nil || env == nil || status < 200 || status >= 300 {
		return ReconnectResult{}, false
	}

	token := cleanToken(env.SessionToken)
	if env.Success == nil || !*env.Success || token == "" {
		return ReconnectResult{}, false
	}

	return ReconnectResult{
		SessionToken: token,
		WalletData:   env.WalletData,
		ExpiresAt:    parseTimestamp(env.ExpiresAt),
	}, true
}

// Logout tells the server to drop the session. Best-effort: the local clear
// proceeds regardless of what happens here.
func (c *Client) Logout(ctx context.Context, token string) {
	if _, _, err := c.postJSON(ctx, "/logout", token, nil); err != nil {
		c.logger.Debug("server logout failed", "error", err)
	}
}

// getJSON performs a GET and decodes the body. A transport failure is
// returned as err; an unparseable body is reported as a nil envelope with
// the status intact.
func (c *Client) getJSON(ctx context.Context, path, token string) (*envelope, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, 0, err
	}
	return c.do(req, token)
}

func (c *Client) postJSON(ctx context.Context, path, token string, body []byte) (*envelope, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, token)
}

func (c *Client) do(req *http.Request, token string) (*envelope, int, error) {
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, 0, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, resp.StatusCode, nil
	}
	return &env, resp.StatusCode, nil
}

// cleanToken treats the sentinel strings as absence, same as the store does.
func cleanToken(token string) string {
	if token == "null" || token == "undefined" {
		return ""
	}
	return token
}
