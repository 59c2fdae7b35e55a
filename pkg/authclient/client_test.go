package authclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walletfront/sessionkit/pkg/authclient"
)

// staticWallets is a WalletContextSource with a fixed context per chain.
type staticWallets map[string][2]string

func (w staticWallets) WalletContext(ctx context.Context, chain string) (string, string, error) {
	c, ok := w[chain]
	if !ok {
		return "", "", assert.AnError
	}
	return c[0], c[1], nil
}

func serve(t *testing.T, handler http.HandlerFunc) *authclient.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return authclient.New(srv.URL)
}

func respond(t *testing.T, status int, body string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestValidate_NativeOutcomes(t *testing.T) {
	ctx := context.Background()

	t.Run("explicit valid flag", func(t *testing.T) {
		c := serve(t, respond(t, 200, `{"valid":true,"handle":"alice"}`))
		res := c.Validate(ctx, "tok", nil)
		assert.Equal(t, authclient.OutcomeValid, res.Outcome)
		assert.Equal(t, "alice", res.Handle)
	})

	t.Run("success plus authenticated", func(t *testing.T) {
		c := serve(t, respond(t, 200, `{"success":true,"authenticated":true,"handle":"alice"}`))
		res := c.Validate(ctx, "tok", nil)
		assert.Equal(t, authclient.OutcomeValid, res.Outcome)
	})

	t.Run("bare authenticated", func(t *testing.T) {
		c := serve(t, respond(t, 200, `{"authenticated":true,"handle":"alice"}`))
		res := c.Validate(ctx, "tok", nil)
		assert.Equal(t, authclient.OutcomeValid, res.Outcome)
	})

	t.Run("handle falls back to username", func(t *testing.T) {
		c := serve(t, respond(t, 200, `{"valid":true,"username":"al"}`))
		res := c.Validate(ctx, "tok", nil)
		assert.Equal(t, "al", res.Handle)
	})

	t.Run("renewal on 200", func(t *testing.T) {
		c := serve(t, respond(t, 200, `{"needsRenewal":true,"authenticated":true,"handle":"bob"}`))
		res := c.Validate(ctx, "tok", nil)
		assert.Equal(t, authclient.OutcomeNeedsRenewal, res.Outcome)
		assert.Equal(t, "bob", res.Handle)
	})

	t.Run("renewal signaled through 401", func(t *testing.T) {
		c := serve(t, respond(t, 401, `{"needsRenewal":true,"authenticated":true,"handle":"bob"}`))
		res := c.Validate(ctx, "tok", nil)
		assert.Equal(t, authclient.OutcomeNeedsRenewal, res.Outcome)
	})

	t.Run("plain 401 is invalid", func(t *testing.T) {
		c := serve(t, respond(t, 401, `{"error":"invalid"}`))
		res := c.Validate(ctx, "tok", nil)
		assert.Equal(t, authclient.OutcomeInvalid, res.Outcome)
	})

	t.Run("403 is invalid", func(t *testing.T) {
		c := serve(t, respond(t, 403, `{}`))
		res := c.Validate(ctx, "tok", nil)
		assert.Equal(t, authclient.OutcomeInvalid, res.Outcome)
	})

	t.Run("definitive non-valid 200 body is invalid", func(t *testing.T) {
		c := serve(t, respond(t, 200, `{"valid":false,"authenticated":false}`))
		res := c.Validate(ctx, "tok", nil)
		assert.Equal(t, authclient.OutcomeInvalid, res.Outcome)
	})

	t.Run("server error is transient", func(t *testing.T) {
		c := serve(t, respond(t, 500, `{"error":"boom"}`))
		res := c.Validate(ctx, "tok", nil)
		assert.Equal(t, authclient.OutcomeTransient, res.Outcome)
	})

	t.Run("unparseable 200 body is transient", func(t *testing.T) {
		c := serve(t, respond(t, 200, `<html>gateway</html>`))
		res := c.Validate(ctx, "tok", nil)
		assert.Equal(t, authclient.OutcomeTransient, res.Outcome)
	})

	t.Run("network error is transient", func(t *testing.T) {
		srv := httptest.NewServer(respond(t, 200, `{}`))
		srv.Close()
		c := authclient.New(srv.URL)

		res := c.Validate(ctx, "tok", nil)
		assert.Equal(t, authclient.OutcomeTransient, res.Outcome)
	})
}

func TestValidate_WalletTokens(t *testing.T) {
	ctx := context.Background()
	wallets := staticWallets{"xrp": {"rN3xAddressExample9fQ2", "xumm"}}

	t.Run("routes to auth-status endpoint", func(t *testing.T) {
		var path atomic.Value
		c := serve(t, func(w http.ResponseWriter, r *http.Request) {
			path.Store(r.URL.Path)
			assert.Equal(t, "Bearer xumm_tok123", r.Header.Get("Authorization"))
			respond(t, 200, `{"authenticated":true,"handle":"alice"}`)(w, r)
		})

		res := c.Validate(ctx, "xumm_tok123", wallets)
		assert.Equal(t, authclient.OutcomeValid, res.Outcome)
		assert.Equal(t, "/auth-status/rN3xAddressExample9fQ2/xrp", path.Load())
	})

	t.Run("synthesizes handle when server omits one", func(t *testing.T) {
		c := serve(t, respond(t, 200, `{"authenticated":true}`))
		res := c.Validate(ctx, "xumm_tok123", wallets)
		require.Equal(t, authclient.OutcomeValid, res.Outcome)
		assert.Equal(t, "xumm:rN3xAd…9fQ2", res.Handle)
	})

	t.Run("missing wallet context is invalid without a network call", func(t *testing.T) {
		var calls atomic.Int32
		c := serve(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			respond(t, 200, `{"authenticated":true}`)(w, r)
		})

		res := c.Validate(ctx, "phantom_tok", staticWallets{})
		assert.Equal(t, authclient.OutcomeInvalid, res.Outcome)
		assert.Zero(t, calls.Load())
	})
}

func TestSessionInfo(t *testing.T) {
	ctx := context.Background()

	t.Run("authenticated session", func(t *testing.T) {
		c := serve(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/session-info", r.URL.Path)
			assert.Empty(t, r.Header.Get("Authorization"))
			respond(t, 200, `{"authenticated":true,"sessionToken":"cookie-tok","handle":"alice","walletAddresses":{"xrp":"rAddr"}}`)(w, r)
		})

		info, ok := c.SessionInfo(ctx)
		require.True(t, ok)
		assert.True(t, info.Authenticated)
		assert.Equal(t, "cookie-tok", info.SessionToken)
		assert.Equal(t, "alice", info.Handle)
		assert.Equal(t, "rAddr", info.WalletAddresses["xrp"])
	})

	t.Run("anonymous session", func(t *testing.T) {
		c := serve(t, respond(t, 200, `{"authenticated":false}`))
		info, ok := c.SessionInfo(ctx)
		require.True(t, ok)
		assert.False(t, info.Authenticated)
	})

	t.Run("sentinel token sanitized", func(t *testing.T) {
		c := serve(t, respond(t, 200, `{"authenticated":true,"sessionToken":"null"}`))
		info, ok := c.SessionInfo(ctx)
		require.True(t, ok)
		assert.Empty(t, info.SessionToken)
	})

	t.Run("server error", func(t *testing.T) {
		c := serve(t, respond(t, 503, `{}`))
		_, ok := c.SessionInfo(ctx)
		assert.False(t, ok)
	})
}

func TestReconnect(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		c := serve(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/reconnect", r.URL.Path)
			respond(t, 200, `{"success":true,"sessionToken":"fresh-tok","walletData":{"xrpAddress":"rAddr"}}`)(w, r)
		})

		res, ok := c.Reconnect(ctx, "alice", "hunter2")
		require.True(t, ok)
		assert.Equal(t, "fresh-tok", res.SessionToken)
		assert.Equal(t, "rAddr", res.WalletData["xrpAddress"])
	})

	t.Run("rejected credentials", func(t *testing.T) {
		c := serve(t, respond(t, 401, `{"success":false}`))
		_, ok := c.Reconnect(ctx, "alice", "wrong")
		assert.False(t, ok)
	})

	t.Run("success without a token is a failure", func(t *testing.T) {
		c := serve(t, respond(t, 200, `{"success":true}`))
		_, ok := c.Reconnect(ctx, "alice", "hunter2")
		assert.False(t, ok)
	})
}

func TestLogout_BestEffort(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	srv := httptest.NewServer(respond(t, 200, `{}`))
	srv.Close()

	// Must not panic or block on a dead server.
	authclient.New(srv.URL).Logout(ctx, "tok")
}
