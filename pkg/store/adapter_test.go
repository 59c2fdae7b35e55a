package store_test

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walletfront/sessionkit/pkg/store"
)

func TestAdapter_TokenResolution(t *testing.T) {
	ctx := context.Background()

	t.Run("primary key wins over legacy keys", func(t *testing.T) {
		durable := store.NewMemoryBackend()
		require.NoError(t, durable.Set(ctx, "auth_token", "legacy"))
		require.NoError(t, durable.Set(ctx, store.TokenKey, "primary"))

		adapter := store.NewAdapter(store.WithDurable(durable))
		assert.Equal(t, "primary", adapter.LoadToken(ctx))
	})

	t.Run("legacy keys checked in order", func(t *testing.T) {
		durable := store.NewMemoryBackend()
		require.NoError(t, durable.Set(ctx, "jwt_token", "older"))

		adapter := store.NewAdapter(store.WithDurable(durable))
		assert.Equal(t, "older", adapter.LoadToken(ctx))

		require.NoError(t, durable.Set(ctx, "auth_token", "newer"))
		assert.Equal(t, "newer", adapter.LoadToken(ctx))
	})

	t.Run("cookie used when durable store is empty", func(t *testing.T) {
		jar, err := cookiejar.New(nil)
		require.NoError(t, err)

		origin, err := url.Parse("https://wallet.example.com")
		require.NoError(t, err)
		jar.SetCookies(origin, []*http.Cookie{{Name: store.CookieName, Value: "xumm_abc123"}})

		adapter := store.NewAdapter(
			store.WithCookies(store.NewCookieJarBackend(jar, origin)),
		)
		assert.Equal(t, "xumm_abc123", adapter.LoadToken(ctx))
	})

	t.Run("no token anywhere resolves to empty", func(t *testing.T) {
		adapter := store.NewAdapter()
		assert.Empty(t, adapter.LoadToken(ctx))
	})
}

func TestAdapter_SentinelSanitization(t *testing.T) {
	ctx := context.Background()

	for _, sentinel := range []string{"null", "undefined"} {
		t.Run(sentinel, func(t *testing.T) {
			durable := store.NewMemoryBackend()
			require.NoError(t, durable.Set(ctx, store.TokenKey, sentinel))
			require.NoError(t, durable.Set(ctx, "auth_token", sentinel))

			adapter := store.NewAdapter(store.WithDurable(durable))
			assert.Empty(t, adapter.LoadToken(ctx))
		})
	}

	t.Run("sentinel in primary falls through to legacy", func(t *testing.T) {
		durable := store.NewMemoryBackend()
		require.NoError(t, durable.Set(ctx, store.TokenKey, "null"))
		require.NoError(t, durable.Set(ctx, "auth_token", "real-token"))

		adapter := store.NewAdapter(store.WithDurable(durable))
		assert.Equal(t, "real-token", adapter.LoadToken(ctx))
	})

	t.Run("sentinel never persisted by SaveToken", func(t *testing.T) {
		durable := store.NewMemoryBackend()
		adapter := store.NewAdapter(store.WithDurable(durable))
		require.NoError(t, adapter.SaveToken(ctx, "null"))

		for _, key := range []string{store.TokenKey, "auth_token", "jwt_token"} {
			v, err := durable.Get(ctx, key)
			require.NoError(t, err, key)
			assert.Empty(t, v, key)
		}
		assert.Empty(t, adapter.LoadToken(ctx))
	})
}

func TestAdapter_PayloadTokenIsAuthoritative(t *testing.T) {
	ctx := context.Background()

	durable := store.NewMemoryBackend()
	ephemeral := store.NewMemoryBackend()
	require.NoError(t, durable.Set(ctx, store.TokenKey, "stale-durable"))
	require.NoError(t, ephemeral.Set(ctx, store.SessionKey, `{"token":"payload-token","handle":"alice"}`))

	adapter := store.NewAdapter(store.WithDurable(durable), store.WithEphemeral(ephemeral))

	token, payload := adapter.Load(ctx)
	assert.Equal(t, "payload-token", token)
	assert.NotEmpty(t, payload)

	// The payload token must have been fanned out to primary and legacy keys.
	for _, key := range []string{store.TokenKey, "auth_token", "jwt_token"} {
		v, err := durable.Get(ctx, key)
		require.NoError(t, err, key)
		assert.Equal(t, "payload-token", v, key)
	}
}

func TestAdapter_StoredTokenSkipsPayloadAuthority(t *testing.T) {
	ctx := context.Background()

	durable := store.NewMemoryBackend()
	ephemeral := store.NewMemoryBackend()
	require.NoError(t, durable.Set(ctx, store.TokenKey, "rotated-durable"))
	require.NoError(t, ephemeral.Set(ctx, store.SessionKey, `{"token":"stale-payload"}`))

	adapter := store.NewAdapter(store.WithDurable(durable), store.WithEphemeral(ephemeral))

	// StoredToken reads what the backends hold right now and must not let the
	// local payload overwrite an externally rotated durable token.
	assert.Equal(t, "rotated-durable", adapter.StoredToken(ctx))

	v, err := durable.Get(ctx, store.TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "rotated-durable", v)
}

func TestAdapter_PayloadLegacyKey(t *testing.T) {
	ctx := context.Background()

	ephemeral := store.NewMemoryBackend()
	require.NoError(t, ephemeral.Set(ctx, store.LegacySessionKey, `{"token":"from-legacy"}`))

	adapter := store.NewAdapter(store.WithEphemeral(ephemeral))
	token, _ := adapter.Load(ctx)
	assert.Equal(t, "from-legacy", token)
}

func TestAdapter_SaveTokenFansOut(t *testing.T) {
	ctx := context.Background()

	durable := store.NewMemoryBackend()
	adapter := store.NewAdapter(store.WithDurable(durable))
	require.NoError(t, adapter.SaveToken(ctx, "tok-1"))

	for _, key := range []string{store.TokenKey, "auth_token", "jwt_token"} {
		v, err := durable.Get(ctx, key)
		require.NoError(t, err, key)
		assert.Equal(t, "tok-1", v, key)
	}
}

func TestAdapter_ClearIsExhaustive(t *testing.T) {
	ctx := context.Background()

	durable := store.NewMemoryBackend()
	ephemeral := store.NewMemoryBackend()
	adapter := store.NewAdapter(store.WithDurable(durable), store.WithEphemeral(ephemeral))

	require.NoError(t, adapter.SaveToken(ctx, "tok"))
	require.NoError(t, adapter.SavePayload(ctx, []byte(`{"token":"tok"}`)))
	require.NoError(t, ephemeral.Set(ctx, store.LegacySessionKey, `{"token":"tok"}`))
	for _, chain := range []string{"xrp", "eth", "sol", "btc"} {
		require.NoError(t, durable.Set(ctx, store.BalanceKey(chain), "123.45"))
	}

	require.NoError(t, adapter.Clear(ctx))

	assert.Empty(t, adapter.LoadToken(ctx))
	_, payload := adapter.Load(ctx)
	assert.Empty(t, payload)

	for _, key := range []string{
		store.TokenKey, "auth_token", "jwt_token",
		store.BalanceKey("xrp"), store.BalanceKey("eth"),
		store.BalanceKey("sol"), store.BalanceKey("btc"),
	} {
		_, err := durable.Get(ctx, key)
		assert.ErrorIs(t, err, store.ErrKeyNotFound, key)
	}
	for _, key := range []string{store.SessionKey, store.LegacySessionKey} {
		_, err := ephemeral.Get(ctx, key)
		assert.ErrorIs(t, err, store.ErrKeyNotFound, key)
	}
}

func TestAdapter_WalletContext(t *testing.T) {
	ctx := context.Background()
	adapter := store.NewAdapter()

	t.Run("absent context", func(t *testing.T) {
		_, _, err := adapter.WalletContext(ctx, "xrp")
		assert.ErrorIs(t, err, store.ErrKeyNotFound)
	})

	t.Run("round trip", func(t *testing.T) {
		require.NoError(t, adapter.SetWalletContext(ctx, "xrp", "rN3xAddressExample9fQ2", "xumm"))

		address, walletType, err := adapter.WalletContext(ctx, "xrp")
		require.NoError(t, err)
		assert.Equal(t, "rN3xAddressExample9fQ2", address)
		assert.Equal(t, "xumm", walletType)
	})

	t.Run("sentinel address treated as absent", func(t *testing.T) {
		require.NoError(t, adapter.SetWalletContext(ctx, "eth", "undefined", "metamask"))
		_, _, err := adapter.WalletContext(ctx, "eth")
		assert.ErrorIs(t, err, store.ErrKeyNotFound)
	})
}

func TestAdapter_Redirect(t *testing.T) {
	ctx := context.Background()
	adapter := store.NewAdapter()

	assert.Empty(t, adapter.TakeRedirect(ctx))

	require.NoError(t, adapter.SetRedirect(ctx, "/profile/settings"))
	assert.Equal(t, "/profile/settings", adapter.TakeRedirect(ctx))

	// Take removes the stored route.
	assert.Empty(t, adapter.TakeRedirect(ctx))
}
