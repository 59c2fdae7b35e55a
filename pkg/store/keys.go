package store

// Key literals shared by the adapter and its legacy fallbacks. These must stay
// stable across releases: older builds persisted sessions under the legacy
// names and those sessions must keep resolving.
const (
	// TokenKey is the canonical durable-store token key.
	TokenKey = "sessionkit.token"

	// SessionKey holds the JSON-encoded session payload in the ephemeral store.
	SessionKey = "sessionkit.session"

	// LegacySessionKey is the pre-rename ephemeral payload key.
	LegacySessionKey = "active_session"

	// CookieName is the cookie carrying externally issued wallet sessions.
	CookieName = "wallet_session"

	// RedirectKey stores the intended destination before a login redirect.
	RedirectKey = "redirect.after_login"
)

// legacyTokenKeys are older durable-store token keys, checked in order after
// TokenKey and kept in sync on every write so downgrade paths still work.
var legacyTokenKeys = []string{"auth_token", "jwt_token"}

// balanceChains enumerates the per-chain balance caches the adapter owns for
// clearing purposes. Stale balance caches after logout have caused
// re-authentication bugs, so Clear must cover all of them.
var balanceChains = []string{"xrp", "eth", "sol", "btc"}

// WalletAddressKey returns the durable key holding the connected wallet
// address for chain.
func WalletAddressKey(chain string) string {
	return "wallet.address." + chain
}

// WalletTypeKey returns the durable key holding the connected wallet type
// (e.g. "xumm", "metamask") for chain.
func WalletTypeKey(chain string) string {
	return "wallet.type." + chain
}

// BalanceKey returns the durable key of the cached balance for chain.
func BalanceKey(chain string) string {
	return "balance." + chain
}
