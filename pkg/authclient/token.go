package authclient

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// walletPrefixes maps recognizable external-wallet token prefixes to the
// chain whose auth-status endpoint validates them. Everything else is a
// native session token.
var walletPrefixes = map[string]string{
	"xumm_":          "xrp",
	"xaman_":         "xrp",
	"metamask_":      "eth",
	"walletconnect_": "eth",
	"phantom_":       "sol",
	"xverse_":        "btc",
}

// WalletChain returns the chain an external-wallet token belongs to, and
// whether the token is an external-wallet token at all.
func WalletChain(token string) (string, bool) {
	for prefix, chain := range walletPrefixes {
		if strings.HasPrefix(token, prefix) {
			return chain, true
		}
	}
	return "", false
}

// SynthesizeHandle builds a display handle for wallet sessions where the
// server supplies none, e.g. "xumm:rN3x…9fQ2".
func SynthesizeHandle(walletType, address string) string {
	return walletType + ":" + truncateAddress(address)
}

func truncateAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "…" + address[len(address)-4:]
}

// expiryHint extracts the exp claim from a native token that happens to be a
// JWT. The claim is read unverified: it is only a display/scheduling hint,
// the server remains the authority on validity.
func expiryHint(token string) *time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}

	t := exp.Time
	return &t
}
