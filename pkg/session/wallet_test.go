package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/walletfront/sessionkit/pkg/session"
)

func TestNormalizeWallet(t *testing.T) {
	t.Run("from walletData canonical keys", func(t *testing.T) {
		got := session.NormalizeWallet(map[string]any{
			"xrpAddress": "rAddr",
			"ethAddress": "0xAddr",
			"solAddress": "soAddr",
			"btcAddress": "bc1Addr",
		}, nil)

		assert.Equal(t, session.NormalizedWalletData{
			XRPAddress: "rAddr",
			ETHAddress: "0xAddr",
			SOLAddress: "soAddr",
			BTCAddress: "bc1Addr",
		}, got)
	})

	t.Run("from raw walletAddresses aliases", func(t *testing.T) {
		got := session.NormalizeWallet(nil, map[string]string{
			"xrp":      "rAddr",
			"ethereum": "0xAddr",
			"SOL":      "soAddr",
			"bitcoin":  "bc1Addr",
		})

		assert.Equal(t, "rAddr", got.XRPAddress)
		assert.Equal(t, "0xAddr", got.ETHAddress)
		assert.Equal(t, "soAddr", got.SOLAddress)
		assert.Equal(t, "bc1Addr", got.BTCAddress)
	})

	t.Run("walletData wins over walletAddresses", func(t *testing.T) {
		got := session.NormalizeWallet(
			map[string]any{"xrp": "from-data"},
			map[string]string{"xrp": "from-addresses"},
		)
		assert.Equal(t, "from-data", got.XRPAddress)
	})

	t.Run("non-string walletData values are skipped", func(t *testing.T) {
		got := session.NormalizeWallet(
			map[string]any{"xrp": 42, "eth": "0xAddr"},
			map[string]string{"xrp": "rAddr"},
		)
		assert.Equal(t, "rAddr", got.XRPAddress)
		assert.Equal(t, "0xAddr", got.ETHAddress)
	})

	t.Run("empty inputs", func(t *testing.T) {
		assert.Zero(t, session.NormalizeWallet(nil, nil))
	})
}

func TestRequiresAuth(t *testing.T) {
	for route, want := range map[string]bool{
		"/wallet":          true,
		"/wallet/xrp":      true,
		"/profile":         true,
		"/profile/edit":    true,
		"/gaming/arena":    true,
		"/nft/1234":        true,
		"/nft-marketplace": false, // listing routes are public
		"/":                false,
		"/swap":            false,
		"/login":           false,
	} {
		assert.Equal(t, want, session.RequiresAuth(route), route)
	}
}
