package session

import "strings"

// NormalizedWalletData is the per-chain address view. Empty fields mean the
// chain has no connected wallet.
type NormalizedWalletData struct {
	XRPAddress string
	ETHAddress string
	SOLAddress string
	BTCAddress string
}

// walletKeyAliases maps each chain to the key spellings seen across server
// responses and legacy storage, lowercased. Order matters: the first alias
// with a value wins.
var walletKeyAliases = map[string][]string{
	"xrp": {"xrp", "xrpaddress", "ripple", "xumm", "xaman"},
	"eth": {"eth", "ethaddress", "ethereum", "evm", "metamask"},
	"sol": {"sol", "soladdress", "solana", "phantom"},
	"btc": {"btc", "btcaddress", "bitcoin", "xverse"},
}

// NormalizeWallet folds the two wallet shapes the server uses into a single
// per-chain view. The structured walletData object wins over the raw
// walletAddresses map; non-string walletData values are skipped. Key matching
// is case-insensitive.
func NormalizeWallet(data map[string]any, addresses map[string]string) NormalizedWalletData {
	pick := func(chain string) string {
		for _, alias := range walletKeyAliases[chain] {
			for k, v := range data {
				s, ok := v.(string)
				if ok && s != "" && strings.ToLower(k) == alias {
					return s
				}
			}
		}
		for _, alias := range walletKeyAliases[chain] {
			for k, v := range addresses {
				if v != "" && strings.ToLower(k) == alias {
					return v
				}
			}
		}
		return ""
	}

	return NormalizedWalletData{
		XRPAddress: pick("xrp"),
		ETHAddress: pick("eth"),
		SOLAddress: pick("sol"),
		BTCAddress: pick("btc"),
	}
}
