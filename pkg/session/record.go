package session

import "time"

// Record is the full session payload persisted to the store. Both wallet
// shapes the server emits are kept verbatim so a round trip through storage
// loses nothing; consumers read the normalized view through Wallet.
type Record struct {
	Token             string            `json:"token"`
	Handle            string            `json:"handle"`
	Username          string            `json:"username"`
	Authenticated     bool              `json:"authenticated"`
	WalletData        map[string]any    `json:"walletData,omitempty"`
	WalletAddresses   map[string]string `json:"walletAddresses,omitempty"`
	ExpiresAt         *time.Time        `json:"expiresAt,omitempty"`
	LoginTime         time.Time         `json:"loginTime"`
	LastActivity      time.Time         `json:"lastActivity"`
	AutoLogoutEnabled bool              `json:"autoLogoutEnabled,omitempty"`
	AutoLogoutMinutes int               `json:"autoLogoutMinutes,omitempty"`
	NeedsRenewal      bool              `json:"needsRenewal,omitempty"`
}

// Clone returns a deep copy. The manager replaces records wholesale, so a
// merge always works on a copy and map mutations never leak into snapshots
// already handed out.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}

	out := *r
	if r.WalletData != nil {
		out.WalletData = make(map[string]any, len(r.WalletData))
		for k, v := range r.WalletData {
			out.WalletData[k] = v
		}
	}
	if r.WalletAddresses != nil {
		out.WalletAddresses = make(map[string]string, len(r.WalletAddresses))
		for k, v := range r.WalletAddresses {
			out.WalletAddresses[k] = v
		}
	}
	if r.ExpiresAt != nil {
		t := *r.ExpiresAt
		out.ExpiresAt = &t
	}
	return &out
}

// Wallet returns the normalized per-chain address view.
func (r *Record) Wallet() NormalizedWalletData {
	if r == nil {
		return NormalizedWalletData{}
	}
	return NormalizeWallet(r.WalletData, r.WalletAddresses)
}

// Snapshot is the read-only view handed to consumers. The zero value means
// anonymous.
type Snapshot struct {
	IsLoggedIn   bool
	Token        string
	Handle       string
	Username     string
	NeedsRenewal bool
	Wallet       NormalizedWalletData
	ExpiresAt    *time.Time
}
