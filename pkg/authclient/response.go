package authclient

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// envelope is the superset of every body shape the auth endpoints return.
// Flags are pointers so absence is distinguishable from false.
type envelope struct {
	Valid           *bool             `json:"valid"`
	Success         *bool             `json:"success"`
	Authenticated   *bool             `json:"authenticated"`
	NeedsRenewal    *bool             `json:"needsRenewal"`
	Handle          string            `json:"handle"`
	Username        string            `json:"username"`
	WalletData      map[string]any    `json:"walletData"`
	WalletAddresses map[string]string `json:"walletAddresses"`
	ExpiresAt       json.RawMessage   `json:"expiresAt"`
	SessionToken    string            `json:"sessionToken"`
	Error           string            `json:"error"`
}

func (e *envelope) isAuthenticated() bool {
	return e.Authenticated != nil && *e.Authenticated
}

func (e *envelope) renewalRequested() bool {
	return e.NeedsRenewal != nil && *e.NeedsRenewal
}

// isValid accepts every shape the backend family has used to say "valid":
// explicit valid, success plus authenticated, or a bare authenticated flag.
func (e *envelope) isValid() bool {
	if e.Valid != nil && *e.Valid {
		return true
	}
	if e.Success != nil && *e.Success && e.isAuthenticated() {
		return true
	}
	return e.isAuthenticated()
}

// parseTimestamp accepts epoch seconds, epoch milliseconds or RFC 3339.
func parseTimestamp(raw json.RawMessage) *time.Time {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	s := strings.Trim(string(raw), `"`)

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		var t time.Time
		if n > 1e12 {
			t = time.UnixMilli(n)
		} else {
			t = time.Unix(n, 0)
		}
		return &t
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t
	}
	return nil
}
