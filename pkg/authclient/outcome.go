package authclient

import "time"

// Outcome classifies a validation round trip. The zero value is Transient:
// anything unclassified must never destroy session state.
type Outcome int

const (
	// OutcomeTransient covers network errors, server errors and unparseable
	// bodies. The caller keeps its session unchanged and retries later.
	OutcomeTransient Outcome = iota

	// OutcomeValid means the server confirmed the credential.
	OutcomeValid

	// OutcomeNeedsRenewal means identity is confirmed but signing material
	// must be re-established before sensitive operations.
	OutcomeNeedsRenewal

	// OutcomeInvalid means the server unambiguously rejected the credential,
	// or a wallet token has no wallet context to validate against.
	OutcomeInvalid
)

func (o Outcome) String() string {
	switch o {
	case OutcomeValid:
		return "valid"
	case OutcomeNeedsRenewal:
		return "needs_renewal"
	case OutcomeInvalid:
		return "invalid"
	default:
		return "transient"
	}
}

// Result carries the outcome of a validation call plus whatever identity and
// wallet material the server supplied.
type Result struct {
	Outcome         Outcome
	Handle          string
	Username        string
	WalletData      map[string]any
	WalletAddresses map[string]string
	ExpiresAt       *time.Time
}

// Info is the cookie-scoped session-info response, used for backend restore
// when no local token exists.
type Info struct {
	Authenticated   bool
	SessionToken    string
	Handle          string
	Username        string
	WalletAddresses map[string]string
	ExpiresAt       *time.Time
}

// ReconnectResult is the response to a credential reconnection.
type ReconnectResult struct {
	SessionToken string
	WalletData   map[string]any
	ExpiresAt    *time.Time
}
