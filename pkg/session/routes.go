package session

import "strings"

// authRequiredPrefixes lists the route prefixes that demand a session:
// wallet-scoped pages, profile, gaming, and individual-NFT detail pages.
// Marketplace listing routes are absent on purpose: they render fine
// anonymously.
var authRequiredPrefixes = []string{
	"/wallet",
	"/profile",
	"/gaming",
	"/nft/",
}

// RequiresAuth reports whether route may only be shown to an authenticated
// user.
func RequiresAuth(route string) bool {
	for _, prefix := range authRequiredPrefixes {
		if strings.HasPrefix(route, prefix) {
			return true
		}
	}
	return false
}

// Decision is the manager's verdict on a route change. Navigation is the
// caller's job: the manager only signals, it never redirects by itself.
type Decision struct {
	Allowed    bool
	RedirectTo string
}
