// Package authclient performs the network round trips that decide whether a
// session token is still valid.
//
// The crux of the design is the four-way Outcome classification. Valid and
// NeedsRenewal confirm identity; Invalid is an unambiguous server rejection
// (hard 401/403 with no renewal signal) and is the only outcome that may
// destroy session state; Transient covers everything else (network errors,
// 5xx responses, unparseable bodies) and must leave state untouched. This
// split is what keeps a flaky network or a slow deploy from logging every
// user out.
//
// External-wallet tokens (recognized by prefix) validate through the
// address+chain auth-status endpoint and require a stored wallet context;
// without one they are Invalid with no network call. Native tokens validate
// through the session endpoint, and when they happen to be JWTs an
// unverified exp claim serves as an expiry hint for responses that omit one.
package authclient
