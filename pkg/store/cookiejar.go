package store

import (
	"context"
	"net/http"
	"net/url"
)

// CookieJarBackend is a read-only Backend view over an http.CookieJar. It
// exists for externally issued wallet sessions whose token arrives as a
// cookie set by the auth origin rather than through the durable store.
type CookieJarBackend struct {
	jar    http.CookieJar
	origin *url.URL
}

// NewCookieJarBackend creates a read-only backend reading cookies scoped to
// origin from jar.
func NewCookieJarBackend(jar http.CookieJar, origin *url.URL) *CookieJarBackend {
	return &CookieJarBackend{jar: jar, origin: origin}
}

// Get returns the value of the cookie named key, or ErrKeyNotFound.
func (b *CookieJarBackend) Get(ctx context.Context, key string) (string, error) {
	if b.jar == nil || b.origin == nil {
		return "", ErrKeyNotFound
	}

	for _, c := range b.jar.Cookies(b.origin) {
		if c.Name == key && c.Value != "" {
			return c.Value, nil
		}
	}
	return "", ErrKeyNotFound
}

// Set is not supported; cookies are issued by the auth origin.
func (b *CookieJarBackend) Set(ctx context.Context, key, value string) error {
	return ErrReadOnly
}

// Delete is not supported. The adapter's Clear tolerates this: a stale
// cookie on its own never resurrects a session because the server decides
// its validity.
func (b *CookieJarBackend) Delete(ctx context.Context, key string) error {
	return ErrReadOnly
}
