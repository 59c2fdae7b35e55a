package session

import (
	"log/slog"

	"github.com/walletfront/sessionkit/pkg/authclient"
	"github.com/walletfront/sessionkit/pkg/store"
)

// Option is a functional option for configuring the Manager
type Option func(*Manager)

// WithStore sets a custom storage adapter
func WithStore(adapter *store.Adapter) Option {
	return func(m *Manager) {
		if adapter != nil {
			m.store = adapter
		}
	}
}

// WithClient sets a custom auth API client
func WithClient(client *authclient.Client) Option {
	return func(m *Manager) {
		if client != nil {
			m.client = client
		}
	}
}

// WithLogger sets the diagnostic logger
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}
