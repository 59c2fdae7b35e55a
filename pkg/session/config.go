package session

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds session manager configuration
type Config struct {
	// BaseURL is the root of the wallet backend's auth API
	BaseURL string `env:"SESSION_BASE_URL" envDefault:"http://localhost:8080/api"`

	// PollInterval is the period of the background validity poll
	PollInterval time.Duration `env:"SESSION_POLL_INTERVAL" envDefault:"60s"`

	// FailureThreshold is the number of consecutive hard-invalid outcomes
	// after which polling pauses
	FailureThreshold int `env:"SESSION_FAILURE_THRESHOLD" envDefault:"3"`

	// RequestTimeout bounds each validation round trip
	RequestTimeout time.Duration `env:"SESSION_REQUEST_TIMEOUT" envDefault:"10s"`

	// LoginRoute is where unauthenticated users are redirected
	LoginRoute string `env:"SESSION_LOGIN_ROUTE" envDefault:"/login"`

	// AutoLogoutMinutes is the default idle-timeout policy on new records
	AutoLogoutMinutes int `env:"SESSION_AUTO_LOGOUT_MINUTES" envDefault:"30"`
}

// DefaultConfig returns default session manager configuration
func DefaultConfig() Config {
	return Config{
		BaseURL:           "http://localhost:8080/api",
		PollInterval:      60 * time.Second,
		FailureThreshold:  3,
		RequestTimeout:    10 * time.Second,
		LoginRoute:        "/login",
		AutoLogoutMinutes: 30,
	}
}

// LoadConfig populates a Config from the environment, reading a .env file
// first when one exists.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
