package commands

import (
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/walletfront/sessionkit/pkg/authclient"
	"github.com/walletfront/sessionkit/pkg/session"
	"github.com/walletfront/sessionkit/pkg/store"
)

var (
	home    string
	verbose bool
	manager *session.Manager
)

// Execute wires up the manager against a file-backed durable store under the
// user config dir and runs the CLI.
func Execute() error {
	root := &cobra.Command{
		Use:           "sessionctl",
		Short:         "Inspect and manage the wallet backend session",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			cfg, err := session.LoadConfig()
			if err != nil {
				return err
			}

			if home == "" {
				dir, err := os.UserConfigDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, "sessionkit")
			}

			durable, err := store.NewFileBackend(filepath.Join(home, "store.json"))
			if err != nil {
				return err
			}

			jar, err := cookiejar.New(nil)
			if err != nil {
				return err
			}
			origin, err := url.Parse(cfg.BaseURL)
			if err != nil {
				return err
			}

			adapter := store.NewAdapter(
				store.WithDurable(durable),
				store.WithCookies(store.NewCookieJarBackend(jar, origin)),
			)

			client := authclient.New(cfg.BaseURL,
				authclient.WithHTTPClient(&http.Client{Jar: jar, Timeout: cfg.RequestTimeout}),
				authclient.WithLogger(logger),
			)

			manager = session.New(cfg,
				session.WithStore(adapter),
				session.WithClient(client),
				session.WithLogger(logger),
			)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if manager != nil {
				_ = manager.Close()
			}
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "state dir (default <user config dir>/sessionkit)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(statusCmd(), loginCmd(), logoutCmd(), watchCmd())
	return root.Execute()
}
