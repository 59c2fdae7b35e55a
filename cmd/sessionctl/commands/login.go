package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func loginCmd() *cobra.Command {
	var handle, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Re-establish a session from credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("SESSION_PASSWORD")
			}
			if handle == "" || password == "" {
				return fmt.Errorf("both --handle and --password (or SESSION_PASSWORD) are required")
			}

			if !manager.Reconnect(cmd.Context(), handle, password) {
				return fmt.Errorf("reconnection failed for %q", handle)
			}

			fmt.Printf("logged in as %s\n", manager.UserHandle())
			return nil
		},
	}

	cmd.Flags().StringVar(&handle, "handle", "", "account handle")
	cmd.Flags().StringVar(&password, "password", "", "account password (or set SESSION_PASSWORD)")
	return cmd
}
