package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out on the server (best effort) and clear local session state",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager.Logout(cmd.Context())
			fmt.Println("logged out")
			return nil
		},
	}
}
