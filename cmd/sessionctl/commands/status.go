package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Validate the current session against the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			valid := manager.CheckSession(cmd.Context())
			snap := manager.GetSession()

			if !valid || !snap.IsLoggedIn {
				fmt.Println("not logged in")
				return nil
			}

			fmt.Printf("logged in as %s (state: %s)\n", snap.Handle, manager.State())
			if snap.NeedsRenewal {
				fmt.Println("session needs renewal before signing operations")
			}
			if snap.ExpiresAt != nil {
				fmt.Printf("expires at %s\n", snap.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
			}

			wallet := snap.Wallet
			for _, entry := range []struct{ chain, addr string }{
				{"xrp", wallet.XRPAddress},
				{"eth", wallet.ETHAddress},
				{"sol", wallet.SOLAddress},
				{"btc", wallet.BTCAddress},
			} {
				if entry.addr != "" {
					fmt.Printf("%s: %s\n", entry.chain, entry.addr)
				}
			}
			return nil
		},
	}
}
