package commands

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/walletfront/sessionkit/pkg/session"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream session state transitions until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			unsubscribe := manager.Subscribe(func(ev session.Event) {
				snap := manager.GetSession()
				fmt.Printf("%-18s logged_in=%v handle=%q renewal=%v\n",
					ev, snap.IsLoggedIn, snap.Handle, snap.NeedsRenewal)
			})
			defer unsubscribe()

			manager.CheckSession(cmd.Context())

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt)
			select {
			case <-stop:
			case <-cmd.Context().Done():
			}
			return nil
		},
	}
}
