package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func setupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Run the full bootstrap: key pair, installation, device, session",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := appCtx.EnsureSession(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Session active for user %s.\n", sess.UserID)
			return nil
		},
	}
}
