package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Destroy all stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := appCtx.ClearAll(); err != nil {
				return err
			}
			fmt.Println("Credentials cleared. Run setup to re-authenticate.")
			return nil
		},
	}
}
