package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show credential and session state",
		RunE: func(cmd *cobra.Command, args []string) error {
			configured, err := appCtx.IsConfigured()
			if err != nil {
				return err
			}
			setup, err := appCtx.HasCompletedSetup()
			if err != nil {
				return err
			}
			match, err := appCtx.CredentialsMatchPreferences()
			if err != nil {
				return err
			}
			fmt.Printf("Environment:        %s\n", environment)
			fmt.Printf("Setup complete:     %t\n", setup)
			fmt.Printf("Session active:     %t\n", configured)
			fmt.Printf("Config matches:     %t\n", match)
			fmt.Printf("Manager state:      %s\n", appCtx.Sessions.State())
			if !match {
				fmt.Println("Stored credentials no longer match the configured API key/environment; run logout then setup.")
			}
			return nil
		},
	}
}
