package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"signet/internal/services/drift"
)

func fingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint",
		Short: "Show the fingerprint of the configured API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("API key fingerprint: %s\n", drift.Fingerprint(apiKey))
			stored, ok, err := appCtx.Creds.Fingerprint()
			if err != nil {
				return err
			}
			if ok {
				fmt.Printf("Stored fingerprint:  %s\n", stored)
			} else {
				fmt.Println("Stored fingerprint:  (none)")
			}
			return nil
		},
	}
}
