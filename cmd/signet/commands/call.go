package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// callCmd makes one signed business request through the session envelope,
// refreshing once if the session has expired.
func callCmd() *cobra.Command {
	var method string
	var bodyFile string

	cmd := &cobra.Command{
		Use:   "call <path>",
		Short: "Make a signed request against the remote API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if !strings.HasPrefix(path, "/") {
				path = "/" + path
			}
			var body []byte
			if bodyFile != "" {
				var err error
				body, err = os.ReadFile(bodyFile)
				if err != nil {
					return err
				}
			}
			resp, err := appCtx.Call(cmd.Context(), strings.ToUpper(method), path, body)
			if err != nil {
				return fmt.Errorf("calling %s %s: %w", method, path, err)
			}
			fmt.Printf("HTTP %d\n%s\n", resp.StatusCode, resp.Body)
			return nil
		},
	}
	cmd.Flags().StringVarP(&method, "method", "X", "GET", "HTTP method")
	cmd.Flags().StringVarP(&bodyFile, "data", "d", "", "file containing the JSON request body")
	return cmd
}
