package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"signet/internal/app"
	"signet/internal/domain"
)

var (
	home        string
	apiKey      string
	environment string
	baseURL     string
	storeKind   string
	passphrase  string
	verifyResp  bool
	verbose     bool

	appCtx *app.App
)

func Execute() error {
	root := &cobra.Command{
		Use:           "signet",
		Short:         "Client for a signed financial REST API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if apiKey == "" {
				apiKey = os.Getenv("SIGNET_API_KEY")
			}
			if passphrase == "" {
				passphrase = os.Getenv("SIGNET_PASSPHRASE")
			}
			if home == "" {
				home = filepath.Join(xdg.DataHome, "signet", environment)
			}
			env, err := domain.ParseEnvironment(environment)
			if err != nil {
				return err
			}

			logger := zap.NewNop()
			if verbose {
				logger, err = zap.NewDevelopment()
				if err != nil {
					return err
				}
			}

			appCtx, err = app.NewWire(app.Config{
				APIKey:          apiKey,
				Environment:     env,
				Home:            home,
				BaseURL:         baseURL,
				Store:           storeKind,
				Passphrase:      passphrase,
				VerifyResponses: verifyResp,
				Logger:          logger,
			})
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if appCtx != nil {
				return appCtx.Close()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "credential dir (default $XDG_DATA_HOME/signet/<env>)")
	root.PersistentFlags().StringVarP(&apiKey, "api-key", "k", "", "API key (or $SIGNET_API_KEY)")
	root.PersistentFlags().StringVarP(&environment, "environment", "e", "sandbox", "sandbox or production")
	root.PersistentFlags().StringVar(&baseURL, "base-url", "", "override the remote API base URL")
	root.PersistentFlags().StringVar(&storeKind, "store", app.StoreFile, "credential store backend: file, bolt, memory")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase for the file store (or $SIGNET_PASSPHRASE)")
	root.PersistentFlags().BoolVar(&verifyResp, "verify-responses", true, "verify server response signatures")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(setupCmd(), statusCmd(), callCmd(), logoutCmd(), fingerprintCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
