package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-gateway/internal/adapters/progress"
	"github.com/trebuchet-org/treb-gateway/internal/app"
	"github.com/trebuchet-org/treb-gateway/internal/config"
	"github.com/trebuchet-org/treb-gateway/internal/usecase"
)

// contextKey is the type for context keys
type contextKey string

const (
	// appKey is the context key for the app instance
	appKey contextKey = "app"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "treb-gateway",
		Short: "Deploy and verify the gateway contracts",
		Long: `treb-gateway deploys the ToString library and the gateway contracts linked
against it to one network. Contracts already recorded for the network are reused,
and source verification runs on verify-eligible networks.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}

			projectRoot, err := config.FindProjectRoot()
			if err != nil {
				return err
			}

			v := config.SetupViper(projectRoot, cmd)

			var sink usecase.ProgressSink = progress.NewNopSink()
			if cmd.Name() == "deploy" || cmd.Name() == "verify" {
				interactive := !v.GetBool("non_interactive") && isatty.IsTerminal(os.Stderr.Fd())
				sink = progress.NewRunProgress(cmd.ErrOrStderr(), interactive)
			}

			appInstance, err := app.InitApp(v, sink)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}

			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			if cmd.Name() != "node" {
				ctx = withTimeout(ctx, cmd, appInstance.Config.Timeout)
			}
			cmd.SetContext(ctx)

			return nil
		},
	}

	rootCmd.PersistentFlags().StringP("network", "n", "", "Network to deploy to (hardhat, localhost, matic or a treb-gateway.toml network)")
	rootCmd.PersistentFlags().String("data-dir", "", "Directory holding deployments/<network> records (defaults to the project root)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug output")
	rootCmd.PersistentFlags().Bool("non-interactive", false, "Disable spinners and prompts")
	rootCmd.PersistentFlags().Duration("timeout", 30*time.Minute, "Overall timeout for the command")

	rootCmd.AddGroup(&cobra.Group{
		ID:    "main",
		Title: "Main Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands",
	})

	deployCmd := NewDeployCmd()
	deployCmd.GroupID = "main"
	rootCmd.AddCommand(deployCmd)

	verifyCmd := NewVerifyCmd()
	verifyCmd.GroupID = "main"
	rootCmd.AddCommand(verifyCmd)

	deploymentsCmd := NewDeploymentsCmd()
	deploymentsCmd.GroupID = "management"
	rootCmd.AddCommand(deploymentsCmd)

	networksCmd := NewNetworksCmd()
	networksCmd.GroupID = "management"
	rootCmd.AddCommand(networksCmd)

	nodeCmd := NewNodeCmd()
	nodeCmd.GroupID = "management"
	rootCmd.AddCommand(nodeCmd)

	accountsCmd := NewAccountsCmd()
	accountsCmd.GroupID = "management"
	rootCmd.AddCommand(accountsCmd)

	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// withTimeout bounds ctx by timeout and releases it once cmd's RunE returns,
// whether or not it failed. cobra skips PostRun hooks after an error.
func withTimeout(ctx context.Context, cmd *cobra.Command, timeout time.Duration) context.Context {
	if timeout <= 0 || cmd.RunE == nil {
		return ctx
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	runE := cmd.RunE
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		defer cancel()
		return runE(cmd, args)
	}
	return ctx
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	appInstance := cmd.Context().Value(appKey)
	if appInstance == nil {
		return nil, fmt.Errorf("app not initialized")
	}

	app, ok := appInstance.(*app.App)
	if !ok {
		return nil, fmt.Errorf("invalid app instance")
	}

	return app, nil
}
