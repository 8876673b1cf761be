package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// NewNodeCmd creates the node command
func NewNodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "node",
		Short: "Run a local anvil node for the selected network",
		Long: `Run anvil in the foreground on the selected network's RPC URL. The hardhat
network forks Polygon at a pinned block so deployments can be rehearsed locally.`,
		Example: `  treb-gateway node --network hardhat
  treb-gateway deploy --network hardhat`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return app.RunNode.Run(ctx, cmd.OutOrStdout())
		},
	}
}
