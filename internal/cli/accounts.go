package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-gateway/internal/cli/render"
)

// NewAccountsCmd creates the accounts command
func NewAccountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List signer accounts and balances on the network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.ListAccounts.Run(cmd.Context())
			if err != nil {
				return err
			}
			return render.NewAccountsRenderer(cmd.OutOrStdout()).Render(result)
		},
	}
}
