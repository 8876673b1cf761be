package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-gateway/internal/cli/render"
	"github.com/trebuchet-org/treb-gateway/internal/usecase"
)

// NewVerifyCmd creates the verify command
func NewVerifyCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "verify [name...]",
		Short: "Submit recorded contracts for source verification",
		Long: `Submit the recorded contracts of the network for source verification. Without
names every record is submitted. Only verify-eligible networks are submitted unless
--force is given.`,
		Example: `  treb-gateway verify --network matic
  treb-gateway verify BarGateway --network sepolia --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.VerifyDeployments.Run(cmd.Context(), usecase.VerifyParams{
				Names: args,
				Force: force,
			})
			if err != nil {
				return err
			}
			return render.NewVerifyRenderer(cmd.OutOrStdout()).Render(result)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Verify even when the network is not verify-eligible")

	return cmd
}
