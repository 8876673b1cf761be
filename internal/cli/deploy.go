package cli

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-gateway/internal/cli/render"
	"github.com/trebuchet-org/treb-gateway/internal/config"
	"github.com/trebuchet-org/treb-gateway/internal/usecase"
)

// NewDeployCmd creates the deploy command
func NewDeployCmd() *cobra.Command {
	var redeploy []string

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the library and gateway contracts",
		Long: `Deploy every contract of the plan in order. Libraries are linked by the
addresses recorded for the network; contracts that already have a record are reused.

The default plan deploys ToString, then BarGateway and MigratorGateway linked against
it, reading SOURCE_TOKEN_ADDRESS, DESTINATION_ADDRESS and MIGRATOR_ADDRESS from the
environment. On verify-eligible networks every contract of the run is submitted for
source verification afterwards; verification failures do not fail the command.`,
		Example: `  treb-gateway deploy --network matic
  treb-gateway deploy --network hardhat --dry-run
  treb-gateway deploy --plan plans/gateways.yaml --redeploy BarGateway`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			plan, err := config.LoadPlan(app.Config.PlanPath, os.LookupEnv)
			if err != nil {
				return err
			}

			result, runErr := app.DeployContracts.Run(cmd.Context(), usecase.DeployParams{
				Plan:     plan,
				Redeploy: redeploy,
				DryRun:   app.Config.DryRun,
			})
			if err := render.NewDeployRenderer(cmd.OutOrStdout()).Render(result); err != nil {
				return err
			}
			if runErr != nil {
				return runErr
			}
			if result.DryRun {
				return nil
			}

			verified, err := app.VerifyDeployments.Run(cmd.Context(), usecase.VerifyParams{Records: result.Records()})
			if err != nil {
				return err
			}
			return render.NewVerifyRenderer(cmd.OutOrStdout()).Render(verified)
		},
	}

	cmd.Flags().String("plan", "", "Deployment plan YAML (defaults to the built-in gateway plan)")
	cmd.Flags().StringSliceVar(&redeploy, "redeploy", nil, "Deploy these contracts again even if a record exists")
	cmd.Flags().Bool("dry-run", false, "Show what would be deployed without sending transactions")
	cmd.Flags().Bool("skip-verify", false, "Skip source verification")

	return cmd
}
