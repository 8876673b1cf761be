package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-gateway/internal/cli/render"
	"github.com/trebuchet-org/treb-gateway/internal/domain/models"
	"github.com/trebuchet-org/treb-gateway/internal/usecase"
)

// NewDeploymentsCmd creates the deployments command
func NewDeploymentsCmd() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:     "deployments",
		Aliases: []string{"ls"},
		Short:   "List the recorded deployments of a network",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			params := usecase.ListDeploymentsParams{Kind: models.ContractKind(kind)}
			switch params.Kind {
			case "", models.KindLibrary, models.KindContract:
			default:
				return fmt.Errorf("invalid --kind %q (expected library or contract)", kind)
			}

			result, err := app.ListDeployments.Run(cmd.Context(), params)
			if err != nil {
				return err
			}
			return render.NewDeploymentsRenderer(cmd.OutOrStdout()).Render(result)
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Only list records of this kind (library, contract)")

	return cmd
}
