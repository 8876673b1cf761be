package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-gateway/internal/cli/render"
	"github.com/trebuchet-org/treb-gateway/internal/usecase"
)

// NewNetworksCmd creates the networks command
func NewNetworksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "networks",
		Short: "List available networks",
		Long: `List the built-in networks and those configured in treb-gateway.toml.
The selected network is marked with *.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.ListNetworks.Run(cmd.Context(), usecase.ListNetworksParams{})
			if err != nil {
				return err
			}
			return render.NewNetworksRenderer(cmd.OutOrStdout()).Render(result)
		},
	}
}
