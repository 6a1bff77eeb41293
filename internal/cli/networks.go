package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/zkdeploy/internal/cli/render"
	"github.com/trebuchet-org/zkdeploy/internal/usecase"
)

// NewNetworksCmd creates the networks command
func NewNetworksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "networks",
		Short: "List network profiles from zkdeploy.toml",
		Long: `List all networks configured in the [networks] section of zkdeploy.toml.

Chain IDs are read from the profile, the chain ID cache, or fetched from the RPC endpoint.`,
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

			return render.NewNetworksRenderer(cmd.OutOrStdout()).RenderNetworksList(result)
		},
	}

	return cmd
}
