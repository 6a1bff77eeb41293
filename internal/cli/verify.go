package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/zkdeploy/internal/cli/render"
	"github.com/trebuchet-org/zkdeploy/internal/usecase"
)

// NewVerifyCmd creates the verify command
func NewVerifyCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "verify [contract...]",
		Short: "Verify contracts from the last deployment record",
		Long: `Submit contracts recorded by the last deploy run on the network to the
block explorer for source verification. Without arguments every contract
that is not verified yet is submitted. Contracts referenced by address are
never submitted.`,
		Example: `  zkdeploy verify -n zkSyncTestnet
  zkdeploy verify RouterDynamic --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.VerifyDeployment.Run(cmd.Context(), usecase.VerifyParams{
				Network: app.Config.Network,
				Names:   args,
				Force:   force,
			})
			if err != nil {
				return err
			}

			return render.NewVerifyRenderer(cmd.OutOrStdout()).RenderVerifyAllResult(result, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Re-verify contracts already marked verified")

	return cmd
}
