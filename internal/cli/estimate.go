package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/zkdeploy/internal/cli/render"
	"github.com/trebuchet-org/zkdeploy/internal/usecase"
)

// NewEstimateCmd creates the estimate command
func NewEstimateCmd() *cobra.Command {
	var planPath string

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate the fee of deploying a plan",
		Long: `Estimate the deployment fee of every contract in a plan without sending
any transaction. References to contracts that are not deployed yet are
replaced by the plan's placeholder address; "estimate_args" overrides an
entry's arguments for estimation only.`,
		Example: `  zkdeploy estimate --plan plans/estimate.yaml -n zkSyncTestnet`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			plan, err := usecase.LoadPlan(planPath)
			if err != nil {
				return err
			}

			specs, err := plan.EstimateSpecs()
			if err != nil {
				return err
			}

			report, err := app.EstimateFees.Run(cmd.Context(), usecase.EstimateParams{
				Network: app.Config.Network,
				Specs:   specs,
			})
			if err != nil {
				return err
			}

			return render.NewEstimateRenderer(cmd.OutOrStdout()).RenderFeeReport(app.Config.Network.Name, report)
		},
	}

	cmd.Flags().StringVarP(&planPath, "plan", "p", "", "Deploy plan file (YAML)")
	_ = cmd.MarkFlagRequired("plan")

	return cmd
}
