package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/zkdeploy/internal/cli/render"
	"github.com/trebuchet-org/zkdeploy/internal/usecase"
)

// NewDeployCmd creates the deploy command
func NewDeployCmd() *cobra.Command {
	var (
		planPath   string
		skipVerify bool
	)

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the contracts of a plan in order",
		Long: `Deploy every contract listed in a deploy plan, in order.

Each contract can reference the address of an earlier one with "@Name".
Entries with an "address" are already deployed and only feed their address
to later contracts. The run stops at the first failure; contracts deployed
before it stay deployed and are written to the deployment record.`,
		Example: `  zkdeploy deploy --plan plans/core.yaml
  zkdeploy deploy -p plans/dex.yaml -n zkSyncMainnet --skip-verify`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			plan, err := usecase.LoadPlan(planPath)
			if err != nil {
				return err
			}

			if network := app.Config.Network; network != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Running deploy plan %s on %s\n\n", plan.Name, network.Name)
			}

			result, runErr := app.DeployContracts.Run(cmd.Context(), usecase.DeployParams{
				Network:        app.Config.Network,
				Specs:          plan.Specs(),
				PlanName:       plan.Name,
				SkipVerify:     skipVerify,
				NonInteractive: app.Config.NonInteractive,
			})

			if result != nil {
				if err := render.NewDeployRenderer(cmd.OutOrStdout()).RenderDeployResult(result); err != nil {
					return err
				}
			}
			return runErr
		},
	}

	cmd.Flags().StringVarP(&planPath, "plan", "p", "", "Deploy plan file (YAML)")
	cmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "Do not submit contracts for verification")
	_ = cmd.MarkFlagRequired("plan")

	return cmd
}
