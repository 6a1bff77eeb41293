package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/zkdeploy/internal/adapters/progress"
	"github.com/trebuchet-org/zkdeploy/internal/app"
	"github.com/trebuchet-org/zkdeploy/internal/config"
)

// contextKey is the type for context keys
type contextKey string

const (
	// appKey is the context key for the app instance
	appKey contextKey = "app"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "zkdeploy",
		Short: "Deploy and estimate precompiled contracts on zkSync networks",
		Long: `zkdeploy deploys an ordered plan of precompiled contracts to a zkSync-compatible
chain, feeding each deployed address to the contracts after it, and estimates
what the same plan would cost.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !needsApp(cmd) {
				return nil
			}

			projectRoot, _ := cmd.Flags().GetString("project-root")
			if projectRoot == "" {
				var err error
				projectRoot, err = config.FindProjectRoot()
				if err != nil {
					return err
				}
			}

			v := config.SetupViper(projectRoot, cmd)

			interactive := !v.GetBool("non_interactive") && isatty.IsTerminal(os.Stdout.Fd())
			sink := progress.NewDeployProgress(cmd.OutOrStdout(), interactive)

			appInstance, err := app.InitApp(v, sink)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}

			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringP("network", "n", "", "Network profile from zkdeploy.toml (defaults to default_network)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug output")
	rootCmd.PersistentFlags().Bool("non-interactive", false, "Disable interactive prompts")
	rootCmd.PersistentFlags().Duration("timeout", 0, "How long to wait for each deployment to be mined (0 waits forever)")
	rootCmd.PersistentFlags().String("project-root", "", "Project directory containing zkdeploy.toml")

	rootCmd.AddGroup(&cobra.Group{
		ID:    "main",
		Title: "Main Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands",
	})

	deployCmd := NewDeployCmd()
	deployCmd.GroupID = "main"
	rootCmd.AddCommand(deployCmd)

	estimateCmd := NewEstimateCmd()
	estimateCmd.GroupID = "main"
	rootCmd.AddCommand(estimateCmd)

	verifyCmd := NewVerifyCmd()
	verifyCmd.GroupID = "main"
	rootCmd.AddCommand(verifyCmd)

	networksCmd := NewNetworksCmd()
	networksCmd.GroupID = "management"
	rootCmd.AddCommand(networksCmd)

	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// needsApp reports whether the command runs against a project
func needsApp(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "version", "help", "completion", "__complete":
		return false
	}
	return cmd.Runnable()
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	appInstance := cmd.Context().Value(appKey)
	if appInstance == nil {
		return nil, fmt.Errorf("app not initialized")
	}

	a, ok := appInstance.(*app.App)
	if !ok {
		return nil, fmt.Errorf("invalid app instance")
	}

	return a, nil
}
