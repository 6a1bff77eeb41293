package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/zkdeploy/internal/domain/config"
)

const (
	// ProjectFile marks the project root
	ProjectFile = "zkdeploy.toml"

	// EnvPrefix is the prefix of environment overrides (ZKDEPLOY_NETWORK, ZKDEPLOY_DEBUG, ...)
	EnvPrefix = "ZKDEPLOY"

	defaultArtifactsDir   = "artifacts-zk"
	defaultDeploymentsDir = "deployments"
)

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		var err error
		projectRoot, err = FindProjectRoot()
		if err != nil {
			return nil, fmt.Errorf("failed to find project root: %w", err)
		}
	}

	projectConfig, err := LoadProjectConfig(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", ProjectFile, err)
	}

	cfg := &config.RuntimeConfig{
		ProjectRoot:    projectRoot,
		ArtifactsDir:   resolvePath(projectRoot, projectConfig.Paths.Artifacts),
		DataDir:        resolvePath(projectRoot, projectConfig.Paths.Deployments),
		Debug:          v.GetBool("debug"),
		NonInteractive: v.GetBool("non_interactive"),
		Timeout:        v.GetDuration("timeout"),
		ProjectConfig:  projectConfig,
	}

	// Flag, then ZKDEPLOY_NETWORK, then default_network
	networkName := v.GetString("network")
	if networkName == "" {
		networkName = projectConfig.DefaultNetwork
	}
	if networkName != "" {
		resolver := NewNetworkResolver(projectRoot, projectConfig)
		network, err := resolver.Resolve(networkName)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve network %s: %w", networkName, err)
		}
		cfg.Network = network
	}

	return cfg, nil
}

func resolvePath(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// FindProjectRoot walks up from current directory to find zkdeploy.toml
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, ProjectFile)); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a zkdeploy project (%s not found)", ProjectFile)
		}
		dir = parent
	}
}

// SetupViper creates and configures a viper instance
func SetupViper(projectRoot string, cmd *cobra.Command) *viper.Viper {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	v.SetDefault("timeout", "0s")
	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)
	v.SetDefault("project_root", projectRoot)

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if err := v.BindPFlag(key, f); err != nil {
			panic(err)
		}
	})

	return v
}

// ProvideNetworkResolver creates a NetworkResolver for Wire dependency injection
func ProvideNetworkResolver(cfg *config.RuntimeConfig) *NetworkResolver {
	return NewNetworkResolver(cfg.ProjectRoot, cfg.ProjectConfig)
}
