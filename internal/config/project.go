package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/trebuchet-org/zkdeploy/internal/domain/config"
)

// LoadEnvFiles loads .env and .env.local from the project root.
// Variables already set in the process environment win.
func LoadEnvFiles(projectRoot string) {
	envFiles := []string{
		filepath.Join(projectRoot, ".env"),
		filepath.Join(projectRoot, ".env.local"),
	}

	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: Failed to load %s: %v\n", envFile, err)
			}
		}
	}
}

// LoadProjectConfig loads .env files and parses zkdeploy.toml
func LoadProjectConfig(projectRoot string) (*config.ProjectConfig, error) {
	// .env first so ${VAR} in zkdeploy.toml can use it
	LoadEnvFiles(projectRoot)

	var cfg config.ProjectConfig
	path := filepath.Join(projectRoot, ProjectFile)
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ProjectFile, err)
	}

	if cfg.Paths.Artifacts == "" {
		cfg.Paths.Artifacts = defaultArtifactsDir
	}
	if cfg.Paths.Deployments == "" {
		cfg.Paths.Deployments = defaultDeploymentsDir
	}

	for name, network := range cfg.Networks {
		network.URL = os.ExpandEnv(network.URL)
		network.EthNetwork = os.ExpandEnv(network.EthNetwork)
		network.Explorer = os.ExpandEnv(network.Explorer)
		network.VerifyURL = os.ExpandEnv(network.VerifyURL)
		cfg.Networks[name] = network
	}

	if cfg.DefaultNetwork != "" {
		if _, ok := cfg.Networks[cfg.DefaultNetwork]; !ok {
			return nil, fmt.Errorf("default_network %q is not defined under [networks]", cfg.DefaultNetwork)
		}
	}

	return &cfg, nil
}
