package config

import (
	"time"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	ProjectRoot  string
	ArtifactsDir string
	DataDir      string

	// Context settings
	Network *Network // nil if no network was selected or configured

	// Execution settings
	Debug          bool
	NonInteractive bool
	Timeout        time.Duration

	// Resolved configurations
	ProjectConfig *ProjectConfig
}

// Network represents a resolved network profile
type Network struct {
	Name       string `json:"name"`
	RPCURL     string `json:"rpcUrl"`
	EthNetwork string `json:"ethNetwork,omitempty"` // settlement layer network name or RPC URL
	ZkSync     bool   `json:"zksync"`
	Local      bool   `json:"local"`
	ChainID    uint64 `json:"chainId"`

	ExplorerURL string `json:"explorerUrl,omitempty"`
	VerifyURL   string `json:"verifyUrl,omitempty"`

	// PrivateKeyEnv names the environment variable holding the deployer key.
	PrivateKeyEnv string `json:"privateKeyEnv"`
}
