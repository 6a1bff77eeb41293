package config

// ProjectConfig represents zkdeploy.toml
type ProjectConfig struct {
	DefaultNetwork string                   `toml:"default_network"`
	Compilers      CompilersConfig          `toml:"compilers"`
	Paths          PathsConfig              `toml:"paths"`
	Networks       map[string]NetworkConfig `toml:"networks"`
}

// CompilersConfig records the compiler versions the artifacts were built with.
// They are only reported to the verification service.
type CompilersConfig struct {
	Zksolc    string   `toml:"zksolc,omitempty"`
	Solc      []string `toml:"solc,omitempty"`
	Optimizer bool     `toml:"optimizer,omitempty"`
}

// PathsConfig overrides project-relative paths
type PathsConfig struct {
	Artifacts   string `toml:"artifacts,omitempty"`
	Deployments string `toml:"deployments,omitempty"`
}

// NetworkConfig is a network profile as written in zkdeploy.toml
type NetworkConfig struct {
	URL           string `toml:"url"`
	EthNetwork    string `toml:"eth_network,omitempty"`
	ZkSync        bool   `toml:"zksync,omitempty"`
	Local         bool   `toml:"local,omitempty"`
	ChainID       uint64 `toml:"chain_id,omitempty"`
	Explorer      string `toml:"explorer,omitempty"`
	VerifyURL     string `toml:"verify_url,omitempty"`
	PrivateKeyEnv string `toml:"private_key_env,omitempty"`
}
