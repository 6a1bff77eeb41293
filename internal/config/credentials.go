package config

import (
	"context"
	"os"
	"strings"

	"github.com/trebuchet-org/zkdeploy/internal/domain"
	"github.com/trebuchet-org/zkdeploy/internal/domain/config"
)

// LookupFunc reads an environment variable
type LookupFunc func(key string) (string, bool)

// EnvCredentials reads deployer keys from the environment after .env files are loaded
type EnvCredentials struct {
	lookup LookupFunc
}

// NewEnvCredentials creates a resolver over os.LookupEnv
func NewEnvCredentials() *EnvCredentials {
	return &EnvCredentials{lookup: os.LookupEnv}
}

// NewEnvCredentialsWithLookup creates a resolver over a custom lookup
func NewEnvCredentialsWithLookup(lookup LookupFunc) *EnvCredentials {
	return &EnvCredentials{lookup: lookup}
}

// ResolvePrivateKey returns the key named by the network's private_key_env
func (c *EnvCredentials) ResolvePrivateKey(_ context.Context, network *config.Network) (string, error) {
	envVar := network.PrivateKeyEnv
	if envVar == "" {
		envVar = DefaultPrivateKeyEnv
		if network.Local {
			envVar = LocalPrivateKeyEnv
		}
	}

	key, ok := c.lookup(envVar)
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", domain.MissingPrivateKeyError(envVar)
	}
	return key, nil
}
