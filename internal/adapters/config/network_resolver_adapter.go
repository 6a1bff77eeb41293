package config

import (
	"context"

	"github.com/trebuchet-org/zkdeploy/internal/config"
	domainconfig "github.com/trebuchet-org/zkdeploy/internal/domain/config"
	"github.com/trebuchet-org/zkdeploy/internal/usecase"
)

// NetworkResolverAdapter adapts the config.NetworkResolver to the usecase.NetworkResolver interface
type NetworkResolverAdapter struct {
	resolver *config.NetworkResolver
}

// NewNetworkResolverAdapter creates a new adapter
func NewNetworkResolverAdapter(resolver *config.NetworkResolver) *NetworkResolverAdapter {
	return &NetworkResolverAdapter{
		resolver: resolver,
	}
}

// GetNetworks returns all configured network names
func (a *NetworkResolverAdapter) GetNetworks(ctx context.Context) []string {
	return a.resolver.GetNetworks()
}

// ResolveNetwork resolves a network name to its configuration
func (a *NetworkResolverAdapter) ResolveNetwork(ctx context.Context, networkName string) (*domainconfig.Network, error) {
	return a.resolver.ResolveContext(ctx, networkName)
}

// NewCredentialResolver provides the environment-backed credential resolver
func NewCredentialResolver() *config.EnvCredentials {
	return config.NewEnvCredentials()
}

// Ensure the adapters implement the interfaces
var (
	_ usecase.NetworkResolver    = (*NetworkResolverAdapter)(nil)
	_ usecase.CredentialResolver = (*config.EnvCredentials)(nil)
)
