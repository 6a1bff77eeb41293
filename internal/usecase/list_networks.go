package usecase

import (
	"context"

	"github.com/trebuchet-org/zkdeploy/internal/domain/config"
)

// ListNetworksParams contains parameters for listing networks
type ListNetworksParams struct{}

// ListNetworksResult contains the result of listing networks
type ListNetworksResult struct {
	Networks []NetworkStatus
	Default  string
}

// NetworkStatus represents the status of a network
type NetworkStatus struct {
	Name    string
	Network *config.Network
	Error   error
}

// ListNetworks is a use case for listing available networks
type ListNetworks struct {
	resolver NetworkResolver
	cfg      *config.RuntimeConfig
}

// NewListNetworks creates a new ListNetworks use case
func NewListNetworks(resolver NetworkResolver, cfg *config.RuntimeConfig) *ListNetworks {
	return &ListNetworks{
		resolver: resolver,
		cfg:      cfg,
	}
}

// Run executes the use case
func (uc *ListNetworks) Run(ctx context.Context, params ListNetworksParams) (*ListNetworksResult, error) {
	networkNames := uc.resolver.GetNetworks(ctx)

	networks := make([]NetworkStatus, 0, len(networkNames))
	for _, name := range networkNames {
		status := NetworkStatus{
			Name: name,
		}

		// Resolving fetches the chain ID, so an unreachable RPC shows up here
		info, err := uc.resolver.ResolveNetwork(ctx, name)
		if err != nil {
			status.Error = err
		} else {
			status.Network = info
		}

		networks = append(networks, status)
	}

	result := &ListNetworksResult{Networks: networks}
	if uc.cfg != nil && uc.cfg.ProjectConfig != nil {
		result.Default = uc.cfg.ProjectConfig.DefaultNetwork
	}
	return result, nil
}
