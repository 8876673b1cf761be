package usecase

import (
	"context"

	"github.com/trebuchet-org/treb-gateway/internal/domain/config"
)

// ListNetworksParams contains parameters for listing networks
type ListNetworksParams struct{}

// ListNetworksResult contains the result of listing networks
type ListNetworksResult struct {
	Networks []NetworkStatus
	Current  string
}

// NetworkStatus represents the status of a network
type NetworkStatus struct {
	Name    string
	Profile *config.NetworkProfile
	Error   error
}

// ListNetworks is a use case for listing available networks
type ListNetworks struct {
	cfg      *config.RuntimeConfig
	resolver NetworkResolver
}

// NewListNetworks creates a new ListNetworks use case
func NewListNetworks(cfg *config.RuntimeConfig, resolver NetworkResolver) *ListNetworks {
	return &ListNetworks{
		cfg:      cfg,
		resolver: resolver,
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

		profile, err := uc.resolver.ResolveNetwork(ctx, name)
		if err != nil {
			status.Error = err
		} else {
			status.Profile = profile
		}

		networks = append(networks, status)
	}

	result := &ListNetworksResult{Networks: networks}
	if uc.cfg.Network != nil {
		result.Current = uc.cfg.Network.Name
	}
	return result, nil
}
