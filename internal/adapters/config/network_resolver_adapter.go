package config

import (
	"context"

	"github.com/trebuchet-org/treb-gateway/internal/config"
	domainconfig "github.com/trebuchet-org/treb-gateway/internal/domain/config"
	"github.com/trebuchet-org/treb-gateway/internal/usecase"
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
	return a.resolver.Networks()
}

// ResolveNetwork resolves a network name to its profile
func (a *NetworkResolverAdapter) ResolveNetwork(ctx context.Context, networkName string) (*domainconfig.NetworkProfile, error) {
	return a.resolver.Resolve(networkName)
}

var _ usecase.NetworkResolver = (*NetworkResolverAdapter)(nil)
