package usecase

import (
	"context"
	"fmt"

	"github.com/trebuchet-org/treb-gateway/internal/domain/config"
)

// ListAccountsResult contains the accounts available on the active network.
// The first account deploys when no private key is configured.
type ListAccountsResult struct {
	Network  *config.NetworkProfile
	Accounts []Account
}

// ListAccounts prints the signer accounts of the active network
type ListAccounts struct {
	cfg    *config.RuntimeConfig
	lister AccountLister
}

// NewListAccounts creates a new ListAccounts use case
func NewListAccounts(cfg *config.RuntimeConfig, lister AccountLister) *ListAccounts {
	return &ListAccounts{cfg: cfg, lister: lister}
}

// Run executes the use case
func (uc *ListAccounts) Run(ctx context.Context) (*ListAccountsResult, error) {
	accounts, err := uc.lister.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return &ListAccountsResult{
		Network:  uc.cfg.Network,
		Accounts: accounts,
	}, nil
}
