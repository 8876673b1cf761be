package blockchain

import (
	"context"
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/treb-gateway/internal/domain/config"
	"github.com/trebuchet-org/treb-gateway/internal/usecase"
)

// AccountsAdapter lists the accounts that can deploy on the active network
type AccountsAdapter struct {
	client *Client
	key    *ecdsa.PrivateKey
	keyErr error
}

// NewAccountsAdapter creates a new accounts adapter
func NewAccountsAdapter(cfg *config.RuntimeConfig, client *Client) *AccountsAdapter {
	a := &AccountsAdapter{client: client}
	if cfg.DeployerKey != "" {
		a.key, a.keyErr = parsePrivateKey(cfg.DeployerKey)
	}
	return a
}

// ListAccounts returns the configured key's address first, followed by the
// node's unlocked accounts, each with its balance
func (a *AccountsAdapter) ListAccounts(ctx context.Context) ([]usecase.Account, error) {
	if a.keyErr != nil {
		return nil, a.keyErr
	}

	backend, caller, err := a.client.Connect(ctx)
	if err != nil {
		return nil, err
	}

	var addresses []common.Address
	if a.key != nil {
		addresses = append(addresses, crypto.PubkeyToAddress(a.key.PublicKey))
	}
	if caller != nil {
		var unlocked []common.Address
		if err := caller.CallContext(ctx, &unlocked, "eth_accounts"); err != nil {
			return nil, fmt.Errorf("failed to list node accounts: %w", err)
		}
		for _, addr := range unlocked {
			if len(addresses) > 0 && addresses[0] == addr {
				continue
			}
			addresses = append(addresses, addr)
		}
	}

	accounts := make([]usecase.Account, 0, len(addresses))
	for _, addr := range addresses {
		balance, err := backend.BalanceAt(ctx, addr, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to get balance of %s: %w", addr.Hex(), err)
		}
		accounts = append(accounts, usecase.Account{Address: addr.Hex(), Balance: balance})
	}
	return accounts, nil
}

var _ usecase.AccountLister = (*AccountsAdapter)(nil)
