package blockchain

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/trebuchet-org/treb-gateway/internal/domain/config"
)

// Backend is the subset of ethclient.Client the adapters use
type Backend interface {
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// RPCCaller issues raw JSON-RPC calls for methods ethclient does not wrap
type RPCCaller interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

// Client connects to the active network on first use and checks its chain ID
type Client struct {
	network *config.NetworkProfile
	dial    func(ctx context.Context) (Backend, RPCCaller, error)

	mu      sync.Mutex
	backend Backend
	rpc     RPCCaller
}

// NewClient creates a lazily connecting client for the active network
func NewClient(cfg *config.RuntimeConfig) *Client {
	c := &Client{network: cfg.Network}
	c.dial = c.dialRPC
	return c
}

// NewClientWithBackend wraps an existing backend, e.g. a simulated chain
func NewClientWithBackend(network *config.NetworkProfile, backend Backend, caller RPCCaller) *Client {
	return &Client{
		network: network,
		dial: func(context.Context) (Backend, RPCCaller, error) {
			return backend, caller, nil
		},
	}
}

// Network returns the profile the client targets
func (c *Client) Network() *config.NetworkProfile {
	return c.network
}

// Connect returns the connected backend, dialing and checking the chain ID once
func (c *Client) Connect(ctx context.Context) (Backend, RPCCaller, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.backend != nil {
		return c.backend, c.rpc, nil
	}
	if c.network == nil {
		return nil, nil, fmt.Errorf("no network selected")
	}

	backend, caller, err := c.dial(ctx)
	if err != nil {
		return nil, nil, err
	}

	networkChainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get chain ID from %s: %w", c.network.RPCURL, err)
	}
	if c.network.ChainID != 0 && networkChainID.Uint64() != c.network.ChainID {
		return nil, nil, fmt.Errorf("chain ID mismatch on %s: expected %d, got %d", c.network.Name, c.network.ChainID, networkChainID.Uint64())
	}

	c.backend = backend
	c.rpc = caller
	return backend, caller, nil
}

func (c *Client) dialRPC(ctx context.Context) (Backend, RPCCaller, error) {
	var opts []rpc.ClientOption
	if c.network.Timeout > 0 {
		opts = append(opts, rpc.WithHTTPClient(&http.Client{Timeout: c.network.Timeout}))
	}

	rc, err := rpc.DialOptions(ctx, c.network.RPCURL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RPC %s: %w", c.network.RPCURL, err)
	}
	return ethclient.NewClient(rc), rc, nil
}
