package blockchain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/samber/lo"
	"github.com/trebuchet-org/treb-gateway/internal/adapters/artifacts"
	"github.com/trebuchet-org/treb-gateway/internal/domain"
	"github.com/trebuchet-org/treb-gateway/internal/domain/config"
	"github.com/trebuchet-org/treb-gateway/internal/domain/models"
	"github.com/trebuchet-org/treb-gateway/internal/usecase"
)

// gasLimitMarginPercent is added on top of the node's gas estimate
const gasLimitMarginPercent = 20

// txLookupInterval is how often a pending transaction is looked up by hash
const txLookupInterval = time.Second

// DeployerAdapter creates contracts from a single deployer account. With a
// private key it signs locally; otherwise the node's first unlocked account
// signs through eth_sendTransaction.
type DeployerAdapter struct {
	client *Client
	key    *ecdsa.PrivateKey
	keyErr error
	log    *slog.Logger
}

// NewDeployerAdapter creates a new deployer adapter
func NewDeployerAdapter(cfg *config.RuntimeConfig, client *Client, log *slog.Logger) *DeployerAdapter {
	d := &DeployerAdapter{
		client: client,
		log:    log.With("component", "Deployer"),
	}
	if cfg.DeployerKey != "" {
		d.key, d.keyErr = parsePrivateKey(cfg.DeployerKey)
	}
	return d
}

// Deploy links, encodes, submits and waits for one contract creation
func (d *DeployerAdapter) Deploy(ctx context.Context, req usecase.DeployRequest) (*usecase.DeployReceipt, error) {
	if d.keyErr != nil {
		return nil, d.keyErr
	}
	if req.Artifact == nil {
		return nil, fmt.Errorf("no artifact for %s", req.Spec.Name)
	}

	bytecode, links, err := artifacts.Link(req.Artifact, req.Libraries)
	if err != nil {
		return nil, err
	}
	encodedArgs, err := artifacts.EncodeConstructorArgs(req.Artifact, req.Spec.Args)
	if err != nil {
		return nil, err
	}
	data := append(append([]byte{}, bytecode...), encodedArgs...)

	backend, caller, err := d.client.Connect(ctx)
	if err != nil {
		return nil, err
	}

	var (
		tx   *types.Transaction
		from common.Address
	)
	if d.key != nil {
		tx, from, err = d.sendSigned(ctx, backend, data)
	} else {
		tx, from, err = d.sendUnlocked(ctx, backend, caller, data)
	}
	if err != nil {
		return nil, err
	}

	d.log.Debug("deployment submitted", "contract", req.Spec.Name, "tx", tx.Hash().Hex(), "from", from.Hex(), "gas", tx.Gas())

	receipt, err := bind.WaitMined(ctx, backend, tx)
	if err != nil {
		return nil, fmt.Errorf("failed waiting for transaction %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("transaction %s reverted", tx.Hash().Hex())
	}
	if receipt.ContractAddress == (common.Address{}) {
		return nil, fmt.Errorf("transaction %s created no contract", tx.Hash().Hex())
	}

	return &usecase.DeployReceipt{
		Address:         receipt.ContractAddress.Hex(),
		TransactionHash: tx.Hash().Hex(),
		Deployer:        from.Hex(),
		BlockNumber:     receipt.BlockNumber.Uint64(),
		EncodedArgs:     hexutil.Encode(encodedArgs),
		Links:           declaredLinks(req, links),
	}, nil
}

// sendSigned builds, signs and sends a legacy contract creation
func (d *DeployerAdapter) sendSigned(ctx context.Context, backend Backend, data []byte) (*types.Transaction, common.Address, error) {
	from := crypto.PubkeyToAddress(d.key.PublicKey)

	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, from, fmt.Errorf("failed to get chain ID: %w", err)
	}
	nonce, err := backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, from, fmt.Errorf("failed to get nonce for %s: %w", from.Hex(), err)
	}
	gasPrice, err := d.gasPrice(ctx, backend)
	if err != nil {
		return nil, from, err
	}
	gasLimit, err := d.estimateGas(ctx, backend, from, gasPrice, data)
	if err != nil {
		return nil, from, err
	}

	tx := types.NewContractCreation(nonce, big.NewInt(0), gasLimit, gasPrice, data)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), d.key)
	if err != nil {
		return nil, from, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := backend.SendTransaction(ctx, signed); err != nil {
		return nil, from, fmt.Errorf("failed to send transaction: %w", err)
	}
	return signed, from, nil
}

// sendUnlocked lets the node sign with its first account
func (d *DeployerAdapter) sendUnlocked(ctx context.Context, backend Backend, caller RPCCaller, data []byte) (*types.Transaction, common.Address, error) {
	if caller == nil {
		return nil, common.Address{}, fmt.Errorf("no deployer key configured and the backend has no JSON-RPC access (set DEPLOYER_PRIVATE_KEY)")
	}

	var accounts []common.Address
	if err := caller.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, common.Address{}, fmt.Errorf("failed to list node accounts: %w", err)
	}
	if len(accounts) == 0 {
		return nil, common.Address{}, fmt.Errorf("node exposes no unlocked accounts (set DEPLOYER_PRIVATE_KEY)")
	}
	from := accounts[0]

	gasPrice := d.client.Network().GasPrice
	gasLimit, err := d.estimateGas(ctx, backend, from, gasPrice, data)
	if err != nil {
		return nil, from, err
	}

	args := map[string]interface{}{
		"from": from,
		"data": hexutil.Bytes(data),
		"gas":  hexutil.Uint64(gasLimit),
	}
	if gasPrice != nil {
		args["gasPrice"] = (*hexutil.Big)(gasPrice)
	}

	var hash common.Hash
	if err := caller.CallContext(ctx, &hash, "eth_sendTransaction", args); err != nil {
		return nil, from, fmt.Errorf("failed to send transaction: %w", err)
	}

	tx, err := d.lookupTransaction(ctx, backend, hash)
	if err != nil {
		return nil, from, err
	}
	return tx, from, nil
}

// lookupTransaction waits until the node knows the transaction by hash
func (d *DeployerAdapter) lookupTransaction(ctx context.Context, backend Backend, hash common.Hash) (*types.Transaction, error) {
	ticker := time.NewTicker(txLookupInterval)
	defer ticker.Stop()

	for {
		tx, _, err := backend.TransactionByHash(ctx, hash)
		if err == nil {
			return tx, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("failed to fetch transaction %s: %w", hash.Hex(), err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (d *DeployerAdapter) gasPrice(ctx context.Context, backend Backend) (*big.Int, error) {
	if price := d.client.Network().GasPrice; price != nil {
		return new(big.Int).Set(price), nil
	}
	price, err := backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}
	return price, nil
}

func (d *DeployerAdapter) estimateGas(ctx context.Context, backend Backend, from common.Address, gasPrice *big.Int, data []byte) (uint64, error) {
	gas, err := backend.EstimateGas(ctx, ethereum.CallMsg{
		From:     from,
		GasPrice: gasPrice,
		Data:     data,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to estimate gas: %w", err)
	}
	return gas + gas*gasLimitMarginPercent/100, nil
}

// declaredLinks returns one link per declared library, in declaration order,
// with the artifact path when the bytecode references it
func declaredLinks(req usecase.DeployRequest, linked []models.LibraryLink) []models.LibraryLink {
	byName := lo.KeyBy(linked, func(l models.LibraryLink) string { return l.Name })
	return lo.Map(req.Spec.Libraries, func(name string, _ int) models.LibraryLink {
		if l, ok := byName[name]; ok {
			return l
		}
		return models.LibraryLink{Name: name, Address: req.Libraries[name]}
	})
}

func parsePrivateKey(raw string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(raw), "0x"))
	if err != nil {
		return nil, &domain.ConfigurationError{Field: "DEPLOYER_PRIVATE_KEY", Reason: err.Error()}
	}
	return key, nil
}

var _ usecase.ContractDeployer = (*DeployerAdapter)(nil)
