package blockchain

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-gateway/internal/domain"
	"github.com/trebuchet-org/treb-gateway/internal/domain/config"
	"github.com/trebuchet-org/treb-gateway/internal/domain/models"
	"github.com/trebuchet-org/treb-gateway/internal/usecase"
)

// initCode copies a single 0x00 byte of runtime code and returns it
const initCode = "0x6001600c60003960016000f300"

const simulatedChainID = 1337

type simChain struct {
	backend *simulated.Backend
	key     *ecdsa.PrivateKey
	network *config.NetworkProfile
}

func newSimChain(t *testing.T) *simChain {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	backend := simulated.NewBackend(types.GenesisAlloc{
		crypto.PubkeyToAddress(key.PublicKey): {Balance: big.NewInt(1_000_000_000_000_000_000)},
	})
	t.Cleanup(func() { backend.Close() })

	return &simChain{
		backend: backend,
		key:     key,
		network: &config.NetworkProfile{Name: "sim", ChainID: simulatedChainID},
	}
}

func (s *simChain) keyHex() string {
	return "0x" + hex.EncodeToString(crypto.FromECDSA(s.key))
}

func (s *simChain) client() *Client {
	return NewClientWithBackend(s.network, s.backend.Client(), nil)
}

// mine commits blocks until the returned stop function is called
func (s *simChain) mine() func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				s.backend.Commit()
			}
		}
	}()
	return func() { close(done) }
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func gatewayRequest() usecase.DeployRequest {
	return usecase.DeployRequest{
		Spec: &models.ContractSpec{
			Name: "BarGateway",
			Args: []models.ConstructorArg{
				{Type: "address", Value: "0x78a486306D15E7111cca541F2f1307a1cFCaF5C4"},
				{Type: "address", Value: "0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef"},
			},
			Libraries: []string{"ToString"},
		},
		Artifact: &models.Artifact{
			ContractName: "BarGateway",
			SourceName:   "contracts/BarGateway.sol",
			ABI: json.RawMessage(`[{"type":"constructor","inputs":[
				{"name":"sourceToken","type":"address"},{"name":"destination","type":"address"}]}]`),
			Bytecode: models.BytecodeObject{Object: initCode},
		},
		Libraries: map[string]string{"ToString": "0x1111111111111111111111111111111111111111"},
	}
}

func TestDeployerAdapter_SignedDeployment(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	chain := newSimChain(t)
	cfg := &config.RuntimeConfig{Network: chain.network, DeployerKey: chain.keyHex()}
	deployer := NewDeployerAdapter(cfg, chain.client(), discardLogger())

	stop := chain.mine()
	receipt, err := deployer.Deploy(ctx, gatewayRequest())
	stop()
	require.NoError(t, err)

	assert.Equal(t, crypto.PubkeyToAddress(chain.key.PublicKey).Hex(), receipt.Deployer)
	assert.True(t, common.IsHexAddress(receipt.Address))
	assert.NotZero(t, receipt.BlockNumber)
	assert.Len(t, receipt.EncodedArgs, 2+128)

	require.Len(t, receipt.Links, 1)
	assert.Equal(t, "ToString", receipt.Links[0].Name)
	assert.Equal(t, "0x1111111111111111111111111111111111111111", receipt.Links[0].Address)

	code, err := chain.backend.Client().CodeAt(ctx, common.HexToAddress(receipt.Address), nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00}, code)
}

func TestDeployerAdapter_SequentialNonces(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	chain := newSimChain(t)
	cfg := &config.RuntimeConfig{Network: chain.network, DeployerKey: chain.keyHex()}
	deployer := NewDeployerAdapter(cfg, chain.client(), discardLogger())

	stop := chain.mine()
	first, err := deployer.Deploy(ctx, gatewayRequest())
	require.NoError(t, err)
	second, err := deployer.Deploy(ctx, gatewayRequest())
	stop()
	require.NoError(t, err)

	from := crypto.PubkeyToAddress(chain.key.PublicKey)
	assert.Equal(t, crypto.CreateAddress(from, 0).Hex(), first.Address)
	assert.Equal(t, crypto.CreateAddress(from, 1).Hex(), second.Address)
}

func TestDeployerAdapter_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid private key", func(t *testing.T) {
		chain := newSimChain(t)
		cfg := &config.RuntimeConfig{Network: chain.network, DeployerKey: "0xnotakey"}

		_, err := NewDeployerAdapter(cfg, chain.client(), discardLogger()).Deploy(ctx, gatewayRequest())
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrConfiguration))
	})

	t.Run("chain id mismatch", func(t *testing.T) {
		chain := newSimChain(t)
		chain.network.ChainID = 137
		cfg := &config.RuntimeConfig{Network: chain.network, DeployerKey: chain.keyHex()}

		_, err := NewDeployerAdapter(cfg, chain.client(), discardLogger()).Deploy(ctx, gatewayRequest())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "chain ID mismatch")
	})

	t.Run("unresolved link", func(t *testing.T) {
		chain := newSimChain(t)
		cfg := &config.RuntimeConfig{Network: chain.network, DeployerKey: chain.keyHex()}

		req := gatewayRequest()
		req.Artifact.LinkReferences = models.LinkReferences{
			"contracts/ToString.sol": {"ToString": {{Start: 1, Length: 20}}},
		}
		req.Libraries = nil

		_, err := NewDeployerAdapter(cfg, chain.client(), discardLogger()).Deploy(ctx, req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no address was provided")
	})

	t.Run("argument count mismatch", func(t *testing.T) {
		chain := newSimChain(t)
		cfg := &config.RuntimeConfig{Network: chain.network, DeployerKey: chain.keyHex()}

		req := gatewayRequest()
		req.Spec.Args = req.Spec.Args[:1]

		_, err := NewDeployerAdapter(cfg, chain.client(), discardLogger()).Deploy(ctx, req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "constructor takes 2 arguments, 1 given")
	})

	t.Run("no key and no rpc access", func(t *testing.T) {
		chain := newSimChain(t)
		cfg := &config.RuntimeConfig{Network: chain.network}

		_, err := NewDeployerAdapter(cfg, chain.client(), discardLogger()).Deploy(ctx, gatewayRequest())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DEPLOYER_PRIVATE_KEY")
	})
}

func TestAccountsAdapter(t *testing.T) {
	ctx := context.Background()
	chain := newSimChain(t)
	cfg := &config.RuntimeConfig{Network: chain.network, DeployerKey: chain.keyHex()}

	accounts, err := NewAccountsAdapter(cfg, chain.client()).ListAccounts(ctx)
	require.NoError(t, err)

	require.Len(t, accounts, 1)
	assert.Equal(t, crypto.PubkeyToAddress(chain.key.PublicKey).Hex(), accounts[0].Address)
	assert.Equal(t, big.NewInt(1_000_000_000_000_000_000), accounts[0].Balance)
}

// unlockedNode answers eth_accounts and eth_sendTransaction like a node holding chain.key
type unlockedNode struct {
	chain *simChain
	calls []string
}

func (n *unlockedNode) CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	n.calls = append(n.calls, method)
	from := crypto.PubkeyToAddress(n.chain.key.PublicKey)

	switch method {
	case "eth_accounts":
		*result.(*[]common.Address) = []common.Address{from}
		return nil
	case "eth_sendTransaction":
		params := args[0].(map[string]interface{})
		client := n.chain.backend.Client()

		nonce, err := client.PendingNonceAt(ctx, from)
		if err != nil {
			return err
		}
		gasPrice, err := client.SuggestGasPrice(ctx)
		if err != nil {
			return err
		}
		tx := types.NewContractCreation(nonce, big.NewInt(0), uint64(params["gas"].(hexutil.Uint64)), gasPrice, params["data"].(hexutil.Bytes))
		signed, err := types.SignTx(tx, types.LatestSignerForChainID(big.NewInt(simulatedChainID)), n.chain.key)
		if err != nil {
			return err
		}
		if err := client.SendTransaction(ctx, signed); err != nil {
			return err
		}
		*result.(*common.Hash) = signed.Hash()
		return nil
	}
	return errors.New("unexpected method " + method)
}

func TestDeployerAdapter_UnlockedAccount(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	chain := newSimChain(t)
	node := &unlockedNode{chain: chain}
	client := NewClientWithBackend(chain.network, chain.backend.Client(), node)
	deployer := NewDeployerAdapter(&config.RuntimeConfig{Network: chain.network}, client, discardLogger())

	stop := chain.mine()
	receipt, err := deployer.Deploy(ctx, gatewayRequest())
	stop()
	require.NoError(t, err)

	from := crypto.PubkeyToAddress(chain.key.PublicKey)
	assert.Equal(t, from.Hex(), receipt.Deployer)
	assert.Equal(t, crypto.CreateAddress(from, 0).Hex(), receipt.Address)
	assert.Equal(t, []string{"eth_accounts", "eth_sendTransaction"}, node.calls)
}
