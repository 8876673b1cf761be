package config

import (
	"fmt"
	"math/big"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/trebuchet-org/treb-gateway/internal/domain"
	"github.com/trebuchet-org/treb-gateway/internal/domain/config"
)

const (
	// DefaultNetwork is used when no network is selected
	DefaultNetwork = "localhost"

	polygonChainID   = 137
	polygonForkURL   = "https://polygon-rpc.com"
	polygonForkBlock = 34637771
)

var gwei = big.NewRat(1_000_000_000, 1)

// NetworkResolver resolves network names to profiles.
// Profiles are computed once from the built-in table and treb-gateway.toml.
type NetworkResolver struct {
	profiles map[string]*config.NetworkProfile
}

// NewNetworkResolver builds the profile table. gasPriceGwei is the GAS_PRICE
// multiplier applied to built-in profiles that pin a gas price.
func NewNetworkResolver(fileCfg *config.GatewayFileConfig, gasPriceGwei float64, etherscanKey string) (*NetworkResolver, error) {
	profiles := builtinNetworks(gasPriceGwei)

	var verifierURL string
	if fileCfg != nil {
		verifierURL = os.ExpandEnv(fileCfg.Etherscan.URL)
		for name, nc := range fileCfg.Networks {
			base, ok := profiles[name]
			if !ok {
				base = &config.NetworkProfile{Name: name}
			}
			merged, err := mergeNetwork(base, nc)
			if err != nil {
				return nil, &domain.ConfigurationError{
					Field:  fmt.Sprintf("networks.%s", name),
					Reason: err.Error(),
				}
			}
			profiles[name] = merged
		}
		if fileCfg.Etherscan.Key != "" {
			etherscanKey = os.ExpandEnv(fileCfg.Etherscan.Key)
		}
	}

	for _, p := range profiles {
		p.ExplorerAPIKey = etherscanKey
		if p.VerifierURL == "" {
			p.VerifierURL = verifierURL
		}
		if p.VerifierURL == "" {
			p.VerifierURL = verifierAPI(p.ChainID)
		}
	}

	return &NetworkResolver{profiles: profiles}, nil
}

// Resolve returns the profile for a network name
func (r *NetworkResolver) Resolve(networkName string) (*config.NetworkProfile, error) {
	profile, ok := r.profiles[networkName]
	if !ok {
		return nil, &domain.ConfigurationError{
			Field:  "network",
			Reason: fmt.Sprintf("unknown network '%s' (available: %s)", networkName, strings.Join(r.Networks(), ", ")),
		}
	}
	if profile.RPCURL == "" {
		return nil, &domain.ConfigurationError{
			Field:  fmt.Sprintf("networks.%s.url", networkName),
			Reason: "no RPC endpoint configured",
		}
	}
	cp := *profile
	return &cp, nil
}

// Networks returns all known network names, sorted
func (r *NetworkResolver) Networks() []string {
	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// builtinNetworks mirrors the network table the gateways were first deployed with
func builtinNetworks(gasPriceGwei float64) map[string]*config.NetworkProfile {
	var maticGasPrice *big.Int
	if gasPriceGwei > 0 {
		maticGasPrice = gweiToWei(new(big.Rat).SetFloat64(gasPriceGwei))
	}

	return map[string]*config.NetworkProfile{
		"hardhat": {
			Name:    "hardhat",
			ChainID: polygonChainID,
			RPCURL:  "http://127.0.0.1:8545",
			Fork: &config.ForkConfig{
				URL:         polygonForkURL,
				BlockNumber: polygonForkBlock,
			},
		},
		"localhost": {
			Name:    "localhost",
			ChainID: polygonChainID,
			RPCURL:  "http://localhost:8545",
		},
		"matic": {
			Name:     "matic",
			ChainID:  polygonChainID,
			RPCURL:   "http://localhost:1248",
			GasPrice: maticGasPrice,
			Timeout:  1_000_000 * time.Millisecond,
			Verify:   true,
		},
	}
}

// mergeNetwork overlays a treb-gateway.toml section on a base profile
func mergeNetwork(base *config.NetworkProfile, nc config.NetworkConfig) (*config.NetworkProfile, error) {
	p := *base
	if nc.ChainID != 0 {
		p.ChainID = nc.ChainID
	}
	if nc.URL != "" {
		p.RPCURL = os.ExpandEnv(nc.URL)
	}
	if nc.GasPriceGwei != "" {
		raw := os.ExpandEnv(nc.GasPriceGwei)
		r, ok := new(big.Rat).SetString(raw)
		if !ok || r.Sign() < 0 {
			return nil, fmt.Errorf("invalid gas_price_gwei %q", raw)
		}
		p.GasPrice = gweiToWei(r)
	}
	if nc.TimeoutMs > 0 {
		p.Timeout = time.Duration(nc.TimeoutMs) * time.Millisecond
	}
	if nc.ForkURL != "" {
		p.Fork = &config.ForkConfig{
			URL:         os.ExpandEnv(nc.ForkURL),
			BlockNumber: nc.ForkBlock,
		}
	}
	if nc.Verify != nil {
		p.Verify = *nc.Verify
	}
	if nc.VerifierURL != "" {
		p.VerifierURL = os.ExpandEnv(nc.VerifierURL)
	}
	if p.ChainID == 0 {
		return nil, fmt.Errorf("chain_id is required")
	}
	return &p, nil
}

func gweiToWei(r *big.Rat) *big.Int {
	if r == nil {
		return nil
	}
	wei := new(big.Rat).Mul(r, gwei)
	return new(big.Int).Quo(wei.Num(), wei.Denom())
}

// verifierAPI returns the Etherscan-compatible API endpoint for well-known chains
func verifierAPI(chainID uint64) string {
	switch chainID {
	case 1:
		return "https://api.etherscan.io/api"
	case 11155111:
		return "https://api-sepolia.etherscan.io/api"
	case 10:
		return "https://api-optimistic.etherscan.io/api"
	case 137:
		return "https://api.polygonscan.com/api"
	case 80002:
		return "https://api-amoy.polygonscan.com/api"
	case 8453:
		return "https://api.basescan.org/api"
	case 42161:
		return "https://api.arbiscan.io/api"
	default:
		return ""
	}
}
