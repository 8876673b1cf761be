package config

import (
	"math/big"
	"time"
)

// RuntimeConfig represents the complete runtime configuration
// It is built once at process start and injected into use cases
type RuntimeConfig struct {
	// Core settings
	ProjectRoot string
	DataDir     string

	// Context settings
	Network  *NetworkProfile
	PlanPath string // empty means the embedded default plan

	// Deployer settings. An empty key means the first unlocked RPC account signs.
	DeployerKey  string
	ArtifactDirs []string

	// Execution settings
	Debug          bool
	NonInteractive bool
	DryRun         bool
	SkipVerify     bool
	Timeout        time.Duration

	// Environment-sourced network overrides
	GasPriceGwei    float64
	EtherscanAPIKey string

	// Resolved configurations
	GatewayConfig *GatewayFileConfig
}

// NetworkProfile represents a resolved target network
type NetworkProfile struct {
	Name    string        `json:"name"`
	ChainID uint64        `json:"chainId"`
	RPCURL  string        `json:"rpcUrl"`
	// GasPrice in wei; nil means the node's suggestion is used
	GasPrice *big.Int      `json:"gasPrice,omitempty"`
	Timeout  time.Duration `json:"timeout,omitempty"`
	Fork     *ForkConfig   `json:"fork,omitempty"`

	// Verify marks the verify-eligible production network
	Verify bool `json:"verify"`
	// VerifierURL is the Etherscan-compatible API endpoint passed to forge
	VerifierURL    string `json:"verifierUrl,omitempty"`
	ExplorerAPIKey string `json:"-"`
}

// ForkConfig describes the upstream chain a local node forks.
// Only the node layer uses it.
type ForkConfig struct {
	URL         string `json:"url"`
	BlockNumber uint64 `json:"blockNumber,omitempty"`
}
