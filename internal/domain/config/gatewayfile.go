package config

// GatewayFileConfig represents the optional treb-gateway.toml file
type GatewayFileConfig struct {
	DefaultNetwork string                   `toml:"default_network,omitempty"`
	Plan           string                   `toml:"plan,omitempty"`
	Artifacts      []string                 `toml:"artifacts,omitempty"`
	Networks       map[string]NetworkConfig `toml:"networks"`
	Etherscan      EtherscanConfig          `toml:"etherscan"`
}

// NetworkConfig represents a [networks.<name>] section in treb-gateway.toml.
// String values go through ${VAR} expansion.
type NetworkConfig struct {
	ChainID      uint64 `toml:"chain_id,omitempty"`
	URL          string `toml:"url,omitempty"`
	GasPriceGwei string `toml:"gas_price_gwei,omitempty"`
	TimeoutMs    int64  `toml:"timeout_ms,omitempty"`
	ForkURL      string `toml:"fork_url,omitempty"`
	ForkBlock    uint64 `toml:"fork_block,omitempty"`
	Verify       *bool  `toml:"verify,omitempty"`
	VerifierURL  string `toml:"verifier_url,omitempty"`
}

// EtherscanConfig represents the [etherscan] section. URL applies to every
// network without its own verifier_url.
type EtherscanConfig struct {
	Key string `toml:"key,omitempty"`
	URL string `toml:"url,omitempty"`
}
