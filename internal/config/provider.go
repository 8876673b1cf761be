package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/treb-gateway/internal/domain"
	"github.com/trebuchet-org/treb-gateway/internal/domain/config"
)

// DefaultArtifactDirs are searched when treb-gateway.toml names none
var DefaultArtifactDirs = []string{"out", "artifacts"}

// projectMarkers identify a project root, most specific first
var projectMarkers = []string{GatewayFileName, "foundry.toml", "hardhat.config.ts", "hardhat.config.js"}

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		var err error
		projectRoot, err = FindProjectRoot()
		if err != nil {
			return nil, fmt.Errorf("failed to find project root: %w", err)
		}
	}

	LoadDotEnv(projectRoot)

	fileCfg, err := LoadGatewayFile(projectRoot)
	if err != nil {
		return nil, err
	}

	gasPrice, err := parseGasPrice(v.GetString("gas_price"))
	if err != nil {
		return nil, err
	}

	cfg := &config.RuntimeConfig{
		ProjectRoot:     projectRoot,
		DataDir:         resolvePath(projectRoot, v.GetString("data_dir")),
		PlanPath:        v.GetString("plan"),
		DeployerKey:     strings.TrimSpace(v.GetString("deployer_private_key")),
		Debug:           v.GetBool("debug"),
		NonInteractive:  v.GetBool("non_interactive"),
		DryRun:          v.GetBool("dry_run"),
		SkipVerify:      v.GetBool("skip_verify"),
		Timeout:         v.GetDuration("timeout"),
		GasPriceGwei:    gasPrice,
		EtherscanAPIKey: v.GetString("etherscan_api_key"),
		GatewayConfig:   fileCfg,
	}

	if cfg.PlanPath == "" && fileCfg.Plan != "" {
		cfg.PlanPath = fileCfg.Plan
	}
	if cfg.PlanPath != "" {
		cfg.PlanPath = resolvePath(projectRoot, cfg.PlanPath)
	}

	dirs := fileCfg.Artifacts
	if len(dirs) == 0 {
		dirs = DefaultArtifactDirs
	}
	for _, dir := range dirs {
		cfg.ArtifactDirs = append(cfg.ArtifactDirs, resolvePath(projectRoot, dir))
	}

	networkName := v.GetString("network")
	if networkName == "" {
		networkName = fileCfg.DefaultNetwork
	}
	if networkName == "" {
		networkName = DefaultNetwork
	}

	resolver, err := ProvideNetworkResolver(cfg)
	if err != nil {
		return nil, err
	}
	network, err := resolver.Resolve(networkName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve network %s: %w", networkName, err)
	}
	cfg.Network = network

	return cfg, nil
}

// FindProjectRoot walks up from the current directory looking for a project marker.
// Falls back to the current directory.
func FindProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := cwd
	for {
		for _, marker := range projectMarkers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return cwd, nil
		}
		dir = parent
	}
}

// SetupViper creates and configures a viper instance
func SetupViper(projectRoot string, cmd *cobra.Command) *viper.Viper {
	v := viper.New()

	// Set up environment variables
	v.SetEnvPrefix("TREB")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	// Unprefixed variables kept from the original deploy scripts
	_ = v.BindEnv("gas_price", "GAS_PRICE")
	_ = v.BindEnv("etherscan_api_key", "ETHERSCAN_API_KEY")
	_ = v.BindEnv("deployer_private_key", "DEPLOYER_PRIVATE_KEY")

	// Set defaults
	v.SetDefault("timeout", "30m")
	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)
	v.SetDefault("gas_price", "1")
	v.SetDefault("project_root", projectRoot)

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if err := v.BindPFlag(key, f); err != nil {
			panic(err)
		}
	})

	return v
}

// ProvideNetworkResolver creates a NetworkResolver for Wire dependency injection
func ProvideNetworkResolver(cfg *config.RuntimeConfig) (*NetworkResolver, error) {
	return NewNetworkResolver(cfg.GatewayConfig, cfg.GasPriceGwei, cfg.EtherscanAPIKey)
}

func parseGasPrice(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	gwei, err := strconv.ParseFloat(raw, 64)
	if err != nil || gwei < 0 {
		return 0, &domain.ConfigurationError{
			Field:  "GAS_PRICE",
			Reason: fmt.Sprintf("invalid gas price %q", raw),
		}
	}
	return gwei, nil
}

func resolvePath(root, path string) string {
	if path == "" {
		return root
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
