package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/trebuchet-org/treb-gateway/internal/domain"
	"github.com/trebuchet-org/treb-gateway/internal/domain/config"
)

// GatewayFileName is the optional project configuration file
const GatewayFileName = "treb-gateway.toml"

// LoadDotEnv loads .env and .env.local from the project root.
// Variables already present in the process environment win.
func LoadDotEnv(projectRoot string) {
	envFiles := []string{
		filepath.Join(projectRoot, ".env"),
		filepath.Join(projectRoot, ".env.local"),
	}

	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				slog.Warn("failed to load env file", "file", envFile, "error", err)
			}
		}
	}
}

// LoadGatewayFile parses treb-gateway.toml. A missing file yields an empty config.
func LoadGatewayFile(projectRoot string) (*config.GatewayFileConfig, error) {
	path := filepath.Join(projectRoot, GatewayFileName)

	cfg := &config.GatewayFileConfig{
		Networks: make(map[string]config.NetworkConfig),
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, &domain.ConfigurationError{
			Field:  GatewayFileName,
			Reason: fmt.Sprintf("failed to parse: %v", err),
		}
	}

	if cfg.Networks == nil {
		cfg.Networks = make(map[string]config.NetworkConfig)
	}

	return cfg, nil
}
