package verification

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/samber/lo"
	"github.com/trebuchet-org/treb-gateway/internal/domain/config"
	"github.com/trebuchet-org/treb-gateway/internal/domain/models"
	"github.com/trebuchet-org/treb-gateway/internal/usecase"
)

// CommandRunner runs a command in dir and returns its combined output
type CommandRunner func(ctx context.Context, dir, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec
func ExecRunner(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// ForgeVerifier submits contracts to an Etherscan-compatible explorer with
// `forge verify-contract`
type ForgeVerifier struct {
	projectRoot string
	verifierURL string
	apiKey      string
	run         CommandRunner
	log         *slog.Logger
}

// NewForgeVerifier creates a verifier running forge from the project root
func NewForgeVerifier(cfg *config.RuntimeConfig, log *slog.Logger) *ForgeVerifier {
	return NewForgeVerifierWithRunner(cfg, ExecRunner, log)
}

// NewForgeVerifierWithRunner creates a verifier with a custom command runner
func NewForgeVerifierWithRunner(cfg *config.RuntimeConfig, run CommandRunner, log *slog.Logger) *ForgeVerifier {
	v := &ForgeVerifier{
		projectRoot: cfg.ProjectRoot,
		apiKey:      cfg.EtherscanAPIKey,
		run:         run,
		log:         log.With("component", "ForgeVerifier"),
	}
	if cfg.GatewayConfig != nil {
		v.verifierURL = cfg.GatewayConfig.Etherscan.URL
	}
	return v
}

// Verify runs forge verify-contract for one record. Already verified contracts succeed.
func (v *ForgeVerifier) Verify(ctx context.Context, record *models.DeploymentRecord, network *config.NetworkProfile) error {
	args := v.BuildArgs(record, network)
	v.log.Debug("running forge", "args", redact(args))

	output, err := v.run(ctx, v.projectRoot, "forge", args...)
	out := strings.TrimSpace(string(output))
	if alreadyVerified(out) {
		return nil
	}
	if err != nil {
		if out == "" {
			return fmt.Errorf("forge verify-contract failed: %w", err)
		}
		return fmt.Errorf("verification failed: %s", lastLines(out, 5))
	}
	if strings.Contains(out, "successfully verified") || strings.Contains(out, "Pass - Verified") {
		return nil
	}
	return fmt.Errorf("verification status unclear: %s", lastLines(out, 5))
}

// BuildArgs returns the forge arguments used to verify record on network
func (v *ForgeVerifier) BuildArgs(record *models.DeploymentRecord, network *config.NetworkProfile) []string {
	contractPath := record.Artifact
	if contractPath == "" {
		contractPath = record.Name
	}

	args := []string{
		"verify-contract",
		record.Address,
		contractPath,
		"--chain-id", fmt.Sprintf("%d", network.ChainID),
		"--watch",
	}

	if encoded := strings.TrimPrefix(record.EncodedArgs, "0x"); encoded != "" {
		args = append(args, "--constructor-args", encoded)
	}
	for _, lib := range record.Libraries {
		path := lib.Path
		if path == "" {
			path = lib.Name + ":" + lib.Name
		}
		args = append(args, "--libraries", fmt.Sprintf("%s:%s", path, lib.Address))
	}

	if verifierURL := lo.Ternary(network.VerifierURL != "", network.VerifierURL, v.verifierURL); verifierURL != "" {
		args = append(args, "--verifier-url", verifierURL)
	}
	apiKey := lo.Ternary(network.ExplorerAPIKey != "", network.ExplorerAPIKey, v.apiKey)
	if apiKey != "" {
		args = append(args, "--etherscan-api-key", apiKey)
	}

	return args
}

// Command renders the full forge command with the API key masked
func (v *ForgeVerifier) Command(record *models.DeploymentRecord, network *config.NetworkProfile) string {
	return "forge " + strings.Join(redact(v.BuildArgs(record, network)), " ")
}

func alreadyVerified(output string) bool {
	lower := strings.ToLower(output)
	return strings.Contains(lower, "already verified")
}

func redact(args []string) []string {
	out := make([]string, len(args))
	copy(out, args)
	for i := 0; i < len(out)-1; i++ {
		if out[i] == "--etherscan-api-key" {
			out[i+1] = "***"
		}
	}
	return out
}

func lastLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

var _ usecase.SourceVerifier = (*ForgeVerifier)(nil)
