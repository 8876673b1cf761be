package anvil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"os/exec"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/trebuchet-org/treb-gateway/internal/domain"
	"github.com/trebuchet-org/treb-gateway/internal/domain/config"
	"github.com/trebuchet-org/treb-gateway/internal/usecase"
)

const (
	// DefaultPort is used when the profile URL has no port
	DefaultPort = "8545"

	readyPollInterval = 200 * time.Millisecond
	readyTimeout      = 30 * time.Second
)

// Node runs a local anvil node for a network profile in the foreground
type Node struct {
	binary string
	log    *slog.Logger
}

// NewNode creates a node runner using the anvil binary on PATH
func NewNode(log *slog.Logger) *Node {
	return &Node{
		binary: "anvil",
		log:    log.With("component", "AnvilNode"),
	}
}

// Run starts anvil and blocks until it exits or ctx is cancelled
func (n *Node) Run(ctx context.Context, network *config.NetworkProfile, out io.Writer) error {
	args, err := BuildArgs(network)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, n.binary, args...)
	cmd.Stdout = out
	cmd.Stderr = out

	n.log.Debug("starting anvil", "args", args)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start anvil: %w", err)
	}

	go n.waitReady(ctx, network)

	err = cmd.Wait()
	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("anvil exited: %w", err)
	}
	return nil
}

// waitReady logs once the node answers eth_chainId with the profile's chain ID
func (n *Node) waitReady(ctx context.Context, network *config.NetworkProfile) {
	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()

	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if !errors.Is(ctx.Err(), context.Canceled) {
				n.log.Warn("node did not become ready", "rpc", network.RPCURL)
			}
			return
		case <-ticker.C:
		}

		client, err := ethclient.DialContext(ctx, network.RPCURL)
		if err != nil {
			continue
		}
		chainID, err := client.ChainID(ctx)
		client.Close()
		if err != nil {
			continue
		}
		if chainID.Uint64() != network.ChainID {
			n.log.Warn("node chain ID differs from profile", "expected", network.ChainID, "got", chainID.Uint64())
		}
		n.log.Info("node ready", "network", network.Name, "rpc", network.RPCURL, "chainId", chainID.Uint64())
		return
	}
}

// BuildArgs returns the anvil arguments serving network on its RPC URL
func BuildArgs(network *config.NetworkProfile) ([]string, error) {
	host, port, err := localEndpoint(network)
	if err != nil {
		return nil, err
	}

	args := []string{"--port", port, "--host", host}
	if network.ChainID != 0 {
		args = append(args, "--chain-id", fmt.Sprintf("%d", network.ChainID))
	}
	if network.Fork != nil && network.Fork.URL != "" {
		args = append(args, "--fork-url", network.Fork.URL)
		if network.Fork.BlockNumber != 0 {
			args = append(args, "--fork-block-number", fmt.Sprintf("%d", network.Fork.BlockNumber))
		}
	}
	if network.GasPrice != nil {
		args = append(args, "--gas-price", network.GasPrice.String())
	}
	return args, nil
}

func localEndpoint(network *config.NetworkProfile) (string, string, error) {
	u, err := url.Parse(network.RPCURL)
	if err != nil || u.Host == "" {
		return "", "", &domain.ConfigurationError{
			Field:  fmt.Sprintf("networks.%s.url", network.Name),
			Reason: fmt.Sprintf("invalid RPC URL %q", network.RPCURL),
		}
	}

	host := u.Hostname()
	if ip := net.ParseIP(host); !(host == "localhost" || (ip != nil && ip.IsLoopback())) {
		return "", "", &domain.ConfigurationError{
			Field:  "network",
			Reason: fmt.Sprintf("network %s is not served locally (%s)", network.Name, network.RPCURL),
		}
	}

	port := u.Port()
	if port == "" {
		port = DefaultPort
	}
	return host, port, nil
}

var _ usecase.LocalNode = (*Node)(nil)
