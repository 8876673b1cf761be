package usecase

import (
	"context"
	"io"
	"log/slog"

	"github.com/trebuchet-org/treb-gateway/internal/domain"
	"github.com/trebuchet-org/treb-gateway/internal/domain/config"
)

// RunNode starts a local node for the selected network, forking upstream when
// the profile has a fork configured
type RunNode struct {
	cfg  *config.RuntimeConfig
	node LocalNode
	log  *slog.Logger
}

// NewRunNode creates a new RunNode use case
func NewRunNode(cfg *config.RuntimeConfig, node LocalNode, log *slog.Logger) *RunNode {
	return &RunNode{
		cfg:  cfg,
		node: node,
		log:  log.With("component", "RunNode"),
	}
}

// Run blocks until the node exits or ctx is cancelled
func (uc *RunNode) Run(ctx context.Context, out io.Writer) error {
	network := uc.cfg.Network
	if network == nil {
		return &domain.ConfigurationError{Field: "network", Reason: "no network selected"}
	}

	if network.Fork != nil {
		uc.log.Info("starting forked node", "network", network.Name, "fork", network.Fork.URL, "block", network.Fork.BlockNumber)
	} else {
		uc.log.Info("starting node", "network", network.Name)
	}
	return uc.node.Run(ctx, network, out)
}
