package app

import (
	"log/slog"

	"github.com/trebuchet-org/treb-gateway/internal/domain/config"
	"github.com/trebuchet-org/treb-gateway/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	Config *config.RuntimeConfig
	Log    *slog.Logger

	DeployContracts   *usecase.DeployContracts
	VerifyDeployments *usecase.VerifyDeployments
	ListDeployments   *usecase.ListDeployments
	ListNetworks      *usecase.ListNetworks
	ListAccounts      *usecase.ListAccounts
	RunNode           *usecase.RunNode
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	log *slog.Logger,
	deployContracts *usecase.DeployContracts,
	verifyDeployments *usecase.VerifyDeployments,
	listDeployments *usecase.ListDeployments,
	listNetworks *usecase.ListNetworks,
	listAccounts *usecase.ListAccounts,
	runNode *usecase.RunNode,
) (*App, error) {
	return &App{
		Config:            cfg,
		Log:               log,
		DeployContracts:   deployContracts,
		VerifyDeployments: verifyDeployments,
		ListDeployments:   listDeployments,
		ListNetworks:      listNetworks,
		ListAccounts:      listAccounts,
		RunNode:           runNode,
	}, nil
}
