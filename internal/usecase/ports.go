package usecase

import (
	"context"
	"io"
	"math/big"

	"github.com/trebuchet-org/treb-gateway/internal/domain/config"
	"github.com/trebuchet-org/treb-gateway/internal/domain/models"
)

// DeploymentStore is the named deployment cache for the active network.
// Get returns domain.ErrNotFound when no record exists for the name.
// Put must be durable before it returns.
type DeploymentStore interface {
	Get(ctx context.Context, name string) (*models.DeploymentRecord, error)
	Put(ctx context.Context, record *models.DeploymentRecord) error
	List(ctx context.Context) ([]*models.DeploymentRecord, error)
}

// ArtifactResolver loads compiled artifacts for contract specs
type ArtifactResolver interface {
	Resolve(ctx context.Context, spec *models.ContractSpec) (*models.Artifact, error)
}

// DeployRequest is a single contract creation
type DeployRequest struct {
	Spec     *models.ContractSpec
	Artifact *models.Artifact
	// Libraries maps library name to its resolved address
	Libraries map[string]string
}

// DeployReceipt describes a mined contract creation
type DeployReceipt struct {
	Address         string
	TransactionHash string
	Deployer        string
	BlockNumber     uint64
	EncodedArgs     string
	Links           []models.LibraryLink
}

// ContractDeployer submits deployment transactions from the single deployer account
type ContractDeployer interface {
	Deploy(ctx context.Context, req DeployRequest) (*DeployReceipt, error)
}

// SourceVerifier submits a deployed contract to a block explorer.
// A contract that is already verified is not an error.
type SourceVerifier interface {
	Verify(ctx context.Context, record *models.DeploymentRecord, network *config.NetworkProfile) error
}

// NetworkResolver handles network configuration resolution
type NetworkResolver interface {
	GetNetworks(ctx context.Context) []string
	ResolveNetwork(ctx context.Context, networkName string) (*config.NetworkProfile, error)
}

// Account is an address available to sign on the active network
type Account struct {
	Address string
	Balance *big.Int
}

// AccountLister lists the accounts a node exposes, plus the configured deployer key
type AccountLister interface {
	ListAccounts(ctx context.Context) ([]Account, error)
}

// Progress tracking interfaces

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage    string
	Current  int
	Total    int
	Message  string
	Spinner  bool
	Metadata interface{}
}

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}

// LocalNode runs a development node serving a network profile
type LocalNode interface {
	Run(ctx context.Context, network *config.NetworkProfile, out io.Writer) error
}
