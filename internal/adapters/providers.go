package adapters

import (
	"github.com/google/wire"
	"github.com/trebuchet-org/treb-gateway/internal/adapters/anvil"
	"github.com/trebuchet-org/treb-gateway/internal/adapters/artifacts"
	"github.com/trebuchet-org/treb-gateway/internal/adapters/blockchain"
	adapterconfig "github.com/trebuchet-org/treb-gateway/internal/adapters/config"
	"github.com/trebuchet-org/treb-gateway/internal/adapters/fs"
	"github.com/trebuchet-org/treb-gateway/internal/adapters/verification"
	"github.com/trebuchet-org/treb-gateway/internal/config"
	"github.com/trebuchet-org/treb-gateway/internal/usecase"
)

// FSSet provides filesystem-based implementations
var FSSet = wire.NewSet(
	fs.NewDeploymentStore,
	wire.Bind(new(usecase.DeploymentStore), new(*fs.DeploymentStore)),
)

// ArtifactsSet provides compiled artifact lookup
var ArtifactsSet = wire.NewSet(
	artifacts.NewRepository,
	wire.Bind(new(usecase.ArtifactResolver), new(*artifacts.Repository)),
)

// BlockchainSet provides RPC-backed implementations
var BlockchainSet = wire.NewSet(
	blockchain.NewClient,
	blockchain.NewDeployerAdapter,
	wire.Bind(new(usecase.ContractDeployer), new(*blockchain.DeployerAdapter)),
	blockchain.NewAccountsAdapter,
	wire.Bind(new(usecase.AccountLister), new(*blockchain.AccountsAdapter)),
)

// VerificationSet provides explorer verification
var VerificationSet = wire.NewSet(
	verification.NewForgeVerifier,
	wire.Bind(new(usecase.SourceVerifier), new(*verification.ForgeVerifier)),
)

// NodeSet provides the local development node
var NodeSet = wire.NewSet(
	anvil.NewNode,
	wire.Bind(new(usecase.LocalNode), new(*anvil.Node)),
)

// ConfigSet provides configuration-based implementations
var ConfigSet = wire.NewSet(
	config.ProvideNetworkResolver,
	adapterconfig.NewNetworkResolverAdapter,
	wire.Bind(new(usecase.NetworkResolver), new(*adapterconfig.NetworkResolverAdapter)),
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	FSSet,
	ArtifactsSet,
	BlockchainSet,
	VerificationSet,
	NodeSet,
	ConfigSet,
)
