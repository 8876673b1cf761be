//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/treb-gateway/internal/adapters"
	"github.com/trebuchet-org/treb-gateway/internal/config"
	"github.com/trebuchet-org/treb-gateway/internal/logging"
	"github.com/trebuchet-org/treb-gateway/internal/usecase"
)

// InitApp creates a fully wired App instance
func InitApp(v *viper.Viper, sink usecase.ProgressSink) (*App, error) {
	wire.Build(
		config.Provider,
		logging.LoggingSet,

		adapters.AllAdapters,

		usecase.NewDeployContracts,
		usecase.NewVerifyDeployments,
		usecase.NewListDeployments,
		usecase.NewListNetworks,
		usecase.NewListAccounts,
		usecase.NewRunNode,

		NewApp,
	)
	return nil, nil
}
