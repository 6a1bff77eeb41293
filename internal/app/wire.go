//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/zkdeploy/internal/adapters"
	"github.com/trebuchet-org/zkdeploy/internal/config"
	"github.com/trebuchet-org/zkdeploy/internal/logging"
	"github.com/trebuchet-org/zkdeploy/internal/usecase"
)

// InitApp creates a fully wired App instance
func InitApp(v *viper.Viper, sink usecase.ProgressSink) (*App, error) {
	wire.Build(
		// Configuration
		config.Provider,
		logging.LoggingSet,

		// Adapters
		adapters.AllAdapters,

		// Use cases
		usecase.NewDeployContracts,
		usecase.NewEstimateFees,
		usecase.NewVerifyDeployment,
		usecase.NewListNetworks,

		// App
		NewApp,
	)
	return nil, nil
}
