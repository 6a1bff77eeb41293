package app

import (
	"log/slog"

	"github.com/trebuchet-org/zkdeploy/internal/domain/config"
	"github.com/trebuchet-org/zkdeploy/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig
	Log    *slog.Logger

	// Use cases
	DeployContracts  *usecase.DeployContracts
	EstimateFees     *usecase.EstimateFees
	VerifyDeployment *usecase.VerifyDeployment
	ListNetworks     *usecase.ListNetworks
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	log *slog.Logger,
	deployContracts *usecase.DeployContracts,
	estimateFees *usecase.EstimateFees,
	verifyDeployment *usecase.VerifyDeployment,
	listNetworks *usecase.ListNetworks,
) (*App, error) {
	return &App{
		Config:           cfg,
		Log:              log,
		DeployContracts:  deployContracts,
		EstimateFees:     estimateFees,
		VerifyDeployment: verifyDeployment,
		ListNetworks:     listNetworks,
	}, nil
}
