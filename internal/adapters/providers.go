package adapters

import (
	"github.com/google/wire"
	"github.com/trebuchet-org/zkdeploy/internal/adapters/artifacts"
	"github.com/trebuchet-org/zkdeploy/internal/adapters/blockchain"
	internalconfig "github.com/trebuchet-org/zkdeploy/internal/adapters/config"
	"github.com/trebuchet-org/zkdeploy/internal/adapters/fs"
	"github.com/trebuchet-org/zkdeploy/internal/adapters/interactive"
	"github.com/trebuchet-org/zkdeploy/internal/adapters/verification"
	"github.com/trebuchet-org/zkdeploy/internal/config"
	"github.com/trebuchet-org/zkdeploy/internal/usecase"
)

// FSSet provides filesystem-based implementations
var FSSet = wire.NewSet(
	fs.NewRecordStoreAdapter,
	wire.Bind(new(usecase.RecordStore), new(*fs.RecordStoreAdapter)),
)

// ArtifactSet provides the compiled artifact loader
var ArtifactSet = wire.NewSet(
	artifacts.NewLoader,
	wire.Bind(new(usecase.ArtifactLoader), new(*artifacts.Loader)),
)

// BlockchainSet provides the JSON-RPC deployment backend
var BlockchainSet = wire.NewSet(
	blockchain.NewBackend,
	wire.Bind(new(usecase.DeploymentBackend), new(*blockchain.Backend)),
)

// VerificationSet provides the explorer verification client
var VerificationSet = wire.NewSet(
	verification.NewZkSyncVerifier,
	wire.Bind(new(usecase.ContractVerifier), new(*verification.ZkSyncVerifier)),
)

// InteractiveSet provides interactive implementations
var InteractiveSet = wire.NewSet(
	interactive.NewConfirmerAdapter,
	wire.Bind(new(usecase.Confirmer), new(*interactive.ConfirmerAdapter)),
)

// ConfigSet provides configuration-based implementations
var ConfigSet = wire.NewSet(
	config.ProvideNetworkResolver,
	internalconfig.NewNetworkResolverAdapter,
	wire.Bind(new(usecase.NetworkResolver), new(*internalconfig.NetworkResolverAdapter)),

	internalconfig.NewCredentialResolver,
	wire.Bind(new(usecase.CredentialResolver), new(*config.EnvCredentials)),
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	FSSet,
	ArtifactSet,
	BlockchainSet,
	VerificationSet,
	InteractiveSet,
	ConfigSet,
)
