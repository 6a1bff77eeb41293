package usecase

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/zkdeploy/internal/domain/config"
	"github.com/trebuchet-org/zkdeploy/internal/domain/models"
)

// Deployment Backend Ports

// DeploymentBackend opens sessions bound to a network and a signing key
type DeploymentBackend interface {
	Connect(ctx context.Context, network *config.Network, privateKey string) (DeploymentSession, error)
}

// DeploymentSession performs artifact loading, deployment and estimation for one run
type DeploymentSession interface {
	ArtifactLoader
	// Deploy submits a contract creation and waits for it to be mined
	Deploy(ctx context.Context, artifact *models.Artifact, args []any) (*DeployReceipt, error)
	// EstimateDeployGas estimates deployment gas without submitting a transaction
	EstimateDeployGas(ctx context.Context, artifact *models.Artifact, args []any) (*big.Int, error)
	Close()
}

// DeployReceipt is what the backend returns for a mined deployment
type DeployReceipt struct {
	Address         common.Address
	TxHash          common.Hash
	ConstructorArgs []byte // ABI-encoded, as appended to the creation code
}

// ArtifactLoader locates compiled contract artifacts
type ArtifactLoader interface {
	LoadArtifact(ctx context.Context, name string) (*models.Artifact, error)
}

// CredentialResolver supplies the signing key for a network
type CredentialResolver interface {
	ResolvePrivateKey(ctx context.Context, network *config.Network) (string, error)
}

// NetworkResolver handles network configuration resolution
type NetworkResolver interface {
	GetNetworks(ctx context.Context) []string
	ResolveNetwork(ctx context.Context, networkName string) (*config.Network, error)
}

// ContractVerifier submits deployed contracts to a source verification service
type ContractVerifier interface {
	Verify(ctx context.Context, network *config.Network, req *models.VerificationRequest) (*models.VerificationResult, error)
}

// RecordStore persists deployment records per network
type RecordStore interface {
	Save(ctx context.Context, record *models.DeploymentRecord) error
	Load(ctx context.Context, network string) (*models.DeploymentRecord, error)
}

// Confirmer asks the operator before irreversible actions
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// Progress tracking interfaces

// Progress stages emitted by the sequencer and the estimator
const (
	StageDeployStarted     = "deploy_started"
	StageDeployCompleted   = "deploy_completed"
	StageContractKnown     = "contract_known"
	StageVerifyStarted     = "verify_started"
	StageVerifyCompleted   = "verify_completed"
	StageVerifyFailed      = "verify_failed"
	StageEstimateStarted   = "estimate_started"
	StageEstimateCompleted = "estimate_completed"
	StageEstimateSkipped   = "estimate_skipped"
	StageEstimateTotal     = "estimate_total"
	StageStepFailed        = "step_failed"
)

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
