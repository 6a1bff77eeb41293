package usecase_test

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"
	"github.com/trebuchet-org/zkdeploy/internal/domain"
	"github.com/trebuchet-org/zkdeploy/internal/domain/config"
	"github.com/trebuchet-org/zkdeploy/internal/domain/models"
	"github.com/trebuchet-org/zkdeploy/internal/usecase"
)

// MockCredentials is a mock implementation of CredentialResolver
type MockCredentials struct {
	mock.Mock
}

func (m *MockCredentials) ResolvePrivateKey(ctx context.Context, network *config.Network) (string, error) {
	args := m.Called(ctx, network)
	return args.String(0), args.Error(1)
}

// MockConfirmer is a mock implementation of Confirmer
type MockConfirmer struct {
	mock.Mock
}

func (m *MockConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	args := m.Called(ctx, prompt)
	return args.Bool(0), args.Error(1)
}

// MockVerifier is a mock implementation of ContractVerifier
type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, network *config.Network, req *models.VerificationRequest) (*models.VerificationResult, error) {
	args := m.Called(ctx, network, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VerificationResult), args.Error(1)
}

// memoryRecords keeps saved records in memory
type memoryRecords struct {
	saved   []*models.DeploymentRecord
	records map[string]*models.DeploymentRecord
}

func (m *memoryRecords) Save(_ context.Context, record *models.DeploymentRecord) error {
	m.saved = append(m.saved, record)
	if m.records == nil {
		m.records = make(map[string]*models.DeploymentRecord)
	}
	m.records[record.Network] = record
	return nil
}

func (m *memoryRecords) Load(_ context.Context, network string) (*models.DeploymentRecord, error) {
	record, ok := m.records[network]
	if !ok {
		return nil, fmt.Errorf("deployment record for %s: %w", network, domain.ErrNotFound)
	}
	return record, nil
}

// fakeBackend hands out a single scripted session and logs every call
type fakeBackend struct {
	session  *fakeSession
	connects int
}

func (b *fakeBackend) Connect(_ context.Context, _ *config.Network, _ string) (usecase.DeploymentSession, error) {
	b.connects++
	return b.session, nil
}

type deployCall struct {
	Artifact string
	Args     []any
}

type fakeSession struct {
	calls     []string // "load:X", "deploy:X", "estimate:X" in order
	deploys   []deployCall
	estimates []deployCall

	addresses map[string]common.Address
	fees      map[string]*big.Int
	failOn    string // artifact name whose deploy or estimate fails
	missing   string // artifact name that cannot be loaded
	closed    bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		addresses: make(map[string]common.Address),
		fees:      make(map[string]*big.Int),
	}
}

func (s *fakeSession) LoadArtifact(_ context.Context, name string) (*models.Artifact, error) {
	s.calls = append(s.calls, "load:"+name)
	if name == s.missing {
		return nil, &domain.ArtifactError{Name: name, Err: domain.ErrContractNotFound}
	}
	return &models.Artifact{
		ContractName: name,
		SourceName:   "contracts/" + name + ".sol",
		Bytecode:     models.NewBytecode("0x6080"),
	}, nil
}

func (s *fakeSession) Deploy(_ context.Context, artifact *models.Artifact, args []any) (*usecase.DeployReceipt, error) {
	s.calls = append(s.calls, "deploy:"+artifact.ContractName)
	s.deploys = append(s.deploys, deployCall{Artifact: artifact.ContractName, Args: args})
	if artifact.ContractName == s.failOn {
		return nil, &domain.BackendError{Op: "send transaction", Err: fmt.Errorf("insufficient funds")}
	}
	addr, ok := s.addresses[artifact.ContractName]
	if !ok {
		addr = common.BigToAddress(big.NewInt(int64(len(s.deploys))))
	}
	return &usecase.DeployReceipt{
		Address: addr,
		TxHash:  common.BigToHash(big.NewInt(int64(1000 + len(s.deploys)))),
	}, nil
}

func (s *fakeSession) EstimateDeployGas(_ context.Context, artifact *models.Artifact, args []any) (*big.Int, error) {
	s.calls = append(s.calls, "estimate:"+artifact.ContractName)
	s.estimates = append(s.estimates, deployCall{Artifact: artifact.ContractName, Args: args})
	if artifact.ContractName == s.failOn {
		return nil, &domain.BackendError{Op: "estimate gas", Err: fmt.Errorf("execution reverted")}
	}
	fee, ok := s.fees[artifact.ContractName]
	if !ok {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(fee), nil
}

func (s *fakeSession) Close() {
	s.closed = true
}

// recordingProgress captures emitted events
type recordingProgress struct {
	events []usecase.ProgressEvent
}

func (p *recordingProgress) OnProgress(_ context.Context, event usecase.ProgressEvent) {
	p.events = append(p.events, event)
}

func (p *recordingProgress) Info(string)  {}
func (p *recordingProgress) Error(string) {}

func (p *recordingProgress) stages() []string {
	stages := make([]string, 0, len(p.events))
	for _, e := range p.events {
		stages = append(stages, e.Stage)
	}
	return stages
}
