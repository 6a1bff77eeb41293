package usecase_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/zkdeploy/internal/domain"
	"github.com/trebuchet-org/zkdeploy/internal/domain/config"
	"github.com/trebuchet-org/zkdeploy/internal/domain/models"
	"github.com/trebuchet-org/zkdeploy/internal/usecase"
)

var (
	localNetwork = &config.Network{
		Name:          "zkSyncLocal",
		RPCURL:        "http://localhost:3050",
		ZkSync:        true,
		Local:         true,
		ChainID:       270,
		PrivateKeyEnv: "LOCAL_TESTNET_RICH_WALLET_PRIVATE_KEY",
	}
	remoteNetwork = &config.Network{
		Name:          "zkSyncEra",
		RPCURL:        "https://zksync2-testnet.zksync.dev",
		ZkSync:        true,
		ChainID:       280,
		VerifyURL:     "https://zksync2-testnet-explorer.zksync.dev/contract_verification",
		PrivateKeyEnv: "PRIVATE_KEY",
	}
)

type deployFixture struct {
	credentials *MockCredentials
	confirmer   *MockConfirmer
	verifier    *MockVerifier
	backend     *fakeBackend
	session     *fakeSession
	records     *memoryRecords
	progress    *recordingProgress
	uc          *usecase.DeployContracts
}

func newDeployFixture(t *testing.T) *deployFixture {
	t.Helper()
	f := &deployFixture{
		credentials: new(MockCredentials),
		confirmer:   new(MockConfirmer),
		verifier:    new(MockVerifier),
		session:     newFakeSession(),
		records:     &memoryRecords{},
		progress:    &recordingProgress{},
	}
	f.backend = &fakeBackend{session: f.session}
	f.uc = usecase.NewDeployContracts(
		f.credentials,
		f.backend,
		f.verifier,
		f.records,
		f.confirmer,
		f.progress,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return f
}

func staticSpec(name string, args ...any) *models.ContractSpec {
	return &models.ContractSpec{Name: name, Args: models.StaticArgs(args...)}
}

func TestDeployContracts_DeploysInOrder(t *testing.T) {
	f := newDeployFixture(t)
	f.credentials.On("ResolvePrivateKey", mock.Anything, localNetwork).Return("0xkey", nil)

	specs := []*models.ContractSpec{
		staticSpec("A"),
		staticSpec("B"),
		staticSpec("C"),
		staticSpec("D"),
	}

	result, err := f.uc.Run(context.Background(), usecase.DeployParams{
		Network: localNetwork,
		Specs:   specs,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"load:A", "deploy:A",
		"load:B", "deploy:B",
		"load:C", "deploy:C",
		"load:D", "deploy:D",
	}, f.session.calls)
	require.Len(t, result.Contracts, 4)
	for i, name := range []string{"A", "B", "C", "D"} {
		assert.Equal(t, name, result.Contracts[i].Name)
		assert.Contains(t, result.Addresses, name)
	}
	assert.True(t, f.session.closed)
	assert.Equal(t, 1, f.backend.connects)
	f.confirmer.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything)
}

func TestDeployContracts_TokenThenStaking(t *testing.T) {
	f := newDeployFixture(t)
	f.credentials.On("ResolvePrivateKey", mock.Anything, localNetwork).Return("0xkey", nil)

	tokenAddr := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	stakingAddr := common.HexToAddress("0x00000000000000000000000000000000000000b2")
	f.session.addresses["Token"] = tokenAddr
	f.session.addresses["Staking"] = stakingAddr

	specs := []*models.ContractSpec{
		staticSpec("Token", "100000000000000000000000000"),
		{
			Name: "Staking",
			Args: func(deployed models.Addresses) ([]any, error) {
				token, err := deployed.Get("Token")
				if err != nil {
					return nil, err
				}
				return []any{token, "27714000000000000"}, nil
			},
		},
	}

	result, err := f.uc.Run(context.Background(), usecase.DeployParams{Network: localNetwork, Specs: specs})
	require.NoError(t, err)

	assert.Equal(t, []string{"load:Token", "deploy:Token", "load:Staking", "deploy:Staking"}, f.session.calls)
	require.Len(t, f.session.deploys, 2)
	assert.Equal(t, []any{"100000000000000000000000000"}, f.session.deploys[0].Args)
	assert.Equal(t, tokenAddr, f.session.deploys[1].Args[0])

	assert.Equal(t, tokenAddr, result.Addresses["Token"])
	assert.Equal(t, stakingAddr, result.Addresses["Staking"])

	completed := 0
	for _, e := range f.progress.events {
		if e.Stage == usecase.StageDeployCompleted {
			completed++
		}
	}
	assert.Equal(t, 2, completed)
}

func TestDeployContracts_BuilderSeesOnlyPriorAddresses(t *testing.T) {
	f := newDeployFixture(t)
	f.credentials.On("ResolvePrivateKey", mock.Anything, localNetwork).Return("0xkey", nil)

	var seen []models.Addresses
	capture := func(deployed models.Addresses) ([]any, error) {
		seen = append(seen, deployed)
		// Mutating the view must not leak into later steps
		deployed["Injected"] = common.Address{}
		return nil, nil
	}

	specs := []*models.ContractSpec{
		{Name: "A", Args: capture},
		{Name: "B", Args: capture},
		{Name: "C", Args: capture},
	}

	_, err := f.uc.Run(context.Background(), usecase.DeployParams{Network: localNetwork, Specs: specs})
	require.NoError(t, err)

	require.Len(t, seen, 3)
	assert.NotContains(t, seen[0], "A")
	assert.Contains(t, seen[1], "A")
	assert.NotContains(t, seen[1], "B")
	assert.Contains(t, seen[2], "A")
	assert.Contains(t, seen[2], "B")
	assert.NotContains(t, seen[2], "C")
	assert.Len(t, seen[2], 3) // A, B and the step's own injected key
}

func TestDeployContracts_StopsAtFailingStep(t *testing.T) {
	tests := []struct {
		name          string
		failOn        string
		missing       string
		wantIndex     int
		wantDeploys   int
		wantContracts int
	}{
		{name: "first step", failOn: "A", wantIndex: 1, wantDeploys: 1, wantContracts: 0},
		{name: "middle step", failOn: "B", wantIndex: 2, wantDeploys: 2, wantContracts: 1},
		{name: "last step", failOn: "C", wantIndex: 3, wantDeploys: 3, wantContracts: 2},
		{name: "missing artifact", missing: "B", wantIndex: 2, wantDeploys: 1, wantContracts: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDeployFixture(t)
			f.credentials.On("ResolvePrivateKey", mock.Anything, localNetwork).Return("0xkey", nil)
			f.session.failOn = tt.failOn
			f.session.missing = tt.missing

			result, err := f.uc.Run(context.Background(), usecase.DeployParams{
				Network: localNetwork,
				Specs:   []*models.ContractSpec{staticSpec("A"), staticSpec("B"), staticSpec("C")},
			})
			require.Error(t, err)

			var stepErr *domain.StepError
			require.True(t, errors.As(err, &stepErr))
			assert.Equal(t, tt.wantIndex, stepErr.Index)
			assert.True(t, usecase.IsStepFailure(err))

			assert.Len(t, f.session.deploys, tt.wantDeploys)
			assert.Len(t, result.Contracts, tt.wantContracts)

			// The failure is the last event so sinks can stop their spinners
			last := f.progress.events[len(f.progress.events)-1]
			assert.Equal(t, usecase.StageStepFailed, last.Stage)
			assert.Equal(t, tt.wantIndex, last.Current)
			assert.False(t, last.Spinner)

			// Partial runs are still recorded
			require.Len(t, f.records.saved, 1)
			assert.Equal(t, models.RunStatusFailed, f.records.saved[0].Status)
			assert.Len(t, f.records.saved[0].Contracts, tt.wantContracts)
		})
	}
}

func TestDeployContracts_ArgsBuilderFailure(t *testing.T) {
	f := newDeployFixture(t)
	f.credentials.On("ResolvePrivateKey", mock.Anything, localNetwork).Return("0xkey", nil)

	specs := []*models.ContractSpec{
		staticSpec("A"),
		{
			Name: "B",
			Args: func(deployed models.Addresses) ([]any, error) {
				addr, err := deployed.Get("Later")
				return []any{addr}, err
			},
		},
	}

	_, err := f.uc.Run(context.Background(), usecase.DeployParams{Network: localNetwork, Specs: specs})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 2 (B) failed")
	assert.Contains(t, err.Error(), "address of Later is not available yet")
	assert.Equal(t, []string{"load:A", "deploy:A"}, f.session.calls)
}

func TestDeployContracts_MissingCredential(t *testing.T) {
	f := newDeployFixture(t)
	f.credentials.On("ResolvePrivateKey", mock.Anything, remoteNetwork).
		Return("", domain.MissingPrivateKeyError("PRIVATE_KEY"))

	_, err := f.uc.Run(context.Background(), usecase.DeployParams{
		Network: remoteNetwork,
		Specs:   []*models.ContractSpec{staticSpec("A"), staticSpec("B")},
	})
	require.Error(t, err)

	var cfgErr *domain.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "PRIVATE_KEY", cfgErr.Setting)
	assert.Equal(t, "Please set your PRIVATE_KEY in the '.env' file. Use the '.env.example' file as an example.", err.Error())

	assert.Zero(t, f.backend.connects)
	assert.Empty(t, f.session.calls)
	assert.Empty(t, f.records.saved)
	f.confirmer.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything)
}

func TestDeployContracts_KnownAddress(t *testing.T) {
	f := newDeployFixture(t)
	f.credentials.On("ResolvePrivateKey", mock.Anything, localNetwork).Return("0xkey", nil)

	factory := common.HexToAddress("0xe676f869Bc03cF76Aed4C88120dcA4b43063c360")
	weth := common.HexToAddress("0x92FF5E67e4F164821f8F7bD2B0C48B9bBAdB95a4")

	specs := []*models.ContractSpec{
		{Name: "Factory", Artifact: "FactoryDynamic", Address: &factory},
		{Name: "WETH", Address: &weth},
		{
			Name: "RouterDynamic",
			Args: func(deployed models.Addresses) ([]any, error) {
				return []any{deployed["Factory"], deployed["WETH"]}, nil
			},
		},
	}

	result, err := f.uc.Run(context.Background(), usecase.DeployParams{Network: localNetwork, Specs: specs})
	require.NoError(t, err)

	assert.Equal(t, []string{"load:RouterDynamic", "deploy:RouterDynamic"}, f.session.calls)
	assert.Equal(t, []any{factory, weth}, f.session.deploys[0].Args)

	require.Len(t, result.Contracts, 3)
	assert.True(t, result.Contracts[0].Known)
	assert.Equal(t, "FactoryDynamic", result.Contracts[0].ContractName)
	assert.Nil(t, result.Contracts[0].TxHash)
	assert.False(t, result.Contracts[2].Known)
	assert.NotNil(t, result.Contracts[2].TxHash)

	assert.Equal(t, []string{
		usecase.StageContractKnown,
		usecase.StageContractKnown,
		usecase.StageDeployStarted,
		usecase.StageDeployCompleted,
	}, f.progress.stages())
}

func TestDeployContracts_Confirmation(t *testing.T) {
	t.Run("declined", func(t *testing.T) {
		f := newDeployFixture(t)
		f.credentials.On("ResolvePrivateKey", mock.Anything, remoteNetwork).Return("0xkey", nil)
		f.confirmer.On("Confirm", mock.Anything, "Deploy 1 contract(s) to zkSyncEra").Return(false, nil)

		_, err := f.uc.Run(context.Background(), usecase.DeployParams{
			Network: remoteNetwork,
			Specs:   []*models.ContractSpec{staticSpec("A")},
		})
		assert.ErrorIs(t, err, domain.ErrAborted)
		assert.Zero(t, f.backend.connects)
		f.confirmer.AssertExpectations(t)
	})

	t.Run("non-interactive skips the prompt", func(t *testing.T) {
		f := newDeployFixture(t)
		f.credentials.On("ResolvePrivateKey", mock.Anything, remoteNetwork).Return("0xkey", nil)

		_, err := f.uc.Run(context.Background(), usecase.DeployParams{
			Network:        remoteNetwork,
			Specs:          []*models.ContractSpec{staticSpec("A")},
			NonInteractive: true,
			SkipVerify:     true,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, f.backend.connects)
		f.confirmer.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything)
	})
}

func TestDeployContracts_Verification(t *testing.T) {
	t.Run("verified after deploy", func(t *testing.T) {
		f := newDeployFixture(t)
		f.credentials.On("ResolvePrivateKey", mock.Anything, remoteNetwork).Return("0xkey", nil)
		f.verifier.On("Verify", mock.Anything, remoteNetwork, mock.MatchedBy(func(req *models.VerificationRequest) bool {
			return req.Contract == "contracts/dex-v2/dynamic/RouterDynamic.sol:RouterDynamic"
		})).Return(&models.VerificationResult{Status: models.VerificationStatusVerified, ID: "42"}, nil)

		spec := staticSpec("RouterDynamic")
		spec.Verify = &models.VerifySpec{Contract: "contracts/dex-v2/dynamic/RouterDynamic.sol:RouterDynamic"}

		result, err := f.uc.Run(context.Background(), usecase.DeployParams{
			Network:        remoteNetwork,
			Specs:          []*models.ContractSpec{spec},
			NonInteractive: true,
		})
		require.NoError(t, err)
		require.NotNil(t, result.Contracts[0].Verification)
		assert.Equal(t, models.VerificationStatusVerified, result.Contracts[0].Verification.Status)
		f.verifier.AssertExpectations(t)
	})

	t.Run("failure does not abort the run", func(t *testing.T) {
		f := newDeployFixture(t)
		f.credentials.On("ResolvePrivateKey", mock.Anything, remoteNetwork).Return("0xkey", nil)
		f.verifier.On("Verify", mock.Anything, remoteNetwork, mock.Anything).
			Return(nil, domain.ErrVerificationFailed)

		first := staticSpec("A")
		first.Verify = &models.VerifySpec{}

		result, err := f.uc.Run(context.Background(), usecase.DeployParams{
			Network:        remoteNetwork,
			Specs:          []*models.ContractSpec{first, staticSpec("B")},
			NonInteractive: true,
		})
		require.NoError(t, err)
		require.Len(t, result.Contracts, 2)
		assert.Equal(t, models.VerificationStatusFailed, result.Contracts[0].Verification.Status)
		assert.Equal(t, "contracts/A.sol:A", result.Contracts[0].Source)
		assert.Contains(t, f.progress.stages(), usecase.StageVerifyFailed)
	})

	t.Run("local networks are skipped", func(t *testing.T) {
		f := newDeployFixture(t)
		f.credentials.On("ResolvePrivateKey", mock.Anything, localNetwork).Return("0xkey", nil)

		spec := staticSpec("A")
		spec.Verify = &models.VerifySpec{}

		result, err := f.uc.Run(context.Background(), usecase.DeployParams{
			Network: localNetwork,
			Specs:   []*models.ContractSpec{spec},
		})
		require.NoError(t, err)
		assert.Equal(t, models.VerificationStatusSkipped, result.Contracts[0].Verification.Status)
		f.verifier.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDeployContracts_SavesRecord(t *testing.T) {
	f := newDeployFixture(t)
	f.credentials.On("ResolvePrivateKey", mock.Anything, localNetwork).Return("0xkey", nil)

	_, err := f.uc.Run(context.Background(), usecase.DeployParams{
		Network:  localNetwork,
		Specs:    []*models.ContractSpec{staticSpec("A"), staticSpec("B")},
		PlanName: "core",
	})
	require.NoError(t, err)

	require.Len(t, f.records.saved, 1)
	record := f.records.saved[0]
	assert.NotEmpty(t, record.RunID)
	assert.Equal(t, "zkSyncLocal", record.Network)
	assert.Equal(t, uint64(270), record.ChainID)
	assert.Equal(t, "core", record.Plan)
	assert.Equal(t, models.RunStatusCompleted, record.Status)
	assert.Len(t, record.Contracts, 2)
}

func TestDeployContracts_NoNetwork(t *testing.T) {
	f := newDeployFixture(t)

	_, err := f.uc.Run(context.Background(), usecase.DeployParams{Specs: []*models.ContractSpec{staticSpec("A")}})

	var cfgErr *domain.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "network", cfgErr.Setting)
	f.credentials.AssertNotCalled(t, "ResolvePrivateKey", mock.Anything, mock.Anything)
}
