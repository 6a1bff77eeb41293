package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/trebuchet-org/zkdeploy/internal/domain"
	"github.com/trebuchet-org/zkdeploy/internal/domain/config"
	"github.com/trebuchet-org/zkdeploy/internal/domain/models"
)

// DeployContracts deploys an ordered list of contracts, feeding each
// resulting address to the steps after it.
type DeployContracts struct {
	credentials CredentialResolver
	backend     DeploymentBackend
	verifier    ContractVerifier
	records     RecordStore
	confirmer   Confirmer
	progress    ProgressSink
	log         *slog.Logger
}

// NewDeployContracts creates a new deploy contracts use case
func NewDeployContracts(
	credentials CredentialResolver,
	backend DeploymentBackend,
	verifier ContractVerifier,
	records RecordStore,
	confirmer Confirmer,
	progress ProgressSink,
	log *slog.Logger,
) *DeployContracts {
	return &DeployContracts{
		credentials: credentials,
		backend:     backend,
		verifier:    verifier,
		records:     records,
		confirmer:   confirmer,
		progress:    progress,
		log:         log,
	}
}

// DeployParams contains parameters for a deployment run
type DeployParams struct {
	Network        *config.Network
	Specs          []*models.ContractSpec
	PlanName       string
	SkipVerify     bool
	NonInteractive bool
}

// DeployResult contains the contracts deployed (or referenced) so far.
// On failure it holds every step that completed before the failing one.
type DeployResult struct {
	Network   *config.Network
	Contracts []*models.DeployedContract
	Addresses models.Addresses
}

func (r *DeployResult) add(c *models.DeployedContract) {
	r.Contracts = append(r.Contracts, c)
	r.Addresses[c.Name] = c.Address
}

// DeployStepEvent is the metadata of deploy progress events
type DeployStepEvent struct {
	Name         string
	ContractName string
	Contract     *models.DeployedContract
}

// Run executes the deployment sequence
func (uc *DeployContracts) Run(ctx context.Context, params DeployParams) (*DeployResult, error) {
	if params.Network == nil {
		return nil, &domain.ConfigError{
			Setting: "network",
			Message: "no network selected: pass --network or set default_network in zkdeploy.toml",
		}
	}

	// Fail before touching the chain when the key is missing
	privateKey, err := uc.credentials.ResolvePrivateKey(ctx, params.Network)
	if err != nil {
		return nil, err
	}

	toDeploy := lo.CountBy(params.Specs, func(s *models.ContractSpec) bool { return !s.IsKnown() })
	if toDeploy > 0 && !params.Network.Local && !params.NonInteractive && uc.confirmer != nil {
		ok, err := uc.confirmer.Confirm(ctx, fmt.Sprintf("Deploy %d contract(s) to %s", toDeploy, params.Network.Name))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.ErrAborted
		}
	}

	session, err := uc.backend.Connect(ctx, params.Network, privateKey)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	record := &models.DeploymentRecord{
		RunID:     uuid.NewString(),
		Network:   params.Network.Name,
		ChainID:   params.Network.ChainID,
		Plan:      params.PlanName,
		StartedAt: time.Now(),
	}

	result := &DeployResult{
		Network:   params.Network,
		Addresses: make(models.Addresses),
	}

	runErr := uc.runSequence(ctx, session, params, result)

	record.Contracts = result.Contracts
	record.CompletedAt = time.Now()
	record.Status = models.RunStatusCompleted
	if runErr != nil {
		record.Status = models.RunStatusFailed
		record.Error = runErr.Error()
	}
	if uc.records != nil {
		if err := uc.records.Save(ctx, record); err != nil {
			uc.log.Warn("failed to save deployment record", slog.String("error", err.Error()))
		}
	}

	return result, runErr
}

// runSequence executes the specs strictly in order and stops at the first failure
func (uc *DeployContracts) runSequence(ctx context.Context, session DeploymentSession, params DeployParams, result *DeployResult) error {
	total := len(params.Specs)

	for i, spec := range params.Specs {
		step := i + 1

		if spec.IsKnown() {
			contract := &models.DeployedContract{
				Name:         spec.Name,
				ContractName: spec.ArtifactName(),
				Address:      *spec.Address,
				Known:        true,
			}
			result.add(contract)
			uc.progress.OnProgress(ctx, ProgressEvent{
				Stage:    StageContractKnown,
				Current:  step,
				Total:    total,
				Message:  spec.Name,
				Metadata: &DeployStepEvent{Name: spec.Name, ContractName: contract.ContractName, Contract: contract},
			})
			continue
		}

		// Builders only ever see the addresses of earlier steps
		contract, err := uc.deployStep(ctx, session, spec, result.Addresses.Clone(), step, total)
		if err != nil {
			uc.progress.OnProgress(ctx, ProgressEvent{
				Stage:    StageStepFailed,
				Current:  step,
				Total:    total,
				Message:  spec.Name,
				Metadata: &DeployStepEvent{Name: spec.Name, ContractName: spec.ArtifactName()},
			})
			return &domain.StepError{Index: step, Name: spec.Name, Err: err}
		}
		result.add(contract)

		if spec.Verify != nil {
			uc.verify(ctx, params, spec, contract)
		}
	}

	return nil
}

// deployStep resolves arguments, loads the artifact and deploys one contract
func (uc *DeployContracts) deployStep(
	ctx context.Context,
	session DeploymentSession,
	spec *models.ContractSpec,
	deployed models.Addresses,
	step, total int,
) (*models.DeployedContract, error) {
	var args []any
	if spec.Args != nil {
		var err error
		if args, err = spec.Args(deployed); err != nil {
			return nil, fmt.Errorf("failed to build constructor arguments: %w", err)
		}
	}

	artifact, err := session.LoadArtifact(ctx, spec.ArtifactName())
	if err != nil {
		return nil, err
	}

	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:    StageDeployStarted,
		Current:  step,
		Total:    total,
		Message:  artifact.ContractName,
		Spinner:  true,
		Metadata: &DeployStepEvent{Name: spec.Name, ContractName: artifact.ContractName},
	})

	receipt, err := session.Deploy(ctx, artifact, args)
	if err != nil {
		return nil, err
	}

	txHash := receipt.TxHash
	contract := &models.DeployedContract{
		Name:            spec.Name,
		ContractName:    artifact.ContractName,
		Address:         receipt.Address,
		TxHash:          &txHash,
		ConstructorArgs: receipt.ConstructorArgs,
		Artifact:        artifact,
	}

	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:    StageDeployCompleted,
		Current:  step,
		Total:    total,
		Message:  artifact.ContractName,
		Metadata: &DeployStepEvent{Name: spec.Name, ContractName: artifact.ContractName, Contract: contract},
	})

	return contract, nil
}

// verify submits a deployed contract for verification. Failures are
// recorded on the contract and never abort the sequence.
func (uc *DeployContracts) verify(ctx context.Context, params DeployParams, spec *models.ContractSpec, contract *models.DeployedContract) {
	contract.Source = spec.Verify.Contract
	if contract.Source == "" && contract.Artifact != nil {
		contract.Source = contract.Artifact.FullyQualifiedName()
	}

	switch {
	case params.SkipVerify:
		contract.Verification = skipped("verification disabled")
		return
	case params.Network.Local:
		contract.Verification = skipped("local network")
		return
	case params.Network.VerifyURL == "" || uc.verifier == nil:
		contract.Verification = skipped("no verify_url configured for " + params.Network.Name)
		return
	}

	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:    StageVerifyStarted,
		Message:  contract.Source,
		Spinner:  true,
		Metadata: &DeployStepEvent{Name: contract.Name, ContractName: contract.ContractName, Contract: contract},
	})

	res, err := uc.verifier.Verify(ctx, params.Network, &models.VerificationRequest{
		Address:         contract.Address,
		Contract:        contract.Source,
		ConstructorArgs: contract.ConstructorArgs,
		Artifact:        contract.Artifact,
	})
	if err != nil {
		contract.Verification = &models.VerificationResult{
			Status: models.VerificationStatusFailed,
			Reason: err.Error(),
		}
		uc.log.Warn("verification failed",
			slog.String("contract", contract.Name),
			slog.String("address", contract.Address.Hex()),
			slog.String("error", err.Error()),
		)
		uc.progress.OnProgress(ctx, ProgressEvent{
			Stage:    StageVerifyFailed,
			Message:  err.Error(),
			Metadata: &DeployStepEvent{Name: contract.Name, ContractName: contract.ContractName, Contract: contract},
		})
		return
	}

	contract.Verification = res
	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:    StageVerifyCompleted,
		Message:  contract.Source,
		Metadata: &DeployStepEvent{Name: contract.Name, ContractName: contract.ContractName, Contract: contract},
	})
}

func skipped(reason string) *models.VerificationResult {
	return &models.VerificationResult{
		Status: models.VerificationStatusSkipped,
		Reason: reason,
	}
}

// IsStepFailure reports whether err came from a failed sequence step
func IsStepFailure(err error) bool {
	var stepErr *domain.StepError
	return errors.As(err, &stepErr)
}
