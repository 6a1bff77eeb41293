package usecase

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/trebuchet-org/zkdeploy/internal/domain"
	"github.com/trebuchet-org/zkdeploy/internal/domain/config"
	"github.com/trebuchet-org/zkdeploy/internal/domain/models"
)

// VerifyDeployment retries source verification for contracts of a recorded run
type VerifyDeployment struct {
	records   RecordStore
	verifier  ContractVerifier
	artifacts ArtifactLoader
	progress  ProgressSink
}

// NewVerifyDeployment creates a new verify deployment use case
func NewVerifyDeployment(
	records RecordStore,
	verifier ContractVerifier,
	artifacts ArtifactLoader,
	progress ProgressSink,
) *VerifyDeployment {
	return &VerifyDeployment{
		records:   records,
		verifier:  verifier,
		artifacts: artifacts,
		progress:  progress,
	}
}

// VerifyParams selects what to verify
type VerifyParams struct {
	Network *config.Network
	Names   []string // empty means every deployed contract of the record
	Force   bool     // re-verify contracts already marked verified
}

// VerifyResult is the outcome for one contract
type VerifyResult struct {
	Contract *models.DeployedContract
	Success  bool
	Error    string
}

// SkippedContract is a contract that was not submitted
type SkippedContract struct {
	Contract *models.DeployedContract
	Reason   string
}

// VerifyAllResult contains the outcome of a verify run
type VerifyAllResult struct {
	Results      []*VerifyResult
	Skipped      []*SkippedContract
	SuccessCount int
}

// Run verifies the selected contracts and writes the outcome back to the record
func (uc *VerifyDeployment) Run(ctx context.Context, params VerifyParams) (*VerifyAllResult, error) {
	network := params.Network
	if network == nil {
		return nil, &domain.ConfigError{
			Setting: "network",
			Message: "no network selected: pass --network or set default_network in zkdeploy.toml",
		}
	}
	if network.Local {
		return nil, fmt.Errorf("network %s is local: contracts on local networks are not verified", network.Name)
	}
	if network.VerifyURL == "" {
		return nil, &domain.ConfigError{
			Setting: "verify_url",
			Message: fmt.Sprintf("network %s has no verify_url configured in zkdeploy.toml", network.Name),
		}
	}

	record, err := uc.records.Load(ctx, network.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to load deployment record: %w", err)
	}

	contracts, err := selectContracts(record, params.Names)
	if err != nil {
		return nil, err
	}

	result := &VerifyAllResult{}
	for _, contract := range contracts {
		if reason, skip := skipReason(contract, params.Force); skip {
			result.Skipped = append(result.Skipped, &SkippedContract{Contract: contract, Reason: reason})
			continue
		}

		verifyResult := uc.verifyContract(ctx, network, contract)
		result.Results = append(result.Results, verifyResult)
		if verifyResult.Success {
			result.SuccessCount++
		}
	}

	if len(result.Results) > 0 {
		if err := uc.records.Save(ctx, record); err != nil {
			return result, fmt.Errorf("failed to update deployment record: %w", err)
		}
	}

	return result, nil
}

func selectContracts(record *models.DeploymentRecord, names []string) ([]*models.DeployedContract, error) {
	if len(names) == 0 {
		return record.Contracts, nil
	}

	selected := make([]*models.DeployedContract, 0, len(names))
	for _, name := range lo.Uniq(names) {
		contract, ok := record.Find(name)
		if !ok {
			return nil, fmt.Errorf("contract %s is not in the deployment record for %s: %w", name, record.Network, domain.ErrNotFound)
		}
		selected = append(selected, contract)
	}
	return selected, nil
}

func skipReason(contract *models.DeployedContract, force bool) (string, bool) {
	switch {
	case contract.Known:
		return "not deployed by this project", true
	case !force && contract.Verification != nil && contract.Verification.Status == models.VerificationStatusVerified:
		return "already verified", true
	}
	return "", false
}

func (uc *VerifyDeployment) verifyContract(ctx context.Context, network *config.Network, contract *models.DeployedContract) *VerifyResult {
	result := &VerifyResult{Contract: contract}

	fail := func(err error) *VerifyResult {
		contract.Verification = &models.VerificationResult{
			Status: models.VerificationStatusFailed,
			Reason: err.Error(),
		}
		result.Error = err.Error()
		uc.progress.OnProgress(ctx, ProgressEvent{
			Stage:    StageVerifyFailed,
			Message:  err.Error(),
			Metadata: &DeployStepEvent{Name: contract.Name, ContractName: contract.ContractName, Contract: contract},
		})
		return result
	}

	// The recorded source pins the artifact when several files share a contract name
	name := contract.ContractName
	if contract.Source != "" {
		name = contract.Source
	}
	artifact, err := uc.artifacts.LoadArtifact(ctx, name)
	if err != nil {
		return fail(err)
	}
	if contract.Source == "" {
		contract.Source = artifact.FullyQualifiedName()
	}

	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:    StageVerifyStarted,
		Message:  contract.Source,
		Spinner:  true,
		Metadata: &DeployStepEvent{Name: contract.Name, ContractName: contract.ContractName, Contract: contract},
	})

	res, err := uc.verifier.Verify(ctx, network, &models.VerificationRequest{
		Address:         contract.Address,
		Contract:        contract.Source,
		ConstructorArgs: contract.ConstructorArgs,
		Artifact:        artifact,
	})
	if err != nil {
		return fail(err)
	}

	contract.Verification = res
	result.Success = res.Status == models.VerificationStatusVerified
	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:    StageVerifyCompleted,
		Message:  contract.Source,
		Metadata: &DeployStepEvent{Name: contract.Name, ContractName: contract.ContractName, Contract: contract},
	})
	return result
}
