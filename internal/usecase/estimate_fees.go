package usecase

import (
	"context"

	"github.com/trebuchet-org/zkdeploy/internal/domain"
	"github.com/trebuchet-org/zkdeploy/internal/domain/config"
	"github.com/trebuchet-org/zkdeploy/internal/domain/models"
)

// EstimateFees estimates the deployment gas of a list of contracts and sums it
type EstimateFees struct {
	credentials CredentialResolver
	backend     DeploymentBackend
	progress    ProgressSink
}

// NewEstimateFees creates a new estimate fees use case
func NewEstimateFees(credentials CredentialResolver, backend DeploymentBackend, progress ProgressSink) *EstimateFees {
	return &EstimateFees{
		credentials: credentials,
		backend:     backend,
		progress:    progress,
	}
}

// EstimateParams contains parameters for fee estimation
type EstimateParams struct {
	Network *config.Network
	Specs   []models.EstimateSpec
}

// EstimateEvent is the metadata of estimate progress events
type EstimateEvent struct {
	Name     string
	Estimate *models.FeeEstimate
	Report   *models.FeeReport
}

// Run estimates every spec in order. Nothing is broadcast.
func (uc *EstimateFees) Run(ctx context.Context, params EstimateParams) (*models.FeeReport, error) {
	if params.Network == nil {
		return nil, &domain.ConfigError{
			Setting: "network",
			Message: "no network selected: pass --network or set default_network in zkdeploy.toml",
		}
	}

	privateKey, err := uc.credentials.ResolvePrivateKey(ctx, params.Network)
	if err != nil {
		return nil, err
	}

	session, err := uc.backend.Connect(ctx, params.Network, privateKey)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	report := models.NewFeeReport()
	total := len(params.Specs)

	for i, spec := range params.Specs {
		step := i + 1

		if spec.Known {
			report.Skipped = append(report.Skipped, spec.Name)
			uc.progress.OnProgress(ctx, ProgressEvent{
				Stage:    StageEstimateSkipped,
				Current:  step,
				Total:    total,
				Message:  spec.Name,
				Metadata: &EstimateEvent{Name: spec.Name},
			})
			continue
		}

		estimate, err := uc.estimate(ctx, session, spec, step, total)
		if err != nil {
			uc.progress.OnProgress(ctx, ProgressEvent{
				Stage:    StageStepFailed,
				Current:  step,
				Total:    total,
				Message:  spec.Name,
				Metadata: &EstimateEvent{Name: spec.Name},
			})
			return nil, &domain.StepError{Index: step, Name: spec.Name, Err: err}
		}
		report.Add(estimate)

		uc.progress.OnProgress(ctx, ProgressEvent{
			Stage:    StageEstimateCompleted,
			Current:  step,
			Total:    total,
			Message:  estimate.ContractName,
			Metadata: &EstimateEvent{Name: spec.Name, Estimate: estimate},
		})
	}

	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:    StageEstimateTotal,
		Message:  report.Total.String(),
		Metadata: &EstimateEvent{Report: report},
	})

	return report, nil
}

func (uc *EstimateFees) estimate(ctx context.Context, session DeploymentSession, spec models.EstimateSpec, step, total int) (*models.FeeEstimate, error) {
	artifact, err := session.LoadArtifact(ctx, spec.ArtifactName())
	if err != nil {
		return nil, err
	}

	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:    StageEstimateStarted,
		Current:  step,
		Total:    total,
		Message:  artifact.ContractName,
		Spinner:  true,
		Metadata: &EstimateEvent{Name: spec.Name},
	})

	amount, err := session.EstimateDeployGas(ctx, artifact, spec.Args)
	if err != nil {
		return nil, err
	}

	return &models.FeeEstimate{
		Name:         spec.Name,
		ContractName: artifact.ContractName,
		Amount:       amount,
	}, nil
}
