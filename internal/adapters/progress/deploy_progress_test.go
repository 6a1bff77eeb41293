package progress

import (
	"bytes"
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/trebuchet-org/zkdeploy/internal/domain/models"
	"github.com/trebuchet-org/zkdeploy/internal/usecase"
)

func TestDeployProgress_NonInteractive(t *testing.T) {
	color.NoColor = true
	token := &models.DeployedContract{
		Name:         "NLPToken",
		ContractName: "NLPToken",
		Address:      common.HexToAddress("0x111C3E89Ce80e62EE88318C2804920D4c96f92bb"),
	}
	weth := &models.DeployedContract{
		Name:    "WETH",
		Address: common.HexToAddress("0x20b28B1e4665FFf290650586ad76E977EAb90c5D"),
		Known:   true,
	}

	tests := []struct {
		name  string
		event usecase.ProgressEvent
		want  string
	}{
		{
			name:  "deploy started",
			event: usecase.ProgressEvent{Stage: usecase.StageDeployStarted, Current: 1, Total: 3, Message: "NLPToken", Spinner: true},
			want:  "[1/3] NLPToken contract deployment started...\n",
		},
		{
			name: "deploy completed",
			event: usecase.ProgressEvent{
				Stage: usecase.StageDeployCompleted, Current: 1, Total: 3, Message: "NLPToken",
				Metadata: &usecase.DeployStepEvent{Name: "NLPToken", ContractName: "NLPToken", Contract: token},
			},
			want: "[1/3] NLPToken contract deployment finished.\nContract address: 0x111C3E89Ce80e62EE88318C2804920D4c96f92bb\n",
		},
		{
			name: "known contract",
			event: usecase.ProgressEvent{
				Stage: usecase.StageContractKnown, Current: 2, Total: 3, Message: "WETH",
				Metadata: &usecase.DeployStepEvent{Name: "WETH", Contract: weth},
			},
			want: "[2/3] WETH already deployed at 0x20b28B1e4665FFf290650586ad76E977EAb90c5D\n",
		},
		{
			name: "estimate completed",
			event: usecase.ProgressEvent{
				Stage: usecase.StageEstimateCompleted, Current: 1, Total: 1, Message: "FactoryDynamic",
				Metadata: &usecase.EstimateEvent{Name: "Factory", Estimate: &models.FeeEstimate{Name: "Factory", ContractName: "FactoryDynamic", Amount: big.NewInt(5000)}},
			},
			want: "[1/1] FactoryDynamic contract deployment fee: 5000\n",
		},
		{
			name:  "estimate total",
			event: usecase.ProgressEvent{Stage: usecase.StageEstimateTotal, Message: "36000"},
			want:  "Total Fee: 36000\n",
		},
		{
			name:  "verify failed",
			event: usecase.ProgressEvent{Stage: usecase.StageVerifyFailed, Message: "verification failed: bytecode mismatch"},
			want:  "⚠ Verification failed: verification failed: bytecode mismatch\n",
		},
		{
			name:  "step failed",
			event: usecase.ProgressEvent{Stage: usecase.StageStepFailed, Current: 2, Total: 3, Message: "MasterChefV2"},
			want:  "[2/3] ✗ MasterChefV2 failed\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			sink := NewDeployProgress(&out, false)
			sink.OnProgress(context.Background(), tt.event)
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestDeployProgress_StepFailedStopsSpinner(t *testing.T) {
	color.NoColor = true
	var out bytes.Buffer
	sink := NewDeployProgress(&out, true)

	sink.OnProgress(context.Background(), usecase.ProgressEvent{Stage: usecase.StageDeployStarted, Current: 1, Total: 2, Message: "NLPToken", Spinner: true})
	assert.NotNil(t, sink.spinner)

	sink.OnProgress(context.Background(), usecase.ProgressEvent{Stage: usecase.StageStepFailed, Current: 1, Total: 2, Message: "NLPToken"})
	assert.False(t, sink.spinner.Active())
	assert.Contains(t, out.String(), "[1/2] ✗ NLPToken failed\n")
}

func TestDeployProgress_InfoAndError(t *testing.T) {
	color.NoColor = true
	var out bytes.Buffer
	sink := NewDeployProgress(&out, false)

	sink.Info("Deploying plan core to zkSyncTestnet")
	sink.Error("step 2 (MasterChefV2) failed")

	assert.Equal(t, "Deploying plan core to zkSyncTestnet\nstep 2 (MasterChefV2) failed\n", out.String())
}
