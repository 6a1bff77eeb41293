package progress

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/trebuchet-org/zkdeploy/internal/usecase"
)

// DeployProgress prints per-contract progress for deploy, estimate and verify runs
type DeployProgress struct {
	out         io.Writer
	interactive bool
	spinner     *spinner.Spinner
}

// NewDeployProgress creates a console progress sink
func NewDeployProgress(out io.Writer, interactive bool) *DeployProgress {
	return &DeployProgress{
		out:         out,
		interactive: interactive,
	}
}

// OnProgress handles progress events
func (p *DeployProgress) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	if event.Spinner && p.interactive {
		p.startSpinner(event)
	} else {
		p.stopSpinner()
	}

	step := ""
	if event.Total > 0 {
		step = fmt.Sprintf("[%d/%d] ", event.Current, event.Total)
	}
	faint := color.New(color.Faint)

	switch event.Stage {
	case usecase.StageDeployStarted:
		if !p.interactive {
			fmt.Fprintf(p.out, "%s%s contract deployment started...\n", step, event.Message)
		}

	case usecase.StageDeployCompleted:
		fmt.Fprintf(p.out, "%s%s contract deployment finished.\n", step, event.Message)
		if meta, ok := event.Metadata.(*usecase.DeployStepEvent); ok && meta.Contract != nil {
			fmt.Fprintf(p.out, "Contract address: %s\n", color.GreenString(meta.Contract.Address.Hex()))
			if meta.Contract.TxHash != nil {
				faint.Fprintf(p.out, "Transaction: %s\n", meta.Contract.TxHash.Hex())
			}
		}

	case usecase.StageContractKnown:
		if meta, ok := event.Metadata.(*usecase.DeployStepEvent); ok && meta.Contract != nil {
			fmt.Fprintf(p.out, "%s%s already deployed at %s\n", step, event.Message, color.CyanString(meta.Contract.Address.Hex()))
		}

	case usecase.StageVerifyStarted:
		if !p.interactive {
			fmt.Fprintf(p.out, "Verifying %s...\n", event.Message)
		}

	case usecase.StageVerifyCompleted:
		color.New(color.FgGreen).Fprintf(p.out, "✓ Verified %s\n", event.Message)

	case usecase.StageVerifyFailed:
		color.New(color.FgYellow).Fprintf(p.out, "⚠ Verification failed: %s\n", event.Message)

	case usecase.StageEstimateStarted:
		if !p.interactive {
			fmt.Fprintf(p.out, "%sEstimating %s...\n", step, event.Message)
		}

	case usecase.StageEstimateCompleted:
		if meta, ok := event.Metadata.(*usecase.EstimateEvent); ok && meta.Estimate != nil {
			fmt.Fprintf(p.out, "%s%s contract deployment fee: %s\n", step, event.Message, meta.Estimate.Amount.String())
		}

	case usecase.StageEstimateSkipped:
		faint.Fprintf(p.out, "%s%s is already deployed, not estimated\n", step, event.Message)

	case usecase.StageStepFailed:
		color.New(color.FgRed).Fprintf(p.out, "%s✗ %s failed\n", step, event.Message)

	case usecase.StageEstimateTotal:
		color.New(color.Bold).Fprintf(p.out, "Total Fee: %s\n", event.Message)
	}
}

// Info prints an info message
func (p *DeployProgress) Info(message string) {
	wasActive := p.pauseSpinner()
	color.New(color.FgCyan).Fprintln(p.out, message)
	if wasActive {
		p.spinner.Start()
	}
}

// Error prints an error message
func (p *DeployProgress) Error(message string) {
	wasActive := p.pauseSpinner()
	color.New(color.FgRed).Fprintln(p.out, message)
	if wasActive {
		p.spinner.Start()
	}
}

func (p *DeployProgress) startSpinner(event usecase.ProgressEvent) {
	if p.spinner == nil {
		p.spinner = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		p.spinner.Writer = p.out
		_ = p.spinner.Color("cyan", "bold")
	}

	switch event.Stage {
	case usecase.StageDeployStarted:
		p.spinner.Suffix = fmt.Sprintf(" %s contract deployment started...", event.Message)
	case usecase.StageVerifyStarted:
		p.spinner.Suffix = fmt.Sprintf(" Verifying %s...", event.Message)
	case usecase.StageEstimateStarted:
		p.spinner.Suffix = fmt.Sprintf(" Estimating %s...", event.Message)
	default:
		p.spinner.Suffix = " " + event.Message
	}

	if !p.spinner.Active() {
		p.spinner.Start()
	}
}

func (p *DeployProgress) stopSpinner() {
	if p.spinner != nil && p.spinner.Active() {
		p.spinner.Stop()
	}
}

func (p *DeployProgress) pauseSpinner() bool {
	if p.spinner != nil && p.spinner.Active() {
		p.spinner.Stop()
		return true
	}
	return false
}

// Ensure DeployProgress implements ProgressSink
var _ usecase.ProgressSink = (*DeployProgress)(nil)
