package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/trebuchet-org/zkdeploy/internal/domain/models"
)

// EstimateRenderer renders a fee report
type EstimateRenderer struct {
	out io.Writer
}

// NewEstimateRenderer creates a new estimate renderer
func NewEstimateRenderer(out io.Writer) *EstimateRenderer {
	return &EstimateRenderer{out: out}
}

// RenderFeeReport prints per-contract fees in wei and ETH plus the total
func (r *EstimateRenderer) RenderFeeReport(network string, report *models.FeeReport) error {
	if report == nil || (len(report.Estimates) == 0 && len(report.Skipped) == 0) {
		fmt.Fprintln(r.out, "Nothing to estimate")
		return nil
	}

	fmt.Fprintln(r.out)
	headerStyle.Fprintf(r.out, "Estimated deployment fees on %s\n", network)

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Contract", "Fee (wei)", "Fee (ETH)"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Number: 3, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})

	for _, e := range report.Estimates {
		name := e.Name
		if e.ContractName != "" && e.ContractName != e.Name {
			name = fmt.Sprintf("%s (%s)", e.Name, e.ContractName)
		}
		t.AppendRow(table.Row{name, e.Amount.String(), FormatEther(e.Amount)})
	}
	t.AppendFooter(table.Row{"Total", report.Total.String(), FormatEther(report.Total)})
	t.Render()

	if len(report.Skipped) > 0 {
		faintStyle.Fprintf(r.out, "Already deployed, not estimated: %v\n", report.Skipped)
	}
	return nil
}
