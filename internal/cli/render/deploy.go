package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trebuchet-org/zkdeploy/internal/domain/models"
	"github.com/trebuchet-org/zkdeploy/internal/usecase"
)

// DeployRenderer renders the summary of a deploy run
type DeployRenderer struct {
	out io.Writer
}

// NewDeployRenderer creates a new deploy renderer
func NewDeployRenderer(out io.Writer) *DeployRenderer {
	return &DeployRenderer{out: out}
}

// RenderDeployResult prints one row per contract. A partial result from a
// failed run is rendered the same way so the operator sees what landed.
func (r *DeployRenderer) RenderDeployResult(result *usecase.DeployResult) error {
	if result == nil || len(result.Contracts) == 0 {
		fmt.Fprintln(r.out, "No contracts deployed")
		return nil
	}

	fmt.Fprintln(r.out)
	headerStyle.Fprintf(r.out, "Deployments on %s (chain %d)\n", result.Network.Name, result.Network.ChainID)

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Contract", "Address", "Transaction", "Verification"})

	for _, c := range result.Contracts {
		t.AppendRow(table.Row{
			contractLabel(c),
			addressLabel(c),
			txLabel(c),
			verificationLabel(c.Verification),
		})
	}

	t.Render()
	return nil
}

func contractLabel(c *models.DeployedContract) string {
	if c.ContractName != "" && c.ContractName != c.Name {
		return fmt.Sprintf("%s (%s)", c.Name, c.ContractName)
	}
	return c.Name
}

func addressLabel(c *models.DeployedContract) string {
	if c.Known {
		return knownStyle.Sprint(c.Address.Hex())
	}
	return addressStyle.Sprint(c.Address.Hex())
}

func txLabel(c *models.DeployedContract) string {
	if c.Known {
		return faintStyle.Sprint("already deployed")
	}
	if c.TxHash == nil {
		return ""
	}
	return faintStyle.Sprint(c.TxHash.Hex())
}
