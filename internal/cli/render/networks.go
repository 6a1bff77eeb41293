package render

import (
	"fmt"
	"io"

	"github.com/trebuchet-org/zkdeploy/internal/usecase"
)

// NetworksRenderer renders network lists
type NetworksRenderer struct {
	out io.Writer
}

// NewNetworksRenderer creates a new networks renderer
func NewNetworksRenderer(out io.Writer) *NetworksRenderer {
	return &NetworksRenderer{out: out}
}

// RenderNetworksList renders every profile with its chain ID or resolution error
func (r *NetworksRenderer) RenderNetworksList(result *usecase.ListNetworksResult) error {
	if len(result.Networks) == 0 {
		fmt.Fprintln(r.out, "No networks configured in zkdeploy.toml [networks]")
		return nil
	}

	fmt.Fprintln(r.out, "🌐 Available Networks:")
	fmt.Fprintln(r.out)

	for _, status := range result.Networks {
		marker := ""
		if status.Name == result.Default {
			marker = faintStyle.Sprint(" (default)")
		}

		if status.Error != nil {
			fmt.Fprintf(r.out, "  ❌ %s%s - Error: %v\n", status.Name, marker, status.Error)
			continue
		}

		var tags []string
		if status.Network.ZkSync {
			tags = append(tags, "zksync")
		}
		if status.Network.Local {
			tags = append(tags, "local")
		}
		suffix := ""
		if len(tags) > 0 {
			suffix = faintStyle.Sprintf(" %v", tags)
		}
		fmt.Fprintf(r.out, "  ✅ %s%s - Chain ID: %d%s\n", status.Name, marker, status.Network.ChainID, suffix)
	}

	return nil
}
