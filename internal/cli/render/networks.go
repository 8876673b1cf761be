package render

import (
	"fmt"
	"io"
	"math/big"

	"github.com/trebuchet-org/treb-gateway/internal/usecase"
)

// NetworksRenderer renders network lists
type NetworksRenderer struct {
	out io.Writer
}

// NewNetworksRenderer creates a new networks renderer
func NewNetworksRenderer(out io.Writer) *NetworksRenderer {
	return &NetworksRenderer{out: out}
}

// Render lists every profile, marking the selected one
func (r *NetworksRenderer) Render(result *usecase.ListNetworksResult) error {
	if len(result.Networks) == 0 {
		fmt.Fprintln(r.out, "No networks configured")
		return nil
	}

	fmt.Fprintln(r.out, "🌐 Available Networks:")
	fmt.Fprintln(r.out)

	for _, network := range result.Networks {
		marker := " "
		if network.Name == result.Current {
			marker = "*"
		}
		if network.Error != nil {
			fmt.Fprintf(r.out, "%s ❌ %s - Error: %v\n", marker, network.Name, network.Error)
			continue
		}

		p := network.Profile
		fmt.Fprintf(r.out, "%s ✅ %s - Chain ID: %d - %s\n", marker, network.Name, p.ChainID, p.RPCURL)
		if p.GasPrice != nil {
			fmt.Fprintf(r.out, "      gas price: %s gwei\n", weiToGwei(p.GasPrice))
		}
		if p.Fork != nil {
			fmt.Fprintf(r.out, "      fork: %s @ %d\n", p.Fork.URL, p.Fork.BlockNumber)
		}
		if p.Verify {
			fmt.Fprintf(r.out, "      verification: %s\n", successStyle.Sprint("enabled"))
		}
	}

	return nil
}

func weiToGwei(wei *big.Int) string {
	return new(big.Rat).SetFrac(wei, big.NewInt(1_000_000_000)).FloatString(2)
}
