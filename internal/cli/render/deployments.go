package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/trebuchet-org/treb-gateway/internal/domain/models"
	"github.com/trebuchet-org/treb-gateway/internal/usecase"
)

// DeploymentsRenderer renders the stored records of a network
type DeploymentsRenderer struct {
	out io.Writer
}

// NewDeploymentsRenderer creates a new deployments renderer
func NewDeploymentsRenderer(out io.Writer) *DeploymentsRenderer {
	return &DeploymentsRenderer{out: out}
}

// Render prints the records table
func (r *DeploymentsRenderer) Render(result *usecase.ListDeploymentsResult) error {
	if len(result.Deployments) == 0 {
		fmt.Fprintf(r.out, "No deployments found on %s\n", result.Network.Name)
		return nil
	}

	fmt.Fprintln(r.out, headerStyle.Sprintf("%s (chain %d)", result.Network.Name, result.Network.ChainID))

	t := newTable(4)
	for _, record := range result.Deployments {
		libs := ""
		if len(record.Libraries) > 0 {
			libs = "links " + formatLinks(record.Libraries)
		}
		t.AppendRow(table.Row{
			kindName(record.Name, record.Kind),
			addressStyle.Sprint(record.Address),
			libs,
			timestampStyle.Sprint(formatTime(record.DeployedAt)),
		})
	}
	fmt.Fprintln(r.out, t.Render())
	fmt.Fprintln(r.out)

	fmt.Fprintf(r.out, "Total: %d (%d libraries, %d contracts)\n",
		result.Summary.Total,
		result.Summary.ByKind[models.KindLibrary],
		result.Summary.ByKind[models.KindContract])
	return nil
}

func formatLinks(links []models.LibraryLink) string {
	return strings.Join(lo.Map(links, func(l models.LibraryLink, _ int) string {
		return fmt.Sprintf("%s@%s", l.Name, shortAddress(l.Address))
	}), ", ")
}

func joinNames(names []string) string {
	return strings.Join(names, ", ")
}

func shortAddress(address string) string {
	if len(address) <= 12 {
		return address
	}
	return address[:6] + "…" + address[len(address)-4:]
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
