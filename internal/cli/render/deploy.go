package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trebuchet-org/treb-gateway/internal/domain/models"
	"github.com/trebuchet-org/treb-gateway/internal/usecase"
)

// PendingAddress is shown for contracts a dry run would deploy
const PendingAddress = "(pending)"

// DeployRenderer renders the outcome of a deployment run
type DeployRenderer struct {
	out io.Writer
}

// NewDeployRenderer creates a new deploy renderer
func NewDeployRenderer(out io.Writer) *DeployRenderer {
	return &DeployRenderer{out: out}
}

// Render prints one row per contract in plan order followed by a summary line
func (r *DeployRenderer) Render(result *usecase.DeployResult) error {
	if result == nil || len(result.Steps) == 0 {
		return nil
	}

	title := fmt.Sprintf("Deployments on %s (chain %d)", result.Network.Name, result.Network.ChainID)
	if result.DryRun {
		title += " [dry run]"
	}
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, headerStyle.Sprint(title))

	t := newTable(4)
	for _, step := range result.Steps {
		t.AppendRow(table.Row{
			kindName(step.Spec.Name, step.Spec.Kind),
			statusLabel(step.Status),
			stepAddress(step),
			stepLibraries(step),
		})
	}
	fmt.Fprintln(r.out, t.Render())
	fmt.Fprintln(r.out)

	deployed := result.Count(models.StatusDeployed)
	reused := result.Count(models.StatusReused)
	if result.DryRun {
		fmt.Fprintf(r.out, "%d to deploy, %d already deployed\n", result.Count(models.StatusPlanned), reused)
		return nil
	}
	fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("%d deployed, %d reused", deployed, reused)))
	return nil
}

func stepAddress(step *usecase.DeployStep) string {
	if step.Status == models.StatusPlanned {
		return pendingStyle.Sprint(PendingAddress)
	}
	return addressStyle.Sprint(step.Record.Address)
}

func stepLibraries(step *usecase.DeployStep) string {
	if len(step.Spec.Libraries) == 0 {
		return ""
	}
	if step.Status == models.StatusPlanned || step.Record == nil {
		return "links " + joinNames(step.Spec.Libraries)
	}
	return "links " + formatLinks(step.Record.Libraries)
}

func statusLabel(status models.RunStatus) string {
	switch status {
	case models.StatusDeployed:
		return successStyle.Sprint("deployed")
	case models.StatusReused:
		return timestampStyle.Sprint("reused")
	case models.StatusPlanned:
		return pendingStyle.Sprint("would deploy")
	default:
		return string(status)
	}
}

func kindName(name string, kind models.ContractKind) string {
	if kind == models.KindLibrary {
		return libraryStyle.Sprint(name)
	}
	return contractStyle.Sprint(name)
}
