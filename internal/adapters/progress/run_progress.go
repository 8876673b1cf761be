package progress

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/trebuchet-org/treb-gateway/internal/usecase"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
	cyan   = color.New(color.FgCyan)
	faint  = color.New(color.Faint)
)

// RunProgress reports deploy and verify events. Interactive output shows a
// spinner while a transaction or verification is pending; otherwise one line
// is printed per event.
type RunProgress struct {
	out         io.Writer
	interactive bool
	spinner     *spinner.Spinner
	startTime   time.Time
}

// NewRunProgress creates a new progress reporter writing to out
func NewRunProgress(out io.Writer, interactive bool) *RunProgress {
	return &RunProgress{
		out:         out,
		interactive: interactive,
		startTime:   time.Now(),
	}
}

// OnProgress handles progress events
func (p *RunProgress) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	if event.Spinner {
		if p.interactive {
			p.startSpinner(p.counter(event) + event.Message)
			return
		}
		fmt.Fprintf(p.out, "%s%s...\n", p.counter(event), event.Message)
		return
	}
	p.stopSpinner()

	switch event.Stage {
	case usecase.StageDeployPlan:
		cyan.Fprintf(p.out, "%s (%d contracts)\n", event.Message, event.Total)
	case usecase.StageDeployDone, usecase.StageVerifyDone:
		fmt.Fprintf(p.out, "%s%s %s\n", p.counter(event), green.Sprint("✓"), event.Message)
	case usecase.StageDeployReused:
		fmt.Fprintf(p.out, "%s%s %s\n", p.counter(event), faint.Sprint("↺"), event.Message)
	case usecase.StageDeployPlanned:
		fmt.Fprintf(p.out, "%s%s %s\n", p.counter(event), yellow.Sprint("○"), event.Message)
	case usecase.StageVerifyFailed:
		fmt.Fprintf(p.out, "%s%s %s\n", p.counter(event), red.Sprint("✗"), event.Message)
	case usecase.StageVerifySkipped:
		faint.Fprintf(p.out, "Skipping verification: %s\n", event.Message)
	case "complete":
		faint.Fprintf(p.out, "Done in %s\n", time.Since(p.startTime).Round(time.Millisecond))
	}
}

// Info prints an info message
func (p *RunProgress) Info(message string) {
	wasActive := p.stopSpinner()
	cyan.Fprintln(p.out, message)
	if wasActive {
		p.spinner.Start()
	}
}

// Error prints an error message
func (p *RunProgress) Error(message string) {
	wasActive := p.stopSpinner()
	red.Fprintln(p.out, message)
	if wasActive {
		p.spinner.Start()
	}
}

func (p *RunProgress) counter(event usecase.ProgressEvent) string {
	if event.Total == 0 {
		return ""
	}
	return fmt.Sprintf("[%d/%d] ", event.Current, event.Total)
}

func (p *RunProgress) startSpinner(message string) {
	if p.spinner == nil {
		p.spinner = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		p.spinner.Writer = p.out
		_ = p.spinner.Color("cyan", "bold")
	}
	p.spinner.Suffix = " " + message
	if !p.spinner.Active() {
		p.spinner.Start()
	}
}

func (p *RunProgress) stopSpinner() bool {
	if p.spinner == nil || !p.spinner.Active() {
		return false
	}
	p.spinner.Stop()
	return true
}

var _ usecase.ProgressSink = (*RunProgress)(nil)
