package render

import (
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type Renderer[T any] interface {
	Render(result T) error
}

var (
	headerStyle    = color.New(color.Bold, color.FgHiWhite)
	addressStyle   = color.New(color.FgWhite)
	timestampStyle = color.New(color.Faint)
	pendingStyle   = color.New(color.FgYellow)
	successStyle   = color.New(color.FgGreen)
	failureStyle   = color.New(color.FgRed)
	libraryStyle   = color.New(color.FgMagenta, color.Bold)
	contractStyle  = color.New(color.FgGreen, color.Bold)
)

// newTable returns a borderless left-aligned table writer
func newTable(columns int) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.SeparateRows = false
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateHeader = false
	t.Style().Options.SeparateColumns = false
	t.Style().Box = table.BoxStyle{
		PaddingRight: "   ",
	}

	configs := make([]table.ColumnConfig, columns)
	for i := range configs {
		configs[i] = table.ColumnConfig{Number: i + 1, Align: text.AlignLeft}
	}
	t.SetColumnConfigs(configs)
	return t
}

// FormatError formats an error message with the error icon
func FormatError(message string) string {
	if len(message) > 0 {
		message = strings.ToUpper(message[:1]) + message[1:]
	}
	return failureStyle.Sprintf("❌ %s", message)
}

// FormatWarning formats a warning message with the warning icon
func FormatWarning(message string) string {
	return pendingStyle.Sprintf("⚠️  %s", message)
}

// FormatSuccess formats a success message with the success icon
func FormatSuccess(message string) string {
	return successStyle.Sprintf("✅ %s", message)
}
