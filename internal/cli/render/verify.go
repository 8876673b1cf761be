package render

import (
	"fmt"
	"io"

	"github.com/trebuchet-org/treb-gateway/internal/usecase"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// VerifyRenderer renders the outcome of a verification pass
type VerifyRenderer struct {
	out io.Writer
}

// NewVerifyRenderer creates a new verify renderer
func NewVerifyRenderer(out io.Writer) *VerifyRenderer {
	return &VerifyRenderer{out: out}
}

// Render prints verified and failed contracts. Failures are warnings only.
func (r *VerifyRenderer) Render(result *usecase.VerifyResult) error {
	if result == nil {
		return nil
	}
	if result.Skipped {
		fmt.Fprintln(r.out, timestampStyle.Sprintf("Verification skipped: %s", result.Reason))
		return nil
	}
	if result.Submitted() == 0 {
		fmt.Fprintln(r.out, "Nothing to verify")
		return nil
	}

	title := cases.Title(language.English)

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, headerStyle.Sprint("Verification"))
	for _, record := range result.Verified {
		fmt.Fprintf(r.out, "  %s %s: %s\n", successStyle.Sprint("✓"), record.Name, title.String("verified"))
	}
	if result.Errors != nil {
		for _, err := range result.Errors.Errors {
			fmt.Fprintf(r.out, "  %s %s\n", failureStyle.Sprint("✗"), err)
		}
	}

	if len(result.Failed) > 0 {
		fmt.Fprintln(r.out, FormatWarning(fmt.Sprintf("%d of %d verifications failed; deployments are unaffected",
			len(result.Failed), result.Submitted())))
	}
	return nil
}
