package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/trebuchet-org/zkdeploy/internal/domain/models"
	"github.com/trebuchet-org/zkdeploy/internal/usecase"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// VerifyRenderer handles rendering of verification results
type VerifyRenderer struct {
	out io.Writer
}

// NewVerifyRenderer creates a new verify renderer
func NewVerifyRenderer(out io.Writer) *VerifyRenderer {
	return &VerifyRenderer{out: out}
}

// RenderVerifyAllResult renders the outcome of a verify run
func (r *VerifyRenderer) RenderVerifyAllResult(result *usecase.VerifyAllResult, force bool) error {
	if len(result.Skipped) > 0 {
		color.New(color.FgCyan, color.Bold).Fprintf(r.out, "Skipping %d contracts:\n", len(result.Skipped))
		for _, skipped := range result.Skipped {
			fmt.Fprintf(r.out, "  ⏭️  %s (%s)\n", skipped.Contract.Name, skipped.Reason)
		}
		fmt.Fprintln(r.out)
	}

	if len(result.Results) == 0 {
		if force {
			warningStyle.Fprintln(r.out, "No deployed contracts found to verify.")
		} else {
			warningStyle.Fprintln(r.out, "No unverified contracts found. Use --force to re-verify all contracts.")
		}
		return nil
	}

	for _, res := range result.Results {
		fmt.Fprintf(r.out, "  %s %s %s\n",
			statusIcon(res.Contract.Verification),
			res.Contract.Name,
			faintStyle.Sprint(res.Contract.Address.Hex()),
		)
		if res.Success {
			if res.Contract.Verification != nil && res.Contract.Verification.URL != "" {
				successStyle.Fprintf(r.out, "    ✓ %s\n", res.Contract.Verification.URL)
			}
		} else {
			errorStyle.Fprintf(r.out, "    ✗ %s\n", res.Error)
		}
	}

	fmt.Fprintf(r.out, "\nVerification complete: %d/%d successful\n", result.SuccessCount, len(result.Results))
	return nil
}

func statusIcon(v *models.VerificationResult) string {
	if v == nil {
		return "⏳"
	}
	switch v.Status {
	case models.VerificationStatusVerified:
		return "✅"
	case models.VerificationStatusFailed:
		return "❌"
	default:
		return "⏭️"
	}
}

// verificationLabel renders the verification column of the deploy table
func verificationLabel(v *models.VerificationResult) string {
	if v == nil {
		return ""
	}
	label := cases.Title(language.English).String(string(v.Status))
	switch v.Status {
	case models.VerificationStatusVerified:
		return successStyle.Sprint(label)
	case models.VerificationStatusFailed:
		return errorStyle.Sprint(label)
	default:
		if v.Reason != "" {
			return faintStyle.Sprintf("%s (%s)", label, v.Reason)
		}
		return faintStyle.Sprint(label)
	}
}
