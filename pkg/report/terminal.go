package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/toyinlola/pkgrisk/pkg/interfaces"
)

// ANSI color codes for terminal output.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

const rule = "══════════════════════════════════════════"

// TerminalFormatter writes a color-coded report to a terminal.
type TerminalFormatter struct{}

// NewTerminalFormatter creates a terminal report formatter.
func NewTerminalFormatter() *TerminalFormatter {
	return &TerminalFormatter{}
}

// Format writes the report to the given writer using ANSI colors.
func (f *TerminalFormatter) Format(w io.Writer, report *interfaces.Report) error {
	writeBanner(w, "pkgrisk Dependency Risk Report")
	fmt.Fprintf(w, "  %s%s%s\n\n", colorBold, report.Summary, colorReset)

	for _, p := range report.Packages {
		f.writePackage(w, p)
	}

	if len(report.Failures) > 0 {
		fmt.Fprintf(w, "  %s%s── FAILED (%d) ──%s\n", colorBold, colorRed, len(report.Failures), colorReset)
		for _, fl := range report.Failures {
			fmt.Fprintf(w, "    %s%s%s %s\n", colorRed, fl.Name, colorReset, fl.Error)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "  %s%s──────────────────────────────────────────%s\n", colorDim, colorCyan, colorReset)
	fmt.Fprintf(w, "  %sReport: %s | Took: %s%s\n", colorDim, report.ID, report.Duration.Round(1e6), colorReset)
	fmt.Fprintf(w, "  %sGenerated: %s%s\n\n",
		colorDim, report.Timestamp.Format("2006-01-02 15:04:05"), colorReset)
	return nil
}

func (f *TerminalFormatter) writePackage(w io.Writer, p interfaces.PackageResult) {
	r := p.Risk
	color := levelColor(r.RiskLevel)
	label := strings.ToUpper(string(r.RiskLevel))

	name := p.Name
	if p.Version != "" {
		name += " " + p.Version
	}
	fmt.Fprintf(w, "  %s%s%-10s%s %s  overall %.1f/10  (confidence %d%%)\n",
		colorBold, color, label, colorReset, name, r.Overall, r.Confidence)
	fmt.Fprintf(w, "    %ssecurity %.1f  operational %.1f  compliance %.1f  supply chain %.1f  [%s]%s\n",
		colorDim, r.Security, r.Operational, r.Compliance, r.SupplyChain, r.WeightProfile, colorReset)
	if r.PrimaryConcern != interfaces.DimensionNone && r.PrimaryConcern != "" {
		fmt.Fprintf(w, "    primary concern: %s\n", dimensionTitle(r.PrimaryConcern))
	}
	for _, c := range flattenConcerns(r) {
		fmt.Fprintf(w, "      %s→ %s%s\n", colorCyan, c, colorReset)
	}
	if p.Recommendation != nil {
		writeTerminalAlternatives(w, p.Recommendation, "    ")
	}
	fmt.Fprintln(w)
}

// FormatRecommendation writes ranked alternatives grouped by bucket.
func (f *TerminalFormatter) FormatRecommendation(w io.Writer, rec *interfaces.Recommendation) error {
	writeBanner(w, "Alternatives to "+rec.Package)
	writeTerminalAlternatives(w, rec, "  ")
	fmt.Fprintln(w)
	return nil
}

func writeTerminalAlternatives(w io.Writer, rec *interfaces.Recommendation, indent string) {
	if len(rec.Alternatives) == 0 {
		fmt.Fprintf(w, "%s%sNo alternatives found.%s\n", indent, colorDim, colorReset)
		return
	}
	for _, b := range interfaces.Buckets {
		cands := rec.Buckets[b]
		if len(cands) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s%s── %s (%d) ──%s\n", indent, colorBold, strings.ToUpper(string(b)), len(cands), colorReset)
		for _, c := range cands {
			fmt.Fprintf(w, "%s  %s%-20s%s %5.1f  %s\n", indent, colorGreen, c.Name, colorReset, c.Score, c.Justification)
		}
	}
	if len(rec.Skipped) > 0 {
		fmt.Fprintf(w, "%s%sskipped: %s%s\n", indent, colorDim, strings.Join(rec.Skipped, ", "), colorReset)
	}
}

func writeBanner(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s%s%s%s\n", colorBold, colorCyan, rule, colorReset)
	fmt.Fprintf(w, "%s%s  %s%s\n", colorBold, colorCyan, title, colorReset)
	fmt.Fprintf(w, "%s%s%s%s\n\n", colorBold, colorCyan, rule, colorReset)
}

// levelColor returns the ANSI color for a risk level.
func levelColor(l interfaces.RiskLevel) string {
	switch l {
	case interfaces.RiskCritical, interfaces.RiskHigh:
		return colorRed
	case interfaces.RiskModerate:
		return colorYellow
	case interfaces.RiskLow, interfaces.RiskMinimal:
		return colorGreen
	default:
		return colorReset
	}
}
