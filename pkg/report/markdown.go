package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/toyinlola/pkgrisk/pkg/interfaces"
)

// MarkdownFormatter writes a report as Markdown suitable for PR comments.
type MarkdownFormatter struct{}

// NewMarkdownFormatter creates a Markdown report formatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format writes the report as Markdown to the given writer.
func (f *MarkdownFormatter) Format(w io.Writer, report *interfaces.Report) error {
	fmt.Fprintf(w, "# pkgrisk Report %s\n\n", levelBadge(worstLevel(report)))
	fmt.Fprintf(w, "%s\n\n", report.Summary)
	f.writeSummaryTable(w, report)
	f.writePackages(w, report)
	f.writeFailures(w, report)
	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "*Report ID: %s | Generated: %s*\n",
		report.ID, report.Timestamp.Format("2006-01-02 15:04:05"))
	return nil
}

func (f *MarkdownFormatter) writeSummaryTable(w io.Writer, report *interfaces.Report) {
	if len(report.Packages) == 0 {
		fmt.Fprintln(w, "> No packages assessed.")
		fmt.Fprintln(w)
		return
	}

	fmt.Fprintln(w, "| Package | Level | Overall | Security | Operational | Compliance | Supply chain | Primary concern | Confidence |")
	fmt.Fprintln(w, "|---------|-------|---------|----------|-------------|------------|--------------|-----------------|------------|")
	for _, p := range report.Packages {
		r := p.Risk
		fmt.Fprintf(w, "| **%s** %s | %s %s | %.1f | %.1f | %.1f | %.1f | %.1f | %s | %d%% |\n",
			p.Name, p.Version, levelBadge(r.RiskLevel), r.RiskLevel, r.Overall,
			r.Security, r.Operational, r.Compliance, r.SupplyChain, r.PrimaryConcern, r.Confidence)
	}
	fmt.Fprintln(w)
}

func (f *MarkdownFormatter) writePackages(w io.Writer, report *interfaces.Report) {
	for _, p := range report.Packages {
		concerns := flattenConcerns(p.Risk)
		if len(concerns) == 0 && p.Recommendation == nil {
			continue
		}

		fmt.Fprintf(w, "<details>\n")
		fmt.Fprintf(w, "<summary><strong>%s</strong> [%s] weights: <code>%s</code></summary>\n\n",
			p.Name, strings.ToUpper(string(p.Risk.RiskLevel)), p.Risk.WeightProfile)
		for _, c := range concerns {
			fmt.Fprintf(w, "- %s\n", c)
		}
		if len(concerns) > 0 {
			fmt.Fprintln(w)
		}
		if p.Recommendation != nil {
			writeMarkdownAlternatives(w, p.Recommendation)
		}
		fmt.Fprintln(w, "</details>")
		fmt.Fprintln(w)
	}
}

func (f *MarkdownFormatter) writeFailures(w io.Writer, report *interfaces.Report) {
	if len(report.Failures) == 0 {
		return
	}
	fmt.Fprintf(w, "## Failed (%d)\n\n", len(report.Failures))
	for _, fl := range report.Failures {
		fmt.Fprintf(w, "- **%s**: %s\n", fl.Name, fl.Error)
	}
	fmt.Fprintln(w)
}

// FormatRecommendation writes ranked alternatives as a Markdown table.
func (f *MarkdownFormatter) FormatRecommendation(w io.Writer, rec *interfaces.Recommendation) error {
	fmt.Fprintf(w, "# Alternatives to %s\n\n", rec.Package)
	writeMarkdownAlternatives(w, rec)
	return nil
}

func writeMarkdownAlternatives(w io.Writer, rec *interfaces.Recommendation) {
	if len(rec.Alternatives) == 0 {
		fmt.Fprintln(w, "> No alternatives found.")
		fmt.Fprintln(w)
		return
	}
	fmt.Fprintln(w, "| # | Alternative | Score | Bucket | Why |")
	fmt.Fprintln(w, "|---|-------------|-------|--------|-----|")
	for i, c := range rec.Alternatives {
		fmt.Fprintf(w, "| %d | **%s** | %.1f | %s | %s |\n", i+1, c.Name, c.Score, c.Bucket, c.Justification)
	}
	fmt.Fprintln(w)
	if len(rec.Skipped) > 0 {
		fmt.Fprintf(w, "*Skipped (metadata unavailable): %s*\n\n", strings.Join(rec.Skipped, ", "))
	}
}

// levelBadge returns a colored marker for a risk level.
func levelBadge(l interfaces.RiskLevel) string {
	switch l {
	case interfaces.RiskMinimal, interfaces.RiskLow:
		return "🟢"
	case interfaces.RiskModerate:
		return "🟡"
	case interfaces.RiskHigh:
		return "🟠"
	case interfaces.RiskCritical:
		return "🔴"
	default:
		return "⚪"
	}
}

// worstLevel returns the most severe level in the report, empty when none.
func worstLevel(report *interfaces.Report) interfaces.RiskLevel {
	for _, lvl := range levelsBySeverity {
		if report.Counts[lvl] > 0 {
			return lvl
		}
	}
	return ""
}

// flattenConcerns lists concerns prefixed by dimension in canonical order.
func flattenConcerns(r interfaces.RiskBreakdown) []string {
	var out []string
	for _, d := range interfaces.Dimensions {
		for _, c := range r.Concerns[d] {
			out = append(out, fmt.Sprintf("%s: %s", dimensionTitle(d), c))
		}
	}
	return out
}

// dimensionTitle returns a human-readable title for a dimension.
func dimensionTitle(d interfaces.Dimension) string {
	switch d {
	case interfaces.DimensionSecurity:
		return "Security"
	case interfaces.DimensionOperational:
		return "Operational"
	case interfaces.DimensionCompliance:
		return "Compliance"
	case interfaces.DimensionSupplyChain:
		return "Supply chain"
	default:
		return string(d)
	}
}
