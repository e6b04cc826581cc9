// Package report generates risk reports from batch results.
package report

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/toyinlola/pkgrisk/pkg/interfaces"
)

// levelsBySeverity lists risk levels worst first.
var levelsBySeverity = []interfaces.RiskLevel{
	interfaces.RiskCritical,
	interfaces.RiskHigh,
	interfaces.RiskModerate,
	interfaces.RiskLow,
	interfaces.RiskMinimal,
}

// Generator builds reports from batch results.
type Generator struct {
	now func() time.Time
}

// NewGenerator creates a report generator.
func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

// Generate produces a Report. Packages are ordered by overall score, highest
// first, then by name.
func (g *Generator) Generate(batch *interfaces.BatchResult) *interfaces.Report {
	if batch == nil {
		batch = &interfaces.BatchResult{}
	}

	packages := slices.Clone(batch.Results)
	sortByRisk(packages)

	counts := make(map[interfaces.RiskLevel]int, len(levelsBySeverity))
	for _, p := range packages {
		counts[p.Risk.RiskLevel]++
	}

	return &interfaces.Report{
		ID:        uuid.NewString(),
		Timestamp: g.now(),
		Packages:  packages,
		Failures:  batch.Failures,
		Summary:   buildSummary(len(packages), counts, len(batch.Failures)),
		Counts:    counts,
		Duration:  batch.Duration,
	}
}

// sortByRisk sorts results with the riskiest package first.
func sortByRisk(results []interfaces.PackageResult) {
	slices.SortStableFunc(results, func(a, b interfaces.PackageResult) int {
		if c := cmp.Compare(b.Risk.Overall, a.Risk.Overall); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
}

// buildSummary creates a one-line summary such as
// "3 packages assessed: 1 critical, 2 minimal; 1 failed".
func buildSummary(total int, counts map[interfaces.RiskLevel]int, failed int) string {
	noun := "packages"
	if total == 1 {
		noun = "package"
	}
	s := fmt.Sprintf("%d %s assessed", total, noun)
	if parts := formatLevelCounts(counts); parts != "" {
		s += ": " + parts
	}
	if failed > 0 {
		s += fmt.Sprintf("; %d failed", failed)
	}
	return s
}

// formatLevelCounts produces "1 critical, 2 low" in severity order.
func formatLevelCounts(counts map[interfaces.RiskLevel]int) string {
	var parts []string
	for _, lvl := range levelsBySeverity {
		if c := counts[lvl]; c > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", c, lvl))
		}
	}
	return strings.Join(parts, ", ")
}

// AtOrAbove returns the names of packages whose risk level is at least level.
func AtOrAbove(r *interfaces.Report, level interfaces.RiskLevel) []string {
	var names []string
	for _, p := range r.Packages {
		if p.Risk.RiskLevel.AtLeast(level) {
			names = append(names, p.Name)
		}
	}
	return names
}
