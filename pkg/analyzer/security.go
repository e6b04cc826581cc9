package analyzer

import (
	"fmt"

	"github.com/toyinlola/pkgrisk/pkg/interfaces"
)

// Security component weights.
const (
	SeverityWeight      = 0.6
	ApplicabilityWeight = 0.4

	// ConservativeApplicability is used whenever any vulnerability exists.
	// Affected version ranges are not matched against the installed version.
	ConservativeApplicability = 8.0
)

// severityStep is one row of the severity step table.
type severityStep struct {
	min   int
	score float64
}

// Critical-count rows are checked first, then total-count rows.
var (
	criticalSteps = []severityStep{
		{10, 10.0},
		{5, 9.0},
		{1, 8.0},
	}
	totalSteps = []severityStep{
		{50, 7.0},
		{20, 5.0},
		{10, 4.0},
		{5, 3.0},
		{1, 2.0},
	}
)

// Security scores known vulnerabilities. Missing vulnerability data counts as
// zero vulnerabilities.
type Security struct{}

// NewSecurity creates the security calculator.
func NewSecurity() *Security {
	return &Security{}
}

// Dimension returns interfaces.DimensionSecurity.
func (c *Security) Dimension() interfaces.Dimension {
	return interfaces.DimensionSecurity
}

// Calculate returns 0.6·severity + 0.4·applicability.
func (c *Security) Calculate(s *interfaces.MetadataSnapshot) interfaces.DimensionResult {
	result := interfaces.DimensionResult{Dimension: interfaces.DimensionSecurity}

	v := s.Vulnerabilities
	total := v.Total()
	if total == 0 {
		return result
	}

	critical := v.Critical
	severity := SeverityScore(critical, total)
	result.Score = clampScore(SeverityWeight*severity + ApplicabilityWeight*ConservativeApplicability)

	if critical > 0 {
		result.Concerns = append(result.Concerns, fmt.Sprintf("%d known vulnerabilities, %d critical", total, critical))
	} else {
		result.Concerns = append(result.Concerns, fmt.Sprintf("%d known vulnerabilities", total))
	}
	if worst, ok := highestCVSS(v.Details); ok {
		result.Concerns = append(result.Concerns, fmt.Sprintf("highest severity finding %s (CVSS %.1f)", worst.ID, worst.CVSS))
	}
	return result
}

// SeverityScore maps critical and total vulnerability counts to the severity
// component through the step table.
func SeverityScore(critical, total int) float64 {
	for _, step := range criticalSteps {
		if critical >= step.min {
			return step.score
		}
	}
	for _, step := range totalSteps {
		if total >= step.min {
			return step.score
		}
	}
	return 0
}

func highestCVSS(details []interfaces.VulnerabilityDetail) (interfaces.VulnerabilityDetail, bool) {
	var worst interfaces.VulnerabilityDetail
	found := false
	for _, d := range details {
		if d.CVSS <= 0 {
			continue
		}
		if !found || d.CVSS > worst.CVSS {
			worst = d
			found = true
		}
	}
	return worst, found
}
