// Package scorer combines dimension scores into an overall risk breakdown.
package scorer

import (
	"fmt"

	"github.com/toyinlola/pkgrisk/pkg/interfaces"
)

// Mode selects how dimension weights are chosen.
type Mode string

const (
	// ModeAdaptive walks the weight rule table and uses the first match.
	ModeAdaptive Mode = "adaptive"

	// ModeFixed always uses FixedWeights.
	ModeFixed Mode = "fixed"
)

// ParseMode validates a mode name. An empty name is adaptive.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeAdaptive:
		return ModeAdaptive, nil
	case ModeFixed:
		return ModeFixed, nil
	}
	return "", fmt.Errorf("scorer: unknown weighting mode %q", s)
}

// Weight profile names.
const (
	ProfileCriticalCVE     = "critical-cve"
	ProfileVulnerable      = "vulnerable"
	ProfileAbandoned       = "abandoned"
	ProfileComplianceRisk  = "compliance-risk"
	ProfileDependencyHeavy = "dependency-heavy"
	ProfileDefault         = "default"
	ProfileFixed           = "fixed"
)

// Rule thresholds.
const (
	AbandonedAfterDays       = 730
	ComplianceRiskThreshold  = 6.0
	DependencyHeavyThreshold = 20
)

// Fixed-mode importance factors before normalization.
const (
	FixedFactorSecurity    = 5
	FixedFactorOperational = 3
	FixedFactorCompliance  = 1
	FixedFactorSupplyChain = 1
)

// WeightRule is one row of the adaptive weight table.
type WeightRule struct {
	Name    string
	Matches func(sig Signals, scores interfaces.DimensionScores) bool
	Weights interfaces.Weights
}

func vector(security, operational, compliance, supplyChain float64) interfaces.Weights {
	return interfaces.Weights{
		interfaces.DimensionSecurity:    security,
		interfaces.DimensionOperational: operational,
		interfaces.DimensionCompliance:  compliance,
		interfaces.DimensionSupplyChain: supplyChain,
	}
}

// DefaultRules returns the adaptive weight table in priority order.
// The last rule always matches.
func DefaultRules() []WeightRule {
	return []WeightRule{
		{
			Name:    ProfileCriticalCVE,
			Matches: func(sig Signals, _ interfaces.DimensionScores) bool { return sig.CriticalVulnerabilities > 0 },
			Weights: vector(0.60, 0.15, 0.10, 0.15),
		},
		{
			Name:    ProfileVulnerable,
			Matches: func(sig Signals, _ interfaces.DimensionScores) bool { return sig.Vulnerabilities > 0 },
			Weights: vector(0.50, 0.20, 0.10, 0.20),
		},
		{
			Name:    ProfileAbandoned,
			Matches: func(sig Signals, _ interfaces.DimensionScores) bool { return sig.Abandoned() },
			Weights: vector(0.30, 0.40, 0.10, 0.20),
		},
		{
			Name: ProfileComplianceRisk,
			Matches: func(sig Signals, scores interfaces.DimensionScores) bool {
				return sig.LicenseUnknown || scores.Score(interfaces.DimensionCompliance) >= ComplianceRiskThreshold
			},
			Weights: vector(0.35, 0.20, 0.25, 0.20),
		},
		{
			Name: ProfileDependencyHeavy,
			Matches: func(sig Signals, _ interfaces.DimensionScores) bool {
				return sig.DirectDependencies > DependencyHeavyThreshold
			},
			Weights: vector(0.35, 0.20, 0.15, 0.30),
		},
		{
			Name:    ProfileDefault,
			Matches: func(Signals, interfaces.DimensionScores) bool { return true },
			Weights: vector(0.40, 0.25, 0.15, 0.20),
		},
	}
}

// FixedWeights returns the normalized fixed-mode vector {.5, .3, .1, .1}.
func FixedWeights() interfaces.Weights {
	return Normalize(vector(FixedFactorSecurity, FixedFactorOperational, FixedFactorCompliance, FixedFactorSupplyChain))
}

// Normalize returns a copy of w scaled so the canonical dimensions sum to 1.0.
// Negative entries count as zero; an all-zero vector becomes uniform.
func Normalize(w interfaces.Weights) interfaces.Weights {
	out := make(interfaces.Weights, len(interfaces.Dimensions))
	var total float64
	for _, d := range interfaces.Dimensions {
		v := max(w[d], 0)
		out[d] = v
		total += v
	}
	if total == 0 {
		for _, d := range interfaces.Dimensions {
			out[d] = 1 / float64(len(interfaces.Dimensions))
		}
		return out
	}
	for _, d := range interfaces.Dimensions {
		out[d] /= total
	}
	return out
}

// SelectWeights returns the first matching rule's name and normalized weights.
// When nothing matches the default vector is used.
func SelectWeights(rules []WeightRule, sig Signals, scores interfaces.DimensionScores) (string, interfaces.Weights) {
	for _, r := range rules {
		if r.Matches(sig, scores) {
			return r.Name, Normalize(r.Weights)
		}
	}
	return ProfileDefault, Normalize(vector(0.40, 0.25, 0.15, 0.20))
}
