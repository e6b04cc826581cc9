package scorer

import "github.com/toyinlola/pkgrisk/pkg/interfaces"

// Risk level upper bounds (exclusive) on the overall score.
const (
	MinimalBelow  = 2.0
	LowBelow      = 4.0
	ModerateBelow = 6.0
	HighBelow     = 8.0
)

// PrimaryConcernFloor is the raw score below which no dimension is reported
// as the primary concern.
const PrimaryConcernFloor = 4.0

// RiskLevelFromScore returns the risk level for an overall score.
// MINIMAL: overall < 2
// LOW: overall < 4
// MODERATE: overall < 6
// HIGH: overall < 8
// CRITICAL: otherwise
func RiskLevelFromScore(overall float64) interfaces.RiskLevel {
	switch {
	case overall < MinimalBelow:
		return interfaces.RiskMinimal
	case overall < LowBelow:
		return interfaces.RiskLow
	case overall < ModerateBelow:
		return interfaces.RiskModerate
	case overall < HighBelow:
		return interfaces.RiskHigh
	default:
		return interfaces.RiskCritical
	}
}

// Escalate raises the threshold level to critical when any critical
// vulnerability is known. Otherwise the level is returned unchanged.
func Escalate(level interfaces.RiskLevel, sig Signals) interfaces.RiskLevel {
	if sig.CriticalVulnerabilities > 0 {
		return interfaces.RiskCritical
	}
	return level
}

// PrimaryConcern returns the dimension with the highest raw score. Ties go to
// the earlier dimension in canonical order. Below PrimaryConcernFloor the
// result is DimensionNone.
func PrimaryConcern(scores interfaces.DimensionScores) interfaces.Dimension {
	best := interfaces.DimensionNone
	bestScore := -1.0
	for _, d := range interfaces.Dimensions {
		if s := scores.Score(d); s > bestScore {
			best, bestScore = d, s
		}
	}
	if bestScore < PrimaryConcernFloor {
		return interfaces.DimensionNone
	}
	return best
}
