package scorer

import (
	"math"
	"testing"

	"github.com/toyinlola/pkgrisk/pkg/interfaces"
)

func dimScores(sec, ops, comp, supply float64) interfaces.DimensionScores {
	return interfaces.DimensionScores{
		interfaces.DimensionSecurity:    {Dimension: interfaces.DimensionSecurity, Score: sec},
		interfaces.DimensionOperational: {Dimension: interfaces.DimensionOperational, Score: ops},
		interfaces.DimensionCompliance:  {Dimension: interfaces.DimensionCompliance, Score: comp},
		interfaces.DimensionSupplyChain: {Dimension: interfaces.DimensionSupplyChain, Score: supply},
	}
}

func TestCalculator_AllZero_Minimal(t *testing.T) {
	rb := NewCalculator().Combine(dimScores(0, 0, 0, 0), Signals{}, nil)

	if rb.Overall != 0 {
		t.Errorf("expected overall 0, got %v", rb.Overall)
	}
	if rb.RiskLevel != interfaces.RiskMinimal {
		t.Errorf("expected minimal, got %s", rb.RiskLevel)
	}
	if rb.PrimaryConcern != interfaces.DimensionNone {
		t.Errorf("expected no primary concern, got %s", rb.PrimaryConcern)
	}
	if rb.WeightProfile != ProfileDefault {
		t.Errorf("expected default profile, got %s", rb.WeightProfile)
	}
	if rb.Confidence != BaseConfidence {
		t.Errorf("expected confidence %d, got %d", BaseConfidence, rb.Confidence)
	}
}

func TestCalculator_DefaultWeights_Overall(t *testing.T) {
	rb := NewCalculator().Combine(dimScores(4, 4, 4, 4), Signals{}, nil)
	if rb.Overall != 4.0 {
		t.Errorf("expected overall 4.0, got %v", rb.Overall)
	}
	if rb.RiskLevel != interfaces.RiskModerate {
		t.Errorf("expected moderate, got %s", rb.RiskLevel)
	}
	// Ties go to security.
	if rb.PrimaryConcern != interfaces.DimensionSecurity {
		t.Errorf("expected security, got %s", rb.PrimaryConcern)
	}
}

func TestCalculator_RawScoresReportedUnmodified(t *testing.T) {
	actx := &interfaces.AnalysisContext{Usage: interfaces.UsageCIOnly}
	rb := NewCalculator().Combine(dimScores(6, 5, 1, 1), Signals{}, actx)

	if rb.Security != 6 || rb.Operational != 5 {
		t.Errorf("raw scores changed: security %v operational %v", rb.Security, rb.Operational)
	}
	// 0.4*3 + 0.25*3 + 0.15*1 + 0.2*1 = 2.3
	if rb.Overall != 2.3 {
		t.Errorf("expected overall 2.3, got %v", rb.Overall)
	}
}

func TestApplyContext(t *testing.T) {
	scores := dimScores(5, 5, 5, 5)
	tests := []struct {
		name         string
		actx         *interfaces.AnalysisContext
		wantSecurity float64
		wantOps      float64
	}{
		{"nil context", nil, 5, 5},
		{"runtime", &interfaces.AnalysisContext{Usage: interfaces.UsageRuntime}, 5, 5},
		{"dev", &interfaces.AnalysisContext{Usage: interfaces.UsageDev}, 3.5, 4},
		{"test", &interfaces.AnalysisContext{Usage: interfaces.UsageTest}, 3.5, 4},
		{"ci-only", &interfaces.AnalysisContext{Usage: interfaces.UsageCIOnly}, 2.5, 3},
		{"core", &interfaces.AnalysisContext{Criticality: interfaces.CriticalityCore}, 6, 5.5},
		{"dev core", &interfaces.AnalysisContext{Usage: interfaces.UsageDev, Criticality: interfaces.CriticalityCore}, 4.2, 4.4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyContext(scores, tt.actx)
			if math.Abs(got[interfaces.DimensionSecurity]-tt.wantSecurity) > 1e-9 {
				t.Errorf("security = %v, want %v", got[interfaces.DimensionSecurity], tt.wantSecurity)
			}
			if math.Abs(got[interfaces.DimensionOperational]-tt.wantOps) > 1e-9 {
				t.Errorf("operational = %v, want %v", got[interfaces.DimensionOperational], tt.wantOps)
			}
			if got[interfaces.DimensionCompliance] != 5 || got[interfaces.DimensionSupplyChain] != 5 {
				t.Error("compliance and supply chain must not be modified")
			}
		})
	}
}

func TestApplyContext_Clamps(t *testing.T) {
	got := ApplyContext(dimScores(10, 10, 0, 0), &interfaces.AnalysisContext{Criticality: interfaces.CriticalityCore})
	if got[interfaces.DimensionSecurity] != 10 || got[interfaces.DimensionOperational] != 10 {
		t.Errorf("expected clamped to 10, got %v", got)
	}
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		name string
		sig  Signals
		want int
	}{
		{"nothing", Signals{}, 50},
		{"vuln data", Signals{HasVulnerabilityData: true}, 65},
		{"source host", Signals{HasSourceHost: true, Stars: 1000}, 70},
		{"popular source host", Signals{HasSourceHost: true, Stars: 1001}, 80},
		{"stars without source host ignored", Signals{Stars: 5000}, 50},
		{"everything", Signals{HasVulnerabilityData: true, HasSourceHost: true, Stars: 90000, WellKnown: true}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Confidence(tt.sig); got != tt.want {
				t.Errorf("Confidence() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRiskLevelFromScore(t *testing.T) {
	tests := []struct {
		overall float64
		want    interfaces.RiskLevel
	}{
		{0, interfaces.RiskMinimal},
		{1.9, interfaces.RiskMinimal},
		{2.0, interfaces.RiskLow},
		{3.9, interfaces.RiskLow},
		{4.0, interfaces.RiskModerate},
		{5.9, interfaces.RiskModerate},
		{6.0, interfaces.RiskHigh},
		{7.9, interfaces.RiskHigh},
		{8.0, interfaces.RiskCritical},
		{10, interfaces.RiskCritical},
	}
	for _, tt := range tests {
		if got := RiskLevelFromScore(tt.overall); got != tt.want {
			t.Errorf("RiskLevelFromScore(%v) = %s, want %s", tt.overall, got, tt.want)
		}
	}
}

func TestEscalate(t *testing.T) {
	if got := Escalate(interfaces.RiskLow, Signals{CriticalVulnerabilities: 1}); got != interfaces.RiskCritical {
		t.Errorf("critical vulnerability should force critical, got %s", got)
	}
	if got := Escalate(interfaces.RiskModerate, Signals{}); got != interfaces.RiskModerate {
		t.Errorf("expected unchanged level, got %s", got)
	}
	if got := Escalate(interfaces.RiskCritical, Signals{}); got != interfaces.RiskCritical {
		t.Errorf("escalation must never lower a level, got %s", got)
	}
}

func TestCombine_MaxedDimensionKeepsThresholdLevel(t *testing.T) {
	rb := NewCalculator().Combine(dimScores(0, 0, 10, 0.5), Signals{LicenseUnknown: true}, nil)
	if rb.RiskLevel != RiskLevelFromScore(rb.Overall) {
		t.Errorf("level = %s, want threshold level %s for overall %v",
			rb.RiskLevel, RiskLevelFromScore(rb.Overall), rb.Overall)
	}
	if rb.RiskLevel.AtLeast(interfaces.RiskHigh) {
		t.Errorf("a single maxed dimension must not force high, got %s (overall %v)", rb.RiskLevel, rb.Overall)
	}
}

func TestPrimaryConcern(t *testing.T) {
	tests := []struct {
		name   string
		scores interfaces.DimensionScores
		want   interfaces.Dimension
	}{
		{"below floor", dimScores(3.9, 3.9, 3.9, 3.9), interfaces.DimensionNone},
		{"at floor", dimScores(0, 4, 0, 0), interfaces.DimensionOperational},
		{"max wins", dimScores(5, 6, 7, 6.9), interfaces.DimensionCompliance},
		{"tie prefers earlier", dimScores(2, 6, 6, 6), interfaces.DimensionOperational},
		{"supply chain", dimScores(0, 0, 0, 9), interfaces.DimensionSupplyChain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PrimaryConcern(tt.scores); got != tt.want {
				t.Errorf("PrimaryConcern() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCalculator_FixedMode(t *testing.T) {
	calc := NewCalculator(WithMode(ModeFixed))
	if calc.Mode() != ModeFixed {
		t.Fatalf("expected fixed mode, got %s", calc.Mode())
	}
	rb := calc.Combine(dimScores(10, 0, 0, 0), Signals{CriticalVulnerabilities: 3}, nil)
	if rb.WeightProfile != ProfileFixed {
		t.Errorf("expected fixed profile, got %s", rb.WeightProfile)
	}
	if rb.Overall != 5.0 {
		t.Errorf("expected overall 5.0, got %v", rb.Overall)
	}
}

func TestCalculator_OverallAlwaysInRange(t *testing.T) {
	values := []float64{0, 2.5, 7.3, 10}
	actxs := []*interfaces.AnalysisContext{
		nil,
		{Usage: interfaces.UsageCIOnly},
		{Usage: interfaces.UsageRuntime, Criticality: interfaces.CriticalityCore},
	}
	for _, mode := range []Mode{ModeAdaptive, ModeFixed} {
		calc := NewCalculator(WithMode(mode))
		for _, s := range values {
			for _, o := range values {
				for _, actx := range actxs {
					rb := calc.Combine(dimScores(s, o, s, o), Signals{Vulnerabilities: int(s)}, actx)
					if rb.Overall < 0 || rb.Overall > 10 {
						t.Errorf("overall %v out of range", rb.Overall)
					}
					if math.Abs(rb.Weights.Sum()-1) > 1e-9 {
						t.Errorf("weights sum %v", rb.Weights.Sum())
					}
				}
			}
		}
	}
}
