package scorer

import (
	"math"
	"time"

	"github.com/toyinlola/pkgrisk/pkg/analyzer"
	"github.com/toyinlola/pkgrisk/pkg/catalog"
	"github.com/toyinlola/pkgrisk/pkg/interfaces"
)

// Context modifier factors applied to security and operational scores.
const (
	DevSecurityFactor       = 0.7
	DevOperationalFactor    = 0.8
	CIOnlySecurityFactor    = 0.5
	CIOnlyOperationalFactor = 0.6
	CoreSecurityFactor      = 1.2
	CoreOperationalFactor   = 1.1
)

// Confidence points.
const (
	BaseConfidence        = 50
	VulnDataConfidence    = 15
	SourceHostConfidence  = 20
	PopularRepoConfidence = 10
	WellKnownConfidence   = 5
	MaxConfidence         = 100
	PopularRepoStarsOver  = 1000
)

// Signals are the snapshot facts the combiner needs beyond dimension scores.
type Signals struct {
	HasVulnerabilityData    bool
	Vulnerabilities         int
	CriticalVulnerabilities int
	HasSourceHost           bool
	Archived                bool
	DaysSincePush           float64
	Stars                   int
	LicenseUnknown          bool
	DirectDependencies      int
	WellKnown               bool
}

// Abandoned reports whether the repository is archived or has not been pushed
// to for more than AbandonedAfterDays. Without source-host data it is false.
func (s Signals) Abandoned() bool {
	return s.HasSourceHost && (s.Archived || s.DaysSincePush > AbandonedAfterDays)
}

// SignalsFrom extracts combiner signals from a snapshot.
func SignalsFrom(s *interfaces.MetadataSnapshot, c *catalog.Catalog, licenseUnknown bool, now time.Time) Signals {
	sig := Signals{
		LicenseUnknown:     licenseUnknown,
		DirectDependencies: len(s.DirectDependencyNames),
		WellKnown:          c.IsWellKnown(s.Name),
	}
	if v := s.Vulnerabilities; v != nil {
		sig.HasVulnerabilityData = true
		sig.Vulnerabilities = v.Total()
		sig.CriticalVulnerabilities = v.Critical
	}
	if sh := s.SourceHost; sh != nil {
		sig.HasSourceHost = true
		sig.Archived = sh.Archived
		sig.Stars = sh.Stars
		sig.DaysSincePush = math.Inf(1)
		if t, ok := analyzer.ParseDate(sh.LastPush, now); ok {
			sig.DaysSincePush = now.Sub(t).Hours() / 24
		}
	}
	return sig
}

// Calculator combines dimension scores into a RiskBreakdown.
type Calculator struct {
	mode  Mode
	rules []WeightRule
}

// Option configures the Calculator.
type Option func(*Calculator)

// WithMode selects adaptive or fixed weighting.
func WithMode(m Mode) Option {
	return func(c *Calculator) {
		c.mode = m
	}
}

// WithRules overrides the adaptive weight table.
func WithRules(rules []WeightRule) Option {
	return func(c *Calculator) {
		c.rules = rules
	}
}

// NewCalculator creates a combiner with optional configuration.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		mode:  ModeAdaptive,
		rules: DefaultRules(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mode returns the active weighting mode.
func (c *Calculator) Mode() Mode {
	return c.mode
}

// Combine selects weights, applies the context modifiers, and derives the
// overall score, confidence, level and primary concern.
// Raw dimension scores are reported unmodified; only the overall uses the
// context-adjusted values.
func (c *Calculator) Combine(scores interfaces.DimensionScores, sig Signals, actx *interfaces.AnalysisContext) interfaces.RiskBreakdown {
	profile, weights := ProfileFixed, FixedWeights()
	if c.mode != ModeFixed {
		profile, weights = SelectWeights(c.rules, sig, scores)
	}

	adjusted := ApplyContext(scores, actx)
	var overall float64
	for _, d := range interfaces.Dimensions {
		overall += adjusted[d] * weights[d]
	}
	overall = round1(overall)

	level := Escalate(RiskLevelFromScore(overall), sig)

	concerns := make(map[interfaces.Dimension][]string)
	for _, d := range interfaces.Dimensions {
		if cs := scores[d].Concerns; len(cs) > 0 {
			concerns[d] = cs
		}
	}

	return interfaces.RiskBreakdown{
		Security:       scores.Score(interfaces.DimensionSecurity),
		Operational:    scores.Score(interfaces.DimensionOperational),
		Compliance:     scores.Score(interfaces.DimensionCompliance),
		SupplyChain:    scores.Score(interfaces.DimensionSupplyChain),
		Overall:        overall,
		Confidence:     Confidence(sig),
		RiskLevel:      level,
		PrimaryConcern: PrimaryConcern(scores),
		WeightProfile:  profile,
		Weights:        weights,
		Concerns:       concerns,
	}
}

// ApplyContext returns the context-adjusted dimension scores. Usage and
// criticality factors compose multiplicatively and results are clamped.
func ApplyContext(scores interfaces.DimensionScores, actx *interfaces.AnalysisContext) map[interfaces.Dimension]float64 {
	out := make(map[interfaces.Dimension]float64, len(interfaces.Dimensions))
	for _, d := range interfaces.Dimensions {
		out[d] = scores.Score(d)
	}
	if actx == nil {
		return out
	}

	secFactor, opsFactor := 1.0, 1.0
	switch actx.Usage {
	case interfaces.UsageDev, interfaces.UsageTest:
		secFactor *= DevSecurityFactor
		opsFactor *= DevOperationalFactor
	case interfaces.UsageCIOnly:
		secFactor *= CIOnlySecurityFactor
		opsFactor *= CIOnlyOperationalFactor
	}
	if actx.Criticality == interfaces.CriticalityCore {
		secFactor *= CoreSecurityFactor
		opsFactor *= CoreOperationalFactor
	}

	out[interfaces.DimensionSecurity] = clamp(out[interfaces.DimensionSecurity] * secFactor)
	out[interfaces.DimensionOperational] = clamp(out[interfaces.DimensionOperational] * opsFactor)
	return out
}

// Confidence estimates how complete the evidence behind a breakdown is.
func Confidence(sig Signals) int {
	c := BaseConfidence
	if sig.HasVulnerabilityData {
		c += VulnDataConfidence
	}
	if sig.HasSourceHost {
		c += SourceHostConfidence
		if sig.Stars > PopularRepoStarsOver {
			c += PopularRepoConfidence
		}
	}
	if sig.WellKnown {
		c += WellKnownConfidence
	}
	return min(c, MaxConfidence)
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(analyzer.MaxScore, v))
}

func round1(v float64) float64 {
	return clamp(math.Round(v*10) / 10)
}
