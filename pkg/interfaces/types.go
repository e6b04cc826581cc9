// Package interfaces defines the shared types and contracts for all pkgrisk modules.
// This package has ZERO dependencies on any other pkg/ package.
// All cross-module communication goes through types and interfaces defined here.
package interfaces

import (
	"fmt"
	"time"
)

// Dimension names one axis of the risk breakdown.
type Dimension string

const (
	DimensionSecurity    Dimension = "security"
	DimensionOperational Dimension = "operational"
	DimensionCompliance  Dimension = "compliance"
	DimensionSupplyChain Dimension = "supply_chain"

	// DimensionNone is reported as the primary concern when no dimension is worrying.
	DimensionNone Dimension = "none"
)

// Dimensions lists every scored dimension in canonical order.
// Tie-breaks and report ordering follow this order.
var Dimensions = []Dimension{
	DimensionSecurity,
	DimensionOperational,
	DimensionCompliance,
	DimensionSupplyChain,
}

// RiskLevel is the ordinal classification of an overall score.
type RiskLevel string

const (
	RiskMinimal  RiskLevel = "minimal"
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// riskOrder ranks levels for comparisons.
var riskOrder = map[RiskLevel]int{
	RiskMinimal:  0,
	RiskLow:      1,
	RiskModerate: 2,
	RiskHigh:     3,
	RiskCritical: 4,
}

// Rank returns the ordinal position of the level (minimal = 0).
// Unknown levels rank below minimal.
func (l RiskLevel) Rank() int {
	if r, ok := riskOrder[l]; ok {
		return r
	}
	return -1
}

// AtLeast reports whether l is as severe as other or worse.
func (l RiskLevel) AtLeast(other RiskLevel) bool {
	return l.Rank() >= other.Rank()
}

// SourceHostSignals are repository health signals from a source-hosting platform.
type SourceHostSignals struct {
	URL        string `json:"url,omitempty" yaml:"url,omitempty"`
	Stars      int    `json:"stars" yaml:"stars"`
	Forks      int    `json:"forks" yaml:"forks"`
	OpenIssues int    `json:"open_issues" yaml:"open_issues"`
	LastPush   string `json:"last_push,omitempty" yaml:"last_push,omitempty"`
	CreatedAt  string `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	Archived   bool   `json:"archived" yaml:"archived"`
}

// VulnerabilityDetail is a single finding from a vulnerability database.
type VulnerabilityDetail struct {
	ID       string  `json:"id" yaml:"id"`
	Severity string  `json:"severity,omitempty" yaml:"severity,omitempty"`
	CVSS     float64 `json:"cvss,omitempty" yaml:"cvss,omitempty"`
	Summary  string  `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// VulnerabilitySummary aggregates the known vulnerabilities of a package.
type VulnerabilitySummary struct {
	Count    int                   `json:"count" yaml:"count"`
	Critical int                   `json:"critical" yaml:"critical"`
	Details  []VulnerabilityDetail `json:"details,omitempty" yaml:"details,omitempty"`
}

// Total returns the number of distinct vulnerabilities, tolerating a critical
// count that exceeds the reported total.
func (v *VulnerabilitySummary) Total() int {
	if v == nil {
		return 0
	}
	return max(v.Count, v.Critical)
}

// MetadataSnapshot is the immutable per-package bundle every calculator reads.
// Optional sections are nil when the upstream source had nothing to say.
type MetadataSnapshot struct {
	Name                  string                `json:"name" yaml:"name"`
	Version               string                `json:"version,omitempty" yaml:"version,omitempty"`
	License               string                `json:"license,omitempty" yaml:"license,omitempty"`
	Author                string                `json:"author,omitempty" yaml:"author,omitempty"`
	ReleaseDate           string                `json:"release_date,omitempty" yaml:"release_date,omitempty"`
	Summary               string                `json:"summary,omitempty" yaml:"summary,omitempty"`
	Description           string                `json:"description,omitempty" yaml:"description,omitempty"`
	Keywords              []string              `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Classifiers           []string              `json:"classifiers,omitempty" yaml:"classifiers,omitempty"`
	Downloads             *int64                `json:"downloads,omitempty" yaml:"downloads,omitempty"`
	SourceHost            *SourceHostSignals    `json:"source_host,omitempty" yaml:"source_host,omitempty"`
	Vulnerabilities       *VulnerabilitySummary `json:"vulnerabilities,omitempty" yaml:"vulnerabilities,omitempty"`
	DirectDependencyNames []string              `json:"direct_dependencies,omitempty" yaml:"direct_dependencies,omitempty"`
}

// Usage describes how a dependency is used by the consuming project.
type Usage string

const (
	UsageRuntime Usage = "runtime"
	UsageDev     Usage = "dev"
	UsageTest    Usage = "test"
	UsageCIOnly  Usage = "ci-only"
)

// Criticality describes how central a dependency is to the consuming project.
type Criticality string

const (
	CriticalityCore     Criticality = "core"
	CriticalitySupport  Criticality = "support"
	CriticalityCosmetic Criticality = "cosmetic"
)

// AnalysisContext is the optional caller-supplied usage context.
type AnalysisContext struct {
	Usage       Usage       `json:"usage,omitempty" yaml:"usage,omitempty"`
	Criticality Criticality `json:"criticality,omitempty" yaml:"criticality,omitempty"`
}

// Validate rejects usage and criticality values outside the known sets.
// Empty fields are allowed and a nil context is valid.
func (a *AnalysisContext) Validate() error {
	if a == nil {
		return nil
	}
	switch a.Usage {
	case "", UsageRuntime, UsageDev, UsageTest, UsageCIOnly:
	default:
		return fmt.Errorf("unknown usage %q", a.Usage)
	}
	switch a.Criticality {
	case "", CriticalityCore, CriticalitySupport, CriticalityCosmetic:
	default:
		return fmt.Errorf("unknown criticality %q", a.Criticality)
	}
	return nil
}

// ParseAnalysisContext builds a validated context from raw usage and
// criticality strings. Both empty yields a nil context.
func ParseAnalysisContext(usage, criticality string) (*AnalysisContext, error) {
	if usage == "" && criticality == "" {
		return nil, nil
	}
	actx := &AnalysisContext{Usage: Usage(usage), Criticality: Criticality(criticality)}
	if err := actx.Validate(); err != nil {
		return nil, err
	}
	return actx, nil
}

// DimensionResult is what each dimension calculator returns.
type DimensionResult struct {
	Dimension Dimension `json:"dimension"`
	Score     float64   `json:"score"`
	Concerns  []string  `json:"concerns,omitempty"`
}

// DimensionScores holds one result per dimension.
type DimensionScores map[Dimension]DimensionResult

// Score returns the score for a dimension, 0 when it was not computed.
func (s DimensionScores) Score(d Dimension) float64 {
	return s[d].Score
}

// Weights maps each dimension to its share of the overall score.
type Weights map[Dimension]float64

// Sum returns the total weight across all dimensions.
func (w Weights) Sum() float64 {
	var total float64
	for _, d := range Dimensions {
		total += w[d]
	}
	return total
}

// RiskBreakdown is the final assessment of one package.
type RiskBreakdown struct {
	Security       float64                `json:"security"`
	Operational    float64                `json:"operational"`
	Compliance     float64                `json:"compliance"`
	SupplyChain    float64                `json:"supply_chain"`
	Overall        float64                `json:"overall"`
	Confidence     int                    `json:"confidence"`
	RiskLevel      RiskLevel              `json:"risk_level"`
	PrimaryConcern Dimension              `json:"primary_concern"`
	WeightProfile  string                 `json:"weight_profile"`
	Weights        Weights                `json:"weights"`
	Concerns       map[Dimension][]string `json:"concerns,omitempty"`
}

// TriState is an explicit allowed / forbidden / needs-review fact.
// The zero value is NeedsReview so a missing entry is never silently treated as granted.
type TriState int

const (
	NeedsReview TriState = iota
	Allowed
	Forbidden
)

// Obligation facts reuse the same enumeration.
const (
	Required    = Allowed
	NotRequired = Forbidden
)

// String returns the lower-case table spelling of the state.
func (t TriState) String() string {
	switch t {
	case Allowed:
		return "allowed"
	case Forbidden:
		return "forbidden"
	default:
		return "needs_review"
	}
}

// ParseTriState parses a table spelling. Unknown spellings yield NeedsReview and false.
func ParseTriState(s string) (TriState, bool) {
	switch s {
	case "allowed", "required", "yes", "true":
		return Allowed, true
	case "forbidden", "not_required", "no", "false":
		return Forbidden, true
	case "needs_review", "ambiguous":
		return NeedsReview, true
	default:
		return NeedsReview, false
	}
}

// LicenseCategory is the coarse family a license belongs to.
type LicenseCategory string

const (
	CategoryPermissive      LicenseCategory = "permissive"
	CategoryWeakCopyleft    LicenseCategory = "weak-copyleft"
	CategoryStrongCopyleft  LicenseCategory = "strong-copyleft"
	CategoryNetworkCopyleft LicenseCategory = "network-copyleft"
	CategoryProprietary     LicenseCategory = "proprietary"
	CategoryUnknown         LicenseCategory = "unknown"
	CategoryAmbiguous       LicenseCategory = "ambiguous"
)

// Capability is something a licensee may do with the software.
type Capability string

const (
	CapUse        Capability = "use"
	CapCopy       Capability = "copy"
	CapModify     Capability = "modify"
	CapDistribute Capability = "distribute"
	CapSell       Capability = "sell"
	CapSaaS       Capability = "saas"
	CapPrivateUse Capability = "private_use"
)

// Capabilities lists every capability a license record must describe.
var Capabilities = []Capability{CapUse, CapCopy, CapModify, CapDistribute, CapSell, CapSaaS, CapPrivateUse}

// Obligation is a duty imposed on the licensee.
type Obligation string

const (
	ObAttribution     Obligation = "attribution"
	ObDiscloseSource  Obligation = "disclose_source"
	ObShareAlike      Obligation = "share_alike"
	ObNetworkCopyleft Obligation = "network_copyleft"
	ObStateChanges    Obligation = "state_changes"
)

// Obligations lists every obligation a license record may carry.
var Obligations = []Obligation{ObAttribution, ObDiscloseSource, ObShareAlike, ObNetworkCopyleft, ObStateChanges}

// UnknownLicenseID is the canonical identifier of the fallback record.
const UnknownLicenseID = "UNKNOWN"

// LicenseRecord is the resolved policy view of a license.
type LicenseRecord struct {
	ID           string                  `json:"id"`
	Name         string                  `json:"name"`
	Category     LicenseCategory         `json:"category"`
	Capabilities map[Capability]TriState `json:"capabilities"`
	Obligations  map[Obligation]TriState `json:"obligations"`
}

// Can returns the capability fact, NeedsReview when undescribed.
func (r LicenseRecord) Can(c Capability) TriState {
	if v, ok := r.Capabilities[c]; ok {
		return v
	}
	return NeedsReview
}

// Must returns the obligation fact, NotRequired when undescribed.
func (r LicenseRecord) Must(o Obligation) TriState {
	if v, ok := r.Obligations[o]; ok {
		return v
	}
	return NotRequired
}

// IsUnknown reports whether the record is the fallback for unresolvable text.
func (r LicenseRecord) IsUnknown() bool {
	return r.ID == UnknownLicenseID
}

// PackageProfile is the semantic profile derived from a snapshot.
type PackageProfile struct {
	Name             string   `json:"name"`
	LicenseID        string   `json:"license_id,omitempty"`
	Downloads        *int64   `json:"downloads,omitempty"`
	HasSourceHost    bool     `json:"has_source_host"`
	ShortDescription string   `json:"short_description,omitempty"`
	Keywords         []string `json:"keywords,omitempty"`
	Domains          []string `json:"domains,omitempty"`
	Intents          []string `json:"intents,omitempty"`
}

// Bucket is the presentation category of a recommended alternative.
type Bucket string

const (
	BucketBestOverall Bucket = "best-overall"
	BucketPerformance Bucket = "performance"
	BucketLightweight Bucket = "lightweight"
	BucketSpecialized Bucket = "specialized"
	BucketSimilar     Bucket = "similar"
)

// Buckets lists bucket names in assignment priority order.
var Buckets = []Bucket{BucketBestOverall, BucketPerformance, BucketLightweight, BucketSpecialized, BucketSimilar}

// FactorScores is the per-factor breakdown of a candidate score (each 0-100).
type FactorScores struct {
	Similarity  float64 `json:"similarity"`
	Popularity  float64 `json:"popularity"`
	Maintenance float64 `json:"maintenance"`
	Security    float64 `json:"security"`
	License     float64 `json:"license"`
}

// AlternativeCandidate is one scored substitute package.
type AlternativeCandidate struct {
	Name          string         `json:"name"`
	LicenseID     string         `json:"license_id,omitempty"`
	Factors       FactorScores   `json:"factors"`
	Score         float64        `json:"score"`
	Bucket        Bucket         `json:"bucket"`
	Justification string         `json:"justification"`
	Risk          *RiskBreakdown `json:"risk,omitempty"`
}

// Recommendation is the ranked, bucketed result of a recommendation run.
type Recommendation struct {
	Package      string                            `json:"package"`
	Alternatives []AlternativeCandidate            `json:"alternatives"`
	Buckets      map[Bucket][]AlternativeCandidate `json:"buckets"`
	Skipped      []string                          `json:"skipped,omitempty"`
}

// PackageResult is the outcome of analysing one package in a batch.
type PackageResult struct {
	Name           string          `json:"name"`
	Version        string          `json:"version,omitempty"`
	License        string          `json:"license,omitempty"`
	Risk           RiskBreakdown   `json:"risk"`
	Recommendation *Recommendation `json:"recommendation,omitempty"`
	Duration       time.Duration   `json:"duration"`
}

// PackageFailure records a package whose analysis could not complete.
type PackageFailure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// BatchResult is the output of a sequential multi-package run.
type BatchResult struct {
	Results  []PackageResult  `json:"results"`
	Failures []PackageFailure `json:"failures,omitempty"`
	Duration time.Duration    `json:"duration"`
}

// Report is the final output of a pkgrisk run.
type Report struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Packages  []PackageResult   `json:"packages"`
	Failures  []PackageFailure  `json:"failures,omitempty"`
	Summary   string            `json:"summary"`
	Counts    map[RiskLevel]int `json:"counts"`
	Duration  time.Duration     `json:"duration"`
}
