package analyzer

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/mod/semver"

	"github.com/toyinlola/pkgrisk/pkg/catalog"
	"github.com/toyinlola/pkgrisk/pkg/interfaces"
)

// Operational scoring constants.
const (
	OperationalBase      = 3.0
	WellKnownOperational = 1.5
	IssueRatioThreshold  = 0.2
)

// band is one row of a threshold table: values at or above min get delta.
type band struct {
	min   float64
	delta float64
}

var (
	downloadBands = []band{
		{10_000_000, -2.0},
		{1_000_000, -1.5},
		{100_000, -1.0},
		{10_000, -0.5},
	}
	starBands = []band{
		{50_000, -2.0},
		{10_000, -1.5},
		{1_000, -1.0},
		{500, -0.5},
	}
)

// Operational scores maintenance health from source-host signals, falling
// back to download popularity or the well-known allow-list.
type Operational struct {
	catalog *catalog.Catalog
	now     func() time.Time
}

// NewOperational creates the operational calculator.
func NewOperational(opts ...Option) *Operational {
	o := newOptions(opts)
	return &Operational{catalog: o.catalog, now: o.now}
}

// Dimension returns interfaces.DimensionOperational.
func (c *Operational) Dimension() interfaces.Dimension {
	return interfaces.DimensionOperational
}

// Calculate applies the staleness, community, issue-load, bus-factor and
// maturity adjustments to the base score.
func (c *Operational) Calculate(s *interfaces.MetadataSnapshot) interfaces.DimensionResult {
	result := interfaces.DimensionResult{Dimension: interfaces.DimensionOperational}
	now := c.now()

	var score float64
	if s.SourceHost == nil {
		score = c.fallback(s, &result)
	} else {
		score = c.fromSourceHost(s, now, &result)
	}

	if isPreRelease(s.Version) {
		result.Concerns = append(result.Concerns, fmt.Sprintf("pre-1.0 version line (%s)", s.Version))
	}
	result.Score = clampScore(score)
	return result
}

func (c *Operational) fallback(s *interfaces.MetadataSnapshot, result *interfaces.DimensionResult) float64 {
	if c.catalog.IsWellKnown(s.Name) {
		result.Concerns = append(result.Concerns, "no source-host data; well-known package")
		return WellKnownOperational
	}
	if s.Downloads == nil {
		result.Concerns = append(result.Concerns, "no source-host data or download figures")
		return OperationalBase
	}

	d := float64(*s.Downloads)
	score := OperationalBase + bandDelta(downloadBands, d)
	if d < 1_000 {
		score += 1.0
		result.Concerns = append(result.Concerns, fmt.Sprintf("low download count (%d)", *s.Downloads))
	}
	result.Concerns = append(result.Concerns, "no source-host data; scored from download popularity")
	return score
}

func (c *Operational) fromSourceHost(s *interfaces.MetadataSnapshot, now time.Time, result *interfaces.DimensionResult) float64 {
	sh := s.SourceHost
	score := OperationalBase

	if sh.Archived {
		score += 5.0
		result.Concerns = append(result.Concerns, "repository is archived")
	} else {
		days := daysSince(sh.LastPush, now)
		switch {
		case days > 730:
			score += 4.0
			if sh.LastPush == "" {
				result.Concerns = append(result.Concerns, "last push date unknown")
			} else {
				result.Concerns = append(result.Concerns, fmt.Sprintf("no push for over two years (last %s)", sh.LastPush))
			}
		case days >= 365:
			score += 2.5
			result.Concerns = append(result.Concerns, "no push for over a year")
		case days >= 180:
			score += 1.0
			result.Concerns = append(result.Concerns, "no push for over six months")
		case days < 30:
			score -= 1.5
		}
	}

	stars := float64(sh.Stars)
	score += bandDelta(starBands, stars)
	if sh.Stars < 100 {
		score += 1.0
		result.Concerns = append(result.Concerns, fmt.Sprintf("small community (%d stars)", sh.Stars))
	}

	if sh.OpenIssues > 0 && (sh.Stars == 0 || float64(sh.OpenIssues)/stars > IssueRatioThreshold) {
		score += 1.0
		result.Concerns = append(result.Concerns, fmt.Sprintf("high open-issue load (%d open issues)", sh.OpenIssues))
	}

	if sh.Forks < 5 && sh.Stars < 100 {
		score += 0.5
		result.Concerns = append(result.Concerns, "likely single maintainer (low bus factor)")
	}

	score += c.maturity(s, now, result)
	return score
}

// maturity returns the age-based adjustment. Unknown creation dates contribute nothing.
func (c *Operational) maturity(s *interfaces.MetadataSnapshot, now time.Time, result *interfaces.DimensionResult) float64 {
	created, ok := ParseDate(s.SourceHost.CreatedAt, now)
	if !ok {
		return 0
	}
	years := now.Sub(created).Hours() / 24 / 365.25
	stars := s.SourceHost.Stars
	vulns := s.Vulnerabilities.Total()

	switch {
	case years >= 5 && stars >= 1_000 && vulns == 0:
		return -1.5
	case years >= 3 && stars >= 500 && vulns < 3:
		return -1.0
	case years >= 2 && stars >= 100:
		return -0.5
	case years < 0.5:
		result.Concerns = append(result.Concerns, "project is less than six months old")
		return 1.0
	}
	return 0
}

func bandDelta(bands []band, v float64) float64 {
	for _, b := range bands {
		if v >= b.min {
			return b.delta
		}
	}
	return 0
}

// isPreRelease reports whether a version belongs to a 0.x line.
func isPreRelease(version string) bool {
	v := strings.TrimSpace(version)
	if v == "" {
		return false
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if semver.IsValid(v) {
		return semver.Major(v) == "v0"
	}
	return strings.HasPrefix(v, "v0.")
}
