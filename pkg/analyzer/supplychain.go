package analyzer

import (
	"fmt"

	"github.com/toyinlola/pkgrisk/pkg/catalog"
	"github.com/toyinlola/pkgrisk/pkg/interfaces"
)

// Supply-chain heuristic additions.
const (
	NativeArtifactPenalty = 1.5
	ToolchainPenalty      = 1.0
	SmallBasePenalty      = 1.5
	MaxExtraDepPenalty    = 2.0
	ExtraDepPenalty       = 0.05
)

// SupplyChain scores transitive exposure from the direct dependency count and
// build characteristics.
type SupplyChain struct {
	catalog *catalog.Catalog
}

// NewSupplyChain creates the supply-chain calculator. A nil catalog uses the embedded one.
func NewSupplyChain(c *catalog.Catalog) *SupplyChain {
	if c == nil {
		c = catalog.Default()
	}
	return &SupplyChain{catalog: c}
}

// Dimension returns interfaces.DimensionSupplyChain.
func (c *SupplyChain) Dimension() interfaces.Dimension {
	return interfaces.DimensionSupplyChain
}

// Calculate scores the dependency count and adds the build heuristics.
func (c *SupplyChain) Calculate(s *interfaces.MetadataSnapshot) interfaces.DimensionResult {
	result := interfaces.DimensionResult{Dimension: interfaces.DimensionSupplyChain}

	n := len(s.DirectDependencyNames)
	score := DependencyCountScore(n)
	if n > 20 {
		result.Concerns = append(result.Concerns, fmt.Sprintf("%d direct dependencies", n))
	}

	if c.catalog.ShipsNativeArtifacts(s.Name) {
		score += NativeArtifactPenalty
		result.Concerns = append(result.Concerns, "ships native compiled artifacts")
	}
	if c.catalog.NeedsCompiler(s.Name) {
		score += ToolchainPenalty
		result.Concerns = append(result.Concerns, "source builds need a compiler toolchain")
	}
	if sh := s.SourceHost; sh != nil && sh.Forks < 10 && sh.Stars < 50 {
		score += SmallBasePenalty
		result.Concerns = append(result.Concerns, "very small contributor base")
	}

	result.Score = clampScore(score)
	return result
}

// DependencyCountScore maps a direct dependency count to the base score.
func DependencyCountScore(n int) float64 {
	switch {
	case n <= 0:
		return 0.5
	case n <= 10:
		return 1.0
	case n <= 20:
		return 2.5 + float64(n-11)/9*1.5
	case n <= 50:
		return 4.0 + float64(n-21)/29*2.0
	default:
		return 6.0 + min(float64(n-50)*ExtraDepPenalty, MaxExtraDepPenalty)
	}
}
