package analyzer

import (
	"log/slog"

	"github.com/toyinlola/pkgrisk/pkg/interfaces"
)

// Engine runs every enabled calculator against a snapshot.
type Engine struct {
	registry *Registry
}

// NewEngine creates an analysis engine backed by the given registry.
func NewEngine(registry *Registry) *Engine {
	return &Engine{registry: registry}
}

// Run executes the enabled calculators in canonical dimension order.
// A disabled dimension is absent from the result and reads as 0.
// A nil snapshot is scored as an empty one.
func (e *Engine) Run(s *interfaces.MetadataSnapshot) interfaces.DimensionScores {
	if s == nil {
		s = &interfaces.MetadataSnapshot{}
	}

	calculators := e.registry.EnabledCalculators()
	scores := make(interfaces.DimensionScores, len(calculators))
	for _, c := range calculators {
		result := c.Calculate(s)
		result.Dimension = c.Dimension()
		result.Score = clampScore(result.Score)
		scores[result.Dimension] = result
		slog.Debug("dimension scored", "package", s.Name, "dimension", result.Dimension, "score", result.Score, "concerns", len(result.Concerns))
	}
	return scores
}
