package scorer

import (
	"log/slog"
	"time"

	"github.com/toyinlola/pkgrisk/pkg/analyzer"
	"github.com/toyinlola/pkgrisk/pkg/catalog"
	"github.com/toyinlola/pkgrisk/pkg/interfaces"
	"github.com/toyinlola/pkgrisk/pkg/license"
)

// Assessor runs the dimension calculators and combines their output. It is
// pure given its clock and safe for concurrent use.
type Assessor struct {
	engine   *analyzer.Engine
	calc     *Calculator
	catalog  *catalog.Catalog
	licenses *license.Resolver
	now      func() time.Time
}

// NewAssessor wires the default calculators to a combiner. Nil arguments fall
// back to the embedded tables, an adaptive calculator and the wall clock.
func NewAssessor(calc *Calculator, c *catalog.Catalog, r *license.Resolver, now func() time.Time) *Assessor {
	if calc == nil {
		calc = NewCalculator()
	}
	if c == nil {
		c = catalog.Default()
	}
	if r == nil {
		r = license.Default()
	}
	if now == nil {
		now = time.Now
	}
	registry := analyzer.NewDefaultRegistry(
		analyzer.WithCatalog(c),
		analyzer.WithLicenses(r),
		analyzer.WithClock(now),
	)
	return &Assessor{
		engine:   analyzer.NewEngine(registry),
		calc:     calc,
		catalog:  c,
		licenses: r,
		now:      now,
	}
}

// Assess scores a snapshot under an optional usage context.
func (a *Assessor) Assess(s *interfaces.MetadataSnapshot, actx *interfaces.AnalysisContext) interfaces.RiskBreakdown {
	if s == nil {
		s = &interfaces.MetadataSnapshot{}
	}
	scores := a.engine.Run(s)
	unknown := a.licenses.Resolve(s.License).IsUnknown()
	sig := SignalsFrom(s, a.catalog, unknown, a.now())

	rb := a.calc.Combine(scores, sig, actx)
	slog.Debug("package assessed",
		"package", s.Name,
		"overall", rb.Overall,
		"level", rb.RiskLevel,
		"profile", rb.WeightProfile,
		"primary_concern", rb.PrimaryConcern,
	)
	return rb
}

// Scores exposes the raw dimension results for a snapshot.
func (a *Assessor) Scores(s *interfaces.MetadataSnapshot) interfaces.DimensionScores {
	if s == nil {
		s = &interfaces.MetadataSnapshot{}
	}
	return a.engine.Run(s)
}
