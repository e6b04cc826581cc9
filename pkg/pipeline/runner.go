// Package pipeline runs the sequential fetch, assess and recommend workflow
// over a batch of packages.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/toyinlola/pkgrisk/pkg/interfaces"
	"github.com/toyinlola/pkgrisk/pkg/recommend"
	"github.com/toyinlola/pkgrisk/pkg/scorer"
)

// Runner implements interfaces.Pipeline. Packages are analysed strictly one
// at a time with a configurable pause between them.
type Runner struct {
	provider    interfaces.MetadataProvider
	assessor    *scorer.Assessor
	recommender *recommend.Recommender
	actx        *interfaces.AnalysisContext
	limiter     *rate.Limiter
	logger      *slog.Logger
}

var _ interfaces.Pipeline = (*Runner)(nil)

// Option configures the Runner.
type Option func(*Runner)

// WithRecommender enables alternative recommendations for every package.
func WithRecommender(r *recommend.Recommender) Option {
	return func(p *Runner) {
		p.recommender = r
	}
}

// WithPause sets the minimum gap between the start of consecutive packages.
func WithPause(d time.Duration) Option {
	return func(p *Runner) {
		if d > 0 {
			p.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// WithAnalysisContext applies a usage context to every assessment.
func WithAnalysisContext(actx *interfaces.AnalysisContext) Option {
	return func(p *Runner) {
		p.actx = actx
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Runner) {
		p.logger = l
	}
}

// New creates a Runner. A nil assessor uses the adaptive defaults.
func New(provider interfaces.MetadataProvider, assessor *scorer.Assessor, opts ...Option) *Runner {
	r := &Runner{
		provider: provider,
		assessor: assessor,
		limiter:  rate.NewLimiter(rate.Inf, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.assessor == nil {
		r.assessor = scorer.NewAssessor(nil, nil, nil, nil)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Run analyses names in order. A failing package is recorded and the batch
// continues. Cancellation is honoured between packages only; the partial
// batch is returned together with the context error.
func (r *Runner) Run(ctx context.Context, names []string) (*interfaces.BatchResult, error) {
	if r.provider == nil {
		return nil, errors.New("pipeline: no metadata provider configured")
	}

	start := time.Now()
	batch := &interfaces.BatchResult{Results: []interfaces.PackageResult{}}

	for i, name := range names {
		err := ctx.Err()
		if err == nil {
			err = r.limiter.Wait(ctx)
		}
		if err != nil {
			batch.Duration = time.Since(start)
			return batch, fmt.Errorf("pipeline: stopped before %s: %w", name, contextErr(ctx, err))
		}

		r.logger.Info("analysing package", "package", name, "position", i+1, "total", len(names))
		res, err := r.analyse(ctx, name)
		if err != nil {
			packageFailures.Inc()
			r.logger.Warn("package analysis failed", "package", name, "error", err)
			batch.Failures = append(batch.Failures, interfaces.PackageFailure{Name: name, Error: err.Error()})
			continue
		}
		packagesAssessed.WithLabelValues(string(res.Risk.RiskLevel)).Inc()
		assessmentDuration.Observe(res.Duration.Seconds())
		batch.Results = append(batch.Results, *res)
	}

	batch.Duration = time.Since(start)
	r.logger.Info("batch complete",
		"packages", len(names),
		"assessed", len(batch.Results),
		"failed", len(batch.Failures),
		"duration", batch.Duration,
	)
	return batch, nil
}

func (r *Runner) analyse(ctx context.Context, name string) (*interfaces.PackageResult, error) {
	start := time.Now()

	snap, err := r.provider.Fetch(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("fetching metadata: %w", err)
	}
	if snap == nil {
		return nil, errors.New("provider returned no metadata")
	}
	if snap.Name == "" {
		snap.Name = name
	}

	res := &interfaces.PackageResult{
		Name:    snap.Name,
		Version: snap.Version,
		License: snap.License,
		Risk:    r.assessor.Assess(snap, r.actx),
	}

	if r.recommender != nil {
		rec, err := r.recommender.Recommend(ctx, snap, r.provider)
		if err != nil {
			r.logger.Warn("recommendation failed", "package", name, "error", err)
		} else {
			res.Recommendation = rec
		}
	}

	res.Duration = time.Since(start)
	r.logger.Debug("package analysed",
		"package", res.Name,
		"overall", res.Risk.Overall,
		"level", res.Risk.RiskLevel,
		"duration", res.Duration,
	)
	return res, nil
}

// contextErr prefers the context's own error over the limiter's wrapper.
func contextErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
