// Package recommend discovers, scores, buckets and ranks substitute packages.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/toyinlola/pkgrisk/pkg/catalog"
	"github.com/toyinlola/pkgrisk/pkg/interfaces"
	"github.com/toyinlola/pkgrisk/pkg/profile"
	"github.com/toyinlola/pkgrisk/pkg/scorer"
	"github.com/toyinlola/pkgrisk/pkg/similarity"
)

// Defaults.
const (
	DefaultMaxCandidates   = 15
	DefaultMaxAlternatives = 10
	DefaultConcurrency     = 4

	// BestOverallThreshold is the total score that earns the best-overall bucket.
	BestOverallThreshold = 80.0

	searchTermLimit = 5
)

// Factor weights of the candidate total.
const (
	SimilarityFactor  = 0.4
	PopularityFactor  = 0.2
	MaintenanceFactor = 0.2
	SecurityFactor    = 0.1
	LicenseFactor     = 0.1
)

// Recommender turns a subject snapshot into ranked, bucketed alternatives.
type Recommender struct {
	catalog         *catalog.Catalog
	profiler        *profile.Profiler
	assessor        *scorer.Assessor
	maxCandidates   int
	maxAlternatives int
	concurrency     int
	logger          *slog.Logger
}

// Option configures the Recommender.
type Option func(*Recommender)

// WithCatalog overrides the embedded catalog used for discovery and buckets.
func WithCatalog(c *catalog.Catalog) Option {
	return func(r *Recommender) {
		r.catalog = c
	}
}

// WithMaxCandidates caps the number of discovered candidates.
func WithMaxCandidates(n int) Option {
	return func(r *Recommender) {
		r.maxCandidates = n
	}
}

// WithMaxAlternatives caps the number of ranked alternatives returned.
func WithMaxAlternatives(n int) Option {
	return func(r *Recommender) {
		r.maxAlternatives = n
	}
}

// WithConcurrency bounds parallel candidate fetches.
func WithConcurrency(n int) Option {
	return func(r *Recommender) {
		r.concurrency = n
	}
}

// WithLogger sets the logger used for skipped candidates.
func WithLogger(l *slog.Logger) Option {
	return func(r *Recommender) {
		r.logger = l
	}
}

// New creates a Recommender. Nil collaborators fall back to defaults built
// on the embedded tables.
func New(assessor *scorer.Assessor, profiler *profile.Profiler, opts ...Option) *Recommender {
	r := &Recommender{
		assessor:        assessor,
		profiler:        profiler,
		maxCandidates:   DefaultMaxCandidates,
		maxAlternatives: DefaultMaxAlternatives,
		concurrency:     DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.catalog == nil {
		r.catalog = catalog.Default()
	}
	if r.assessor == nil {
		r.assessor = scorer.NewAssessor(nil, r.catalog, nil, nil)
	}
	if r.profiler == nil {
		r.profiler = profile.New(r.catalog, nil)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.concurrency < 1 {
		r.concurrency = 1
	}
	return r
}

// Recommend discovers candidates for subject, fetches and scores each through
// provider, and returns the ranked result. A candidate whose fetch fails is
// skipped and listed in Skipped.
func (r *Recommender) Recommend(ctx context.Context, subject *interfaces.MetadataSnapshot, provider interfaces.MetadataProvider) (*interfaces.Recommendation, error) {
	if subject == nil {
		return nil, errors.New("recommend: subject snapshot must not be nil")
	}
	if provider == nil {
		return nil, errors.New("recommend: provider must not be nil")
	}

	subj := r.profiler.Profile(subject)
	names := r.Discover(ctx, subj, provider)
	r.logger.Debug("candidates discovered", "package", subject.Name, "count", len(names))

	snapshots, skipped := r.fetch(ctx, names, provider)

	var candidates []interfaces.AlternativeCandidate
	for _, s := range snapshots {
		if s != nil {
			candidates = append(candidates, r.ScoreCandidate(subj, s))
		}
	}

	ranked := Rank(candidates, r.maxAlternatives)
	return &interfaces.Recommendation{
		Package:      subject.Name,
		Alternatives: ranked,
		Buckets:      GroupBuckets(ranked),
		Skipped:      skipped,
	}, nil
}

// Discover merges curated alternatives, domain tables and search results.
// Names are deduplicated by normalized form, the subject is excluded, and the
// list is capped at the configured maximum.
func (r *Recommender) Discover(ctx context.Context, subject interfaces.PackageProfile, provider interfaces.MetadataProvider) []string {
	self := catalog.NormalizeName(subject.Name)
	seen := map[string]struct{}{self: {}}
	var out []string
	add := func(names []string) {
		for _, n := range names {
			if len(out) >= r.maxCandidates {
				return
			}
			key := catalog.NormalizeName(n)
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, n)
		}
	}

	add(r.catalog.AlternativesFor(subject.Name))
	for _, d := range subject.Domains {
		add(r.catalog.PackagesForDomain(d))
	}

	if searcher, ok := provider.(interfaces.Searcher); ok && len(out) < r.maxCandidates {
		terms := searchTerms(subject)
		if len(terms) > 0 {
			found, err := searcher.Search(ctx, terms, r.maxCandidates)
			if err != nil {
				r.logger.Warn("candidate search failed", "package", subject.Name, "error", err)
			} else {
				add(found)
			}
		}
	}
	return out
}

func searchTerms(p interfaces.PackageProfile) []string {
	terms := slices.Clone(p.Keywords[:min(len(p.Keywords), searchTermLimit)])
	for _, d := range p.Domains {
		if !slices.Contains(terms, d) {
			terms = append(terms, d)
		}
	}
	return terms
}

// fetch retrieves candidate snapshots with bounded concurrency. Results keep
// discovery order.
func (r *Recommender) fetch(ctx context.Context, names []string, provider interfaces.MetadataProvider) ([]*interfaces.MetadataSnapshot, []string) {
	snapshots := make([]*interfaces.MetadataSnapshot, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, name := range names {
		g.Go(func() error {
			s, err := provider.Fetch(gctx, name)
			if err != nil {
				r.logger.Warn("skipping candidate", "candidate", name, "error", err)
				return nil
			}
			if s != nil && s.Name == "" {
				named := *s
				named.Name = name
				s = &named
			}
			snapshots[i] = s
			return nil
		})
	}
	// Fetch errors are absorbed above, so Wait cannot fail.
	_ = g.Wait()

	var skipped []string
	for i, s := range snapshots {
		if s == nil {
			skipped = append(skipped, names[i])
		}
	}
	return snapshots, skipped
}

// ScoreCandidate profiles and assesses a candidate and scores it against the subject.
func (r *Recommender) ScoreCandidate(subject interfaces.PackageProfile, s *interfaces.MetadataSnapshot) interfaces.AlternativeCandidate {
	prof := r.profiler.Profile(s)
	risk := r.assessor.Assess(s, nil)

	factors := interfaces.FactorScores{
		Similarity:  similarity.Score(subject, prof),
		Popularity:  Popularity(s),
		Maintenance: inverted(risk.Operational),
		Security:    inverted(risk.Security),
		License:     inverted(risk.Compliance),
	}
	c := interfaces.AlternativeCandidate{
		Name:      s.Name,
		LicenseID: prof.LicenseID,
		Factors:   factors,
		Score:     Total(factors),
		Risk:      &risk,
	}
	c.Bucket = AssignBucket(c, r.catalog.BucketMarkers)
	c.Justification = justify(subject, c)
	return c
}

// Total combines the factor scores into a 0-100 total rounded to one decimal.
func Total(f interfaces.FactorScores) float64 {
	t := SimilarityFactor*f.Similarity +
		PopularityFactor*f.Popularity +
		MaintenanceFactor*f.Maintenance +
		SecurityFactor*f.Security +
		LicenseFactor*f.License
	return clamp100(math.Round(t*10) / 10)
}

// Popularity scores reach from downloads (log10(d)/7) or, without download
// figures, from stars (log10(s+1)/5), scaled to 0-100.
func Popularity(s *interfaces.MetadataSnapshot) float64 {
	switch {
	case s.Downloads != nil && *s.Downloads > 0:
		return clamp100(math.Log10(float64(*s.Downloads)) / 7 * 100)
	case s.SourceHost != nil:
		return clamp100(math.Log10(float64(s.SourceHost.Stars)+1) / 5 * 100)
	}
	return 0
}

func inverted(dim float64) float64 {
	return clamp100((10 - dim) * 10)
}

func clamp100(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

// AssignBucket returns the first matching bucket in fixed priority order:
// best-overall, performance, lightweight, specialized, similar.
func AssignBucket(c interfaces.AlternativeCandidate, m catalog.BucketMarkers) interfaces.Bucket {
	name := catalog.NormalizeName(c.Name)
	switch {
	case c.Score >= BestOverallThreshold:
		return interfaces.BucketBestOverall
	case containsAny(name, m.Performance):
		return interfaces.BucketPerformance
	case containsAny(name, m.Lightweight):
		return interfaces.BucketLightweight
	case containsAny(name, m.Specialized):
		return interfaces.BucketSpecialized
	default:
		return interfaces.BucketSimilar
	}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// Rank orders candidates by total descending, then name ascending, and keeps
// at most limit entries. A non-positive limit keeps all.
func Rank(cands []interfaces.AlternativeCandidate, limit int) []interfaces.AlternativeCandidate {
	out := slices.Clone(cands)
	slices.SortStableFunc(out, func(a, b interfaces.AlternativeCandidate) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []interfaces.AlternativeCandidate{}
	}
	return out
}

// GroupBuckets maps every bucket to its candidates, preserving rank order.
// Buckets without candidates map to an empty slice.
func GroupBuckets(ranked []interfaces.AlternativeCandidate) map[interfaces.Bucket][]interfaces.AlternativeCandidate {
	groups := make(map[interfaces.Bucket][]interfaces.AlternativeCandidate, len(interfaces.Buckets))
	for _, b := range interfaces.Buckets {
		groups[b] = []interfaces.AlternativeCandidate{}
	}
	for _, c := range ranked {
		groups[c.Bucket] = append(groups[c.Bucket], c)
	}
	return groups
}

func justify(subject interfaces.PackageProfile, c interfaces.AlternativeCandidate) string {
	parts := []string{fmt.Sprintf("%.0f%% similar to %s", c.Factors.Similarity, subject.Name)}

	switch {
	case c.LicenseID == "" || c.LicenseID == interfaces.UnknownLicenseID:
		parts = append(parts, "license unknown")
	case c.LicenseID == subject.LicenseID:
		parts = append(parts, fmt.Sprintf("same license (%s)", c.LicenseID))
	default:
		parts = append(parts, fmt.Sprintf("%s license", c.LicenseID))
	}

	ops := c.Risk.Operational
	switch {
	case ops <= 3:
		parts = append(parts, "actively maintained")
	case ops >= 6:
		parts = append(parts, fmt.Sprintf("maintenance concerns (%.1f/10)", ops))
	default:
		parts = append(parts, "moderately maintained")
	}

	if c.Risk.Security == 0 {
		parts = append(parts, "no known vulnerabilities")
	} else {
		parts = append(parts, fmt.Sprintf("security risk %.1f/10", c.Risk.Security))
	}
	return strings.Join(parts, "; ")
}
