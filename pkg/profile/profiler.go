// Package profile derives a semantic profile (short description, keywords,
// domains, intents) from a package metadata snapshot.
package profile

import (
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/toyinlola/pkgrisk/pkg/catalog"
	"github.com/toyinlola/pkgrisk/pkg/interfaces"
	"github.com/toyinlola/pkgrisk/pkg/license"
)

const (
	// MaxDescription is the rune length a short description is truncated to.
	MaxDescription = 240

	// MaxSummaryKeywords caps the tokens taken from the summary.
	MaxSummaryKeywords = 10

	// MaxIntents caps the inferred intents.
	MaxIntents = 5

	minTokenLength = 4
)

// Profiler builds PackageProfiles from snapshots using the catalog marker tables.
type Profiler struct {
	catalog  *catalog.Catalog
	licenses *license.Resolver
}

// New creates a Profiler. Nil arguments fall back to the embedded tables.
func New(c *catalog.Catalog, r *license.Resolver) *Profiler {
	if c == nil {
		c = catalog.Default()
	}
	if r == nil {
		r = license.Default()
	}
	return &Profiler{catalog: c, licenses: r}
}

// Profile derives the profile of a snapshot. A nil snapshot yields an empty profile.
func (p *Profiler) Profile(s *interfaces.MetadataSnapshot) interfaces.PackageProfile {
	if s == nil {
		return interfaces.PackageProfile{}
	}

	short := ShortDescription(s.Description)
	if short == "" {
		short = ShortDescription(s.Summary)
	}

	prof := interfaces.PackageProfile{
		Name:             s.Name,
		LicenseID:        p.licenses.Resolve(s.License).ID,
		HasSourceHost:    s.SourceHost != nil,
		ShortDescription: short,
	}
	if s.Downloads != nil {
		d := *s.Downloads
		prof.Downloads = &d
	}

	prof.Keywords = p.keywords(s)
	text := strings.ToLower(s.Summary + " " + short)
	prof.Domains = p.domains(prof.Keywords, text, s.Classifiers)
	prof.Intents = p.intents(prof.Keywords, text)
	return prof
}

var (
	keywordSplit = regexp.MustCompile(`[,;\s]+`)
	wordPattern  = regexp.MustCompile(`[a-z0-9][a-z0-9+\-]*[a-z0-9+]|[a-z0-9]`)
)

// keywords returns the explicit keywords followed by the most frequent summary tokens.
func (p *Profiler) keywords(s *interfaces.MetadataSnapshot) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(k string) {
		if k == "" {
			return
		}
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}

	for _, raw := range s.Keywords {
		for _, k := range keywordSplit.Split(strings.ToLower(raw), -1) {
			add(strings.Trim(k, `"'.()[]`))
		}
	}
	for _, k := range p.summaryTokens(s.Summary) {
		add(k)
	}
	return out
}

// summaryTokens ranks non-stopword tokens longer than three characters by
// frequency, ties broken by first occurrence.
func (p *Profiler) summaryTokens(summary string) []string {
	type token struct {
		word  string
		count int
		first int
	}
	var tokens []*token
	index := make(map[string]*token)
	for i, w := range wordPattern.FindAllString(strings.ToLower(summary), -1) {
		if utf8.RuneCountInString(w) < minTokenLength || p.catalog.IsStopword(w) {
			continue
		}
		if t, ok := index[w]; ok {
			t.count++
			continue
		}
		t := &token{word: w, count: 1, first: i}
		index[w] = t
		tokens = append(tokens, t)
	}
	slices.SortStableFunc(tokens, func(a, b *token) int {
		if a.count != b.count {
			return b.count - a.count
		}
		return a.first - b.first
	})

	out := make([]string, 0, min(len(tokens), MaxSummaryKeywords))
	for _, t := range tokens {
		if len(out) == MaxSummaryKeywords {
			break
		}
		out = append(out, t.word)
	}
	return out
}

// domains matches catalog domain markers in table order.
func (p *Profiler) domains(keywords []string, text string, classifiers []string) []string {
	words := make(map[string]struct{})
	for _, k := range keywords {
		words[k] = struct{}{}
	}
	for _, w := range wordPattern.FindAllString(text, -1) {
		words[w] = struct{}{}
	}

	var out []string
	for _, m := range p.catalog.DomainMarkers {
		if matchesDomain(m, words, classifiers) && !slices.Contains(out, m.Domain) {
			out = append(out, m.Domain)
		}
	}
	return out
}

func matchesDomain(m catalog.DomainMarker, words map[string]struct{}, classifiers []string) bool {
	for _, k := range m.Keywords {
		if _, ok := words[k]; ok {
			return true
		}
	}
	for _, marker := range m.Classifiers {
		for _, c := range classifiers {
			if strings.HasPrefix(c, marker) {
				return true
			}
		}
	}
	return false
}

// intents matches catalog intent markers in table order, capped at MaxIntents.
// A marker matches a word of the text or a keyword that starts with it.
func (p *Profiler) intents(keywords []string, text string) []string {
	words := wordPattern.FindAllString(text, -1)
	for _, k := range keywords {
		words = append(words, wordPattern.FindAllString(k, -1)...)
	}

	var out []string
	for _, m := range p.catalog.IntentMarkers {
		if len(out) == MaxIntents {
			break
		}
		if slices.Contains(out, m.Intent) {
			continue
		}
		if slices.ContainsFunc(words, func(w string) bool { return strings.HasPrefix(w, m.Marker) }) {
			out = append(out, m.Intent)
		}
	}
	return out
}
