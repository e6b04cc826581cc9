// Package catalog holds the static lookup tables used by the calculators and
// the recommender: allow-lists, curated alternatives, domain tables and
// name/keyword markers. Tables are decoded from TOML and validated once.
package catalog

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

//go:embed catalog.toml
var embeddedCatalog []byte

// DomainMarker maps keyword and classifier markers to a domain tag.
type DomainMarker struct {
	Domain      string   `toml:"domain" validate:"required,lowercase"`
	Keywords    []string `toml:"keywords" validate:"required_without=Classifiers,dive,required,lowercase"`
	Classifiers []string `toml:"classifiers" validate:"dive,required"`
}

// IntentMarker maps a lower-case substring to an intent tag.
type IntentMarker struct {
	Marker string `toml:"marker" validate:"required,lowercase"`
	Intent string `toml:"intent" validate:"required,lowercase"`
}

// BucketMarkers are name substrings that place a candidate into a bucket.
type BucketMarkers struct {
	Performance []string `toml:"performance" validate:"required,min=1,dive,required,lowercase"`
	Lightweight []string `toml:"lightweight" validate:"required,min=1,dive,required,lowercase"`
	Specialized []string `toml:"specialized" validate:"required,min=1,dive,required,lowercase"`
}

// Catalog is the validated, read-only set of static tables.
type Catalog struct {
	WellKnown       []string            `toml:"well_known" validate:"required,min=1,dive,required"`
	NativeArtifacts []string            `toml:"native_artifacts" validate:"dive,required"`
	NeedsToolchain  []string            `toml:"needs_toolchain" validate:"dive,required"`
	Stopwords       []string            `toml:"stopwords" validate:"dive,required,lowercase"`
	Alternatives    map[string][]string `toml:"alternatives" validate:"dive,keys,required,endkeys,min=1,dive,required"`
	Domains         map[string][]string `toml:"domains" validate:"dive,keys,required,endkeys,min=1,dive,required"`
	DomainMarkers   []DomainMarker      `toml:"domain_marker" validate:"required,min=1,dive"`
	IntentMarkers   []IntentMarker      `toml:"intent_marker" validate:"required,min=1,dive"`
	BucketMarkers   BucketMarkers       `toml:"bucket_markers"`

	wellKnown    map[string]struct{}
	native       map[string]struct{}
	toolchain    map[string]struct{}
	stopwords    map[string]struct{}
	alternatives map[string][]string
	domains      map[string][]string
}

var validate = validator.New()

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the embedded catalog. It is decoded on first use and shared
// afterwards. Invalid embedded data is a build defect and panics.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(embeddedCatalog)
		if err != nil {
			panic(fmt.Sprintf("catalog: embedded catalog is invalid: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// LoadFile decodes and validates a catalog override file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: reading %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", path, err)
	}
	return c, nil
}

// Load decodes and validates a catalog from a reader.
func Load(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("catalog: reading: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates TOML catalog data and builds the lookup indexes.
func Parse(data []byte) (*Catalog, error) {
	c := &Catalog{}
	if err := toml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	if err := validate.Struct(c); err != nil {
		return nil, fmt.Errorf("validating catalog: %w", err)
	}
	c.index()
	return c, nil
}

func (c *Catalog) index() {
	c.wellKnown = nameSet(c.WellKnown)
	c.native = nameSet(c.NativeArtifacts)
	c.toolchain = nameSet(c.NeedsToolchain)
	c.stopwords = make(map[string]struct{}, len(c.Stopwords))
	for _, w := range c.Stopwords {
		c.stopwords[w] = struct{}{}
	}
	c.alternatives = make(map[string][]string, len(c.Alternatives))
	for k, v := range c.Alternatives {
		c.alternatives[NormalizeName(k)] = v
	}
	c.domains = make(map[string][]string, len(c.Domains))
	for k, v := range c.Domains {
		c.domains[strings.ToLower(k)] = v
	}
}

func nameSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[NormalizeName(n)] = struct{}{}
	}
	return set
}

var separatorRun = regexp.MustCompile(`[-_.]+`)

// NormalizeName folds a package name to its comparison form:
// lower-case with runs of "-", "_" and "." replaced by a single "-".
func NormalizeName(name string) string {
	return separatorRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// IsWellKnown reports whether the package is on the curated allow-list.
func (c *Catalog) IsWellKnown(name string) bool {
	_, ok := c.wellKnown[NormalizeName(name)]
	return ok
}

// ShipsNativeArtifacts reports whether the package is known to ship compiled code.
func (c *Catalog) ShipsNativeArtifacts(name string) bool {
	_, ok := c.native[NormalizeName(name)]
	return ok
}

// NeedsCompiler reports whether building the package needs a compiler toolchain.
func (c *Catalog) NeedsCompiler(name string) bool {
	_, ok := c.toolchain[NormalizeName(name)]
	return ok
}

// IsStopword reports whether a lower-case token carries no topical meaning.
func (c *Catalog) IsStopword(word string) bool {
	_, ok := c.stopwords[word]
	return ok
}

// AlternativesFor returns the curated alternatives for a package.
func (c *Catalog) AlternativesFor(name string) []string {
	return c.alternatives[NormalizeName(name)]
}

// PackagesForDomain returns the reference packages of a domain tag.
func (c *Catalog) PackagesForDomain(domain string) []string {
	return c.domains[strings.ToLower(domain)]
}

// Search returns the reference packages of the domains the terms point at.
// A term points at a domain when it names the domain or one of its marker
// keywords. Domains matching more terms come first; ties keep table order.
// A non-positive limit means no cap.
func (c *Catalog) Search(terms []string, limit int) []string {
	type hit struct {
		domain string
		score  int
	}
	var hits []hit
	for _, m := range c.DomainMarkers {
		var n int
		for _, t := range terms {
			t = strings.ToLower(strings.TrimSpace(t))
			if t != "" && (t == m.Domain || slices.Contains(m.Keywords, t)) {
				n++
			}
		}
		if n > 0 {
			hits = append(hits, hit{domain: m.Domain, score: n})
		}
	}
	slices.SortStableFunc(hits, func(a, b hit) int { return b.score - a.score })

	seen := make(map[string]struct{})
	var out []string
	for _, h := range hits {
		for _, name := range c.PackagesForDomain(h.domain) {
			if limit > 0 && len(out) == limit {
				return out
			}
			key := NormalizeName(name)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}
