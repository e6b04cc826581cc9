package analyzer

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/toyinlola/pkgrisk/pkg/catalog"
	"github.com/toyinlola/pkgrisk/pkg/license"
)

// MaxScore is the upper bound of every dimension score.
const MaxScore = 10.0

type options struct {
	catalog  *catalog.Catalog
	licenses *license.Resolver
	now      func() time.Time
}

// Option configures the calculators built by the package constructors.
type Option func(*options)

// WithCatalog overrides the embedded static catalog.
func WithCatalog(c *catalog.Catalog) Option {
	return func(o *options) {
		o.catalog = c
	}
}

// WithLicenses overrides the embedded license policy table.
func WithLicenses(r *license.Resolver) Option {
	return func(o *options) {
		o.licenses = r
	}
}

// WithClock fixes the reference time used for date arithmetic.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.catalog == nil {
		o.catalog = catalog.Default()
	}
	if o.licenses == nil {
		o.licenses = license.Default()
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// clampScore rounds to one decimal and clamps to [0, MaxScore].
func clampScore(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	v = math.Round(v*10) / 10
	return math.Max(0, math.Min(MaxScore, v))
}

var dateLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
}

var relativeDate = regexp.MustCompile(`^(\d+)\s+(day|week|month|year)s?\s+ago$`)

// ParseDate parses the date formats registries and source hosts emit, plus
// relative phrases such as "20 days ago" anchored at now.
func ParseDate(s string, now time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	lower := strings.ToLower(s)
	switch lower {
	case "today", "now":
		return now, true
	case "yesterday":
		return now.AddDate(0, 0, -1), true
	}
	m := relativeDate.FindStringSubmatch(lower)
	if m == nil {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, false
	}
	switch m[2] {
	case "day":
		return now.AddDate(0, 0, -n), true
	case "week":
		return now.AddDate(0, 0, -7*n), true
	case "month":
		return now.AddDate(0, -n, 0), true
	default:
		return now.AddDate(-n, 0, 0), true
	}
}

// daysSince returns whole days between t and now. Unparseable or empty dates
// are infinitely old.
func daysSince(s string, now time.Time) float64 {
	t, ok := ParseDate(s, now)
	if !ok {
		return math.Inf(1)
	}
	return now.Sub(t).Hours() / 24
}
