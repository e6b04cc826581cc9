package analyzer

import (
	"strings"
	"testing"
	"time"

	"github.com/toyinlola/pkgrisk/pkg/interfaces"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestOperational() *Operational {
	return NewOperational(WithClock(func() time.Time { return fixedNow }))
}

func daysAgo(n int) string {
	return fixedNow.AddDate(0, 0, -n).Format(time.RFC3339)
}

func int64Ptr(v int64) *int64 { return &v }

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		ok   bool
		want time.Time
	}{
		{"2024-01-02T03:04:05Z", true, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		{"2024-01-02", true, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"2024-01-02 03:04:05", true, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		{"20 days ago", true, fixedNow.AddDate(0, 0, -20)},
		{"2 weeks ago", true, fixedNow.AddDate(0, 0, -14)},
		{"1 year ago", true, fixedNow.AddDate(-1, 0, 0)},
		{"", false, time.Time{}},
		{"last tuesday", false, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDate(tt.in, fixedNow)
			if ok != tt.ok {
				t.Fatalf("ParseDate(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestOperational_NoSourceHost(t *testing.T) {
	tests := []struct {
		name      string
		pkg       string
		downloads *int64
		want      float64
	}{
		{"well known", "requests", nil, 1.5},
		{"well known ignores downloads", "requests", int64Ptr(10), 1.5},
		{"no data", "obscure-pkg", nil, 3.0},
		{"10M downloads", "obscure-pkg", int64Ptr(12_000_000), 1.0},
		{"1M downloads", "obscure-pkg", int64Ptr(1_000_000), 1.5},
		{"100k downloads", "obscure-pkg", int64Ptr(100_000), 2.0},
		{"10k downloads", "obscure-pkg", int64Ptr(10_000), 2.5},
		{"5k downloads", "obscure-pkg", int64Ptr(5_000), 3.0},
		{"tiny downloads", "obscure-pkg", int64Ptr(12), 4.0},
	}
	c := newTestOperational()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Calculate(&interfaces.MetadataSnapshot{Name: tt.pkg, Downloads: tt.downloads})
			if got.Score != tt.want {
				t.Errorf("expected %v, got %v (%v)", tt.want, got.Score, got.Concerns)
			}
		})
	}
}

func TestOperational_PopularRecentlyPushed(t *testing.T) {
	snap := &interfaces.MetadataSnapshot{
		Name:       "popular",
		SourceHost: &interfaces.SourceHostSignals{Stars: 50000, Forks: 4000, LastPush: "20 days ago"},
	}
	got := newTestOperational().Calculate(snap)
	// 3.0 - 1.5 (recent) - 2.0 (stars) clamps to 0.
	if got.Score != 0 {
		t.Errorf("expected 0, got %v", got.Score)
	}
}

func TestOperational_HealthyCommunityBelowBase(t *testing.T) {
	snap := &interfaces.MetadataSnapshot{
		Name: "healthy",
		SourceHost: &interfaces.SourceHostSignals{
			Stars:      5000,
			Forks:      300,
			OpenIssues: 40,
			LastPush:   daysAgo(3),
			CreatedAt:  daysAgo(4 * 365),
		},
	}
	got := newTestOperational().Calculate(snap)
	// 3.0 - 1.5 - 1.0 - 1.0 (3y maturity)
	if got.Score != 0 {
		t.Errorf("expected 0, got %v", got.Score)
	}
	if got.Score >= 3.0 {
		t.Error("a maintained project should score below the base")
	}
}

func TestOperational_Staleness(t *testing.T) {
	tests := []struct {
		name     string
		lastPush string
		archived bool
		want     float64
	}{
		// Baseline signals: 1000 stars (-1.0), 50 forks, no issues.
		{"archived", daysAgo(5), true, 7.0},
		{"unparseable", "sometime", false, 6.0},
		{"empty", "", false, 6.0},
		{"over two years", daysAgo(800), false, 6.0},
		{"one to two years", daysAgo(400), false, 4.5},
		{"six to twelve months", daysAgo(200), false, 3.0},
		{"one to six months", daysAgo(90), false, 2.0},
		{"recent", daysAgo(10), false, 0.5},
	}
	c := newTestOperational()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := &interfaces.MetadataSnapshot{
				SourceHost: &interfaces.SourceHostSignals{Stars: 1000, Forks: 50, LastPush: tt.lastPush, Archived: tt.archived},
			}
			if got := c.Calculate(snap).Score; got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestOperational_SmallProjectPenalties(t *testing.T) {
	snap := &interfaces.MetadataSnapshot{
		Name: "tiny",
		SourceHost: &interfaces.SourceHostSignals{
			Stars:      20,
			Forks:      1,
			OpenIssues: 10,
			LastPush:   daysAgo(60),
			CreatedAt:  daysAgo(30),
		},
	}
	got := newTestOperational().Calculate(snap)
	// 3.0 + 1.0 (stars) + 1.0 (issues) + 0.5 (bus factor) + 1.0 (young)
	if got.Score != 6.5 {
		t.Errorf("expected 6.5, got %v (%v)", got.Score, got.Concerns)
	}
	joined := strings.Join(got.Concerns, "; ")
	for _, want := range []string{"small community", "open-issue", "bus factor", "six months old"} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected concern containing %q in %q", want, joined)
		}
	}
}

func TestOperational_MaturityRequiresCreationDate(t *testing.T) {
	base := interfaces.SourceHostSignals{Stars: 2000, Forks: 100, LastPush: daysAgo(60)}
	withAge := base
	withAge.CreatedAt = daysAgo(6 * 365)

	c := newTestOperational()
	without := c.Calculate(&interfaces.MetadataSnapshot{SourceHost: &base}).Score
	with := c.Calculate(&interfaces.MetadataSnapshot{SourceHost: &withAge}).Score
	if without != 2.0 {
		t.Errorf("expected 2.0 without creation date, got %v", without)
	}
	if with != 0.5 {
		t.Errorf("expected 0.5 with five-year maturity bonus, got %v", with)
	}
}

func TestOperational_PreReleaseConcern(t *testing.T) {
	tests := []struct {
		version string
		want    bool
	}{
		{"0.4.2", true},
		{"v0.1.0", true},
		{"0.9b1", true},
		{"1.0.0", false},
		{"2.31.0", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isPreRelease(tt.version); got != tt.want {
			t.Errorf("isPreRelease(%q) = %v, want %v", tt.version, got, tt.want)
		}
	}

	got := newTestOperational().Calculate(&interfaces.MetadataSnapshot{Name: "requests", Version: "0.3.0"})
	if got.Score != 1.5 {
		t.Errorf("pre-1.0 must not change the score, got %v", got.Score)
	}
	if !strings.Contains(strings.Join(got.Concerns, ";"), "pre-1.0") {
		t.Errorf("expected pre-1.0 concern, got %v", got.Concerns)
	}
}
