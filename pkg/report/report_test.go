package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/toyinlola/pkgrisk/pkg/interfaces"
)

func sampleBatch() *interfaces.BatchResult {
	return &interfaces.BatchResult{
		Results: []interfaces.PackageResult{
			{Name: "requests", Version: "2.32.3", Risk: interfaces.RiskBreakdown{Overall: 0.2, RiskLevel: interfaces.RiskMinimal, PrimaryConcern: interfaces.DimensionNone, WeightProfile: "balanced", Confidence: 100}},
			{Name: "legacy-agpl-lib", Version: "0.9", Risk: interfaces.RiskBreakdown{
				Overall:        7.8,
				Security:       10,
				RiskLevel:      interfaces.RiskCritical,
				PrimaryConcern: interfaces.DimensionSecurity,
				WeightProfile:  "security_focused",
				Confidence:     75,
				Concerns: map[interfaces.Dimension][]string{
					interfaces.DimensionSecurity:   {"2 critical vulnerabilities"},
					interfaces.DimensionCompliance: {"network copyleft license"},
				},
			}},
			{Name: "httpx", Risk: interfaces.RiskBreakdown{Overall: 0.2, RiskLevel: interfaces.RiskMinimal}},
			{Name: "orphan", Risk: interfaces.RiskBreakdown{Overall: 5.1, RiskLevel: interfaces.RiskHigh}},
		},
		Failures: []interfaces.PackageFailure{{Name: "ghost", Error: "registry: not found"}},
		Duration: 1500 * time.Millisecond,
	}
}

func fixedGenerator() *Generator {
	return &Generator{now: func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }}
}

func TestGenerate_OrdersByRiskThenName(t *testing.T) {
	rpt := fixedGenerator().Generate(sampleBatch())

	want := []string{"legacy-agpl-lib", "orphan", "httpx", "requests"}
	if len(rpt.Packages) != len(want) {
		t.Fatalf("expected %d packages, got %d", len(want), len(rpt.Packages))
	}
	for i, name := range want {
		if rpt.Packages[i].Name != name {
			t.Errorf("package %d = %s, want %s", i, rpt.Packages[i].Name, name)
		}
	}
}

func TestGenerate_DoesNotReorderInput(t *testing.T) {
	batch := sampleBatch()
	fixedGenerator().Generate(batch)
	if batch.Results[0].Name != "requests" {
		t.Errorf("input batch was reordered: first = %s", batch.Results[0].Name)
	}
}

func TestGenerate_CountsAndSummary(t *testing.T) {
	rpt := fixedGenerator().Generate(sampleBatch())

	if rpt.ID == "" {
		t.Error("report must have an id")
	}
	if !rpt.Timestamp.Equal(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected timestamp %v", rpt.Timestamp)
	}
	if rpt.Counts[interfaces.RiskMinimal] != 2 || rpt.Counts[interfaces.RiskCritical] != 1 || rpt.Counts[interfaces.RiskHigh] != 1 {
		t.Errorf("unexpected counts %+v", rpt.Counts)
	}
	wantSummary := "4 packages assessed: 1 critical, 1 high, 2 minimal; 1 failed"
	if rpt.Summary != wantSummary {
		t.Errorf("summary = %q, want %q", rpt.Summary, wantSummary)
	}
	if rpt.Duration != 1500*time.Millisecond {
		t.Errorf("duration = %v", rpt.Duration)
	}
}

func TestGenerate_NilBatch(t *testing.T) {
	rpt := fixedGenerator().Generate(nil)
	if rpt.Summary != "0 packages assessed" {
		t.Errorf("summary = %q", rpt.Summary)
	}
}

func TestBuildSummary_Singular(t *testing.T) {
	got := buildSummary(1, map[interfaces.RiskLevel]int{interfaces.RiskLow: 1}, 0)
	if got != "1 package assessed: 1 low" {
		t.Errorf("got %q", got)
	}
}

func TestAtOrAbove(t *testing.T) {
	rpt := fixedGenerator().Generate(sampleBatch())

	tests := []struct {
		level interfaces.RiskLevel
		want  int
	}{
		{interfaces.RiskCritical, 1},
		{interfaces.RiskHigh, 2},
		{interfaces.RiskModerate, 2},
		{interfaces.RiskMinimal, 4},
	}
	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			if got := AtOrAbove(rpt, tt.level); len(got) != tt.want {
				t.Errorf("AtOrAbove(%s) = %v, want %d names", tt.level, got, tt.want)
			}
		})
	}
}

func TestForName(t *testing.T) {
	for _, name := range []string{"", "terminal", "json", "markdown", "md"} {
		if _, err := ForName(name); err != nil {
			t.Errorf("ForName(%q) error: %v", name, err)
		}
	}
	if _, err := ForName("html"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestJSONFormatter_RoundTrips(t *testing.T) {
	rpt := fixedGenerator().Generate(sampleBatch())

	var buf bytes.Buffer
	if err := NewJSONFormatter().Format(&buf, rpt); err != nil {
		t.Fatal(err)
	}
	var decoded interfaces.Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.ID != rpt.ID || len(decoded.Packages) != 4 {
		t.Errorf("decoded report mismatch: %+v", decoded)
	}
}

func TestMarkdownFormatter(t *testing.T) {
	rpt := fixedGenerator().Generate(sampleBatch())
	rpt.Packages[0].Recommendation = &interfaces.Recommendation{
		Package: "legacy-agpl-lib",
		Alternatives: []interfaces.AlternativeCandidate{
			{Name: "modern-lib", Score: 84.5, Bucket: interfaces.BucketBestOverall, Justification: "80% similar to legacy-agpl-lib"},
		},
		Skipped: []string{"gone-lib"},
	}

	var buf bytes.Buffer
	if err := NewMarkdownFormatter().Format(&buf, rpt); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"# pkgrisk Report 🔴",
		rpt.Summary,
		"| **legacy-agpl-lib** 0.9 | 🔴 critical | 7.8 |",
		"- Security: 2 critical vulnerabilities",
		"- Compliance: network copyleft license",
		"| 1 | **modern-lib** | 84.5 | best-overall |",
		"gone-lib",
		"## Failed (1)",
		"- **ghost**: registry: not found",
		"*Report ID: " + rpt.ID,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown output missing %q", want)
		}
	}
	// Security concerns precede compliance concerns.
	if strings.Index(out, "Security: 2 critical") > strings.Index(out, "Compliance: network") {
		t.Error("concerns not in dimension order")
	}
}

func TestTerminalFormatter(t *testing.T) {
	rpt := fixedGenerator().Generate(sampleBatch())

	var buf bytes.Buffer
	if err := NewTerminalFormatter().Format(&buf, rpt); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"pkgrisk Dependency Risk Report",
		colorRed + "CRITICAL",
		"legacy-agpl-lib 0.9",
		"primary concern: Security",
		"FAILED (1)",
		"Report: " + rpt.ID,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("terminal output missing %q", want)
		}
	}
	if strings.Contains(out, "primary concern: none") {
		t.Error("packages without a primary concern must not print one")
	}
}

func TestFormatRecommendation(t *testing.T) {
	rec := &interfaces.Recommendation{
		Package: "requests",
		Alternatives: []interfaces.AlternativeCandidate{
			{Name: "httpx", Score: 81, Bucket: interfaces.BucketBestOverall},
			{Name: "urllib3", Score: 70, Bucket: interfaces.BucketSimilar},
		},
		Buckets: map[interfaces.Bucket][]interfaces.AlternativeCandidate{
			interfaces.BucketBestOverall: {{Name: "httpx", Score: 81}},
			interfaces.BucketSimilar:     {{Name: "urllib3", Score: 70}},
		},
	}

	var term bytes.Buffer
	if err := NewTerminalFormatter().FormatRecommendation(&term, rec); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(term.String(), "BEST-OVERALL (1)") || !strings.Contains(term.String(), "SIMILAR (1)") {
		t.Errorf("terminal recommendation missing bucket headers:\n%s", term.String())
	}
	if strings.Index(term.String(), "httpx") > strings.Index(term.String(), "urllib3") {
		t.Error("buckets not in priority order")
	}

	var md bytes.Buffer
	if err := NewMarkdownFormatter().FormatRecommendation(&md, &interfaces.Recommendation{Package: "x"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(md.String(), "No alternatives found") {
		t.Errorf("expected empty notice, got %q", md.String())
	}
}
