package profile

import (
	"slices"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/toyinlola/pkgrisk/pkg/interfaces"
)

func int64Ptr(v int64) *int64 { return &v }

func TestShortDescription(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "   ", ""},
		{"plain", "A tiny HTTP client.", "A tiny HTTP client."},
		{
			"markdown heading and badges",
			"# Requests\n\n[![Build](https://ci/badge.svg)](https://ci)\n\n**Requests** is a simple, [elegant](https://x) HTTP library.\n\nSecond paragraph.",
			"Requests is a simple, elegant HTTP library.",
		},
		{
			"rst title and link",
			"Requests\n========\n\n.. image:: https://badge\n\n`Requests <https://requests.readthedocs.io>`_ is an HTTP library.\n",
			"Requests is an HTTP library.",
		},
		{
			"html",
			"<p>Fast <b>JSON</b> parser &amp; encoder</p>\n\n<p>More</p>",
			"Fast JSON parser & encoder",
		},
		{
			"code fence skipped",
			"```python\nimport x\n```\n\nDoes things.",
			"Does things.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShortDescription(tt.in); got != tt.want {
				t.Errorf("ShortDescription() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShortDescription_Truncates(t *testing.T) {
	long := strings.Repeat("lorem ipsum ", 60)
	got := ShortDescription(long)
	if utf8.RuneCountInString(got) > MaxDescription {
		t.Errorf("length %d exceeds %d", utf8.RuneCountInString(got), MaxDescription)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis, got %q", got)
	}
	if strings.HasSuffix(strings.TrimSuffix(got, "..."), " ") {
		t.Errorf("expected cut on a word boundary, got %q", got)
	}
}

func TestProfile_NilSnapshot(t *testing.T) {
	p := New(nil, nil)
	got := p.Profile(nil)
	if got.Name != "" || len(got.Keywords) != 0 {
		t.Errorf("expected empty profile, got %+v", got)
	}
}

func TestProfile_ImageLibrary(t *testing.T) {
	p := New(nil, nil)
	snap := &interfaces.MetadataSnapshot{
		Name:        "pillow",
		License:     "HPND-like custom",
		Summary:     "Python Imaging Library fork for image processing and image resizing",
		Keywords:    []string{"Imaging, photo"},
		Classifiers: []string{"Topic :: Multimedia :: Graphics :: Capture"},
		Downloads:   int64Ptr(5_000_000),
		SourceHost:  &interfaces.SourceHostSignals{Stars: 12000},
	}

	got := p.Profile(snap)

	if got.Name != "pillow" {
		t.Errorf("Name = %q", got.Name)
	}
	if got.LicenseID != interfaces.UnknownLicenseID {
		t.Errorf("LicenseID = %q, want UNKNOWN", got.LicenseID)
	}
	if !got.HasSourceHost {
		t.Error("expected HasSourceHost")
	}
	if got.Downloads == nil || *got.Downloads != 5_000_000 {
		t.Errorf("Downloads = %v", got.Downloads)
	}
	if len(got.Keywords) < 3 || got.Keywords[0] != "imaging" || got.Keywords[1] != "photo" {
		t.Errorf("explicit keywords should come first, got %v", got.Keywords)
	}
	// "image" appears twice in the summary so it outranks single tokens.
	if got.Keywords[2] != "image" {
		t.Errorf("expected most frequent summary token third, got %v", got.Keywords)
	}
	if !slices.Contains(got.Domains, "image-processing") {
		t.Errorf("expected image-processing domain, got %v", got.Domains)
	}
	if !slices.Contains(got.Intents, "image-manipulation") {
		t.Errorf("expected image-manipulation intent, got %v", got.Intents)
	}
	if got.ShortDescription == "" {
		t.Error("expected summary fallback for short description")
	}
}

func TestProfile_KeywordsDeduplicatedAndCapped(t *testing.T) {
	p := New(nil, nil)
	snap := &interfaces.MetadataSnapshot{
		Name:     "x",
		Keywords: []string{"json", "JSON fast"},
		Summary:  "alpha bravo charlie delta echoes foxtrot golfer hotel india juliet kilos limas json",
	}
	got := p.Profile(snap)

	seen := map[string]bool{}
	for _, k := range got.Keywords {
		if seen[k] {
			t.Errorf("duplicate keyword %q in %v", k, got.Keywords)
		}
		seen[k] = true
	}
	// 2 explicit + at most 10 summary tokens, "json" deduplicated.
	if len(got.Keywords) > 12 {
		t.Errorf("too many keywords: %v", got.Keywords)
	}
	if got.Keywords[0] != "json" || got.Keywords[1] != "fast" {
		t.Errorf("unexpected leading keywords %v", got.Keywords)
	}
}

func TestProfile_IntentsCapped(t *testing.T) {
	p := New(nil, nil)
	snap := &interfaces.MetadataSnapshot{
		Name:    "kitchen-sink",
		License: "MIT",
		Summary: "parse http json validate test async image scrape encrypt plot template",
	}
	got := p.Profile(snap)
	if len(got.Intents) != MaxIntents {
		t.Fatalf("expected %d intents, got %v", MaxIntents, got.Intents)
	}
	if got.Intents[0] != "parsing" {
		t.Errorf("expected first intent parsing, got %v", got.Intents)
	}
	if got.LicenseID != "MIT" {
		t.Errorf("LicenseID = %q", got.LicenseID)
	}
}

func TestProfile_IntentsMatchWordPrefixes(t *testing.T) {
	p := New(nil, nil)
	got := p.Profile(&interfaces.MetadataSnapshot{
		Name:    "swatches",
		Summary: "The latest colour technology catalog for designers",
	})
	for _, intent := range got.Intents {
		if intent == "testing" || intent == "logging" {
			t.Errorf("unexpected intent %q from words that only contain a marker, got %v", intent, got.Intents)
		}
	}

	got = p.Profile(&interfaces.MetadataSnapshot{
		Name:    "loguru",
		Summary: "Logging made simple, with testable sinks",
	})
	if !slices.Contains(got.Intents, "logging") || !slices.Contains(got.Intents, "testing") {
		t.Errorf("expected logging and testing intents, got %v", got.Intents)
	}
}

func TestProfile_Deterministic(t *testing.T) {
	p := New(nil, nil)
	snap := &interfaces.MetadataSnapshot{
		Name:    "requests",
		Summary: "Python HTTP for Humans. Requests for http clients",
	}
	a := p.Profile(snap)
	b := p.Profile(snap)
	if !slices.Equal(a.Keywords, b.Keywords) || !slices.Equal(a.Domains, b.Domains) || !slices.Equal(a.Intents, b.Intents) {
		t.Error("expected identical profiles")
	}
}
