package catalog

import (
	"strings"
	"testing"
)

func TestDefault_LoadsEmbeddedTables(t *testing.T) {
	c := Default()
	if c == nil {
		t.Fatal("Default returned nil")
	}
	if len(c.WellKnown) == 0 {
		t.Error("expected well-known packages")
	}
	if len(c.DomainMarkers) == 0 {
		t.Error("expected domain markers")
	}
	if len(c.IntentMarkers) == 0 {
		t.Error("expected intent markers")
	}
	if Default() != c {
		t.Error("expected Default to return the shared instance")
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"requests", "requests"},
		{"Flask_SQLAlchemy", "flask-sqlalchemy"},
		{"zope.interface", "zope-interface"},
		{"  Typing__Extensions ", "typing-extensions"},
		{"a-._b", "a-b"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeName(tt.in); got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCatalog_Lookups(t *testing.T) {
	c := Default()

	if !c.IsWellKnown("Requests") {
		t.Error("expected requests to be well known")
	}
	if c.IsWellKnown("left-pad-clone") {
		t.Error("did not expect left-pad-clone to be well known")
	}
	if !c.ShipsNativeArtifacts("NumPy") {
		t.Error("expected numpy to ship native artifacts")
	}
	if !c.NeedsCompiler("psycopg2") {
		t.Error("expected psycopg2 to need a compiler")
	}
	if !c.IsStopword("with") {
		t.Error("expected 'with' to be a stopword")
	}

	alts := c.AlternativesFor("PyYAML")
	if len(alts) == 0 {
		t.Fatal("expected curated alternatives for pyyaml")
	}
	if pkgs := c.PackagesForDomain("image-processing"); len(pkgs) == 0 {
		t.Error("expected packages for image-processing domain")
	}
}

func TestParse_RejectsInvalidTables(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not toml", "well_known = [\"a\""},
		{"missing well known", `
[[domain_marker]]
domain = "x"
keywords = ["x"]
[[intent_marker]]
marker = "x"
intent = "x"
[bucket_markers]
performance = ["fast"]
lightweight = ["lite"]
specialized = ["aio"]
`},
		{"upper-case marker", `
well_known = ["requests"]
[[domain_marker]]
domain = "x"
keywords = ["X"]
[[intent_marker]]
marker = "x"
intent = "x"
[bucket_markers]
performance = ["fast"]
lightweight = ["lite"]
specialized = ["aio"]
`},
		{"marker without keywords or classifiers", `
well_known = ["requests"]
[[domain_marker]]
domain = "x"
[[intent_marker]]
marker = "x"
intent = "x"
[bucket_markers]
performance = ["fast"]
lightweight = ["lite"]
specialized = ["aio"]
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(strings.NewReader(tt.data)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestParse_MinimalCatalog(t *testing.T) {
	data := `
well_known = ["Foo_Bar"]
[alternatives]
"Old.Pkg" = ["new-pkg"]
[[domain_marker]]
domain = "x"
classifiers = ["Topic :: X"]
[[intent_marker]]
marker = "x"
intent = "x"
[bucket_markers]
performance = ["fast"]
lightweight = ["lite"]
specialized = ["aio"]
`
	c, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !c.IsWellKnown("foo-bar") {
		t.Error("expected normalized well-known lookup")
	}
	if got := c.AlternativesFor("old_pkg"); len(got) != 1 || got[0] != "new-pkg" {
		t.Errorf("unexpected alternatives: %v", got)
	}
}

func TestSearch(t *testing.T) {
	c := Default()
	tests := []struct {
		name  string
		terms []string
		limit int
		want  []string
	}{
		{"domain keyword", []string{"YAML"}, 0, []string{"pyyaml", "ruamel-yaml", "strictyaml"}},
		{"domain name", []string{"http-client"}, 2, []string{"httpx", "requests"}},
		{"unrelated", []string{"kitchen"}, 0, nil},
		{"blank", []string{" "}, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Search(tt.terms, tt.limit)
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("Search(%v) = %v, want %v", tt.terms, got, tt.want)
			}
		})
	}
}

func TestSearch_RanksByMatchedTerms(t *testing.T) {
	got := Default().Search([]string{"json", "http", "https", "client"}, 1)
	if len(got) != 1 || got[0] != "httpx" {
		t.Errorf("expected the http-client domain first, got %v", got)
	}
}
