package registry

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strings"

	"github.com/toyinlola/pkgrisk/pkg/catalog"
	"github.com/toyinlola/pkgrisk/pkg/interfaces"
)

// DefaultPyPIURL is the public PyPI JSON API.
const DefaultPyPIURL = "https://pypi.org"

// maxInlineLicense is the longest license field taken as an identifier rather
// than as pasted license text.
const maxInlineLicense = 100

// PyPIClient reads package metadata from the PyPI JSON API.
type PyPIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewPyPIClient creates a client. An empty baseURL uses DefaultPyPIURL.
func NewPyPIClient(baseURL string) *PyPIClient {
	if baseURL == "" {
		baseURL = DefaultPyPIURL
	}
	return &PyPIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newHTTPClient(),
	}
}

// Project is a registry snapshot plus the project links used to locate the
// source repository.
type Project struct {
	Snapshot *interfaces.MetadataSnapshot
	// URLs lists project links, most likely source repository first.
	URLs []string
}

type pypiResponse struct {
	Info struct {
		Name              string            `json:"name"`
		Version           string            `json:"version"`
		License           string            `json:"license"`
		LicenseExpression string            `json:"license_expression"`
		Author            string            `json:"author"`
		AuthorEmail       string            `json:"author_email"`
		Summary           string            `json:"summary"`
		Description       string            `json:"description"`
		Keywords          string            `json:"keywords"`
		Classifiers       []string          `json:"classifiers"`
		RequiresDist      []string          `json:"requires_dist"`
		HomePage          string            `json:"home_page"`
		ProjectURLs       map[string]string `json:"project_urls"`
	} `json:"info"`
	URLs []struct {
		UploadTime string `json:"upload_time_iso_8601"`
	} `json:"urls"`
}

// Fetch implements interfaces.MetadataProvider with registry data only.
func (c *PyPIClient) Fetch(ctx context.Context, name string) (*interfaces.MetadataSnapshot, error) {
	p, err := c.Project(ctx, name)
	if err != nil {
		return nil, err
	}
	return p.Snapshot, nil
}

// Project fetches GET {base}/pypi/{name}/json.
func (c *PyPIClient) Project(ctx context.Context, name string) (*Project, error) {
	endpoint := fmt.Sprintf("%s/pypi/%s/json", c.baseURL, url.PathEscape(name))

	var r pypiResponse
	if err := doJSON(ctx, c.httpClient, http.MethodGet, endpoint, nil, &r); err != nil {
		return nil, err
	}

	info := r.Info
	s := &interfaces.MetadataSnapshot{
		Name:                  info.Name,
		Version:               info.Version,
		License:               pickLicense(info.LicenseExpression, info.License, info.Classifiers),
		Author:                info.Author,
		Summary:               info.Summary,
		Description:           info.Description,
		Classifiers:           info.Classifiers,
		DirectDependencyNames: RequirementNames(info.RequiresDist),
	}
	if s.Name == "" {
		s.Name = name
	}
	if s.Author == "" {
		s.Author = info.AuthorEmail
	}
	if kw := strings.TrimSpace(info.Keywords); kw != "" {
		s.Keywords = []string{kw}
	}
	if len(r.URLs) > 0 {
		s.ReleaseDate = r.URLs[0].UploadTime
	}
	if s.DirectDependencyNames == nil {
		s.DirectDependencyNames = []string{}
	}

	return &Project{Snapshot: s, URLs: projectLinks(info.ProjectURLs, info.HomePage)}, nil
}

// pickLicense prefers the SPDX expression, then a short license field, then
// the first license classifier.
func pickLicense(expression, field string, classifiers []string) string {
	if e := strings.TrimSpace(expression); e != "" {
		return e
	}
	if f := strings.TrimSpace(field); f != "" && len(f) <= maxInlineLicense && !strings.Contains(f, "\n") {
		return f
	}
	for _, cl := range classifiers {
		if strings.HasPrefix(cl, "License :: ") {
			return cl
		}
	}
	return ""
}

// sourceLinkKeys ranks project_urls labels by how likely they point at the
// source repository.
var sourceLinkKeys = []string{"source", "source code", "repository", "code", "github", "homepage", "home"}

func projectLinks(links map[string]string, homePage string) []string {
	var out []string
	add := func(u string) {
		u = strings.TrimSpace(u)
		if u != "" && !slices.Contains(out, u) {
			out = append(out, u)
		}
	}

	lowered := make(map[string]string, len(links))
	labels := make([]string, 0, len(links))
	for k, v := range links {
		lowered[strings.ToLower(k)] = v
		labels = append(labels, k)
	}
	for _, key := range sourceLinkKeys {
		add(lowered[key])
	}
	add(homePage)

	slices.Sort(labels)
	for _, k := range labels {
		add(links[k])
	}
	return out
}

// requirementName matches the distribution name at the start of a PEP 508
// requirement string.
var requirementName = regexp.MustCompile(`^\s*([A-Za-z0-9][A-Za-z0-9._-]*)`)

var extraMarker = regexp.MustCompile(`\bextra\s*==`)

// RequirementNames extracts direct dependency names from requires_dist,
// skipping requirements that only apply to an extra. Names are deduplicated
// by normalized form and keep their first spelling.
func RequirementNames(requires []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, req := range requires {
		spec, marker, _ := strings.Cut(req, ";")
		if extraMarker.MatchString(marker) {
			continue
		}
		m := requirementName.FindStringSubmatch(spec)
		if m == nil {
			continue
		}
		key := catalog.NormalizeName(m[1])
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, m[1])
	}
	return out
}
