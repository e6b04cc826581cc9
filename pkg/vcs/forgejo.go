package vcs

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/toyinlola/pkgrisk/pkg/interfaces"
)

// ForgejoProvider implements interfaces.SourceHost for Forgejo and Gitea instances.
type ForgejoProvider struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewForgejoProvider creates a Forgejo/Gitea source host client.
// baseURL should be the Forgejo/Gitea server URL (e.g., https://codeberg.org).
func NewForgejoProvider(token, baseURL string) *ForgejoProvider {
	baseURL = strings.TrimRight(baseURL, "/")

	return &ForgejoProvider{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// NewForgejoProviderFromEnv creates a ForgejoProvider for serverURL using
// FORGEJO_TOKEN or GITEA_TOKEN when set.
func NewForgejoProviderFromEnv(serverURL string) *ForgejoProvider {
	token := os.Getenv("FORGEJO_TOKEN")
	if token == "" {
		token = os.Getenv("GITEA_TOKEN")
	}
	return NewForgejoProvider(token, serverURL)
}

// forgejoRepo is the subset of GET /api/v1/repos/{owner}/{repo} we read.
// Forgejo has no pushed_at; updated_at moves on every push.
type forgejoRepo struct {
	HTMLURL         string `json:"html_url"`
	StarsCount      int    `json:"stars_count"`
	ForksCount      int    `json:"forks_count"`
	OpenIssuesCount int    `json:"open_issues_count"`
	UpdatedAt       string `json:"updated_at"`
	CreatedAt       string `json:"created_at"`
	Archived        bool   `json:"archived"`
}

// Repository returns health signals for owner/repo.
func (f *ForgejoProvider) Repository(ctx context.Context, owner, repo string) (*interfaces.SourceHostSignals, error) {
	url := fmt.Sprintf("%s/api/v1/repos/%s/%s", f.baseURL, owner, repo)

	var r forgejoRepo
	if err := getJSON(ctx, f.httpClient, url, "Forgejo", f.setAuth, &r); err != nil {
		return nil, err
	}
	return &interfaces.SourceHostSignals{
		URL:        r.HTMLURL,
		Stars:      r.StarsCount,
		Forks:      r.ForksCount,
		OpenIssues: r.OpenIssuesCount,
		LastPush:   r.UpdatedAt,
		CreatedAt:  r.CreatedAt,
		Archived:   r.Archived,
	}, nil
}

func (f *ForgejoProvider) setAuth(req *http.Request) {
	if f.token != "" {
		req.Header.Set("Authorization", "token "+f.token)
	}
}
