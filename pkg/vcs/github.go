package vcs

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/toyinlola/pkgrisk/pkg/interfaces"
)

// GitHubProvider implements interfaces.SourceHost for GitHub and GitHub Enterprise.
type GitHubProvider struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewGitHubProvider creates a GitHub source host client. The token is optional
// and only raises the API rate limit.
// If baseURL is empty, it defaults to https://api.github.com.
func NewGitHubProvider(token, baseURL string) *GitHubProvider {
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	return &GitHubProvider{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// NewGitHubProviderFromEnv creates a GitHubProvider using standard environment variables.
// A missing GITHUB_TOKEN yields an unauthenticated client.
func NewGitHubProviderFromEnv() *GitHubProvider {
	baseURL := "https://api.github.com"
	if host := os.Getenv("GH_HOST"); host != "" && host != "github.com" {
		baseURL = fmt.Sprintf("https://%s/api/v3", host)
	}
	if serverURL := os.Getenv("GITHUB_API_URL"); serverURL != "" {
		baseURL = serverURL
	}
	return NewGitHubProvider(os.Getenv("GITHUB_TOKEN"), baseURL)
}

// githubRepo is the subset of GET /repos/{owner}/{repo} we read.
type githubRepo struct {
	HTMLURL         string `json:"html_url"`
	StargazersCount int    `json:"stargazers_count"`
	ForksCount      int    `json:"forks_count"`
	OpenIssuesCount int    `json:"open_issues_count"`
	PushedAt        string `json:"pushed_at"`
	CreatedAt       string `json:"created_at"`
	Archived        bool   `json:"archived"`
}

// Repository returns health signals for owner/repo.
func (g *GitHubProvider) Repository(ctx context.Context, owner, repo string) (*interfaces.SourceHostSignals, error) {
	url := fmt.Sprintf("%s/repos/%s/%s", g.baseURL, owner, repo)

	var r githubRepo
	if err := getJSON(ctx, g.httpClient, url, "GitHub", g.setAuth, &r); err != nil {
		return nil, err
	}
	return &interfaces.SourceHostSignals{
		URL:        r.HTMLURL,
		Stars:      r.StargazersCount,
		Forks:      r.ForksCount,
		OpenIssues: r.OpenIssuesCount,
		LastPush:   r.PushedAt,
		CreatedAt:  r.CreatedAt,
		Archived:   r.Archived,
	}, nil
}

func (g *GitHubProvider) setAuth(req *http.Request) {
	req.Header.Set("Accept", "application/vnd.github+json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}
}
