// Package vcs fetches repository health signals from source-hosting platforms.
package vcs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/toyinlola/pkgrisk/pkg/interfaces"
)

const defaultTimeout = 15 * time.Second

// ErrRepoNotFound is returned when the host answers 404 for owner/repo.
var ErrRepoNotFound = errors.New("vcs: repository not found")

// RepoRef identifies a repository on a host.
type RepoRef struct {
	Host  string
	Owner string
	Repo  string
}

func (r RepoRef) String() string {
	return r.Host + "/" + r.Owner + "/" + r.Repo
}

// ParseRepoURL extracts host, owner and repository from a project URL.
// It accepts https, git+https and scp-style git@host:owner/repo forms and
// ignores trailing paths such as /tree/main or a .git suffix.
func ParseRepoURL(raw string) (RepoRef, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return RepoRef{}, false
	}

	// git@github.com:owner/repo.git
	if rest, ok := strings.CutPrefix(raw, "git@"); ok {
		host, path, found := strings.Cut(rest, ":")
		if !found {
			return RepoRef{}, false
		}
		return refFromPath(host, path)
	}

	raw = strings.TrimPrefix(raw, "git+")
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return RepoRef{}, false
	}
	return refFromPath(strings.TrimPrefix(strings.ToLower(u.Hostname()), "www."), u.Path)
}

func refFromPath(host, path string) (RepoRef, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return RepoRef{}, false
	}
	repo := strings.TrimSuffix(parts[1], ".git")
	if repo == "" {
		return RepoRef{}, false
	}
	return RepoRef{Host: strings.ToLower(host), Owner: parts[0], Repo: repo}, true
}

// Router dispatches repository lookups to the client registered for a host.
type Router struct {
	hosts map[string]interfaces.SourceHost
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{hosts: make(map[string]interfaces.SourceHost)}
}

// Register maps a host name such as "github.com" to a client.
func (r *Router) Register(host string, h interfaces.SourceHost) {
	r.hosts[strings.ToLower(host)] = h
}

// Supports reports whether a client is registered for host.
func (r *Router) Supports(host string) bool {
	_, ok := r.hosts[strings.ToLower(host)]
	return ok
}

// Lookup parses projectURL and asks the matching host for signals. It
// returns false when the URL is not a recognised repository.
func (r *Router) Lookup(ctx context.Context, projectURL string) (*interfaces.SourceHostSignals, bool, error) {
	ref, ok := ParseRepoURL(projectURL)
	if !ok {
		return nil, false, nil
	}
	h, ok := r.hosts[ref.Host]
	if !ok {
		return nil, false, nil
	}
	sig, err := h.Repository(ctx, ref.Owner, ref.Repo)
	if err != nil {
		return nil, true, err
	}
	return sig, true, nil
}

// getJSON performs an authenticated GET and decodes the JSON body into out.
func getJSON(ctx context.Context, client *http.Client, endpoint, hostName string, setAuth func(*http.Request), out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("vcs: creating %s request: %w", hostName, err)
	}
	setAuth(req)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("vcs: fetching %s repository: %w", hostName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrRepoNotFound, endpoint)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("vcs: %s repository request returned %d: %s", hostName, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("vcs: decoding %s repository: %w", hostName, err)
	}
	return nil
}
