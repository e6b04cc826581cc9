package registry

import (
	"context"
	"log/slog"

	"github.com/toyinlola/pkgrisk/pkg/catalog"
	"github.com/toyinlola/pkgrisk/pkg/interfaces"
)

// ProjectSource returns a registry snapshot with its project links.
type ProjectSource interface {
	Project(ctx context.Context, name string) (*Project, error)
}

// VulnerabilitySource reports known vulnerabilities for a release.
type VulnerabilitySource interface {
	Query(ctx context.Context, name, version string) (*interfaces.VulnerabilitySummary, error)
}

// RepositoryLookup resolves a project URL to source host signals. The bool
// is false when the URL is not a recognised repository.
type RepositoryLookup interface {
	Lookup(ctx context.Context, projectURL string) (*interfaces.SourceHostSignals, bool, error)
}

// LiveProvider assembles snapshots from the package registry, the source host
// and the vulnerability database. Only a registry failure is an error; the
// other sources degrade to absent data.
//
// PyPI has no search API, so Search answers from the catalog's domain tables.
type LiveProvider struct {
	registry ProjectSource
	hosts    RepositoryLookup
	vulns    VulnerabilitySource
	catalog  *catalog.Catalog
	logger   *slog.Logger
}

// LiveOption configures a LiveProvider.
type LiveOption func(*LiveProvider)

// WithSearchCatalog sets the catalog Search draws from. Defaults to
// catalog.Default().
func WithSearchCatalog(c *catalog.Catalog) LiveOption {
	return func(p *LiveProvider) {
		if c != nil {
			p.catalog = c
		}
	}
}

// NewLiveProvider wires the sources. hosts and vulns may be nil.
func NewLiveProvider(registry ProjectSource, hosts RepositoryLookup, vulns VulnerabilitySource, logger *slog.Logger, opts ...LiveOption) *LiveProvider {
	if logger == nil {
		logger = slog.Default()
	}
	p := &LiveProvider{registry: registry, hosts: hosts, vulns: vulns, catalog: catalog.Default(), logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Search implements interfaces.Searcher over the catalog's domain tables.
func (p *LiveProvider) Search(ctx context.Context, terms []string, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.catalog.Search(terms, limit), nil
}

// Fetch implements interfaces.MetadataProvider.
func (p *LiveProvider) Fetch(ctx context.Context, name string) (*interfaces.MetadataSnapshot, error) {
	project, err := p.registry.Project(ctx, name)
	if err != nil {
		return nil, err
	}
	s := project.Snapshot

	if p.hosts != nil {
		s.SourceHost = p.sourceHost(ctx, s.Name, project.URLs)
	}

	if p.vulns != nil {
		summary, err := p.vulns.Query(ctx, s.Name, s.Version)
		if err != nil {
			p.logger.WarnContext(ctx, "vulnerability lookup failed", "package", s.Name, "error", err)
		} else {
			s.Vulnerabilities = summary
		}
	}
	return s, nil
}

// sourceHost tries project links in order and stops at the first recognised
// repository, whether or not its lookup succeeds.
func (p *LiveProvider) sourceHost(ctx context.Context, name string, links []string) *interfaces.SourceHostSignals {
	for _, link := range links {
		sig, ok, err := p.hosts.Lookup(ctx, link)
		if !ok {
			continue
		}
		if err != nil {
			p.logger.WarnContext(ctx, "source host lookup failed", "package", name, "url", link, "error", err)
			return nil
		}
		if sig.URL == "" {
			sig.URL = link
		}
		return sig
	}
	p.logger.DebugContext(ctx, "no source repository recognised", "package", name)
	return nil
}
