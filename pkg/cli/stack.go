package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/toyinlola/pkgrisk/pkg/cache"
	"github.com/toyinlola/pkgrisk/pkg/catalog"
	"github.com/toyinlola/pkgrisk/pkg/interfaces"
	"github.com/toyinlola/pkgrisk/pkg/license"
	"github.com/toyinlola/pkgrisk/pkg/profile"
	"github.com/toyinlola/pkgrisk/pkg/recommend"
	"github.com/toyinlola/pkgrisk/pkg/registry"
	"github.com/toyinlola/pkgrisk/pkg/scorer"
	"github.com/toyinlola/pkgrisk/pkg/vcs"
)

// Codeberg is registered as a Forgejo host even without configuration.
const codebergURL = "https://codeberg.org"

// Stack holds the components a command needs, built from one Config.
type Stack struct {
	Provider    interfaces.MetadataProvider
	Catalog     *catalog.Catalog
	Licenses    *license.Resolver
	Assessor    *scorer.Assessor
	Recommender *recommend.Recommender
	Cache       interfaces.Cache
}

// NewStack loads the tables, opens the cache and selects a metadata provider:
// the snapshot file when one is configured, the live registry otherwise.
func NewStack(ctx context.Context, cfg *Config, logger *slog.Logger) (*Stack, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cat, err := loadCatalog(cfg.Scoring.Catalog)
	if err != nil {
		return nil, err
	}
	lic, err := loadLicenses(cfg.Scoring.Licenses)
	if err != nil {
		return nil, err
	}
	lic = lic.WithLogger(logger)

	mode, err := scorer.ParseMode(cfg.Scoring.Weighting)
	if err != nil {
		return nil, fmt.Errorf("cli: %w", err)
	}
	assessor := scorer.NewAssessor(scorer.NewCalculator(scorer.WithMode(mode)), cat, lic, nil)
	rec := recommend.New(assessor, profile.New(cat, lic),
		recommend.WithCatalog(cat),
		recommend.WithMaxCandidates(cfg.Recommend.MaxCandidates),
		recommend.WithMaxAlternatives(cfg.Recommend.MaxAlternatives),
		recommend.WithConcurrency(cfg.Recommend.Concurrency),
		recommend.WithLogger(logger),
	)

	s := &Stack{Catalog: cat, Licenses: lic, Assessor: assessor, Recommender: rec, Cache: cache.Nop{}}

	if cfg.Providers.Snapshots != "" {
		fp, err := registry.LoadFile(cfg.Providers.Snapshots)
		if err != nil {
			return nil, fmt.Errorf("cli: %w", err)
		}
		s.Provider = fp
		logger.Debug("using snapshot file", "path", cfg.Providers.Snapshots, "packages", len(fp.Names()))
		return s, nil
	}

	c, err := cache.Open(ctx, cache.Config{
		Backend:       cfg.Cache.Backend,
		Path:          cfg.Cache.Path,
		RedisAddr:     cfg.Cache.RedisAddr,
		RedisPassword: cfg.Cache.RedisPassword,
		RedisDB:       cfg.Cache.RedisDB,
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("cli: opening cache: %w", err)
	}
	s.Cache = c

	hosts, err := sourceHosts(cfg.Providers.ForgejoURL)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	live := registry.NewLiveProvider(
		registry.NewPyPIClient(cfg.Providers.PyPIURL),
		hosts,
		registry.NewOSVClient(cfg.Providers.OSVURL, cfg.Providers.Ecosystem),
		logger,
		registry.WithSearchCatalog(cat),
	)
	s.Provider = registry.NewCachedProvider(live, c, cfg.Cache.TTL, logger)
	logger.Debug("using live providers", "pypi", cfg.Providers.PyPIURL, "osv", cfg.Providers.OSVURL, "cache", cfg.Cache.Backend)
	return s, nil
}

// Close releases the cache.
func (s *Stack) Close() error {
	if s.Cache == nil {
		return nil
	}
	return s.Cache.Close()
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	c, err := catalog.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cli: %w", err)
	}
	return c, nil
}

func loadLicenses(path string) (*license.Resolver, error) {
	if path == "" {
		return license.Default(), nil
	}
	r, err := license.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cli: %w", err)
	}
	return r, nil
}

// sourceHosts registers GitHub, Codeberg and an optional extra Forgejo server.
func sourceHosts(forgejoURL string) (*vcs.Router, error) {
	router := vcs.NewRouter()
	router.Register("github.com", vcs.NewGitHubProviderFromEnv())
	router.Register("codeberg.org", vcs.NewForgejoProviderFromEnv(codebergURL))

	if forgejoURL == "" {
		return router, nil
	}
	u, err := url.Parse(forgejoURL)
	if err != nil || u.Hostname() == "" {
		return nil, errors.Join(fmt.Errorf("cli: invalid forgejo_url %q", forgejoURL), err)
	}
	router.Register(strings.TrimPrefix(u.Hostname(), "www."), vcs.NewForgejoProviderFromEnv(forgejoURL))
	return router, nil
}
