package registry

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/toyinlola/pkgrisk/pkg/cache"
	"github.com/toyinlola/pkgrisk/pkg/interfaces"
)

// DefaultSnapshotTTL is how long cached snapshots stay fresh.
const DefaultSnapshotTTL = 6 * time.Hour

const snapshotNamespace = "snapshot"

// CachedProvider memoises snapshots from another provider as JSON. Cache
// errors are logged and bypassed.
type CachedProvider struct {
	inner  interfaces.MetadataProvider
	cache  interfaces.Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedProvider wraps inner. A non-positive ttl uses DefaultSnapshotTTL.
func NewCachedProvider(inner interfaces.MetadataProvider, c interfaces.Cache, ttl time.Duration, logger *slog.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedProvider{inner: inner, cache: c, ttl: ttl, logger: logger}
}

// Fetch implements interfaces.MetadataProvider.
func (p *CachedProvider) Fetch(ctx context.Context, name string) (*interfaces.MetadataSnapshot, error) {
	key := cache.Key(snapshotNamespace, name)

	data, ok, err := p.cache.Get(ctx, key)
	switch {
	case err != nil:
		p.logger.WarnContext(ctx, "cache read failed", "key", key, "error", err)
	case ok:
		var s interfaces.MetadataSnapshot
		if err := json.Unmarshal(data, &s); err == nil {
			p.logger.DebugContext(ctx, "snapshot cache hit", "package", name)
			return &s, nil
		}
		p.logger.WarnContext(ctx, "discarding corrupt cache entry", "key", key)
	}

	s, err := p.inner.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(s); err == nil {
		if err := p.cache.Set(ctx, key, data, p.ttl); err != nil {
			p.logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
		}
	}
	return s, nil
}

// Search forwards to the wrapped provider when it can search.
func (p *CachedProvider) Search(ctx context.Context, terms []string, limit int) ([]string, error) {
	if s, ok := p.inner.(interfaces.Searcher); ok {
		return s.Search(ctx, terms, limit)
	}
	return nil, nil
}
