package interfaces

import (
	"context"
	"time"
)

// MetadataProvider retrieves metadata snapshots for packages.
// Implementations wrap registries, snapshot files, or caches.
type MetadataProvider interface {
	// Fetch returns the snapshot for the named package.
	Fetch(ctx context.Context, name string) (*MetadataSnapshot, error)
}

// Searcher is implemented by providers that can look up packages by topic.
// The recommender uses it as its keyword/classifier-driven discovery source.
type Searcher interface {
	// Search returns package names matching any of the terms, best matches first.
	Search(ctx context.Context, terms []string, limit int) ([]string, error)
}

// SourceHost abstracts source-hosting platforms (GitHub, Forgejo, Gitea).
type SourceHost interface {
	// Repository returns health signals for owner/repo.
	Repository(ctx context.Context, owner, repo string) (*SourceHostSignals, error)
}

// Cache is the injected key/value capability used to memoise retrieved metadata.
// The scoring core never touches it; only providers do.
type Cache interface {
	// Get returns the value stored under key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key. A zero ttl keeps the entry until evicted.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Close releases the backend.
	Close() error
}

// Pipeline orchestrates the sequential per-package workflow.
type Pipeline interface {
	// Run analyses every named package in order and never aborts on a single failure.
	Run(ctx context.Context, names []string) (*BatchResult, error)
}
