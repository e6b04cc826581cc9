// Package cache provides the key/value backends providers use to memoise
// registry, source-host and vulnerability responses.
//
// Three backends are available:
//
//	memory  ristretto, process-local, lost on exit
//	badger  embedded on-disk store, survives restarts
//	redis   shared between processes and hosts
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/toyinlola/pkgrisk/pkg/catalog"
	"github.com/toyinlola/pkgrisk/pkg/interfaces"
)

// Backend names.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendRedis  = "redis"
)

// KeyPrefix namespaces every key written by pkgrisk.
const KeyPrefix = "pkgrisk"

// Config selects and configures a backend.
type Config struct {
	Backend string
	// Path is the badger directory. Empty runs badger in memory.
	Path string
	// RedisAddr is host:port of the redis server.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// MaxCost bounds the memory backend in bytes.
	MaxCost int64
	Logger  *slog.Logger
}

// Open builds the configured backend. An empty backend name means none.
func Open(ctx context.Context, cfg Config) (interfaces.Cache, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	switch strings.ToLower(cfg.Backend) {
	case "", BackendNone:
		return Nop{}, nil
	case BackendMemory:
		return NewMemory(cfg.MaxCost)
	case BackendBadger:
		return NewBadger(cfg.Path, logger)
	case BackendRedis:
		return DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
	default:
		return nil, fmt.Errorf("cache: unknown backend %q", cfg.Backend)
	}
}

// Key builds a namespaced key such as "pkgrisk:pypi:python-dateutil".
func Key(namespace, name string) string {
	return KeyPrefix + ":" + namespace + ":" + catalog.NormalizeName(name)
}

// Nop is a cache that stores nothing.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (Nop) Close() error { return nil }
