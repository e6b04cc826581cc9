package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisClient is the subset of the go-redis client the cache needs.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Close() error
}

// Redis is a shared cache backed by a redis server.
type Redis struct {
	client redisClient
	logger *slog.Logger
}

// NewRedis wraps an existing client.
func NewRedis(client redisClient, logger *slog.Logger) *Redis {
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{client: client, logger: logger}
}

// DialRedis connects to addr and verifies the server answers PING.
func DialRedis(ctx context.Context, addr, password string, db int, logger *slog.Logger) (*Redis, error) {
	if addr == "" {
		return nil, errors.New("cache: redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: ping redis %s: %w", addr, err)
	}
	return NewRedis(client, logger), nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: redis get %s: %w", key, err)
	}
	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache: redis set %s: %w", key, err)
	}
	r.logger.DebugContext(ctx, "cached", "key", key, "bytes", len(value), "ttl", ttl)
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
