package cache

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// DefaultMaxCost bounds the memory backend at 64 MiB of values.
const DefaultMaxCost = 64 << 20

// Memory is a process-local cache backed by ristretto.
type Memory struct {
	cache *ristretto.Cache[string, []byte]
}

// NewMemory creates a memory cache holding at most maxCost bytes of values.
// A non-positive maxCost uses DefaultMaxCost.
func NewMemory(maxCost int64) (*Memory, error) {
	if maxCost <= 0 {
		maxCost = DefaultMaxCost
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		// Ten counters per expected item, items averaging 4 KiB.
		NumCounters: max(maxCost/4096*10, 1000),
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("cache: memory: %w", err)
	}
	return &Memory{cache: c}, nil
}

// Get returns a copy of the cached value.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(v), true, nil
}

// Set stores value and waits for the write buffer to drain so the value is
// visible to the next Get. Ristretto may still reject the item under memory
// pressure; that is not an error.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.cache.SetWithTTL(key, slices.Clone(value), int64(len(value))+1, ttl)
	m.cache.Wait()
	return nil
}

func (m *Memory) Close() error {
	m.cache.Close()
	return nil
}
