package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "pkgrisk:pypi:python-dateutil", Key("pypi", "Python_Dateutil"))
	assert.Equal(t, "pkgrisk:osv:requests", Key("osv", "requests"))
}

func TestOpen_Backends(t *testing.T) {
	ctx := context.Background()

	c, err := Open(ctx, Config{})
	require.NoError(t, err)
	assert.IsType(t, Nop{}, c)

	c, err = Open(ctx, Config{Backend: "Memory"})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, c)
	require.NoError(t, c.Close())

	c, err = Open(ctx, Config{Backend: BackendBadger})
	require.NoError(t, err)
	assert.IsType(t, &Badger{}, c)
	require.NoError(t, c.Close())

	_, err = Open(ctx, Config{Backend: "memcached"})
	assert.Error(t, err)

	_, err = Open(ctx, Config{Backend: BackendRedis})
	assert.Error(t, err, "redis without an address must fail")
}

func TestNop(t *testing.T) {
	ctx := context.Background()
	var c Nop
	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_RoundTrip(t *testing.T) {
	ctx := context.Background()
	m, err := NewMemory(0)
	require.NoError(t, err)
	defer m.Close()

	_, ok, err := m.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	value := []byte(`{"name":"requests"}`)
	require.NoError(t, m.Set(ctx, "pkgrisk:pypi:requests", value, time.Hour))

	got, ok, err := m.Get(ctx, "pkgrisk:pypi:requests")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, value, got)

	// Callers may mutate what they get back.
	got[0] = 'X'
	again, _, _ := m.Get(ctx, "pkgrisk:pypi:requests")
	assert.Equal(t, value, again)
}

func TestBadger_InMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	b, err := NewBadger("", nil)
	require.NoError(t, err)
	defer b.Close()

	_, ok, err := b.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.Set(ctx, "k", []byte("v1"), 0))
	require.NoError(t, b.Set(ctx, "k", []byte("v2"), time.Hour))

	got, ok, err := b.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v2"), got)
}

func TestBadger_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	b, err := NewBadger(dir, nil)
	require.NoError(t, err)
	require.NoError(t, b.Set(ctx, "pkgrisk:osv:flask", []byte("[]"), 0))
	require.NoError(t, b.Close())

	b, err = NewBadger(dir, nil)
	require.NoError(t, err)
	defer b.Close()

	got, ok, err := b.Get(ctx, "pkgrisk:osv:flask")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("[]"), got)
}

type fakeRedis struct {
	data   map[string]string
	ttls   map[string]time.Duration
	getErr error
	closed bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.data[key] = string(value.([]byte))
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

func TestRedis_RoundTrip(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	r := NewRedis(fake, nil)

	_, ok, err := r.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok, "redis.Nil is a miss, not an error")

	require.NoError(t, r.Set(ctx, "k", []byte("v"), 6*time.Hour))
	assert.Equal(t, 6*time.Hour, fake.ttls["k"])

	got, ok, err := r.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, r.Close())
	assert.True(t, fake.closed)
}

func TestRedis_GetErrorIsWrapped(t *testing.T) {
	fake := newFakeRedis()
	fake.getErr = errors.New("connection refused")
	r := NewRedis(fake, nil)

	_, ok, err := r.Get(context.Background(), "k")
	assert.False(t, ok)
	require.Error(t, err)
	assert.ErrorIs(t, err, fake.getErr)
}
