package storage

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedQuote struct {
	Mint  string  `json:"mint"`
	Price float64 `json:"price"`
}

func TestGenerateCacheKeyPreservesCase(t *testing.T) {
	c := NewCacheService(NewMemoryStore(), "scan", time.Second)
	key := c.GenerateCacheKey(CacheKeyHTTP, "https://x/So11111111111111111111111111111111111111112")
	assert.Equal(t, "scan:http:https://x/So11111111111111111111111111111111111111112", key)
}

func TestCacheService_Backends(t *testing.T) {
	redisCache, _ := setupMiniredis(t)

	backends := map[string]Backend{
		"memory": NewMemoryStore(),
		"redis":  redisCache,
	}

	for name, backend := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := testContext(t)
			c := NewCacheService(backend, "scan", 15*time.Second)
			require.NoError(t, c.Init(ctx))

			key := c.GenerateCacheKey(CacheKeyReport, "Mint1")
			var got cachedQuote
			found, err := c.Get(ctx, key, &got)
			require.NoError(t, err)
			assert.False(t, found)

			require.NoError(t, c.Set(ctx, key, cachedQuote{Mint: "Mint1", Price: 0.5}))
			found, err = c.Get(ctx, key, &got)
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, cachedQuote{Mint: "Mint1", Price: 0.5}, got)

			hits, misses := c.Stats()
			assert.Equal(t, int64(1), hits)
			assert.Equal(t, int64(1), misses)

			require.NoError(t, c.Clear(ctx))
			found, err = c.Get(ctx, key, &got)
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	m := NewMemoryStore()
	m.SetClock(func() time.Time { return now })
	ctx := testContext(t)

	require.NoError(t, m.Set(ctx, "k", []byte("v"), 15*time.Second))

	now = now.Add(14 * time.Second)
	_, ok, _ := m.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok, _ = m.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestMemoryStore_SweepsExpiredEntriesOnWrite(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	m := NewMemoryStore()
	m.SetClock(func() time.Time { return now })
	ctx := testContext(t)

	for i := 0; i < sweepEvery-1; i++ {
		require.NoError(t, m.Set(ctx, fmt.Sprintf("old-%d", i), []byte("v"), time.Second))
	}
	assert.Equal(t, sweepEvery-1, m.Len())

	// Never read again, so only a sweep can drop them
	now = now.Add(time.Minute)
	require.NoError(t, m.Set(ctx, "fresh", []byte("v"), time.Minute))

	assert.Equal(t, 1, m.Len())
	_, ok, _ := m.Get(ctx, "fresh")
	assert.True(t, ok)
}

func TestMemoryStore_Sweep(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	m := NewMemoryStore()
	m.SetClock(func() time.Time { return now })
	ctx := testContext(t)

	require.NoError(t, m.Set(ctx, "short", []byte("v"), time.Second))
	require.NoError(t, m.Set(ctx, "long", []byte("v"), time.Hour))

	now = now.Add(time.Minute)
	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 0, m.Sweep())
}

func TestMemoryStore_LastWriterWins(t *testing.T) {
	m := NewMemoryStore()
	ctx := testContext(t)

	require.NoError(t, m.Set(ctx, "k", []byte("first"), time.Minute))
	require.NoError(t, m.Set(ctx, "k", []byte("second"), time.Minute))

	data, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "second", string(data))
}

func TestMemoryStore_SetCopiesInput(t *testing.T) {
	m := NewMemoryStore()
	ctx := testContext(t)

	buf := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", buf, time.Minute))
	buf[0] = 'z'

	data, _, _ := m.Get(ctx, "k")
	assert.Equal(t, "abc", string(data))
}
