package storage

import (
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/token-trust-scanner/internal/config"
)

func setupMiniredis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewRedisCacheFromClient(client)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func TestNewRedisCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cache, err := NewRedisCache(&config.RedisConfig{
		Host:           mr.Host(),
		Port:           mr.Port(),
		MaxConnections: 4,
	})
	require.NoError(t, err)
	defer cache.Close()

	assert.NoError(t, cache.Ping(testContext(t)))
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	_, err := NewRedisCache(&config.RedisConfig{Host: "127.0.0.1", Port: "1", MaxConnections: 1})
	assert.Error(t, err)
}

func TestRedisCache_GetMissIsNotError(t *testing.T) {
	cache, _ := setupMiniredis(t)

	data, ok, err := cache.Get(testContext(t), "absent")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, data)
}

func TestRedisCache_SetGetExpire(t *testing.T) {
	cache, mr := setupMiniredis(t)
	ctx := testContext(t)

	require.NoError(t, cache.Set(ctx, "k", []byte(`{"a":1}`), 15*time.Second))
	data, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(data))

	mr.FastForward(16 * time.Second)
	_, ok, err = cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCache_DeletePrefix(t *testing.T) {
	cache, mr := setupMiniredis(t)
	ctx := testContext(t)

	for i := 0; i < 450; i++ {
		require.NoError(t, cache.Set(ctx, fmt.Sprintf("scan:http:%d", i), []byte("1"), time.Minute))
	}
	require.NoError(t, cache.Set(ctx, "other:keep", []byte("1"), time.Minute))

	require.NoError(t, cache.DeletePrefix(ctx, "scan:"))
	assert.Equal(t, []string{"other:keep"}, mr.Keys())
}
