// Package storage holds the short-lived response cache shared by the
// upstream data clients. Nothing here is durable.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// Backend is a byte store with per-key TTL
type Backend interface {
	Ping(ctx context.Context) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// CacheKeyType represents different types of cache keys
type CacheKeyType string

const (
	// CacheKeyHTTP is for raw upstream GET bodies
	CacheKeyHTTP CacheKeyType = "http"
	// CacheKeyReport is for finished analysis reports
	CacheKeyReport CacheKeyType = "report"
)

// CacheService namespaces keys and JSON-encodes values over a Backend
type CacheService struct {
	backend   Backend
	namespace string
	ttl       time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCacheService creates a cache service; namespace prefixes every key
func NewCacheService(backend Backend, namespace string, ttl time.Duration) *CacheService {
	return &CacheService{backend: backend, namespace: namespace, ttl: ttl}
}

// Init verifies the backend is reachable
func (c *CacheService) Init(ctx context.Context) error {
	if err := c.backend.Ping(ctx); err != nil {
		return fmt.Errorf("cache backend unavailable: %w", err)
	}
	return nil
}

// Clear drops every entry under this service's namespace
func (c *CacheService) Clear(ctx context.Context) error {
	c.hits.Store(0)
	c.misses.Store(0)
	return c.backend.DeletePrefix(ctx, c.namespace+":")
}

// GenerateCacheKey builds <namespace>:<type>:<params...>.
// Parameters keep their case; base58 mints are case-sensitive.
func (c *CacheService) GenerateCacheKey(keyType CacheKeyType, params ...string) string {
	parts := append([]string{c.namespace, string(keyType)}, params...)
	return strings.Join(parts, ":")
}

// Set stores a value in cache with the configured TTL
func (c *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	return c.SetWithTTL(ctx, key, value, c.ttl)
}

// SetWithTTL stores a value in cache with a custom TTL
func (c *CacheService) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return c.backend.Set(ctx, key, data, ttl)
}

// Get decodes a cached value into dest and reports whether it was found
func (c *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to get from cache: %w", err)
	}
	if !ok {
		c.misses.Add(1)
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached value: %w", err)
	}
	c.hits.Add(1)
	return true, nil
}

// Invalidate removes one or more keys from cache
func (c *CacheService) Invalidate(ctx context.Context, keys ...string) error {
	return c.backend.Del(ctx, keys...)
}

// GetTTL returns the configured TTL for this cache service
func (c *CacheService) GetTTL() time.Duration {
	return c.ttl
}

// Stats reports hit and miss counts since the last Clear
func (c *CacheService) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
