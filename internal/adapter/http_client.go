// Package adapter holds the transports to upstream services: the shared
// JSON GET client used by the market APIs and the pooled Solana RPC client.
package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/token-trust-scanner/internal/circuitbreaker"
	"github.com/token-trust-scanner/internal/config"
	apperrors "github.com/token-trust-scanner/internal/errors"
	"github.com/token-trust-scanner/internal/logging"
	"github.com/token-trust-scanner/internal/storage"
)

const maxBodyBytes = 4 << 20

// Browser-like headers; several public APIs reject bare Go clients
var defaultHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":          "application/json, text/plain, */*",
	"Accept-Language": "en-US,en;q=0.9",
}

// HTTPClient performs cached, deduplicated JSON GETs guarded by a
// per-endpoint circuit breaker. Failures are never retried.
type HTTPClient struct {
	client   *http.Client
	timeout  time.Duration
	cache    *storage.CacheService
	breakers *circuitbreaker.Manager
	inflight singleflight.Group
	logger   *logging.Logger
}

// NewHTTPClient creates a client. cache may be nil to disable caching.
func NewHTTPClient(cfg config.HTTPConfig, cache *storage.CacheService) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &HTTPClient{
		client:  &http.Client{},
		timeout: timeout,
		cache:   cache,
		breakers: circuitbreaker.NewManager(circuitbreaker.Config{
			FailureThreshold: cfg.FailureThreshold,
			Cooldown:         cfg.Cooldown,
		}),
		logger: logging.GetGlobalLogger().WithComponent("http"),
	}
}

// Breakers exposes the per-endpoint circuit breakers
func (c *HTTPClient) Breakers() *circuitbreaker.Manager { return c.breakers }

// Init verifies the cache backend is reachable
func (c *HTTPClient) Init(ctx context.Context) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Init(ctx)
}

// Clear drops cached responses and resets every breaker
func (c *HTTPClient) Clear(ctx context.Context) error {
	c.breakers.Clear()
	if c.cache == nil {
		return nil
	}
	return c.cache.Clear(ctx)
}

// GetJSON fetches rawURL and decodes the body into dest
func (c *HTTPClient) GetJSON(ctx context.Context, rawURL string, headers map[string]string, dest interface{}) error {
	body, err := c.Get(ctx, rawURL, headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return apperrors.NewProviderError(hostOf(rawURL), fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// Get returns the raw JSON body of rawURL. Concurrent calls for the same
// URL and headers share one upstream request. The shared request outlives
// any single caller; a caller whose ctx ends stops waiting for it.
func (c *HTTPClient) Get(ctx context.Context, rawURL string, headers map[string]string) (json.RawMessage, error) {
	key := requestKey(rawURL, headers)
	shared := context.WithoutCancel(ctx)
	ch := c.inflight.DoChan(key, func() (interface{}, error) {
		return c.fetch(shared, key, rawURL, headers)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(json.RawMessage), nil
	}
}

// requestKey identifies a request by its URL and sorted caller headers
func requestKey(rawURL string, headers map[string]string) string {
	if len(headers) == 0 {
		return rawURL
	}
	names := make([]string, 0, len(headers))
	for k := range headers {
		names = append(names, http.CanonicalHeaderKey(k))
	}
	sort.Strings(names)
	var b strings.Builder
	b.WriteString(rawURL)
	for _, k := range names {
		b.WriteString("|")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(lookupHeader(headers, k))
	}
	return b.String()
}

func lookupHeader(headers map[string]string, canonical string) string {
	for k, v := range headers {
		if http.CanonicalHeaderKey(k) == canonical {
			return v
		}
	}
	return ""
}

// GetWithFallbacks tries each URL in order and returns the first body
// that decodes, along with the URL that served it.
func (c *HTTPClient) GetWithFallbacks(ctx context.Context, urls []string, headers map[string]string) (json.RawMessage, string, error) {
	var lastErr error
	for _, u := range urls {
		body, err := c.Get(ctx, u, headers)
		if err == nil {
			return body, u, nil
		}
		lastErr = err
		c.logger.WithFields(map[string]interface{}{
			"endpoint": u,
			"error":    err.Error(),
		}).Debug("Fallback endpoint failed")
	}
	return nil, "", apperrors.NewAllEndpointsFailedError(urls, lastErr)
}

func (c *HTTPClient) fetch(ctx context.Context, reqKey, rawURL string, headers map[string]string) (json.RawMessage, error) {
	breaker := c.breakers.For(rawURL)
	if err := breaker.Allow(); err != nil {
		return nil, apperrors.NewCircuitOpenError(rawURL)
	}

	var key string
	if c.cache != nil {
		key = c.cache.GenerateCacheKey(storage.CacheKeyHTTP, reqKey)
		var cached json.RawMessage
		if hit, err := c.cache.Get(ctx, key, &cached); err == nil && hit {
			breaker.Release()
			return cached, nil
		}
	}

	body, err := c.do(ctx, rawURL, headers)
	breaker.Record(err)
	if err != nil {
		c.logger.WithFields(map[string]interface{}{
			"endpoint": rawURL,
			"error":    err.Error(),
		}).Debug("Upstream request failed")
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, body); err != nil {
			c.logger.WithError(err).Warn("Failed to cache upstream response")
		}
	}
	return body, nil
}

func (c *HTTPClient) do(ctx context.Context, rawURL string, headers map[string]string) (json.RawMessage, error) {
	host := hostOf(rawURL)

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, apperrors.NewProviderError(host, err)
	}
	for k, v := range defaultHeaders {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewProviderTimeoutError(host, err)
		}
		return nil, apperrors.NewProviderError(host, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, apperrors.NewProviderError(host, fmt.Errorf("read body: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewProviderError(host, fmt.Errorf("HTTP %d", resp.StatusCode))
	}
	if !json.Valid(body) {
		return nil, apperrors.NewProviderError(host, errors.New("response is not valid JSON"))
	}
	return json.RawMessage(body), nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
