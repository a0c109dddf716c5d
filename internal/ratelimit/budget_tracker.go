package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis key prefixes for credit tracking
const (
	KeyPrefixTotal      = "rpc:credits:total:"
	KeyPrefixCore       = "rpc:credits:core:"
	KeyPrefixEnrichment = "rpc:credits:enrichment:"
)

// Pool selects which share of the window budget a call draws from
type Pool int

const (
	// PoolCore covers supply, holder and mint-authority lookups
	PoolCore Pool = iota
	// PoolEnrichment covers deployer history and transaction patterns
	PoolEnrichment
)

func (p Pool) String() string {
	switch p {
	case PoolCore:
		return "core"
	case PoolEnrichment:
		return "enrichment"
	default:
		return "unknown"
	}
}

// Tracker atomically checks and consumes credits in the current window
type Tracker interface {
	TryConsume(ctx context.Context, credits int, pool Pool) (bool, time.Duration)
	GetUsage(ctx context.Context) (*UsageStats, error)
}

// TrackerConfig sizes a credit window
type TrackerConfig struct {
	TotalCredits int
	CoreCredits  int
	Window       time.Duration
}

// Validate checks if the configuration is valid
func (c TrackerConfig) Validate() error {
	if c.TotalCredits <= 0 {
		return errors.New("total credits must be positive")
	}
	if c.CoreCredits < 0 {
		return errors.New("core credits cannot be negative")
	}
	if c.CoreCredits > c.TotalCredits {
		return fmt.Errorf("core credits (%d) cannot exceed total credits (%d)", c.CoreCredits, c.TotalCredits)
	}
	if c.Window <= 0 {
		return errors.New("window must be positive")
	}
	return nil
}

func (c TrackerConfig) poolBudget(p Pool) int {
	if p == PoolCore {
		return c.CoreCredits
	}
	return c.TotalCredits - c.CoreCredits
}

// UsageStats contains current consumption
type UsageStats struct {
	TotalUsed        int       `json:"totalUsed"`
	CoreUsed         int       `json:"coreUsed"`
	EnrichmentUsed   int       `json:"enrichmentUsed"`
	TotalBudget      int       `json:"totalBudget"`
	CoreBudget       int       `json:"coreBudget"`
	EnrichmentBudget int       `json:"enrichmentBudget"`
	WindowStart      time.Time `json:"windowStart"`
}

// windowClock aligns time to fixed windows
type windowClock struct {
	window time.Duration
	now    func() time.Time
}

func (w windowClock) start() time.Time {
	return w.now().Truncate(w.window)
}

// waitFor returns the time until the next window, plus a millisecond
func (w windowClock) waitFor(start time.Time) time.Duration {
	wait := start.Add(w.window).Sub(w.now())
	if wait < 0 {
		wait = 0
	}
	return wait + time.Millisecond
}

var consumeScript = redis.NewScript(`
	local totalKey = KEYS[1]
	local poolKey = KEYS[2]
	local credits = tonumber(ARGV[1])
	local totalBudget = tonumber(ARGV[2])
	local poolBudget = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])

	local totalUsed = tonumber(redis.call('GET', totalKey) or '0')
	local poolUsed = tonumber(redis.call('GET', poolKey) or '0')

	if totalUsed + credits > totalBudget or poolUsed + credits > poolBudget then
		return {0, totalUsed, poolUsed}
	end

	redis.call('INCRBY', totalKey, credits)
	redis.call('EXPIRE', totalKey, ttl)
	redis.call('INCRBY', poolKey, credits)
	redis.call('EXPIRE', poolKey, ttl)

	return {1, totalUsed + credits, poolUsed + credits}
`)

// RedisBudgetTracker shares one credit window across server replicas
type RedisBudgetTracker struct {
	redis redis.Cmdable
	cfg   TrackerConfig
	clock windowClock
}

// NewRedisBudgetTracker creates a tracker backed by Redis
func NewRedisBudgetTracker(client redis.Cmdable, cfg TrackerConfig) (*RedisBudgetTracker, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &RedisBudgetTracker{
		redis: client,
		cfg:   cfg,
		clock: windowClock{window: cfg.Window, now: time.Now},
	}, nil
}

func (t *RedisBudgetTracker) keys(start time.Time) (total, core, enrichment string) {
	ts := strconv.FormatInt(start.UnixMilli(), 10)
	return KeyPrefixTotal + ts, KeyPrefixCore + ts, KeyPrefixEnrichment + ts
}

// TryConsume reserves credits from pool. A Redis failure denies the call.
func (t *RedisBudgetTracker) TryConsume(ctx context.Context, credits int, pool Pool) (bool, time.Duration) {
	if credits <= 0 {
		return true, 0
	}

	start := t.clock.start()
	totalKey, coreKey, enrichmentKey := t.keys(start)
	poolKey := enrichmentKey
	if pool == PoolCore {
		poolKey = coreKey
	}

	ttl := int((2 * t.cfg.Window).Seconds())
	if ttl < 1 {
		ttl = 1
	}

	result, err := consumeScript.Run(ctx, t.redis, []string{totalKey, poolKey},
		credits, t.cfg.TotalCredits, t.cfg.poolBudget(pool), ttl).Int64Slice()
	if err != nil || len(result) == 0 || result[0] != 1 {
		return false, t.clock.waitFor(start)
	}
	return true, 0
}

// GetUsage reads the current window's counters
func (t *RedisBudgetTracker) GetUsage(ctx context.Context) (*UsageStats, error) {
	start := t.clock.start()
	totalKey, coreKey, enrichmentKey := t.keys(start)

	pipe := t.redis.Pipeline()
	totalCmd := pipe.Get(ctx, totalKey)
	coreCmd := pipe.Get(ctx, coreKey)
	enrichmentCmd := pipe.Get(ctx, enrichmentKey)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("read credit usage: %w", err)
	}

	return &UsageStats{
		TotalUsed:        parseIntOrZero(totalCmd),
		CoreUsed:         parseIntOrZero(coreCmd),
		EnrichmentUsed:   parseIntOrZero(enrichmentCmd),
		TotalBudget:      t.cfg.TotalCredits,
		CoreBudget:       t.cfg.poolBudget(PoolCore),
		EnrichmentBudget: t.cfg.poolBudget(PoolEnrichment),
		WindowStart:      start,
	}, nil
}

func parseIntOrZero(cmd *redis.StringCmd) int {
	val, err := cmd.Int()
	if err != nil {
		return 0
	}
	return val
}

// MemoryBudgetTracker is the single-process tracker used when Redis is off
type MemoryBudgetTracker struct {
	cfg   TrackerConfig
	clock windowClock

	mu          sync.Mutex
	windowStart time.Time
	used        [2]int
}

// NewMemoryBudgetTracker creates an in-process tracker
func NewMemoryBudgetTracker(cfg TrackerConfig) (*MemoryBudgetTracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &MemoryBudgetTracker{cfg: cfg, clock: windowClock{window: cfg.Window, now: time.Now}}, nil
}

// SetClock overrides the time source
func (t *MemoryBudgetTracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	t.clock.now = now
	t.mu.Unlock()
}

func (t *MemoryBudgetTracker) roll() time.Time {
	start := t.clock.start()
	if !start.Equal(t.windowStart) {
		t.windowStart = start
		t.used = [2]int{}
	}
	return start
}

// TryConsume reserves credits from pool
func (t *MemoryBudgetTracker) TryConsume(ctx context.Context, credits int, pool Pool) (bool, time.Duration) {
	if credits <= 0 {
		return true, 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	start := t.roll()
	total := t.used[PoolCore] + t.used[PoolEnrichment]
	if total+credits > t.cfg.TotalCredits || t.used[pool]+credits > t.cfg.poolBudget(pool) {
		return false, t.clock.waitFor(start)
	}
	t.used[pool] += credits
	return true, 0
}

// GetUsage reports the current window's counters
func (t *MemoryBudgetTracker) GetUsage(ctx context.Context) (*UsageStats, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	start := t.roll()
	return &UsageStats{
		TotalUsed:        t.used[PoolCore] + t.used[PoolEnrichment],
		CoreUsed:         t.used[PoolCore],
		EnrichmentUsed:   t.used[PoolEnrichment],
		TotalBudget:      t.cfg.TotalCredits,
		CoreBudget:       t.cfg.poolBudget(PoolCore),
		EnrichmentBudget: t.cfg.poolBudget(PoolEnrichment),
		WindowStart:      start,
	}, nil
}
