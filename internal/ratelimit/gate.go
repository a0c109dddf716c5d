package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/token-trust-scanner/internal/logging"
)

// DefaultMaxWait bounds how long a call waits for credits
const DefaultMaxWait = 2 * time.Second

// ErrBudgetExhausted is returned when credits did not free up within maxWait
var ErrBudgetExhausted = errors.New("rpc credit budget exhausted")

// Gate charges each RPC call against a Tracker before it runs.
// A Gate without a tracker lets every call through.
type Gate struct {
	tracker  Tracker
	costs    *CostRegistry
	maxWait  time.Duration
	logger   *logging.Logger
	sleep    func(ctx context.Context, d time.Duration) error
	disabled bool

	throttles atomic.Int64
	denials   atomic.Int64
	waitNs    atomic.Int64

	mu          sync.Mutex
	methodUsage map[string]int
}

// NewGate creates a gate; a nil tracker disables metering
func NewGate(tracker Tracker, costs *CostRegistry, maxWait time.Duration) *Gate {
	if costs == nil {
		costs = NewCostRegistry(nil)
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	return &Gate{
		tracker:     tracker,
		costs:       costs,
		maxWait:     maxWait,
		logger:      logging.GetGlobalLogger().WithComponent("rpc-budget"),
		sleep:       sleepCtx,
		disabled:    tracker == nil,
		methodUsage: make(map[string]int),
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Acquire blocks until method's credits are reserved from pool, the
// context ends, or waiting would exceed maxWait.
func (g *Gate) Acquire(ctx context.Context, method string, pool Pool) error {
	if g == nil || g.disabled {
		return nil
	}

	credits := g.costs.GetCost(method)
	waited := time.Duration(0)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		allowed, wait := g.tracker.TryConsume(ctx, credits, pool)
		if allowed {
			g.mu.Lock()
			g.methodUsage[method] += credits
			g.mu.Unlock()
			return nil
		}

		if waited+wait > g.maxWait {
			g.denials.Add(1)
			g.logger.WithFields(map[string]interface{}{
				"method":  method,
				"pool":    pool.String(),
				"credits": credits,
				"waited":  waited.String(),
			}).Warn("RPC credit budget exhausted")
			return fmt.Errorf("%s: %w", method, ErrBudgetExhausted)
		}

		g.throttles.Add(1)
		g.waitNs.Add(int64(wait))
		g.logger.WithFields(map[string]interface{}{
			"method": method,
			"pool":   pool.String(),
			"wait":   wait.String(),
		}).Debug("Waiting for RPC credits")

		if err := g.sleep(ctx, wait); err != nil {
			return err
		}
		waited += wait
	}
}

// Metrics is a snapshot of gate activity
type Metrics struct {
	Enabled       bool           `json:"enabled"`
	Usage         *UsageStats    `json:"usage,omitempty"`
	MethodCredits map[string]int `json:"methodCredits"`
	ThrottleCount int64          `json:"throttleCount"`
	DenialCount   int64          `json:"denialCount"`
	WaitTimeTotal time.Duration  `json:"waitTimeTotalNs"`
	CollectedAt   time.Time      `json:"collectedAt"`
}

// GetMetrics returns counters since process start plus current window usage
func (g *Gate) GetMetrics(ctx context.Context) *Metrics {
	m := &Metrics{
		Enabled:       !g.disabled,
		MethodCredits: make(map[string]int),
		ThrottleCount: g.throttles.Load(),
		DenialCount:   g.denials.Load(),
		WaitTimeTotal: time.Duration(g.waitNs.Load()),
		CollectedAt:   time.Now(),
	}

	g.mu.Lock()
	for k, v := range g.methodUsage {
		m.MethodCredits[k] = v
	}
	g.mu.Unlock()

	if !g.disabled {
		if usage, err := g.tracker.GetUsage(ctx); err == nil {
			m.Usage = usage
		}
	}
	return m
}
