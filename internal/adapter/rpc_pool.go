package adapter

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go/rpc"

	"github.com/token-trust-scanner/internal/logging"
)

// RPCPool holds Solana RPC clients for several endpoints.
// It sticks to the current endpoint until a call fails, then moves on;
// a failed endpoint is skipped until its cooldown has passed.
type RPCPool struct {
	endpoints    []string
	clients      []*rpc.Client
	currentIndex int
	cooldowns    map[int]time.Time
	cooldownTime time.Duration
	now          func() time.Time
	logger       *logging.Logger
	mu           sync.RWMutex

	totalRequests    int64
	successfulReqs   int64
	failedReqs       int64
	totalLatency     time.Duration
	lastSuccess      time.Time
	lastFailure      time.Time
	consecutiveFails int
}

// RPCPoolConfig holds configuration for creating an RPC pool
type RPCPoolConfig struct {
	// Endpoints in failover order; the first is the primary
	Endpoints []string
	// CooldownTime defaults to 60 seconds
	CooldownTime time.Duration
}

// NewRPCPool creates a pool. rpc.New does not dial, so every client is
// built up front.
func NewRPCPool(cfg *RPCPoolConfig) (*RPCPool, error) {
	if cfg == nil || len(cfg.Endpoints) == 0 {
		return nil, fmt.Errorf("at least one RPC endpoint is required")
	}

	cooldownTime := cfg.CooldownTime
	if cooldownTime == 0 {
		cooldownTime = 60 * time.Second
	}

	pool := &RPCPool{
		endpoints:    cfg.Endpoints,
		clients:      make([]*rpc.Client, len(cfg.Endpoints)),
		cooldowns:    make(map[int]time.Time),
		cooldownTime: cooldownTime,
		now:          time.Now,
		logger:       logging.GetGlobalLogger().WithComponent("rpc-pool"),
	}
	for i, ep := range cfg.Endpoints {
		pool.clients[i] = rpc.New(ep)
	}

	pool.logger.WithField("endpoints", len(cfg.Endpoints)).Info("RPC pool initialized")
	return pool, nil
}

// SetClock overrides the time source used for cooldowns
func (p *RPCPool) SetClock(now func() time.Time) {
	p.mu.Lock()
	p.now = now
	p.mu.Unlock()
}

// Current returns the active client and its URL
func (p *RPCPool) Current() (*rpc.Client, string) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.clients[p.currentIndex], p.endpoints[p.currentIndex]
}

// GetCurrentURL returns the active RPC URL
func (p *RPCPool) GetCurrentURL() string {
	_, url := p.Current()
	return url
}

// EndpointCount returns the number of endpoints in the pool
func (p *RPCPool) EndpointCount() int {
	return len(p.endpoints)
}

// Failover marks the current endpoint as cooling down and switches to the
// next endpoint that is not. It fails when every other endpoint is cooling.
func (p *RPCPool) Failover() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	p.cooldowns[p.currentIndex] = now

	from := p.currentIndex
	for i := 1; i < len(p.endpoints); i++ {
		next := (from + i) % len(p.endpoints)
		if since, cooling := p.cooldowns[next]; cooling {
			if now.Sub(since) < p.cooldownTime {
				continue
			}
			delete(p.cooldowns, next)
		}
		p.currentIndex = next
		p.logger.WithFields(map[string]interface{}{
			"from": p.endpoints[from],
			"to":   p.endpoints[next],
		}).Warn("Switched RPC endpoint")
		return nil
	}

	return fmt.Errorf("all %d RPC endpoints are cooling down", len(p.endpoints))
}

// TryResetToPrimary moves back to the first endpoint once its cooldown
// has expired
func (p *RPCPool) TryResetToPrimary() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.currentIndex == 0 {
		return true
	}
	if since, cooling := p.cooldowns[0]; cooling {
		if p.now().Sub(since) < p.cooldownTime {
			return false
		}
		delete(p.cooldowns, 0)
	}
	p.currentIndex = 0
	p.logger.Info("Reset to primary RPC endpoint")
	return true
}

// RecordSuccess records a successful call on the current endpoint
func (p *RPCPool) RecordSuccess(duration time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.totalRequests++
	p.successfulReqs++
	p.totalLatency += duration
	p.lastSuccess = p.now()
	p.consecutiveFails = 0
}

// RecordFailure records a failed call on the current endpoint
func (p *RPCPool) RecordFailure() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.totalRequests++
	p.failedReqs++
	p.lastFailure = p.now()
	p.consecutiveFails++
}

// IsRateLimitError checks if an error indicates upstream throttling
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "exceeded") ||
		strings.Contains(errStr, "throttl")
}

// Close releases every client's connections
func (p *RPCPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, client := range p.clients {
		if client != nil {
			_ = client.Close()
		}
	}
}

// RPCPoolStatus represents the current status of the RPC pool
type RPCPoolStatus struct {
	CurrentURL       string           `json:"currentUrl"`
	TotalRequests    int64            `json:"totalRequests"`
	SuccessfulReqs   int64            `json:"successfulRequests"`
	FailedReqs       int64            `json:"failedRequests"`
	SuccessRate      float64          `json:"successRate"`
	AverageLatency   time.Duration    `json:"averageLatencyNs"`
	LastSuccess      time.Time        `json:"lastSuccess,omitempty"`
	LastFailure      time.Time        `json:"lastFailure,omitempty"`
	ConsecutiveFails int              `json:"consecutiveFails"`
	IsHealthy        bool             `json:"isHealthy"`
	Endpoints        []EndpointStatus `json:"endpoints"`
}

// EndpointStatus represents the status of a single endpoint
type EndpointStatus struct {
	Index             int           `json:"index"`
	IsCurrent         bool          `json:"isCurrent"`
	InCooldown        bool          `json:"inCooldown"`
	CooldownRemaining time.Duration `json:"cooldownRemainingNs"`
}

// Status returns a snapshot of pool health
func (p *RPCPool) Status() *RPCPoolStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	status := &RPCPoolStatus{
		CurrentURL:       p.endpoints[p.currentIndex],
		TotalRequests:    p.totalRequests,
		SuccessfulReqs:   p.successfulReqs,
		FailedReqs:       p.failedReqs,
		LastSuccess:      p.lastSuccess,
		LastFailure:      p.lastFailure,
		ConsecutiveFails: p.consecutiveFails,
		IsHealthy:        p.consecutiveFails < 5,
		Endpoints:        make([]EndpointStatus, len(p.endpoints)),
	}
	if p.totalRequests > 0 {
		status.SuccessRate = float64(p.successfulReqs) / float64(p.totalRequests)
	}
	if p.successfulReqs > 0 {
		status.AverageLatency = p.totalLatency / time.Duration(p.successfulReqs)
	}

	now := p.now()
	for i := range p.endpoints {
		es := EndpointStatus{Index: i, IsCurrent: i == p.currentIndex}
		if since, cooling := p.cooldowns[i]; cooling {
			if remaining := p.cooldownTime - now.Sub(since); remaining > 0 {
				es.InCooldown = true
				es.CooldownRemaining = remaining
			}
		}
		status.Endpoints[i] = es
	}
	return status
}
