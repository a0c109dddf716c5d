// Package circuitbreaker short-circuits calls to upstream endpoints that keep failing.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/token-trust-scanner/internal/logging"
)

// State represents the circuit breaker state
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

// ErrCircuitOpen is returned when the circuit breaker is open
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Config configures a circuit breaker
type Config struct {
	// FailureThreshold consecutive failures open the circuit
	FailureThreshold int
	// Cooldown is how long the circuit stays open before one probe is let through
	Cooldown time.Duration
}

// DefaultConfig returns a default circuit breaker configuration
func DefaultConfig() Config {
	return Config{FailureThreshold: 3, Cooldown: 30 * time.Second}
}

// CircuitBreaker counts consecutive failures for one endpoint.
// Once the threshold is reached every call fails immediately until the
// cooldown elapses; the next call is a probe whose outcome closes or reopens.
type CircuitBreaker struct {
	name string
	cfg  Config
	now  func() time.Time

	mu               sync.Mutex
	state            State
	consecutiveFails int
	openUntil        time.Time
	probing          bool
	totalCalls       int
	totalFailures    int
	lastFailureTime  time.Time
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(name string, cfg Config) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultConfig().FailureThreshold
	}
	return &CircuitBreaker{name: name, cfg: cfg, now: time.Now, state: StateClosed}
}

// Execute runs fn unless the circuit is open
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := cb.Allow(); err != nil {
		return err
	}
	err := fn(ctx)
	cb.Record(err)
	return err
}

// Allow reports whether a call may proceed, moving open to half-open
// once the cooldown has passed.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.now().Before(cb.openUntil) {
			return ErrCircuitOpen
		}
		cb.state = StateHalfOpen
		cb.probing = true
		logging.WithFields(map[string]interface{}{
			"endpoint": cb.name,
			"state":    StateHalfOpen,
		}).Debug("Circuit breaker letting a probe through")
		return nil
	case StateHalfOpen:
		if cb.probing {
			return ErrCircuitOpen
		}
		cb.probing = true
		return nil
	default:
		return nil
	}
}

// Record feeds the outcome of an allowed call back into the breaker
func (cb *CircuitBreaker) Record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.totalCalls++
	cb.probing = false

	if err == nil {
		if cb.state != StateClosed {
			logging.WithField("endpoint", cb.name).Info("Circuit breaker closed after successful probe")
		}
		cb.state = StateClosed
		cb.consecutiveFails = 0
		return
	}

	cb.totalFailures++
	cb.consecutiveFails++
	cb.lastFailureTime = cb.now()

	if cb.state == StateHalfOpen || cb.consecutiveFails >= cb.cfg.FailureThreshold {
		cb.state = StateOpen
		cb.openUntil = cb.now().Add(cb.cfg.Cooldown)
		logging.WithFields(map[string]interface{}{
			"endpoint":         cb.name,
			"consecutiveFails": cb.consecutiveFails,
			"cooldown":         cb.cfg.Cooldown.String(),
		}).Warn("Circuit breaker opened")
	}
}

// Release hands back an allowed call that was answered without touching
// the endpoint, so a half-open breaker can issue its probe again.
func (cb *CircuitBreaker) Release() {
	cb.mu.Lock()
	cb.probing = false
	cb.mu.Unlock()
}

// GetState returns the current state of the circuit breaker
func (cb *CircuitBreaker) GetState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Stats represents circuit breaker statistics
type Stats struct {
	Name             string    `json:"name"`
	State            State     `json:"state"`
	ConsecutiveFails int       `json:"consecutiveFails"`
	TotalCalls       int       `json:"totalCalls"`
	TotalFailures    int       `json:"totalFailures"`
	OpenUntil        time.Time `json:"openUntil,omitempty"`
	LastFailureTime  time.Time `json:"lastFailureTime,omitempty"`
}

// GetStats returns statistics about the circuit breaker
func (cb *CircuitBreaker) GetStats() Stats {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return Stats{
		Name:             cb.name,
		State:            cb.state,
		ConsecutiveFails: cb.consecutiveFails,
		TotalCalls:       cb.totalCalls,
		TotalFailures:    cb.totalFailures,
		OpenUntil:        cb.openUntil,
		LastFailureTime:  cb.lastFailureTime,
	}
}

// Reset closes the circuit and clears counters
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = StateClosed
	cb.consecutiveFails = 0
	cb.probing = false
	cb.openUntil = time.Time{}
}

// Manager holds one breaker per endpoint URL
type Manager struct {
	cfg Config
	now func() time.Time

	mu       sync.RWMutex
	breakers map[string]*CircuitBreaker
}

// NewManager creates a manager that builds breakers from cfg
func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg, now: time.Now, breakers: make(map[string]*CircuitBreaker)}
}

// For returns the breaker for endpoint, creating it on first use
func (m *Manager) For(endpoint string) *CircuitBreaker {
	m.mu.RLock()
	cb, ok := m.breakers[endpoint]
	m.mu.RUnlock()
	if ok {
		return cb
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if cb, ok = m.breakers[endpoint]; ok {
		return cb
	}
	cb = NewCircuitBreaker(endpoint, m.cfg)
	cb.now = m.now
	m.breakers[endpoint] = cb
	return cb
}

// SetClock overrides the time source for breakers created afterwards
func (m *Manager) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

// OpenCount returns how many endpoints are currently short-circuited
func (m *Manager) OpenCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, cb := range m.breakers {
		if cb.GetState() != StateClosed {
			n++
		}
	}
	return n
}

// GetAllStats returns statistics for all circuit breakers
func (m *Manager) GetAllStats() map[string]Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]Stats, len(m.breakers))
	for name, cb := range m.breakers {
		result[name] = cb.GetStats()
	}
	return result
}

// Clear drops every breaker
func (m *Manager) Clear() {
	m.mu.Lock()
	m.breakers = make(map[string]*CircuitBreaker)
	m.mu.Unlock()
}
