package api

import (
	"sync"
	"time"
)

// RouteStat is the running tally for one "METHOD path" key
type RouteStat struct {
	Count        int64   `json:"count"`
	ClientErrors int64   `json:"clientErrors"`
	ServerErrors int64   `json:"serverErrors"`
	AvgMs        float64 `json:"avgMs"`
	MaxMs        float64 `json:"maxMs"`

	total time.Duration
}

// RouteStats aggregates request metrics per route
type RouteStats struct {
	mu     sync.Mutex
	routes map[string]*RouteStat
}

// NewRouteStats creates an empty tally
func NewRouteStats() *RouteStats {
	return &RouteStats{routes: make(map[string]*RouteStat)}
}

// Record adds one finished request
func (s *RouteStats) Record(key string, status int, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stat, ok := s.routes[key]
	if !ok {
		stat = &RouteStat{}
		s.routes[key] = stat
	}
	stat.Count++
	switch {
	case status >= 500:
		stat.ServerErrors++
	case status >= 400:
		stat.ClientErrors++
	}
	stat.total += duration
	ms := float64(duration.Microseconds()) / 1000
	stat.MaxMs = max(stat.MaxMs, ms)
	stat.AvgMs = float64(stat.total.Microseconds()) / 1000 / float64(stat.Count)
}

// Snapshot returns a copy of the current tallies
func (s *RouteStats) Snapshot() map[string]RouteStat {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]RouteStat, len(s.routes))
	for k, v := range s.routes {
		out[k] = *v
	}
	return out
}
