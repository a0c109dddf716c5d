package service

import (
	"fmt"
	"sort"
	"sync"
	"time"

	apperrors "github.com/token-trust-scanner/internal/errors"
)

// SlowAnalysisThreshold marks an analysis as slow
const SlowAnalysisThreshold = 5 * time.Second

const maxSamples = 1000

// PerformanceMonitor tracks analysis latency and outcomes
type PerformanceMonitor struct {
	mu          sync.RWMutex
	durations   []time.Duration
	succeeded   int64
	failed      int64
	slow        int64
	failuresFor map[string]int64
}

// NewPerformanceMonitor creates an empty monitor keeping the last 1000 samples
func NewPerformanceMonitor() *PerformanceMonitor {
	return &PerformanceMonitor{
		durations:   make([]time.Duration, 0, maxSamples),
		failuresFor: make(map[string]int64),
	}
}

// RecordAnalysis records one finished analysis. Failures are counted per
// error code.
func (pm *PerformanceMonitor) RecordAnalysis(duration time.Duration, err error) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if err != nil {
		pm.failed++
		pm.failuresFor[apperrors.Categorize(err).Code]++
	} else {
		pm.succeeded++
	}

	pm.durations = append(pm.durations, duration)
	if len(pm.durations) > maxSamples {
		pm.durations = pm.durations[len(pm.durations)-maxSamples:]
	}
	if duration > SlowAnalysisThreshold {
		pm.slow++
	}
}

// GetStats returns current statistics
func (pm *PerformanceMonitor) GetStats() *PerformanceStats {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	stats := &PerformanceStats{
		TotalAnalyses:  pm.succeeded + pm.failed,
		Succeeded:      pm.succeeded,
		Failed:         pm.failed,
		SlowAnalyses:   pm.slow,
		FailuresByCode: make(map[string]int64, len(pm.failuresFor)),
	}
	for code, n := range pm.failuresFor {
		stats.FailuresByCode[code] = n
	}
	if len(pm.durations) == 0 {
		return stats
	}

	sorted := make([]time.Duration, len(pm.durations))
	copy(sorted, pm.durations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, d := range sorted {
		total += d
	}
	stats.AvgMs = float64(total.Milliseconds()) / float64(len(sorted))
	stats.P95Ms = float64(sorted[percentileIndex(len(sorted), 0.95)].Milliseconds())
	stats.P99Ms = float64(sorted[percentileIndex(len(sorted), 0.99)].Milliseconds())
	return stats
}

func percentileIndex(n int, p float64) int {
	return min(n-1, int(float64(n)*p))
}

// Reset clears all metrics
func (pm *PerformanceMonitor) Reset() {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.durations = make([]time.Duration, 0, maxSamples)
	pm.succeeded = 0
	pm.failed = 0
	pm.slow = 0
	pm.failuresFor = make(map[string]int64)
}

// CheckPerformance reports latency problems
func (pm *PerformanceMonitor) CheckPerformance() *PerformanceCheck {
	stats := pm.GetStats()
	check := &PerformanceCheck{Passed: true, Issues: make([]string, 0)}

	threshold := float64(SlowAnalysisThreshold.Milliseconds())
	if stats.P95Ms > threshold {
		check.Passed = false
		check.Issues = append(check.Issues,
			fmt.Sprintf("P95 analysis time (%.0fms) exceeds %.0fms", stats.P95Ms, threshold))
	}
	if stats.TotalAnalyses > 100 && stats.Failed*2 > stats.TotalAnalyses {
		check.Issues = append(check.Issues,
			fmt.Sprintf("More than half of analyses failed (%d of %d)", stats.Failed, stats.TotalAnalyses))
	}
	return check
}

// PerformanceStats contains analysis statistics
type PerformanceStats struct {
	TotalAnalyses  int64            `json:"totalAnalyses"`
	Succeeded      int64            `json:"succeeded"`
	Failed         int64            `json:"failed"`
	SlowAnalyses   int64            `json:"slowAnalyses"`
	FailuresByCode map[string]int64 `json:"failuresByCode"`
	AvgMs          float64          `json:"avgMs"`
	P95Ms          float64          `json:"p95Ms"`
	P99Ms          float64          `json:"p99Ms"`
}

// PerformanceCheck contains performance check results
type PerformanceCheck struct {
	Passed bool     `json:"passed"`
	Issues []string `json:"issues"`
}
