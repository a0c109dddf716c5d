// Package ratelimit meters Solana RPC calls against a windowed credit budget.
package ratelimit

import (
	"sort"
	"sync"
)

// DefaultCreditCost is charged for methods the registry does not know
const DefaultCreditCost = 1

// Solana RPC method names
const (
	MethodGetTokenSupply          = "getTokenSupply"
	MethodGetTokenLargestAccounts = "getTokenLargestAccounts"
	MethodGetAccountInfo          = "getAccountInfo"
	MethodGetMultipleAccounts     = "getMultipleAccounts"
	MethodGetBalance              = "getBalance"
	MethodGetSignaturesForAddress = "getSignaturesForAddress"
	MethodGetTransaction          = "getTransaction"
	MethodGetVersion              = "getVersion"
)

var defaultCosts = map[string]int{
	MethodGetTokenSupply:          1,
	MethodGetTokenLargestAccounts: 5,
	MethodGetAccountInfo:          1,
	MethodGetMultipleAccounts:     2,
	MethodGetBalance:              1,
	MethodGetSignaturesForAddress: 2,
	MethodGetTransaction:          1,
	MethodGetVersion:              1,
}

// CostRegistry maps RPC methods to their credit costs.
// It is safe for concurrent use.
type CostRegistry struct {
	mu          sync.RWMutex
	costs       map[string]int
	defaultCost int
}

// NewCostRegistry creates a registry seeded with the built-in costs.
// Non-positive overrides are ignored.
func NewCostRegistry(overrides map[string]int) *CostRegistry {
	costs := make(map[string]int, len(defaultCosts)+len(overrides))
	for m, c := range defaultCosts {
		costs[m] = c
	}
	for m, c := range overrides {
		if c > 0 {
			costs[m] = c
		}
	}
	return &CostRegistry{costs: costs, defaultCost: DefaultCreditCost}
}

// GetCost returns the credit cost for an RPC method
func (r *CostRegistry) GetCost(method string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if cost, ok := r.costs[method]; ok {
		return cost
	}
	return r.defaultCost
}

// SetCost updates a method's cost at runtime; non-positive costs are ignored
func (r *CostRegistry) SetCost(method string, cost int) {
	if cost <= 0 {
		return
	}
	r.mu.Lock()
	r.costs[method] = cost
	r.mu.Unlock()
}

// KnownMethods returns the registered method names in sorted order
func (r *CostRegistry) KnownMethods() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	methods := make([]string, 0, len(r.costs))
	for method := range r.costs {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return methods
}
