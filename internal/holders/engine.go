// Package holders computes holder-concentration metrics for a mint. It
// separates user wallets from program-derived vaults so that a pool holding
// most of the supply does not read as a single whale.
package holders

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/token-trust-scanner/internal/models"
)

const (
	// RawRetention is how many aggregated holders are kept before filtering
	RawRetention = 40
	// SelectedLimit caps both the selected and the raw top-holder lists
	SelectedLimit = 20
	topN          = 10
)

// Thresholds of the top-3-excluding-LP heuristic
const (
	// a largest holder at or below this share is taken to be a real wallet
	noLpDistortionMax = 12.0
	// a largest holder above this share followed by a sharp drop is a vault
	vaultLeaderMin = 15.0
	vaultDropMax   = 8.0
)

// Balance is one token account's balance resolved to its owning wallet.
// An empty Owner marks an account whose owner could not be read.
type Balance struct {
	Owner  string
	Amount decimal.Decimal
}

// CurveClassifier reports whether an address is an ordinary wallet
type CurveClassifier func(address string) bool

var hundred = decimal.NewFromInt(100)

// Analyze aggregates balances by owner and computes the concentration view.
// Ties in balance keep first-seen order.
func Analyze(supply decimal.Decimal, balances []Balance, isOnCurve CurveClassifier) *models.HolderAnalysis {
	ranked := rank(supply, balances, isOnCurve)

	excluded := 0
	onCurve := make([]models.HolderRecord, 0, len(ranked))
	for _, h := range ranked {
		if h.IsOnCurve {
			onCurve = append(onCurve, h)
		} else {
			excluded++
		}
	}

	raw := truncate(ranked, SelectedLimit)
	selected := truncate(onCurve, SelectedLimit)
	if len(selected) == 0 {
		selected = raw
	}

	return &models.HolderAnalysis{
		Supply:                  supply,
		TopHolders:              selected,
		Top10Concentration:      SumPct(selected, topN),
		RawTopHolders:           raw,
		RawTop10Concentration:   SumPct(raw, topN),
		ExcludedOffCurveHolders: excluded,
	}
}

// rank aggregates by owner, converts to percent of supply and returns the
// largest RawRetention holders
func rank(supply decimal.Decimal, balances []Balance, isOnCurve CurveClassifier) []models.HolderRecord {
	totals := make(map[string]decimal.Decimal, len(balances))
	order := make([]string, 0, len(balances))
	for _, b := range balances {
		if b.Owner == "" || !b.Amount.IsPositive() {
			continue
		}
		if _, seen := totals[b.Owner]; !seen {
			order = append(order, b.Owner)
			totals[b.Owner] = decimal.Zero
		}
		totals[b.Owner] = totals[b.Owner].Add(b.Amount)
	}

	records := make([]models.HolderRecord, 0, len(order))
	for _, owner := range order {
		amount := totals[owner]
		records = append(records, models.HolderRecord{
			Owner:     owner,
			AmountRaw: amount,
			Pct:       percentOf(amount, supply),
			IsOnCurve: isOnCurve(owner),
		})
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].AmountRaw.GreaterThan(records[j].AmountRaw)
	})
	return truncate(records, RawRetention)
}

func percentOf(amount, supply decimal.Decimal) float64 {
	if !supply.IsPositive() {
		return 0
	}
	pct, _ := amount.Div(supply).Mul(hundred).Float64()
	return math.Min(100, math.Max(0, pct))
}

func truncate(records []models.HolderRecord, n int) []models.HolderRecord {
	if len(records) > n {
		return records[:n]
	}
	return records
}

// SumPct sums pct over the first n records
func SumPct(records []models.HolderRecord, n int) float64 {
	var sum float64
	for i, r := range records {
		if i >= n {
			break
		}
		sum += r.Pct
	}
	return sum
}

// Top3ExcludingLp estimates the top-3 user share. When the leader is small
// it sums the true top 3; when the leader towers over a sharp drop it is
// treated as a vault and skipped. Otherwise the result is nil (undetermined).
func Top3ExcludingLp(selected []models.HolderRecord) *float64 {
	var v float64
	switch {
	case len(selected) >= 3 && selected[0].Pct <= noLpDistortionMax:
		v = SumPct(selected, 3)
	case len(selected) >= 2 && selected[0].Pct > vaultLeaderMin && selected[1].Pct < vaultDropMax:
		v = SumPct(selected[1:], 3)
	default:
		return nil
	}
	return &v
}

// LpLikePercent is the share held by the largest off-curve raw holder
func LpLikePercent(raw []models.HolderRecord) float64 {
	for _, h := range raw {
		if !h.IsOnCurve {
			return h.Pct
		}
	}
	return 0
}
