package models

import "github.com/shopspring/decimal"

// HolderRecord is one wallet's aggregated balance of a mint.
// Pct is the share of total supply in [0, 100]. IsOnCurve=false marks
// program-derived addresses such as pool and bonding-curve vaults.
type HolderRecord struct {
	Owner     string          `json:"owner"`
	AmountRaw decimal.Decimal `json:"amount"`
	Pct       float64         `json:"pct"`
	IsOnCurve bool            `json:"isOnCurve"`
}

// HolderAnalysis aggregates concentration metrics for a mint.
// TopHolders is always a view of the same ranking RawTopHolders is cut from;
// it holds only on-curve wallets unless none exist.
type HolderAnalysis struct {
	Supply                  decimal.Decimal `json:"supply"`
	TopHolders              []HolderRecord  `json:"topHolders"`
	Top10Concentration      float64         `json:"top10Concentration"`
	RawTopHolders           []HolderRecord  `json:"rawTopHolders"`
	RawTop10Concentration   float64         `json:"rawTop10Concentration"`
	ExcludedOffCurveHolders int             `json:"excludedOffCurveHolders"`
}

// HasHolders reports whether the selected set is non-empty.
func (a *HolderAnalysis) HasHolders() bool {
	return a != nil && len(a.TopHolders) > 0
}
