// Package risk derives the deterministic threat list, positive signals, rug
// probability and trader note for a token snapshot. Every function here is
// pure: the same snapshot always yields the same output.
package risk

import (
	"fmt"
	"math"
	"strconv"

	"github.com/token-trust-scanner/internal/models"
)

// MaxSignals caps both the threat and the positive-signal lists
const MaxSignals = 6

// NoThreatSentinel is the single entry reported when nothing was flagged
const NoThreatSentinel = "No material threat signals detected from available data"

// Kind separates threats attributable to on-chain state from those that
// only describe market structure
type Kind int

const (
	KindNone Kind = iota
	KindOnChain
	KindMarket
)

// Threat is one flagged risk
type Threat struct {
	Text string
	Kind Kind
}

// Threat thresholds
const (
	sniperWalletsMin      = 25
	top3ConcentrationMin  = 20.0
	microCapMax           = 5000.0
	smallCapMax           = 50000.0
	thinVolumeMax         = 100.0
	lowTurnoverMax        = 0.08
	severeDrawdownMax     = -40.0
	veryNewTokenHours     = 6.0
	vaultDominanceMin     = 85.0
	vaultThinUsersMax     = 2.0
	earlyCurveVaultMin    = 95.0
	hiddenVaultRawMin     = 25.0
	hiddenVaultFilteredLt = 20.0
)

// DeriveThreats returns at most MaxSignals threats in priority order, or
// the sentinel alone when none apply
func DeriveThreats(s *models.TokenSnapshot) []Threat {
	var out []Threat
	onChain := func(format string, args ...interface{}) {
		out = append(out, Threat{Text: fmt.Sprintf(format, args...), Kind: KindOnChain})
	}
	marketRisk := func(format string, args ...interface{}) {
		out = append(out, Threat{Text: fmt.Sprintf(format, args...), Kind: KindMarket})
	}

	intel := s.Intel
	if s.DeployerHolderPercent > 0 {
		onChain("Dev wallet owns %d%% of supply", floorInt(s.DeployerHolderPercent))
	}
	if intel.MintAuthorityActive() {
		onChain("Mint authority still active")
	}
	if intel.SameDeployerCount > 1 {
		onChain("%d tokens from same deployer", intel.SameDeployerCount)
	}
	if intel.FreshWalletBuys >= sniperWalletsMin {
		onChain("%d sniper wallets detected", intel.FreshWalletBuys)
	}
	if top3 := s.Top3(); top3 >= top3ConcentrationMin {
		onChain("Top 3 holders control %s%%", formatNumber(top3))
	}
	if intel.IsNewWallet {
		onChain("Fresh deployer (new wallet)")
	}
	if intel.WalletClustering && intel.FreshWalletBuys >= sniperWalletsMin {
		onChain("Wallet clustering detected")
	}

	mc, vol := s.MarketCap, s.Volume24h
	switch {
	case mc > 0 && mc < microCapMax:
		marketRisk("Micro-cap size ($%d) increases manipulation risk", floorInt(mc))
	case mc > 0 && mc < smallCapMax:
		marketRisk("Small-cap size ($%d) has elevated volatility risk", floorInt(mc))
	}
	if mc > 0 && vol >= 0 && vol < thinVolumeMax {
		marketRisk("Very thin 24h trading activity ($%d) raises exit/liquidity risk", floorInt(vol))
	}
	if mc > 0 {
		if ratio := vol / mc; ratio > 0 && ratio < lowTurnoverMax {
			marketRisk("Low 24h turnover (%d%% of market cap) can reduce exit liquidity", floorInt(ratio*100))
		}
	}
	if s.PriceChange24h <= severeDrawdownMax {
		marketRisk("Severe 24h drawdown (%d%%)", floorInt(s.PriceChange24h))
	}
	if age := ageHours(s); age > 0 && age < veryNewTokenHours {
		marketRisk("Very new token (early lifecycle risk)")
	}

	lp := s.LpLikeHolderPercent
	if lp >= vaultDominanceMin && s.Top3() <= vaultThinUsersMax {
		marketRisk("Pool/vault dominates supply (~%s%%), user holder distribution is very thin", formatNumber(lp))
	}
	if lp >= earlyCurveVaultMin {
		marketRisk("Very early curve stage (most supply still in pool/vault)")
	}
	if raw := s.RawTopHolderPercent(); raw >= hiddenVaultRawMin && s.TopHolderPercent < hiddenVaultFilteredLt {
		marketRisk("Largest raw holder/vault controls ~%d%% of supply", floorInt(raw))
	}

	if len(out) == 0 {
		return []Threat{{Text: NoThreatSentinel, Kind: KindNone}}
	}
	if len(out) > MaxSignals {
		out = out[:MaxSignals]
	}
	return out
}

// Texts returns the threat strings in order
func Texts(threats []Threat) []string {
	out := make([]string, len(threats))
	for i, t := range threats {
		out[i] = t.Text
	}
	return out
}

// SentinelOnly reports whether threats is exactly the no-threat sentinel
func SentinelOnly(threats []Threat) bool {
	return len(threats) == 1 && threats[0].Kind == KindNone
}

func hasKind(threats []Threat, kind Kind) bool {
	for _, t := range threats {
		if t.Kind == kind {
			return true
		}
	}
	return false
}

func ageHours(s *models.TokenSnapshot) float64 {
	if s.AgeInHours == nil {
		return 0
	}
	return *s.AgeInHours
}

func floorInt(v float64) int64 {
	return int64(math.Floor(v))
}

// formatNumber prints v with the fewest digits that round-trip
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
