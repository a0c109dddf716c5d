package risk

import (
	"fmt"
	"math"

	"github.com/token-trust-scanner/internal/models"
	"github.com/token-trust-scanner/internal/types"
)

// Positive-signal thresholds
const (
	healthyTop3Max      = 15.0
	solidLiquidityRatio = 15.0
	excludedVaultMin    = 10.0
	excludedVaultMax    = 80.0
)

// DerivePositives returns at most MaxSignals positive signals in order
func DerivePositives(s *models.TokenSnapshot) []string {
	var out []string
	if s.Intel.MintAuthorityDisabled() {
		out = append(out, "Mint authority disabled")
	}
	if top3 := s.Top3(); top3 > 0 && top3 <= healthyTop3Max {
		out = append(out, fmt.Sprintf("Top 3 holder concentration relatively healthy (%s%%)", formatNumber(top3)))
	}
	if s.MarketCap > 0 {
		if ratio := s.Liquidity / s.MarketCap * 100; ratio >= solidLiquidityRatio {
			out = append(out, fmt.Sprintf("Liquidity support is solid (%d%% of market cap)", floorInt(ratio)))
		}
	}
	if n := s.Social.ChannelCount(); n > 0 {
		out = append(out, fmt.Sprintf("Social presence detected (%d/3 channels)", n))
	}
	if lp := s.LpLikeHolderPercent; lp >= excludedVaultMin && lp < excludedVaultMax && s.OffCurveExcludedCount > 0 {
		out = append(out, fmt.Sprintf("LP/program vault balance detected (~%s%%) and excluded from holder-concentration risk", formatNumber(lp)))
	}
	if s.Intel.SameDeployerCount <= 1 {
		out = append(out, "No evidence of serial token creation by deployer")
	}
	if len(out) > MaxSignals {
		out = out[:MaxSignals]
	}
	return out
}

// RugSignal is the bounded rug probability and its level
type RugSignal struct {
	Probability int
	Level       types.RugLevel
}

// Percent renders the probability as "N%"
func (r RugSignal) Percent() string {
	return fmt.Sprintf("%d%%", r.Probability)
}

type band struct {
	min    float64
	points float64
}

// Rug-probability weights
const (
	rugBase            = 10.0
	trustBlendWeight   = 0.5
	mintActivePoints   = 15.0
	serialDeployerPts  = 8.0
	sniperPoints       = 8.0
	sentinelRugCeiling = 55.0
	rugFloor           = 5
	rugCeiling         = 95
	rugHighMin         = 65
	rugMediumMin       = 35
	rugMicroCapMax     = 5000.0
	rugSmallCapMax     = 15000.0
	rugMicroCapPoints  = 20.0
	rugSmallCapPoints  = 12.0
	rugNewbornHours    = 1.0
	rugYoungHours      = 6.0
	rugNewbornPoints   = 20.0
	rugYoungPoints     = 12.0
)

var (
	priceSwingBands = []band{{70, 20}, {40, 14}, {20, 8}}
	top3Bands       = []band{{40, 14}, {25, 8}}
)

func bandPoints(v float64, bands []band) float64 {
	for _, b := range bands {
		if v >= b.min {
			return b.points
		}
	}
	return 0
}

// DeriveRugSignal blends the trust score with market and on-chain red flags.
// A sentinel-only threat list caps the result below HIGH.
func DeriveRugSignal(s *models.TokenSnapshot, trustScore int, threats []Threat) RugSignal {
	points := rugBase + math.Max(0, float64(100-trustScore))*trustBlendWeight

	switch mc := s.MarketCap; {
	case mc > 0 && mc < rugMicroCapMax:
		points += rugMicroCapPoints
	case mc > 0 && mc < rugSmallCapMax:
		points += rugSmallCapPoints
	}
	switch age := ageHours(s); {
	case age > 0 && age < rugNewbornHours:
		points += rugNewbornPoints
	case age > 0 && age < rugYoungHours:
		points += rugYoungPoints
	}
	points += bandPoints(math.Abs(s.PriceChange24h), priceSwingBands)
	points += bandPoints(s.Top3(), top3Bands)

	if s.Intel.MintAuthorityActive() {
		points += mintActivePoints
	}
	if s.Intel.SameDeployerCount > 1 {
		points += serialDeployerPts
	}
	if s.Intel.FreshWalletBuys >= sniperWalletsMin {
		points += sniperPoints
	}
	if SentinelOnly(threats) {
		points = math.Min(points, sentinelRugCeiling)
	}

	p := int(math.Floor(points + 0.5))
	p = max(rugFloor, min(rugCeiling, p))
	return RugSignal{Probability: p, Level: RugLevelFor(p)}
}

// RugLevelFor classifies a rug probability
func RugLevelFor(probability int) types.RugLevel {
	switch {
	case probability >= rugHighMin:
		return types.RugHigh
	case probability >= rugMediumMin:
		return types.RugMedium
	default:
		return types.RugLow
	}
}

// Trader notes
const (
	noteSmallCapCalm  = "No major on-chain red flags detected. This is still a small-cap token, so volatility risk remains high."
	noteCalm          = "No major on-chain red flags detected. Keep normal caution for meme-token volatility."
	noteMarketOnly    = "No major on-chain red flags detected, but market-structure risk is high (micro-cap/volatility). Keep position size small."
	noteMultipleRisks = "Multiple on-chain risk signals are present. Treat this as elevated-risk and avoid oversized entries."
	noteSomeRisks     = "Some on-chain risk signals are present, but not extreme. Use tight risk management and monitor holder changes."

	smallCapNoteMax = 100000.0
	multipleRisks   = 3
)

// DeriveTraderNote picks the first matching note by threat composition
func DeriveTraderNote(s *models.TokenSnapshot, threats []Threat) string {
	switch {
	case SentinelOnly(threats):
		if s.MarketCap > 0 && s.MarketCap < smallCapNoteMax {
			return noteSmallCapCalm
		}
		return noteCalm
	case hasKind(threats, KindMarket) && !hasKind(threats, KindOnChain):
		return noteMarketOnly
	case len(threats) >= multipleRisks:
		return noteMultipleRisks
	default:
		return noteSomeRisks
	}
}

// Indicator is the traffic-light shown next to the rug level
type Indicator struct {
	Label string
	Color string
}

// VisualIndicator maps a rug level to its label and color
func VisualIndicator(level types.RugLevel) Indicator {
	switch level {
	case types.RugLow:
		return Indicator{Label: "RESEARCH", Color: "#00FF00"}
	case types.RugMedium:
		return Indicator{Label: "CAUTION", Color: "#FFA500"}
	default:
		return Indicator{Label: "RUN", Color: "#FF0000"}
	}
}
