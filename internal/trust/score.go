// Package trust computes the additive trust score. Points accumulate on an
// internal 0-150 scale, guardrails cap known red-flag combinations, and
// the result is rescaled to 0-100.
package trust

import (
	"math"

	"github.com/token-trust-scanner/internal/models"
	"github.com/token-trust-scanner/internal/types"
)

// Scale and clamps
const (
	basePoints     = 30
	internalScale  = 150
	minPoints      = 5
	MinScore       = 5
	MaxScore       = 100
	safetyFloor    = 10
	safetyLiqMin   = 1000
	safetyHolders  = 5
	socialWeight   = 0.3
	maxSocialScore = 100
)

// Guardrail caps on the internal scale
const (
	MintAndConcentrationCap = 72
	MintAndSerialCap        = 82
	guardrailTop3Min        = 35.0
)

// tier awards points when a value is strictly above a threshold
type tier struct {
	above  float64
	points int
}

// floorTier awards points when a value is strictly below a threshold
type floorTier struct {
	below  float64
	points int
}

func tierPoints(v float64, tiers []tier, otherwise int) int {
	for _, t := range tiers {
		if v > t.above {
			return t.points
		}
	}
	return otherwise
}

var (
	liquidityTiers = []tier{{50000, 35}, {20000, 25}, {10000, 15}, {5000, 10}, {1000, 5}}

	distributionTiers = []tier{{80, 25}, {60, 20}, {40, 10}}
	holderCountTiers  = []tier{{2000, 25}, {1000, 20}, {500, 15}, {100, 10}, {50, 5}}

	velocityTiers = []tier{{50, 15}, {20, 10}, {5, 5}}
	replyTiers    = []tier{{100, 15}, {50, 10}, {10, 5}}

	volumeTiers = []tier{{100000, 20}, {50000, 15}, {20000, 10}, {5000, 5}}

	ageBonusTiers     = []tier{{720, 15}, {168, 10}, {72, 5}}
	agePenaltyTiers   = []floorTier{{1, -20}, {6, -15}, {24, -10}}
	volatilityPenalty = []tier{{300, -15}, {150, -10}, {80, -3}}
	volatilityBonus   = []floorTier{{10, 15}, {20, 10}}

	topHolderPenalty  = []tier{{70, -30}, {50, -20}, {30, -10}}
	priceSwingPenalty = []tier{{500, -12}, {200, -8}}
)

// Single-condition adjustments
const (
	missingLiquidity     = -15
	thinLiquidity        = -10
	poorDistribution     = -5
	extremeConcentration = -20
	highConcentration    = -10
	suspiciousHolders    = -8
	healthyDistribution  = 10
	fewHolders           = -5

	suspiciousSocial = -20
	inorganicGrowth  = -15
	buzzBonusMin     = 20
	buzzBonus        = 10

	graduatedCurve    = 20
	knownCreator      = 5
	longDescription   = 10
	longDescriptionGt = 100

	lowVolume        = -5
	missingVolume    = -10
	deadTurnover     = 0.03
	deadTurnoverPts  = -6
	lowTurnover      = 0.08
	lowTurnoverPts   = -3
	highTurnover     = 0.25
	highTurnoverPts  = 4
	microCap         = 5000
	microCapPts      = -5
	establishedCap   = 1000000
	establishedCapPt = 10
	stablePrice      = 15
	stablePricePts   = 5

	serialCreatorMin      = 5
	suspiciousSerialPts   = -12
	suspiciousCreatorPts  = -8
	prolificCreatorMin    = 8
	prolificCreatorPts    = -8
	successfulTokenPts    = 3
	successfulTokenMax    = 15
	establishedWalletDays = 90
	establishedWalletPts  = 5
	freshWalletDays       = 3
	freshWalletPts        = -5
)

// Score returns the trust score in [MinScore, MaxScore]
func Score(s *models.TokenSnapshot) int {
	points := Points(s)
	scaled := min(MaxScore, int(math.Floor(float64(max(minPoints, points))*100/internalScale)))
	if scaled < safetyFloor && s.Liquidity > safetyLiqMin && s.HolderCount > safetyHolders {
		scaled = safetyFloor
	}
	return max(MinScore, min(MaxScore, scaled))
}

// Points returns the guardrailed score on the internal scale
func Points(s *models.TokenSnapshot) int {
	p := basePoints
	p += liquidityPoints(s)
	p += distributionPoints(s)
	p += socialPoints(s)
	p += platformPoints(s)
	p += volumePoints(s)
	p += agePoints(s)
	p += volatilityPoints(s)
	p += creatorPoints(s)
	p += sizeAndStabilityPoints(s)
	return applyGuardrails(s, p)
}

func liquidityPoints(s *models.TokenSnapshot) int {
	if s.Liquidity == 0 {
		return missingLiquidity
	}
	return tierPoints(s.Liquidity, liquidityTiers, thinLiquidity)
}

// distributionPoints prefers the structured analysis. Only the worst
// concentration penalty applies.
func distributionPoints(s *models.TokenSnapshot) int {
	d := s.Distribution
	if d == nil {
		p := 0
		if s.HolderCount != 0 {
			p += tierPoints(float64(s.HolderCount), holderCountTiers, fewHolders)
		}
		return p + tierPoints(s.TopHolderPercent, topHolderPenalty, 0)
	}

	p := tierPoints(d.DistributionScore, distributionTiers, poorDistribution)
	switch {
	case d.ConcentrationRisk == types.ConcentrationExtreme:
		p += extremeConcentration
	case d.ConcentrationRisk == types.ConcentrationHigh:
		p += highConcentration
	case d.HasSuspiciousHolders:
		p += suspiciousHolders
	}
	if d.HasHealthyDistribution {
		p += healthyDistribution
	}
	return p
}

func socialPoints(s *models.TokenSnapshot) int {
	social := s.Social
	clamped := math.Max(0, math.Min(maxSocialScore, social.SocialScore))
	p := int(math.Floor(clamped * socialWeight))

	if social.Suspicious {
		p += suspiciousSocial
	} else {
		p += tierPoints(float64(social.MentionVelocity), velocityTiers, 0)
	}

	if !social.OrganicGrowth {
		p += inorganicGrowth
	} else if social.BuzzLevel > buzzBonusMin {
		p += buzzBonus
	}

	return p + tierPoints(float64(social.Replies), replyTiers, 0)
}

func platformPoints(s *models.TokenSnapshot) int {
	if !s.IsPumpfun {
		return 0
	}
	p := 0
	if s.BondingCurveComplete {
		p += graduatedCurve
	}
	if s.Creator != nil && *s.Creator != "" {
		p += knownCreator
	}
	if len(s.Description) > longDescriptionGt {
		p += longDescription
	}
	return p
}

func volumePoints(s *models.TokenSnapshot) int {
	if s.Volume24h == 0 {
		return missingVolume
	}
	p := tierPoints(s.Volume24h, volumeTiers, lowVolume)
	if s.MarketCap > 0 {
		switch turnover := s.Volume24h / s.MarketCap; {
		case turnover < deadTurnover:
			p += deadTurnoverPts
		case turnover < lowTurnover:
			p += lowTurnoverPts
		case turnover > highTurnover:
			p += highTurnoverPts
		}
	}
	return p
}

func agePoints(s *models.TokenSnapshot) int {
	if s.AgeInHours == nil {
		return 0
	}
	age := *s.AgeInHours
	if p := tierPoints(age, ageBonusTiers, 0); p != 0 {
		return p
	}
	for _, t := range agePenaltyTiers {
		if age < t.below {
			return t.points
		}
	}
	return 0
}

func volatilityPoints(s *models.TokenSnapshot) int {
	if s.VolatilityScore == nil {
		return 0
	}
	v := *s.VolatilityScore
	if p := tierPoints(v, volatilityPenalty, 0); p != 0 {
		return p
	}
	for _, t := range volatilityBonus {
		if v < t.below {
			return t.points
		}
	}
	return 0
}

// creatorPoints combines the suspicious and many-tokens penalties rather
// than stacking them
func creatorPoints(s *models.TokenSnapshot) int {
	r := s.Reputation
	if r == nil {
		return 0
	}
	p := 0
	switch {
	case r.SuspiciousActivity && r.TokensCreated > serialCreatorMin:
		p += suspiciousSerialPts
	case r.SuspiciousActivity:
		p += suspiciousCreatorPts
	case r.TokensCreated > prolificCreatorMin:
		p += prolificCreatorPts
	}
	if r.SuccessfulTokens > 0 {
		p += min(r.SuccessfulTokens*successfulTokenPts, successfulTokenMax)
	}
	if r.WalletAgeDays != nil {
		switch age := *r.WalletAgeDays; {
		case age > establishedWalletDays:
			p += establishedWalletPts
		case age < freshWalletDays:
			p += freshWalletPts
		}
	}
	return p
}

func sizeAndStabilityPoints(s *models.TokenSnapshot) int {
	p := 0
	switch mc := s.MarketCap; {
	case mc == 0:
	case mc < microCap:
		p += microCapPts
	case mc > establishedCap:
		p += establishedCapPt
	}

	change := math.Abs(s.PriceChange24h)
	if penalty := tierPoints(change, priceSwingPenalty, 0); penalty != 0 {
		return p + penalty
	}
	if change < stablePrice {
		p += stablePricePts
	}
	return p
}

// applyGuardrails caps the score when an active mint authority meets
// concentrated holders or a serial deployer
func applyGuardrails(s *models.TokenSnapshot, points int) int {
	if !s.Intel.MintAuthorityActive() {
		return points
	}
	switch {
	case s.Top3() >= guardrailTop3Min:
		return min(points, MintAndConcentrationCap)
	case s.Intel.SameDeployerCount > 1:
		return min(points, MintAndSerialCap)
	}
	return points
}

// RiskLevelFor maps a trust score to its risk bucket
func RiskLevelFor(score int) types.RiskLevel {
	switch {
	case score >= 85:
		return types.RiskVeryLow
	case score >= 70:
		return types.RiskLow
	case score >= 50:
		return types.RiskMedium
	case score >= 40:
		return types.RiskHigh
	default:
		return types.RiskVeryHigh
	}
}
