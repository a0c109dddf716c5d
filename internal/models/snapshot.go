package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/token-trust-scanner/internal/types"
)

// TokenSnapshot is the unified per-token record consumed by the risk and
// trust scorers. It is built once per request and not mutated afterwards.
type TokenSnapshot struct {
	Address     string  `json:"address"`
	Symbol      string  `json:"symbol"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ImageURL    *string `json:"imageUrl,omitempty"`
	Creator     *string `json:"creator,omitempty"`

	// Market fields
	Price                float64          `json:"price"`
	MarketCap            float64          `json:"marketCap"`
	Liquidity            float64          `json:"liquidity"`
	Volume24h            float64          `json:"volume24h"`
	PriceChange24h       float64          `json:"priceChange24h"`
	DexID                string           `json:"dexId"`
	Source               types.DataSource `json:"source"`
	IsPumpfun            bool             `json:"isPumpfun"`
	BondingCurveComplete bool             `json:"bondingCurveComplete"`

	// Chain fields
	HolderCount    int             `json:"holderCount"`
	HolderAnalysis *HolderAnalysis `json:"holderAnalysis,omitempty"`
	TotalSupply    decimal.Decimal `json:"totalSupply"`
	Decimals       uint8           `json:"decimals"`

	// Derived fields
	CreatedAt              *time.Time `json:"createdAt,omitempty"`
	AgeInHours             *float64   `json:"ageInHours,omitempty"`
	VolatilityScore        *float64   `json:"volatilityScore,omitempty"`
	TopHolderPercent       float64    `json:"topHolderPercent"`
	Top3ExcludingLpPercent *float64   `json:"top3ExcludingLpPercent"`
	LpLikeHolderPercent    float64    `json:"lpLikeHolderPercent"`
	OffCurveExcludedCount  int        `json:"offCurveExcludedCount"`
	DeployerHolderPercent  float64    `json:"deployerHolderPercent"`

	Social       SocialSignals         `json:"social"`
	Intel        SniperIntel           `json:"intel"`
	Reputation   *CreatorReputation    `json:"creatorReputation,omitempty"`
	Distribution *DistributionAnalysis `json:"distributionAnalysis,omitempty"`

	AnalyzedAt time.Time `json:"analyzedAt"`
}

// SocialSignals holds channel presence and the derived social score.
type SocialSignals struct {
	HasTwitter         bool    `json:"hasTwitter"`
	HasTelegram        bool    `json:"hasTelegram"`
	HasWebsite         bool    `json:"hasWebsite"`
	CommentCount       int     `json:"commentCount"`
	Replies            int     `json:"replies"`
	SocialScore        float64 `json:"socialScore"`
	EngagementRate     float64 `json:"engagementRate"`
	BotSuspicion       int     `json:"botSuspicion"`
	EstimatedFollowers int     `json:"estimatedFollowers"`
	MentionVelocity    int     `json:"mentionVelocity"`
	OrganicGrowth      bool    `json:"organicGrowth"`
	BuzzLevel          int     `json:"buzzLevel"`
	// Suspicious is set when BotSuspicion reaches the bot-penalty threshold
	Suspicious bool `json:"suspiciousSocialActivity"`
}

// ChannelCount returns how many of twitter, telegram and website are present.
func (s SocialSignals) ChannelCount() int {
	n := 0
	for _, ok := range []bool{s.HasTwitter, s.HasTelegram, s.HasWebsite} {
		if ok {
			n++
		}
	}
	return n
}

// SniperIntel is the on-chain deployer and launch-pattern picture.
// HasActiveMintAuthority is nil when the mint account could not be read.
type SniperIntel struct {
	FreshWalletBuys        int               `json:"freshWalletBuys"`
	SameDeployerCount      int               `json:"sameDeployerCount"`
	RugCreatorRisk         bool              `json:"rugCreatorRisk"`
	DumpRisk               types.DumpRisk    `json:"dumpRisk"`
	BuyPressure            types.BuyPressure `json:"buyPressure"`
	BotActivity            bool              `json:"botActivity"`
	IsNewWallet            bool              `json:"isNewWallet"`
	HasActiveMintAuthority *bool             `json:"hasActiveMintAuthority"`
	WalletClustering       bool              `json:"walletClustering"`
	DeployerAddress        *string           `json:"deployerAddress,omitempty"`
	DeployerWalletAgeDays  *float64          `json:"deployerWalletAgeDays,omitempty"`
}

// MintAuthorityActive reports a known, active mint authority.
func (i SniperIntel) MintAuthorityActive() bool {
	return i.HasActiveMintAuthority != nil && *i.HasActiveMintAuthority
}

// MintAuthorityDisabled reports a known, revoked mint authority.
func (i SniperIntel) MintAuthorityDisabled() bool {
	return i.HasActiveMintAuthority != nil && !*i.HasActiveMintAuthority
}

// CreatorReputation summarises what is known about the deployer wallet.
type CreatorReputation struct {
	ReputationScore  int `json:"reputationScore"`
	TokensCreated    int `json:"tokensCreated"`
	SuccessfulTokens int `json:"successfulTokens"`
	// SuspiciousActivity mirrors SniperIntel.RugCreatorRisk
	SuspiciousActivity bool `json:"suspiciousActivity"`
	HasHistory         bool `json:"hasHistory"`
	// WalletAgeDays is the deployer wallet's age from its signature
	// history, nil when unknown. It is not the token's age.
	WalletAgeDays *float64 `json:"walletAge,omitempty"`
}

// DistributionAnalysis is the structured holder-distribution input to the
// trust score. It exists only when holder analysis produced holders.
type DistributionAnalysis struct {
	DistributionScore      float64                 `json:"distributionScore"`
	ConcentrationRisk      types.ConcentrationRisk `json:"concentrationRisk"`
	TopHolderPercent       float64                 `json:"topHolderPercent"`
	Top5Percent            float64                 `json:"top5Percent"`
	Top10Percent           float64                 `json:"top10Percent"`
	HasHealthyDistribution bool                    `json:"hasHealthyDistribution"`
	HasSuspiciousHolders   bool                    `json:"hasSuspiciousHolders"`
	WhaleCount             int                     `json:"whaleCount"`
	SmallHolderRatio       float64                 `json:"smallHolderRatio"`
}

// Top3 returns the top-3-excluding-LP metric with undetermined read as 0.
func (s *TokenSnapshot) Top3() float64 {
	if s.Top3ExcludingLpPercent == nil {
		return 0
	}
	return *s.Top3ExcludingLpPercent
}

// RawTopHolderPercent is the pct of the largest unfiltered holder, or 0.
func (s *TokenSnapshot) RawTopHolderPercent() float64 {
	if s.HolderAnalysis == nil || len(s.HolderAnalysis.RawTopHolders) == 0 {
		return 0
	}
	return s.HolderAnalysis.RawTopHolders[0].Pct
}
