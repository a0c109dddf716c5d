package models

import (
	"time"

	"github.com/token-trust-scanner/internal/types"
)

// RiskReport is the response contract returned for one analyzed mint.
// Every field apart from Timestamp is a pure function of the snapshot.
type RiskReport struct {
	TrustScore      int              `json:"trustScore"`
	RiskLevel       types.RiskLevel  `json:"riskLevel"`
	AgeInHours      float64          `json:"ageInHours"`
	AgeFormatted    string           `json:"ageFormatted"`
	RugProbability  string           `json:"rugProbability"`
	RugLevel        types.RugLevel   `json:"rugLevel"`
	KeyThreats      []string         `json:"keyThreats"`
	PositiveSignals []string         `json:"positiveSignals"`
	TraderNote      string           `json:"traderNote"`
	VisualIndicator string           `json:"visualIndicator"`
	IndicatorColor  string           `json:"indicatorColor"`
	Summary         string           `json:"aiSummary"`
	Narrative       NarrativeSection `json:"narrative"`

	HolderContext    HolderContext    `json:"holderContext"`
	TokenInfo        TokenInfo        `json:"tokenInfo"`
	Breakdown        Breakdown        `json:"breakdown"`
	SocialData       SocialData       `json:"socialData"`
	CreatorData      CreatorData      `json:"creatorData"`
	DistributionData DistributionData `json:"distributionData"`
	RiskFactors      RiskFactors      `json:"riskFactors"`

	Timestamp time.Time `json:"timestamp"`
}

// NarrativeSection is display-only flavor text.
type NarrativeSection struct {
	Overview       string `json:"overview"`
	RiskAssessment string `json:"riskAssessment"`
	Recommendation string `json:"recommendation"`
	Generated      bool   `json:"generated"`
}

type HolderContext struct {
	TopHolderPercent       float64  `json:"topHolderPercent"`
	Top3ExcludingLpPercent *float64 `json:"top3ExcludingLpPercent"`
	LpLikeHolderPercent    float64  `json:"lpLikeHolderPercent"`
	OffCurveExcludedCount  int      `json:"offCurveExcludedCount"`
}

type TokenInfo struct {
	Symbol    string           `json:"symbol"`
	Name      string           `json:"name"`
	Address   string           `json:"address"`
	Price     float64          `json:"price"`
	MarketCap float64          `json:"marketCap"`
	DexID     string           `json:"dexId"`
	Source    types.DataSource `json:"source"`
	Creator   *string          `json:"creator"`
	ImageURL  *string          `json:"imageUrl"`
}

type Breakdown struct {
	Liquidity        float64  `json:"liquidity"`
	Holders          int      `json:"holders"`
	Volume24h        float64  `json:"volume24h"`
	Age              float64  `json:"age"`
	TopHolderPercent float64  `json:"topHolderPercent"`
	PriceChange24h   float64  `json:"priceChange24h"`
	VolatilityScore  *float64 `json:"volatilityScore"`
}

type SocialData struct {
	SocialScore              float64 `json:"socialScore"`
	MentionVelocity          int     `json:"mentionVelocity"`
	OrganicGrowth            bool    `json:"organicGrowth"`
	BuzzLevel                int     `json:"buzzLevel"`
	HasTwitter               bool    `json:"hasTwitter"`
	HasTelegram              bool    `json:"hasTelegram"`
	HasWebsite               bool    `json:"hasWebsite"`
	Replies                  int     `json:"replies"`
	Description              string  `json:"description"`
	SuspiciousSocialActivity bool    `json:"suspiciousSocialActivity"`
}

type CreatorData struct {
	ReputationScore    int      `json:"reputationScore"`
	TokensCreated      int      `json:"tokensCreated"`
	SuccessfulTokens   int      `json:"successfulTokens"`
	SuspiciousActivity bool     `json:"suspiciousActivity"`
	HasHistory         bool     `json:"hasHistory"`
	WalletAge          *float64 `json:"walletAge"`
}

type DistributionData struct {
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

type RiskFactors struct {
	HasHighTopHolder         bool `json:"hasHighTopHolder"`
	ExtremeVolatility        bool `json:"extremeVolatility"`
	BondingCurveComplete     bool `json:"bondingCurveComplete"`
	HasSuspiciousCreator     bool `json:"hasSuspiciousCreator"`
	SuspiciousSocialActivity bool `json:"suspiciousSocialActivity"`
}

// RiskCheck is the quick deployer/holder screen served at /api/risk.
type RiskCheck struct {
	Mint                      string         `json:"mint"`
	Supply                    string         `json:"supply"`
	TopHolders                []HolderRecord `json:"topHolders"`
	Deployer                  *string        `json:"deployer"`
	DeployerAgeDays           *int           `json:"deployerAgeDays"`
	LiquidityUsd              float64        `json:"liquidityUsd"`
	PairsFound                int            `json:"pairsFound"`
	DevWalletOwns100Percent   bool           `json:"devWalletOwns100Percent"`
	Top10HoldersOwn100Percent bool           `json:"top10HoldersOwn100Percent"`
	DeployerOtherTokensCount  int            `json:"deployerOtherTokensCount"`
	FreshDeployer             bool           `json:"freshDeployer"`
	SocialPresenceMinimal     *bool          `json:"socialPresenceMinimal"`
	NoLockedLiquidity         bool           `json:"noLockedLiquidity"`
	Notes                     []string       `json:"notes"`
	AnalyzedAt                time.Time      `json:"analyzedAt"`
}
