package snapshot

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/token-trust-scanner/internal/chain"
	"github.com/token-trust-scanner/internal/market"
	"github.com/token-trust-scanner/internal/models"
	"github.com/token-trust-scanner/internal/types"
)

var analyzedAt = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func vaultsOffCurve(address string) bool { return !strings.HasPrefix(address, "vault") }

func strPtr(s string) *string { return &s }

func balances(pairs ...interface{}) *chain.ResolvedHolders {
	out := &chain.ResolvedHolders{}
	for i := 0; i < len(pairs); i += 2 {
		amount := decimal.NewFromInt(int64(pairs[i+1].(int)))
		out.Balances = append(out.Balances, chain.OwnedBalance{Owner: pairs[i].(string), Amount: amount})
		if amount.IsPositive() {
			out.Count++
		}
	}
	return out
}

func baseMarket() *market.Data {
	return &market.Data{
		Address:     "Mint11111111111111111111111111111111111111",
		Symbol:      "CAT",
		Name:        "Cat",
		Description: "Cat on Solana",
		Price:       0.01,
		MarketCap:   10000,
		Liquidity:   5000,
		Volume24h:   25000,
		DexID:       "raydium",
		Source:      types.SourceDexScreener,
	}
}

func supply(n int64) chain.TokenSupply {
	return chain.TokenSupply{Amount: decimal.NewFromInt(n), Decimals: 6}
}

func TestBuild_HolderDerivedFields(t *testing.T) {
	facts := ChainFacts{
		Supply:  supply(1000),
		Holders: balances("vaultPool", 500, "alice", 80, "bob", 40, "carol", 30, "dave", 5),
	}
	snap := NewBuilder(analyzedAt, vaultsOffCurve).Build(baseMarket(), facts)

	assert.Equal(t, 5, snap.HolderCount)
	assert.Equal(t, 8.0, snap.TopHolderPercent)
	require.NotNil(t, snap.Top3ExcludingLpPercent)
	assert.Equal(t, 15.0, *snap.Top3ExcludingLpPercent)
	assert.Equal(t, 50.0, snap.LpLikeHolderPercent)
	assert.Equal(t, 1, snap.OffCurveExcludedCount)

	d := snap.Distribution
	require.NotNil(t, d)
	// top10 is 15.5, floored to 15
	assert.Equal(t, 85.0, d.DistributionScore)
	assert.Equal(t, types.ConcentrationLow, d.ConcentrationRisk)
	assert.True(t, d.HasHealthyDistribution)
	assert.False(t, d.HasSuspiciousHolders)
	assert.Equal(t, 1, d.WhaleCount)
	assert.Equal(t, 0.25, d.SmallHolderRatio)
	assert.Equal(t, 15.0, d.Top5Percent)
	assert.Equal(t, 15.0, d.Top10Percent)
}

func TestBuild_ConcentrationClampAndTiers(t *testing.T) {
	facts := ChainFacts{Supply: supply(100), Holders: balances("whale", 97, "minnow", 1)}
	snap := NewBuilder(analyzedAt, vaultsOffCurve).Build(baseMarket(), facts)

	d := snap.Distribution
	require.NotNil(t, d)
	assert.Equal(t, 5.0, d.DistributionScore)
	assert.Equal(t, types.ConcentrationExtreme, d.ConcentrationRisk)
	assert.True(t, d.HasSuspiciousHolders)
	// leader towers but the next holder is small: leader is skipped
	require.NotNil(t, snap.Top3ExcludingLpPercent)
	assert.Equal(t, 1.0, *snap.Top3ExcludingLpPercent)
}

func TestBuild_Top3Undetermined(t *testing.T) {
	facts := ChainFacts{Supply: supply(100), Holders: balances("a", 14, "b", 10, "c", 5)}
	snap := NewBuilder(analyzedAt, vaultsOffCurve).Build(baseMarket(), facts)
	assert.Nil(t, snap.Top3ExcludingLpPercent)
	assert.Zero(t, snap.Top3())
}

func TestBuild_NoHolderData(t *testing.T) {
	snap := NewBuilder(analyzedAt, vaultsOffCurve).Build(baseMarket(), ChainFacts{Supply: supply(0)})
	assert.Nil(t, snap.HolderAnalysis)
	assert.Nil(t, snap.Distribution)
	assert.Zero(t, snap.HolderCount)
	assert.Zero(t, snap.TopHolderPercent)
	assert.Zero(t, snap.RawTopHolderPercent())
}

func TestBuild_AgeFromCreation(t *testing.T) {
	m := baseMarket()
	created := analyzedAt.Add(-30 * time.Hour)
	m.CreatedAt = &created

	snap := NewBuilder(analyzedAt, vaultsOffCurve).Build(m, ChainFacts{})
	require.NotNil(t, snap.AgeInHours)
	assert.InDelta(t, 30.0, *snap.AgeInHours, 1e-9)

	snap = NewBuilder(analyzedAt, vaultsOffCurve).Build(baseMarket(), ChainFacts{})
	assert.Nil(t, snap.AgeInHours)
}

func TestBuild_IntelWithoutDeployer(t *testing.T) {
	facts := ChainFacts{MintAuthority: &chain.MintAuthority{HasAuthority: true}}
	m := baseMarket()
	created := analyzedAt.Add(-30 * time.Hour)
	m.CreatedAt = &created
	snap := NewBuilder(analyzedAt, vaultsOffCurve).Build(m, facts)

	i := snap.Intel
	assert.True(t, i.MintAuthorityActive())
	assert.Nil(t, i.DeployerAddress)
	assert.Zero(t, i.SameDeployerCount)
	assert.Equal(t, types.DumpRiskUnknown, i.DumpRisk)
	assert.Equal(t, types.BuyPressureUnknown, i.BuyPressure)

	require.NotNil(t, snap.Reputation)
	assert.Equal(t, 50, snap.Reputation.ReputationScore)
	assert.Zero(t, snap.Reputation.TokensCreated)
	assert.False(t, snap.Reputation.HasHistory)
}

func TestBuild_UnknownMintAuthority(t *testing.T) {
	snap := NewBuilder(analyzedAt, vaultsOffCurve).Build(baseMarket(), ChainFacts{})
	assert.Nil(t, snap.Intel.HasActiveMintAuthority)
	assert.False(t, snap.Intel.MintAuthorityActive())
	assert.False(t, snap.Intel.MintAuthorityDisabled())
}

func TestBuild_IntelWithDeployer(t *testing.T) {
	age := 2 * 24 * time.Hour
	deployer := "Dep1oyer111111111111111111111111111111111"
	facts := ChainFacts{
		Supply:        supply(100),
		Holders:       balances(deployer, 30, "x", 2, "y", 1),
		MintAuthority: &chain.MintAuthority{},
		Deployer:      strPtr(deployer),
		History:       &chain.DeployerHistory{TokenCount: 7, IsNewWallet: true, WalletAge: &age},
		Patterns:      &chain.TransactionPatterns{SniperWallets: 12, Clustering: true, Suspicious: true},
	}
	m := baseMarket()
	created := analyzedAt.Add(-30 * time.Hour)
	m.CreatedAt = &created
	snap := NewBuilder(analyzedAt, vaultsOffCurve).Build(m, facts)

	i := snap.Intel
	assert.True(t, i.MintAuthorityDisabled())
	assert.Equal(t, 7, i.SameDeployerCount)
	assert.True(t, i.IsNewWallet)
	assert.True(t, i.RugCreatorRisk)
	assert.Equal(t, 12, i.FreshWalletBuys)
	assert.True(t, i.WalletClustering)
	assert.True(t, i.BotActivity)
	assert.Equal(t, types.DumpRiskHigh, i.DumpRisk)
	assert.Equal(t, types.BuyPressureWeak, i.BuyPressure)
	require.NotNil(t, i.DeployerWalletAgeDays)
	assert.InDelta(t, 2.0, *i.DeployerWalletAgeDays, 1e-9)

	r := snap.Reputation
	assert.Equal(t, 6, r.TokensCreated)
	assert.True(t, r.SuspiciousActivity)
	assert.True(t, r.HasHistory)
	assert.Equal(t, i.RugCreatorRisk, r.SuspiciousActivity)
	// wallet age is the deployer's, not the token's
	require.NotNil(t, r.WalletAgeDays)
	assert.InDelta(t, 2.0, *r.WalletAgeDays, 1e-9)
	require.NotNil(t, snap.AgeInHours)
	assert.InDelta(t, 30.0, *snap.AgeInHours, 1e-9)
	assert.Equal(t, 30.0, snap.DeployerHolderPercent)
}

func TestBuild_DeployerHistoryUnavailable(t *testing.T) {
	facts := ChainFacts{
		Deployer: strPtr("Dep1oyer111111111111111111111111111111111"),
		Patterns: &chain.TransactionPatterns{},
	}
	snap := NewBuilder(analyzedAt, vaultsOffCurve).Build(baseMarket(), facts)

	assert.Equal(t, 1, snap.Intel.SameDeployerCount)
	assert.False(t, snap.Intel.RugCreatorRisk)
	assert.Equal(t, types.DumpRiskLow, snap.Intel.DumpRisk)
	assert.Equal(t, types.BuyPressureNormal, snap.Intel.BuyPressure)
	assert.Nil(t, snap.Reputation.WalletAgeDays)
}

func TestBuild_SocialFromDescription(t *testing.T) {
	m := baseMarket()
	m.Description = "Join t.me/cat and follow https://X.com/cat"
	m.CommentCount = 30
	m.MarketCap = 10000

	snap := NewBuilder(analyzedAt, vaultsOffCurve).Build(m, ChainFacts{})
	s := snap.Social
	assert.True(t, s.HasTwitter)
	assert.True(t, s.HasTelegram)
	assert.True(t, s.HasWebsite)
	// sqrt(10000)*2*3 followers
	assert.Equal(t, 600, s.EstimatedFollowers)
	assert.InDelta(t, 5.0, s.EngagementRate, 1e-9)
	// 20+15+5 channels, +10 comments, +10 engagement
	assert.InDelta(t, 60.0, s.SocialScore, 1e-9)
	assert.Zero(t, s.BotSuspicion)
	assert.Equal(t, 30, s.MentionVelocity)
	assert.True(t, s.OrganicGrowth)
	assert.Equal(t, 3, s.BuzzLevel)
}

func TestScoreSocial(t *testing.T) {
	tests := []struct {
		name      string
		signals   models.SocialSignals
		marketCap float64
		volume    float64
		score     float64
		bot       int
		buzz      int
	}{
		{"no channels", models.SocialSignals{CommentCount: 200}, 10000, 0, 20, 0, 1},
		{"bot heavy", models.SocialSignals{HasTwitter: true, CommentCount: 150}, 100, 60000, 20 + 20 + 20 - 30, 30, 5},
		{"bot medium", models.SocialSignals{HasTwitter: true, CommentCount: 6}, 100, 500, 20 + 5 + 20 - 15, 15, 1},
		{"clamped at zero", models.SocialSignals{HasWebsite: true, CommentCount: 2}, 1, 0, 0, 30, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.signals
			scoreSocial(&s, tt.marketCap, tt.volume)
			assert.InDelta(t, tt.score, s.SocialScore, 1e-9)
			assert.Equal(t, tt.bot, s.BotSuspicion)
			assert.Equal(t, tt.buzz, s.BuzzLevel)
			assert.Equal(t, tt.bot >= 30, s.Suspicious)
		})
	}
}

func TestFormatAge(t *testing.T) {
	tests := map[float64]string{
		-3:                  "0h",
		0:                   "0h",
		0.5:                 "0h",
		5.9:                 "5h",
		24:                  "1d",
		26:                  "1d 2h",
		24*30 + 3:           "1m 3h",
		24 * 365:            "1y",
		24*365 + 24*31 + 25: "1y 1m 2d 1h",
	}
	for hours, want := range tests {
		assert.Equal(t, want, FormatAge(hours), "hours=%v", hours)
	}
}
