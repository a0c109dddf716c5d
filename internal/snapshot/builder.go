// Package snapshot assembles the per-request TokenSnapshot from market data
// and chain facts. The snapshot is built in one pass and not mutated once
// Build returns.
package snapshot

import (
	"math"
	"time"

	"github.com/token-trust-scanner/internal/chain"
	"github.com/token-trust-scanner/internal/holders"
	"github.com/token-trust-scanner/internal/market"
	"github.com/token-trust-scanner/internal/models"
	"github.com/token-trust-scanner/internal/types"
)

// Distribution thresholds on the clamped top-10 concentration
const (
	minConcentration        = 10
	maxConcentration        = 95
	extremeConcentration    = 80
	highConcentration       = 60
	mediumConcentration     = 40
	healthyConcentration    = 40
	suspiciousConcentration = 70
	whalePct                = 5.0
	smallHolderPct          = 1.0
)

// Creator reputation defaults and the serial-deployer threshold
const (
	neutralReputation = 50
	serialDeployerMin = 5
)

// ChainFacts is everything read from the chain for one mint. Nil fields
// mean the read failed or was skipped.
type ChainFacts struct {
	Supply  chain.TokenSupply
	Holders *chain.ResolvedHolders
	// MintAuthority nil means unknown
	MintAuthority *chain.MintAuthority
	// Deployer is the validated creator wallet the heuristics ran against
	Deployer *string
	History  *chain.DeployerHistory
	Patterns *chain.TransactionPatterns
}

// Builder accumulates one TokenSnapshot
type Builder struct {
	snap      models.TokenSnapshot
	isOnCurve holders.CurveClassifier
}

// NewBuilder starts a snapshot at now. isOnCurve classifies holder wallets.
func NewBuilder(now time.Time, isOnCurve holders.CurveClassifier) *Builder {
	return &Builder{snap: models.TokenSnapshot{AnalyzedAt: now}, isOnCurve: isOnCurve}
}

// Build returns the finished snapshot
func (b *Builder) Build(m *market.Data, facts ChainFacts) *models.TokenSnapshot {
	b.withMarket(m)
	b.withHolders(facts)
	b.withSocial(m)
	b.withIntel(facts)
	b.withDeployerShare()
	snap := b.snap
	return &snap
}

func (b *Builder) withMarket(m *market.Data) {
	s := &b.snap
	s.Address = m.Address
	s.Symbol = m.Symbol
	s.Name = m.Name
	s.Description = m.Description
	s.ImageURL = m.ImageURL
	s.Creator = m.Creator
	s.Price = m.Price
	s.MarketCap = m.MarketCap
	s.Liquidity = m.Liquidity
	s.Volume24h = m.Volume24h
	s.PriceChange24h = m.PriceChange24h
	s.DexID = m.DexID
	if s.DexID == "" {
		s.DexID = "Unknown"
	}
	s.Source = m.Source
	s.IsPumpfun = m.IsPumpfun
	s.BondingCurveComplete = m.BondingCurveComplete
	s.VolatilityScore = m.VolatilityScore

	if m.CreatedAt != nil {
		created := *m.CreatedAt
		age := s.AnalyzedAt.Sub(created).Hours()
		s.CreatedAt = &created
		s.AgeInHours = &age
	}
}

func (b *Builder) withHolders(facts ChainFacts) {
	s := &b.snap
	s.TotalSupply = facts.Supply.Amount
	s.Decimals = facts.Supply.Decimals
	if facts.Holders == nil {
		return
	}
	s.HolderCount = facts.Holders.Count

	balances := make([]holders.Balance, 0, len(facts.Holders.Balances))
	for _, hb := range facts.Holders.Balances {
		balances = append(balances, holders.Balance{Owner: hb.Owner, Amount: hb.Amount})
	}
	analysis := holders.Analyze(facts.Supply.Amount, balances, b.isOnCurve)
	s.HolderAnalysis = analysis
	s.OffCurveExcludedCount = analysis.ExcludedOffCurveHolders
	s.LpLikeHolderPercent = math.Floor(holders.LpLikePercent(analysis.RawTopHolders))

	if !analysis.HasHolders() {
		return
	}
	selected := analysis.TopHolders
	s.TopHolderPercent = math.Floor(selected[0].Pct)
	if top3 := holders.Top3ExcludingLp(selected); top3 != nil {
		v := math.Floor(*top3)
		s.Top3ExcludingLpPercent = &v
	}
	s.Distribution = distribution(analysis)
}

// distribution derives the structured holder-quality input to the trust score
func distribution(a *models.HolderAnalysis) *models.DistributionAnalysis {
	selected := a.TopHolders
	conc := math.Min(maxConcentration, math.Max(minConcentration, math.Floor(a.Top10Concentration)))

	risk := types.ConcentrationLow
	switch {
	case conc > extremeConcentration:
		risk = types.ConcentrationExtreme
	case conc > highConcentration:
		risk = types.ConcentrationHigh
	case conc > mediumConcentration:
		risk = types.ConcentrationMedium
	}

	whales, small := 0, 0
	for _, h := range selected {
		if h.Pct >= whalePct {
			whales++
		}
		if h.Pct < smallHolderPct {
			small++
		}
	}

	return &models.DistributionAnalysis{
		DistributionScore:      math.Max(0, 100-conc),
		ConcentrationRisk:      risk,
		TopHolderPercent:       math.Floor(selected[0].Pct),
		Top5Percent:            math.Floor(holders.SumPct(selected, 5)),
		Top10Percent:           math.Floor(a.Top10Concentration),
		HasHealthyDistribution: conc < healthyConcentration,
		HasSuspiciousHolders:   conc > suspiciousConcentration,
		WhaleCount:             whales,
		SmallHolderRatio:       float64(small) / float64(max(1, len(selected))),
	}
}

func (b *Builder) withSocial(m *market.Data) {
	s := &b.snap
	tw, tg, web := channels(m.HasTwitter, m.HasTelegram, m.HasWebsite, m.Description)
	s.Social = models.SocialSignals{
		HasTwitter:   tw,
		HasTelegram:  tg,
		HasWebsite:   web,
		CommentCount: m.CommentCount,
		Replies:      m.Replies,
	}
	scoreSocial(&s.Social, m.MarketCap, m.Volume24h)
}

func (b *Builder) withIntel(facts ChainFacts) {
	s := &b.snap
	intel := models.SniperIntel{
		DumpRisk:    types.DumpRiskUnknown,
		BuyPressure: types.BuyPressureUnknown,
	}
	if facts.MintAuthority != nil {
		active := facts.MintAuthority.HasAuthority
		intel.HasActiveMintAuthority = &active
	}

	if facts.Deployer != nil {
		history := chain.DeployerHistory{TokenCount: 1}
		if facts.History != nil {
			history = *facts.History
		}
		intel.DeployerAddress = facts.Deployer
		intel.SameDeployerCount = max(1, history.TokenCount)
		intel.IsNewWallet = history.IsNewWallet
		intel.RugCreatorRisk = intel.SameDeployerCount > serialDeployerMin && intel.IsNewWallet
		intel.DeployerWalletAgeDays = history.WalletAgeDays()

		if p := facts.Patterns; p != nil {
			intel.FreshWalletBuys = p.SniperWallets
			intel.WalletClustering = p.Clustering
			intel.BotActivity = p.Suspicious
			intel.DumpRisk = types.DumpRiskLow
			if p.Suspicious {
				intel.DumpRisk = types.DumpRiskHigh
			}
			intel.BuyPressure = types.BuyPressureNormal
			if p.Clustering {
				intel.BuyPressure = types.BuyPressureWeak
			}
		}
	}
	s.Intel = intel
	s.Reputation = &models.CreatorReputation{
		ReputationScore:    neutralReputation,
		TokensCreated:      max(0, intel.SameDeployerCount-1),
		SuspiciousActivity: intel.RugCreatorRisk,
		HasHistory:         intel.SameDeployerCount > 1,
		WalletAgeDays:      intel.DeployerWalletAgeDays,
	}
}

func (b *Builder) withDeployerShare() {
	s := &b.snap
	if s.Intel.DeployerAddress == nil || !s.HolderAnalysis.HasHolders() {
		return
	}
	var pct float64
	for _, h := range s.HolderAnalysis.TopHolders {
		if h.Owner == *s.Intel.DeployerAddress {
			pct += h.Pct
		}
	}
	s.DeployerHolderPercent = math.Floor(pct)
}
