package service

import (
	"context"
	"math"

	"github.com/token-trust-scanner/internal/models"
	"github.com/token-trust-scanner/internal/narrative"
	"github.com/token-trust-scanner/internal/risk"
	"github.com/token-trust-scanner/internal/snapshot"
	"github.com/token-trust-scanner/internal/trust"
	"github.com/token-trust-scanner/internal/types"
)

// Report thresholds
const (
	highTopHolderPct     = 50.0
	extremeVolatilityPct = 200.0
)

// assemble scores the snapshot and attaches the narrative side-channel
func (s *AnalysisService) assemble(ctx context.Context, snap *models.TokenSnapshot) *models.RiskReport {
	report := BuildReport(snap)

	summary, explanation, generated := narrative.Generate(ctx, s.narrator, narrative.Facts{
		Symbol:     snap.Symbol,
		Name:       snap.Name,
		Price:      snap.Price,
		MarketCap:  snap.MarketCap,
		Volume24h:  snap.Volume24h,
		TrustScore: report.TrustScore,
		RiskLevel:  report.RiskLevel,
	})
	report.Summary = summary
	report.Narrative = models.NarrativeSection{
		Overview:       explanation.Overview,
		RiskAssessment: explanation.RiskAssessment,
		Recommendation: explanation.Recommendation,
		Generated:      generated,
	}
	report.Timestamp = snap.AnalyzedAt.UTC()
	return report
}

// BuildReport derives every scored field of the report from snap. The
// narrative and timestamp are left for the caller.
func BuildReport(snap *models.TokenSnapshot) *models.RiskReport {
	score := trust.Score(snap)
	threats := risk.DeriveThreats(snap)
	rug := risk.DeriveRugSignal(snap, score, threats)
	indicator := risk.VisualIndicator(rug.Level)

	var age float64
	if snap.AgeInHours != nil {
		age = *snap.AgeInHours
	}

	return &models.RiskReport{
		TrustScore:      score,
		RiskLevel:       trust.RiskLevelFor(score),
		AgeInHours:      age,
		AgeFormatted:    snapshot.FormatAge(age),
		RugProbability:  rug.Percent(),
		RugLevel:        rug.Level,
		KeyThreats:      risk.Texts(threats),
		PositiveSignals: nonNil(risk.DerivePositives(snap)),
		TraderNote:      risk.DeriveTraderNote(snap, threats),
		VisualIndicator: indicator.Label,
		IndicatorColor:  indicator.Color,

		HolderContext: models.HolderContext{
			TopHolderPercent:       snap.TopHolderPercent,
			Top3ExcludingLpPercent: snap.Top3ExcludingLpPercent,
			LpLikeHolderPercent:    snap.LpLikeHolderPercent,
			OffCurveExcludedCount:  snap.OffCurveExcludedCount,
		},
		TokenInfo: models.TokenInfo{
			Symbol:    snap.Symbol,
			Name:      snap.Name,
			Address:   snap.Address,
			Price:     snap.Price,
			MarketCap: snap.MarketCap,
			DexID:     snap.DexID,
			Source:    snap.Source,
			Creator:   snap.Creator,
			ImageURL:  snap.ImageURL,
		},
		Breakdown: models.Breakdown{
			Liquidity:        snap.Liquidity,
			Holders:          snap.HolderCount,
			Volume24h:        snap.Volume24h,
			Age:              age,
			TopHolderPercent: snap.TopHolderPercent,
			PriceChange24h:   snap.PriceChange24h,
			VolatilityScore:  snap.VolatilityScore,
		},
		SocialData: models.SocialData{
			SocialScore:              snap.Social.SocialScore,
			MentionVelocity:          snap.Social.MentionVelocity,
			OrganicGrowth:            snap.Social.OrganicGrowth,
			BuzzLevel:                snap.Social.BuzzLevel,
			HasTwitter:               snap.Social.HasTwitter,
			HasTelegram:              snap.Social.HasTelegram,
			HasWebsite:               snap.Social.HasWebsite,
			Replies:                  snap.Social.Replies,
			Description:              snap.Description,
			SuspiciousSocialActivity: snap.Social.Suspicious,
		},
		CreatorData:      creatorData(snap.Reputation),
		DistributionData: distributionData(snap.Distribution),
		RiskFactors: models.RiskFactors{
			HasHighTopHolder:         snap.TopHolderPercent >= highTopHolderPct,
			ExtremeVolatility:        math.Abs(snap.PriceChange24h) > extremeVolatilityPct,
			BondingCurveComplete:     snap.BondingCurveComplete,
			HasSuspiciousCreator:     snap.Reputation != nil && snap.Reputation.SuspiciousActivity,
			SuspiciousSocialActivity: snap.Social.Suspicious,
		},
	}
}

func creatorData(r *models.CreatorReputation) models.CreatorData {
	if r == nil {
		return models.CreatorData{}
	}
	return models.CreatorData{
		ReputationScore:    r.ReputationScore,
		TokensCreated:      r.TokensCreated,
		SuccessfulTokens:   r.SuccessfulTokens,
		SuspiciousActivity: r.SuspiciousActivity,
		HasHistory:         r.HasHistory,
		WalletAge:          r.WalletAgeDays,
	}
}

func distributionData(d *models.DistributionAnalysis) models.DistributionData {
	if d == nil {
		return models.DistributionData{ConcentrationRisk: types.ConcentrationUnknown}
	}
	return models.DistributionData(*d)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
