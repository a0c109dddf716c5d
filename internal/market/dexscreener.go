package market

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/token-trust-scanner/internal/adapter"
	"github.com/token-trust-scanner/internal/types"
)

const (
	// pump.fun curves graduate to an AMM near this market cap
	graduationMarketCap = 25000
	maxVolatilityScore  = 100
	launchpadDexID      = "pumpfun"
)

// DexScreenerSource reads the best DEX pair for a mint
type DexScreenerSource struct {
	api PairLister
}

// NewDexScreenerSource creates a DexScreener-backed source
func NewDexScreenerSource(api PairLister) *DexScreenerSource {
	return &DexScreenerSource{api: api}
}

// Name implements Source
func (s *DexScreenerSource) Name() string { return string(types.SourceDexScreener) }

// Fetch implements Source
func (s *DexScreenerSource) Fetch(ctx context.Context, mint string) (*Data, error) {
	pairs, err := s.api.GetPairs(ctx, mint)
	if err != nil {
		return nil, err
	}
	pair := SelectBestPair(pairs)
	if pair == nil {
		return nil, nil
	}

	mc := pair.MarketCap.Float()
	d := &Data{
		Address:              mint,
		Symbol:               orNotAvailable(pair.BaseToken.Symbol),
		Name:                 orNotAvailable(pair.BaseToken.Name),
		Description:          describe(pair.BaseToken.Name),
		Price:                pair.PriceUsd.Float(),
		MarketCap:            mc,
		Liquidity:            pair.LiquidityUSD(),
		Volume24h:            pair.Volume.H24.Float(),
		PriceChange24h:       pair.PriceChange.H24.Float(),
		DexID:                firstNonEmpty(pair.DexID, pair.ChainID, launchpadDexID),
		Source:               types.SourceDexScreener,
		IsPumpfun:            strings.Contains(pair.DexID, "pump"),
		BondingCurveComplete: mc > graduationMarketCap,
	}
	v := VolatilityScore(*pair)
	d.VolatilityScore = &v

	if pair.PairCreatedAt > 0 {
		created := time.UnixMilli(pair.PairCreatedAt).UTC()
		d.CreatedAt = &created
	}
	if info := pair.Info; info != nil {
		d.ImageURL = stringPtr(info.ImageURL)
		for _, link := range info.Socials {
			switch strings.ToLower(link.Type) {
			case "twitter":
				d.HasTwitter = true
			case "telegram":
				d.HasTelegram = true
			}
		}
		d.HasWebsite = len(info.Websites) > 0
	}
	return d, nil
}

// SelectBestPair prefers the launchpad pair, else the deepest liquidity.
// Ties keep the first pair seen. It returns nil for no pairs.
func SelectBestPair(pairs []adapter.DexPair) *adapter.DexPair {
	for i := range pairs {
		if pairs[i].DexID == launchpadDexID {
			return &pairs[i]
		}
	}
	return DeepestPair(pairs)
}

// DeepestPair returns the pair with the highest USD liquidity
func DeepestPair(pairs []adapter.DexPair) *adapter.DexPair {
	if len(pairs) == 0 {
		return nil
	}
	best := &pairs[0]
	for i := 1; i < len(pairs); i++ {
		if pairs[i].LiquidityUSD() > best.LiquidityUSD() {
			best = &pairs[i]
		}
	}
	return best
}

// VolatilityScore is the mean absolute price change over the m5, h1, h6
// and h24 windows, floored and capped at 100
func VolatilityScore(p adapter.DexPair) float64 {
	changes := []float64{
		p.PriceChange.M5.Float(),
		p.PriceChange.H1.Float(),
		p.PriceChange.H6.Float(),
		p.PriceChange.H24.Float(),
	}
	var sum float64
	for _, c := range changes {
		sum += math.Abs(c)
	}
	return math.Min(maxVolatilityScore, math.Floor(sum/float64(len(changes))))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
