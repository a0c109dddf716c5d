package market

import (
	"context"
	"strings"

	"github.com/token-trust-scanner/internal/logging"
	"github.com/token-trust-scanner/internal/types"
)

// Liquidity is the deepest pool found for a mint
type Liquidity struct {
	USD        float64
	PairsFound int
}

// Fetcher resolves market data by trying sources in order, then layers
// launchpad metadata on top when the token came from pump.fun
type Fetcher struct {
	sources []Source
	coins   CoinReader
	pairs   PairLister
	logger  *logging.Logger
}

// NewFetcher creates a fetcher. coins may be nil to skip pump.fun
// enrichment; pairs backs Liquidity.
func NewFetcher(sources []Source, coins CoinReader, pairs PairLister) *Fetcher {
	return &Fetcher{
		sources: sources,
		coins:   coins,
		pairs:   pairs,
		logger:  logging.GetGlobalLogger().WithComponent("market"),
	}
}

// Fetch returns the first source's answer, enriched. It fails with
// NO_MARKET_DATA when no source knows the mint.
func (f *Fetcher) Fetch(ctx context.Context, mint string) (*Data, error) {
	for _, src := range f.sources {
		data, err := src.Fetch(ctx, mint)
		if err != nil {
			f.logger.WithFields(map[string]interface{}{
				"mint":     mint,
				"provider": src.Name(),
				"error":    err.Error(),
			}).Warn("Market source failed")
			continue
		}
		if data == nil {
			f.logger.WithFields(map[string]interface{}{"mint": mint, "provider": src.Name()}).
				Debug("Market source has no data for mint")
			continue
		}
		f.enrich(ctx, data)
		return data, nil
	}
	return nil, types.NewNoMarketDataError(mint)
}

func isLaunchpadToken(d *Data) bool {
	return d.IsPumpfun || strings.HasSuffix(strings.ToLower(d.Address), "pump")
}

// enrich merges pump.fun metadata. Existing creator and creation time win,
// the launchpad description replaces the generated one, social flags are
// OR-ed and counts take the larger value.
func (f *Fetcher) enrich(ctx context.Context, d *Data) {
	if f.coins == nil || !isLaunchpadToken(d) {
		return
	}
	coin, err := f.coins.GetCoin(ctx, d.Address)
	if err != nil {
		f.logger.WithFields(map[string]interface{}{
			"mint":     d.Address,
			"provider": "pump.fun",
			"error":    err.Error(),
		}).Warn("pump.fun enrichment failed")
		return
	}
	if coin == nil {
		return
	}

	if d.Creator == nil {
		d.Creator = coin.Creator
	}
	if d.CreatedAt == nil {
		d.CreatedAt = coin.CreatedAt
	}
	if coin.Description != "" {
		d.Description = coin.Description
	}
	d.HasTwitter = d.HasTwitter || coin.HasTwitter
	d.HasTelegram = d.HasTelegram || coin.HasTelegram
	d.HasWebsite = d.HasWebsite || coin.HasWebsite
	d.CommentCount = max(d.CommentCount, coin.CommentCount)
	d.Replies = max(d.Replies, coin.CommentCount)
}

// Liquidity reports the deepest pair's USD liquidity. Failures read as
// no pairs.
func (f *Fetcher) Liquidity(ctx context.Context, mint string) Liquidity {
	if f.pairs == nil {
		return Liquidity{}
	}
	pairs, err := f.pairs.GetPairs(ctx, mint)
	if err != nil {
		f.logger.WithFields(map[string]interface{}{
			"mint":     mint,
			"provider": string(types.SourceDexScreener),
			"error":    err.Error(),
		}).Warn("Liquidity lookup failed")
		return Liquidity{}
	}
	best := DeepestPair(pairs)
	if best == nil {
		return Liquidity{}
	}
	return Liquidity{USD: best.LiquidityUSD(), PairsFound: len(pairs)}
}
