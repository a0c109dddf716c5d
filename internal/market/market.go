// Package market gathers price, liquidity and social facts for a mint from
// external market APIs, trying each source in order until one answers.
package market

import (
	"context"
	"time"

	"github.com/token-trust-scanner/internal/adapter"
	"github.com/token-trust-scanner/internal/types"
)

// NotAvailable is the placeholder for metadata a source could not supply
const NotAvailable = "N/A(Error)"

// Data is the market view of one mint as returned by a Source
type Data struct {
	Address     string
	Symbol      string
	Name        string
	Description string
	ImageURL    *string
	Creator     *string
	CreatedAt   *time.Time

	Price          float64
	MarketCap      float64
	Liquidity      float64
	Volume24h      float64
	PriceChange24h float64
	DexID          string
	Source         types.DataSource

	IsPumpfun            bool
	BondingCurveComplete bool

	HasTwitter   bool
	HasTelegram  bool
	HasWebsite   bool
	CommentCount int
	Replies      int

	// VolatilityScore is nil when the source has no intraday price changes
	VolatilityScore *float64
}

// Source fetches market data for a mint. A nil result with a nil error
// means the source does not know the token.
type Source interface {
	Name() string
	Fetch(ctx context.Context, mint string) (*Data, error)
}

// PairLister lists DEX pairs for a mint
type PairLister interface {
	GetPairs(ctx context.Context, mint string) ([]adapter.DexPair, error)
}

// PriceReader reads prices and token-list metadata
type PriceReader interface {
	GetPrice(ctx context.Context, mint string) (float64, bool, error)
	GetToken(ctx context.Context, mint string) (*adapter.JupiterToken, error)
}

// CoinReader reads launchpad coin records
type CoinReader interface {
	GetCoin(ctx context.Context, mint string) (*adapter.PumpCoin, error)
}

func describe(name string) string {
	if name == "" {
		return NotAvailable
	}
	return name + " on Solana"
}

func orNotAvailable(s string) string {
	if s == "" {
		return NotAvailable
	}
	return s
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
