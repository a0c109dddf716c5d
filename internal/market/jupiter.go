package market

import (
	"context"

	"github.com/token-trust-scanner/internal/logging"
	"github.com/token-trust-scanner/internal/types"
)

// JupiterSource prices a mint with the Jupiter price API and names it
// from the Jupiter token list
type JupiterSource struct {
	api    PriceReader
	logger *logging.Logger
}

// NewJupiterSource creates a Jupiter-backed source
func NewJupiterSource(api PriceReader) *JupiterSource {
	return &JupiterSource{api: api, logger: logging.GetGlobalLogger().WithComponent("market.jupiter")}
}

// Name implements Source
func (s *JupiterSource) Name() string { return string(types.SourceJupiter) }

// Fetch implements Source. Jupiter reports no liquidity, volume or price
// change, so those stay at zero.
func (s *JupiterSource) Fetch(ctx context.Context, mint string) (*Data, error) {
	price, found, err := s.api.GetPrice(ctx, mint)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	token, err := s.api.GetToken(ctx, mint)
	if err != nil {
		s.logger.WithFields(map[string]interface{}{"mint": mint, "error": err.Error()}).
			Debug("Jupiter metadata unavailable, using price only")
		return &Data{
			Address:     mint,
			Symbol:      NotAvailable,
			Name:        NotAvailable,
			Description: NotAvailable,
			Price:       price,
			Source:      types.SourceJupiterPriceOnly,
		}, nil
	}

	return &Data{
		Address:     mint,
		Symbol:      orNotAvailable(token.Symbol),
		Name:        orNotAvailable(token.Name),
		Description: describe(token.Name),
		ImageURL:    stringPtr(token.LogoURI),
		Price:       price,
		MarketCap:   price * token.Supply.Float(),
		Source:      types.SourceJupiter,
	}, nil
}
