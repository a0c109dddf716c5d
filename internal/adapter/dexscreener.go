package adapter

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// DexToken is one side of a DexScreener pair
type DexToken struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

// DexLink is a website or social entry in pair info
type DexLink struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	URL   string `json:"url"`
}

// DexPairInfo carries the pair's image and links
type DexPairInfo struct {
	ImageURL string    `json:"imageUrl"`
	Websites []DexLink `json:"websites"`
	Socials  []DexLink `json:"socials"`
}

// DexPair is a DexScreener trading pair
type DexPair struct {
	ChainID     string    `json:"chainId"`
	DexID       string    `json:"dexId"`
	PairAddress string    `json:"pairAddress"`
	BaseToken   DexToken  `json:"baseToken"`
	QuoteToken  DexToken  `json:"quoteToken"`
	PriceUsd    FlexFloat `json:"priceUsd"`
	MarketCap   FlexFloat `json:"marketCap"`
	Fdv         FlexFloat `json:"fdv"`
	Liquidity   *struct {
		Usd FlexFloat `json:"usd"`
	} `json:"liquidity"`
	Volume struct {
		H24 FlexFloat `json:"h24"`
	} `json:"volume"`
	PriceChange struct {
		M5  FlexFloat `json:"m5"`
		H1  FlexFloat `json:"h1"`
		H6  FlexFloat `json:"h6"`
		H24 FlexFloat `json:"h24"`
	} `json:"priceChange"`
	// PairCreatedAt is in milliseconds
	PairCreatedAt int64        `json:"pairCreatedAt"`
	Info          *DexPairInfo `json:"info"`
}

// LiquidityUSD returns the pair's USD liquidity, or 0 when absent
func (p DexPair) LiquidityUSD() float64 {
	if p.Liquidity == nil {
		return 0
	}
	return p.Liquidity.Usd.Float()
}

// DexScreenerClient reads token pairs from the DexScreener public API
type DexScreenerClient struct {
	client  *HTTPClient
	baseURL string
}

// NewDexScreenerClient creates a client rooted at baseURL
func NewDexScreenerClient(client *HTTPClient, baseURL string) *DexScreenerClient {
	return &DexScreenerClient{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

// GetPairs returns every pair that trades mint; an unknown token yields none
func (c *DexScreenerClient) GetPairs(ctx context.Context, mint string) ([]DexPair, error) {
	var resp struct {
		Pairs []DexPair `json:"pairs"`
	}
	endpoint := fmt.Sprintf("%s/dex/tokens/%s", c.baseURL, url.PathEscape(mint))
	if err := c.client.GetJSON(ctx, endpoint, nil, &resp); err != nil {
		return nil, fmt.Errorf("dexscreener pairs: %w", err)
	}
	return resp.Pairs, nil
}
