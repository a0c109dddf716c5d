package adapter

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// JupiterToken is token-list metadata for a mint
type JupiterToken struct {
	Address  string    `json:"address"`
	Symbol   string    `json:"symbol"`
	Name     string    `json:"name"`
	LogoURI  string    `json:"logoURI"`
	Decimals int       `json:"decimals"`
	Supply   FlexFloat `json:"supply"`
}

// JupiterClient reads prices and token metadata from Jupiter
type JupiterClient struct {
	client   *HTTPClient
	priceURL string
	tokenURL string
}

// NewJupiterClient creates a client for the given price and token endpoints
func NewJupiterClient(client *HTTPClient, priceURL, tokenURL string) *JupiterClient {
	return &JupiterClient{
		client:   client,
		priceURL: priceURL,
		tokenURL: strings.TrimRight(tokenURL, "/"),
	}
}

// GetPrice returns the USD price for mint. found is false when Jupiter
// does not price the token.
func (c *JupiterClient) GetPrice(ctx context.Context, mint string) (price float64, found bool, err error) {
	var resp struct {
		Data map[string]*struct {
			ID    string    `json:"id"`
			Price FlexFloat `json:"price"`
		} `json:"data"`
	}
	endpoint := c.priceURL + "?ids=" + url.QueryEscape(mint)
	if err := c.client.GetJSON(ctx, endpoint, nil, &resp); err != nil {
		return 0, false, fmt.Errorf("jupiter price: %w", err)
	}
	entry, ok := resp.Data[mint]
	if !ok || entry == nil {
		return 0, false, nil
	}
	return entry.Price.Float(), true, nil
}

// GetToken returns token-list metadata for mint
func (c *JupiterClient) GetToken(ctx context.Context, mint string) (*JupiterToken, error) {
	var token JupiterToken
	endpoint := fmt.Sprintf("%s/%s", c.tokenURL, url.PathEscape(mint))
	if err := c.client.GetJSON(ctx, endpoint, nil, &token); err != nil {
		return nil, fmt.Errorf("jupiter token: %w", err)
	}
	return &token, nil
}
