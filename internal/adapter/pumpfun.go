package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// pump.fun rejects requests without a site referer
var pumpfunHeaders = map[string]string{"Referer": "https://pump.fun/"}

// PumpCoin is the normalised subset of a pump.fun coin record
type PumpCoin struct {
	Symbol       string
	Name         string
	Description  string
	Creator      *string
	CreatedAt    *time.Time
	Complete     bool
	HasTwitter   bool
	HasTelegram  bool
	HasWebsite   bool
	CommentCount int
	ImageURL     *string
	ShowName     bool
	// Endpoint is the URL that answered
	Endpoint string
}

type pumpSocials struct {
	Twitter  string `json:"twitter"`
	Telegram string `json:"telegram"`
	Website  string `json:"website"`
}

type pumpPayload struct {
	Symbol           string          `json:"symbol"`
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	Creator          string          `json:"creator"`
	Deployer         string          `json:"deployer"`
	CreatedTimestamp FlexFloat       `json:"created_timestamp"`
	Complete         bool            `json:"complete"`
	RaydiumPool      json.RawMessage `json:"raydium_pool"`
	Twitter          string          `json:"twitter"`
	Telegram         string          `json:"telegram"`
	Website          string          `json:"website"`
	Social           *pumpSocials    `json:"social"`
	ReplyCount       FlexFloat       `json:"reply_count"`
	Replies          FlexFloat       `json:"replies"`
	CommentCountRaw  FlexFloat       `json:"comment_count"`
	Comments         FlexFloat       `json:"comments"`
	TotalReplies     FlexFloat       `json:"total_replies"`
	ImageURI         string          `json:"image_uri"`
	Image            string          `json:"image"`
	ShowName         bool            `json:"show_name"`
}

// PumpfunClient reads coin records from the pump.fun family of APIs
type PumpfunClient struct {
	client    *HTTPClient
	endpoints []string
}

// NewPumpfunClient creates a client that tries endpoints in order
func NewPumpfunClient(client *HTTPClient, endpoints []string) *PumpfunClient {
	trimmed := make([]string, 0, len(endpoints))
	for _, ep := range endpoints {
		if ep = strings.TrimRight(strings.TrimSpace(ep), "/"); ep != "" {
			trimmed = append(trimmed, ep)
		}
	}
	return &PumpfunClient{client: client, endpoints: trimmed}
}

// GetCoin fetches mint's coin record from the first endpoint that answers
func (c *PumpfunClient) GetCoin(ctx context.Context, mint string) (*PumpCoin, error) {
	if len(c.endpoints) == 0 {
		return nil, fmt.Errorf("pump.fun: no endpoints configured")
	}
	urls := make([]string, len(c.endpoints))
	for i, base := range c.endpoints {
		urls[i] = base + "/" + url.PathEscape(mint)
	}

	body, used, err := c.client.GetWithFallbacks(ctx, urls, pumpfunHeaders)
	if err != nil {
		return nil, fmt.Errorf("pump.fun: %w", err)
	}

	var payload pumpPayload
	if err := json.Unmarshal(unwrapData(body), &payload); err != nil {
		return nil, fmt.Errorf("pump.fun: decode coin: %w", err)
	}
	coin := payload.normalise()
	coin.Endpoint = used
	return coin, nil
}

// unwrapData returns body.data when it is an object, else body
func unwrapData(body json.RawMessage) json.RawMessage {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return body
	}
	if d := bytes.TrimSpace(envelope.Data); len(d) > 0 && d[0] == '{' {
		return d
	}
	return body
}

func nonEmpty(values ...string) *string {
	for _, v := range values {
		if v != "" {
			s := v
			return &s
		}
	}
	return nil
}

func (p pumpPayload) normalise() *PumpCoin {
	coin := &PumpCoin{
		Symbol:      p.Symbol,
		Name:        p.Name,
		Description: p.Description,
		Creator:     nonEmpty(p.Creator, p.Deployer),
		Complete:    p.Complete || isTruthy(p.RaydiumPool),
		HasTwitter:  p.Twitter != "",
		HasTelegram: p.Telegram != "",
		HasWebsite:  p.Website != "",
		ImageURL:    nonEmpty(p.ImageURI, p.Image),
		ShowName:    p.ShowName,
	}
	if p.Social != nil {
		coin.HasTwitter = coin.HasTwitter || p.Social.Twitter != ""
		coin.HasTelegram = coin.HasTelegram || p.Social.Telegram != ""
		coin.HasWebsite = coin.HasWebsite || p.Social.Website != ""
	}

	if ts := p.CreatedTimestamp.Float(); ts > 0 {
		var created time.Time
		if ts > 1e12 {
			created = time.UnixMilli(int64(ts)).UTC()
		} else {
			created = time.Unix(int64(ts), 0).UTC()
		}
		coin.CreatedAt = &created
	}

	for _, n := range []FlexFloat{p.ReplyCount, p.Replies, p.CommentCountRaw, p.Comments, p.TotalReplies} {
		if n.Float() != 0 {
			coin.CommentCount = int(n.Float())
			break
		}
	}
	return coin
}

// isTruthy reports a JSON value other than null, false, 0 or ""
func isTruthy(raw json.RawMessage) bool {
	v := string(bytes.TrimSpace(raw))
	switch v {
	case "", "null", "false", "0", `""`:
		return false
	}
	return true
}
