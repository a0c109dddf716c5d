package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveJSON(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(srv.Close)
	return srv
}

func TestDexScreenerClient_GetPairs(t *testing.T) {
	var path string
	srv := serveJSON(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_, _ = w.Write([]byte(`{"schemaVersion":"1.0.0","pairs":[{
			"chainId":"solana","dexId":"raydium","pairAddress":"P1",
			"baseToken":{"address":"` + testMintAddress + `","name":"Bonk","symbol":"BONK"},
			"priceUsd":"0.0012","marketCap":120000,"fdv":130000,
			"liquidity":{"usd":45000.5},"volume":{"h24":"80000"},
			"priceChange":{"m5":1,"h1":-2,"h6":null,"h24":"12.5"},
			"pairCreatedAt":1700000000000,
			"info":{"imageUrl":"https://img/x.png","websites":[{"label":"site","url":"https://bonk.xyz"}],"socials":[{"type":"twitter","url":"https://x.com/bonk"}]}
		}]}`))
	})

	pairs, err := NewDexScreenerClient(newTestHTTPClient(), srv.URL+"/").GetPairs(context.Background(), testMintAddress)
	require.NoError(t, err)
	assert.Equal(t, "/dex/tokens/"+testMintAddress, path)
	require.Len(t, pairs, 1)

	p := pairs[0]
	assert.Equal(t, "raydium", p.DexID)
	assert.InDelta(t, 0.0012, p.PriceUsd.Float(), 1e-12)
	assert.InDelta(t, 45000.5, p.LiquidityUSD(), 1e-9)
	assert.Equal(t, 80000.0, p.Volume.H24.Float())
	assert.Equal(t, 0.0, p.PriceChange.H6.Float())
	assert.Equal(t, 12.5, p.PriceChange.H24.Float())
	assert.Equal(t, int64(1700000000000), p.PairCreatedAt)
	require.NotNil(t, p.Info)
	assert.Equal(t, "twitter", p.Info.Socials[0].Type)
	assert.Len(t, p.Info.Websites, 1)
}

func TestDexScreenerClient_NoPairs(t *testing.T) {
	srv := serveJSON(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"schemaVersion":"1.0.0","pairs":null}`))
	})

	pairs, err := NewDexScreenerClient(newTestHTTPClient(), srv.URL).GetPairs(context.Background(), testMintAddress)
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestDexPair_LiquidityAbsent(t *testing.T) {
	assert.Equal(t, 0.0, DexPair{}.LiquidityUSD())
}

func TestJupiterClient_GetPrice(t *testing.T) {
	var ids string
	srv := serveJSON(t, func(w http.ResponseWriter, r *http.Request) {
		ids = r.URL.Query().Get("ids")
		_, _ = w.Write([]byte(`{"data":{"` + testMintAddress + `":{"id":"` + testMintAddress + `","price":"1.0001"}},"timeTaken":0.01}`))
	})

	c := NewJupiterClient(newTestHTTPClient(), srv.URL+"/price", srv.URL+"/token")
	price, found, err := c.GetPrice(context.Background(), testMintAddress)
	require.NoError(t, err)
	assert.Equal(t, testMintAddress, ids)
	assert.True(t, found)
	assert.InDelta(t, 1.0001, price, 1e-12)
}

func TestJupiterClient_PriceNotListed(t *testing.T) {
	srv := serveJSON(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{}}`))
	})

	c := NewJupiterClient(newTestHTTPClient(), srv.URL+"/price", srv.URL+"/token")
	_, found, err := c.GetPrice(context.Background(), testMintAddress)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestJupiterClient_GetToken(t *testing.T) {
	var path string
	srv := serveJSON(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_, _ = w.Write([]byte(`{"address":"` + testMintAddress + `","symbol":"USDC","name":"USD Coin","logoURI":"https://logo","decimals":6,"supply":"5000000"}`))
	})

	c := NewJupiterClient(newTestHTTPClient(), srv.URL+"/price", srv.URL+"/token/")
	token, err := c.GetToken(context.Background(), testMintAddress)
	require.NoError(t, err)
	assert.Equal(t, "/token/"+testMintAddress, path)
	assert.Equal(t, "USDC", token.Symbol)
	assert.Equal(t, "USD Coin", token.Name)
	assert.Equal(t, "https://logo", token.LogoURI)
	assert.Equal(t, 5_000_000.0, token.Supply.Float())
}

func TestJupiterClient_TokenError(t *testing.T) {
	srv := serveJSON(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	c := NewJupiterClient(newTestHTTPClient(), srv.URL+"/price", srv.URL+"/token")
	_, err := c.GetToken(context.Background(), testMintAddress)
	assert.ErrorContains(t, err, "jupiter token")
}

func TestPumpfunClient_GetCoin(t *testing.T) {
	var referer string
	srv := serveJSON(t, func(w http.ResponseWriter, r *http.Request) {
		referer = r.Header.Get("Referer")
		_, _ = w.Write([]byte(`{"data":{
			"symbol":"PEPE","name":"Pepe","description":"frog",
			"deployer":"Dep1111111111111111111111111111111",
			"created_timestamp":1700000000000,
			"raydium_pool":"Pool111","social":{"twitter":"https://x.com/p","telegram":""},
			"website":"https://pepe.fun",
			"reply_count":0,"replies":"17","comment_count":3,
			"image":"https://img/p.png","show_name":true
		}}`))
	})

	coin, err := NewPumpfunClient(newTestHTTPClient(), []string{srv.URL + "/coins/"}).GetCoin(context.Background(), "abcpump")
	require.NoError(t, err)
	assert.Equal(t, "https://pump.fun/", referer)
	assert.Equal(t, srv.URL+"/coins/abcpump", coin.Endpoint)
	assert.Equal(t, "PEPE", coin.Symbol)
	require.NotNil(t, coin.Creator)
	assert.Equal(t, "Dep1111111111111111111111111111111", *coin.Creator)
	require.NotNil(t, coin.CreatedAt)
	assert.True(t, coin.CreatedAt.Equal(time.UnixMilli(1700000000000)))
	assert.True(t, coin.Complete)
	assert.True(t, coin.HasTwitter)
	assert.False(t, coin.HasTelegram)
	assert.True(t, coin.HasWebsite)
	assert.Equal(t, 17, coin.CommentCount)
	require.NotNil(t, coin.ImageURL)
	assert.Equal(t, "https://img/p.png", *coin.ImageURL)
	assert.True(t, coin.ShowName)
}

func TestPumpfunClient_FlatBodyAndSecondsTimestamp(t *testing.T) {
	srv := serveJSON(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"creator":"C1","created_timestamp":1700000000,"complete":false,"raydium_pool":null,"total_replies":4}`))
	})

	coin, err := NewPumpfunClient(newTestHTTPClient(), []string{srv.URL}).GetCoin(context.Background(), "m")
	require.NoError(t, err)
	require.NotNil(t, coin.CreatedAt)
	assert.Equal(t, int64(1700000000), coin.CreatedAt.Unix())
	assert.False(t, coin.Complete)
	assert.Equal(t, 4, coin.CommentCount)
	assert.Nil(t, coin.ImageURL)
}

func TestPumpfunClient_FallsBackToNextEndpoint(t *testing.T) {
	down := serveJSON(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	up := serveJSON(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"creator":"C2"}`))
	})

	coin, err := NewPumpfunClient(newTestHTTPClient(), []string{down.URL, " ", up.URL}).GetCoin(context.Background(), "m")
	require.NoError(t, err)
	assert.Equal(t, up.URL+"/m", coin.Endpoint)
	assert.Equal(t, "C2", *coin.Creator)
}

func TestPumpfunClient_NoEndpoints(t *testing.T) {
	_, err := NewPumpfunClient(newTestHTTPClient(), nil).GetCoin(context.Background(), "m")
	assert.Error(t, err)
}

func TestFlexFloat(t *testing.T) {
	cases := map[string]float64{
		`1.5`:     1.5,
		`"2.25"`:  2.25,
		`null`:    0,
		`"abc"`:   0,
		`true`:    0,
		`{"a":1}`: 0,
	}
	for raw, want := range cases {
		var f FlexFloat
		require.NoError(t, f.UnmarshalJSON([]byte(raw)), raw)
		assert.Equal(t, want, f.Float(), raw)
	}
}
