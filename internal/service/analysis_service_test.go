package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/token-trust-scanner/internal/chain"
	apperrors "github.com/token-trust-scanner/internal/errors"
	"github.com/token-trust-scanner/internal/market"
	"github.com/token-trust-scanner/internal/narrative"
	"github.com/token-trust-scanner/internal/trust"
	"github.com/token-trust-scanner/internal/types"
)

const (
	testMint    = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	testCreator = "9BB6NFEcjBCtnNLFko2FqVQBq8HHM13kCyYcdQbgpump"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeChain struct {
	mu    sync.Mutex
	calls []string

	supply     chain.TokenSupply
	holders    *chain.ResolvedHolders
	holdersErr error
	authority  *chain.MintAuthority
	authErr    error
	history    chain.DeployerHistory
	patterns   chain.TransactionPatterns
	deployer   *chain.DeployerAnalysis
	deployErr  error
	connected  bool
	enrichment bool
}

func (f *fakeChain) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeChain) called(call string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == call {
			return true
		}
	}
	return false
}

func (f *fakeChain) TokenSupply(ctx context.Context, mint string) chain.TokenSupply {
	f.record("supply")
	return f.supply
}

func (f *fakeChain) ResolveHolders(ctx context.Context, mint string) (*chain.ResolvedHolders, error) {
	f.record("holders")
	return f.holders, f.holdersErr
}

func (f *fakeChain) MintAuthority(ctx context.Context, mint string) (*chain.MintAuthority, error) {
	f.record("authority")
	return f.authority, f.authErr
}

func (f *fakeChain) DeployerHistory(ctx context.Context, deployer string) chain.DeployerHistory {
	f.record("history")
	return f.history
}

func (f *fakeChain) TransactionPatterns(ctx context.Context, mint string) chain.TransactionPatterns {
	f.record("patterns")
	return f.patterns
}

func (f *fakeChain) DeployerAnalysis(ctx context.Context, mint string) (*chain.DeployerAnalysis, error) {
	f.record("deployer")
	return f.deployer, f.deployErr
}

func (f *fakeChain) TestConnection(ctx context.Context) bool {
	f.record("connection")
	return f.connected
}

func (f *fakeChain) EnrichmentEnabled() bool { return f.enrichment }
func (f *fakeChain) Endpoint() string        { return "https://rpc.test" }

type fakeMarket struct {
	data      *market.Data
	err       error
	liquidity market.Liquidity
	fetches   int
}

func (f *fakeMarket) Fetch(ctx context.Context, mint string) (*market.Data, error) {
	f.fetches++
	return f.data, f.err
}

func (f *fakeMarket) Liquidity(ctx context.Context, mint string) market.Liquidity {
	return f.liquidity
}

type scriptedNarrator struct {
	summary string
	err     error
}

func (n scriptedNarrator) Summarize(ctx context.Context, facts narrative.Facts) (string, error) {
	return n.summary, n.err
}

func (n scriptedNarrator) Explain(ctx context.Context, facts narrative.Facts) (narrative.Explanation, error) {
	if n.err != nil {
		return narrative.Explanation{}, n.err
	}
	return narrative.Explanation{Overview: "Looks fine", RiskAssessment: "Low", Recommendation: "Size small"}, nil
}

func evenHolders(n int, amount int64) *chain.ResolvedHolders {
	out := &chain.ResolvedHolders{}
	for i := 0; i < n; i++ {
		out.Balances = append(out.Balances, chain.OwnedBalance{
			Account: fmt.Sprintf("acct%d", i),
			Owner:   fmt.Sprintf("wallet%d", i),
			Amount:  decimal.NewFromInt(amount),
		})
		out.Count++
	}
	return out
}

func healthyChain() *fakeChain {
	return &fakeChain{
		supply:     chain.TokenSupply{Amount: decimal.NewFromInt(1000), Decimals: 6},
		holders:    evenHolders(10, 30),
		authority:  &chain.MintAuthority{},
		history:    chain.DeployerHistory{TokenCount: 1},
		connected:  true,
		enrichment: true,
	}
}

func healthyMarket() *fakeMarket {
	created := testNow.Add(-800 * time.Hour)
	creator := testCreator
	return &fakeMarket{data: &market.Data{
		Address:   testMint,
		Symbol:    "CAT",
		Name:      "Cat",
		Creator:   &creator,
		CreatedAt: &created,
		Price:     0.01,
		MarketCap: 80000,
		Liquidity: 60000,
		Volume24h: 150000,
		DexID:     "raydium",
		Source:    types.SourceDexScreener,
	}}
}

func newTestService(c *fakeChain, m *fakeMarket, n narrative.Narrator) *AnalysisService {
	s := NewAnalysisService(c, m, n)
	s.SetClock(func() time.Time { return testNow })
	s.SetCurveClassifier(func(string) bool { return true })
	return s
}

func TestAnalyze_HealthyToken(t *testing.T) {
	c := healthyChain()
	s := newTestService(c, healthyMarket(), nil)

	report, err := s.Analyze(context.Background(), " "+testMint+" ")
	require.NoError(t, err)

	assert.GreaterOrEqual(t, report.TrustScore, 70)
	assert.Equal(t, trust.RiskLevelFor(report.TrustScore), report.RiskLevel)
	assert.Equal(t, 800.0, report.AgeInHours)
	assert.Equal(t, "1m 3d 8h", report.AgeFormatted)
	assert.Equal(t, []string{"No material threat signals detected from available data"}, report.KeyThreats)
	assert.Equal(t, types.RugLow, report.RugLevel)
	assert.Equal(t, "RESEARCH", report.VisualIndicator)
	assert.Contains(t, report.PositiveSignals, "Mint authority disabled")
	assert.Contains(t, report.PositiveSignals, "Liquidity support is solid (75% of market cap)")

	assert.Equal(t, "CAT - Cat | Price: $0.01 | Market Cap: $80,000", report.Summary)
	assert.False(t, report.Narrative.Generated)
	assert.Equal(t, "Token has "+string(report.RiskLevel)+" risk based on standard metrics", report.Narrative.RiskAssessment)

	assert.Equal(t, testMint, report.TokenInfo.Address)
	assert.Equal(t, 10, report.Breakdown.Holders)
	assert.Equal(t, types.ConcentrationLow, report.DistributionData.ConcentrationRisk)
	assert.Equal(t, 70.0, report.DistributionData.DistributionScore)
	require.NotNil(t, report.HolderContext.Top3ExcludingLpPercent)
	assert.Equal(t, 9.0, *report.HolderContext.Top3ExcludingLpPercent)
	assert.Equal(t, testNow, report.Timestamp)

	assert.True(t, c.called("history"))
	assert.True(t, c.called("patterns"))
	assert.Equal(t, int64(1), s.Monitor().GetStats().Succeeded)
}

func TestAnalyze_InvalidAddressMakesNoCalls(t *testing.T) {
	c := healthyChain()
	m := healthyMarket()
	s := newTestService(c, m, nil)

	for _, bad := range []string{"", "not-a-mint", "11111111111111111111111111111111"} {
		_, err := s.Analyze(context.Background(), bad)
		var svcErr *types.ServiceError
		require.ErrorAs(t, err, &svcErr, "address %q", bad)
		assert.Equal(t, types.ErrCodeInvalidAddress, svcErr.Code)
	}
	assert.Zero(t, m.fetches)
	assert.Empty(t, c.calls)
	assert.Equal(t, int64(3), s.Monitor().GetStats().FailuresByCode[types.ErrCodeInvalidAddress])
}

func TestAnalyze_NoMarketData(t *testing.T) {
	m := &fakeMarket{err: types.NewNoMarketDataError(testMint)}
	c := healthyChain()
	_, err := newTestService(c, m, nil).Analyze(context.Background(), testMint)

	require.Error(t, err)
	assert.Equal(t, 503, apperrors.GetHTTPStatusCode(err))
	assert.Empty(t, c.calls)
}

func TestAnalyze_DegradedChain(t *testing.T) {
	c := healthyChain()
	c.holders = nil
	c.holdersErr = errors.New("rpc down")
	c.authority = nil
	c.authErr = errors.New("rpc down")

	report, err := newTestService(c, healthyMarket(), nil).Analyze(context.Background(), testMint)
	require.NoError(t, err)

	assert.Zero(t, report.Breakdown.Holders)
	assert.Nil(t, report.HolderContext.Top3ExcludingLpPercent)
	assert.Equal(t, types.ConcentrationUnknown, report.DistributionData.ConcentrationRisk)
	assert.NotContains(t, report.PositiveSignals, "Mint authority disabled")
}

func TestAnalyze_EnrichmentDisabledSkipsDeployerScans(t *testing.T) {
	c := healthyChain()
	c.enrichment = false

	report, err := newTestService(c, healthyMarket(), nil).Analyze(context.Background(), testMint)
	require.NoError(t, err)

	assert.False(t, c.called("history"))
	assert.False(t, c.called("patterns"))
	assert.False(t, report.CreatorData.HasHistory)
	assert.Equal(t, 50, report.CreatorData.ReputationScore)
}

func TestAnalyze_InvalidCreatorSkipsDeployerScans(t *testing.T) {
	c := healthyChain()
	m := healthyMarket()
	bogus := "N/A(Error)"
	m.data.Creator = &bogus

	_, err := newTestService(c, m, nil).Analyze(context.Background(), testMint)
	require.NoError(t, err)
	assert.False(t, c.called("history"))
}

func TestAnalyze_SerialDeployerWithActiveMint(t *testing.T) {
	c := healthyChain()
	c.authority = &chain.MintAuthority{HasAuthority: true}
	c.history = chain.DeployerHistory{TokenCount: 4}

	report, err := newTestService(c, healthyMarket(), nil).Analyze(context.Background(), testMint)
	require.NoError(t, err)

	assert.Equal(t, []string{"Mint authority still active", "4 tokens from same deployer"}, report.KeyThreats)
	// capped at 82 points on the internal scale
	assert.LessOrEqual(t, report.TrustScore, 54)
	assert.Equal(t, 3, report.CreatorData.TokensCreated)
}

func TestAnalyze_Narrator(t *testing.T) {
	report, err := newTestService(healthyChain(), healthyMarket(), scriptedNarrator{summary: "CAT is a cat coin"}).
		Analyze(context.Background(), testMint)
	require.NoError(t, err)
	assert.Equal(t, "CAT is a cat coin", report.Summary)
	assert.Equal(t, "Looks fine", report.Narrative.Overview)
	assert.True(t, report.Narrative.Generated)

	report, err = newTestService(healthyChain(), healthyMarket(), scriptedNarrator{err: errors.New("quota")}).
		Analyze(context.Background(), testMint)
	require.NoError(t, err)
	assert.Equal(t, "CAT - Cat | Price: $0.01 | Market Cap: $80,000", report.Summary)
	assert.Equal(t, "AI analysis unavailable", report.Narrative.Overview)
	assert.False(t, report.Narrative.Generated)
}

func TestAnalyze_Idempotent(t *testing.T) {
	s := newTestService(healthyChain(), healthyMarket(), nil)
	first, err := s.Analyze(context.Background(), testMint)
	require.NoError(t, err)
	second, err := s.Analyze(context.Background(), testMint)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRiskCheck_Flags(t *testing.T) {
	c := healthyChain()
	c.holders = evenHolders(1, 1000)
	c.deployer = &chain.DeployerAnalysis{Address: testCreator, AgeDays: 3, OtherTokensCount: 2}
	m := &fakeMarket{liquidity: market.Liquidity{USD: 500, PairsFound: 2}}

	check, err := newTestService(c, m, nil).RiskCheck(context.Background(), testMint)
	require.NoError(t, err)

	assert.Equal(t, "1000", check.Supply)
	require.Len(t, check.TopHolders, 1)
	assert.True(t, check.DevWalletOwns100Percent)
	assert.True(t, check.Top10HoldersOwn100Percent)
	assert.Equal(t, 2, check.DeployerOtherTokensCount)
	assert.True(t, check.FreshDeployer)
	assert.True(t, check.NoLockedLiquidity)
	assert.Nil(t, check.SocialPresenceMinimal)
	require.NotNil(t, check.Deployer)
	assert.Equal(t, testCreator, *check.Deployer)
	assert.Equal(t, []string{
		"Top holder owns ≥99.9% of supply",
		"Top 10 holders control ≥99.9% of supply",
		"Deployer created 2 other tokens",
		"Deployer wallet is only 3 days old",
		"No verifiable LP lock check implemented; treat as unverified",
	}, check.Notes)
	assert.Equal(t, testNow, check.AnalyzedAt)
}

func TestRiskCheck_CleanToken(t *testing.T) {
	c := healthyChain()
	c.deployer = &chain.DeployerAnalysis{Address: testCreator, AgeDays: 400}
	m := &fakeMarket{liquidity: market.Liquidity{USD: 60000, PairsFound: 3}}

	check, err := newTestService(c, m, nil).RiskCheck(context.Background(), testMint)
	require.NoError(t, err)
	assert.False(t, check.DevWalletOwns100Percent)
	assert.False(t, check.FreshDeployer)
	assert.False(t, check.NoLockedLiquidity)
	assert.Empty(t, check.Notes)
	assert.NotNil(t, check.Notes)
}

func TestRiskCheck_UnknownDeployerAndNoPairs(t *testing.T) {
	c := healthyChain()
	c.deployErr = errors.New("no signatures")

	check, err := newTestService(c, &fakeMarket{}, nil).RiskCheck(context.Background(), testMint)
	require.NoError(t, err)
	assert.Nil(t, check.Deployer)
	assert.Nil(t, check.DeployerAgeDays)
	assert.False(t, check.FreshDeployer)
	assert.Equal(t, []string{"No liquidity pairs found"}, check.Notes)
}

func TestRiskCheck_Errors(t *testing.T) {
	s := newTestService(healthyChain(), &fakeMarket{}, nil)

	_, err := s.RiskCheck(context.Background(), "  ")
	cat := apperrors.Categorize(err)
	assert.Equal(t, types.ErrCodeMissingParameter, cat.Code)
	assert.Equal(t, MissingMintHint, cat.Message)
	assert.Equal(t, 400, cat.StatusCode)

	_, err = s.RiskCheck(context.Background(), "bogus")
	assert.Equal(t, types.ErrCodeInvalidAddress, apperrors.Categorize(err).Code)

	c := healthyChain()
	c.holders = nil
	c.holdersErr = errors.New("rpc down")
	_, err = newTestService(c, &fakeMarket{}, nil).RiskCheck(context.Background(), testMint)
	require.Error(t, err)
	assert.False(t, apperrors.IsUserError(err))
}

func TestTestConnection(t *testing.T) {
	c := healthyChain()
	status := newTestService(c, &fakeMarket{}, nil).TestConnection(context.Background())
	assert.True(t, status.Connected)
	assert.Equal(t, "https://rpc.test", status.RPCURL)
	assert.Equal(t, testNow, status.Timestamp)

	c.connected = false
	assert.False(t, newTestService(c, &fakeMarket{}, nil).TestConnection(context.Background()).Connected)
}
