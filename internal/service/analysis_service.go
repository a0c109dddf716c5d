// Package service orchestrates one analysis request: it validates the mint,
// gathers market and chain facts, builds the snapshot and assembles the
// report. All scoring is delegated to the pure risk and trust packages.
package service

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/token-trust-scanner/internal/chain"
	"github.com/token-trust-scanner/internal/holders"
	"github.com/token-trust-scanner/internal/logging"
	"github.com/token-trust-scanner/internal/market"
	"github.com/token-trust-scanner/internal/models"
	"github.com/token-trust-scanner/internal/narrative"
	"github.com/token-trust-scanner/internal/snapshot"
	"github.com/token-trust-scanner/internal/types"
)

// ChainReader is the chain data provider as seen by the service
type ChainReader interface {
	TokenSupply(ctx context.Context, mint string) chain.TokenSupply
	ResolveHolders(ctx context.Context, mint string) (*chain.ResolvedHolders, error)
	MintAuthority(ctx context.Context, mint string) (*chain.MintAuthority, error)
	DeployerHistory(ctx context.Context, deployer string) chain.DeployerHistory
	TransactionPatterns(ctx context.Context, mint string) chain.TransactionPatterns
	DeployerAnalysis(ctx context.Context, mint string) (*chain.DeployerAnalysis, error)
	TestConnection(ctx context.Context) bool
	EnrichmentEnabled() bool
	Endpoint() string
}

// MarketReader is the market data provider as seen by the service
type MarketReader interface {
	Fetch(ctx context.Context, mint string) (*market.Data, error)
	Liquidity(ctx context.Context, mint string) market.Liquidity
}

// AnalysisService produces risk reports for mints
type AnalysisService struct {
	chain     ChainReader
	market    MarketReader
	narrator  narrative.Narrator
	isOnCurve holders.CurveClassifier
	monitor   *PerformanceMonitor
	now       func() time.Time
}

// NewAnalysisService creates the service. A nil narrator uses the fallback text.
func NewAnalysisService(chainReader ChainReader, marketReader MarketReader, narrator narrative.Narrator) *AnalysisService {
	if narrator == nil {
		narrator = narrative.NoopNarrator{}
	}
	return &AnalysisService{
		chain:     chainReader,
		market:    marketReader,
		narrator:  narrator,
		isOnCurve: chain.IsOnCurve,
		monitor:   NewPerformanceMonitor(),
		now:       time.Now,
	}
}

// SetClock overrides the time source
func (s *AnalysisService) SetClock(now func() time.Time) { s.now = now }

// SetCurveClassifier overrides how holder wallets are classified
func (s *AnalysisService) SetCurveClassifier(fn holders.CurveClassifier) { s.isOnCurve = fn }

// Monitor exposes request metrics
func (s *AnalysisService) Monitor() *PerformanceMonitor { return s.monitor }

// Analyze returns the full risk report for mint. Address validation runs
// before any network call.
func (s *AnalysisService) Analyze(ctx context.Context, mint string) (*models.RiskReport, error) {
	start := time.Now()
	report, err := s.analyze(ctx, strings.TrimSpace(mint))
	s.monitor.RecordAnalysis(time.Since(start), err)
	return report, err
}

func (s *AnalysisService) analyze(ctx context.Context, mint string) (*models.RiskReport, error) {
	if !chain.ValidateAddress(mint) {
		return nil, types.NewInvalidAddressError(mint)
	}
	logger := logging.FromContext(ctx).WithField("mint", mint)

	data, err := s.market.Fetch(ctx, mint)
	if err != nil {
		logger.WithError(err).Warn("No market data for mint")
		return nil, err
	}

	facts := s.chainFacts(ctx, mint, data.Creator)
	snap := snapshot.NewBuilder(s.now(), s.isOnCurve).Build(data, facts)
	report := s.assemble(ctx, snap)

	logger.WithFields(map[string]interface{}{
		"trustScore": report.TrustScore,
		"riskLevel":  report.RiskLevel,
		"rugLevel":   report.RugLevel,
		"source":     snap.Source,
	}).Info("Token analyzed")
	return report, nil
}

// chainFacts runs the independent chain reads in parallel. Each read
// degrades on its own; none aborts the request.
func (s *AnalysisService) chainFacts(ctx context.Context, mint string, creator *string) snapshot.ChainFacts {
	logger := logging.FromContext(ctx).WithField("mint", mint)
	var (
		facts snapshot.ChainFacts
		g     errgroup.Group
	)

	g.Go(func() error {
		facts.Supply = s.chain.TokenSupply(ctx, mint)
		return nil
	})
	g.Go(func() error {
		resolved, err := s.chain.ResolveHolders(ctx, mint)
		if err != nil {
			logger.WithError(err).Warn("Holder lookup failed, continuing without holders")
			return nil
		}
		facts.Holders = resolved
		return nil
	})
	g.Go(func() error {
		authority, err := s.chain.MintAuthority(ctx, mint)
		if err != nil {
			logger.WithError(err).Debug("Mint authority unknown")
			return nil
		}
		facts.MintAuthority = authority
		return nil
	})

	if deployer := s.deployer(creator); deployer != "" {
		facts.Deployer = &deployer
		g.Go(func() error {
			history := s.chain.DeployerHistory(ctx, deployer)
			facts.History = &history
			return nil
		})
		g.Go(func() error {
			patterns := s.chain.TransactionPatterns(ctx, mint)
			facts.Patterns = &patterns
			return nil
		})
	}

	_ = g.Wait()
	return facts
}

// deployer returns the creator wallet the heuristics may scan, or ""
func (s *AnalysisService) deployer(creator *string) string {
	if creator == nil || !s.chain.EnrichmentEnabled() {
		return ""
	}
	if c := strings.TrimSpace(*creator); chain.ValidateAddress(c) {
		return c
	}
	return ""
}

// ConnectionStatus is the result of an RPC connectivity probe
type ConnectionStatus struct {
	Connected bool      `json:"connected"`
	RPCURL    string    `json:"rpcUrl"`
	Timestamp time.Time `json:"timestamp"`
}

// TestConnection probes the Solana RPC with getVersion
func (s *AnalysisService) TestConnection(ctx context.Context) ConnectionStatus {
	return ConnectionStatus{
		Connected: s.chain.TestConnection(ctx),
		RPCURL:    s.chain.Endpoint(),
		Timestamp: s.now().UTC(),
	}
}
