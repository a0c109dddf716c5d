package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/token-trust-scanner/internal/chain"
	apperrors "github.com/token-trust-scanner/internal/errors"
	"github.com/token-trust-scanner/internal/holders"
	"github.com/token-trust-scanner/internal/logging"
	"github.com/token-trust-scanner/internal/market"
	"github.com/token-trust-scanner/internal/models"
	"github.com/token-trust-scanner/internal/types"
)

// MissingMintHint is returned when /api/risk is called without a mint
const MissingMintHint = "Please provide a mint address: /api/risk?mint=<MINT_ADDRESS>"

// Quick-check thresholds
const (
	fullSupplyPct       = 99.9
	freshDeployerDays   = 30
	lockedLiquidityUSD  = 1000.0
	noPairsNote         = "No liquidity pairs found"
	unverifiedLockNote  = "No verifiable LP lock check implemented; treat as unverified"
	topHolderFullNote   = "Top holder owns ≥99.9% of supply"
	top10HoldersAllNote = "Top 10 holders control ≥99.9% of supply"
)

// RiskCheck runs the quick deployer and holder screen for mint
func (s *AnalysisService) RiskCheck(ctx context.Context, mint string) (*models.RiskCheck, error) {
	mint = strings.TrimSpace(mint)
	if mint == "" {
		return nil, apperrors.NewMissingParameterError("mint", MissingMintHint)
	}
	if !chain.ValidateAddress(mint) {
		return nil, types.NewInvalidAddressError(mint)
	}
	logger := logging.FromContext(ctx).WithField("mint", mint)

	var (
		supply    chain.TokenSupply
		resolved  *chain.ResolvedHolders
		deployer  *chain.DeployerAnalysis
		liquidity market.Liquidity
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		supply = s.chain.TokenSupply(gctx, mint)
		return nil
	})
	g.Go(func() error {
		var err error
		resolved, err = s.chain.ResolveHolders(gctx, mint)
		if err != nil {
			return apperrors.NewProviderError("solana-rpc", err)
		}
		return nil
	})
	g.Go(func() error {
		analysis, err := s.chain.DeployerAnalysis(gctx, mint)
		if err != nil {
			logger.WithError(err).Debug("Deployer analysis unavailable")
			return nil
		}
		deployer = analysis
		return nil
	})
	g.Go(func() error {
		liquidity = s.market.Liquidity(gctx, mint)
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.WithError(err).Warn("Risk check failed")
		return nil, err
	}

	balances := make([]holders.Balance, 0, len(resolved.Balances))
	for _, b := range resolved.Balances {
		balances = append(balances, holders.Balance{Owner: b.Owner, Amount: b.Amount})
	}
	analysis := holders.Analyze(supply.Amount, balances, s.isOnCurve)

	check := &models.RiskCheck{
		Mint:         mint,
		Supply:       supply.Amount.String(),
		TopHolders:   analysis.TopHolders,
		LiquidityUsd: liquidity.USD,
		PairsFound:   liquidity.PairsFound,
		Notes:        []string{},
		AnalyzedAt:   s.now().UTC(),
	}
	if check.TopHolders == nil {
		check.TopHolders = []models.HolderRecord{}
	}

	check.DevWalletOwns100Percent = analysis.HasHolders() && analysis.TopHolders[0].Pct >= fullSupplyPct
	check.Top10HoldersOwn100Percent = analysis.Top10Concentration >= fullSupplyPct
	if deployer != nil {
		age := deployer.AgeDays
		check.Deployer = &deployer.Address
		check.DeployerAgeDays = &age
		check.DeployerOtherTokensCount = deployer.OtherTokensCount
		check.FreshDeployer = age < freshDeployerDays
	}
	check.NoLockedLiquidity = liquidity.PairsFound == 0 || liquidity.USD < lockedLiquidityUSD

	if check.DevWalletOwns100Percent {
		check.Notes = append(check.Notes, topHolderFullNote)
	}
	if check.Top10HoldersOwn100Percent {
		check.Notes = append(check.Notes, top10HoldersAllNote)
	}
	if check.DeployerOtherTokensCount > 0 {
		check.Notes = append(check.Notes, fmt.Sprintf("Deployer created %d other tokens", check.DeployerOtherTokensCount))
	}
	if check.FreshDeployer {
		check.Notes = append(check.Notes, fmt.Sprintf("Deployer wallet is only %d days old", *check.DeployerAgeDays))
	}
	if check.NoLockedLiquidity {
		if liquidity.PairsFound == 0 {
			check.Notes = append(check.Notes, noPairsNote)
		} else {
			check.Notes = append(check.Notes, unverifiedLockNote)
		}
	}
	return check, nil
}
