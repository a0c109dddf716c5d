package chain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/token-trust-scanner/internal/ratelimit"
)

// Scan sizes and windows for the deployer and sniper heuristics
const (
	deployerSignatureLimit = 100
	deployerTxScan         = 20
	newWalletAge           = 7 * 24 * time.Hour

	patternSignatureLimit = 50
	patternMinSignatures  = 5
	patternTxScan         = 20
	clusterGap            = 30 * time.Second
	clusterMinTrades      = 3
	clusterShare          = 0.3
	suspiciousSnipers     = 5

	mintSignatureLimit  = 50
	deployerAgeSigLimit = 1000
	deployerMintScan    = 200
	day                 = 24 * time.Hour
)

// DeployerHistory summarises a creator wallet's recent activity
type DeployerHistory struct {
	TokenCount  int
	IsNewWallet bool
	// WalletAge is nil when no signature carried a block time
	WalletAge *time.Duration
}

// WalletAgeDays converts WalletAge to fractional days
func (h DeployerHistory) WalletAgeDays() *float64 {
	if h.WalletAge == nil {
		return nil
	}
	d := h.WalletAge.Hours() / 24
	return &d
}

// TransactionPatterns describes early-trade timing on a mint
type TransactionPatterns struct {
	SniperWallets int
	Clustering    bool
	Suspicious    bool
}

// DeployerAnalysis identifies who created a mint and what else they created
type DeployerAnalysis struct {
	Address          string
	AgeDays          int
	OtherTokensCount int
}

func createsTokens(logs []string) bool {
	for _, l := range logs {
		if strings.Contains(l, "InitializeMint") || strings.Contains(l, "CreateAccount") {
			return true
		}
	}
	return false
}

func initializesMint(logs []string) bool {
	for _, l := range logs {
		if strings.Contains(l, "InitializeMint") {
			return true
		}
	}
	return false
}

// oldestBlockTime walks newest-first signatures from the end
func oldestBlockTime(sigs []SignatureInfo) *time.Time {
	for i := len(sigs) - 1; i >= 0; i-- {
		if sigs[i].BlockTime != nil {
			return sigs[i].BlockTime
		}
	}
	return nil
}

func (p *Provider) signatures(ctx context.Context, address string, limit int) ([]SignatureInfo, error) {
	if err := p.acquire(ctx, ratelimit.MethodGetSignaturesForAddress, ratelimit.PoolEnrichment); err != nil {
		return nil, err
	}
	return p.rpc.GetSignatures(ctx, address, limit)
}

// transaction returns (nil, nil) for a per-transaction failure the caller
// should skip, and an error only when the credit budget ran out.
func (p *Provider) transaction(ctx context.Context, signature string) (*TransactionInfo, error) {
	if err := p.acquire(ctx, ratelimit.MethodGetTransaction, ratelimit.PoolEnrichment); err != nil {
		return nil, err
	}
	tx, err := p.rpc.GetTransaction(ctx, signature)
	if err != nil {
		p.logger.WithFields(map[string]interface{}{"signature": signature, "error": err.Error()}).
			Debug("Skipping unreadable transaction")
		return nil, nil
	}
	return tx, nil
}

// DeployerHistory counts token-creating transactions among the creator's
// recent activity and ages the wallet. Failures yield {1, false}.
func (p *Provider) DeployerHistory(ctx context.Context, deployer string) DeployerHistory {
	sigs, err := p.signatures(ctx, deployer, deployerSignatureLimit)
	if err != nil {
		p.logger.WithFields(map[string]interface{}{"deployer": deployer, "error": err.Error()}).
			Warn("Deployer history analysis failed")
		return DeployerHistory{TokenCount: 1}
	}
	if len(sigs) == 0 {
		return DeployerHistory{IsNewWallet: true}
	}

	history := DeployerHistory{}
	for _, sig := range sigs[:min(deployerTxScan, len(sigs))] {
		tx, err := p.transaction(ctx, sig.Signature)
		if err != nil {
			break
		}
		if tx != nil && createsTokens(tx.LogMessages) {
			history.TokenCount++
		}
	}

	if oldest := oldestBlockTime(sigs); oldest != nil {
		age := p.now().Sub(*oldest)
		history.WalletAge = &age
		history.IsNewWallet = age < newWalletAge
	}
	return history
}

// TransactionPatterns looks for many distinct wallets first trading the
// mint within seconds of each other.
func (p *Provider) TransactionPatterns(ctx context.Context, mint string) TransactionPatterns {
	sigs, err := p.signatures(ctx, mint, patternSignatureLimit)
	if err != nil {
		p.logger.WithFields(map[string]interface{}{"mint": mint, "error": err.Error()}).
			Warn("Transaction pattern analysis failed")
		return TransactionPatterns{}
	}
	if len(sigs) < patternMinSignatures {
		return TransactionPatterns{}
	}

	firstSeen := make(map[string]time.Time)
	for _, sig := range sigs[:min(patternTxScan, len(sigs))] {
		tx, err := p.transaction(ctx, sig.Signature)
		if err != nil {
			break
		}
		if tx == nil || tx.BlockTime == nil {
			continue
		}
		wallet := tx.FirstSigner()
		if wallet == "" {
			continue
		}
		if _, seen := firstSeen[wallet]; !seen {
			firstSeen[wallet] = *tx.BlockTime
		}
	}

	return clusterTimestamps(firstSeen)
}

func clusterTimestamps(firstSeen map[string]time.Time) TransactionPatterns {
	timestamps := make([]time.Time, 0, len(firstSeen))
	for _, ts := range firstSeen {
		timestamps = append(timestamps, ts)
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i].Before(timestamps[j]) })

	clustered := 0
	for i := 1; i < len(timestamps); i++ {
		if timestamps[i].Sub(timestamps[i-1]) < clusterGap {
			clustered++
		}
	}

	threshold := math.Max(clusterMinTrades, float64(len(timestamps))*clusterShare)
	clustering := float64(clustered) > threshold
	snipers := min(clustered, len(firstSeen))

	return TransactionPatterns{
		SniperWallets: snipers,
		Clustering:    clustering,
		Suspicious:    clustering && snipers > suspiciousSnipers,
	}
}

// DeployerAnalysis finds the mint's creator from its oldest visible
// transaction, ages the creator wallet, and counts other mints it
// initialised among its recent transactions.
func (p *Provider) DeployerAnalysis(ctx context.Context, mint string) (*DeployerAnalysis, error) {
	sigs, err := p.signatures(ctx, mint, mintSignatureLimit)
	if err != nil {
		return nil, fmt.Errorf("deployer analysis: %w", err)
	}
	if len(sigs) == 0 {
		return nil, errors.New("deployer analysis: no signatures found for mint")
	}

	deploySig := sigs[len(sigs)-1].Signature
	tx, err := p.transaction(ctx, deploySig)
	if err != nil {
		return nil, fmt.Errorf("deployer analysis: %w", err)
	}
	if tx == nil {
		return nil, errors.New("deployer analysis: failed to fetch deployment transaction")
	}
	deployer := tx.FirstSigner()
	if deployer == "" {
		return nil, errors.New("deployer analysis: could not identify deployer")
	}

	deployerSigs, err := p.signatures(ctx, deployer, deployerAgeSigLimit)
	if err != nil {
		return nil, fmt.Errorf("deployer analysis: %w", err)
	}

	result := &DeployerAnalysis{Address: deployer}
	if oldest := oldestBlockTime(deployerSigs); oldest != nil {
		result.AgeDays = int(math.Floor(float64(p.now().Sub(*oldest)) / float64(day)))
	}

	for _, sig := range deployerSigs[:min(deployerMintScan, len(deployerSigs))] {
		if sig.Signature == deploySig {
			continue
		}
		dtx, err := p.transaction(ctx, sig.Signature)
		if err != nil {
			p.logger.WithField("deployer", deployer).Debug("Stopping mint scan, credit budget exhausted")
			break
		}
		if dtx != nil && initializesMint(dtx.LogMessages) {
			result.OtherTokensCount++
		}
	}
	return result, nil
}
