package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/token-trust-scanner/internal/logging"
	"github.com/token-trust-scanner/internal/ratelimit"
)

// DefaultDecimals is reported when the supply lookup fails
const DefaultDecimals = 9

// OwnedBalance is a largest-accounts entry resolved to its owning wallet
type OwnedBalance struct {
	Account string
	Owner   string
	Amount  decimal.Decimal
}

// ResolvedHolders carries the largest token accounts of a mint
type ResolvedHolders struct {
	// Count is the number of largest accounts with a positive balance
	Count int
	// Balances keeps the RPC's ordering; unresolved accounts have Owner ""
	Balances []OwnedBalance
}

// MintAuthority describes whether new supply can still be minted
type MintAuthority struct {
	HasAuthority bool
	Authority    *string
}

// Provider issues metered RPC reads and degrades failures to soft defaults
type Provider struct {
	rpc        RPC
	gate       *ratelimit.Gate
	enrichment bool
	now        func() time.Time
	logger     *logging.Logger
}

// NewProvider creates a provider. A nil gate disables credit metering.
// enrichment=false skips the multi-call deployer and pattern scans.
func NewProvider(rpc RPC, gate *ratelimit.Gate, enrichment bool) *Provider {
	return &Provider{
		rpc:        rpc,
		gate:       gate,
		enrichment: enrichment,
		now:        time.Now,
		logger:     logging.GetGlobalLogger().WithComponent("chain"),
	}
}

// SetClock overrides the time source
func (p *Provider) SetClock(now func() time.Time) { p.now = now }

// EnrichmentEnabled reports whether deployer heuristics may run
func (p *Provider) EnrichmentEnabled() bool { return p.enrichment }

// Endpoint returns the RPC URL currently in use
func (p *Provider) Endpoint() string { return p.rpc.Endpoint() }

func (p *Provider) acquire(ctx context.Context, method string, pool ratelimit.Pool) error {
	return p.gate.Acquire(ctx, method, pool)
}

// TestConnection reports whether the RPC answers getVersion
func (p *Provider) TestConnection(ctx context.Context) bool {
	if err := p.acquire(ctx, ratelimit.MethodGetVersion, ratelimit.PoolCore); err != nil {
		return false
	}
	version, err := p.rpc.GetVersion(ctx)
	if err != nil {
		p.logger.WithError(err).Warn("Solana RPC connection test failed")
		return false
	}
	p.logger.WithField("version", version).Debug("Solana RPC connected")
	return true
}

// TokenSupply returns the mint's UI supply, or {0, 9} on any failure
func (p *Provider) TokenSupply(ctx context.Context, mint string) TokenSupply {
	fallback := TokenSupply{Amount: decimal.Zero, Decimals: DefaultDecimals}

	if err := p.acquire(ctx, ratelimit.MethodGetTokenSupply, ratelimit.PoolCore); err != nil {
		return fallback
	}
	supply, err := p.rpc.GetTokenSupply(ctx, mint)
	if err != nil || supply == nil {
		p.logger.WithFields(map[string]interface{}{"mint": mint, "error": errString(err)}).
			Warn("Failed to get token supply")
		return fallback
	}
	return *supply
}

// ResolveHolders fetches the largest token accounts and resolves each one
// to its owning wallet. It fails only when the largest-accounts query does.
func (p *Provider) ResolveHolders(ctx context.Context, mint string) (*ResolvedHolders, error) {
	if err := p.acquire(ctx, ratelimit.MethodGetTokenLargestAccounts, ratelimit.PoolCore); err != nil {
		return nil, err
	}
	accounts, err := p.rpc.GetTokenLargestAccounts(ctx, mint)
	if err != nil {
		return nil, fmt.Errorf("largest accounts for %s: %w", mint, err)
	}

	out := &ResolvedHolders{Balances: make([]OwnedBalance, 0, len(accounts))}
	addresses := make([]string, 0, len(accounts))
	for _, a := range accounts {
		if a.Amount.IsPositive() {
			out.Count++
		}
		addresses = append(addresses, a.Address)
	}
	if len(accounts) == 0 {
		return out, nil
	}

	owners := map[string]string{}
	if err := p.acquire(ctx, ratelimit.MethodGetMultipleAccounts, ratelimit.PoolCore); err == nil {
		if resolved, err := p.rpc.GetTokenAccountOwners(ctx, addresses); err == nil {
			owners = resolved
		} else {
			p.logger.WithFields(map[string]interface{}{"mint": mint, "error": err.Error()}).
				Warn("Failed to resolve token account owners")
		}
	}

	for _, a := range accounts {
		out.Balances = append(out.Balances, OwnedBalance{
			Account: a.Address,
			Owner:   owners[a.Address],
			Amount:  a.Amount,
		})
	}
	return out, nil
}

// MintAuthority looks up the mint authority. A missing mint reads as
// revoked; an RPC failure is returned so callers can report "unknown".
func (p *Provider) MintAuthority(ctx context.Context, mint string) (*MintAuthority, error) {
	if err := p.acquire(ctx, ratelimit.MethodGetAccountInfo, ratelimit.PoolCore); err != nil {
		return nil, err
	}
	authority, err := p.rpc.GetMintAuthority(ctx, mint)
	if errors.Is(err, ErrAccountNotFound) {
		return &MintAuthority{}, nil
	}
	if err != nil {
		p.logger.WithFields(map[string]interface{}{"mint": mint, "error": err.Error()}).
			Warn("Mint authority check failed")
		return nil, err
	}
	return &MintAuthority{HasAuthority: authority != nil, Authority: authority}, nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
