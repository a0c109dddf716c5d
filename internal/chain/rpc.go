// Package chain turns Solana RPC reads into the facts the scanner scores:
// supply, resolved holder balances, mint authority, and deployer heuristics.
package chain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrAccountNotFound is returned when an account does not exist on chain
var ErrAccountNotFound = errors.New("account not found")

// TokenSupply is a mint's supply in UI units
type TokenSupply struct {
	Amount   decimal.Decimal
	Decimals uint8
}

// TokenAccountBalance is one entry of the largest-accounts query
type TokenAccountBalance struct {
	Address  string
	Amount   decimal.Decimal
	Decimals uint8
}

// SignatureInfo is one entry of an address's signature history, newest first
type SignatureInfo struct {
	Signature string
	BlockTime *time.Time
	Failed    bool
}

// TransactionInfo is the subset of a confirmed transaction the heuristics read
type TransactionInfo struct {
	Signature   string
	BlockTime   *time.Time
	Signers     []string
	LogMessages []string
}

// FirstSigner returns the fee payer, or "" when the transaction has no signers
func (t *TransactionInfo) FirstSigner() string {
	if t == nil || len(t.Signers) == 0 {
		return ""
	}
	return t.Signers[0]
}

// RPC is the on-chain capability the scanner consumes
type RPC interface {
	GetTokenSupply(ctx context.Context, mint string) (*TokenSupply, error)
	GetTokenLargestAccounts(ctx context.Context, mint string) ([]TokenAccountBalance, error)
	// GetTokenAccountOwners maps token-account address to owning wallet.
	// Accounts that cannot be read are absent from the result.
	GetTokenAccountOwners(ctx context.Context, accounts []string) (map[string]string, error)
	// GetMintAuthority returns nil when the authority has been revoked
	GetMintAuthority(ctx context.Context, mint string) (*string, error)
	GetSignatures(ctx context.Context, address string, limit int) ([]SignatureInfo, error)
	GetTransaction(ctx context.Context, signature string) (*TransactionInfo, error)
	GetVersion(ctx context.Context) (string, error)
	Endpoint() string
}
