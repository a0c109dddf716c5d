package adapter

import (
	"context"
	"errors"
	"fmt"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"

	"github.com/token-trust-scanner/internal/chain"
	"github.com/token-trust-scanner/internal/retry"
)

var errNoHealthyEndpoint = errors.New("no healthy RPC endpoint")

// SolanaRPC implements chain.RPC over an RPCPool. A failed call is
// repeated once per remaining endpoint, never twice on the same one.
type SolanaRPC struct {
	pool       *RPCPool
	commitment rpc.CommitmentType
}

var _ chain.RPC = (*SolanaRPC)(nil)

// NewSolanaRPC creates the RPC adapter. An empty commitment means confirmed.
func NewSolanaRPC(pool *RPCPool, commitment string) *SolanaRPC {
	c := rpc.CommitmentType(commitment)
	if commitment == "" {
		c = rpc.CommitmentConfirmed
	}
	return &SolanaRPC{pool: pool, commitment: c}
}

// Pool exposes the endpoint pool for status reporting
func (s *SolanaRPC) Pool() *RPCPool { return s.pool }

// Endpoint returns the URL currently in use
func (s *SolanaRPC) Endpoint() string { return s.pool.GetCurrentURL() }

func isFailoverError(err error) bool {
	if errors.Is(err, rpc.ErrNotFound) || errors.Is(err, errNoHealthyEndpoint) {
		return false
	}
	return !errors.Is(err, context.Canceled)
}

func (s *SolanaRPC) call(ctx context.Context, fn func(ctx context.Context, client *rpc.Client) error) error {
	cfg := retry.Config{
		MaxAttempts: s.pool.EndpointCount(),
		Retryable:   isFailoverError,
	}
	result := retry.WithExponentialBackoff(ctx, cfg, func(ctx context.Context, attempt int) error {
		client, url := s.pool.Current()
		start := time.Now()
		err := fn(ctx, client)
		if err == nil || errors.Is(err, rpc.ErrNotFound) {
			s.pool.RecordSuccess(time.Since(start))
			return err
		}

		s.pool.RecordFailure()
		s.pool.logger.WithFields(map[string]interface{}{
			"endpoint":  url,
			"rateLimit": IsRateLimitError(err),
			"error":     err.Error(),
		}).Warn("Solana RPC call failed")

		if attempt < cfg.MaxAttempts {
			if ferr := s.pool.Failover(); ferr != nil {
				return fmt.Errorf("%w: %v (last error: %v)", errNoHealthyEndpoint, ferr, err)
			}
		}
		return err
	})
	return result.LastError
}

func parsePublicKey(address string) (solana.PublicKey, error) {
	pk, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid address %q: %w", address, err)
	}
	return pk, nil
}

// uiAmount converts a raw integer amount string to UI units
func uiAmount(raw string, decimals uint8) decimal.Decimal {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d.Shift(-int32(decimals))
}

// GetTokenSupply returns the mint supply in UI units
func (s *SolanaRPC) GetTokenSupply(ctx context.Context, mint string) (*chain.TokenSupply, error) {
	pk, err := parsePublicKey(mint)
	if err != nil {
		return nil, err
	}

	var out *rpc.GetTokenSupplyResult
	err = s.call(ctx, func(ctx context.Context, client *rpc.Client) error {
		out, err = client.GetTokenSupply(ctx, pk, s.commitment)
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil || out.Value == nil {
		return nil, errors.New("empty token supply response")
	}
	return &chain.TokenSupply{
		Amount:   uiAmount(out.Value.Amount, out.Value.Decimals),
		Decimals: out.Value.Decimals,
	}, nil
}

// GetTokenLargestAccounts returns up to 20 of the mint's largest token accounts
func (s *SolanaRPC) GetTokenLargestAccounts(ctx context.Context, mint string) ([]chain.TokenAccountBalance, error) {
	pk, err := parsePublicKey(mint)
	if err != nil {
		return nil, err
	}

	var out *rpc.GetTokenLargestAccountsResult
	err = s.call(ctx, func(ctx context.Context, client *rpc.Client) error {
		out, err = client.GetTokenLargestAccounts(ctx, pk, s.commitment)
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, nil
	}

	balances := make([]chain.TokenAccountBalance, 0, len(out.Value))
	for _, v := range out.Value {
		if v == nil {
			continue
		}
		balances = append(balances, chain.TokenAccountBalance{
			Address:  v.Address.String(),
			Amount:   uiAmount(v.Amount, v.Decimals),
			Decimals: v.Decimals,
		})
	}
	return balances, nil
}

// GetTokenAccountOwners decodes each SPL token account to find its owner
func (s *SolanaRPC) GetTokenAccountOwners(ctx context.Context, accounts []string) (map[string]string, error) {
	keys := make([]solana.PublicKey, 0, len(accounts))
	for _, a := range accounts {
		pk, err := parsePublicKey(a)
		if err != nil {
			continue
		}
		keys = append(keys, pk)
	}
	owners := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return owners, nil
	}

	var out *rpc.GetMultipleAccountsResult
	err := s.call(ctx, func(ctx context.Context, client *rpc.Client) error {
		var err error
		out, err = client.GetMultipleAccounts(ctx, keys...)
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return owners, nil
	}

	for i, acc := range out.Value {
		if acc == nil || acc.Data == nil || i >= len(keys) {
			continue
		}
		var tokenAccount token.Account
		if err := bin.NewBinDecoder(acc.Data.GetBinary()).Decode(&tokenAccount); err != nil {
			continue
		}
		owners[keys[i].String()] = tokenAccount.Owner.String()
	}
	return owners, nil
}

// GetMintAuthority decodes the mint account. chain.ErrAccountNotFound is
// returned for a mint that does not exist.
func (s *SolanaRPC) GetMintAuthority(ctx context.Context, mint string) (*string, error) {
	pk, err := parsePublicKey(mint)
	if err != nil {
		return nil, err
	}

	var out *rpc.GetAccountInfoResult
	err = s.call(ctx, func(ctx context.Context, client *rpc.Client) error {
		out, err = client.GetAccountInfo(ctx, pk)
		return err
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, chain.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	if out == nil || out.Value == nil || out.Value.Data == nil {
		return nil, chain.ErrAccountNotFound
	}

	var m token.Mint
	if err := bin.NewBinDecoder(out.Value.Data.GetBinary()).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode mint %s: %w", mint, err)
	}
	if m.MintAuthority == nil {
		return nil, nil
	}
	authority := m.MintAuthority.String()
	return &authority, nil
}

// GetSignatures returns up to limit signatures for address, newest first
func (s *SolanaRPC) GetSignatures(ctx context.Context, address string, limit int) ([]chain.SignatureInfo, error) {
	pk, err := parsePublicKey(address)
	if err != nil {
		return nil, err
	}

	var out []*rpc.TransactionSignature
	err = s.call(ctx, func(ctx context.Context, client *rpc.Client) error {
		out, err = client.GetSignaturesForAddressWithOpts(ctx, pk, &rpc.GetSignaturesForAddressOpts{
			Limit:      &limit,
			Commitment: s.commitment,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	sigs := make([]chain.SignatureInfo, 0, len(out))
	for _, sig := range out {
		if sig == nil {
			continue
		}
		info := chain.SignatureInfo{Signature: sig.Signature.String(), Failed: sig.Err != nil}
		if sig.BlockTime != nil {
			t := sig.BlockTime.Time()
			info.BlockTime = &t
		}
		sigs = append(sigs, info)
	}
	return sigs, nil
}

// GetTransaction fetches a confirmed transaction's signers and logs
func (s *SolanaRPC) GetTransaction(ctx context.Context, signature string) (*chain.TransactionInfo, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, fmt.Errorf("invalid signature %q: %w", signature, err)
	}

	maxVersion := uint64(0)
	var out *rpc.GetTransactionResult
	err = s.call(ctx, func(ctx context.Context, client *rpc.Client) error {
		out, err = client.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
			Encoding:                       solana.EncodingBase64,
			Commitment:                     s.commitment,
			MaxSupportedTransactionVersion: &maxVersion,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, errors.New("empty transaction response")
	}

	info := &chain.TransactionInfo{Signature: signature}
	if out.BlockTime != nil {
		t := out.BlockTime.Time()
		info.BlockTime = &t
	}
	if out.Meta != nil {
		info.LogMessages = out.Meta.LogMessages
	}
	if out.Transaction != nil {
		tx, err := out.Transaction.GetTransaction()
		if err == nil && tx != nil {
			n := int(tx.Message.Header.NumRequiredSignatures)
			keys := tx.Message.AccountKeys
			for i := 0; i < n && i < len(keys); i++ {
				info.Signers = append(info.Signers, keys[i].String())
			}
		}
	}
	return info, nil
}

// GetVersion returns the node's solana-core version
func (s *SolanaRPC) GetVersion(ctx context.Context) (string, error) {
	var version string
	err := s.call(ctx, func(ctx context.Context, client *rpc.Client) error {
		out, err := client.GetVersion(ctx)
		if err != nil {
			return err
		}
		version = out.SolanaCore
		return nil
	})
	return version, err
}
