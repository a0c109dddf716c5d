package chain

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
)

var errRPCDown = errors.New("rpc unavailable")

// fakeRPC serves canned responses and counts calls per method
type fakeRPC struct {
	mu sync.Mutex

	supply       *TokenSupply
	supplyErr    error
	largest      []TokenAccountBalance
	largestErr   error
	owners       map[string]string
	ownersErr    error
	authority    *string
	authorityErr error
	signatures   map[string][]SignatureInfo
	sigErr       error
	txs          map[string]*TransactionInfo
	version      string
	versionErr   error

	calls map[string]int
}

func newFakeRPC() *fakeRPC {
	return &fakeRPC{
		signatures: make(map[string][]SignatureInfo),
		txs:        make(map[string]*TransactionInfo),
		calls:      make(map[string]int),
	}
}

func (f *fakeRPC) record(method string) {
	f.mu.Lock()
	f.calls[method]++
	f.mu.Unlock()
}

func (f *fakeRPC) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeRPC) GetTokenSupply(ctx context.Context, mint string) (*TokenSupply, error) {
	f.record("supply")
	return f.supply, f.supplyErr
}

func (f *fakeRPC) GetTokenLargestAccounts(ctx context.Context, mint string) ([]TokenAccountBalance, error) {
	f.record("largest")
	return f.largest, f.largestErr
}

func (f *fakeRPC) GetTokenAccountOwners(ctx context.Context, accounts []string) (map[string]string, error) {
	f.record("owners")
	if f.ownersErr != nil {
		return nil, f.ownersErr
	}
	out := make(map[string]string)
	for _, a := range accounts {
		if o, ok := f.owners[a]; ok {
			out[a] = o
		}
	}
	return out, nil
}

func (f *fakeRPC) GetMintAuthority(ctx context.Context, mint string) (*string, error) {
	f.record("authority")
	return f.authority, f.authorityErr
}

func (f *fakeRPC) GetSignatures(ctx context.Context, address string, limit int) ([]SignatureInfo, error) {
	f.record("signatures")
	if f.sigErr != nil {
		return nil, f.sigErr
	}
	sigs := f.signatures[address]
	if len(sigs) > limit {
		sigs = sigs[:limit]
	}
	return sigs, nil
}

func (f *fakeRPC) GetTransaction(ctx context.Context, signature string) (*TransactionInfo, error) {
	f.record("transaction")
	tx, ok := f.txs[signature]
	if !ok {
		return nil, errors.New("transaction not found")
	}
	return tx, nil
}

func (f *fakeRPC) GetVersion(ctx context.Context) (string, error) {
	f.record("version")
	return f.version, f.versionErr
}

func (f *fakeRPC) Endpoint() string { return "https://fake.rpc" }

func balance(address string, amount int64) TokenAccountBalance {
	return TokenAccountBalance{Address: address, Amount: decimal.NewFromInt(amount), Decimals: 6}
}
