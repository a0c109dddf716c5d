package chain

import (
	"regexp"
	"strings"

	"github.com/gagliardetto/solana-go"
)

var base58Address = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)

// ValidateAddress reports whether s looks like a real base58 mint address.
// Placeholder strings made of one repeated character are rejected.
func ValidateAddress(s string) bool {
	if !base58Address.MatchString(s) {
		return false
	}
	return strings.Count(s, s[:1]) != len(s)
}

// IsOnCurve reports whether address is an ed25519 point, i.e. a wallet
// that can hold a private key. Program-derived addresses are off the curve.
// Anything that cannot be decoded counts as on-curve.
func IsOnCurve(address string) bool {
	pk, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return true
	}
	return solana.IsOnCurve(pk[:])
}
