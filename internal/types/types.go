// Package types provides common type definitions for the token trust scanner.
package types

// RiskLevel is the trader-facing bucket derived from a trust score
type RiskLevel string

const (
	RiskVeryLow  RiskLevel = "VERY LOW"
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskVeryHigh RiskLevel = "VERY HIGH"
)

// RugLevel is the tri-level classification of rug probability
type RugLevel string

const (
	RugLow    RugLevel = "LOW"
	RugMedium RugLevel = "MEDIUM"
	RugHigh   RugLevel = "HIGH"
)

// ConcentrationRisk classifies how much supply sits with the largest holders
type ConcentrationRisk string

const (
	ConcentrationUnknown ConcentrationRisk = "UNKNOWN"
	ConcentrationLow     ConcentrationRisk = "LOW"
	ConcentrationMedium  ConcentrationRisk = "MEDIUM"
	ConcentrationHigh    ConcentrationRisk = "HIGH"
	ConcentrationExtreme ConcentrationRisk = "EXTREME"
)

// DumpRisk is derived from early transaction patterns on the mint
type DumpRisk string

const (
	DumpRiskUnknown DumpRisk = "UNKNOWN"
	DumpRiskLow     DumpRisk = "LOW"
	DumpRiskHigh    DumpRisk = "HIGH"
)

// BuyPressure is derived from wallet clustering on the mint
type BuyPressure string

const (
	BuyPressureUnknown BuyPressure = "UNKNOWN"
	BuyPressureNormal  BuyPressure = "NORMAL"
	BuyPressureWeak    BuyPressure = "WEAK"
)

// DataSource names the market provider a snapshot was built from
type DataSource string

const (
	SourceJupiter          DataSource = "jupiter"
	SourceJupiterPriceOnly DataSource = "jupiter-price-only"
	SourceDexScreener      DataSource = "dexscreener"
)

// Error codes carried by ServiceError
const (
	ErrCodeInvalidAddress   = "INVALID_ADDRESS"
	ErrCodeNoMarketData     = "NO_MARKET_DATA"
	ErrCodeMissingParameter = "MISSING_PARAMETER"
	ErrCodeNotImplemented   = "NOT_IMPLEMENTED"
	ErrCodeRateLimited      = "RATE_LIMIT_EXCEEDED"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// NewInvalidAddressError reports a mint that failed format validation.
func NewInvalidAddressError(address string) *ServiceError {
	return &ServiceError{
		Code:    ErrCodeInvalidAddress,
		Message: "Please provide a valid Solana token address",
		Details: map[string]interface{}{"address": address},
	}
}

// NewNoMarketDataError reports that every market source came back empty.
func NewNoMarketDataError(address string) *ServiceError {
	return &ServiceError{
		Code:    ErrCodeNoMarketData,
		Message: "Unable to fetch live token market data from upstream providers right now",
		Details: map[string]interface{}{"address": address},
	}
}
