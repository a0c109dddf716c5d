// Package errors classifies failures into categories that drive HTTP status
// codes and decide whether the pipeline degrades or aborts.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/token-trust-scanner/internal/circuitbreaker"
	"github.com/token-trust-scanner/internal/types"
)

// ErrorCategory represents the category of an error
type ErrorCategory string

const (
	CategoryUserInput     ErrorCategory = "user_input"
	CategoryValidation    ErrorCategory = "validation"
	CategorySystem        ErrorCategory = "system"
	CategoryProvider      ErrorCategory = "provider"
	CategoryAuthorization ErrorCategory = "authorization"
	CategoryRateLimit     ErrorCategory = "rate_limit"
	CategoryUnavailable   ErrorCategory = "unavailable"
)

// ErrAllEndpointsFailed is returned when every URL in a fallback chain failed
var ErrAllEndpointsFailed = stderrors.New("all endpoints failed")

// CategorizedError represents an error with category and HTTP status code
type CategorizedError struct {
	Category   ErrorCategory
	StatusCode int
	Code       string
	Message    string
	Details    map[string]interface{}
	Cause      error
}

// Error implements the error interface
func (e *CategorizedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *CategorizedError) Unwrap() error {
	return e.Cause
}

// ToServiceError converts to a ServiceError
func (e *CategorizedError) ToServiceError() *types.ServiceError {
	return &types.ServiceError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}
}

// serviceCodes maps ServiceError codes onto category and status
var serviceCodes = map[string]struct {
	category ErrorCategory
	status   int
}{
	types.ErrCodeInvalidAddress:   {CategoryUserInput, http.StatusBadRequest},
	types.ErrCodeMissingParameter: {CategoryValidation, http.StatusBadRequest},
	types.ErrCodeUnauthorized:     {CategoryAuthorization, http.StatusUnauthorized},
	types.ErrCodeRateLimited:      {CategoryRateLimit, http.StatusTooManyRequests},
	types.ErrCodeNoMarketData:     {CategoryUnavailable, http.StatusServiceUnavailable},
	types.ErrCodeNotImplemented:   {CategorySystem, http.StatusNotImplemented},
}

// NewMissingParameterError creates a missing query parameter error
func NewMissingParameterError(param, hint string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryValidation,
		StatusCode: http.StatusBadRequest,
		Code:       types.ErrCodeMissingParameter,
		Message:    hint,
		Details:    map[string]interface{}{"parameter": param},
	}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError(message string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryAuthorization,
		StatusCode: http.StatusUnauthorized,
		Code:       types.ErrCodeUnauthorized,
		Message:    message,
	}
}

// NewRateLimitError creates a rate limit error
func NewRateLimitError(retryAfter int) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryRateLimit,
		StatusCode: http.StatusTooManyRequests,
		Code:       types.ErrCodeRateLimited,
		Message:    "Rate limit exceeded, please retry shortly",
		Details:    map[string]interface{}{"retryAfter": retryAfter},
	}
}

// NewNotImplementedError marks a route that has no live data source yet
func NewNotImplementedError(message string) *CategorizedError {
	return &CategorizedError{
		Category:   CategorySystem,
		StatusCode: http.StatusNotImplemented,
		Code:       types.ErrCodeNotImplemented,
		Message:    message,
	}
}

// NewInternalError creates an internal server error
func NewInternalError(message string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategorySystem,
		StatusCode: http.StatusInternalServerError,
		Code:       types.ErrCodeInternal,
		Message:    message,
		Cause:      cause,
	}
}

// NewProviderError wraps a failed upstream call
func NewProviderError(provider string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryProvider,
		StatusCode: http.StatusBadGateway,
		Code:       "PROVIDER_ERROR",
		Message:    fmt.Sprintf("data provider error: %s", provider),
		Cause:      cause,
		Details:    map[string]interface{}{"provider": provider},
	}
}

// NewProviderTimeoutError creates a provider timeout error
func NewProviderTimeoutError(provider string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryProvider,
		StatusCode: http.StatusGatewayTimeout,
		Code:       "PROVIDER_TIMEOUT",
		Message:    fmt.Sprintf("data provider timeout: %s", provider),
		Cause:      cause,
		Details:    map[string]interface{}{"provider": provider},
	}
}

// NewCircuitOpenError reports a call short-circuited by an open breaker
func NewCircuitOpenError(endpoint string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryProvider,
		StatusCode: http.StatusServiceUnavailable,
		Code:       "CIRCUIT_OPEN",
		Message:    "Circuit open for endpoint (temporary upstream protection)",
		Cause:      circuitbreaker.ErrCircuitOpen,
		Details:    map[string]interface{}{"endpoint": endpoint},
	}
}

// NewAllEndpointsFailedError summarises an exhausted fallback chain
func NewAllEndpointsFailedError(endpoints []string, last error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryProvider,
		StatusCode: http.StatusBadGateway,
		Code:       "ALL_ENDPOINTS_FAILED",
		Message:    ErrAllEndpointsFailed.Error(),
		Cause:      fmt.Errorf("%w: %v", ErrAllEndpointsFailed, last),
		Details:    map[string]interface{}{"endpoints": len(endpoints)},
	}
}

// Categorize categorizes an existing error
func Categorize(err error) *CategorizedError {
	if err == nil {
		return nil
	}

	var catErr *CategorizedError
	if stderrors.As(err, &catErr) {
		return catErr
	}

	var svcErr *types.ServiceError
	if stderrors.As(err, &svcErr) {
		if entry, ok := serviceCodes[svcErr.Code]; ok {
			return &CategorizedError{
				Category:   entry.category,
				StatusCode: entry.status,
				Code:       svcErr.Code,
				Message:    svcErr.Message,
				Details:    svcErr.Details,
			}
		}
		return &CategorizedError{
			Category:   CategorySystem,
			StatusCode: http.StatusInternalServerError,
			Code:       svcErr.Code,
			Message:    svcErr.Message,
			Details:    svcErr.Details,
		}
	}

	switch {
	case stderrors.Is(err, circuitbreaker.ErrCircuitOpen):
		return NewCircuitOpenError("")
	case stderrors.Is(err, context.DeadlineExceeded):
		return NewProviderTimeoutError("", err)
	case stderrors.Is(err, ErrAllEndpointsFailed):
		return NewProviderError("", err)
	}

	return NewInternalError("unexpected error", err)
}

// GetHTTPStatusCode returns the HTTP status code for an error
func GetHTTPStatusCode(err error) int {
	if catErr := Categorize(err); catErr != nil {
		return catErr.StatusCode
	}
	return http.StatusInternalServerError
}

// IsUserError determines if an error is a user error (4xx)
func IsUserError(err error) bool {
	catErr := Categorize(err)
	return catErr != nil && catErr.StatusCode >= 400 && catErr.StatusCode < 500
}

// IsDegradable reports failures the analysis pipeline absorbs with
// sentinel values instead of aborting the request.
func IsDegradable(err error) bool {
	catErr := Categorize(err)
	return catErr != nil && catErr.Category == CategoryProvider
}
