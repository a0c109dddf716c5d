package errors

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/token-trust-scanner/internal/circuitbreaker"
	"github.com/token-trust-scanner/internal/types"
)

func TestCategorizeServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		user   bool
	}{
		{"invalid address", types.NewInvalidAddressError("x"), http.StatusBadRequest, true},
		{"no market data", types.NewNoMarketDataError("x"), http.StatusServiceUnavailable, false},
		{"wrapped invalid address", fmt.Errorf("analyze: %w", types.NewInvalidAddressError("x")), http.StatusBadRequest, true},
		{"unknown code", &types.ServiceError{Code: "SOMETHING"}, http.StatusInternalServerError, false},
		{"plain error", fmt.Errorf("boom"), http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, GetHTTPStatusCode(tt.err))
			assert.Equal(t, tt.user, IsUserError(tt.err))
		})
	}
}

func TestDegradableProviderFailures(t *testing.T) {
	assert.True(t, IsDegradable(fmt.Errorf("rpc: %w", circuitbreaker.ErrCircuitOpen)))
	assert.True(t, IsDegradable(context.DeadlineExceeded))
	assert.True(t, IsDegradable(NewAllEndpointsFailedError([]string{"a", "b"}, fmt.Errorf("404"))))
	assert.False(t, IsDegradable(types.NewInvalidAddressError("x")))
	assert.False(t, IsDegradable(nil))
}

func TestAllEndpointsFailedUnwraps(t *testing.T) {
	err := NewAllEndpointsFailedError([]string{"a"}, fmt.Errorf("timeout"))
	assert.ErrorIs(t, err, ErrAllEndpointsFailed)
	assert.Equal(t, "all endpoints failed", err.Message)
}

func TestToServiceError(t *testing.T) {
	svc := NewMissingParameterError("mint", "Please provide a mint address").ToServiceError()
	assert.Equal(t, types.ErrCodeMissingParameter, svc.Code)
	assert.Equal(t, "mint", svc.Details["parameter"])
}
