package api

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/token-trust-scanner/internal/errors"
	"github.com/token-trust-scanner/internal/types"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error types.ServiceError `json:"error"`
}

// Common error codes
const (
	ErrCodeInternalError = types.ErrCodeInternal
)

// respondError sends an error response.
func respondError(w http.ResponseWriter, statusCode int, code, message string, details map[string]interface{}) {
	respondJSON(w, statusCode, ErrorResponse{
		Error: types.ServiceError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeError responds with the categorized status and body of err
func writeError(w http.ResponseWriter, err error) {
	cat := apperrors.Categorize(err)
	respondError(w, cat.StatusCode, cat.Code, cat.Message, cat.Details)
}

// mapServiceError passes caller-facing failures through with their own
// status. Everything else becomes a 500 carrying fallbackMessage.
func mapServiceError(err error, fallbackMessage string) (int, string, string, map[string]interface{}) {
	cat := apperrors.Categorize(err)
	switch cat.Category {
	case apperrors.CategoryUserInput, apperrors.CategoryValidation, apperrors.CategoryAuthorization,
		apperrors.CategoryRateLimit, apperrors.CategoryUnavailable:
		return cat.StatusCode, cat.Code, cat.Message, cat.Details
	default:
		return http.StatusInternalServerError, ErrCodeInternalError, fallbackMessage,
			map[string]interface{}{"details": err.Error()}
	}
}
