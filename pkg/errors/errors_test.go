package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			appErr:   &AppError{Code: CodeNotFound, Message: "booking not found"},
			expected: "NOT_FOUND: booking not found",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodeInternal,
				Message: "internal error",
				Err:     errors.New("connection reset"),
			},
			expected: "INTERNAL_ERROR: internal error (caused by: connection reset)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("original error")
	appErr := Wrap(cause, CodeInternal, "wrapped", http.StatusInternalServerError)

	assert.Same(t, cause, errors.Unwrap(appErr))
	assert.ErrorIs(t, appErr, cause)
}

func TestConstructors_StatusAndCode(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"not found", NotFound("Turf"), CodeNotFound, http.StatusNotFound},
		{"validation", Validation("bad body", nil), CodeValidation, http.StatusBadRequest},
		{"invalid input", InvalidInput("bad date"), CodeInvalidInput, http.StatusBadRequest},
		{"unauthorized", Unauthorized("token required"), CodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", Forbidden("not yours"), CodeForbidden, http.StatusForbidden},
		{"conflict", Conflict("slot taken"), CodeConflict, http.StatusConflict},
		{"illegal transition", IllegalTransition("cancelled", "confirmed"), CodeIllegalTransition, http.StatusBadRequest},
		{"gateway validation", GatewayValidation("rejected", nil), CodeGatewayValidation, http.StatusBadRequest},
		{"too many requests", TooManyRequests("slow down"), CodeTooManyRequests, http.StatusTooManyRequests},
		{"internal", Internal("boom", nil), CodeInternal, http.StatusInternalServerError},
		{"timeout", Timeout("slow"), CodeTimeout, http.StatusGatewayTimeout},
		{"unavailable", Unavailable("Payment gateway", nil), CodeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.StatusCode())
		})
	}
}

func TestNotFoundWithID(t *testing.T) {
	err := NotFoundWithID("Booking", "12345")

	assert.Equal(t, "Booking not found", err.Message)
	assert.Equal(t, "12345", err.Details["id"])
	assert.Equal(t, "Booking", err.Details["resource"])
}

func TestIllegalTransition_Details(t *testing.T) {
	err := IllegalTransition("expired", "pending")

	assert.Equal(t, "cannot move booking from expired to pending", err.Message)
	assert.Equal(t, "expired", err.Details["from"])
	assert.Equal(t, "pending", err.Details["to"])
}

func TestUnavailable_Message(t *testing.T) {
	err := Unavailable("Payment gateway", errors.New("dial tcp"))

	assert.Equal(t, "Payment gateway is temporarily unavailable", err.Message)
	assert.EqualError(t, err.Err, "dial tcp")
}

func TestIsAppError_ThroughWrapping(t *testing.T) {
	appErr := Conflict("slot taken")
	wrapped := fmt.Errorf("create booking: %w", appErr)

	assert.True(t, IsAppError(appErr))
	assert.True(t, IsAppError(wrapped))
	assert.False(t, IsAppError(errors.New("plain")))
	assert.True(t, HasCode(wrapped, CodeConflict))
	assert.False(t, HasCode(wrapped, CodeNotFound))
}

func TestAsAppError(t *testing.T) {
	appErr := NotFound("Booking")
	assert.Same(t, appErr, AsAppError(appErr))
	assert.Same(t, appErr, AsAppError(fmt.Errorf("outer: %w", appErr)))

	plain := errors.New("regular error")
	result := AsAppError(plain)
	assert.Equal(t, CodeInternal, result.Code)
	assert.Same(t, plain, result.Err)
}

func TestAppError_ToJSON(t *testing.T) {
	err := NotFoundWithID("Booking", "12345")

	var decoded ErrorResponse
	require.NoError(t, json.Unmarshal(err.ToJSON(), &decoded))
	assert.Equal(t, CodeNotFound, decoded.Code)
	assert.Equal(t, "Booking not found", decoded.Message)
	assert.Equal(t, "12345", decoded.Details["id"])
}

func TestAppError_ToJSON_HidesCause(t *testing.T) {
	err := Internal("Failed to create booking", errors.New("mongo: secret-host:27017 refused"))

	assert.NotContains(t, string(err.ToJSON()), "secret-host")
}
