package errors

import (
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(CodeValidation, "validation failed", http.StatusUnprocessableEntity)

	if err.Code != CodeValidation {
		t.Errorf("expected code %s, got %s", CodeValidation, err.Code)
	}
	if err.Message != "validation failed" {
		t.Errorf("expected message 'validation failed', got %s", err.Message)
	}
	if err.HTTPStatus != http.StatusUnprocessableEntity {
		t.Errorf("expected status %d, got %d", http.StatusUnprocessableEntity, err.HTTPStatus)
	}
}

func TestWrap(t *testing.T) {
	originalErr := errors.New("connection refused")
	wrapped := Wrap(originalErr, CodeGatewayError, "gateway call failed", http.StatusBadGateway)

	if wrapped.Err != originalErr {
		t.Errorf("expected wrapped error to contain original error")
	}
	if wrapped.Code != CodeGatewayError {
		t.Errorf("expected code %s, got %s", CodeGatewayError, wrapped.Code)
	}
	if unwrapped := errors.Unwrap(wrapped); unwrapped != originalErr {
		t.Errorf("Unwrap() should return the original error")
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name: "without underlying error",
			appErr: &AppError{
				Code:    CodeSlotUnavailable,
				Message: "slot already booked for this window",
			},
			expected: "SLOT_UNAVAILABLE: slot already booked for this window",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodeGatewayTimeout,
				Message: "order creation timed out",
				Err:     errors.New("context deadline exceeded"),
			},
			expected: "GATEWAY_TIMEOUT: order creation timed out (caused by: context deadline exceeded)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.appErr.Error()
			if got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestConstructors(t *testing.T) {
	gwErr := errors.New("boom")

	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"NotFound", NotFound("Booking"), CodeNotFound, http.StatusNotFound},
		{"Validation", Validation("bad window", map[string]any{"field": "end_time"}), CodeValidation, http.StatusUnprocessableEntity},
		{"InvalidInput", InvalidInput("invalid limit"), CodeInvalidInput, http.StatusBadRequest},
		{"Unauthorized", Unauthorized("signature required"), CodeUnauthorized, http.StatusUnauthorized},
		{"Forbidden", Forbidden("owner only"), CodeForbidden, http.StatusForbidden},
		{"Conflict", Conflict("lock held"), CodeConflict, http.StatusConflict},
		{"Internal", Internal("unexpected", gwErr), CodeInternal, http.StatusInternalServerError},
		{"Timeout", Timeout("storage timed out"), CodeTimeout, http.StatusGatewayTimeout},
		{"Unavailable", Unavailable("Payments"), CodeUnavailable, http.StatusServiceUnavailable},
		{"SlotUnavailable", SlotUnavailable("overlapping booking"), CodeSlotUnavailable, http.StatusBadRequest},
		{"CancellationWindowClosed", CancellationWindowClosed("too close to start"), CodeCancellationWindowClosed, http.StatusBadRequest},
		{"InvalidSignature", InvalidSignature("signature mismatch"), CodeInvalidSignature, http.StatusBadRequest},
		{"GatewayTimeout", GatewayTimeout("order timed out", gwErr), CodeGatewayTimeout, http.StatusGatewayTimeout},
		{"GatewayError", GatewayError("order rejected", gwErr), CodeGatewayError, http.StatusBadGateway},
		{"InvalidBookingState", InvalidBookingState("booking is not pending"), CodeInvalidBookingState, http.StatusConflict},
		{"InvalidTransition", InvalidTransition("slot has active bookings"), CodeInvalidTransition, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", tt.err.Code, tt.wantCode)
			}
			if tt.err.StatusCode() != tt.wantStatus {
				t.Errorf("status = %d, want %d", tt.err.StatusCode(), tt.wantStatus)
			}
			if tt.err.Message == "" {
				t.Errorf("message should not be empty")
			}
		})
	}
}

func TestAppError_WithDetails(t *testing.T) {
	err := SlotUnavailable("overlapping booking").WithDetails(map[string]any{
		"slot_id": "665f1f77bcf86cd799439011",
	})

	if err.Details["slot_id"] != "665f1f77bcf86cd799439011" {
		t.Errorf("expected slot_id detail, got %v", err.Details["slot_id"])
	}
}

func TestIsAppError(t *testing.T) {
	appErr := SlotUnavailable("taken")
	regularErr := errors.New("regular error")

	if !IsAppError(appErr) {
		t.Errorf("IsAppError() should return true for AppError")
	}
	if IsAppError(regularErr) {
		t.Errorf("IsAppError() should return false for regular error")
	}
}

func TestAsAppError(t *testing.T) {
	appErr := InvalidBookingState("not pending")
	regularErr := errors.New("regular error")

	if result := AsAppError(appErr); result != appErr {
		t.Errorf("AsAppError() should return the same AppError")
	}

	result := AsAppError(regularErr)
	if result.Code != CodeInternal {
		t.Errorf("AsAppError() should wrap a regular error as internal, got %s", result.Code)
	}
	if result.Err != regularErr {
		t.Errorf("AsAppError() should keep the original error")
	}
}

func TestHasCode(t *testing.T) {
	err := CancellationWindowClosed("too late")

	if !HasCode(err, CodeCancellationWindowClosed) {
		t.Errorf("HasCode() should match the carried code")
	}
	if HasCode(err, CodeSlotUnavailable) {
		t.Errorf("HasCode() should not match a different code")
	}
	if HasCode(errors.New("plain"), CodeInternal) {
		t.Errorf("HasCode() should be false for non-AppError values")
	}
}

func TestAppError_ToJSON(t *testing.T) {
	err := NotFoundWithID("Booking", "665f1f77bcf86cd799439011")
	payload := string(err.ToJSON())

	if payload == "" {
		t.Fatalf("ToJSON() should return non-empty JSON")
	}
	if !strings.Contains(payload, "NOT_FOUND") {
		t.Errorf("ToJSON() should contain the error code")
	}
	if !strings.Contains(payload, "not found") {
		t.Errorf("ToJSON() should contain the error message")
	}
}
