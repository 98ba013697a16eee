package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestToDomainError(t *testing.T) {
	if ToDomainError(nil) != nil {
		t.Fatal("nil should stay nil")
	}
	if MapError(nil) != nil {
		t.Fatal("MapError(nil) should return a nil interface")
	}

	conflict := NewConflict("Email already exists", nil)
	wrapped := fmt.Errorf("register: %w", conflict)
	got := ToDomainError(wrapped)
	if got.HTTPStatus != http.StatusConflict || got.Message != "Email already exists" {
		t.Errorf("Expected wrapped conflict to surface, got %+v", got)
	}

	storeErr := errors.New("connection reset")
	got = ToDomainError(storeErr)
	if got.HTTPStatus != http.StatusServiceUnavailable || got.Code != "SERVICE_UNAVAILABLE" {
		t.Errorf("Expected 503 for unknown errors, got %+v", got)
	}
	if !errors.Is(got, storeErr) {
		t.Error("Unknown error should remain unwrappable")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{NewValidationError("bad", nil), http.StatusBadRequest, "VALIDATION_FAILED"},
		{NewUnauthorized("no"), http.StatusUnauthorized, "UNAUTHORIZED"},
		{NewForbidden("no"), http.StatusForbidden, "FORBIDDEN"},
		{NewNotFound("Report", nil), http.StatusNotFound, "NOT_FOUND"},
		{NewConflict("dup", nil), http.StatusConflict, "CONFLICT"},
		{NewTooManyRequests("slow down", nil), http.StatusTooManyRequests, "TOO_MANY_REQUESTS"},
		{NewInternalError(nil), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{NewServiceUnavailable(nil), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
	}
	for _, tt := range tests {
		de := ToDomainError(tt.err)
		if de.HTTPStatus != tt.status || de.Code != tt.code {
			t.Errorf("%v: got %d/%s, want %d/%s", tt.err, de.HTTPStatus, de.Code, tt.status, tt.code)
		}
		if !HasCode(tt.err, tt.code) {
			t.Errorf("HasCode(%v, %s) should be true", tt.err, tt.code)
		}
	}
	if msg := NewNotFound("Report", nil).Error(); msg != "Report not found" {
		t.Errorf("Unexpected not found message %q", msg)
	}
}
