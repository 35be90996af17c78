package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/DukeRupert/rams/internal/domain"
)

// =============================================================================
// Error Response Tests - Security Focus
// =============================================================================

func TestErrorResponse_InternalErrorHidesDetails(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// Create an internal error wrapping a database error
	dbErr := &mockDatabaseError{message: "connection to 192.168.1.100:5432 refused"}
	internalErr := domain.Internal(dbErr, "GenerationLedger.Create", "Failed to connect")

	rec := httptest.NewRecorder()
	ErrorResponse(rec, httptest.NewRequest("POST", "/api/rams", nil), logger, Redactor{}, internalErr)

	body := rec.Body.String()

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(body, "192.168") || strings.Contains(body, "5432") {
		t.Errorf("response exposes connection details: %s", body)
	}
	if strings.Contains(body, "GenerationLedger") {
		t.Errorf("response exposes internal operation: %s", body)
	}
	if !strings.Contains(body, "internal error") {
		t.Errorf("response should contain generic internal error message, got: %s", body)
	}
}

func TestErrorResponse_UnwrappedErrorReturnsGeneric(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// Create a raw error (not a domain.Error)
	rawErr := &mockDatabaseError{message: "FATAL: password authentication failed for user \"postgres\""}

	rec := httptest.NewRecorder()
	ErrorResponse(rec, httptest.NewRequest("POST", "/api/rams", nil), logger, Redactor{}, rawErr)

	body := rec.Body.String()

	if strings.Contains(body, "FATAL") || strings.Contains(body, "postgres") {
		t.Errorf("response exposes raw error: %s", body)
	}
	if strings.Contains(body, "details") {
		t.Errorf("response should not carry details for unknown errors: %s", body)
	}
}

func TestErrorResponse_UpstreamDetailsAreRedacted(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	redact := NewRedactor("sk-live-secret-value-123")

	upstream := errors.New("401 Incorrect API key provided: sk-live-secret-value-123")
	err := domain.Upstream(upstream, "rams.generate", "Failed to generate RAMS")

	rec := httptest.NewRecorder()
	ErrorResponse(rec, httptest.NewRequest("POST", "/api/rams", nil), logger, redact, err)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}

	var body ErrorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error != "Failed to generate RAMS" {
		t.Errorf("error = %q", body.Error)
	}
	if strings.Contains(body.Details, "sk-live") {
		t.Errorf("details expose the credential: %s", body.Details)
	}
	if !strings.Contains(body.Details, "401 Incorrect API key provided") {
		t.Errorf("details should keep the upstream message, got: %s", body.Details)
	}
}

func TestErrorCodeToHTTPStatus(t *testing.T) {
	tests := map[string]int{
		domain.EINVALID:           http.StatusBadRequest,
		domain.EMISSINGCREDENTIAL: http.StatusBadRequest,
		domain.ENOTFOUND:          http.StatusNotFound,
		domain.EMETHOD:            http.StatusMethodNotAllowed,
		domain.ETOOLARGE:          http.StatusRequestEntityTooLarge,
		domain.ERATELIMIT:         http.StatusTooManyRequests,
		domain.EUPSTREAM:          http.StatusBadGateway,
		domain.EINTERNAL:          http.StatusInternalServerError,
		"unknown":                 http.StatusInternalServerError,
	}

	for code, want := range tests {
		if got := ErrorCodeToHTTPStatus(code); got != want {
			t.Errorf("ErrorCodeToHTTPStatus(%q) = %d, want %d", code, got, want)
		}
	}
}

func TestRedactor(t *testing.T) {
	r := NewRedactor("", "  ", "my-custom-token")

	tests := []struct {
		in   string
		want string
	}{
		{"key my-custom-token rejected", "key [REDACTED] rejected"},
		{"bad key sk-proj-abcdefgh12345", "bad key [REDACTED]"},
		{"bad key sk-ant-api03-abcdefgh", "bad key [REDACTED]"},
		{"key AIzaSyA1234567890abcdefghij invalid", "key [REDACTED] invalid"},
		{"503 service unavailable", "503 service unavailable"},
	}

	for _, tt := range tests {
		if got := r.Redact(tt.in); got != tt.want {
			t.Errorf("Redact(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// mockDatabaseError simulates a database error for testing
type mockDatabaseError struct {
	message string
}

func (e *mockDatabaseError) Error() string {
	return e.message
}
