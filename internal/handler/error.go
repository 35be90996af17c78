package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/DukeRupert/rams/internal/domain"
)

// ErrorBody is the JSON body of every API error.
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ErrorResponse writes err as a JSON error body. Domain error codes map to
// HTTP statuses; details pass through redact before leaving the process.
func ErrorResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, redact Redactor, err error) {
	code := domain.ErrorCode(err)
	status := ErrorCodeToHTTPStatus(code)

	logError(logger, r, err, code, domain.ErrorOp(err), status)
	writeJSON(w, status, NewErrorBody(redact, err))
}

// NewErrorBody builds the caller-facing body for err.
func NewErrorBody(redact Redactor, err error) ErrorBody {
	body := ErrorBody{Error: domain.ErrorMessage(err)}
	if detail := domain.ErrorDetail(err); detail != "" {
		body.Details = redact.Redact(detail)
	}
	return body
}

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest // 400
	case domain.EMISSINGCREDENTIAL:
		// The request cannot be served as configured; callers treat it as a
		// client-side failure class.
		return http.StatusBadRequest // 400
	case domain.ENOTFOUND:
		return http.StatusNotFound // 404
	case domain.EMETHOD:
		return http.StatusMethodNotAllowed // 405
	case domain.ETOOLARGE:
		return http.StatusRequestEntityTooLarge // 413
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests // 429
	case domain.EUPSTREAM:
		return http.StatusBadGateway // 502
	default:
		return http.StatusInternalServerError // 500
	}
}

// MethodNotAllowedResponse writes a 405 naming the allowed methods.
func MethodNotAllowedResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, allow string) {
	w.Header().Set("Allow", allow)
	err := domain.Errorf(domain.EMETHOD, "", "Method not allowed")
	ErrorResponse(w, r, logger, Redactor{}, err)
}

// NotFoundResponse is a convenience wrapper for 404 errors.
func NotFoundResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
	err := domain.Errorf(domain.ENOTFOUND, "", "The requested resource was not found")
	ErrorResponse(w, r, logger, Redactor{}, err)
}

// logError logs the error with appropriate level based on status code.
func logError(logger *slog.Logger, r *http.Request, err error, code, op string, status int) {
	attrs := []any{
		"error", err.Error(),
		"code", code,
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
	}
	if op != "" {
		attrs = append(attrs, "op", op)
	}

	if status >= 500 {
		logger.Error("server error", attrs...)
	} else if status >= 400 {
		logger.Info("client error", attrs...)
	}
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
