package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/DukeRupert/rams/internal/domain"
	"github.com/DukeRupert/rams/internal/service"
	"github.com/google/uuid"
)

// MaxRequestBody limits the size of a generation request body.
const MaxRequestBody = 64 << 10

// GenerationIDHeader carries the generation id when it was recorded.
const GenerationIDHeader = "X-Generation-ID"

// RAMSHandler serves the RAMS generation API.
type RAMSHandler struct {
	service service.GenerationService
	redact  Redactor
	logger  *slog.Logger
}

// NewRAMSHandler creates a RAMSHandler. redact masks credential values in
// error details.
func NewRAMSHandler(svc service.GenerationService, redact Redactor, logger *slog.Logger) *RAMSHandler {
	return &RAMSHandler{
		service: svc,
		redact:  redact,
		logger:  logger,
	}
}

// RegisterRoutes registers the RAMS routes. generate wraps the POST handler,
// typically with a rate limiter.
func (h *RAMSHandler) RegisterRoutes(mux *http.ServeMux, generate func(http.Handler) http.Handler) {
	if generate == nil {
		generate = func(next http.Handler) http.Handler { return next }
	}
	mux.Handle("POST /api/rams", generate(http.HandlerFunc(h.Generate)))
	mux.HandleFunc("/api/rams", h.MethodNotAllowed)
	mux.HandleFunc("GET /api/rams/{id}", h.Get)
}

// Generate handles POST /api/rams.
func (h *RAMSHandler) Generate(w http.ResponseWriter, r *http.Request) {
	const op = "rams.generate"

	var req domain.GenerationRequest
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.error(w, r, domain.Errorf(domain.ETOOLARGE, op, "Request body too large"))
			return
		}
		// Malformed JSON and a non-string task are both an invalid task.
		h.error(w, r, domain.Invalid(op, "Missing or invalid task"))
		return
	}

	out, err := h.service.Generate(r.Context(), req.Task)
	if err != nil {
		h.error(w, r, err)
		return
	}

	if out.Recorded {
		w.Header().Set(GenerationIDHeader, out.ID.String())
	}
	writeJSON(w, http.StatusOK, out.Result)
}

// Get handles GET /api/rams/{id}.
func (h *RAMSHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		NotFoundResponse(w, r, h.logger)
		return
	}

	result, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// MethodNotAllowed answers every non-POST request to /api/rams.
func (h *RAMSHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	MethodNotAllowedResponse(w, r, h.logger, http.MethodPost)
}

func (h *RAMSHandler) error(w http.ResponseWriter, r *http.Request, err error) {
	ErrorResponse(w, r, h.logger, h.redact, err)
}
