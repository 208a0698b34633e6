/*
handlers.go - HTTP API handlers for the hedge aggregation engine

PURPOSE:
  Exposes the aggregation engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the engine.

ENDPOINTS:
  GET  /                                     Health check
  GET  /api/health                           Health check
  POST /api/v1/hedge/inception/validate-book Evaluate a hedge instruction
  GET  /api/scenarios                        List demo scenarios
  POST /api/scenarios/load                   Load a demo scenario
  POST /api/scenarios/reset                  Clear all tables

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate instruction payload (400 on violation)
  3. Call engine.Evaluate
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  A recovered data-retrieval failure is an HTTP 200 whose body carries
  status "error"; callers inspect the status field. An unexpected failure
  during aggregation/validation/scoring is a genuine HTTP 500 carrying the
  wrapped cause - it signals a contract violation that must not be masked.

SEE ALSO:
  - dto.go: request/response data structures
  - scenarios.go: demo scenario loaders
  - server.go: router setup and middleware
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/hawk/hedge-engine/hedge"
	"github.com/hawk/hedge-engine/store/sqlite"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  *sqlite.Store
	Engine *hedge.Engine

	log zerolog.Logger

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler with the given store and engine.
func NewHandler(store *sqlite.Store, engine *hedge.Engine, log zerolog.Logger) *Handler {
	return &Handler{
		Store:  store,
		Engine: engine,
		log:    log,
	}
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Message: "hedge aggregation engine is running",
	})
}

// ValidateBook evaluates one hedge-inception instruction.
// POST /api/v1/hedge/inception/validate-book
func (h *Handler) ValidateBook(w http.ResponseWriter, r *http.Request) {
	var req InstructionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	instr, err := req.Validate()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid hedge instruction", err)
		return
	}

	// Failures past the retrieval boundary (aggregation, validation, scoring)
	// indicate a contract violation with the data source and surface as a
	// server error carrying the cause.
	defer func() {
		if rec := recover(); rec != nil {
			h.log.Error().Any("panic", rec).Msg("hedge evaluation failed")
			writeError(w, http.StatusInternalServerError, "Hedge evaluation failed",
				fmt.Errorf("%v", rec))
		}
	}()

	resp, err := h.Engine.Evaluate(r.Context(), instr)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Hedge evaluation failed", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
