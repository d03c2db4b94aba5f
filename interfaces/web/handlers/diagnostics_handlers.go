package handlers

import (
	"net/http"
	"strconv"

	"spscope/domain/contracts"
	"spscope/logging"
)

const maxDiagnosticsLimit = 500

// DiagnosticsHandlers exposes recorded operation failures
type DiagnosticsHandlers struct {
	repo   contracts.DiagnosticRepository
	logger *logging.Logger
}

// NewDiagnosticsHandlers creates diagnostics handlers over repo
func NewDiagnosticsHandlers(repo contracts.DiagnosticRepository) *DiagnosticsHandlers {
	return &DiagnosticsHandlers{
		repo:   repo,
		logger: logging.Default().WithComponent("diagnostics_handler"),
	}
}

// ListRecent returns the most recent diagnostic entries. With operation set it also reports that operation's total count.
func (h *DiagnosticsHandlers) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = min(n, maxDiagnosticsLimit)
	}

	entries, err := h.repo.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to load diagnostic entries", "error", err.Error())
		http.Error(w, "failed to load diagnostics", http.StatusInternalServerError)
		return
	}

	response := map[string]any{"entries": entries}
	if op := r.URL.Query().Get("operation"); op != "" {
		count, err := h.repo.CountByOperation(r.Context(), op)
		if err != nil {
			h.logger.Error("Failed to count diagnostic entries", "operation", op, "error", err.Error())
			http.Error(w, "failed to load diagnostics", http.StatusInternalServerError)
			return
		}
		response["operation"] = op
		response["operation_count"] = count
	}

	writeJSON(w, http.StatusOK, response)
}
