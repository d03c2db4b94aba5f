package handlers

import "net/http"

// HealthChecker reports database pool statistics
type HealthChecker interface {
	Health() (map[string]interface{}, error)
}

// SystemHandlers serves operational endpoints
type SystemHandlers struct {
	db HealthChecker
}

// NewSystemHandlers creates system handlers
func NewSystemHandlers(db HealthChecker) *SystemHandlers {
	return &SystemHandlers{db: db}
}

// Health reports database pool stats
func (h *SystemHandlers) Health(w http.ResponseWriter, r *http.Request) {
	stats, err := h.db.Health()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"database": stats,
	})
}
