package handlers

import "net/http"

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	missing func() []string
}

// NewHealthHandler creates a health handler. missing reports configuration
// that must be present before extraction can succeed.
func NewHealthHandler(missing func() []string) *HealthHandler {
	return &HealthHandler{missing: missing}
}

// ReadyResponse is the body of GET /ready.
type ReadyResponse struct {
	Status  string   `json:"status"`
	Missing []string `json:"missing,omitempty"`
}

// Health handles GET /health. It never depends on configuration.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Ready handles GET /ready.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	var missing []string
	if h.missing != nil {
		missing = h.missing()
	}
	if len(missing) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, ReadyResponse{Status: "not_ready", Missing: missing})
		return
	}
	writeJSON(w, http.StatusOK, ReadyResponse{Status: "ready"})
}
