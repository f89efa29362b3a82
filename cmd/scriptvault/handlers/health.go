package handlers

import (
	"net/http"

	"github.com/hairizuan-noorazman/scriptvault/storage"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
}

// HealthHandler reports the backend health check.
type HealthHandler struct {
	backend storage.Backend
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(backend storage.Backend) *HealthHandler {
	return &HealthHandler{backend: backend}
}

// Check handles health check requests.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if !h.backend.HealthCheck(r.Context()) {
		respondJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unhealthy", Backend: h.backend.BackendType()})
		return
	}
	respondJSON(w, http.StatusOK, HealthResponse{Status: "healthy", Backend: h.backend.BackendType()})
}
