package handlers

import (
	"net/http"

	"github.com/hairizuan-noorazman/scriptvault/logger"
	"github.com/hairizuan-noorazman/scriptvault/storage"
)

// StorageHandler exposes backend metadata.
type StorageHandler struct {
	backend storage.Backend
	logger  logger.Logger
}

// NewStorageHandler creates a new storage handler.
func NewStorageHandler(backend storage.Backend, log logger.Logger) *StorageHandler {
	return &StorageHandler{
		backend: backend,
		logger:  log,
	}
}

// Metadata handles storage metadata requests.
func (h *StorageHandler) Metadata(w http.ResponseWriter, r *http.Request) {
	meta, err := h.backend.Metadata(r.Context())
	if err != nil {
		h.logger.Error(r.Context(), "failed to read storage metadata", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "failed to read storage metadata")
		return
	}

	respondJSON(w, http.StatusOK, meta)
}
