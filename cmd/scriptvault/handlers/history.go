package handlers

import (
	"context"
	"net/http"

	"github.com/hairizuan-noorazman/scriptvault/execution"
	"github.com/hairizuan-noorazman/scriptvault/logger"
)

// HistoryQuerier answers execution history queries.
type HistoryQuerier interface {
	Query(ctx context.Context, q execution.HistoryQuery) ([]execution.HistoryEntry, error)
}

// HistoryHandler handles execution history requests.
type HistoryHandler struct {
	history HistoryQuerier
	logger  logger.Logger
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(history HistoryQuerier, log logger.Logger) *HistoryHandler {
	return &HistoryHandler{
		history: history,
		logger:  log,
	}
}

// List handles the script, failed and recent parameters.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.history.Query(r.Context(), execution.HistoryQuery{
		ScriptName: r.URL.Query().Get("script"),
		FailedOnly: queryBool(r, "failed"),
		Recent:     queryBool(r, "recent"),
	})
	if err != nil {
		h.logger.Error(r.Context(), "failed to query history", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "failed to query history")
		return
	}

	respondJSON(w, http.StatusOK, ListResponse{Items: entries, Total: len(entries)})
}
