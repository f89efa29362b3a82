package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/hairizuan-noorazman/scriptvault/logger"
	"github.com/hairizuan-noorazman/scriptvault/script"
	"github.com/hairizuan-noorazman/scriptvault/storage"
	"github.com/hairizuan-noorazman/scriptvault/vault"
)

// Catalog is the subset of the vault service exposed over HTTP.
type Catalog interface {
	Find(ctx context.Context, q vault.FindQuery) (*vault.FindResult, error)
	Info(ctx context.Context, name string) (*script.Script, error)
	Delete(ctx context.Context, name string) (*script.Script, error)
}

// ScriptHandler handles script catalog requests.
type ScriptHandler struct {
	catalog Catalog
	logger  logger.Logger
}

// NewScriptHandler creates a new script handler.
func NewScriptHandler(catalog Catalog, log logger.Logger) *ScriptHandler {
	return &ScriptHandler{
		catalog: catalog,
		logger:  log,
	}
}

// List handles searching the catalog with the q, tag, language, team and limit parameters.
func (h *ScriptHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", vault.DefaultFindLimit)
	if !ok {
		respondError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	params := r.URL.Query()
	res, err := h.catalog.Find(r.Context(), vault.FindQuery{
		Query:    params.Get("q"),
		Tag:      params.Get("tag"),
		Language: params.Get("language"),
		GitRepo:  params.Get("repo"),
		Team:     queryBool(r, "team"),
		Limit:    limit,
	})
	if err != nil {
		h.logger.Error(r.Context(), "failed to search scripts", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "failed to search scripts")
		return
	}

	respondJSON(w, http.StatusOK, ListResponse{Items: res.Scripts, Total: res.Total})
}

// Get handles retrieving one script by name.
func (h *ScriptHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	sc, err := h.catalog.Info(r.Context(), name)
	if err != nil {
		if errors.Is(err, storage.ErrScriptNotFound) {
			respondError(w, http.StatusNotFound, "script not found")
			return
		}
		h.logger.Error(r.Context(), "failed to get script", map[string]interface{}{
			"error":       err.Error(),
			"script_name": name,
		})
		respondError(w, http.StatusInternalServerError, "failed to get script")
		return
	}

	respondJSON(w, http.StatusOK, sc)
}

// Delete handles removing one script by name.
func (h *ScriptHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if _, err := h.catalog.Delete(r.Context(), name); err != nil {
		if errors.Is(err, storage.ErrScriptNotFound) {
			respondError(w, http.StatusNotFound, "script not found")
			return
		}
		h.logger.Error(r.Context(), "failed to delete script", map[string]interface{}{
			"error":       err.Error(),
			"script_name": name,
		})
		respondError(w, http.StatusInternalServerError, "failed to delete script")
		return
	}

	respondSuccess(w, "script deleted")
}
