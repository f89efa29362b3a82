package handlers

import (
	"github.com/gorilla/mux"
	"github.com/hairizuan-noorazman/scriptvault/logger"
	"github.com/hairizuan-noorazman/scriptvault/storage"
)

// NewRouter wires the read and delete API. Script execution is not exposed over HTTP.
func NewRouter(catalog Catalog, history HistoryQuerier, backend storage.Backend, log logger.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(NewLoggingMiddleware(log).Handler)

	router.HandleFunc("/health", NewHealthHandler(backend).Check).Methods("GET")

	scriptHandler := NewScriptHandler(catalog, log)
	historyHandler := NewHistoryHandler(history, log)
	storageHandler := NewStorageHandler(backend, log)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/scripts", scriptHandler.List).Methods("GET")
	api.HandleFunc("/scripts/{name}", scriptHandler.Get).Methods("GET")
	api.HandleFunc("/scripts/{name}", scriptHandler.Delete).Methods("DELETE")
	api.HandleFunc("/history", historyHandler.List).Methods("GET")
	api.HandleFunc("/storage", storageHandler.Metadata).Methods("GET")

	return router
}
