package execution

import (
	"context"
	"errors"

	"github.com/hairizuan-noorazman/scriptvault/history"
	"github.com/hairizuan-noorazman/scriptvault/script"
	"github.com/hairizuan-noorazman/scriptvault/storage"
)

// HistoryQuery selects past runs.
type HistoryQuery struct {
	ScriptName string
	FailedOnly bool
	Recent     bool
}

// HistoryEntry pairs a record with the current name of its script.
// ScriptName is empty when the script has since been deleted.
type HistoryEntry struct {
	Record     *script.ExecutionRecord `json:"record"`
	ScriptName string                  `json:"script_name,omitempty"`
}

// HistoryService answers history queries by joining the log with the catalog.
type HistoryService struct {
	backend storage.Backend
	log     *history.Log
}

// NewHistoryService creates a history service.
func NewHistoryService(backend storage.Backend, log *history.Log) *HistoryService {
	return &HistoryService{backend: backend, log: log}
}

// Query returns matching runs newest first, at most history.RecentLimit when q.Recent is set
// and history.DefaultLimit otherwise. An unknown script name yields an empty result.
func (h *HistoryService) Query(ctx context.Context, q HistoryQuery) ([]HistoryEntry, error) {
	scripts, err := h.backend.List(ctx)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(scripts))
	for _, s := range scripts {
		names[s.ID] = s.Name
	}

	filter := history.Query{FailedOnly: q.FailedOnly, Limit: history.DefaultLimit}
	if q.Recent {
		filter.Limit = history.RecentLimit
	}
	if q.ScriptName != "" {
		s, err := h.backend.LoadByName(ctx, q.ScriptName)
		if errors.Is(err, storage.ErrScriptNotFound) {
			return []HistoryEntry{}, nil
		}
		if err != nil {
			return nil, err
		}
		filter.ScriptID = s.ID
	}

	records, err := h.log.All(ctx)
	if err != nil {
		return nil, err
	}

	matched := history.Filter(records, filter)
	entries := make([]HistoryEntry, 0, len(matched))
	for _, r := range matched {
		entries = append(entries, HistoryEntry{Record: r, ScriptName: names[r.ScriptID]})
	}
	return entries, nil
}
