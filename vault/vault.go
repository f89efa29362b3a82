package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hairizuan-noorazman/scriptvault/logger"
	"github.com/hairizuan-noorazman/scriptvault/provenance"
	"github.com/hairizuan-noorazman/scriptvault/script"
	"github.com/hairizuan-noorazman/scriptvault/storage"
)

// ErrFileNotFound is returned when the file to save does not exist.
var ErrFileNotFound = errors.New("script file not found")

// DefaultFindLimit caps Find results when no limit is given.
const DefaultFindLimit = 20

// Detector produces the provenance snapshot of the current directory.
type Detector interface {
	Detect(ctx context.Context) (script.ContextSnapshot, error)
}

// Service is the catalog used by the CLI and the HTTP API.
type Service struct {
	backend  storage.Backend
	detector Detector
	author   string
	logger   logger.Logger
}

// NewService creates a catalog service. author is recorded on newly saved scripts.
func NewService(backend storage.Backend, detector Detector, author string, log logger.Logger) *Service {
	if author == "" {
		author = script.DefaultAuthor
	}
	return &Service{
		backend:  backend,
		detector: detector,
		author:   author,
		logger:   log,
	}
}

// SaveRequest describes a file to add to the vault.
type SaveRequest struct {
	Path        string
	Tags        string // whitespace separated
	Description string
	Visibility  script.Visibility
}

// SaveFile reads a script file and saves it under its file stem. A file without an
// extension is treated as "sh". Saving a name that already exists replaces the entry but
// keeps its id, creation time and run metrics so history stays attached to it.
func (s *Service) SaveFile(ctx context.Context, req SaveRequest) (*script.Script, error) {
	data, err := os.ReadFile(req.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, req.Path)
		}
		return nil, fmt.Errorf("failed to read script file: %w", err)
	}

	base := filepath.Base(req.Path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" {
		return nil, fmt.Errorf("%w: %s", script.ErrInvalidName, req.Path)
	}

	sc := script.New(name, string(data), script.LanguageFromPath(req.Path))
	sc.Tags = strings.Fields(req.Tags)
	sc.Description = strings.TrimSpace(req.Description)
	sc.Author = s.author
	if req.Visibility != "" {
		sc.Visibility = req.Visibility
	}

	snap, err := s.detector.Detect(ctx)
	if err != nil {
		return nil, err
	}
	sc.Context = snap

	existing, err := s.backend.LoadByName(ctx, name)
	switch {
	case err == nil:
		sc.ID = existing.ID
		sc.CreatedAt = existing.CreatedAt
		m := existing.Metadata
		sc.Metadata.UseCount = m.UseCount
		sc.Metadata.SuccessCount = m.SuccessCount
		sc.Metadata.FailureCount = m.FailureCount
		sc.Metadata.LastRun = m.LastRun
		sc.Metadata.LastRunBy = m.LastRunBy
		sc.Metadata.AvgRuntimeMS = m.AvgRuntimeMS
	case errors.Is(err, storage.ErrScriptNotFound):
	default:
		return nil, err
	}

	if err := s.backend.Save(ctx, sc); err != nil {
		return nil, err
	}
	return sc, nil
}

// FindQuery narrows a catalog search. Empty fields match everything.
type FindQuery struct {
	// Query is matched case-insensitively against name, description and tags.
	Query string
	// Tag requires an exact tag.
	Tag string
	// Language compares the lowercase language label, e.g. "python".
	Language string
	// Here keeps scripts saved in a location related to the current one.
	Here bool
	// Team keeps only scripts with team visibility.
	Team bool
	// GitRepo compares the normalized repository identity.
	GitRepo string
	// Limit caps the result; zero means DefaultFindLimit.
	Limit int
}

// FindResult is a page of matches. Total counts every match before the limit.
type FindResult struct {
	Scripts []*script.Script `json:"scripts"`
	Total   int              `json:"total"`
}

// Find searches the catalog. Results are sorted by name.
func (s *Service) Find(ctx context.Context, q FindQuery) (*FindResult, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	var here *script.ContextSnapshot
	if q.Here {
		snap, err := s.detector.Detect(ctx)
		if err != nil {
			return nil, err
		}
		here = &snap
	}

	needle := strings.ToLower(strings.TrimSpace(q.Query))
	language := strings.ToLower(strings.TrimSpace(q.Language))
	repo := ""
	if q.GitRepo != "" {
		repo = provenance.NormalizeGitURL(q.GitRepo)
	}

	matches := make([]*script.Script, 0, len(all))
	for _, sc := range all {
		if needle != "" && !matchesQuery(sc, needle) {
			continue
		}
		if here != nil && !provenance.Match(sc.Context, *here) {
			continue
		}
		if q.Tag != "" && !sc.HasTag(q.Tag) {
			continue
		}
		if language != "" && sc.Language.Label() != language {
			continue
		}
		if q.Team && sc.Visibility != script.VisibilityTeam {
			continue
		}
		if repo != "" && sc.Context.GitRepo != repo {
			continue
		}
		matches = append(matches, sc)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultFindLimit
	}
	result := &FindResult{Scripts: matches, Total: len(matches)}
	if len(matches) > limit {
		result.Scripts = matches[:limit]
	}
	return result, nil
}

func matchesQuery(sc *script.Script, needle string) bool {
	if strings.Contains(strings.ToLower(sc.Name), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(sc.Description), needle) {
		return true
	}
	for _, t := range sc.Tags {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	return false
}

// List returns every script sorted by name.
func (s *Service) List(ctx context.Context) ([]*script.Script, error) {
	all, err := s.backend.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all, nil
}

// Info returns the script called name.
func (s *Service) Info(ctx context.Context, name string) (*script.Script, error) {
	sc, err := s.backend.LoadByName(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrScriptNotFound) {
			return nil, fmt.Errorf("%w: %s", storage.ErrScriptNotFound, name)
		}
		return nil, err
	}
	return sc, nil
}

// Delete removes the script called name and returns it.
func (s *Service) Delete(ctx context.Context, name string) (*script.Script, error) {
	sc, err := s.Info(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := s.backend.Delete(ctx, sc.ID); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "script removed from vault", map[string]interface{}{
		"script_id":   sc.ID,
		"script_name": sc.Name,
	})
	return sc, nil
}

