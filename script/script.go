package script

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/hairizuan-noorazman/scriptvault/internal/uuidutil"
)

var (
	// ErrInvalidName is returned when a script name is empty or contains a path separator.
	ErrInvalidName = errors.New("script name is required and cannot contain path separators")

	// ErrInvalidVisibility is returned when a visibility label is not recognized.
	ErrInvalidVisibility = errors.New("invalid visibility")
)

const (
	// DefaultVersion is the version label every script is created with.
	DefaultVersion = "v1.0.0"

	// DefaultAuthor is used when no username is configured or discoverable.
	DefaultAuthor = "local"
)

// Visibility controls who a script is meant to be shared with.
// Only VisibilityPrivate has any effect today.
type Visibility string

const (
	VisibilityPrivate Visibility = "Private"
	VisibilityTeam    Visibility = "Team"
	VisibilityPublic  Visibility = "Public"
)

// IsValid checks if the visibility is one of the known values.
func (v Visibility) IsValid() bool {
	switch v {
	case VisibilityPrivate, VisibilityTeam, VisibilityPublic:
		return true
	default:
		return false
	}
}

// ParseVisibility accepts a case-insensitive visibility label.
func ParseVisibility(s string) (Visibility, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "private":
		return VisibilityPrivate, nil
	case "team":
		return VisibilityTeam, nil
	case "public":
		return VisibilityPublic, nil
	default:
		return "", ErrInvalidVisibility
	}
}

// ContextSnapshot captures where a script was saved or executed.
// Environment only ever holds the whitelisted variables, never the full environment.
type ContextSnapshot struct {
	Directory   string            `json:"directory,omitempty"`
	GitRepo     string            `json:"git_repo,omitempty"`
	GitBranch   string            `json:"git_branch,omitempty"`
	Environment map[string]string `json:"environment"`
}

// UsageMetrics holds content facts and run statistics for a script.
// Run statistics are mutated only through RecordRun.
type UsageMetrics struct {
	Hash         string     `json:"hash"`
	SizeBytes    uint64     `json:"size_bytes"`
	LineCount    uint64     `json:"line_count"`
	UseCount     uint64     `json:"use_count"`
	SuccessCount uint64     `json:"success_count"`
	FailureCount uint64     `json:"failure_count"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	LastRunBy    string     `json:"last_run_by,omitempty"`
	AvgRuntimeMS *uint64    `json:"avg_runtime_ms,omitempty"`
}

// Script is a catalog entry in the vault.
type Script struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Content     string          `json:"content"`
	Version     string          `json:"version"`
	Language    Language        `json:"language"`
	Tags        []string        `json:"tags"`
	Description string          `json:"description,omitempty"`
	Author      string          `json:"author"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Context     ContextSnapshot `json:"context"`
	Metadata    UsageMetrics    `json:"metadata"`
	Visibility  Visibility      `json:"visibility"`
}

// New creates a private script with a fresh ID and metrics computed from content.
func New(name, content string, language Language) *Script {
	now := time.Now().UTC()
	hash, size, lines := ContentMetrics(content)

	return &Script{
		ID:         uuidutil.NewString(),
		Name:       name,
		Content:    content,
		Version:    DefaultVersion,
		Language:   language,
		Tags:       []string{},
		Author:     DefaultAuthor,
		CreatedAt:  now,
		UpdatedAt:  now,
		Visibility: VisibilityPrivate,
		Context: ContextSnapshot{
			Environment: map[string]string{},
		},
		Metadata: UsageMetrics{
			Hash:      hash,
			SizeBytes: size,
			LineCount: lines,
		},
	}
}

// ContentMetrics returns the SHA-256 hex digest, byte size and line count of content.
// A trailing newline does not start a new line.
func ContentMetrics(content string) (hash string, size uint64, lines uint64) {
	sum := sha256.Sum256([]byte(content))
	hash = hex.EncodeToString(sum[:])
	size = uint64(len(content))

	if content != "" {
		lines = uint64(strings.Count(content, "\n"))
		if !strings.HasSuffix(content, "\n") {
			lines++
		}
	}
	return hash, size, lines
}

// Validate checks the fields a backend relies on.
func (s *Script) Validate() error {
	if strings.TrimSpace(s.Name) == "" || strings.ContainsAny(s.Name, `/\`) {
		return ErrInvalidName
	}
	if s.Visibility != "" && !s.Visibility.IsValid() {
		return ErrInvalidVisibility
	}
	return nil
}

// SuccessRate returns the percentage of successful runs, or 0 when it never ran.
func (s *Script) SuccessRate() float64 {
	total := s.Metadata.SuccessCount + s.Metadata.FailureCount
	if total == 0 {
		return 0
	}
	return float64(s.Metadata.SuccessCount) / float64(total) * 100
}

// HasTag reports whether the script carries the exact tag.
func (s *Script) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// RecordRun folds one execution into the usage metrics.
//
// The average runtime is an incremental mean recomputed from the previous
// average with integer division, so it drifts from the exact mean over many runs.
func (s *Script) RecordRun(exitCode int, durationMS uint64, at time.Time, by string) {
	m := &s.Metadata
	m.UseCount++
	m.LastRun = &at
	m.LastRunBy = by

	if exitCode == 0 {
		m.SuccessCount++
	} else {
		m.FailureCount++
	}

	avg := durationMS
	if m.AvgRuntimeMS != nil {
		avg = (*m.AvgRuntimeMS*(m.UseCount-1) + durationMS) / m.UseCount
	}
	m.AvgRuntimeMS = &avg
}

// Clone returns a deep copy of the script.
func (s *Script) Clone() *Script {
	c := *s
	c.Tags = append([]string(nil), s.Tags...)
	if s.Context.Environment != nil {
		c.Context.Environment = make(map[string]string, len(s.Context.Environment))
		for k, v := range s.Context.Environment {
			c.Context.Environment[k] = v
		}
	}
	if s.Metadata.LastRun != nil {
		t := *s.Metadata.LastRun
		c.Metadata.LastRun = &t
	}
	if s.Metadata.AvgRuntimeMS != nil {
		avg := *s.Metadata.AvgRuntimeMS
		c.Metadata.AvgRuntimeMS = &avg
	}
	return &c
}

// ExecutionRecord is an immutable entry of the execution history log.
type ExecutionRecord struct {
	ID            string          `json:"id"`
	ScriptID      string          `json:"script_id"`
	ScriptVersion string          `json:"script_version"`
	ExecutedBy    string          `json:"executed_by"`
	ExecutedAt    time.Time       `json:"executed_at"`
	ExitCode      int             `json:"exit_code"`
	DurationMS    uint64          `json:"duration_ms"`
	Output        string          `json:"output"`
	Error         string          `json:"error,omitempty"`
	Context       ContextSnapshot `json:"context"`
}

// Succeeded reports whether the run exited with code zero.
func (r *ExecutionRecord) Succeeded() bool {
	return r.ExitCode == 0
}
