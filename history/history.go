package history

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/hairizuan-noorazman/scriptvault/logger"
	"github.com/hairizuan-noorazman/scriptvault/script"
)

// ErrIO is returned when the history log cannot be opened, read or appended to.
var ErrIO = errors.New("history i/o failure")

const (
	// DefaultLimit caps an unfiltered history query.
	DefaultLimit = 20

	// RecentLimit caps a query asking only for recent runs.
	RecentLimit = 10
)

// Log is an append-only newline-delimited JSON file of execution records.
// Records are never rewritten or removed.
type Log struct {
	path   string
	logger logger.Logger

	mu sync.Mutex
}

// NewLog creates a log at path. The file is created on first append.
func NewLog(path string, log logger.Logger) *Log {
	return &Log{
		path:   path,
		logger: log,
	}
}

// Path returns the location of the log file.
func (l *Log) Path() string {
	return l.path
}

// Append writes rec as one line. The line is written with a single write call on an
// O_APPEND descriptor so concurrent appenders never interleave within a record.
func (l *Log) Append(ctx context.Context, rec *script.ExecutionRecord) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: failed to encode record: %v", ErrIO, err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		l.logger.Error(ctx, "failed to open history log", map[string]interface{}{
			"error": err.Error(),
			"path":  l.path,
		})
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		l.logger.Error(ctx, "failed to append execution record", map[string]interface{}{
			"error":        err.Error(),
			"path":         l.path,
			"execution_id": rec.ID,
		})
		return fmt.Errorf("%w: %v", ErrIO, err)
	}

	return nil
}

// All returns every parseable record in file order. A missing log reads as empty.
// Lines that fail to parse are skipped and logged.
func (l *Log) All(ctx context.Context) ([]*script.ExecutionRecord, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []*script.ExecutionRecord{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer f.Close()

	var (
		records []*script.ExecutionRecord
		reader  = bufio.NewReader(f)
		lineNo  int
	)
	for {
		line, readErr := reader.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			lineNo++
			var rec script.ExecutionRecord
			if err := json.Unmarshal(line, &rec); err != nil {
				l.logger.Warn(ctx, "skipping unparseable history line", map[string]interface{}{
					"error": err.Error(),
					"line":  lineNo,
					"path":  l.path,
				})
			} else {
				records = append(records, &rec)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrIO, readErr)
		}
	}

	if records == nil {
		records = []*script.ExecutionRecord{}
	}
	return records, nil
}

// Query narrows a list of records.
type Query struct {
	// ScriptID keeps only the runs of one script when set.
	ScriptID string

	// FailedOnly keeps only runs with a nonzero exit code.
	FailedOnly bool

	// Limit caps the result. Zero means DefaultLimit.
	Limit int
}

// Filter returns the records matching q, newest first, capped at the query limit.
func Filter(records []*script.ExecutionRecord, q Query) []*script.ExecutionRecord {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	out := make([]*script.ExecutionRecord, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		if q.ScriptID != "" && r.ScriptID != q.ScriptID {
			continue
		}
		if q.FailedOnly && r.Succeeded() {
			continue
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ExecutedAt.After(out[j].ExecutedAt)
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
