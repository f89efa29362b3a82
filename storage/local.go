package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hairizuan-noorazman/scriptvault/logger"
	"github.com/hairizuan-noorazman/scriptvault/script"
)

// DocumentName is the file holding the JSON array of scripts inside the vault directory.
const DocumentName = "scripts.json"

// LocalBackend implements Backend with a single JSON document on the local filesystem.
// Every mutation reads the whole document, changes it in memory and replaces the file
// through a temp file and rename, so readers never observe a partially written document.
type LocalBackend struct {
	noRemote

	dir    string
	path   string
	logger logger.Logger

	// mu serializes read-modify-write cycles within this process only.
	mu sync.Mutex
}

// NewLocalBackend creates a local backend rooted at dir.
// The directory and an empty document are created if they don't exist.
func NewLocalBackend(dir string, log logger.Logger) (*LocalBackend, error) {
	dir = filepath.Clean(dir)
	if dir == "" || dir == "." {
		return nil, fmt.Errorf("%w: vault directory cannot be empty", ErrInvalidConfig)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: failed to create vault directory: %v", ErrIO, err)
	}

	b := &LocalBackend{
		dir:    dir,
		path:   filepath.Join(dir, DocumentName),
		logger: log.WithField("backend", string(KindLocal)),
	}

	if _, err := os.Stat(b.path); errors.Is(err, os.ErrNotExist) {
		if err := b.write([]*script.Script{}); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// Path returns the location of the scripts document.
func (b *LocalBackend) Path() string {
	return b.path
}

// Save upserts a script by id or name.
func (b *LocalBackend) Save(ctx context.Context, s *script.Script) error {
	if err := s.Validate(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	scripts, err := b.read()
	if err != nil {
		b.logger.Error(ctx, "failed to read scripts document", map[string]interface{}{
			"error": err.Error(),
			"path":  b.path,
		})
		return err
	}

	kept := scripts[:0]
	for _, existing := range scripts {
		if existing.ID != s.ID && existing.Name != s.Name {
			kept = append(kept, existing)
		}
	}
	kept = append(kept, s.Clone())

	if err := b.write(kept); err != nil {
		b.logger.Error(ctx, "failed to save script", map[string]interface{}{
			"error":       err.Error(),
			"script_id":   s.ID,
			"script_name": s.Name,
		})
		return err
	}

	b.logger.Info(ctx, "script saved", map[string]interface{}{
		"script_id":   s.ID,
		"script_name": s.Name,
	})

	return nil
}

// LoadByID retrieves a script by its id.
func (b *LocalBackend) LoadByID(ctx context.Context, id string) (*script.Script, error) {
	return b.find(func(s *script.Script) bool { return s.ID == id })
}

// LoadByName retrieves a script by its name.
func (b *LocalBackend) LoadByName(ctx context.Context, name string) (*script.Script, error) {
	return b.find(func(s *script.Script) bool { return s.Name == name })
}

func (b *LocalBackend) find(match func(*script.Script) bool) (*script.Script, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	scripts, err := b.read()
	if err != nil {
		return nil, err
	}
	for _, s := range scripts {
		if match(s) {
			return s, nil
		}
	}
	return nil, ErrScriptNotFound
}

// List returns every script in document order.
func (b *LocalBackend) List(ctx context.Context) ([]*script.Script, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.read()
}

// Delete removes the script with the given id and persists the remainder.
func (b *LocalBackend) Delete(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	scripts, err := b.read()
	if err != nil {
		return err
	}

	idx := -1
	for i, s := range scripts {
		if s.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrScriptNotFound
	}

	remaining := append(scripts[:idx:idx], scripts[idx+1:]...)
	if err := b.write(remaining); err != nil {
		b.logger.Error(ctx, "failed to delete script", map[string]interface{}{
			"error":     err.Error(),
			"script_id": id,
		})
		return err
	}

	b.logger.Info(ctx, "script deleted", map[string]interface{}{
		"script_id": id,
	})

	return nil
}

// Exists reports whether a script with the id is stored.
func (b *LocalBackend) Exists(ctx context.Context, id string) (bool, error) {
	_, err := b.LoadByID(ctx, id)
	if errors.Is(err, ErrScriptNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Metadata sums the recorded sizes of all scripts. LastSync is always nil.
func (b *LocalBackend) Metadata(ctx context.Context) (*StorageMetadata, error) {
	scripts, err := b.List(ctx)
	if err != nil {
		return nil, err
	}

	meta := &StorageMetadata{
		TotalScripts: len(scripts),
		BackendType:  b.BackendType(),
	}
	for _, s := range scripts {
		meta.TotalSizeBytes += s.Metadata.SizeBytes
	}
	return meta, nil
}

// HealthCheck requires the vault directory and a parseable document.
func (b *LocalBackend) HealthCheck(ctx context.Context) bool {
	if info, err := os.Stat(b.dir); err != nil || !info.IsDir() {
		return false
	}

	data, err := os.ReadFile(b.path)
	if err != nil {
		b.logger.Warn(ctx, "scripts document unavailable", map[string]interface{}{
			"error": err.Error(),
			"path":  b.path,
		})
		return false
	}

	var scripts []*script.Script
	if err := json.Unmarshal(data, &scripts); err != nil {
		b.logger.Warn(ctx, "scripts document is corrupt", map[string]interface{}{
			"error": err.Error(),
			"path":  b.path,
		})
		return false
	}
	return true
}

// BackendType returns "local".
func (b *LocalBackend) BackendType() string {
	return string(KindLocal)
}

// read loads the document. A missing document reads as empty.
func (b *LocalBackend) read() ([]*script.Script, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []*script.Script{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}

	var scripts []*script.Script
	if err := json.Unmarshal(data, &scripts); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrIO, b.path, err)
	}
	if scripts == nil {
		scripts = []*script.Script{}
	}
	return scripts, nil
}

// write replaces the document with a pretty-printed array.
func (b *LocalBackend) write(scripts []*script.Script) error {
	data, err := json.MarshalIndent(scripts, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: failed to encode scripts: %v", ErrIO, err)
	}

	tmp, err := os.CreateTemp(b.dir, ".scripts-*.json")
	if err != nil {
		return fmt.Errorf("%w: failed to create temp file: %v", ErrIO, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: failed to write temp file: %v", ErrIO, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: failed to sync temp file: %v", ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: failed to close temp file: %v", ErrIO, err)
	}

	if err := os.Rename(tmpPath, b.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: failed to replace scripts document: %v", ErrIO, err)
	}
	return nil
}
