package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hairizuan-noorazman/scriptvault/script"
)

// NewScript builds a script fixture with the given name and content and optional tags.
func NewScript(name, content string, tags ...string) *script.Script {
	s := script.New(name, content, script.LanguageShell)
	s.Tags = append([]string{}, tags...)
	s.Author = "tester"
	return s
}

// WriteFile creates a file with content under dir and returns its path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create fixture directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}
