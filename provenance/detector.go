package provenance

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hairizuan-noorazman/scriptvault/logger"
	"github.com/hairizuan-noorazman/scriptvault/script"
)

// EnvWhitelist lists the only environment variables captured in a snapshot.
var EnvWhitelist = []string{"SHELL", "USER", "OS"}

// Detector captures the provenance of the current working directory.
type Detector struct {
	git    GitRunner
	getwd  func() (string, error)
	getenv func(string) string
	logger logger.Logger
}

// NewDetector creates a detector reading the process working directory and environment.
func NewDetector(git GitRunner, log logger.Logger) *Detector {
	return &Detector{
		git:    git,
		getwd:  os.Getwd,
		getenv: os.Getenv,
		logger: log,
	}
}

// Detect returns the snapshot of the working directory. Not being inside a git repository,
// or a repository without an origin remote, leaves the git fields empty.
func (d *Detector) Detect(ctx context.Context) (script.ContextSnapshot, error) {
	dir, err := d.getwd()
	if err != nil {
		return script.ContextSnapshot{}, fmt.Errorf("failed to read working directory: %w", err)
	}
	return d.DetectDir(ctx, dir), nil
}

// DetectDir returns the snapshot of dir.
func (d *Detector) DetectDir(ctx context.Context, dir string) script.ContextSnapshot {
	snap := script.ContextSnapshot{
		Directory:   dir,
		Environment: map[string]string{},
	}

	for _, key := range EnvWhitelist {
		if v := d.getenv(key); v != "" {
			snap.Environment[key] = v
		}
	}

	if _, err := d.git.Run(ctx, dir, "rev-parse", "--show-toplevel"); err != nil {
		d.logger.Debug(ctx, "not inside a git repository", map[string]interface{}{
			"directory": dir,
		})
		return snap
	}

	if remote, err := d.git.Run(ctx, dir, "remote", "get-url", "origin"); err == nil && remote != "" {
		snap.GitRepo = NormalizeGitURL(remote)
	}
	if branch, err := d.git.Run(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD"); err == nil && branch != "" {
		snap.GitBranch = branch
	}

	return snap
}

// Match reports whether two snapshots describe related locations. In priority order:
// both carry the same non-empty repository identity; both carry the same non-empty
// directory; or one directory contains the other, compared by whole path components.
func Match(a, b script.ContextSnapshot) bool {
	if a.GitRepo != "" && a.GitRepo == b.GitRepo {
		return true
	}
	if a.Directory == "" || b.Directory == "" {
		return false
	}
	if a.Directory == b.Directory {
		return true
	}
	return Contains(a.Directory, b.Directory) || Contains(b.Directory, a.Directory)
}

// Contains reports whether child is parent or lies beneath it.
// "/home/user/project2" is not beneath "/home/user/project".
func Contains(parent, child string) bool {
	parent = filepath.Clean(parent)
	child = filepath.Clean(child)
	if parent == child {
		return true
	}
	if !strings.HasSuffix(parent, string(filepath.Separator)) {
		parent += string(filepath.Separator)
	}
	return strings.HasPrefix(child, parent)
}
