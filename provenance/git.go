package provenance

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// GitRunner runs a git subcommand in a directory and returns its trimmed stdout.
type GitRunner interface {
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

// GitCLI implements GitRunner with the git binary on PATH.
type GitCLI struct{}

// Run executes git -C dir args...
func (GitCLI) Run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", dir}, args...)...)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// NormalizeGitURL reduces a remote URL to a host/path identity so that the HTTPS and SSH
// forms of the same repository compare equal.
//
//	https://github.com/user/repo.git -> github.com/user/repo
//	git@github.com:user/repo.git     -> github.com/user/repo
func NormalizeGitURL(url string) string {
	u := strings.TrimSpace(url)

	scheme := false
	for _, prefix := range []string{"https://", "http://", "ssh://", "git://"} {
		if strings.HasPrefix(u, prefix) {
			u = strings.TrimPrefix(u, prefix)
			scheme = true
			break
		}
	}

	// Drop credentials or the ssh user.
	if at := strings.Index(u, "@"); at >= 0 && at < strings.IndexAny(u+"/", ":/") {
		u = u[at+1:]
	}

	// scp-like syntax separates host and path with a colon.
	if !scheme {
		u = strings.Replace(u, ":", "/", 1)
	}

	u = strings.TrimSuffix(u, "/")
	u = strings.TrimSuffix(u, ".git")
	return u
}
