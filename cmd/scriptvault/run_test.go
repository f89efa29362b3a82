package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hairizuan-noorazman/scriptvault/config"
	"github.com/hairizuan-noorazman/scriptvault/testutil"
)

// runSV executes the CLI with args against an isolated home directory.
func runSV(t *testing.T, home string, args ...string) error {
	t.Helper()

	root := newRootCmd()
	root.SetArgs(append([]string{"--home", home}, args...))
	err := root.Execute()
	closeApp()
	return err
}

// setupDangerousScript saves a script that matches a dangerous pattern and touches marker when it runs.
func setupDangerousScript(t *testing.T) (home, marker string) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	home = t.TempDir()
	work := t.TempDir()
	marker = filepath.Join(work, "executed")

	t.Setenv(config.EnvCI, "")
	os.Unsetenv(config.EnvCI)
	t.Setenv("SCRIPTVAULT_SCRATCH_DIR", t.TempDir())

	path := testutil.WriteFile(t, work, "wipe.sh", "echo 'rm -rf / is never run'\ntouch "+marker+"\n")
	require.NoError(t, runSV(t, home, "save", path))
	return home, marker
}

func TestRunCmd_DangerousScriptInJSONMode(t *testing.T) {
	t.Run("rejected without ci", func(t *testing.T) {
		home, marker := setupDangerousScript(t)

		err := runSV(t, home, "run", "wipe", "--json")
		require.Error(t, err)
		assert.ErrorIs(t, err, errDangerousJSON)
		assert.NoFileExists(t, marker)
		assert.NoFileExists(t, filepath.Join(home, "history.jsonl"))
	})

	t.Run("dry run is allowed", func(t *testing.T) {
		home, marker := setupDangerousScript(t)

		require.NoError(t, runSV(t, home, "run", "wipe", "--json", "--dry-run"))
		assert.NoFileExists(t, marker)
	})

	t.Run("runs with ci flag", func(t *testing.T) {
		home, marker := setupDangerousScript(t)

		require.NoError(t, runSV(t, home, "run", "wipe", "--json", "--ci"))
		assert.FileExists(t, marker)
		assert.FileExists(t, filepath.Join(home, "history.jsonl"))
	})

	t.Run("runs with ci environment", func(t *testing.T) {
		home, marker := setupDangerousScript(t)
		t.Setenv(config.EnvCI, "1")

		require.NoError(t, runSV(t, home, "run", "wipe", "--json"))
		assert.FileExists(t, marker)
	})
}
