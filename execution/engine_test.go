package execution

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/hairizuan-noorazman/scriptvault/script"
	"github.com/hairizuan-noorazman/scriptvault/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_RunMissingScript(t *testing.T) {
	te := setupEngine(t, false)

	out, err := te.Run(context.Background(), "ghost", RunOptions{Unattended: true})
	assert.ErrorIs(t, err, storage.ErrScriptNotFound)
	assert.Nil(t, out)
	assert.Empty(t, te.records(t))
	assert.Empty(t, te.presenter.results)
}

func TestEngine_RunSuccess(t *testing.T) {
	requireShell(t)
	ctx := context.Background()
	te := setupEngine(t, false)
	s := te.save(t, "greet", "echo hello\necho oops 1>&2\n", script.LanguageShell)

	out, err := te.Run(ctx, "greet", RunOptions{Unattended: true})
	require.NoError(t, err)
	assert.Equal(t, StateRecorded, out.State)

	rec := out.Record
	require.NotNil(t, rec)
	assert.Equal(t, 0, rec.ExitCode)
	assert.Equal(t, "hello\n", rec.Output)
	assert.Equal(t, "oops\n", rec.Error)
	assert.Equal(t, s.ID, rec.ScriptID)
	assert.Equal(t, script.DefaultVersion, rec.ScriptVersion)
	assert.Equal(t, "tester", rec.ExecutedBy)
	assert.Equal(t, "/work", rec.Context.Directory)

	assert.Equal(t, "hello\n", te.presenter.stdout)
	assert.Equal(t, "oops\n", te.presenter.stderr)
	require.Len(t, te.presenter.results, 1)

	records := te.records(t)
	require.Len(t, records, 1)
	assert.Equal(t, rec.ID, records[0].ID)

	updated, err := te.backend.LoadByName(ctx, "greet")
	require.NoError(t, err)
	assert.Equal(t, s.ID, updated.ID)
	assert.Equal(t, uint64(1), updated.Metadata.UseCount)
	assert.Equal(t, uint64(1), updated.Metadata.SuccessCount)
	assert.Equal(t, "tester", updated.Metadata.LastRunBy)
	require.NotNil(t, updated.Metadata.AvgRuntimeMS)
	assert.Equal(t, rec.DurationMS, *updated.Metadata.AvgRuntimeMS)

	assert.Empty(t, scratchEntries(t, te.scratch), "scratch directory must be removed")
	assert.Empty(t, te.confirmer.prompts)
}

func TestEngine_RunPassesArguments(t *testing.T) {
	requireShell(t)
	te := setupEngine(t, false)
	te.save(t, "args", `echo "$1-$2"`, script.LanguageShell)

	out, err := te.Run(context.Background(), "args", RunOptions{Args: []string{"a", "b c"}, Unattended: true})
	require.NoError(t, err)
	assert.Equal(t, "a-b c\n", out.Record.Output)
}

func TestEngine_RunExitCodes(t *testing.T) {
	requireShell(t)

	tests := []struct {
		name     string
		content  string
		wantCode int
	}{
		{"nonzero exit", "exit 3", 3},
		{"killed by signal", "kill -9 $$", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			te := setupEngine(t, false)
			te.save(t, "fails", tt.content, script.LanguageShell)

			out, err := te.Run(ctx, "fails", RunOptions{Unattended: true})
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, out.Record.ExitCode)

			updated, err := te.backend.LoadByName(ctx, "fails")
			require.NoError(t, err)
			assert.Equal(t, uint64(1), updated.Metadata.FailureCount)
			assert.Equal(t, uint64(0), updated.Metadata.SuccessCount)
			assert.Equal(t, updated.Metadata.UseCount, updated.Metadata.SuccessCount+updated.Metadata.FailureCount)
		})
	}
}

func TestEngine_RunTwiceUpdatesRunningMean(t *testing.T) {
	requireShell(t)
	ctx := context.Background()
	te := setupEngine(t, false)
	te.save(t, "twice", "true", script.LanguageShell)

	first, err := te.Run(ctx, "twice", RunOptions{Unattended: true})
	require.NoError(t, err)
	second, err := te.Run(ctx, "twice", RunOptions{Unattended: true})
	require.NoError(t, err)

	updated, err := te.backend.LoadByName(ctx, "twice")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), updated.Metadata.UseCount)
	assert.Equal(t, (first.Record.DurationMS+second.Record.DurationMS)/2, *updated.Metadata.AvgRuntimeMS)
	assert.NotEqual(t, first.Record.ID, second.Record.ID)
	assert.Len(t, te.records(t), 2)
}

func TestEngine_DangerousScript(t *testing.T) {
	requireShell(t)
	// Harmless content that still contains a dangerous pattern.
	const content = "echo 'mkfs is not run here'"

	t.Run("declined", func(t *testing.T) {
		ctx := context.Background()
		te := setupEngine(t, true, false)
		te.save(t, "risky", content, script.LanguageShell)

		out, err := te.Run(ctx, "risky", RunOptions{})
		require.NoError(t, err)
		assert.Equal(t, StateCancelled, out.State)
		assert.Equal(t, []string{"Are you sure you want to run this script?"}, te.confirmer.prompts)
		assert.Equal(t, [][]string{{"mkfs"}}, te.presenter.warnings)
		assert.Empty(t, te.presenter.previews)
		assert.Empty(t, te.records(t))

		s, err := te.backend.LoadByName(ctx, "risky")
		require.NoError(t, err)
		assert.Zero(t, s.Metadata.UseCount)
	})

	t.Run("accepted then confirmed", func(t *testing.T) {
		te := setupEngine(t, true, true, true)
		te.save(t, "risky", content, script.LanguageShell)

		out, err := te.Run(context.Background(), "risky", RunOptions{})
		require.NoError(t, err)
		assert.Equal(t, StateRecorded, out.State)
		assert.Len(t, te.confirmer.prompts, 2)
	})

	t.Run("unattended skips confirmation", func(t *testing.T) {
		te := setupEngine(t, true)
		te.save(t, "risky", content, script.LanguageShell)

		out, err := te.Run(context.Background(), "risky", RunOptions{Unattended: true})
		require.NoError(t, err)
		assert.Equal(t, StateRecorded, out.State)
		assert.Empty(t, te.confirmer.prompts)
		assert.Len(t, te.presenter.warnings, 1)
	})
}

func TestEngine_FinalConfirmation(t *testing.T) {
	t.Run("declined", func(t *testing.T) {
		te := setupEngine(t, true, false)
		te.save(t, "safe", "echo hi", script.LanguageShell)

		out, err := te.Run(context.Background(), "safe", RunOptions{})
		require.NoError(t, err)
		assert.Equal(t, StateCancelled, out.State)
		assert.Equal(t, []string{"Run this script?"}, te.confirmer.prompts)
		assert.Len(t, te.presenter.previews, 1)
		assert.Empty(t, te.records(t))
	})

	t.Run("disabled by config", func(t *testing.T) {
		requireShell(t)
		te := setupEngine(t, false)
		te.save(t, "safe", "echo hi", script.LanguageShell)

		out, err := te.Run(context.Background(), "safe", RunOptions{})
		require.NoError(t, err)
		assert.Equal(t, StateRecorded, out.State)
		assert.Empty(t, te.confirmer.prompts)
	})
}

func TestEngine_DryRun(t *testing.T) {
	ctx := context.Background()
	te := setupEngine(t, true)
	te.save(t, "dry", "rm -rf /", script.LanguageShell)

	out, err := te.Run(ctx, "dry", RunOptions{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, StateDryRunStopped, out.State)
	assert.Nil(t, out.Record)
	assert.Empty(t, te.confirmer.prompts)
	assert.Len(t, te.presenter.warnings, 1)
	assert.Len(t, te.presenter.previews, 1)
	assert.Empty(t, te.records(t))

	stored, err := te.backend.LoadByName(ctx, "dry")
	require.NoError(t, err)
	assert.Zero(t, stored.Metadata.UseCount)
	assert.Empty(t, scratchEntries(t, te.scratch))
}

func TestEngine_MissingInterpreter(t *testing.T) {
	if _, err := exec.LookPath("powershell"); err == nil {
		t.Skip("powershell is installed")
	}
	ctx := context.Background()
	te := setupEngine(t, false)
	te.save(t, "win", "Write-Output hi", script.LanguagePowerShell)

	out, err := te.Run(ctx, "win", RunOptions{Unattended: true})
	assert.Nil(t, out)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProcess)

	var procErr *ProcessError
	require.True(t, errors.As(err, &procErr))
	assert.Equal(t, "powershell", procErr.Interpreter)

	assert.Empty(t, te.records(t))
	s, err := te.backend.LoadByName(ctx, "win")
	require.NoError(t, err)
	assert.Zero(t, s.Metadata.UseCount)
}

func TestNewPreview(t *testing.T) {
	s := script.New("p", "echo", script.LanguageBash)
	s.Context.Directory = "/srv"

	p := NewPreview(s)
	assert.Equal(t, "p", p.Name)
	assert.Equal(t, "/srv", p.Directory)
	assert.Zero(t, p.SuccessRate)

	s.Metadata.UseCount = 10
	s.Metadata.SuccessCount = 8
	s.Metadata.FailureCount = 2
	assert.InDelta(t, 80.0, NewPreview(s).SuccessRate, 0.001)
}
