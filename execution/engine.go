package execution

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/hairizuan-noorazman/scriptvault/history"
	"github.com/hairizuan-noorazman/scriptvault/internal/uuidutil"
	"github.com/hairizuan-noorazman/scriptvault/logger"
	"github.com/hairizuan-noorazman/scriptvault/script"
	"github.com/hairizuan-noorazman/scriptvault/storage"
)

// ErrProcess is matched by every ProcessError.
var ErrProcess = errors.New("external process failure")

// unknownExitCode replaces the missing exit code of a process killed by a signal.
const unknownExitCode = 1

// ProcessError is returned when the interpreter cannot be started.
type ProcessError struct {
	Interpreter string
	Err         error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("failed to launch %s: %v", e.Interpreter, e.Err)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrProcess) true for any ProcessError.
func (e *ProcessError) Is(target error) bool {
	return target == ErrProcess
}

// State is a step of a single run.
type State string

const (
	StateLoaded        State = "loaded"
	StateSafetyChecked State = "safety_checked"
	StatePreviewShown  State = "preview_shown"
	StateConfirmed     State = "confirmed"
	StateDryRunStopped State = "dry_run_stopped"
	StateCancelled     State = "cancelled"
	StateExecuting     State = "executing"
	StateRecorded      State = "recorded"
)

// Detector produces the provenance snapshot recorded with each run.
type Detector interface {
	Detect(ctx context.Context) (script.ContextSnapshot, error)
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string, defaultYes bool) (bool, error)
}

// Config holds the engine settings taken from the loaded configuration.
type Config struct {
	// ScratchDir is the parent of the per-run directories the script is materialized in.
	ScratchDir string

	// ConfirmBeforeRun asks for a final confirmation before every interactive run.
	ConfirmBeforeRun bool

	// Executor is the identity recorded on each run.
	Executor string
}

// RunOptions are the per-invocation switches of Run.
type RunOptions struct {
	// Args are passed to the script after its path.
	Args []string

	// DryRun stops after the preview without executing or recording anything.
	DryRun bool

	// Unattended suppresses every confirmation, as in CI.
	Unattended bool
}

// Outcome describes how a run ended. Record and Duration are set only in StateRecorded.
type Outcome struct {
	State    State
	Script   *script.Script
	Record   *script.ExecutionRecord
	Duration time.Duration
}

// Engine runs cataloged scripts and records their outcome.
type Engine struct {
	cfg       Config
	backend   storage.Backend
	history   *history.Log
	detector  Detector
	confirmer Confirmer
	presenter Presenter
	logger    logger.Logger

	now   func() time.Time
	newID func() string
}

// NewEngine creates an engine. The backend is used both to load scripts and to persist their metrics.
func NewEngine(cfg Config, backend storage.Backend, hist *history.Log, detector Detector, confirmer Confirmer, presenter Presenter, log logger.Logger) *Engine {
	if cfg.ScratchDir == "" {
		cfg.ScratchDir = filepath.Join(os.TempDir(), "scriptvault")
	}
	if cfg.Executor == "" {
		cfg.Executor = script.DefaultAuthor
	}

	return &Engine{
		cfg:       cfg,
		backend:   backend,
		history:   hist,
		detector:  detector,
		confirmer: confirmer,
		presenter: presenter,
		logger:    log,
		now:       time.Now,
		newID:     uuidutil.NewString,
	}
}

// Run executes the script called name.
//
// Declined confirmations and dry runs end in StateCancelled and StateDryRunStopped with a nil
// error and no side effects. A missing script returns storage.ErrScriptNotFound and a
// failure to start the interpreter returns a *ProcessError; in both cases nothing is recorded.
func (e *Engine) Run(ctx context.Context, name string, opts RunOptions) (*Outcome, error) {
	s, err := e.backend.LoadByName(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrScriptNotFound) {
			return nil, fmt.Errorf("%w: %s", storage.ErrScriptNotFound, name)
		}
		return nil, err
	}
	out := &Outcome{State: StateLoaded, Script: s}
	interactive := !opts.Unattended && !opts.DryRun

	if matches := s.DangerousMatches(); len(matches) > 0 {
		e.presenter.Warn(s, matches)
		e.logger.Warn(ctx, "dangerous script requested", map[string]interface{}{
			"script_id":   s.ID,
			"script_name": s.Name,
			"patterns":    matches,
		})

		if interactive {
			ok, err := e.confirmer.Confirm(ctx, "Are you sure you want to run this script?", false)
			if err != nil {
				return nil, err
			}
			if !ok {
				return e.finish(out, StateCancelled), nil
			}
		}
	}
	out.State = StateSafetyChecked

	e.presenter.Preview(NewPreview(s))
	out.State = StatePreviewShown

	if e.cfg.ConfirmBeforeRun && interactive {
		ok, err := e.confirmer.Confirm(ctx, "Run this script?", true)
		if err != nil {
			return nil, err
		}
		if !ok {
			return e.finish(out, StateCancelled), nil
		}
	}

	if opts.DryRun {
		return e.finish(out, StateDryRunStopped), nil
	}
	out.State = StateConfirmed

	res, err := e.execute(ctx, s, opts.Args)
	if err != nil {
		e.logger.Error(ctx, "failed to execute script", map[string]interface{}{
			"error":       err.Error(),
			"script_id":   s.ID,
			"script_name": s.Name,
		})
		return nil, err
	}
	e.presenter.Output(res.stdout, res.stderr)

	rec, err := e.record(ctx, s, res)
	if err != nil {
		return nil, err
	}

	out.Record = rec
	out.Duration = res.duration
	return e.finish(out, StateRecorded), nil
}

func (e *Engine) finish(out *Outcome, state State) *Outcome {
	out.State = state
	e.presenter.Result(out)
	return out
}

type processResult struct {
	executionID string
	exitCode    int
	stdout      string
	stderr      string
	duration    time.Duration
}

// execute materializes the script in a scratch directory unique to this run, invokes the
// interpreter and captures both streams until the process exits.
func (e *Engine) execute(ctx context.Context, s *script.Script, args []string) (*processResult, error) {
	execID := e.newID()
	dir := filepath.Join(e.cfg.ScratchDir, execID)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			e.logger.Debug(ctx, "failed to remove scratch directory", map[string]interface{}{
				"error": err.Error(),
				"path":  dir,
			})
		}
	}()

	path := filepath.Join(dir, s.Name+"."+s.Language.Extension())
	if err := os.WriteFile(path, []byte(s.Content), 0o700); err != nil {
		return nil, fmt.Errorf("failed to write scratch file: %w", err)
	}
	if runtime.GOOS != "windows" {
		if err := os.Chmod(path, 0o755); err != nil {
			return nil, fmt.Errorf("failed to mark scratch file executable: %w", err)
		}
	}

	interpreter, prefix := s.Language.Interpreter()
	argv := append(append(append([]string{}, prefix...), path), args...)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, interpreter, argv...)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.logger.Info(ctx, "executing script", map[string]interface{}{
		"script_id":    s.ID,
		"script_name":  s.Name,
		"execution_id": execID,
		"interpreter":  interpreter,
	})

	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start)

	exitCode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return nil, &ProcessError{Interpreter: interpreter, Err: runErr}
		}
		exitCode = exitErr.ExitCode()
		if exitCode < 0 {
			exitCode = unknownExitCode
		}
	}

	return &processResult{
		executionID: execID,
		exitCode:    exitCode,
		stdout:      stdout.String(),
		stderr:      stderr.String(),
		duration:    duration,
	}, nil
}

// record appends the execution record to history and folds the run into the script's metrics.
func (e *Engine) record(ctx context.Context, s *script.Script, res *processResult) (*script.ExecutionRecord, error) {
	snap, err := e.detector.Detect(ctx)
	if err != nil {
		e.logger.Warn(ctx, "failed to detect execution context", map[string]interface{}{
			"error": err.Error(),
		})
		snap = script.ContextSnapshot{Environment: map[string]string{}}
	}

	rec := &script.ExecutionRecord{
		ID:            res.executionID,
		ScriptID:      s.ID,
		ScriptVersion: s.Version,
		ExecutedBy:    e.cfg.Executor,
		ExecutedAt:    e.now().UTC(),
		ExitCode:      res.exitCode,
		DurationMS:    uint64(res.duration.Milliseconds()),
		Output:        res.stdout,
		Error:         res.stderr,
		Context:       snap,
	}

	if err := e.history.Append(ctx, rec); err != nil {
		return nil, err
	}

	s.RecordRun(rec.ExitCode, rec.DurationMS, rec.ExecutedAt, rec.ExecutedBy)
	if err := e.backend.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to update script metrics: %w", err)
	}

	e.logger.Info(ctx, "execution recorded", map[string]interface{}{
		"script_id":    s.ID,
		"execution_id": rec.ID,
		"exit_code":    rec.ExitCode,
		"duration_ms":  rec.DurationMS,
	})

	return rec, nil
}

// History returns past runs matching q. See HistoryService.Query.
func (e *Engine) History(ctx context.Context, q HistoryQuery) ([]HistoryEntry, error) {
	return NewHistoryService(e.backend, e.history).Query(ctx, q)
}
