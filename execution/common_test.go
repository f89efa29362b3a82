package execution

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/hairizuan-noorazman/scriptvault/history"
	"github.com/hairizuan-noorazman/scriptvault/logger"
	"github.com/hairizuan-noorazman/scriptvault/script"
	"github.com/hairizuan-noorazman/scriptvault/storage"
	"github.com/stretchr/testify/require"
)

type fixedDetector struct {
	snap script.ContextSnapshot
}

func (d fixedDetector) Detect(ctx context.Context) (script.ContextSnapshot, error) {
	return d.snap, nil
}

// scriptedConfirmer answers prompts in order and records them.
type scriptedConfirmer struct {
	answers []bool
	prompts []string
}

func (c *scriptedConfirmer) Confirm(ctx context.Context, prompt string, defaultYes bool) (bool, error) {
	c.prompts = append(c.prompts, prompt)
	if len(c.answers) == 0 {
		return defaultYes, nil
	}
	answer := c.answers[0]
	c.answers = c.answers[1:]
	return answer, nil
}

// recordingPresenter keeps every event it receives.
type recordingPresenter struct {
	warnings [][]string
	previews []Preview
	stdout   string
	stderr   string
	results  []*Outcome
}

func (p *recordingPresenter) Warn(s *script.Script, patterns []string) {
	p.warnings = append(p.warnings, patterns)
}

func (p *recordingPresenter) Preview(pv Preview) { p.previews = append(p.previews, pv) }

func (p *recordingPresenter) Output(stdout, stderr string) {
	p.stdout += stdout
	p.stderr += stderr
}

func (p *recordingPresenter) Result(o *Outcome) { p.results = append(p.results, o) }

type testEngine struct {
	*Engine
	backend   *storage.LocalBackend
	history   *history.Log
	confirmer *scriptedConfirmer
	presenter *recordingPresenter
	scratch   string
}

func setupEngine(t *testing.T, confirmBeforeRun bool, answers ...bool) *testEngine {
	t.Helper()

	dir := t.TempDir()
	log := logger.NewTestLogger()

	backend, err := storage.NewLocalBackend(filepath.Join(dir, "vault"), log)
	require.NoError(t, err)

	hist := history.NewLog(filepath.Join(dir, "history.jsonl"), log)
	confirmer := &scriptedConfirmer{answers: answers}
	presenter := &recordingPresenter{}
	scratch := filepath.Join(dir, "scratch")

	engine := NewEngine(Config{
		ScratchDir:       scratch,
		ConfirmBeforeRun: confirmBeforeRun,
		Executor:         "tester",
	}, backend, hist, fixedDetector{snap: script.ContextSnapshot{
		Directory:   "/work",
		Environment: map[string]string{"USER": "tester"},
	}}, confirmer, presenter, log)

	return &testEngine{
		Engine:    engine,
		backend:   backend,
		history:   hist,
		confirmer: confirmer,
		presenter: presenter,
		scratch:   scratch,
	}
}

func (te *testEngine) save(t *testing.T, name, content string, lang script.Language) *script.Script {
	t.Helper()
	s := script.New(name, content, lang)
	require.NoError(t, te.backend.Save(context.Background(), s))
	return s
}

func (te *testEngine) records(t *testing.T) []*script.ExecutionRecord {
	t.Helper()
	all, err := te.history.All(context.Background())
	require.NoError(t, err)
	return all
}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func scratchEntries(t *testing.T, dir string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return entries
}
