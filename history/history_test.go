package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hairizuan-noorazman/scriptvault/logger"
	"github.com/hairizuan-noorazman/scriptvault/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func record(id, scriptID string, exitCode int, minute int) *script.ExecutionRecord {
	return &script.ExecutionRecord{
		ID:            id,
		ScriptID:      scriptID,
		ScriptVersion: script.DefaultVersion,
		ExecutedBy:    "tester",
		ExecutedAt:    baseTime.Add(time.Duration(minute) * time.Minute),
		ExitCode:      exitCode,
		DurationMS:    10,
		Output:        "ok\n",
		Context:       script.ContextSnapshot{Directory: "/tmp", Environment: map[string]string{}},
	}
}

func setupLog(t *testing.T) (*Log, *logger.TestLogger) {
	t.Helper()
	log := logger.NewTestLogger()
	return NewLog(filepath.Join(t.TempDir(), "nested", "history.jsonl"), log), log
}

func TestLog_AppendAndAll(t *testing.T) {
	ctx := context.Background()
	l, _ := setupLog(t)

	all, err := l.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	require.NoError(t, l.Append(ctx, record("e1", "s1", 0, 0)))
	require.NoError(t, l.Append(ctx, record("e2", "s1", 1, 1)))

	all, err = l.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "e1", all[0].ID)
	assert.Equal(t, 1, all[1].ExitCode)

	data, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	assert.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], `{"id":"e1"`))
}

func TestLog_SkipsUnparseableLines(t *testing.T) {
	ctx := context.Background()
	l, log := setupLog(t)

	require.NoError(t, l.Append(ctx, record("e1", "s1", 0, 0)))

	f, err := os.OpenFile(l.Path(), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{truncated\n\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, l.Append(ctx, record("e2", "s1", 0, 1)))

	all, err := l.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "e2", all[1].ID)
	assert.Len(t, log.EntriesAt("warn"), 1)
}

func TestLog_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	l, _ := setupLog(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := record(fmt.Sprintf("e%d", i), "s1", 0, i)
			rec.Output = strings.Repeat("x", 4096)
			assert.NoError(t, l.Append(ctx, rec))
		}(i)
	}
	wg.Wait()

	all, err := l.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 50)
}

func TestFilter(t *testing.T) {
	var records []*script.ExecutionRecord
	for i := 0; i < 30; i++ {
		scriptID := "deploy"
		if i%3 == 0 {
			scriptID = "backup"
		}
		exit := 0
		if i%5 == 0 {
			exit = 2
		}
		records = append(records, record(fmt.Sprintf("e%02d", i), scriptID, exit, i))
	}

	tests := []struct {
		name      string
		query     Query
		wantLen   int
		wantFirst string
		check     func(t *testing.T, r *script.ExecutionRecord)
	}{
		{
			name:      "default cap is 20",
			query:     Query{},
			wantLen:   DefaultLimit,
			wantFirst: "e29",
		},
		{
			name:      "recent cap is 10",
			query:     Query{Limit: RecentLimit},
			wantLen:   RecentLimit,
			wantFirst: "e29",
		},
		{
			name:      "by script",
			query:     Query{ScriptID: "backup"},
			wantLen:   10,
			wantFirst: "e27",
			check: func(t *testing.T, r *script.ExecutionRecord) {
				assert.Equal(t, "backup", r.ScriptID)
			},
		},
		{
			name:      "failed only",
			query:     Query{FailedOnly: true},
			wantLen:   6,
			wantFirst: "e25",
			check: func(t *testing.T, r *script.ExecutionRecord) {
				assert.NotZero(t, r.ExitCode)
			},
		},
		{
			name:      "failed runs of one script",
			query:     Query{ScriptID: "backup", FailedOnly: true},
			wantLen:   2,
			wantFirst: "e15",
		},
		{
			name:    "unknown script",
			query:   Query{ScriptID: "nope"},
			wantLen: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(records, tt.query)
			require.Len(t, got, tt.wantLen)
			if tt.wantFirst != "" {
				assert.Equal(t, tt.wantFirst, got[0].ID)
			}
			for i := 1; i < len(got); i++ {
				assert.False(t, got[i].ExecutedAt.After(got[i-1].ExecutedAt))
			}
			if tt.check != nil {
				for _, r := range got {
					tt.check(t, r)
				}
			}
		})
	}
}
