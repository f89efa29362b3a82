package script

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	s := New("deploy", "echo one\necho two\n", LanguageBash)

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "deploy", s.Name)
	assert.Equal(t, DefaultVersion, s.Version)
	assert.Equal(t, VisibilityPrivate, s.Visibility)
	assert.Equal(t, uint64(18), s.Metadata.SizeBytes)
	assert.Equal(t, uint64(2), s.Metadata.LineCount)
	assert.Len(t, s.Metadata.Hash, 64)
	assert.Nil(t, s.Metadata.AvgRuntimeMS)
	assert.Zero(t, s.Metadata.UseCount)

	other := New("deploy", "echo one\necho two\n", LanguageBash)
	assert.NotEqual(t, s.ID, other.ID)
	assert.Equal(t, s.Metadata.Hash, other.Metadata.Hash)
}

func TestContentMetrics(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantSize  uint64
		wantLines uint64
	}{
		{"empty", "", 0, 0},
		{"single line without newline", "echo hi", 7, 1},
		{"single line with newline", "echo hi\n", 8, 1},
		{"two lines", "a\nb", 3, 2},
		{"blank line only", "\n", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, size, lines := ContentMetrics(tt.content)
			assert.Equal(t, tt.wantSize, size)
			assert.Equal(t, tt.wantLines, lines)
		})
	}
}

func TestScript_SuccessRate(t *testing.T) {
	tests := []struct {
		name    string
		success uint64
		failure uint64
		want    float64
	}{
		{"never run", 0, 0, 0},
		{"eight of ten", 8, 2, 80.0},
		{"all successful", 10, 0, 100.0},
		{"all failed", 0, 3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New("x", "true", LanguageShell)
			s.Metadata.SuccessCount = tt.success
			s.Metadata.FailureCount = tt.failure
			s.Metadata.UseCount = tt.success + tt.failure
			assert.InDelta(t, tt.want, s.SuccessRate(), 0.0001)
		})
	}
}

func TestScript_IsSafe(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"benign", "echo hello\nls -la\n", true},
		{"wipe root", "rm -rf /", false},
		{"wipe root glob", "rm -rf /*", false},
		{"mkfs", "mkfs /dev/sdb1", false},
		{"dd", "dd if=/dev/zero of=/tmp/x", false},
		{"device write", "echo x > /dev/sda", false},
		{"fork bomb", ":(){ :|:& };:", false},
		{"embedded in larger script", "#!/bin/bash\nset -e\nrm -rf /\n", false},
		{"case sensitive", "RM -RF /", true},
		{"recursive chown is advisory", "chown -R me ./build", true},
		{"open permissions are advisory", "chmod -R 777 /srv", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New("x", tt.content, LanguageBash)
			assert.Equal(t, tt.want, s.IsSafe())
		})
	}
}

func TestScript_DangerousMatches(t *testing.T) {
	s := New("x", "dd if=/dev/zero of=/dev/sda\nmkfs.ext4 /dev/sda1", LanguageBash)
	matches := s.DangerousMatches()
	assert.Contains(t, matches, "dd if=")
	assert.Contains(t, matches, "mkfs")
	assert.NotContains(t, matches, "mkfs.ext")
	assert.NotContains(t, matches, "rm -rf /")
}

func TestScript_CautionMatches(t *testing.T) {
	s := New("x", "chown -R me ./build\nmkfs.ext4 /dev/sda1", LanguageBash)
	assert.Equal(t, []string{"chown -R", "mkfs.ext"}, s.CautionMatches())
	assert.Equal(t, []string{"mkfs"}, s.DangerousMatches())

	assert.Empty(t, New("x", "echo hi", LanguageBash).CautionMatches())
}

func TestScript_RecordRun(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("first run sets the average to its duration", func(t *testing.T) {
		s := New("x", "true", LanguageShell)
		s.RecordRun(0, 120, at, "alice")

		require.NotNil(t, s.Metadata.AvgRuntimeMS)
		assert.Equal(t, uint64(120), *s.Metadata.AvgRuntimeMS)
		assert.Equal(t, uint64(1), s.Metadata.UseCount)
		assert.Equal(t, uint64(1), s.Metadata.SuccessCount)
		assert.Equal(t, "alice", s.Metadata.LastRunBy)
		assert.Equal(t, at, *s.Metadata.LastRun)
	})

	t.Run("second run averages with integer division", func(t *testing.T) {
		s := New("x", "true", LanguageShell)
		s.RecordRun(0, 100, at, "alice")
		s.RecordRun(1, 51, at, "alice")

		assert.Equal(t, uint64(75), *s.Metadata.AvgRuntimeMS)
		assert.Equal(t, uint64(1), s.Metadata.FailureCount)
	})

	t.Run("use count equals success plus failure", func(t *testing.T) {
		s := New("x", "true", LanguageShell)
		for i, code := range []int{0, 2, 0, 0, 127} {
			s.RecordRun(code, uint64(10*(i+1)), at, "bob")
			assert.Equal(t, s.Metadata.UseCount, s.Metadata.SuccessCount+s.Metadata.FailureCount)
		}
		assert.Equal(t, uint64(5), s.Metadata.UseCount)
		assert.InDelta(t, 60.0, s.SuccessRate(), 0.0001)
	})

	t.Run("incremental mean drifts from exact mean", func(t *testing.T) {
		s := New("x", "true", LanguageShell)
		s.RecordRun(0, 1, at, "bob")
		s.RecordRun(0, 2, at, "bob") // (1*1+2)/2 = 1
		s.RecordRun(0, 2, at, "bob") // (1*2+2)/3 = 1
		assert.Equal(t, uint64(1), *s.Metadata.AvgRuntimeMS)
	})
}

func TestScript_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Script)
		wantErr error
	}{
		{"valid", func(s *Script) {}, nil},
		{"empty name", func(s *Script) { s.Name = "  " }, ErrInvalidName},
		{"slash in name", func(s *Script) { s.Name = "a/b" }, ErrInvalidName},
		{"bad visibility", func(s *Script) { s.Visibility = "Secret" }, ErrInvalidVisibility},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New("ok", "true", LanguageShell)
			tt.mutate(s)
			err := s.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestScript_Clone(t *testing.T) {
	s := New("x", "true", LanguageShell)
	s.Tags = []string{"a"}
	s.Context.Environment["USER"] = "alice"
	s.RecordRun(0, 10, time.Now(), "alice")

	c := s.Clone()
	c.Tags[0] = "b"
	c.Context.Environment["USER"] = "bob"
	*c.Metadata.AvgRuntimeMS = 99

	assert.Equal(t, "a", s.Tags[0])
	assert.Equal(t, "alice", s.Context.Environment["USER"])
	assert.Equal(t, uint64(10), *s.Metadata.AvgRuntimeMS)
}

func TestScript_JSONFieldNames(t *testing.T) {
	s := New("x", "true", LanguageShell)
	data, err := json.Marshal(s)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "Shell", raw["language"])
	assert.Equal(t, "Private", raw["visibility"])
	assert.Contains(t, raw, "created_at")

	meta := raw["metadata"].(map[string]interface{})
	assert.Contains(t, meta, "use_count")
	assert.NotContains(t, meta, "avg_runtime_ms")
}

func TestParseVisibility(t *testing.T) {
	v, err := ParseVisibility("TEAM")
	require.NoError(t, err)
	assert.Equal(t, VisibilityTeam, v)

	v, err = ParseVisibility("")
	require.NoError(t, err)
	assert.Equal(t, VisibilityPrivate, v)

	_, err = ParseVisibility("secret")
	assert.ErrorIs(t, err, ErrInvalidVisibility)
}
