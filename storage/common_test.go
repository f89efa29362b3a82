package storage

import (
	"context"
	"testing"

	"github.com/hairizuan-noorazman/scriptvault/logger"
	"github.com/hairizuan-noorazman/scriptvault/testutil"
	"github.com/stretchr/testify/require"
)

// setupLocalBackend creates a local backend in a temporary vault directory.
func setupLocalBackend(t *testing.T) *LocalBackend {
	t.Helper()

	b, err := NewLocalBackend(t.TempDir(), logger.NewTestLogger())
	require.NoError(t, err)
	return b
}

// setupSQLBackend creates a migrated sqlite backend.
func setupSQLBackend(t *testing.T) *SQLBackend {
	t.Helper()

	db := testutil.SetupTestDB(t)
	b, err := NewSQLBackend(context.Background(), db, KindSQLite, logger.NewTestLogger())
	require.NoError(t, err)
	return b
}

// backends returns one instance of every implemented backend, keyed by type.
func backends(t *testing.T) map[string]Backend {
	return map[string]Backend{
		"local":  setupLocalBackend(t),
		"sqlite": setupSQLBackend(t),
	}
}
