package storage

import (
	"context"
	"testing"

	"github.com/hairizuan-noorazman/scriptvault/logger"
	"github.com/hairizuan-noorazman/scriptvault/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLBackend_MigrationsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)

	first, err := NewSQLBackend(ctx, db, KindSQLite, logger.NewTestLogger())
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, testutil.NewScript("persisted", "echo")))

	second, err := NewSQLBackend(ctx, db, KindSQLite, logger.NewTestLogger())
	require.NoError(t, err)

	s, err := second.LoadByName(ctx, "persisted")
	require.NoError(t, err)
	assert.Equal(t, "echo", s.Content)
	assert.True(t, second.HealthCheck(ctx))
}

func TestSQLBackend_ListOrderedByName(t *testing.T) {
	ctx := context.Background()
	b := setupSQLBackend(t)

	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, b.Save(ctx, testutil.NewScript(name, "echo "+name)))
	}

	all, err := b.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "alpha", all[0].Name)
	assert.Equal(t, "mid", all[1].Name)
	assert.Equal(t, "zeta", all[2].Name)
}

func TestSQLBackend_HealthCheckAfterClose(t *testing.T) {
	ctx := context.Background()
	b := setupSQLBackend(t)

	require.NoError(t, b.Close())
	assert.False(t, b.HealthCheck(ctx))
}

func TestOpenSQLBackend_RejectsNonSQLKind(t *testing.T) {
	_, err := OpenSQLBackend(context.Background(), KindLocal, "x", logger.NewTestLogger())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
