package database

import (
	"context"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, cleanupFunc := SetupTestDBContainer(t, ctx)
	t.Cleanup(cleanupFunc)

	connString := db.Config().ConnString()

	// the container helper already applied everything; start from scratch
	require.NoError(t, MigrateDown(connString, 0))

	m, err := NewFromConnectionString(connString)
	require.NoError(t, err)
	defer func() { _, _ = m.Close() }()

	fnames, err := fs.Glob(migrationsFS, "migrations/*.up.sql")
	require.NoError(t, err)
	require.NotEmpty(t, fnames)

	for i := 1; i <= len(fnames); i++ {
		assert.NoError(t, m.Steps(i))
		assert.NoError(t, m.Steps(-i))
		assert.NoError(t, m.Steps(i))
		assert.NoError(t, m.Steps(-i))
	}

	version, err := MigrateUp(connString)
	require.NoError(t, err)
	assert.Equal(t, uint(len(fnames)), version)

	var exists bool
	require.NoError(t, db.QueryRow(ctx, "SELECT to_regclass('public.report_runs') IS NOT NULL").Scan(&exists))
	assert.True(t, exists)
}

func TestMigrationFiles_Paired(t *testing.T) {
	t.Parallel()

	ups, err := fs.Glob(migrationsFS, "migrations/*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(migrationsFS, "migrations/*.down.sql")
	require.NoError(t, err)
	assert.Equal(t, len(ups), len(downs))
}
