package warehouse_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vodafone-NRW-GIS/ma-ags-reports/database"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/records"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/warehouse"
)

func TestManager_EnsureAndLatestPartition(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pool, cleanup := database.SetupTestDBContainer(t, ctx)
	t.Cleanup(cleanup)

	_, err := pool.Exec(ctx, "CREATE SCHEMA reporting")
	require.NoError(t, err)

	table, err := warehouse.NewTable(records.KindBasemap, "reporting.mapapps_basemap_report")
	require.NoError(t, err)

	manager := warehouse.NewManager(pool)

	exists, err := manager.Exists(ctx, table)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, manager.Ensure(ctx, table))
	// a second Ensure is a no-op
	require.NoError(t, manager.Ensure(ctx, table))

	exists, err = manager.Exists(ctx, table)
	require.NoError(t, err)
	assert.True(t, exists)

	older := time.Date(2024, 5, 16, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC)
	for _, row := range []struct {
		appID string
		date  time.Time
	}{
		{"zeta", newer},
		{"alpha", newer},
		{"old", older},
	} {
		_, err := pool.Exec(ctx,
			`INSERT INTO reporting.mapapps_basemap_report (app_id, env, svc_id, reference_date) VALUES ($1, 'dev', 'b', $2)`,
			row.appID, row.date)
		require.NoError(t, err)
	}

	snapshot, err := warehouse.LatestPartition(ctx, pool, table.Name.String(), []string{"app_id", "no_such_column"})
	require.NoError(t, err)
	require.Len(t, snapshot.Rows, 2)
	assert.Equal(t, "alpha", snapshot.Rows[0]["app_id"])
	assert.Equal(t, "zeta", snapshot.Rows[1]["app_id"])
	assert.Equal(t, warehouse.KeyColumn, snapshot.Columns[0])

	require.NoError(t, manager.Recreate(ctx, table))
	snapshot, err = warehouse.LatestPartition(ctx, pool, table.Name.String(), nil)
	require.NoError(t, err)
	assert.Empty(t, snapshot.Rows)

	_, err = warehouse.LatestPartition(ctx, pool, "reporting.missing", nil)
	assert.Error(t, err)
}
