package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/records"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/warehouse"
)

type execCall struct {
	sql  string
	args []any
}

type copyCall struct {
	table   pgx.Identifier
	columns []string
	rows    [][]any
}

// fakeTx records the statements of one transaction
type fakeTx struct {
	pgx.Tx
	execs      []execCall
	copies     []copyCall
	copyErr    error
	committed  bool
	rolledBack bool
}

func (tx *fakeTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	tx.execs = append(tx.execs, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag("DELETE 2"), nil
}

func (tx *fakeTx) CopyFrom(_ context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error) {
	if tx.copyErr != nil {
		return 0, tx.copyErr
	}
	call := copyCall{table: table, columns: columns}
	for src.Next() {
		values, err := src.Values()
		if err != nil {
			return 0, err
		}
		call.rows = append(call.rows, values)
	}
	tx.copies = append(tx.copies, call)
	return int64(len(call.rows)), nil
}

func (tx *fakeTx) Commit(context.Context) error {
	tx.committed = true
	return nil
}

func (tx *fakeTx) Rollback(context.Context) error {
	if tx.committed {
		return pgx.ErrTxClosed
	}
	tx.rolledBack = true
	return nil
}

type fakeDB struct {
	warehouse.DB
	txs     []*fakeTx
	copyErr error
}

func (db *fakeDB) Begin(context.Context) (pgx.Tx, error) {
	tx := &fakeTx{copyErr: db.copyErr}
	db.txs = append(db.txs, tx)
	return tx, nil
}

func basemapBatch(appIDs ...string) *records.Batch {
	batch := records.NewBatch(records.KindBasemap, "prod", testDate)
	for _, id := range appIDs {
		rec := records.New("prod", testDate)
		rec["app_id"] = id
		rec["svc_id"] = "topo"
		batch.Add(rec)
	}
	return batch
}

func basemapTable(t *testing.T) *warehouse.Table {
	t.Helper()
	table, err := warehouse.NewTable(records.KindBasemap, "reporting.mapapps_basemap_report")
	require.NoError(t, err)
	return table
}

func TestReplacePartition_DeletesThenCopies(t *testing.T) {
	t.Parallel()

	db := &fakeDB{}
	n, err := New(db).ReplacePartition(context.Background(), basemapTable(t), basemapBatch("a", "b"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, db.txs, 1)
	tx := db.txs[0]
	require.Len(t, tx.execs, 1)
	assert.Equal(t,
		`DELETE FROM "reporting"."mapapps_basemap_report" WHERE reference_date = $1 AND env = $2`,
		tx.execs[0].sql)
	assert.Equal(t, []any{testDate, "prod"}, tx.execs[0].args)

	require.Len(t, tx.copies, 1)
	assert.Equal(t, pgx.Identifier{"reporting", "mapapps_basemap_report"}, tx.copies[0].table)
	assert.Equal(t, []string{"app_id", "env", "svc_id", "reference_date"}, tx.copies[0].columns)
	assert.Len(t, tx.copies[0].rows, 2)
	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)
}

func TestReplacePartition_EmptyBatchOnlyDeletes(t *testing.T) {
	t.Parallel()

	db := &fakeDB{}
	n, err := New(db).ReplacePartition(context.Background(), basemapTable(t), basemapBatch())
	require.NoError(t, err)
	assert.Zero(t, n)

	require.Len(t, db.txs, 1)
	assert.Len(t, db.txs[0].execs, 1)
	assert.Empty(t, db.txs[0].copies)
	assert.True(t, db.txs[0].committed)
}

func TestReplacePartition_DryRun(t *testing.T) {
	t.Parallel()

	db := &fakeDB{}
	n, err := New(db, WithDryRun(true)).ReplacePartition(context.Background(), basemapTable(t), basemapBatch("a", "b", "c"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Empty(t, db.txs, "dry run must not open a transaction")
}

func TestReplacePartition_CopyFailureRollsBack(t *testing.T) {
	t.Parallel()

	db := &fakeDB{copyErr: errors.New("connection reset")}
	_, err := New(db).ReplacePartition(context.Background(), basemapTable(t), basemapBatch("a"))
	require.Error(t, err)

	var tableErr *warehouse.TableError
	require.ErrorAs(t, err, &tableErr)
	assert.Equal(t, "replace", tableErr.Op)
	assert.Equal(t, "reporting.mapapps_basemap_report", tableErr.Table)

	require.Len(t, db.txs, 1)
	assert.False(t, db.txs[0].committed)
	assert.True(t, db.txs[0].rolledBack)
}

func TestReplacePartition_UnknownColumn(t *testing.T) {
	t.Parallel()

	batch := basemapBatch("a")
	batch.Records[0]["valid"] = true

	db := &fakeDB{}
	_, err := New(db).ReplacePartition(context.Background(), basemapTable(t), batch)

	var tableErr *warehouse.TableError
	require.ErrorAs(t, err, &tableErr)
	assert.Equal(t, "normalize", tableErr.Op)
	assert.Empty(t, db.txs)
}
