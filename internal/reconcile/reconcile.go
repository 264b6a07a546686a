// Package reconcile replaces the (reference_date, env) partition of a
// reporting table with a freshly harvested batch.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/records"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/warehouse"
)

//go:generate mockgen -destination=mocks/mock_reconciler.go -package=mocks -source=reconcile.go Reconciler

// Reconciler replaces one partition of a reporting table
type Reconciler interface {
	// ReplacePartition deletes the rows of the batch's reference date and
	// environment and inserts the batch. It returns the number of rows written,
	// or the number that would be written under dry run.
	ReplacePartition(ctx context.Context, t *warehouse.Table, batch *records.Batch) (int, error)
}

// Option configures a PartitionWriter
type Option func(*PartitionWriter)

// WithDryRun logs the would-be row count instead of writing
func WithDryRun(dryRun bool) Option {
	return func(w *PartitionWriter) {
		w.dryRun = dryRun
	}
}

// PartitionWriter implements Reconciler against PostgreSQL
type PartitionWriter struct {
	db     warehouse.DB
	dryRun bool
}

var _ Reconciler = (*PartitionWriter)(nil)

// New creates a PartitionWriter. The caller owns db.
func New(db warehouse.DB, opts ...Option) *PartitionWriter {
	w := &PartitionWriter{db: db}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// ReplacePartition implements Reconciler.ReplacePartition.
//
// The delete and the insert share one transaction, so a failed insert leaves
// the previous partition in place. Concurrent runs against the same partition
// are not supported.
func (w *PartitionWriter) ReplacePartition(ctx context.Context, t *warehouse.Table, batch *records.Batch) (int, error) {
	rows, err := Normalize(t, batch.Records)
	if err != nil {
		return 0, &warehouse.TableError{Table: t.Name.String(), Op: "normalize", Err: err}
	}

	logger := slog.With("table", t.Name.String(), "env", batch.Env,
		"reference_date", batch.ReferenceDate.Format("2006-01-02"))

	if w.dryRun {
		logger.Info("Dry run, partition not replaced", "rows", rows.Len())
		return rows.Len(), nil
	}

	if err := w.replace(ctx, t, batch, rows); err != nil {
		return 0, &warehouse.TableError{Table: t.Name.String(), Op: "replace", Err: err}
	}

	logger.Info("Replaced partition", "rows", rows.Len())
	return rows.Len(), nil
}

func (w *PartitionWriter) replace(ctx context.Context, t *warehouse.Table, batch *records.Batch, rows *Rows) error {
	tx, err := w.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			slog.Warn("Rollback failed", "table", t.Name.String(), "error", rollbackErr)
		}
	}()

	deleted, err := tx.Exec(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE reference_date = $1 AND env = $2", t.Name.Sanitize()),
		batch.ReferenceDate, batch.Env)
	if err != nil {
		return fmt.Errorf("failed to delete partition: %w", err)
	}
	if deleted.RowsAffected() > 0 {
		slog.Debug("Deleted previous partition rows", "table", t.Name.String(), "rows", deleted.RowsAffected())
	}

	if rows.Len() > 0 {
		copyCount, err := tx.CopyFrom(ctx, t.Name.Identifier(), rows.Columns, pgx.CopyFromRows(rows.Values))
		if err != nil {
			return fmt.Errorf("failed to copy rows: %w", err)
		}
		if int(copyCount) != rows.Len() {
			return fmt.Errorf("copy count mismatch: expected %d, got %d", rows.Len(), copyCount)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
