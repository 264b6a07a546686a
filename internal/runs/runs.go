// Package runs records one history row per report run in the report_runs table.
package runs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/records"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/warehouse"
)

// Run is the outcome of one driver execution for one environment
type Run struct {
	ID               uuid.UUID
	ReportType       string
	Env              string
	StartedAt        time.Time
	FinishedAt       time.Time
	ObjectsProcessed int
	ObjectsSkipped   int
	RowsWritten      map[records.Kind]int
	DryRun           bool
	Success          bool
	Error            string
}

// NewRun starts a run with a fresh id
func NewRun(reportType, env string, dryRun bool) *Run {
	return &Run{
		ID:          uuid.New(),
		ReportType:  reportType,
		Env:         env,
		StartedAt:   time.Now(),
		RowsWritten: map[records.Kind]int{},
		DryRun:      dryRun,
	}
}

// Finish stamps the end time and outcome
func (r *Run) Finish(err error) {
	r.FinishedAt = time.Now()
	r.Success = err == nil
	if err != nil {
		r.Error = err.Error()
	}
}

// Duration is the wall time of a finished run
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Recorder persists runs
type Recorder interface {
	Record(ctx context.Context, run *Run) error
}

// DBRecorder writes runs into report_runs
type DBRecorder struct {
	db warehouse.DB
}

var _ Recorder = (*DBRecorder)(nil)

// NewDBRecorder creates a DBRecorder
func NewDBRecorder(db warehouse.DB) *DBRecorder {
	return &DBRecorder{db: db}
}

// Record inserts or updates the row of run
func (r *DBRecorder) Record(ctx context.Context, run *Run) error {
	written, err := json.Marshal(run.RowsWritten)
	if err != nil {
		return fmt.Errorf("failed to encode rows written: %w", err)
	}

	var finished *time.Time
	if !run.FinishedAt.IsZero() {
		finished = &run.FinishedAt
	}
	var message *string
	if run.Error != "" {
		message = &run.Error
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO report_runs (run_id, report_type, env, started_at, finished_at,
			objects_processed, objects_skipped, rows_written, dry_run, success, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (run_id) DO UPDATE SET
			finished_at = EXCLUDED.finished_at,
			objects_processed = EXCLUDED.objects_processed,
			objects_skipped = EXCLUDED.objects_skipped,
			rows_written = EXCLUDED.rows_written,
			success = EXCLUDED.success,
			error_message = EXCLUDED.error_message`,
		run.ID, run.ReportType, run.Env, run.StartedAt, finished,
		run.ObjectsProcessed, run.ObjectsSkipped, string(written), run.DryRun, run.Success, message)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.ID, err)
	}
	return nil
}

// NopRecorder discards runs
type NopRecorder struct{}

// Record implements Recorder
func (NopRecorder) Record(context.Context, *Run) error {
	return nil
}

// RecordQuietly records run and logs a failure instead of returning it
func RecordQuietly(ctx context.Context, recorder Recorder, run *Run) {
	if recorder == nil {
		return
	}
	if err := recorder.Record(ctx, run); err != nil {
		slog.Warn("Failed to record run history", "run_id", run.ID.String(), "error", err)
	}
}
