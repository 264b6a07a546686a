// Package report runs the harvesting pipelines: it drives the source clients,
// feeds the documents through the extractors and reconciles the resulting
// batches into the reporting tables.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/config"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/otel"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/reconcile"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/records"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/runs"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/telemetry"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/warehouse"
)

// Report types accepted on the command line.
const (
	TypeServiceLayers = "service_layers"
	TypeApplications  = "applications"
	TypeAll           = "all"
)

var typeAliases = map[string]string{
	"ags_service_layers": TypeServiceLayers,
	"mapapps_maps":       TypeApplications,
}

// ResolveTypes expands a report selector into the report types to run, in run order.
func ResolveTypes(name string) ([]string, error) {
	if alias, ok := typeAliases[name]; ok {
		name = alias
	}
	switch name {
	case TypeServiceLayers, TypeApplications:
		return []string{name}, nil
	case TypeAll:
		return []string{TypeServiceLayers, TypeApplications}, nil
	default:
		return nil, fmt.Errorf("unknown report %q, expected one of %s, %s, %s", name,
			TypeServiceLayers, TypeApplications, TypeAll)
	}
}

// Options controls one driver run
type Options struct {
	// Env is the query environment
	Env string

	// DryRun harvests but leaves the database untouched
	DryRun bool

	// Initial drops and recreates the target tables
	Initial bool

	// Limit caps the number of processed objects when positive
	Limit int
}

// Pipeline holds the collaborators shared by the drivers
type Pipeline struct {
	Tables     config.TablesConfig
	Schema     warehouse.SchemaManager
	Reconciler reconcile.Reconciler
	Recorder   runs.Recorder
	Metrics    *telemetry.RunMetrics
	Tracer     trace.Tracer

	// Out receives the dry-run summary; nil discards it
	Out io.Writer

	// Now defaults to time.Now
	Now func() time.Time
}

func (p *Pipeline) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

// TableName returns the configured target table of kind
func TableName(tables config.TablesConfig, kind records.Kind) string {
	tables = tables.WithDefaults()
	switch kind {
	case records.KindServiceLayer:
		return tables.ServiceLayers
	case records.KindMap:
		return tables.Maps
	case records.KindSearchStore:
		return tables.SearchStores
	case records.KindBasemap:
		return tables.Basemaps
	case records.KindMapServiceReference:
		return tables.MapServices
	default:
		return ""
	}
}

// persist prepares the target table of every batch and replaces its partition.
// A failing table is logged and skipped; the others are still reconciled.
// Empty batches leave their partition untouched.
func (p *Pipeline) persist(ctx context.Context, run *runs.Run, opts Options, batches ...*records.Batch) error {
	var errs []error
	summary := make([]summaryRow, 0, len(batches))

	for _, batch := range batches {
		row, err := p.persistBatch(ctx, run, opts, batch)
		if row != nil {
			summary = append(summary, *row)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}

	if opts.DryRun && p.Out != nil {
		renderSummary(p.Out, run, summary)
	}
	return errors.Join(errs...)
}

// persistBatch reconciles one batch into its table. The summary row is nil
// when the target table could not be resolved.
func (p *Pipeline) persistBatch(ctx context.Context, run *runs.Run, opts Options, batch *records.Batch) (*summaryRow, error) {
	table, err := warehouse.NewTable(batch.Kind, TableName(p.Tables, batch.Kind))
	if err != nil {
		return nil, err
	}

	ctx, span := otel.StartSpan(ctx, p.Tracer, "report.Pipeline.persist",
		trace.WithAttributes(
			otel.AttrTable.String(table.Name.String()),
			otel.AttrRecordCount.Int(batch.Len()),
		))
	defer span.End()

	logger := slog.With("table", table.Name.String(), "kind", string(batch.Kind))
	row := &summaryRow{kind: batch.Kind, table: table.Name.String(), rows: batch.Len()}

	if !opts.DryRun {
		if err := p.prepare(ctx, table, opts.Initial); err != nil {
			logger.Error("Unable to prepare target table, skipping reconciliation", "error", err)
			p.Metrics.RecordSkipped(ctx, run.Env, telemetry.SkipReasonTableFailure)
			otel.RecordError(span, err)
			return row, err
		}
	}

	if batch.Empty() {
		logger.Info("No records collected, partition left unchanged")
		return row, nil
	}

	n, err := p.Reconciler.ReplacePartition(ctx, table, batch)
	if err != nil {
		logger.Error("Unable to replace partition", "error", err)
		p.Metrics.RecordSkipped(ctx, run.Env, telemetry.SkipReasonTableFailure)
		otel.RecordError(span, err)
		return row, err
	}
	if !opts.DryRun {
		run.RowsWritten[batch.Kind] = n
	}
	return row, nil
}

func (p *Pipeline) prepare(ctx context.Context, table *warehouse.Table, initial bool) error {
	if initial {
		return p.Schema.Recreate(ctx, table)
	}
	return p.Schema.Ensure(ctx, table)
}

// finish closes the run, records metrics and history and logs the duration
func (p *Pipeline) finish(ctx context.Context, run *runs.Run, err error) {
	run.Finish(err)
	p.Metrics.RecordRunDuration(ctx, run.ReportType, run.Env, run.Duration(), run.Success)
	if !run.DryRun {
		runs.RecordQuietly(ctx, p.Recorder, run)
	}

	logger := slog.With("run_id", run.ID.String(), "env", run.Env, "report", run.ReportType)
	if err != nil {
		logger.Error("Report run failed", "duration", FormatInterval(run.Duration()), "error", err)
		return
	}
	logger.Info("Information collection finished",
		"duration", FormatInterval(run.Duration()),
		"processed", run.ObjectsProcessed,
		"skipped", run.ObjectsSkipped)
}
