package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/arcgis"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/config"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/extract"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/otel"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/records"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/runs"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/telemetry"
)

// ServiceLayerDriver harvests the datasets behind every map service of one ArcGIS server
type ServiceLayerDriver struct {
	pipeline *Pipeline
	client   arcgis.Client
	env      config.EnvironmentConfig
	skip     []string
}

// NewServiceLayerDriver creates a driver for the ArcGIS server of env
func NewServiceLayerDriver(
	pipeline *Pipeline, client arcgis.Client, env config.EnvironmentConfig, skip []string,
) *ServiceLayerDriver {
	return &ServiceLayerDriver{pipeline: pipeline, client: client, env: env, skip: skip}
}

// Run harvests and reconciles the service_layer partition of opts.Env.
// Only authentication and listing failures abort the run; a service whose
// manifest cannot be fetched or parsed is skipped.
func (d *ServiceLayerDriver) Run(ctx context.Context, opts Options) (*runs.Run, error) {
	run := runs.NewRun(TypeServiceLayers, opts.Env, opts.DryRun)
	logger := slog.With("run_id", run.ID.String(), "env", opts.Env)

	ctx, span := otel.StartSpan(ctx, d.pipeline.Tracer, "report.ServiceLayers",
		trace.WithAttributes(
			otel.AttrReportType.String(TypeServiceLayers),
			otel.AttrEnvironment.String(opts.Env),
			otel.AttrRunID.String(run.ID.String()),
			otel.AttrDryRun.Bool(opts.DryRun),
		))
	defer span.End()

	if d.env.AGSHost == "" {
		logger.Warn("No ArcGIS server host configured for environment, nothing to harvest")
		d.pipeline.finish(ctx, run, nil)
		return run, nil
	}

	err := d.harvest(ctx, logger, run, opts)
	otel.RecordError(span, err)
	d.pipeline.finish(ctx, run, err)
	return run, err
}

func (d *ServiceLayerDriver) harvest(ctx context.Context, logger *slog.Logger, run *runs.Run, opts Options) error {
	logger.Info("Working on environment", "host", d.env.AGSHost)

	token, err := d.client.GenerateToken(ctx)
	if err != nil {
		return err
	}

	services, err := d.client.ListServices(ctx, token, arcgis.Filter{Type: arcgis.MapServerType, Skip: d.skip})
	if err != nil {
		return fmt.Errorf("failed to list services: %w", err)
	}

	date := records.ReferenceDate(d.pipeline.now())
	batch := records.NewBatch(records.KindServiceLayer, opts.Env, date)

	for _, svc := range services {
		if opts.Limit > 0 && run.ObjectsProcessed >= opts.Limit {
			logger.Warn("Service limit reached", "limit", opts.Limit)
			break
		}
		run.ObjectsProcessed++

		recs, reason := d.service(ctx, logger, token, svc, opts.Env, date)
		if reason != "" {
			d.pipeline.Metrics.RecordSkipped(ctx, opts.Env, reason)
			if reason != telemetry.SkipReasonNoDatasets {
				run.ObjectsSkipped++
			}
		}
		batch.Add(recs...)
	}

	logger.Info("Service layer items collected", "count", batch.Len())
	d.pipeline.Metrics.RecordRecords(ctx, opts.Env, string(batch.Kind), batch.Len())

	return d.pipeline.persist(ctx, run, opts, batch)
}

// service extracts the records of one service. A non-empty reason explains why
// it contributed nothing.
func (d *ServiceLayerDriver) service(
	ctx context.Context, logger *slog.Logger, token string, svc arcgis.Service, env string, date time.Time,
) ([]records.Record, string) {
	logger = logger.With("service", svc.Name, "folder", svc.Folder)
	logger.Info("Working on service")

	ctx, span := otel.StartSpan(ctx, d.pipeline.Tracer, "report.ServiceLayers.service",
		trace.WithAttributes(otel.AttrServiceName.String(svc.Name)))
	defer span.End()

	data, err := d.client.FetchManifest(ctx, token, svc)
	if err != nil {
		otel.RecordError(span, err)
		logger.Warn("Unable to retrieve service manifest, skipping service", "error", err)
		return nil, telemetry.SkipReasonFetch
	}

	manifest, err := extract.ParseManifest(data)
	if err != nil {
		otel.RecordError(span, err)
		logger.Warn("Unable to parse service manifest, skipping service", "error", err)
		return nil, telemetry.SkipReasonDecode
	}

	recs := extract.ServiceLayers(extract.Service{Name: svc.Name, Folder: svc.Folder}, manifest, env, date)
	span.SetAttributes(otel.AttrRecordCount.Int(len(recs)))
	if len(recs) == 0 {
		logger.Warn("No datasets found")
		return nil, telemetry.SkipReasonNoDatasets
	}
	return recs, ""
}
