package report

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/availability"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/extract"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/mapapps"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/otel"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/records"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/runs"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/telemetry"
)

// ApplicationDriver harvests the map.apps applications of one environment
type ApplicationDriver struct {
	pipeline *Pipeline
	source   mapapps.AppSource
	client   mapapps.Client
	checker  availability.Checker
	hosts    extract.HostResolver
	baseURL  string
}

// NewApplicationDriver creates a driver. baseURL is the map.apps base URL of
// the environment and hosts attributes service URLs to environments.
func NewApplicationDriver(
	pipeline *Pipeline,
	source mapapps.AppSource,
	client mapapps.Client,
	checker availability.Checker,
	hosts extract.HostResolver,
	baseURL string,
) *ApplicationDriver {
	return &ApplicationDriver{
		pipeline: pipeline,
		source:   source,
		client:   client,
		checker:  checker,
		hosts:    hosts,
		baseURL:  baseURL,
	}
}

// applicationBatches are the four parallel batches of one run
type applicationBatches struct {
	maps       *records.Batch
	stores     *records.Batch
	basemaps   *records.Batch
	references *records.Batch
}

func newApplicationBatches(env string, date time.Time) *applicationBatches {
	return &applicationBatches{
		maps:       records.NewBatch(records.KindMap, env, date),
		stores:     records.NewBatch(records.KindSearchStore, env, date),
		basemaps:   records.NewBatch(records.KindBasemap, env, date),
		references: records.NewBatch(records.KindMapServiceReference, env, date),
	}
}

func (b *applicationBatches) all() []*records.Batch {
	return []*records.Batch{b.maps, b.stores, b.basemaps, b.references}
}

// Run harvests every application of the source table and reconciles the map,
// search_store, basemap and map_service_reference partitions of opts.Env.
// An application whose app.json cannot be fetched or decoded is skipped.
func (d *ApplicationDriver) Run(ctx context.Context, opts Options) (*runs.Run, error) {
	run := runs.NewRun(TypeApplications, opts.Env, opts.DryRun)
	logger := slog.With("run_id", run.ID.String(), "env", opts.Env)

	ctx, span := otel.StartSpan(ctx, d.pipeline.Tracer, "report.Applications",
		trace.WithAttributes(
			otel.AttrReportType.String(TypeApplications),
			otel.AttrEnvironment.String(opts.Env),
			otel.AttrRunID.String(run.ID.String()),
			otel.AttrDryRun.Bool(opts.DryRun),
		))
	defer span.End()

	err := d.harvest(ctx, logger, run, opts)
	otel.RecordError(span, err)
	d.pipeline.finish(ctx, run, err)
	return run, err
}

func (d *ApplicationDriver) harvest(ctx context.Context, logger *slog.Logger, run *runs.Run, opts Options) error {
	logger.Info("Querying information about configured maps")

	if opts.Limit > 0 {
		logger.Warn("Limiting results", "limit", opts.Limit)
	}
	apps, err := d.source.ListApps(ctx, opts.Limit)
	if err != nil {
		return fmt.Errorf("failed to list applications: %w", err)
	}

	date := records.ReferenceDate(d.pipeline.now())
	batches := newApplicationBatches(opts.Env, date)

	for _, app := range apps {
		if opts.Limit > 0 && run.ObjectsProcessed >= opts.Limit {
			break
		}
		run.ObjectsProcessed++

		if reason := d.application(ctx, logger, app, opts.Env, date, batches); reason != "" {
			d.pipeline.Metrics.RecordSkipped(ctx, opts.Env, reason)
			run.ObjectsSkipped++
		}
	}

	for _, batch := range batches.all() {
		logger.Info("Items collected", "kind", string(batch.Kind), "count", batch.Len())
		d.pipeline.Metrics.RecordRecords(ctx, opts.Env, string(batch.Kind), batch.Len())
	}

	return d.pipeline.persist(ctx, run, opts, batches.all()...)
}

// application harvests one application into batches. A non-empty reason means
// the application was skipped.
func (d *ApplicationDriver) application(
	ctx context.Context,
	logger *slog.Logger,
	app mapapps.App,
	env string,
	date time.Time,
	batches *applicationBatches,
) string {
	logger = logger.With("app_id", app.ID)
	logger.Info("Retrieving app information")

	ctx, span := otel.StartSpan(ctx, d.pipeline.Tracer, "report.Applications.application",
		trace.WithAttributes(otel.AttrAppID.String(app.ID)))
	defer span.End()

	groups, err := d.source.SharedGroups(ctx, app.ID)
	if err != nil {
		logger.Warn("Unable to read shared groups", "error", err)
	}

	appURL := mapapps.AppURL(d.baseURL, app.ID)
	data, err := d.client.FetchAppConfig(ctx, app.ID, appURL)
	if err != nil {
		otel.RecordError(span, err)
		logger.Warn("Unable to retrieve JSON configuration for map, skipping", "error", err)
		return telemetry.SkipReasonFetch
	}

	cfg, err := extract.ParseAppConfig(data)
	if err != nil {
		otel.RecordError(span, err)
		logger.Warn("Unable to decode JSON configuration for map, skipping", "error", err)
		return telemetry.SkipReasonDecode
	}

	result := extract.ExtractApplication(cfg, extract.App{
		ID:            app.ID,
		Title:         app.Title.String,
		Env:           env,
		ReferenceDate: date,
		Hosts:         d.hosts,
	})
	span.SetAttributes(otel.AttrShapeVersion.String(result.Version.String()))
	if result.Version == extract.Unversioned {
		d.pipeline.Metrics.RecordSkipped(ctx, env, telemetry.SkipReasonUnversioned)
	}

	for _, ref := range result.References {
		check := d.checker.Check(ctx, ref.String("svc_url"))
		check.Apply(ref)
		if check.Unknown() {
			d.pipeline.Metrics.RecordSkipped(ctx, env, telemetry.SkipReasonProbe)
		}
	}

	for _, bundle := range result.UnloadedBundles {
		logger.Warn("Bundle configured, but not loaded", "bundle", bundle)
	}

	mapRecord := app.Record(env, date)
	maps.Copy(mapRecord, result.Map)
	mapRecord["sharedgroups"] = groups
	mapRecord["url"] = appURL

	batches.maps.Add(mapRecord)
	batches.stores.Add(result.SearchStores...)
	batches.basemaps.Add(result.Basemaps...)
	batches.references.Add(result.References...)
	return ""
}
