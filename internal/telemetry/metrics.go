package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RunMetricsMeterName is the meter name for report-run instruments
const RunMetricsMeterName = "github.com/Vodafone-NRW-GIS/ma-ags-reports/report"

// Reasons used with RecordSkipped.
const (
	SkipReasonFetch        = "fetch"
	SkipReasonDecode       = "decode"
	SkipReasonUnversioned  = "unversioned"
	SkipReasonProbe        = "probe"
	SkipReasonNoDatasets   = "no_datasets"
	SkipReasonTableFailure = "table"
)

// RunMetrics holds the instruments recorded by the run drivers.
// A nil *RunMetrics is valid and records nothing.
type RunMetrics struct {
	runDuration metric.Float64Histogram
	records     metric.Int64Counter
	skipped     metric.Int64Counter
}

// NewRunMetrics creates the run instruments. A nil provider yields nil metrics.
func NewRunMetrics(provider metric.MeterProvider) (*RunMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(RunMetricsMeterName)

	runDuration, err := meter.Float64Histogram(
		"ma_ags_reports_run_duration_seconds",
		metric.WithDescription("Duration of report runs in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(1, 5, 15, 30, 60, 120, 300, 600, 1200, 3600),
	)
	if err != nil {
		return nil, err
	}

	records, err := meter.Int64Counter(
		"ma_ags_reports_records_total",
		metric.WithDescription("Candidate records harvested per entity kind"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	skipped, err := meter.Int64Counter(
		"ma_ags_reports_skipped_total",
		metric.WithDescription("Source objects or tables skipped, by reason"),
		metric.WithUnit("{object}"),
	)
	if err != nil {
		return nil, err
	}

	return &RunMetrics{
		runDuration: runDuration,
		records:     records,
		skipped:     skipped,
	}, nil
}

// RecordRunDuration records how long one report run took
func (m *RunMetrics) RecordRunDuration(ctx context.Context, report, env string, duration time.Duration, success bool) {
	if m == nil || m.runDuration == nil {
		return
	}
	m.runDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("report", report),
		attribute.String("env", env),
		attribute.Bool("success", success),
	))
}

// RecordRecords adds count harvested records of kind
func (m *RunMetrics) RecordRecords(ctx context.Context, env, kind string, count int) {
	if m == nil || m.records == nil || count == 0 {
		return
	}
	m.records.Add(ctx, int64(count), metric.WithAttributes(
		attribute.String("env", env),
		attribute.String("kind", kind),
	))
}

// RecordSkipped counts one skipped object
func (m *RunMetrics) RecordSkipped(ctx context.Context, env, reason string) {
	if m == nil || m.skipped == nil {
		return
	}
	m.skipped.Add(ctx, 1, metric.WithAttributes(
		attribute.String("env", env),
		attribute.String("reason", reason),
	))
}
