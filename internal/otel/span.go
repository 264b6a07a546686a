// Package otel provides span helpers and the attribute keys shared by the report pipeline.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys used on spans across packages.
const (
	AttrReportType   = attribute.Key("report.type")
	AttrEnvironment  = attribute.Key("report.environment")
	AttrRunID        = attribute.Key("report.run_id")
	AttrServiceName  = attribute.Key("arcgis.service.name")
	AttrAppID        = attribute.Key("mapapps.app.id")
	AttrTable        = attribute.Key("db.table")
	AttrRecordCount  = attribute.Key("result.count")
	AttrDryRun       = attribute.Key("report.dry_run")
	AttrShapeVersion = attribute.Key("mapapps.config.version")
)

// StartSpan starts a new span if the tracer is non-nil, otherwise it returns the
// span already in ctx, which is a no-op span when tracing is off.
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError records err on span and marks the span failed.
// The status description stays generic so that SQL text or URLs with tokens
// never end up in the status; details remain in the span event.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}
