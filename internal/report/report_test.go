package report

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/mock/gomock"

	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/config"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/records"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/runs"
)

func TestResolveTypes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		expected []string
		wantErr  bool
	}{
		{name: "service_layers", expected: []string{TypeServiceLayers}},
		{name: "applications", expected: []string{TypeApplications}},
		{name: "all", expected: []string{TypeServiceLayers, TypeApplications}},
		{name: "ags_service_layers", expected: []string{TypeServiceLayers}},
		{name: "mapapps_maps", expected: []string{TypeApplications}},
		{name: "maps", wantErr: true},
		{name: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ResolveTypes(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestTableName(t *testing.T) {
	t.Parallel()

	tables := config.TablesConfig{Basemaps: "reporting.basemaps"}

	assert.Equal(t, "reporting.basemaps", TableName(tables, records.KindBasemap))
	assert.Equal(t, "ags_service_layer_report", TableName(tables, records.KindServiceLayer))
	assert.Equal(t, "mapapps_report", TableName(tables, records.KindMap))
	assert.Equal(t, "mapapps_search_report", TableName(tables, records.KindSearchStore))
	assert.Equal(t, "mapapps_service_report", TableName(tables, records.KindMapServiceReference))
	assert.Empty(t, TableName(tables, records.Kind("other")))
}

func TestPipeline_Persist_Spans(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctrl := gomock.NewController(t)
	pipeline, m := newTestPipeline(ctrl)
	pipeline.Tracer = tp.Tracer("report-test")

	m.schema.EXPECT().Ensure(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	m.reconciler.EXPECT().ReplacePartition(gomock.Any(), gomock.Any(), gomock.Any()).Return(2, nil)
	m.reconciler.EXPECT().ReplacePartition(gomock.Any(), gomock.Any(), gomock.Any()).Return(0, errors.New("deadlock"))

	maps := records.NewBatch(records.KindMap, "dev", runTime)
	maps.Add(records.Record{"app_id": "a"}, records.Record{"app_id": "b"})
	basemaps := records.NewBatch(records.KindBasemap, "dev", runTime)
	basemaps.Add(records.Record{"app_id": "a"})

	run := runs.NewRun(TypeApplications, "dev", false)
	err := pipeline.persist(context.Background(), run, Options{Env: "dev"}, maps, basemaps)
	require.Error(t, err)
	assert.Equal(t, 2, run.RowsWritten[records.KindMap])

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	tables := make(map[string]codes.Code, len(spans))
	for _, span := range spans {
		assert.Equal(t, "report.Pipeline.persist", span.Name)
		var table string
		for _, attr := range span.Attributes {
			if attr.Key == attribute.Key("db.table") {
				table = attr.Value.AsString()
			}
		}
		tables[table] = span.Status.Code
	}
	assert.Equal(t, map[string]codes.Code{
		"mapapps_report":         codes.Unset,
		"mapapps_basemap_report": codes.Error,
	}, tables)
}
