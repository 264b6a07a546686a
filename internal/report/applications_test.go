package report

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/availability"
	availabilitymocks "github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/availability/mocks"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/config"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/mapapps"
	mapappsmocks "github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/mapapps/mocks"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/records"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/warehouse"
)

const baseURL = "https://maps-dev.example.net/mapapps"

const planningApp = `{
  "properties": {"id": "planning"},
  "load": {"allowedBundles": ["map-init", "agssearch", "domain-planning@1.2.0"]},
  "bundles": {
    "map-init": {
      "Config": {
        "basemaps": [
          {"id": "streets", "title": "Streets", "basemap": "streets-vector"}
        ],
        "map": {
          "layers": [
            {"id": "zoning", "title": "Zoning", "type": "AGS_DYNAMIC",
             "url": "https://gis-dev.example.net/ags-relay/rest/services/Planning/Zoning/MapServer"},
            {"id": "osm", "type": "WMS", "url": "https://wms.example.org/osm"}
          ]
        }
      }
    },
    "agssearch": {
      "AGSStore": [
        {"id": "parcels", "title": "Parcels", "url": "https://gis-dev.example.net/server/rest/services/Cadastre/Parcels/MapServer/2",
         "useIn": ["omnisearch"], "omniSearchPageSize": 20}
      ]
    },
    "printing": {},
    "themes": {}
  }
}`

const unversionedApp = `{"load": {"allowedBundles": []}, "bundles": {"agssearch": {}}}`

func testHosts() *config.Config {
	return &config.Config{Environments: map[string]config.EnvironmentConfig{
		"dev":  {AGSHost: "gis-dev.example.net"},
		"prod": {AGSHost: "gis.example.net"},
	}}
}

func app(id, title string) mapapps.App {
	return mapapps.App{
		ID:        id,
		Title:     sql.NullString{String: title, Valid: title != ""},
		EditState: sql.NullString{String: "PUBLISHED", Valid: true},
		Enabled:   sql.NullBool{Bool: true, Valid: true},
	}
}

type capturedBatches map[records.Kind]*records.Batch

func captureReplace(captured capturedBatches) func(context.Context, *warehouse.Table, *records.Batch) (int, error) {
	return func(_ context.Context, table *warehouse.Table, batch *records.Batch) (int, error) {
		if table.Kind != batch.Kind {
			return 0, errors.New("table and batch kind differ")
		}
		captured[batch.Kind] = batch
		return batch.Len(), nil
	}
}

func valid(b bool) *bool {
	return &b
}

func TestApplicationDriver_Run(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	source := mapappsmocks.NewMockAppSource(ctrl)
	client := mapappsmocks.NewMockClient(ctrl)
	checker := availabilitymocks.NewMockChecker(ctrl)
	pipeline, m := newTestPipeline(ctrl)

	source.EXPECT().ListApps(gomock.Any(), 0).Return([]mapapps.App{
		app("planning", "Planning"),
		app("broken", "Broken"),
		app("legacy", ""),
	}, nil)
	source.EXPECT().SharedGroups(gomock.Any(), "planning").Return([]string{"planners"}, nil)
	source.EXPECT().SharedGroups(gomock.Any(), "broken").Return(nil, nil)
	source.EXPECT().SharedGroups(gomock.Any(), "legacy").Return(nil, errors.New("connection lost"))

	client.EXPECT().FetchAppConfig(gomock.Any(), "planning", baseURL+"/resources/apps/planning").Return([]byte(planningApp), nil)
	client.EXPECT().FetchAppConfig(gomock.Any(), "broken", gomock.Any()).
		Return(nil, &mapapps.FetchError{AppID: "broken", Err: mapapps.ErrNotJSON})
	client.EXPECT().FetchAppConfig(gomock.Any(), "legacy", gomock.Any()).Return([]byte(unversionedApp), nil)

	zoningURL := "https://gis-dev.example.net/ags-relay/rest/services/Planning/Zoning/MapServer"
	checker.EXPECT().Check(gomock.Any(), zoningURL).
		Return(availability.Result{Valid: valid(true), Secured: valid(true), Environment: "dev", Probed: true})
	checker.EXPECT().Check(gomock.Any(), "https://wms.example.org/osm").Return(availability.Result{})

	m.schema.EXPECT().Ensure(gomock.Any(), gomock.Any()).Return(nil).Times(4)
	captured := capturedBatches{}
	m.reconciler.EXPECT().ReplacePartition(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(captureReplace(captured)).Times(4)

	driver := NewApplicationDriver(pipeline, source, client, checker, testHosts(), baseURL)
	run, err := driver.Run(context.Background(), Options{Env: "dev"})
	require.NoError(t, err)

	assert.Equal(t, 3, run.ObjectsProcessed)
	assert.Equal(t, 1, run.ObjectsSkipped)
	assert.Equal(t, 2, run.RowsWritten[records.KindMap])

	maps := captured[records.KindMap]
	require.NotNil(t, maps)
	require.Equal(t, 2, maps.Len())
	planning := maps.Records[0]
	assert.Equal(t, "planning", planning["app_id"])
	assert.Equal(t, "Planning", planning["title"])
	assert.Equal(t, 4, planning["version"])
	assert.Equal(t, []string{"planners"}, planning["sharedgroups"])
	assert.Equal(t, baseURL+"/resources/apps/planning", planning["url"])
	assert.Equal(t, []string{"domain-planning@1.2.0"}, planning["domain_bundles"])
	assert.Equal(t, true, planning["domain_bundles_used"])
	assert.Equal(t, "PUBLISHED", planning["status"])

	legacy := maps.Records[1]
	assert.Nil(t, legacy["version"])
	assert.Nil(t, legacy["title"])

	stores := captured[records.KindSearchStore]
	require.Equal(t, 1, stores.Len())
	assert.Equal(t, "dev", stores.Records[0]["svc_env"])
	assert.Equal(t, "Cadastre", stores.Records[0]["svc_directory"])
	assert.Equal(t, true, stores.Records[0]["used_in_search"])

	basemaps := captured[records.KindBasemap]
	require.Equal(t, 1, basemaps.Len())
	assert.Equal(t, "INBUILT", basemaps.Records[0]["svc_type"])

	refs := captured[records.KindMapServiceReference]
	require.Equal(t, 2, refs.Len())
	assert.Equal(t, "Zoning", refs.Records[0]["svc_name"])
	assert.Equal(t, true, refs.Records[0]["valid"])
	assert.Equal(t, true, refs.Records[0]["secured"])
	assert.Equal(t, "dev", refs.Records[0]["svc_env"])
	assert.Nil(t, refs.Records[1]["valid"])
	assert.Nil(t, refs.Records[1]["svc_env"])
}

func TestApplicationDriver_EmptyBatchesAreNotReconciled(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	source := mapappsmocks.NewMockAppSource(ctrl)
	client := mapappsmocks.NewMockClient(ctrl)
	pipeline, m := newTestPipeline(ctrl)

	source.EXPECT().ListApps(gomock.Any(), 1).Return([]mapapps.App{app("legacy", "Legacy")}, nil)
	source.EXPECT().SharedGroups(gomock.Any(), "legacy").Return(nil, nil)
	client.EXPECT().FetchAppConfig(gomock.Any(), "legacy", gomock.Any()).Return([]byte(unversionedApp), nil)

	m.schema.EXPECT().Ensure(gomock.Any(), gomock.Any()).Return(nil).Times(4)
	captured := capturedBatches{}
	m.reconciler.EXPECT().ReplacePartition(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(captureReplace(captured)).Times(1)

	driver := NewApplicationDriver(pipeline, source, client, availabilitymocks.NewMockChecker(ctrl), testHosts(), baseURL)
	run, err := driver.Run(context.Background(), Options{Env: "dev", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, run.ObjectsProcessed)
	assert.Contains(t, captured, records.KindMap)
	assert.Len(t, captured, 1)
}

func TestApplicationDriver_SourceFailureIsFatal(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	source := mapappsmocks.NewMockAppSource(ctrl)
	pipeline, _ := newTestPipeline(ctrl)

	source.EXPECT().ListApps(gomock.Any(), 0).Return(nil, errors.New("no such table: apps"))

	driver := NewApplicationDriver(pipeline, source, mapappsmocks.NewMockClient(ctrl),
		availabilitymocks.NewMockChecker(ctrl), testHosts(), baseURL)
	run, err := driver.Run(context.Background(), Options{Env: "dev"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list applications")
	assert.False(t, run.Success)
}

func TestApplicationDriver_OneTableFailureDoesNotStopOthers(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	source := mapappsmocks.NewMockAppSource(ctrl)
	client := mapappsmocks.NewMockClient(ctrl)
	checker := availabilitymocks.NewMockChecker(ctrl)
	pipeline, m := newTestPipeline(ctrl)

	source.EXPECT().ListApps(gomock.Any(), 0).Return([]mapapps.App{app("planning", "Planning")}, nil)
	source.EXPECT().SharedGroups(gomock.Any(), "planning").Return(nil, nil)
	client.EXPECT().FetchAppConfig(gomock.Any(), "planning", gomock.Any()).Return([]byte(planningApp), nil)
	checker.EXPECT().Check(gomock.Any(), gomock.Any()).Return(availability.Result{}).Times(2)

	m.schema.EXPECT().Ensure(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, table *warehouse.Table) error {
			if table.Kind == records.KindSearchStore {
				return &warehouse.TableError{Table: table.Name.String(), Op: "create", Err: errors.New("disk full")}
			}
			return nil
		}).Times(4)
	captured := capturedBatches{}
	m.reconciler.EXPECT().ReplacePartition(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(captureReplace(captured)).Times(3)

	driver := NewApplicationDriver(pipeline, source, client, checker, testHosts(), baseURL)
	_, err := driver.Run(context.Background(), Options{Env: "dev"})

	var tableErr *warehouse.TableError
	require.ErrorAs(t, err, &tableErr)
	assert.Equal(t, "mapapps_search_report", tableErr.Table)
	assert.NotContains(t, captured, records.KindSearchStore)
	assert.Contains(t, captured, records.KindMapServiceReference)
}
