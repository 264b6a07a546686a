package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/records"
)

const sampleManifest = `<?xml version="1.0" encoding="utf-8"?>
<SVCManifest xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xmlns:typens="http://www.esri.com/schemas/ArcGIS/10.8">
  <Databases>
    <SVCDatabase>
      <OnPremiseConnectionString>ENCRYPTED_PASSWORD=xyz</OnPremiseConnectionString>
      <Datasets>
        <SVCDataset>
          <OnPremisePath>D:\connections\gisdb_water.sde\gisdb.WATER.Pipes</OnPremisePath>
        </SVCDataset>
        <SVCDataset>
          <OnPremisePath>D:\connections\ora_ref.sde\REF.Districts</OnPremisePath>
        </SVCDataset>
      </Datasets>
    </SVCDatabase>
  </Databases>
  <Resources>
    <SVCResource>
      <OnPremisePath>D:\projects\water\water.mxd</OnPremisePath>
    </SVCResource>
  </Resources>
</SVCManifest>`

func TestParseManifest(t *testing.T) {
	t.Parallel()

	m, err := ParseManifest([]byte(sampleManifest))
	require.NoError(t, err)

	assert.Equal(t, []string{
		`D:\connections\gisdb_water.sde\gisdb.WATER.Pipes`,
		`D:\connections\ora_ref.sde\REF.Districts`,
	}, m.Datasets)
	assert.Equal(t, `D:\projects\water\water.mxd`, m.Resource)
}

func TestParseManifest_Empty(t *testing.T) {
	t.Parallel()

	m, err := ParseManifest([]byte(`<SVCManifest><Databases/></SVCManifest>`))
	require.NoError(t, err)
	assert.Empty(t, m.Datasets)
	assert.Empty(t, m.Resource)
}

func TestParseManifest_Invalid(t *testing.T) {
	t.Parallel()

	_, err := ParseManifest([]byte(`<SVCManifest><Datasets>`))
	assert.ErrorContains(t, err, "failed to parse manifest")
}

func TestServiceLayers(t *testing.T) {
	t.Parallel()

	m, err := ParseManifest([]byte(sampleManifest))
	require.NoError(t, err)

	date := records.ReferenceDate(time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC))
	got := ServiceLayers(Service{Name: "Water", Folder: "Utilities"}, m, "prod", date)
	require.Len(t, got, 2)

	assert.Equal(t, records.Record{
		"env":            "prod",
		"reference_date": date,
		"svc_name":       "Water",
		"svc_folder":     "Utilities",
		"db":             "gisdb",
		"db_schema":      "water",
		"db_table":       "pipes",
		"sde":            "gisdb_water.sde",
		"mxd":            `D:\projects\water\water.mxd`,
	}, got[0])

	assert.Equal(t, TwoPartDatabase, got[1]["db"])
	assert.Equal(t, "ref", got[1]["db_schema"])
	assert.Equal(t, "districts", got[1]["db_table"])
}

func TestServiceLayers_NoResource(t *testing.T) {
	t.Parallel()

	m := &Manifest{Datasets: []string{"Pipes"}}
	got := ServiceLayers(Service{Name: "Water", Folder: "/"}, m, "dev", time.Time{})
	require.Len(t, got, 1)
	assert.Nil(t, got[0]["mxd"])
	assert.Nil(t, got[0]["sde"])
}
