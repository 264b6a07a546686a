package extract

import (
	"strings"
	"time"

	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/records"
)

const (
	// TwoPartDatabase is stored as db for schema.table references, which only
	// the Oracle connections produce.
	TwoPartDatabase = "oracle"

	// UnknownPart is stored for every part a single-segment reference lacks.
	UnknownPart = "unknown"
)

// DatasetRef is the decomposed form of a dataset path such as
// `C:\conn\gis.sde\gisdb.WATER.Pipes`.
type DatasetRef struct {
	// Connection is the segment before the table reference, "" when absent
	Connection string
	DB         string
	Schema     string
	Table      string
}

// ParseDatasetPath splits a backslash-delimited dataset path. The last segment
// is a dotted table reference of three (db.schema.table), two (schema.table) or
// one part. Schema and table are lower-cased.
func ParseDatasetPath(path string) DatasetRef {
	segments := strings.Split(path, `\`)

	var ref DatasetRef
	if len(segments) >= 2 {
		ref.Connection = segments[len(segments)-2]
	}

	parts := strings.Split(segments[len(segments)-1], ".")
	switch len(parts) {
	case 3:
		ref.DB, ref.Schema, ref.Table = parts[0], parts[1], parts[2]
	case 2:
		ref.DB, ref.Schema, ref.Table = TwoPartDatabase, parts[0], parts[1]
	default:
		ref.DB, ref.Schema, ref.Table = UnknownPart, UnknownPart, parts[0]
	}

	ref.Schema = strings.ToLower(ref.Schema)
	ref.Table = strings.ToLower(ref.Table)
	return ref
}

// Service names the map service a manifest belongs to.
type Service struct {
	Name   string
	Folder string
}

// ServiceLayers builds one service_layer record per dataset in the manifest.
func ServiceLayers(svc Service, m *Manifest, env string, referenceDate time.Time) []records.Record {
	out := make([]records.Record, 0, len(m.Datasets))

	var mxd any
	if m.Resource != "" {
		mxd = m.Resource
	}

	for _, path := range m.Datasets {
		ref := ParseDatasetPath(path)

		rec := records.New(env, referenceDate)
		rec["svc_name"] = svc.Name
		rec["svc_folder"] = svc.Folder
		rec["db"] = ref.DB
		rec["db_schema"] = ref.Schema
		rec["db_table"] = ref.Table
		rec["sde"] = nilIfEmpty(ref.Connection)
		rec["mxd"] = mxd
		out = append(out, rec)
	}
	return out
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
