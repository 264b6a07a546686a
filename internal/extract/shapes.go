package extract

import (
	"github.com/tidwall/gjson"

	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/records"
)

const (
	v3ServicesPath = "bundles.map.MappingResourceRegistryFactory._knownServices.services"
	v4BasemapsPath = "bundles.map-init.Config.basemaps"
	v4LayersPath   = "bundles.map-init.Config.map.layers"
	inbuiltBasemap = "INBUILT"
	agsDynamicType = "AGS_DYNAMIC"
	agsFeatureType = "AGS_FEATURE"
)

func isOperationalLayer(svcType string) bool {
	return svcType == agsDynamicType || svcType == agsFeatureType
}

func v3Basemaps(root gjson.Result, app App) []records.Record {
	var out []records.Record
	for _, svc := range root.Get(v3ServicesPath).Array() {
		svcType := svc.Get("type").String()
		if svcType == "" || isOperationalLayer(svcType) {
			continue
		}
		rec := app.record()
		rec["svc_id"] = jsonValue(svc.Get("id"))
		rec["svc_title"] = jsonValue(svc.Get("title"))
		rec["svc_type"] = svcType
		rec["svc_url"] = jsonValue(svc.Get("url"))
		rec["svc_description"] = nil
		out = append(out, rec)
	}
	return out
}

func v3References(root gjson.Result, app App) []records.Record {
	var out []records.Record
	for _, svc := range root.Get(v3ServicesPath).Array() {
		svcType := svc.Get("type").String()
		if !isOperationalLayer(svcType) {
			continue
		}
		out = append(out, reference(svc, app))
	}
	return out
}

func v4Basemaps(root gjson.Result, app App) []records.Record {
	var out []records.Record
	for _, svc := range root.Get(v4BasemapsPath).Array() {
		rec := app.record()
		rec["svc_id"] = jsonValue(svc.Get("id"))
		rec["svc_title"] = jsonValue(svc.Get("title"))
		rec["svc_description"] = jsonValue(svc.Get("description"))

		basemap := svc.Get("basemap")
		switch {
		case basemap.IsObject():
			rec["svc_type"] = jsonValue(basemap.Get("type"))
			rec["svc_url"] = jsonValue(basemap.Get("url"))
		case basemap.Type == gjson.String && basemap.Str != "":
			rec["svc_type"] = inbuiltBasemap
			rec["svc_url"] = nil
		}
		out = append(out, rec)
	}
	return out
}

func v4References(root gjson.Result, app App) []records.Record {
	var out []records.Record
	for _, svc := range root.Get(v4LayersPath).Array() {
		out = append(out, reference(svc, app))
	}
	return out
}

// reference builds a map_service_reference record. The availability columns
// are filled in later by the availability checker.
func reference(svc gjson.Result, app App) records.Record {
	rec := app.record()
	rec["svc_id"] = jsonValue(svc.Get("id"))
	rec["svc_title"] = jsonValue(svc.Get("title"))
	rec["svc_type"] = jsonValue(svc.Get("type"))
	rec["svc_url"] = jsonValue(svc.Get("url"))
	rec["svc_name"] = nil
	if ref, ok := MatchServiceURL(svc.Get("url").String()); ok {
		rec["svc_name"] = ref.Name
	}
	return rec
}
