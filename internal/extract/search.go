package extract

import (
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/records"
)

const searchStoresPath = "bundles.agssearch.AGSStore"

// searchStoreColumns maps AGSStore keys to search_store columns.
var searchStoreColumns = map[string]string{
	"title":                  "title",
	"description":            "description",
	"url":                    "url",
	"id":                     "search_id",
	"omniSearchSearchAttr":   "search_attribute",
	"omniSearchLabelAttr":    "search_label_attribute",
	"omniSearchDefaultLabel": "search_label",
	"omniSearchPriority":     "search_priority",
	"omniSearchPageSize":     "search_pagesize",
	"omniSearchTypingDelay":  "search_typing_delay",
	"omniSearchAutoActivate": "search_auto_activate",
	"fetchIdProperty":        "fetch_id_property",
	"idProperty":             "id_property",
	"enablePagination":       "enable_pagination",
}

// SearchStores extracts one search_store record per AGSStore entry. Keys
// outside the column mapping are dropped.
func SearchStores(cfg *AppConfig, app App) []records.Record {
	stores := cfg.root.Get(searchStoresPath)
	if !stores.IsArray() {
		return nil
	}

	appID := cfg.ID()
	if appID == "" {
		appID = app.ID
	}

	var out []records.Record
	for _, store := range stores.Array() {
		if !store.IsObject() {
			continue
		}

		rec := app.record()
		rec["app_id"] = appID
		rec["used_in_search"] = false
		rec["used_in_selection"] = false
		rec["svc_env"] = app.environmentOf(store.Get("url").String())

		store.ForEach(func(key, value gjson.Result) bool {
			name := key.String()
			switch name {
			case "useIn":
				rec["used_in_search"] = containsValue(value, "omnisearch")
				rec["used_in_selection"] = containsValue(value, "selection")
				return true
			case "url":
				if strings.HasPrefix(value.String(), "http") {
					if ref, ok := MatchServiceURL(value.String()); ok {
						rec["svc_directory"] = ref.Directory
						rec["svc_name"] = ref.Name
						rec["svc_layer_id"] = nil
						if ref.LayerID != nil {
							rec["svc_layer_id"] = *ref.LayerID
						}
					}
				}
			}

			if column, ok := searchStoreColumns[name]; ok {
				rec[column] = jsonValue(value)
			} else {
				slog.Debug("Unmapped search store key", "app_id", appID, "key", name, "value", value.Raw)
			}
			return true
		})

		out = append(out, rec)
	}
	return out
}
