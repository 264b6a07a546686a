package extract

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/tidwall/gjson"

	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/records"
)

// ErrInvalidJSON is returned for app.json payloads that cannot be decoded.
var ErrInvalidJSON = errors.New("invalid app configuration")

// HostResolver attributes a service URL to the environment whose ArcGIS host it contains.
type HostResolver interface {
	EnvironmentForURL(url string) string
}

// App identifies the application a document is extracted for.
type App struct {
	ID            string
	Title         string
	Env           string
	ReferenceDate time.Time
	Hosts         HostResolver
}

func (a App) record() records.Record {
	rec := records.New(a.Env, a.ReferenceDate)
	rec["app_id"] = a.ID
	rec["app_title"] = a.Title
	return rec
}

func (a App) environmentOf(url string) any {
	if a.Hosts == nil {
		return nil
	}
	return nilIfEmpty(a.Hosts.EnvironmentForURL(url))
}

// AppConfig is a decoded app.json document.
type AppConfig struct {
	root gjson.Result
}

// ParseAppConfig validates and wraps an app.json payload.
func ParseAppConfig(data []byte) (*AppConfig, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: top level value is not an object", ErrInvalidJSON)
	}
	return &AppConfig{root: root}, nil
}

// Version resolves the configuration shape of the document.
func (c *AppConfig) Version() Version {
	return ResolveVersion(c.root)
}

// ID returns properties.id, or "" when the document does not declare one.
func (c *AppConfig) ID() string {
	return c.root.Get("properties.id").String()
}

// LoadedBundles returns load.allowedBundles, sorted.
func (c *AppConfig) LoadedBundles() []string {
	loaded := stringArray(c.root.Get("load.allowedBundles"))
	slices.Sort(loaded)
	return loaded
}

// ConfiguredBundles returns the keys of the bundles object, sorted. A document
// without bundles configures none.
func (c *AppConfig) ConfiguredBundles() []string {
	out := make([]string, 0)
	c.root.Get("bundles").ForEach(func(key, _ gjson.Result) bool {
		out = append(out, key.String())
		return true
	})
	slices.Sort(out)
	return out
}

// Application holds everything harvested from one app.json.
type Application struct {
	Version Version

	// Map holds the document-derived columns of the map record: version and the bundle lists
	Map records.Record

	SearchStores []records.Record
	Basemaps     []records.Record
	References   []records.Record

	// UnloadedBundles are configured bundles missing from allowedBundles
	UnloadedBundles []string
}

// shape extracts the version-specific record kinds.
type shape struct {
	basemaps   func(root gjson.Result, app App) []records.Record
	references func(root gjson.Result, app App) []records.Record
}

var shapes = map[Version]shape{
	V3: {basemaps: v3Basemaps, references: v3References},
	V4: {basemaps: v4Basemaps, references: v4References},
}

func shapeFor(v Version) (shape, error) {
	s, ok := shapes[v]
	if !ok {
		return shape{}, ErrUnversioned
	}
	return s, nil
}

// ExtractApplication extracts every record kind from cfg. Search stores do not
// depend on the shape; basemaps and service references are only produced for
// documents of a known version, otherwise a warning is logged.
func ExtractApplication(cfg *AppConfig, app App) *Application {
	version := cfg.Version()
	loaded := cfg.LoadedBundles()
	configured := cfg.ConfiguredBundles()
	domain := DomainBundles(loaded)

	result := &Application{
		Version: version,
		Map: records.Record{
			"version":             version.Number(),
			"loaded_bundles":      loaded,
			"configured_bundles":  configured,
			"domain_bundles":      domain,
			"domain_bundles_used": len(domain) > 0,
		},
		SearchStores:    SearchStores(cfg, app),
		UnloadedBundles: UnloadedBundles(loaded, configured),
	}

	s, err := shapeFor(version)
	if err != nil {
		slog.Warn("Skipping basemaps and map services", "app_id", app.ID, "error", err)
		return result
	}

	result.Basemaps = s.basemaps(cfg.root, app)
	result.References = s.references(cfg.root, app)
	return result
}
