// Package config provides configuration loading and validation for the report pipeline.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/telemetry"
)

const (
	// EnvPrefix is the prefix for environment variables read through viper.
	EnvPrefix = "MA_AGS_REPORTS"

	// TargetDatabase is the key of the warehouse database in the databases section.
	TargetDatabase = "target"

	// DefaultAGSPort is the port assumed when an environment does not set agsPort.
	DefaultAGSPort = 443

	// DefaultHTTPTimeout bounds every outbound HTTP request.
	DefaultHTTPTimeout = 30 * time.Second
)

// Environment variables consulted when no password file is configured.
const (
	EnvAGSPassword        = EnvPrefix + "_AGS_PASSWORD"
	EnvMapAppsPassword    = EnvPrefix + "_MA_PASSWORD"
	EnvConfluenceToken    = EnvPrefix + "_CONFLUENCE_TOKEN"
	EnvTargetDBPassword   = EnvPrefix + "_DB_PASSWORD"
	envDBPasswordTemplate = EnvPrefix + "_%s_PASSWORD"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks before checking locality; EvalSymlinks also cleans the path.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) && !filepath.IsLocal(realPath) {
			return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// Environments maps an environment name (dev, test, prod) to its endpoints
	Environments map[string]EnvironmentConfig `yaml:"environments"`

	// ServicesToSkip lists map service names never harvested
	ServicesToSkip []string `yaml:"servicesToSkip,omitempty"`

	ArcGIS  CredentialsConfig `yaml:"arcgis"`
	MapApps MapAppsConfig     `yaml:"mapapps"`
	HTTP    HTTPConfig        `yaml:"http,omitempty"`

	// Databases holds named connections; "target" is the reporting warehouse
	Databases map[string]*DatabaseConfig `yaml:"databases"`

	Tables     TablesConfig      `yaml:"tables,omitempty"`
	Confluence *ConfluenceConfig `yaml:"confluence,omitempty"`
	Telemetry  *telemetry.Config `yaml:"telemetry,omitempty"`
}

// EnvironmentConfig describes one deployment environment
type EnvironmentConfig struct {
	// AGSHost is the ArcGIS server host name, also used to attribute service URLs to environments
	AGSHost string `yaml:"agsHost,omitempty"`
	AGSPort int    `yaml:"agsPort,omitempty"`

	// MABaseURL is the map.apps base URL, e.g. https://maps.example.net/mapapps
	MABaseURL string `yaml:"maBaseUrl,omitempty"`

	// MADatabase names the entry in databases holding the map.apps application tables
	MADatabase string `yaml:"maDatabase,omitempty"`
}

// AGSAuthority returns host[:port] for the ArcGIS server; the port is omitted when it is 443.
func (e EnvironmentConfig) AGSAuthority() string {
	if e.AGSPort == 0 || e.AGSPort == DefaultAGSPort {
		return e.AGSHost
	}
	return fmt.Sprintf("%s:%d", e.AGSHost, e.AGSPort)
}

// MapAppsConfig holds map.apps credentials and source table names
type MapAppsConfig struct {
	CredentialsConfig `yaml:",inline"`

	AppsTable         string `yaml:"appsTable,omitempty"`
	SharedGroupsTable string `yaml:"sharedGroupsTable,omitempty"`
}

// GetAppsTable returns the application table, defaulting to "apps"
func (m MapAppsConfig) GetAppsTable() string {
	if m.AppsTable == "" {
		return "apps"
	}
	return m.AppsTable
}

// GetSharedGroupsTable returns the shared-groups table, defaulting to "apps_sharedgroups"
func (m MapAppsConfig) GetSharedGroupsTable() string {
	if m.SharedGroupsTable == "" {
		return "apps_sharedgroups"
	}
	return m.SharedGroupsTable
}

// HTTPConfig tunes the outbound HTTP transport
type HTTPConfig struct {
	// Timeout is a duration string such as "30s"
	Timeout string `yaml:"timeout,omitempty"`

	// InsecureSkipVerify disables TLS verification for internal endpoints with
	// self-signed certificates. Defaults to true.
	InsecureSkipVerify *bool `yaml:"insecureSkipVerify,omitempty"`
}

// GetTimeout returns the parsed timeout or DefaultHTTPTimeout
func (h HTTPConfig) GetTimeout() time.Duration {
	if h.Timeout == "" {
		return DefaultHTTPTimeout
	}
	d, err := time.ParseDuration(h.Timeout)
	if err != nil || d <= 0 {
		return DefaultHTTPTimeout
	}
	return d
}

// GetInsecureSkipVerify reports whether TLS verification is disabled
func (h HTTPConfig) GetInsecureSkipVerify() bool {
	if h.InsecureSkipVerify == nil {
		return true
	}
	return *h.InsecureSkipVerify
}

// TablesConfig names the target tables as [schema.]table
type TablesConfig struct {
	ServiceLayers string `yaml:"serviceLayers,omitempty"`
	Maps          string `yaml:"maps,omitempty"`
	SearchStores  string `yaml:"searchStores,omitempty"`
	Basemaps      string `yaml:"basemaps,omitempty"`
	MapServices   string `yaml:"mapServices,omitempty"`
}

// WithDefaults returns a copy with unset table names filled in
func (t TablesConfig) WithDefaults() TablesConfig {
	fill := func(v, def string) string {
		if v == "" {
			return def
		}
		return v
	}
	return TablesConfig{
		ServiceLayers: fill(t.ServiceLayers, "ags_service_layer_report"),
		Maps:          fill(t.Maps, "mapapps_report"),
		SearchStores:  fill(t.SearchStores, "mapapps_search_report"),
		Basemaps:      fill(t.Basemaps, "mapapps_basemap_report"),
		MapServices:   fill(t.MapServices, "mapapps_service_report"),
	}
}

// ConfluenceConfig configures report publication
type ConfluenceConfig struct {
	BaseURL   string `yaml:"baseUrl"`
	Username  string `yaml:"username"`
	TokenFile string `yaml:"tokenFile,omitempty"`

	// Reports maps a report type (service_layers, applications) to its page settings
	Reports map[string]PublicationConfig `yaml:"reports"`
}

// Token returns the API token from TokenFile or the environment
func (c *ConfluenceConfig) Token() (string, error) {
	return readSecret(c.TokenFile, EnvConfluenceToken)
}

// PublicationConfig describes one published report page
type PublicationConfig struct {
	// PageID is the parent page under which the report page lives
	PageID      string   `yaml:"pageId"`
	Title       string   `yaml:"title"`
	SourceTable string   `yaml:"sourceTable"`
	SortColumns []string `yaml:"sortColumns,omitempty"`

	// Template optionally overrides the built-in template with a file path
	Template string `yaml:"template,omitempty"`
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes and validates YAML configuration content
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	config.Tables = config.Tables.WithDefaults()

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Environment returns the named environment
func (c *Config) Environment(name string) (EnvironmentConfig, error) {
	env, ok := c.Environments[name]
	if !ok {
		return EnvironmentConfig{}, fmt.Errorf("unknown environment %q (configured: %v)", name, c.EnvironmentNames())
	}
	return env, nil
}

// EnvironmentNames returns the configured environment names in sorted order
func (c *Config) EnvironmentNames() []string {
	names := make([]string, 0, len(c.Environments))
	for name := range c.Environments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EnvironmentForURL returns the first environment, in name order, whose agsHost
// occurs in url. It returns "" when no environment matches.
func (c *Config) EnvironmentForURL(url string) string {
	if url == "" {
		return ""
	}
	for _, name := range c.EnvironmentNames() {
		host := c.Environments[name].AGSHost
		if host != "" && strings.Contains(url, host) {
			return name
		}
	}
	return ""
}

// Database returns the named database configuration
func (c *Config) Database(name string) (*DatabaseConfig, error) {
	db, ok := c.Databases[name]
	if !ok || db == nil {
		return nil, fmt.Errorf("database %q is not configured", name)
	}
	return db, nil
}

func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if len(c.Environments) == 0 {
		return fmt.Errorf("at least one environment must be configured")
	}

	for _, name := range c.EnvironmentNames() {
		if err := c.validateEnvironment(name, c.Environments[name]); err != nil {
			return err
		}
	}

	if err := c.validateDatabases(); err != nil {
		return err
	}

	if c.HTTP.Timeout != "" {
		if _, err := time.ParseDuration(c.HTTP.Timeout); err != nil {
			return fmt.Errorf("http.timeout must be a valid duration (e.g., '30s'): %w", err)
		}
	}

	if err := c.Confluence.validate(); err != nil {
		return err
	}

	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	return nil
}

func (c *Config) validateEnvironment(name string, env EnvironmentConfig) error {
	prefix := fmt.Sprintf("environment %q", name)

	if env.AGSHost == "" && env.MABaseURL == "" {
		return fmt.Errorf("%s: one of agsHost or maBaseUrl is required", prefix)
	}
	if env.AGSPort < 0 || env.AGSPort > 65535 {
		return fmt.Errorf("%s: agsPort %d is out of range", prefix, env.AGSPort)
	}
	if env.MABaseURL != "" {
		if env.MADatabase == "" {
			return fmt.Errorf("%s: maDatabase is required when maBaseUrl is set", prefix)
		}
		if _, ok := c.Databases[env.MADatabase]; !ok {
			return fmt.Errorf("%s: maDatabase %q is not defined in databases", prefix, env.MADatabase)
		}
	}
	return nil
}

func (c *Config) validateDatabases() error {
	target, ok := c.Databases[TargetDatabase]
	if !ok || target == nil {
		return fmt.Errorf("databases.%s is required", TargetDatabase)
	}
	if !target.IsPostgres() {
		return fmt.Errorf("databases.%s: dialect must be postgresql, got %q", TargetDatabase, target.Dialect)
	}

	names := make([]string, 0, len(c.Databases))
	for name := range c.Databases {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		if err := c.Databases[name].validate(fmt.Sprintf("databases.%s", name)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *ConfluenceConfig) validate() error {
	if c == nil {
		return nil
	}
	if c.BaseURL == "" {
		return fmt.Errorf("confluence.baseUrl is required")
	}
	for name, report := range c.Reports {
		prefix := fmt.Sprintf("confluence.reports[%s]", name)
		if report.PageID == "" {
			return fmt.Errorf("%s: pageId is required", prefix)
		}
		if report.Title == "" {
			return fmt.Errorf("%s: title is required", prefix)
		}
		if report.SourceTable == "" {
			return fmt.Errorf("%s: sourceTable is required", prefix)
		}
	}
	return nil
}
