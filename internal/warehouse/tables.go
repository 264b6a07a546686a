// Package warehouse defines the reporting tables and manages their DDL in the
// target PostgreSQL database.
package warehouse

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/records"
)

// ColumnType is the SQL type family of a column
type ColumnType int

// Column types used by the reporting tables.
const (
	TypeSerial ColumnType = iota
	TypeVarchar
	TypeInteger
	TypeBoolean
	TypeDate
	TypeTimestamp
	TypeVarcharArray
)

// KeyColumn is the surrogate key every table carries
const KeyColumn = "objectid"

// Column is one column of a reporting table
type Column struct {
	Name    string
	Type    ColumnType
	Length  int
	Comment string
}

// SQLType renders the PostgreSQL type of c
func (c Column) SQLType() string {
	switch c.Type {
	case TypeSerial:
		return "serial PRIMARY KEY"
	case TypeVarchar:
		return fmt.Sprintf("varchar(%d)", c.Length)
	case TypeInteger:
		return "integer"
	case TypeBoolean:
		return "boolean"
	case TypeDate:
		return "date"
	case TypeTimestamp:
		return "timestamp"
	case TypeVarcharArray:
		return "varchar[]"
	default:
		return "text"
	}
}

// Definition is the fixed column set of one entity kind
type Definition struct {
	Kind    records.Kind
	Comment string
	Columns []Column
}

func varchar(name string, length int, comment string) Column {
	return Column{Name: name, Type: TypeVarchar, Length: length, Comment: comment}
}

func typed(name string, t ColumnType, comment string) Column {
	return Column{Name: name, Type: t, Comment: comment}
}

var keyColumn = typed(KeyColumn, TypeSerial, "Unique key.")

var referenceDateColumn = typed(records.FieldReferenceDate, TypeDate, "Reference date of most recent data update.")

// Definitions holds the table layout of every entity kind
var Definitions = map[records.Kind]*Definition{
	records.KindServiceLayer: {
		Kind:    records.KindServiceLayer,
		Comment: "Information about layers in ArcGIS server services.",
		Columns: []Column{
			keyColumn,
			varchar("svc_name", 100, "Name of the map service."),
			varchar("svc_folder", 100, "Directory of the map service."),
			varchar("env", 10, "Service environment."),
			varchar("db", 50, "Source database for service layer."),
			varchar("db_schema", 50, "Source database schema for service layer."),
			varchar("db_table", 50, "Source database table for service layer."),
			varchar("sde", 100, "SDE connection file used to import layer."),
			varchar("mxd", 200, "Path to map document containing layer definition."),
			referenceDateColumn,
		},
	},
	records.KindMap: {
		Kind:    records.KindMap,
		Comment: "Information about configured maps.",
		Columns: []Column{
			keyColumn,
			varchar("app_id", 255, "Unique id for map."),
			varchar("env", 32, "Environment of the corresponding map."),
			varchar("title", 512, "Title of the map."),
			typed("version", TypeInteger, "MapApps version of the map, i.e. 3 or 4."),
			varchar("description", 2048, "Description of the map."),
			varchar("status", 255, "Status of the map."),
			typed("loaded_bundles", TypeVarcharArray, "Bundles loaded in the map."),
			typed("configured_bundles", TypeVarcharArray, "Bundles configured in the map."),
			typed("domain_bundles", TypeVarcharArray, "Domain bundles registered in the map."),
			typed("domain_bundles_used", TypeBoolean, "Indicator whether the map is currently using domain bundles."),
			typed("enabled", TypeBoolean, "Indicator whether the map is currently enabled."),
			typed("created_at", TypeTimestamp, "Time of map creation."),
			varchar("created_by", 512, "Name of the map creator."),
			typed("modified_at", TypeTimestamp, "Time of last map modification."),
			varchar("modified_by", 512, "Name of the one last modifying the map."),
			varchar("sharedgroups_count", 512, "Number of groups the map was made accessible to."),
			typed("sharedgroups", TypeVarcharArray, "The groups the map was made accessible to."),
			varchar("url", 512, "URL of the map."),
			referenceDateColumn,
		},
	},
	records.KindSearchStore: {
		Kind:    records.KindSearchStore,
		Comment: "Information about configured search stores in maps.",
		Columns: []Column{
			keyColumn,
			varchar("app_id", 255, "ID of the corresponding map."),
			varchar("app_title", 512, "Title of the map."),
			varchar("env", 32, "Environment of the corresponding map."),
			varchar("search_id", 255, "Unique ID of the search store within the corresponding map."),
			varchar("title", 512, "Title of the search store, shown in dropdown and selection UI."),
			varchar("description", 2048, "Description of the search store."),
			varchar("url", 2048, "URL of underlying map service."),
			varchar("svc_directory", 512, "ArcGIS server directory of underlying map service."),
			varchar("svc_name", 512, "Name of underlying map service."),
			typed("svc_layer_id", TypeInteger, "ID of the layer in the underlying map service the search is performed on."),
			varchar("svc_env", 32, "Environment of underlying map service."),
			varchar("search_attribute", 512, "Name of the attribute the search is performed on."),
			varchar("search_label_attribute", 512, "Name of the attribute whose value is used for the result list."),
			typed("search_priority", TypeInteger, "Display priority for search store."),
			typed("enable_pagination", TypeBoolean, "Indicator whether search results are displayed on multiple pages."),
			typed("search_pagesize", TypeInteger, "Number of results in the result list per page."),
			typed("search_typing_delay", TypeInteger, "Milliseconds of delay between typing and displaying suggestions."),
			typed("search_auto_activate", TypeBoolean, "Indicator whether data store is selected when map starts."),
			varchar("search_label", 512, "Placeholder text, shown in search input field on map."),
			typed("fetch_id_property", TypeBoolean, "Indicator whether ID property is automatically resolved."),
			varchar("id_property", 512, "ID field (only used if fetch_id_property is false)."),
			typed("used_in_search", TypeBoolean, "Indicator whether the store is used for searching."),
			typed("used_in_selection", TypeBoolean, "Indicator whether the store is used for selection."),
			referenceDateColumn,
		},
	},
	records.KindBasemap: {
		Kind:    records.KindBasemap,
		Comment: "Information about configured base map services in maps.",
		Columns: []Column{
			keyColumn,
			varchar("app_id", 255, "ID of the corresponding map."),
			varchar("app_title", 512, "Title of the map."),
			varchar("env", 32, "Environment of the corresponding map."),
			varchar("svc_id", 100, "ID of the map service used in the map."),
			varchar("svc_title", 100, "Title of the map service, if applicable."),
			varchar("svc_type", 25, "Type of the map service."),
			varchar("svc_description", 1024, "Description of the map service, if applicable."),
			varchar("svc_url", 512, "URL of the map service, as specified in the map configuration."),
			referenceDateColumn,
		},
	},
	records.KindMapServiceReference: {
		Kind:    records.KindMapServiceReference,
		Comment: "Information about configured map services in maps.",
		Columns: []Column{
			keyColumn,
			varchar("app_id", 255, "ID of the corresponding map."),
			varchar("app_title", 512, "Title of the map."),
			varchar("env", 32, "Environment of the corresponding map."),
			varchar("svc_id", 100, "ID of the map service used in the map."),
			varchar("svc_title", 100, "Title of the map service, as specified in the map configuration."),
			varchar("svc_type", 25, "Type of the map service."),
			varchar("svc_url", 512, "URL of the underlying map service, as specified in the map configuration."),
			varchar("svc_name", 100, "Name of the underlying map service."),
			varchar("svc_env", 32, "Environment of underlying map service."),
			typed("valid", TypeBoolean, "Indicates whether the service url is valid."),
			typed("secured", TypeBoolean, "Indicates whether the service is secured via the security relay."),
			referenceDateColumn,
		},
	},
}

// Name is a [schema.]table reference
type Name struct {
	Schema string
	Table  string
}

// ParseName splits "schema.table"; a name without a dot uses the search path
func ParseName(name string) (Name, error) {
	parts := strings.Split(name, ".")
	switch {
	case len(parts) == 1 && parts[0] != "":
		return Name{Table: parts[0]}, nil
	case len(parts) == 2 && parts[0] != "" && parts[1] != "":
		return Name{Schema: parts[0], Table: parts[1]}, nil
	default:
		return Name{}, fmt.Errorf("invalid table name %q, expected [schema.]table", name)
	}
}

// Identifier returns the pgx identifier of n
func (n Name) Identifier() pgx.Identifier {
	if n.Schema == "" {
		return pgx.Identifier{n.Table}
	}
	return pgx.Identifier{n.Schema, n.Table}
}

// Sanitize returns n quoted for use in SQL text
func (n Name) Sanitize() string {
	return n.Identifier().Sanitize()
}

func (n Name) String() string {
	if n.Schema == "" {
		return n.Table
	}
	return n.Schema + "." + n.Table
}

// Table binds a definition to a concrete table name
type Table struct {
	Name Name
	*Definition
}

// NewTable resolves the definition of kind under name
func NewTable(kind records.Kind, name string) (*Table, error) {
	def, ok := Definitions[kind]
	if !ok {
		return nil, fmt.Errorf("no table definition for kind %q", kind)
	}
	n, err := ParseName(name)
	if err != nil {
		return nil, err
	}
	return &Table{Name: n, Definition: def}, nil
}

// InsertColumns returns the columns written by inserts, in table order
func (t *Table) InsertColumns() []Column {
	return slices.DeleteFunc(slices.Clone(t.Columns), func(c Column) bool {
		return c.Type == TypeSerial
	})
}

// Column returns the column called name
func (t *Table) Column(name string) (Column, bool) {
	i := slices.IndexFunc(t.Columns, func(c Column) bool { return c.Name == name })
	if i < 0 {
		return Column{}, false
	}
	return t.Columns[i], true
}

// HasColumn reports whether the table has a column called name
func (t *Table) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}
