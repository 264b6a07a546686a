package mapapps

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	// registers the "pgx" database/sql driver
	_ "github.com/jackc/pgx/v5/stdlib"
	// registers the "sqlite" database/sql driver
	_ "modernc.org/sqlite"

	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/config"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/records"
)

//go:generate mockgen -destination=mocks/mock_source.go -package=mocks -source=source.go AppSource

// AppSource lists map.apps applications and their shared groups.
type AppSource interface {
	// ListApps returns the applications ordered by id; limit > 0 caps the count
	ListApps(ctx context.Context, limit int) ([]App, error)

	// SharedGroups returns the groups an application is shared with
	SharedGroups(ctx context.Context, appID string) ([]string, error)
}

// App is one row of the applications table.
type App struct {
	ID                string
	Title             sql.NullString
	Description       sql.NullString
	EditState         sql.NullString
	Enabled           sql.NullBool
	CreatedAt         *time.Time
	CreatedBy         sql.NullString
	ModifiedAt        *time.Time
	ModifiedBy        sql.NullString
	SharedGroupsCount sql.NullString
}

// Record returns the map record columns taken from the application row.
func (a App) Record(env string, referenceDate time.Time) records.Record {
	rec := records.New(env, referenceDate)
	rec["app_id"] = a.ID
	rec["title"] = nullString(a.Title)
	rec["description"] = nullString(a.Description)
	rec["status"] = nullString(a.EditState)
	rec["enabled"] = nil
	if a.Enabled.Valid {
		rec["enabled"] = a.Enabled.Bool
	}
	rec["created_at"] = nullTime(a.CreatedAt)
	rec["created_by"] = nullString(a.CreatedBy)
	rec["modified_at"] = nullTime(a.ModifiedAt)
	rec["modified_by"] = nullString(a.ModifiedBy)
	rec["sharedgroups_count"] = nullString(a.SharedGroupsCount)
	return rec
}

func nullString(s sql.NullString) any {
	if !s.Valid {
		return nil
	}
	return s.String
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// SQLSource implements AppSource over database/sql. PostgreSQL is accessed
// through the pgx stdlib driver, SQLite through modernc.org/sqlite.
type SQLSource struct {
	db          *sql.DB
	postgres    bool
	appsTable   string
	groupsTable string
}

var _ AppSource = (*SQLSource)(nil)

// OpenSource connects to the map.apps database described by dbCfg
func OpenSource(ctx context.Context, dbCfg *config.DatabaseConfig, tables config.MapAppsConfig) (*SQLSource, error) {
	dsn, err := dbCfg.GetConnectionString()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dbCfg.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open map.apps database %s: %w", dbCfg.Redacted(), err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to map.apps database %s: %w", dbCfg.Redacted(), err)
	}

	return NewSQLSource(db, dbCfg.IsPostgres(), tables), nil
}

// NewSQLSource wraps an open database handle
func NewSQLSource(db *sql.DB, postgres bool, tables config.MapAppsConfig) *SQLSource {
	return &SQLSource{
		db:          db,
		postgres:    postgres,
		appsTable:   quoteTable(tables.GetAppsTable()),
		groupsTable: quoteTable(tables.GetSharedGroupsTable()),
	}
}

// Close closes the database handle
func (s *SQLSource) Close() error {
	return s.db.Close()
}

// quoteTable quotes a [schema.]table name; both dialects accept double-quoted identifiers
func quoteTable(name string) string {
	return pgx.Identifier(strings.Split(name, ".")).Sanitize()
}

func (s *SQLSource) placeholder(n int) string {
	if s.postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

const appColumns = "id, title, description, editstate, enabled, created_at, created_by, " +
	"modified_at, modified_by, sharedgroups_count"

// ListApps implements AppSource.ListApps
func (s *SQLSource) ListApps(ctx context.Context, limit int) ([]App, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY id", appColumns, s.appsTable)
	var args []any
	if limit > 0 {
		slog.Warn("Limiting applications", "limit", limit)
		query += " LIMIT " + s.placeholder(1)
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query applications: %w", err)
	}
	defer rows.Close()

	var apps []App
	for rows.Next() {
		var app App
		var createdAt, modifiedAt any
		if err := rows.Scan(
			&app.ID, &app.Title, &app.Description, &app.EditState, &app.Enabled,
			&createdAt, &app.CreatedBy, &modifiedAt, &app.ModifiedBy, &app.SharedGroupsCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		if app.CreatedAt, err = toTime(createdAt); err != nil {
			return nil, fmt.Errorf("application %s: created_at: %w", app.ID, err)
		}
		if app.ModifiedAt, err = toTime(modifiedAt); err != nil {
			return nil, fmt.Errorf("application %s: modified_at: %w", app.ID, err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read applications: %w", err)
	}
	return apps, nil
}

// SharedGroups implements AppSource.SharedGroups
func (s *SQLSource) SharedGroups(ctx context.Context, appID string) ([]string, error) {
	query := fmt.Sprintf("SELECT group_name FROM %s WHERE app_id = %s ORDER BY group_name",
		s.groupsTable, s.placeholder(1))

	rows, err := s.db.QueryContext(ctx, query, appID)
	if err != nil {
		return nil, fmt.Errorf("failed to query shared groups of %s: %w", appID, err)
	}
	defer rows.Close()

	groups := make([]string, 0)
	for rows.Next() {
		var group string
		if err := rows.Scan(&group); err != nil {
			return nil, fmt.Errorf("failed to scan shared group: %w", err)
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// toTime converts the driver value of a timestamp column. SQLite hands out
// text or unix seconds depending on how the value was written.
func toTime(v any) (*time.Time, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return &t, nil
	case int64:
		ts := time.Unix(t, 0).UTC()
		return &ts, nil
	case []byte:
		return toTime(string(t))
	case string:
		if t == "" {
			return nil, nil
		}
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, t); err == nil {
				return &ts, nil
			}
		}
		return nil, fmt.Errorf("unrecognised timestamp %q", t)
	default:
		return nil, fmt.Errorf("unsupported timestamp type %T", v)
	}
}
