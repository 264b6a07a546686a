package warehouse

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool used by the warehouse, reconciler and publisher
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TableError is a persistence failure scoped to one table. It aborts only
// that table's reconciliation.
type TableError struct {
	Table string
	Op    string
	Err   error
}

func (e *TableError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
}

func (e *TableError) Unwrap() error {
	return e.Err
}

//go:generate mockgen -destination=mocks/mock_schema.go -package=mocks -source=schema.go SchemaManager

// SchemaManager creates reporting tables
type SchemaManager interface {
	// Ensure creates the table when it does not exist
	Ensure(ctx context.Context, t *Table) error

	// Recreate drops and creates the table
	Recreate(ctx context.Context, t *Table) error
}

// Manager implements SchemaManager against PostgreSQL
type Manager struct {
	db DB
}

var _ SchemaManager = (*Manager)(nil)

// NewManager creates a Manager
func NewManager(db DB) *Manager {
	return &Manager{db: db}
}

// Exists reports whether the table is present
func (m *Manager) Exists(ctx context.Context, t *Table) (bool, error) {
	var exists bool
	err := m.db.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", t.Name.Sanitize()).Scan(&exists)
	if err != nil {
		return false, &TableError{Table: t.Name.String(), Op: "inspect", Err: err}
	}
	return exists, nil
}

// Ensure implements SchemaManager.Ensure
func (m *Manager) Ensure(ctx context.Context, t *Table) error {
	exists, err := m.Exists(ctx, t)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	slog.Info("Creating table", "table", t.Name.String())
	return m.apply(ctx, t, "create", CreateStatements(t))
}

// Recreate implements SchemaManager.Recreate
func (m *Manager) Recreate(ctx context.Context, t *Table) error {
	slog.Warn("Dropping and recreating table", "table", t.Name.String())
	stmts := append([]string{"DROP TABLE IF EXISTS " + t.Name.Sanitize()}, CreateStatements(t)...)
	return m.apply(ctx, t, "recreate", stmts)
}

func (m *Manager) apply(ctx context.Context, t *Table, op string, stmts []string) error {
	err := pgx.BeginFunc(ctx, m.db, func(tx pgx.Tx) error {
		for _, stmt := range stmts {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("%s: %w", firstLine(stmt), err)
			}
		}
		return nil
	})
	if err != nil {
		return &TableError{Table: t.Name.String(), Op: op, Err: err}
	}
	return nil
}

// CreateStatements returns the DDL for t: the table, its reference_date index
// and the table and column comments.
func CreateStatements(t *Table) []string {
	name := t.Name.Sanitize()

	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		cols = append(cols, fmt.Sprintf("%s %s", pgx.Identifier{c.Name}.Sanitize(), c.SQLType()))
	}

	stmts := []string{
		fmt.Sprintf("CREATE TABLE %s (\n\t%s\n)", name, strings.Join(cols, ",\n\t")),
		fmt.Sprintf("CREATE INDEX %s ON %s (reference_date)",
			pgx.Identifier{t.Name.Table + "_reference_date_idx"}.Sanitize(), name),
		fmt.Sprintf("COMMENT ON TABLE %s IS %s", name, quoteLiteral(t.Comment)),
	}
	for _, c := range t.Columns {
		stmts = append(stmts, fmt.Sprintf("COMMENT ON COLUMN %s.%s IS %s",
			name, pgx.Identifier{c.Name}.Sanitize(), quoteLiteral(c.Comment)))
	}
	return stmts
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
