package warehouse

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Snapshot holds the rows of the most recent reference date of a table
type Snapshot struct {
	Table   string
	Columns []string
	Rows    []map[string]any
}

// Columns returns the column names of the table called name, in ordinal order
func Columns(ctx context.Context, db DB, name Name) ([]string, error) {
	rows, err := db.Query(ctx, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = COALESCE(NULLIF($1, ''), current_schema()) AND table_name = $2
		ORDER BY ordinal_position`, name.Schema, name.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", name, err)
	}
	cols, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", name, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %s does not exist", name)
	}
	return cols, nil
}

// LatestPartition reads every row whose reference_date is the table maximum,
// ordered by sortColumns. Sort columns the table lacks are dropped and the
// order falls back to objectid.
func LatestPartition(ctx context.Context, db DB, table string, sortColumns []string) (*Snapshot, error) {
	name, err := ParseName(table)
	if err != nil {
		return nil, err
	}

	cols, err := Columns(ctx, db, name)
	if err != nil {
		return nil, err
	}

	var order []string
	for _, c := range sortColumns {
		if !slices.Contains(cols, c) {
			slog.Warn("Ignoring unknown sort column", "table", table, "column", c)
			continue
		}
		order = append(order, pgx.Identifier{c}.Sanitize())
	}
	if len(order) == 0 && slices.Contains(cols, KeyColumn) {
		order = append(order, KeyColumn)
	}

	query := fmt.Sprintf("SELECT * FROM %[1]s WHERE reference_date = (SELECT max(reference_date) FROM %[1]s)",
		name.Sanitize())
	if len(order) > 0 {
		query += " ORDER BY " + strings.Join(order, ", ")
	}

	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	data, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}

	return &Snapshot{Table: table, Columns: cols, Rows: data}, nil
}
