package reconcile

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/records"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/warehouse"
)

// Rows is a batch flattened into a uniform column set
type Rows struct {
	Columns []string
	Values  [][]any
}

// Len returns the number of rows
func (r *Rows) Len() int {
	return len(r.Values)
}

// Normalize unions the keys of recs and lays every record out over that union
// in table column order. Missing keys become NULL. A key the table does not
// have is an error. A value that cannot be converted to its column type is
// stored as NULL with a warning. The records are not modified.
func Normalize(t *warehouse.Table, recs []records.Record) (*Rows, error) {
	union := map[string]struct{}{}
	for _, rec := range recs {
		for key := range rec {
			union[key] = struct{}{}
		}
	}

	columns := make([]warehouse.Column, 0, len(union))
	for _, c := range t.InsertColumns() {
		if _, ok := union[c.Name]; ok {
			columns = append(columns, c)
			delete(union, c.Name)
		}
	}
	if len(union) > 0 {
		unknown := make([]string, 0, len(union))
		for key := range union {
			unknown = append(unknown, key)
		}
		slices.Sort(unknown)
		return nil, fmt.Errorf("table %s has no columns %v", t.Name, unknown)
	}

	out := &Rows{
		Columns: make([]string, len(columns)),
		Values:  make([][]any, 0, len(recs)),
	}
	for i, c := range columns {
		out.Columns[i] = c.Name
	}

	for _, rec := range recs {
		row := make([]any, len(columns))
		for i, c := range columns {
			v, err := c.Coerce(rec[c.Name])
			if err != nil {
				slog.Warn("Storing NULL for unconvertible value",
					"table", t.Name.String(), "column", c.Name, "error", err)
				v = nil
			}
			row[i] = v
		}
		out.Values = append(out.Values, row)
	}
	return out, nil
}
