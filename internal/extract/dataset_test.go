package extract

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDatasetPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     string
		expected DatasetRef
	}{
		{
			name:     "three part reference",
			path:     `C:\conn\gis.sde\GISDB.Water.Pipes`,
			expected: DatasetRef{Connection: "gis.sde", DB: "GISDB", Schema: "water", Table: "pipes"},
		},
		{
			name:     "two part reference",
			path:     `C:\conn\ora.sde\REF.Districts`,
			expected: DatasetRef{Connection: "ora.sde", DB: TwoPartDatabase, Schema: "ref", Table: "districts"},
		},
		{
			name:     "single part reference",
			path:     `C:\data\shapes\Parcels`,
			expected: DatasetRef{Connection: "shapes", DB: UnknownPart, Schema: UnknownPart, Table: "parcels"},
		},
		{
			name:     "no backslash",
			path:     `Parcels`,
			expected: DatasetRef{DB: UnknownPart, Schema: UnknownPart, Table: "parcels"},
		},
		{
			name:     "four dotted parts fall back",
			path:     `conn\a.b.c.d`,
			expected: DatasetRef{Connection: "conn", DB: UnknownPart, Schema: UnknownPart, Table: "a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, ParseDatasetPath(tt.path))
		})
	}
}

// Any path of three or more segments with a three-part reference yields the
// dotted parts, schema and table lower-cased.
func TestParseDatasetPath_ThreePartProperty(t *testing.T) {
	t.Parallel()

	dbs := []string{"GISDB", "gis_prod", "X1"}
	schemas := []string{"Water", "REF", "planning"}
	tables := []string{"Pipes", "DISTRICTS", "zone_A"}
	prefixes := []string{`C:\conn`, `\\share\gis\conn`, `D:\a\b\c\d`}

	for _, prefix := range prefixes {
		for i := range dbs {
			path := fmt.Sprintf(`%s\%s\%s.%s.%s`, prefix, "x.sde", dbs[i], schemas[i], tables[i])
			ref := ParseDatasetPath(path)
			assert.Equal(t, dbs[i], ref.DB, path)
			assert.Equal(t, strings.ToLower(schemas[i]), ref.Schema, path)
			assert.Equal(t, strings.ToLower(tables[i]), ref.Table, path)
			assert.Equal(t, "x.sde", ref.Connection, path)
		}
	}
}
