package publish

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"path/filepath"
	"strings"
	"time"

	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/warehouse"
)

//go:embed templates/*.html.tmpl
var templatesFS embed.FS

const genericTemplate = "table"

// Data is what report templates render
type Data struct {
	Title         string
	Table         string
	ReferenceDate string
	GeneratedAt   time.Time
	Columns       []string
	Rows          []map[string]any
}

// NewData wraps a snapshot for rendering
func NewData(title string, snapshot *warehouse.Snapshot, now time.Time) Data {
	data := Data{
		Title:       title,
		Table:       snapshot.Table,
		GeneratedAt: now,
		Columns:     snapshot.Columns,
		Rows:        snapshot.Rows,
	}
	if len(snapshot.Rows) > 0 {
		data.ReferenceDate = formatValue(snapshot.Rows[0]["reference_date"])
	}
	return data
}

var funcs = template.FuncMap{
	"value": formatValue,
}

// formatValue renders a column value for a table cell
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "yes"
		}
		return "no"
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format("2006-01-02 15:04")
	case []string:
		return strings.Join(x, ", ")
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			parts = append(parts, formatValue(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}

// LoadTemplate returns the template at path, or the built-in template of
// reportType when path is empty. Unknown report types use a generic table.
func LoadTemplate(reportType, path string) (*template.Template, error) {
	if path != "" {
		tmpl, err := template.New(filepath.Base(path)).Funcs(funcs).ParseFiles(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load template %s: %w", path, err)
		}
		return tmpl, nil
	}

	name := reportType + ".html.tmpl"
	if _, err := templatesFS.Open("templates/" + name); err != nil {
		name = genericTemplate + ".html.tmpl"
	}
	tmpl, err := template.New(name).Funcs(funcs).ParseFS(templatesFS, "templates/"+name)
	if err != nil {
		return nil, fmt.Errorf("failed to load built-in template %s: %w", name, err)
	}
	return tmpl, nil
}

// Render executes tmpl with data
func Render(tmpl *template.Template, data Data) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
