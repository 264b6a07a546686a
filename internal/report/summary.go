package report

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/records"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/runs"
)

type summaryRow struct {
	kind  records.Kind
	table string
	rows  int
}

// renderSummary prints the rows a dry run would have written
func renderSummary(out io.Writer, run *runs.Run, rows []summaryRow) {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	t.SetTitle("Dry run: " + run.ReportType + " (" + run.Env + ")")
	t.AppendHeader(table.Row{"Kind", "Table", "Rows"})

	total := 0
	for _, r := range rows {
		t.AppendRow(table.Row{string(r.kind), r.table, r.rows})
		total += r.rows
	}
	t.AppendFooter(table.Row{"", "Total", total})
	t.Render()
}
