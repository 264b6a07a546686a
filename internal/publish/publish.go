// Package publish renders the most recent partition of a reporting table and
// publishes it as a wiki page.
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/config"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/confluence"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/warehouse"
)

// PreviewLength is the number of characters a dry run logs
const PreviewLength = 5000

// Publisher publishes report pages
type Publisher struct {
	db      warehouse.DB
	wiki    confluence.Publisher
	reports map[string]config.PublicationConfig
	now     func() time.Time
}

// New creates a Publisher. wiki may be nil when only dry runs are made.
func New(db warehouse.DB, wiki confluence.Publisher, reports map[string]config.PublicationConfig) *Publisher {
	return &Publisher{db: db, wiki: wiki, reports: reports, now: time.Now}
}

// Result is the outcome of one publication
type Result struct {
	ReportType string
	Rows       int
	Body       string

	// Outcome is nil for dry runs
	Outcome *confluence.Outcome
}

// Publish renders the latest rows of the report's source table and creates
// or updates its page. A dry run logs the beginning of the body instead.
func (p *Publisher) Publish(ctx context.Context, reportType string, dryRun bool) (*Result, error) {
	pc, ok := p.reports[reportType]
	if !ok {
		return nil, fmt.Errorf("no publication configured for report %q", reportType)
	}

	snapshot, err := warehouse.LatestPartition(ctx, p.db, pc.SourceTable, pc.SortColumns)
	if err != nil {
		return nil, err
	}
	slog.Info("Rows retrieved to be published", "report", reportType, "table", pc.SourceTable, "rows", len(snapshot.Rows))

	tmpl, err := LoadTemplate(reportType, pc.Template)
	if err != nil {
		return nil, err
	}
	body, err := Render(tmpl, NewData(pc.Title, snapshot, p.now()))
	if err != nil {
		return nil, err
	}

	result := &Result{ReportType: reportType, Rows: len(snapshot.Rows), Body: body}
	if dryRun {
		slog.Info("Dry run, the following content would be published", "report", reportType,
			"content", Preview(body, PreviewLength))
		return result, nil
	}

	if p.wiki == nil {
		return nil, fmt.Errorf("confluence is not configured")
	}
	outcome, err := p.wiki.CreateOrUpdatePage(ctx, pc.PageID, pc.Title, body)
	if err != nil {
		return nil, fmt.Errorf("failed to publish %s: %w", reportType, err)
	}
	result.Outcome = outcome

	action := "Updated"
	if outcome.Created {
		action = "Created"
	}
	slog.Info(action+" report page", "report", reportType, "page_id", outcome.Page.ID,
		"version", outcome.Page.Version.Number, "url", outcome.URL)
	return result, nil
}

// Preview returns the first n characters of s, marking a cut with "..."
func Preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
