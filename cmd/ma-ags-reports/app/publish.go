package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/config"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/confluence"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/publish"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/report"
)

var publishCmd = &cobra.Command{
	Use:   "publish <service_layers|applications|all>",
	Short: "Publish the latest report rows to the wiki",
	Long: `Render the most recent reference date of a report table and create or update
the report's wiki page.

Examples:
  # Show the beginning of the rendered page without publishing it
  ma-ags-reports publish service_layers --dry-run

  # Publish every configured report
  ma-ags-reports publish all`,
	Args: cobra.ExactArgs(1),
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().Bool("dry-run", false, "Render and log the page without publishing it")
}

// publishTypes resolves the selector against the configured publications.
// "all" silently narrows to the configured reports; an explicit type must be configured.
func publishTypes(selector string, cc *config.ConfluenceConfig) ([]string, error) {
	types, err := report.ResolveTypes(selector)
	if err != nil {
		return nil, err
	}
	if cc == nil {
		return nil, fmt.Errorf("confluence is not configured")
	}

	configured := make([]string, 0, len(types))
	for _, t := range types {
		if _, ok := cc.Reports[t]; ok {
			configured = append(configured, t)
			continue
		}
		if len(types) == 1 {
			return nil, fmt.Errorf("no publication configured for report %q", t)
		}
		slog.Debug("Skipping report without publication", "report", t)
	}
	if len(configured) == 0 {
		return nil, fmt.Errorf("no publication configured for %q", selector)
	}
	return configured, nil
}

func runPublish(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return fmt.Errorf("failed to get dry-run flag: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	types, err := publishTypes(args[0], cfg.Confluence)
	if err != nil {
		return err
	}

	tel, shutdown, err := startTelemetry(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdown()

	pool, err := openTarget(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer pool.Close()

	var wiki confluence.Publisher
	if !dryRun {
		token, err := cfg.Confluence.Token()
		if err != nil {
			return fmt.Errorf("failed to resolve confluence token: %w", err)
		}
		wiki = confluence.NewClient(cfg.Confluence.BaseURL, cfg.Confluence.Username, token,
			transportOptions(cfg, tel)...)
	}

	publisher := publish.New(pool, wiki, cfg.Confluence.Reports)

	var errs []error
	for _, reportType := range types {
		if _, err := publisher.Publish(ctx, reportType, dryRun); err != nil {
			slog.Error("Publication failed", "report", reportType, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
