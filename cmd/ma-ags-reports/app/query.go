package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/arcgis"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/availability"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/config"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/httpclient"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/mapapps"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/reconcile"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/report"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/runs"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/telemetry"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/warehouse"
)

var queryCmd = &cobra.Command{
	Use:   "query <service_layers|applications|all>",
	Short: "Harvest a configuration report into the reporting tables",
	Long: `Harvest the configuration of one environment and replace that environment's
rows of today in the reporting tables.

Examples:
  # Harvest the map service datasets of the test environment
  ma-ags-reports query service_layers -e test

  # Harvest the first 10 applications without touching the database
  ma-ags-reports query applications -e prod --dry-run --limit 10

  # Drop and recreate the tables, then harvest everything
  ma-ags-reports query all -e prod --initial`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	addQueryFlags(queryCmd.Flags())

	if err := queryCmd.MarkFlagRequired("environment"); err != nil {
		panic(err)
	}
}

func addQueryFlags(fs *pflag.FlagSet) {
	fs.StringP("environment", "e", "", "Environment to query (required)")
	fs.Bool("dry-run", false, "Harvest without writing to the database")
	fs.Bool("initial", false, "Drop and recreate the target tables before writing")
	fs.IntP("limit", "l", 0, "Process at most this many services or applications (0 = all)")
}

// driver is one report pipeline bound to an environment
type driver interface {
	Run(ctx context.Context, opts report.Options) (*runs.Run, error)
}

func queryOptions(cmd *cobra.Command) (report.Options, error) {
	var opts report.Options
	var err error

	if opts.Env, err = cmd.Flags().GetString("environment"); err != nil {
		return opts, fmt.Errorf("failed to get environment flag: %w", err)
	}
	if opts.DryRun, err = cmd.Flags().GetBool("dry-run"); err != nil {
		return opts, fmt.Errorf("failed to get dry-run flag: %w", err)
	}
	if opts.Initial, err = cmd.Flags().GetBool("initial"); err != nil {
		return opts, fmt.Errorf("failed to get initial flag: %w", err)
	}
	if opts.Limit, err = cmd.Flags().GetInt("limit"); err != nil {
		return opts, fmt.Errorf("failed to get limit flag: %w", err)
	}
	if opts.Limit < 0 {
		return opts, fmt.Errorf("limit must not be negative")
	}
	if opts.DryRun && opts.Initial {
		slog.Warn("--initial has no effect on a dry run")
	}
	return opts, nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	types, err := report.ResolveTypes(args[0])
	if err != nil {
		return err
	}

	opts, err := queryOptions(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	env, err := cfg.Environment(opts.Env)
	if err != nil {
		return err
	}

	tel, shutdown, err := startTelemetry(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdown()

	metrics, err := telemetry.NewRunMetrics(tel.MeterProvider())
	if err != nil {
		return fmt.Errorf("failed to create run metrics: %w", err)
	}

	pool, err := openTarget(ctx, cfg, !opts.DryRun)
	if err != nil {
		return err
	}
	defer pool.Close()

	pipeline := &report.Pipeline{
		Tables:     cfg.Tables,
		Schema:     warehouse.NewManager(pool),
		Reconciler: reconcile.New(pool, reconcile.WithDryRun(opts.DryRun)),
		Recorder:   runs.NewDBRecorder(pool),
		Metrics:    metrics,
		Tracer:     tel.Tracer(tracerName),
		Out:        cmd.OutOrStdout(),
	}
	transport := httpclient.NewDefaultClient(transportOptions(cfg, tel)...)

	var errs []error
	for _, reportType := range types {
		d, closeDriver, err := newDriver(ctx, reportType, cfg, env, pipeline, transport)
		if err != nil {
			slog.Error("Unable to set up report", "report", reportType, "env", opts.Env, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", reportType, err))
			continue
		}

		if _, err := d.Run(ctx, opts); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", reportType, err))
		}
		closeDriver()
	}

	return errors.Join(errs...)
}

// newDriver builds the driver for reportType. The returned func releases the
// resources the driver holds.
func newDriver(
	ctx context.Context,
	reportType string,
	cfg *config.Config,
	env config.EnvironmentConfig,
	pipeline *report.Pipeline,
	transport httpclient.Client,
) (driver, func(), error) {
	switch reportType {
	case report.TypeServiceLayers:
		agsCreds, err := cfg.ArcGIS.Resolve(config.EnvAGSPassword)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve ArcGIS credentials: %w", err)
		}
		client := arcgis.NewClient(transport, env, agsCreds)
		return report.NewServiceLayerDriver(pipeline, client, env, cfg.ServicesToSkip), func() {}, nil

	case report.TypeApplications:
		if env.MADatabase == "" {
			return nil, nil, fmt.Errorf("environment has no maDatabase configured")
		}
		dbCfg, err := cfg.Database(env.MADatabase)
		if err != nil {
			return nil, nil, err
		}
		maCreds, err := cfg.MapApps.Resolve(config.EnvMapAppsPassword)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve map.apps credentials: %w", err)
		}

		source, err := mapapps.OpenSource(ctx, dbCfg, cfg.MapApps)
		if err != nil {
			return nil, nil, err
		}
		closeSource := func() {
			if err := source.Close(); err != nil {
				slog.Warn("Error closing map.apps database", "error", err)
			}
		}

		// services referenced by applications are checked as the map.apps user
		d := report.NewApplicationDriver(
			pipeline,
			source,
			mapapps.NewClient(transport, maCreds),
			availability.NewChecker(transport, cfg, maCreds),
			cfg,
			env.MABaseURL,
		)
		return d, closeSource, nil

	default:
		return nil, nil, fmt.Errorf("unknown report %q", reportType)
	}
}
