package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/config"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/httpclient"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/telemetry"
)

const (
	tracerName      = "github.com/Vodafone-NRW-GIS/ma-ags-reports"
	shutdownTimeout = 10 * time.Second
)

// openTarget creates the pool for the reporting database. ping verifies the
// connection up front; pools otherwise connect lazily.
func openTarget(ctx context.Context, cfg *config.Config, ping bool) (*pgxpool.Pool, error) {
	dbCfg, err := cfg.Database(config.TargetDatabase)
	if err != nil {
		return nil, err
	}

	connString, err := dbCfg.GetConnectionString()
	if err != nil {
		return nil, fmt.Errorf("failed to build connection string: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string for %s: %w", dbCfg.Redacted(), err)
	}
	if dbCfg.MaxConns > 0 {
		poolCfg.MaxConns = dbCfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool for %s: %w", dbCfg.Redacted(), err)
	}

	if ping {
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to connect to %s: %w", dbCfg.Redacted(), err)
		}
	}

	slog.Debug("Connected to target database", "database", dbCfg.Redacted())
	return pool, nil
}

// startTelemetry initializes the providers and returns a shutdown func that
// flushes them with its own timeout.
func startTelemetry(ctx context.Context, cfg *config.Config) (*telemetry.Telemetry, func(), error) {
	tel, err := telemetry.New(ctx, cfg.Telemetry)
	if err != nil {
		return nil, nil, err
	}
	shutdown := func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Failed to shut down telemetry", "error", err)
		}
	}
	return tel, shutdown, nil
}

// transportOptions returns the HTTP settings shared by every outbound client
func transportOptions(cfg *config.Config, tel *telemetry.Telemetry) []httpclient.Option {
	opts := []httpclient.Option{
		httpclient.WithTimeout(cfg.HTTP.GetTimeout()),
		httpclient.WithInsecureSkipVerify(cfg.HTTP.GetInsecureSkipVerify()),
	}
	if tel != nil {
		opts = append(opts, httpclient.WithTracerProvider(tel.TracerProvider()))
	}
	return opts
}
