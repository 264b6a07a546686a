package app

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Vodafone-NRW-GIS/ma-ags-reports/database"
)

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	Long: `Apply all pending migrations to the target database. The connection
parameters are read from the databases.target section of the config file.`,
	RunE: runMigrateUp,
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	connString, redacted, err := targetConnString()
	if err != nil {
		return err
	}

	ok, err := confirmed(cmd, fmt.Sprintf("About to apply migrations to %s. Continue?", redacted))
	if err != nil {
		return err
	}
	if !ok {
		slog.Info("Migration cancelled by user")
		return nil
	}

	slog.Info("Applying database migrations...", "database", redacted)
	version, err := database.MigrateUp(connString)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("Migrations applied successfully", "version", version)
	return nil
}
