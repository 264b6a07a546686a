package app

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"

	"github.com/Vodafone-NRW-GIS/ma-ags-reports/database"
)

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert migrations",
	Long: `Revert run history migrations of the target database.
WARNING: Reverting the initial migration drops the run history.

Examples:
  # Revert the latest migration
  ma-ags-reports migrate down --num-steps 1 --yes

  # Revert all migrations
  ma-ags-reports migrate down --yes`,
	RunE: runMigrateDown,
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	numSteps, err := cmd.Flags().GetUint("num-steps")
	if err != nil {
		return fmt.Errorf("failed to get num-steps flag: %w", err)
	}
	if numSteps > math.MaxInt32 {
		return fmt.Errorf("number of steps exceeds maximum allowed value")
	}

	connString, redacted, err := targetConnString()
	if err != nil {
		return err
	}

	prompt := fmt.Sprintf("WARNING: This will revert ALL migrations of %s and drop the run history. Continue?", redacted)
	if numSteps > 0 {
		prompt = fmt.Sprintf("WARNING: This will revert %d migration(s) of %s. Continue?", numSteps, redacted)
	}
	ok, err := confirmed(cmd, prompt)
	if err != nil {
		return err
	}
	if !ok {
		slog.Info("Migration cancelled")
		return fmt.Errorf("migration cancelled by user")
	}

	m, err := database.NewFromConnectionString(connString)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if err := executeMigrateDown(m, int(numSteps)); err != nil { // #nosec G115 -- bounded above
		return err
	}

	displayMigrationVersion(m, numSteps)
	return nil
}

func executeMigrateDown(m database.Migrator, numSteps int) error {
	var err error
	if numSteps == 0 {
		slog.Warn("Reverting all migrations")
		err = m.Down()
	} else {
		slog.Info("Reverting migrations", "steps", numSteps)
		err = m.Steps(-numSteps)
	}

	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			slog.Info("No migrations to revert, the database is already at the oldest version")
			return nil
		}
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("Migration completed successfully")
	return nil
}

func displayMigrationVersion(m database.Migrator, numSteps uint) {
	version, dirty, err := m.Version()
	if err != nil {
		if numSteps == 0 {
			slog.Info("All migrations have been reverted")
		} else {
			slog.Warn("Failed to get migration version", "error", err)
		}
		return
	}

	if dirty {
		slog.Warn("Database is dirty, manual intervention may be required", "version", version)
	} else {
		slog.Info("Current migration version", "version", version)
	}
}
