package app

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run history schema migrations",
	Long:  `Manage the run history schema of the target database. Use with 'up' or 'down' subcommands.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Usage()
	},
}

func init() {
	migrateCmd.PersistentFlags().BoolP("yes", "y", false, "Answer yes to all questions")
	migrateCmd.PersistentFlags().UintP("num-steps", "n", 0, "Number of steps to migrate down (0 = all)")

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
}

// targetConnString loads the configuration and returns the target database
// connection string together with its redacted form for display.
func targetConnString() (string, string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return "", "", err
	}
	dbCfg, err := cfg.Database(config.TargetDatabase)
	if err != nil {
		return "", "", err
	}
	if !dbCfg.IsPostgres() {
		return "", "", fmt.Errorf("the target database must be PostgreSQL, got %q", dbCfg.Dialect)
	}
	connString, err := dbCfg.GetConnectionString()
	if err != nil {
		return "", "", fmt.Errorf("failed to build connection string: %w", err)
	}
	return connString, dbCfg.Redacted(), nil
}

// confirm asks prompt on out and reads a yes/no answer from in
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s (yes/no): ", prompt)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "yes", "y":
		return true
	default:
		return false
	}
}

// confirmed reports whether --yes was given or the user agreed to prompt
func confirmed(cmd *cobra.Command, prompt string) (bool, error) {
	yes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return false, fmt.Errorf("failed to get yes flag: %w", err)
	}
	if yes {
		return true, nil
	}
	return confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), prompt), nil
}
