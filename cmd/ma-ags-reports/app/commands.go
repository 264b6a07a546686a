// Package app provides the commands of the ma-ags-reports command line tool.
package app

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/config"
	"github.com/Vodafone-NRW-GIS/ma-ags-reports/internal/versions"
)

// Log formats accepted by --log-format.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

const defaultConfigPath = "config.yaml"

// LoggingSetup installs the process logger for a format and debug flag
type LoggingSetup func(format string, debug bool)

var rootCmd = &cobra.Command{
	Use:               "ma-ags-reports",
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	Short:             "Configuration reports for ArcGIS Server and map.apps",
	Long: `ma-ags-reports harvests the configuration of ArcGIS Server map services and
map.apps applications into reporting tables and publishes the results to the wiki.`,
	Run: func(cmd *cobra.Command, _ []string) {
		if err := cmd.Help(); err != nil {
			slog.Error("Error displaying help", "error", err)
		}
	},
}

// NewRootCmd creates the root command. setup is called once the persistent
// flags are parsed; it may be nil.
func NewRootCmd(setup LoggingSetup) *cobra.Command {
	rootCmd.PersistentFlags().String("config", defaultConfigPath, "Path to configuration file (YAML format)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("log-format", LogFormatText, "Log output format (text, json)")

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	for _, name := range []string{"config", "debug", "log-format"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			slog.Error("Error binding flag", "flag", name, "error", err)
		}
		if err := viper.BindEnv(name); err != nil {
			slog.Error("Error binding environment variable", "flag", name, "error", err)
		}
	}

	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		format := viper.GetString("log-format")
		if format != LogFormatText && format != LogFormatJSON {
			return fmt.Errorf("unknown log format %q, expected %s or %s", format, LogFormatText, LogFormatJSON)
		}
		if setup != nil {
			setup(format, viper.GetBool("debug"))
		}
		return nil
	}

	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd)

	return rootCmd
}

// loadConfig reads the file named by --config or MA_AGS_REPORTS_CONFIG
func loadConfig() (*config.Config, error) {
	path := viper.GetString("config")
	if path == "" {
		path = defaultConfigPath
	}
	cfg, err := config.LoadConfig(config.WithConfigPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return cfg, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		info := versions.GetInfo()
		format, err := cmd.Flags().GetString("format")
		if err != nil {
			slog.Error("Error retrieving format flag", "error", err)
			return
		}

		if format == "json" {
			output, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				slog.Error("Error formatting version info as JSON", "error", err)
				return
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(output))
		} else {
			slog.Info("ma-ags-reports version",
				"version", info.Version,
				"commit", info.Commit,
				"built", info.BuildDate,
				"go", info.GoVersion,
				"platform", info.Platform)
		}
	},
}

func init() {
	versionCmd.Flags().String("format", "", "Output format (json)")
}
