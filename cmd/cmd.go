// Package cmd defines the command-line interface for climacomp.
package cmd

import (
	"github.com/huangsam/climacomp/internal/contract"
	"github.com/huangsam/climacomp/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(alignCmd)
	rootCmd.AddCommand(forecastCmd)
	rootCmd.AddCommand(calendarCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the store subcommands to the parent store command
	storeCmd.AddCommand(storeClearCmd)
	storeCmd.AddCommand(storeStatusCmd)
	storeCmd.AddCommand(storeExportCmd)
	storeCmd.AddCommand(storeMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("mode", string(schema.TrimesterMode), "Interval mode: trimester or 5days or 10days or 15days")
	rootCmd.PersistentFlags().String("start", "", "First year of the processing period, or 'maximum' for the common span of D and I")
	rootCmd.PersistentFlags().String("end", "", "Last year of the processing period")
	rootCmd.PersistentFlags().String("lags", "0,1,2", "Comma-separated lags to compute")
	rootCmd.PersistentFlags().String("null-tokens", "", "Comma-separated raw tokens read as missing (default nan,NaN,NA,-99999,99999)")
	rootCmd.PersistentFlags().String("null-token", contract.DefaultNullToken, "Token written for missing means")
	rootCmd.PersistentFlags().String("decimal", string(schema.DotSeparator), "Decimal separator: dot or comma (comma switches the field delimiter to ';')")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().String("significance", "no", "Drop non-significant contingency cells (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().String("station-timeout", contract.DefaultStationTimeout.String(), "Deadline for processing one station")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("store-backend", string(schema.NoneBackend), "Result store backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("store-db-connect", "", "Database connection string for the result store (SQLite files must differ from the cache)")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Series cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("metrics-file", "", "Write run metrics to this file in the Prometheus textfile format")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: trace or debug or info or warn or error or disabled")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of alignCmd to Viper
	alignCmd.Flags().String("stations", "", "Path to the station manifest (YAML)")
	alignCmd.Flags().Bool("reports", false, "Write one delimited report per station, lag and period")
	alignCmd.Flags().String("report-dir", contract.DefaultReportDir, "Directory for report files")
	if err := viper.BindPFlags(alignCmd.Flags()); err != nil {
		contract.LogFatal("Error binding align flags", err)
	}

	// Bind all flags of storeMigrateCmd to Viper
	storeMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(storeMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding store migrate flags", err)
	}
}
