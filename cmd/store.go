package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/climacomp/internal/contract"
	"github.com/huangsam/climacomp/internal/iocache"
	"github.com/huangsam/climacomp/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// storeConfig reads the result store backend and connection string.
func storeConfig() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}
	backend := schema.DatabaseBackend(viper.GetString("store-backend"))
	connStr := viper.GetString("store-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	return backend, connStr, nil
}

// storeSetup opens the result store without the series cache.
func storeSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := storeConfig()
	if err != nil {
		return err
	}
	if backend == schema.NoneBackend {
		return fmt.Errorf("store backend is none; set --store-backend to sqlite, mysql or postgresql")
	}
	if err := iocache.InitStores("", "", backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize result store: %w", err)
	}
	return nil
}

// storeCmd manages the run result store.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage stored alignment and forecast results",
	Long: `Manage the result store that records runs, aligned lag records and forecasts.

Results are only recorded when align or forecast run with --store-backend set.

Subcommands:
  status  - Show row counts and run times
  export  - Export every table to parquet
  clear   - Drop all stored results
  migrate - Apply or roll back schema migrations

Examples:
  climacomp store status --store-backend sqlite
  climacomp store export --store-backend sqlite --output-file results`,
}

var storeStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display result store statistics",
	PreRunE: storeSetup,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iocache.Manager.GetResultStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get store status", err)
		}
		iocache.PrintStoreStatus(os.Stdout, status)
	},
}

var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored results",
	Long: `Export runs, lag records and forecasts.

Writes one parquet file per table, named <output-file>.runs.parquet,
<output-file>.lag_records.parquet and <output-file>.forecasts.parquet.

Examples:
  climacomp store export --store-backend sqlite --output-file results`,
	PreRunE: storeSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExportStore(os.Stdout, iocache.Manager.GetResultStore(), viper.GetString("output-file")); err != nil {
			contract.LogFatal("Failed to export store", err)
		}
	},
}

var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored results",
	Long: `Drop all result store tables.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the runs, lag record, forecast and migration tables`,
	Run: func(_ *cobra.Command, _ []string) {
		backend, connStr, err := storeConfig()
		if err != nil {
			contract.LogFatal("Failed to clear store", err)
		}
		path := contract.GetStoreDBFilePath()
		if backend == schema.SQLiteBackend && connStr != "" {
			path = connStr
		}
		if err := iocache.ClearStore(backend, path, connStr); err != nil {
			contract.LogFatal("Failed to clear store", err)
		}
		fmt.Println("Store cleared successfully.")
	},
}

var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply result store schema migrations",
	Long: `Migrate the result store schema with golang-migrate.

Examples:
  # Migrate to the latest version
  climacomp store migrate --store-backend postgresql --store-db-connect "postgres://..."

  # Roll back to the initial state
  climacomp store migrate --store-backend sqlite --target-version 0`,
	Run: func(_ *cobra.Command, _ []string) {
		backend, connStr, err := storeConfig()
		if err != nil {
			contract.LogFatal("Failed to migrate store", err)
		}
		if err := iocache.MigrateStore(os.Stdout, backend, connStr, viper.GetInt("target-version")); err != nil {
			contract.LogFatal("Failed to migrate store", err)
		}
	},
}
