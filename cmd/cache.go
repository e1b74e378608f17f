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

// cacheSetup loads the minimal configuration needed for cache operations.
func cacheSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend := schema.DatabaseBackend(viper.GetString("cache-backend"))
	connStr := viper.GetString("cache-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// No result store for cache commands
	if err := iocache.InitStores(backend, connStr, "", ""); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr
	return nil
}

func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheSetup()
}

// cacheCmd focused on series cache management.
//
// Cache subcommands skip sharedSetup so that no station or period flags are validated.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the aligned series cache",
	Long: `Manage the cache of aligned lag series.

An entry is keyed by the raw station data and every option that changes the alignment,
so editing an input file or switching modes simply misses the cache.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None

Subcommands:
  status - Show cache statistics and connection info
  clear  - Remove all cached data

Examples:
  climacomp cache status
  climacomp cache clear`,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached series",
	Long: `Delete all cached series from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache table

Examples:
  climacomp cache clear
  CLIMACOMP_CACHE_BACKEND=mysql CLIMACOMP_CACHE_DB_CONNECT="..." climacomp cache clear`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		path := contract.GetCacheDBFilePath()
		if cfg.CacheBackend == schema.SQLiteBackend && cfg.CacheDBConnect != "" {
			path = cfg.CacheDBConnect
		}
		if err := iocache.ClearCache(cfg.CacheBackend, path, cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show the backend, connection state, entry count, entry age and size of the series cache.

Examples:
  climacomp cache status`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetSeriesStore()
		if store == nil {
			contract.LogFatal("Failed to get cache status", fmt.Errorf("cache backend %s is not initialized", cfg.CacheBackend))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(os.Stdout, status)
	},
}
