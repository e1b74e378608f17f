package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/huangsam/climacomp/internal/contract"
	"github.com/huangsam/climacomp/internal/iocache"
	"github.com/huangsam/climacomp/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.RunConfig{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// cacheManager is the global store manager instance.
var cacheManager contract.CacheManager = iocache.Manager

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:   "climacomp",
	Short: "Align climate series by period and lag, and compute composite forecasts.",
	Long: `Climacomp aggregates a dependent climate variable and a lagged independent index
into analysis periods, and turns historical contingency tables into forecast probabilities.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Set environment variable prefix
	viper.SetEnvPrefix("CLIMACOMP")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// Set defaults in Viper
	viper.SetDefault("mode", string(schema.TrimesterMode))
	viper.SetDefault("lags", "0,1,2")
	viper.SetDefault("null-token", contract.DefaultNullToken)
	viper.SetDefault("decimal", string(schema.DotSeparator))
	viper.SetDefault("precision", contract.DefaultPrecision)
	viper.SetDefault("significance", "no")
	viper.SetDefault("workers", contract.DefaultWorkers)
	viper.SetDefault("station-timeout", contract.DefaultStationTimeout.String())
	viper.SetDefault("output", string(schema.TextOut))
	viper.SetDefault("report-dir", contract.DefaultReportDir)
	viper.SetDefault("store-backend", string(schema.NoneBackend))
	viper.SetDefault("store-db-connect", "")
	viper.SetDefault("cache-backend", string(schema.SQLiteBackend))
	viper.SetDefault("cache-db-connect", "")
	viper.SetDefault("log-level", "info")
	viper.SetDefault("color", "yes")
}

// loadConfigFile handles config file loading logic common to all setup functions.
func loadConfigFile() error {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".climacomp") // Name of config file (without extension)
		viper.SetConfigType("yaml")       // We'll use YAML format
		viper.AddConfigPath(".")          // Look in the current directory
		viper.AddConfigPath("$HOME")      // Look in the home directory
	}

	// Load config file if present
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}
	return nil
}

// configSetup merges defaults, file, env and flags, then validates them into cfg.
func configSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}
	contract.SetupLogger(os.Stderr, cfg.LogLevel, cfg.UseColors)
	return nil
}

// sharedSetup validates the configuration and opens the stores.
func sharedSetup(_ context.Context, _ *cobra.Command, _ []string) error {
	if err := configSetup(); err != nil {
		return err
	}
	if err := iocache.InitStores(cfg.CacheBackend, cfg.CacheDBConnect, cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}
	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetCacheManager sets the global cache manager.
func SetCacheManager(mgr contract.CacheManager) {
	cacheManager = mgr
}
