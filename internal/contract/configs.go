package contract

import (
	"fmt"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/climacomp/schema"
	"github.com/rs/zerolog"
)

// Default values for configuration.
const (
	DefaultPrecision      = 2
	MaxPrecision          = 6
	DefaultNullToken      = "-99999"
	DefaultReportDir      = "reports"
	DefaultStationTimeout = 2 * time.Minute
	MinYear               = 1800
	MaxYear               = 2200
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// RunConfig holds the validated configuration of one run.
// It is built once by ProcessAndValidate and treated as read-only afterwards.
type RunConfig struct {
	Mode          schema.IntervalMode
	StartYear     int
	EndYear       int
	MaximumPeriod bool // resolve the processing period per station from its data
	Lags          []schema.Lag

	NullTokens []string // raw tokens read as missing
	NullToken  string   // token written for missing means

	Decimal            schema.DecimalSeparator
	Precision          int
	SignificanceGating bool

	Reports   bool
	ReportDir string

	Workers        int
	StationTimeout time.Duration

	StationsFile string
	Output       schema.OutputMode
	OutputFile   string
	Width        int // Terminal width override (0 = auto-detect)
	UseColors    bool

	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	MetricsFile string
	LogLevel    zerolog.Level
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	Mode           string `mapstructure:"mode"`
	Start          string `mapstructure:"start"`
	End            string `mapstructure:"end"`
	Lags           string `mapstructure:"lags"`
	NullTokens     string `mapstructure:"null-tokens"`
	NullToken      string `mapstructure:"null-token"`
	Decimal        string `mapstructure:"decimal"`
	Precision      int    `mapstructure:"precision"`
	Significance   string `mapstructure:"significance"`
	Workers        int    `mapstructure:"workers"`
	StationTimeout string `mapstructure:"station-timeout"`
	Output         string `mapstructure:"output"`
	OutputFile     string `mapstructure:"output-file"`
	Width          int    `mapstructure:"width"`
	Color          string `mapstructure:"color"`
	StoreBackend   string `mapstructure:"store-backend"`
	StoreDBConnect string `mapstructure:"store-db-connect"`
	CacheBackend   string `mapstructure:"cache-backend"`
	CacheDBConnect string `mapstructure:"cache-db-connect"`
	MetricsFile    string `mapstructure:"metrics-file"`
	LogLevel       string `mapstructure:"log-level"`

	// --- Fields from alignCmd.Flags() ---
	Stations  string `mapstructure:"stations"`
	Reports   bool   `mapstructure:"reports"`
	ReportDir string `mapstructure:"report-dir"`
}

// Clone returns a deep copy of the RunConfig struct.
func (c *RunConfig) Clone() *RunConfig {
	clone := *c
	clone.Lags = slices.Clone(c.Lags)
	clone.NullTokens = slices.Clone(c.NullTokens)
	return &clone
}

// CloneWithPeriod creates a copy of the RunConfig with a fixed processing period.
func (c *RunConfig) CloneWithPeriod(startYear, endYear int) *RunConfig {
	clone := c.Clone()
	clone.StartYear = startYear
	clone.EndYear = endYear
	clone.MaximumPeriod = false
	return clone
}

// HasLag reports whether the lag is configured for this run.
func (c *RunConfig) HasLag(lag schema.Lag) bool {
	return slices.Contains(c.Lags, lag)
}

// ConfigParams returns the settings recorded alongside a stored run.
func (c *RunConfig) ConfigParams() map[string]any {
	period := fmt.Sprintf("%d-%d", c.StartYear, c.EndYear)
	if c.MaximumPeriod {
		period = schema.MaximumPeriod
	}
	return map[string]any{
		"mode":         string(c.Mode),
		"period":       period,
		"lags":         c.Lags,
		"significance": c.SignificanceGating,
		"decimal":      string(c.Decimal),
		"workers":      c.Workers,
	}
}

// Fingerprint returns the settings that change aligned output, as a stable string.
func (c *RunConfig) Fingerprint() string {
	lags := make([]string, len(c.Lags))
	for i, l := range c.Lags {
		lags[i] = strconv.Itoa(int(l))
	}
	tokens := slices.Clone(c.NullTokens)
	slices.Sort(tokens)
	return fmt.Sprintf("mode=%s;start=%d;end=%d;max=%t;lags=%s;nulls=%s",
		c.Mode, c.StartYear, c.EndYear, c.MaximumPeriod,
		strings.Join(lags, ","), strings.Join(tokens, ","))
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final RunConfig struct.
func ProcessAndValidate(cfg *RunConfig, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processPeriod(cfg, input); err != nil {
		return err
	}
	if err := processLags(cfg, input); err != nil {
		return err
	}
	if err := processNullTokens(cfg, input); err != nil {
		return err
	}
	return validateBackendConfigs(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates store and cache backend configurations.
func validateBackendConfigs(cfg *RunConfig, input *ConfigRawInput) error {
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return fmt.Errorf("cache-db-connect: %w", err)
	}

	cfg.StoreBackend = schema.DatabaseBackend(strings.ToLower(input.StoreBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.StoreBackend]; !ok {
		return fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", input.StoreBackend)
	}
	cfg.StoreDBConnect = input.StoreDBConnect
	if err := ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
		return fmt.Errorf("store-db-connect: %w", err)
	}

	if cfg.CacheBackend == schema.SQLiteBackend && cfg.StoreBackend == schema.SQLiteBackend {
		cachePath := cfg.CacheDBConnect
		if cachePath == "" {
			cachePath = GetCacheDBFilePath()
		}
		storePath := cfg.StoreDBConnect
		if storePath == "" {
			storePath = GetStoreDBFilePath()
		}
		if cachePath == storePath {
			return fmt.Errorf("cache and store must use different SQLite database files. Both resolve to %q", cachePath)
		}
	}
	return nil
}

// validateSimpleInputs processes and validates all scalar fields.
func validateSimpleInputs(cfg *RunConfig, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.StationsFile = input.Stations
	cfg.Reports = input.Reports
	cfg.Width = input.Width
	cfg.MetricsFile = input.MetricsFile

	cfg.ReportDir = input.ReportDir
	if cfg.ReportDir == "" {
		cfg.ReportDir = DefaultReportDir
	}

	cfg.NullToken = input.NullToken
	if cfg.NullToken == "" {
		cfg.NullToken = DefaultNullToken
	}

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	gating, err := ParseBoolString(input.Significance)
	if err != nil {
		return fmt.Errorf("invalid --significance value: %w", err)
	}
	cfg.SignificanceGating = gating

	cfg.Mode = schema.IntervalMode(strings.ToLower(input.Mode))
	if _, ok := schema.ValidIntervalModes[cfg.Mode]; !ok {
		return fmt.Errorf("invalid mode '%s'. must be trimester, 5days, 10days, 15days", input.Mode)
	}

	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	cfg.StationTimeout = DefaultStationTimeout
	if input.StationTimeout != "" {
		d, err := time.ParseDuration(input.StationTimeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid station-timeout '%s'. must be a positive duration like 30s or 2m", input.StationTimeout)
		}
		cfg.StationTimeout = d
	}

	if input.Precision < 0 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 0 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Decimal = schema.DecimalSeparator(strings.ToLower(input.Decimal))
	if _, ok := schema.ValidDecimalSeparators[cfg.Decimal]; !ok {
		return fmt.Errorf("invalid decimal separator '%s'. must be dot, comma", input.Decimal)
	}

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	level := input.LogLevel
	if level == "" {
		level = zerolog.InfoLevel.String()
	}
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || parsed == zerolog.NoLevel {
		return fmt.Errorf("invalid log level '%s'. must be trace, debug, info, warn, error, disabled", input.LogLevel)
	}
	cfg.LogLevel = parsed

	return nil
}

// processPeriod resolves the inclusive processing period in years.
func processPeriod(cfg *RunConfig, input *ConfigRawInput) error {
	if strings.EqualFold(input.Start, schema.MaximumPeriod) || (input.Start == "" && input.End == "") {
		cfg.MaximumPeriod = true
		return nil
	}
	if input.Start == "" || input.End == "" {
		return fmt.Errorf("start and end must both be set, or start must be '%s'", schema.MaximumPeriod)
	}

	start, err := parseYear("start", input.Start)
	if err != nil {
		return err
	}
	end, err := parseYear("end", input.End)
	if err != nil {
		return err
	}
	if start > end {
		return fmt.Errorf("start year (%d) cannot be after end year (%d)", start, end)
	}
	cfg.StartYear = start
	cfg.EndYear = end
	return nil
}

func parseYear(field, s string) (int, error) {
	year, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid %s year '%s'. must be a year like 1981 or '%s'", field, s, schema.MaximumPeriod)
	}
	if year < MinYear || year > MaxYear {
		return 0, fmt.Errorf("%s year %d out of range. must be %d-%d", field, year, MinYear, MaxYear)
	}
	return year, nil
}

// processLags parses the comma separated lag list.
func processLags(cfg *RunConfig, input *ConfigRawInput) error {
	cfg.Lags = nil
	raw := input.Lags
	if strings.TrimSpace(raw) == "" {
		cfg.Lags = slices.Clone(schema.AllLags)
		return nil
	}
	for part := range strings.SplitSeq(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		lag := schema.Lag(n)
		if err != nil || !lag.Valid() {
			return fmt.Errorf("invalid lag '%s'. must be 0, 1, 2", part)
		}
		if !slices.Contains(cfg.Lags, lag) {
			cfg.Lags = append(cfg.Lags, lag)
		}
	}
	if len(cfg.Lags) == 0 {
		return fmt.Errorf("lags must name at least one of 0, 1, 2")
	}
	slices.Sort(cfg.Lags)
	return nil
}

// processNullTokens parses the comma separated list of null tokens.
func processNullTokens(cfg *RunConfig, input *ConfigRawInput) error {
	cfg.NullTokens = nil
	if strings.TrimSpace(input.NullTokens) == "" {
		cfg.NullTokens = slices.Clone(schema.DefaultNullTokens)
		return nil
	}
	for part := range strings.SplitSeq(input.NullTokens, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			cfg.NullTokens = append(cfg.NullTokens, trimmed)
		}
	}
	if len(cfg.NullTokens) == 0 {
		return fmt.Errorf("null-tokens must contain at least one token")
	}
	return nil
}
