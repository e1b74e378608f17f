package contract

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/climacomp/schema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validInput returns a raw input that passes validation, for tests to tweak.
func validInput(t *testing.T) *ConfigRawInput {
	dir := t.TempDir()
	return &ConfigRawInput{
		Mode:           "15days",
		Start:          "1981",
		End:            "2010",
		Lags:           "0,1,2",
		Decimal:        "dot",
		Precision:      2,
		Significance:   "yes",
		Workers:        4,
		StationTimeout: "30s",
		Output:         "text",
		Color:          "no",
		StoreBackend:   "sqlite",
		StoreDBConnect: filepath.Join(dir, "store.db"),
		CacheBackend:   "sqlite",
		CacheDBConnect: filepath.Join(dir, "cache.db"),
		LogLevel:       "info",
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ConfigRawInput)
		wantErr string
	}{
		{name: "valid config", mutate: func(*ConfigRawInput) {}},
		{name: "invalid mode", mutate: func(in *ConfigRawInput) { in.Mode = "weekly" }, wantErr: "must be trimester, 5days, 10days, 15days"},
		{name: "mode is case insensitive", mutate: func(in *ConfigRawInput) { in.Mode = "TRIMESTER" }},
		{name: "zero workers", mutate: func(in *ConfigRawInput) { in.Workers = 0 }, wantErr: "workers must be greater than 0"},
		{name: "bad timeout", mutate: func(in *ConfigRawInput) { in.StationTimeout = "soon" }, wantErr: "station-timeout"},
		{name: "negative timeout", mutate: func(in *ConfigRawInput) { in.StationTimeout = "-1s" }, wantErr: "station-timeout"},
		{name: "precision too high", mutate: func(in *ConfigRawInput) { in.Precision = 9 }, wantErr: "precision"},
		{name: "bad decimal", mutate: func(in *ConfigRawInput) { in.Decimal = "space" }, wantErr: "must be dot, comma"},
		{name: "bad output", mutate: func(in *ConfigRawInput) { in.Output = "xml" }, wantErr: "must be text, csv, json, parquet"},
		{name: "parquet needs file", mutate: func(in *ConfigRawInput) { in.Output = "parquet" }, wantErr: "requires --output-file"},
		{name: "bad significance", mutate: func(in *ConfigRawInput) { in.Significance = "perhaps" }, wantErr: "--significance"},
		{name: "bad color", mutate: func(in *ConfigRawInput) { in.Color = "rainbow" }, wantErr: "--color"},
		{name: "bad log level", mutate: func(in *ConfigRawInput) { in.LogLevel = "loud" }, wantErr: "invalid log level"},
		{name: "start after end", mutate: func(in *ConfigRawInput) { in.Start = "2011" }, wantErr: "cannot be after"},
		{name: "start not a year", mutate: func(in *ConfigRawInput) { in.Start = "last" }, wantErr: "invalid start year"},
		{name: "end out of range", mutate: func(in *ConfigRawInput) { in.End = "3000" }, wantErr: "out of range"},
		{name: "missing end", mutate: func(in *ConfigRawInput) { in.End = "" }, wantErr: "must both be set"},
		{name: "bad lag", mutate: func(in *ConfigRawInput) { in.Lags = "0,3" }, wantErr: "invalid lag '3'"},
		{name: "empty lag list", mutate: func(in *ConfigRawInput) { in.Lags = " , " }, wantErr: "at least one"},
		{name: "bad store backend", mutate: func(in *ConfigRawInput) { in.StoreBackend = "oracle" }, wantErr: "invalid store backend"},
		{name: "bad cache backend", mutate: func(in *ConfigRawInput) { in.CacheBackend = "redis" }, wantErr: "invalid cache backend"},
		{
			name: "mysql needs connection",
			mutate: func(in *ConfigRawInput) {
				in.StoreBackend = "mysql"
				in.StoreDBConnect = ""
			},
			wantErr: "store-db-connect",
		},
		{
			name: "same sqlite file",
			mutate: func(in *ConfigRawInput) {
				in.CacheDBConnect = in.StoreDBConnect
			},
			wantErr: "different SQLite database files",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput(t)
			tt.mutate(input)
			cfg := &RunConfig{}
			err := ProcessAndValidate(cfg, input)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestProcessAndValidateValues(t *testing.T) {
	input := validInput(t)
	input.Lags = "2, 0, 2"
	input.NullTokens = "nan, -999 ,"
	input.Decimal = "COMMA"
	input.Significance = "no"
	input.Reports = true

	cfg := &RunConfig{}
	require.NoError(t, ProcessAndValidate(cfg, input))

	assert.Equal(t, schema.FifteenDaysMode, cfg.Mode)
	assert.Equal(t, 1981, cfg.StartYear)
	assert.Equal(t, 2010, cfg.EndYear)
	assert.False(t, cfg.MaximumPeriod)
	assert.Equal(t, []schema.Lag{schema.Lag0, schema.Lag2}, cfg.Lags)
	assert.Equal(t, []string{"nan", "-999"}, cfg.NullTokens)
	assert.Equal(t, schema.CommaSeparator, cfg.Decimal)
	assert.False(t, cfg.SignificanceGating)
	assert.True(t, cfg.Reports)
	assert.Equal(t, DefaultReportDir, cfg.ReportDir)
	assert.Equal(t, DefaultNullToken, cfg.NullToken)
	assert.Equal(t, 30*time.Second, cfg.StationTimeout)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	assert.True(t, cfg.HasLag(schema.Lag2))
	assert.False(t, cfg.HasLag(schema.Lag1))
}

func TestProcessAndValidateDefaults(t *testing.T) {
	input := validInput(t)
	input.Start = "maximum"
	input.End = ""
	input.Lags = ""
	input.StationTimeout = ""
	input.LogLevel = ""

	cfg := &RunConfig{}
	require.NoError(t, ProcessAndValidate(cfg, input))

	assert.True(t, cfg.MaximumPeriod)
	assert.Equal(t, schema.AllLags, cfg.Lags)
	assert.Equal(t, schema.DefaultNullTokens, cfg.NullTokens)
	assert.Equal(t, DefaultStationTimeout, cfg.StationTimeout)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
}

func TestRunConfigClone(t *testing.T) {
	cfg := &RunConfig{
		Mode:       schema.TrimesterMode,
		Lags:       []schema.Lag{schema.Lag0, schema.Lag1},
		NullTokens: []string{"nan"},
	}
	clone := cfg.Clone()
	clone.Lags[0] = schema.Lag2
	clone.NullTokens[0] = "NA"
	assert.Equal(t, schema.Lag0, cfg.Lags[0])
	assert.Equal(t, "nan", cfg.NullTokens[0])

	cfg.MaximumPeriod = true
	fixed := cfg.CloneWithPeriod(1990, 2000)
	assert.False(t, fixed.MaximumPeriod)
	assert.Equal(t, 1990, fixed.StartYear)
	assert.True(t, cfg.MaximumPeriod)
}

func TestRunConfigFingerprint(t *testing.T) {
	a := &RunConfig{Mode: schema.FiveDaysMode, StartYear: 1990, EndYear: 2000, Lags: schema.AllLags, NullTokens: []string{"nan", "NA"}}
	b := a.Clone()
	b.NullTokens = []string{"NA", "nan"}
	b.Workers = 16
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	c := a.CloneWithPeriod(1990, 2001)
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())

	params := a.ConfigParams()
	assert.Equal(t, "1990-2000", params["period"])
	assert.Equal(t, "5days", params["mode"])
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	assert.NoError(t, ValidateDatabaseConnectionString(schema.SQLiteBackend, ""))
	assert.NoError(t, ValidateDatabaseConnectionString(schema.NoneBackend, ""))
	assert.NoError(t, ValidateDatabaseConnectionString(schema.MySQLBackend, "user:pass@tcp(localhost:3306)/climacomp"))
	assert.Error(t, ValidateDatabaseConnectionString(schema.MySQLBackend, "user:pass@localhost"))
	assert.NoError(t, ValidateDatabaseConnectionString(schema.PostgreSQLBackend, "host=localhost dbname=climacomp"))
	assert.Error(t, ValidateDatabaseConnectionString(schema.PostgreSQLBackend, "dbname=climacomp"))
}
