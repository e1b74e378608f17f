package outwriter

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/climacomp/internal/contract"
	"github.com/huangsam/climacomp/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestReportPath(t *testing.T) {
	got := ReportPath("out", "21015030", schema.Lag1, schema.Period{Month: 3, Day: 16})
	assert.Equal(t, filepath.Join("out", "21015030", "Lag_1", "21015030_Lag_1_Mar_16.csv"), got)

	got = ReportPath("out", "S1", schema.Lag0, schema.Period{Month: 12})
	assert.Equal(t, filepath.Join("out", "S1", "Lag_0", "S1_Lag_0_Dec.csv"), got)
}

func TestWriteLagReports(t *testing.T) {
	tests := []struct {
		name     string
		mode     schema.IntervalMode
		decimal  schema.DecimalSeparator
		period   schema.Period
		records  []schema.LagRecord
		expected string
	}{
		{
			name:    "trimester dot",
			mode:    schema.TrimesterMode,
			decimal: schema.DotSeparator,
			period:  schema.Period{Month: 1},
			records: []schema.LagRecord{
				{Date: date(1990, 1, 1), MeanD: sql.NullFloat64{Float64: 1.5, Valid: true}, MeanI: sql.NullFloat64{Float64: -0.254, Valid: true}},
				{Date: date(1991, 1, 1), MeanD: sql.NullFloat64{Float64: 2, Valid: true}},
			},
			expected: "year,meanD,meanI\n1990,1.50,-0.25\n1991,2.00,-99999\n",
		},
		{
			name:    "sub-month comma",
			mode:    schema.FifteenDaysMode,
			decimal: schema.CommaSeparator,
			period:  schema.Period{Month: 2, Day: 16},
			records: []schema.LagRecord{
				{Date: date(2000, 2, 16), MeanD: sql.NullFloat64{Float64: 3.25, Valid: true}, MeanI: sql.NullFloat64{Float64: 0.5, Valid: true}},
			},
			expected: "period;meanD;meanI\n2000-02-16;3,25;0,50\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &contract.RunConfig{
				Mode:      tt.mode,
				Decimal:   tt.decimal,
				Precision: 2,
				NullToken: contract.DefaultNullToken,
				ReportDir: t.TempDir(),
			}
			reports := map[schema.Lag]map[schema.Period][]schema.LagRecord{
				schema.Lag2: {tt.period: tt.records},
			}

			n, err := WriteLagReports(cfg, "S1", reports)
			require.NoError(t, err)
			assert.Equal(t, 1, n)

			data, err := os.ReadFile(ReportPath(cfg.ReportDir, "S1", schema.Lag2, tt.period))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(data))
		})
	}
}

func TestWriteLagReportsCountsEveryFile(t *testing.T) {
	cfg := &contract.RunConfig{Mode: schema.TrimesterMode, Decimal: schema.DotSeparator, NullToken: "NA", ReportDir: t.TempDir()}
	rec := []schema.LagRecord{{Date: date(1990, 1, 1)}}
	reports := map[schema.Lag]map[schema.Period][]schema.LagRecord{
		schema.Lag0: {{Month: 1}: rec, {Month: 2}: rec},
		schema.Lag1: {{Month: 1}: rec},
	}

	n, err := WriteLagReports(cfg, "S9", reports)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	entries, err := os.ReadDir(filepath.Join(cfg.ReportDir, "S9", "Lag_0"))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestWriteLagReportsBadDir(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	cfg := &contract.RunConfig{Mode: schema.TrimesterMode, ReportDir: blocker}
	reports := map[schema.Lag]map[schema.Period][]schema.LagRecord{
		schema.Lag0: {{Month: 1}: {{Date: date(1990, 1, 1)}}},
	}
	n, err := WriteLagReports(cfg, "S1", reports)
	assert.Error(t, err)
	assert.Equal(t, 0, n)
}
