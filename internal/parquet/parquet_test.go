package parquet

import (
	"bytes"
	"database/sql"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/climacomp/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll[T any](t *testing.T, data []byte) []T {
	t.Helper()
	reader := parquet.NewGenericReader[T](bytes.NewReader(data))
	defer func() { _ = reader.Close() }()

	rows := make([]T, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	return rows[:n]
}

func TestStructTags(t *testing.T) {
	tests := []struct {
		name    string
		model   any
		columns []string
	}{
		{"run", new(Run), []string{"run_id", "run_uuid", "command", "start_time", "end_time", "run_duration_ms", "stations_processed", "stations_failed", "config_params"}},
		{"lag record", new(LagRecord), []string{"run_id", "station", "lag", "period_label", "period_date", "mean_d", "mean_i"}},
		{"forecast", new(Forecast), []string{"run_id", "station", "target_month", "target_day", "lag", "p_decrease", "p_normal", "p_exceed", "p_total"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := parquet.SchemaOf(tt.model)
			require.NotNil(t, s)
			for _, col := range tt.columns {
				_, ok := s.Lookup(col)
				assert.True(t, ok, "column %s should exist", col)
			}
		})
	}
}

func TestFromLagSeries(t *testing.T) {
	var series schema.LagSeries
	series[schema.Lag0] = []schema.LagRecord{
		{Date: time.Date(2001, 2, 16, 0, 0, 0, 0, time.UTC), MeanD: sql.NullFloat64{Float64: 1.5, Valid: true}},
	}
	series[schema.Lag2] = []schema.LagRecord{
		{Date: time.Date(2001, 2, 16, 0, 0, 0, 0, time.UTC), MeanI: sql.NullFloat64{Float64: -0.25, Valid: true}},
	}

	rows := FromLagSeries("S1", schema.FifteenDaysMode, series)
	require.Len(t, rows, 2)
	assert.Equal(t, "Feb_16", rows[0].PeriodLabel)
	assert.Equal(t, int32(0), rows[0].Lag)
	require.NotNil(t, rows[0].MeanD)
	assert.InDelta(t, 1.5, *rows[0].MeanD, 1e-12)
	assert.Nil(t, rows[0].MeanI)
	assert.Equal(t, int32(2), rows[1].Lag)
	assert.Nil(t, rows[1].MeanD)
}

func TestWriteLagRecordsRoundTrip(t *testing.T) {
	d := 2.5
	rows := []LagRecord{
		{Station: "S1", Lag: 1, PeriodLabel: "Jan", PeriodDate: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC), MeanD: &d},
		{Station: "S1", Lag: 1, PeriodLabel: "Feb", PeriodDate: time.Date(1990, 2, 1, 0, 0, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, rows))

	got := readAll[LagRecord](t, buf.Bytes())
	require.Len(t, got, 2)
	assert.Equal(t, "Jan", got[0].PeriodLabel)
	require.NotNil(t, got[0].MeanD)
	assert.InDelta(t, 2.5, *got[0].MeanD, 1e-12)
	assert.Nil(t, got[0].MeanI)
	assert.Nil(t, got[1].MeanD)
	assert.True(t, rows[1].PeriodDate.Equal(got[1].PeriodDate))
}

func TestFromForecastResults(t *testing.T) {
	res := schema.ForecastResult{
		Station: "S1",
		Target:  schema.ForecastTarget{Month: 3, Day: 16},
		Present: [3]bool{true, false, true},
	}
	res.Lags[schema.Lag0] = schema.ForecastProbability{Decrease: 0.26, Normal: 0.42, Exceed: 0.32}
	res.Lags[schema.Lag2] = schema.ForecastProbability{Decrease: 0.18}

	rows := FromForecastResults([]schema.ForecastResult{res})
	require.Len(t, rows, 2)
	assert.Equal(t, int32(0), rows[0].Lag)
	assert.InDelta(t, 1.0, rows[0].Total, 1e-12)
	assert.Equal(t, int32(2), rows[1].Lag)
	assert.Equal(t, int32(16), rows[1].TargetDay)
}

func TestWriteFileRuns(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "runs.parquet")
	end := time.Now().UTC()
	duration := int32(1200)
	params := `{"mode":"trimester"}`
	records := []schema.RunRecord{
		{RunID: 1, RunUUID: "a", Command: "align", StartTime: end.Add(-time.Second), EndTime: &end, RunDurationMs: &duration, StationsProcessed: 3, ConfigParams: &params},
		{RunID: 2, RunUUID: "b", Command: "forecast", StartTime: end},
	}

	require.NoError(t, WriteFile(ConvertRunRecords(records), outputPath))

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	got := readAll[Run](t, data)
	require.Len(t, got, 2)
	assert.Equal(t, "align", got[0].Command)
	require.NotNil(t, got[0].RunDurationMs)
	assert.Equal(t, duration, *got[0].RunDurationMs)
	assert.Equal(t, int32(3), got[0].StationsProcessed)
	assert.Nil(t, got[1].EndTime)
	assert.Nil(t, got[1].ConfigParams)
}

func TestWriteFileEmpty(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "empty.parquet")
	require.NoError(t, WriteFile([]Forecast{}, outputPath))

	info, err := os.Stat(outputPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestWriteFileBadPath(t *testing.T) {
	err := WriteFile([]Forecast{}, filepath.Join(t.TempDir(), "missing", "out.parquet"))
	assert.ErrorContains(t, err, "failed to create output file")
}

func TestConvertStoredRows(t *testing.T) {
	v := 1.0
	lags := ConvertLagRecordRows([]schema.LagRecordRow{{RunID: 7, Station: "S2", Lag: 2, PeriodLabel: "Dec", MeanI: &v}})
	require.Len(t, lags, 1)
	assert.Equal(t, int64(7), lags[0].RunID)
	assert.Equal(t, &v, lags[0].MeanI)

	forecasts := ConvertForecastRows([]schema.ForecastRecordRow{{RunID: 7, Station: "S2", TargetMonth: 12, Exceed: 0.5, Total: 0.5}})
	require.Len(t, forecasts, 1)
	assert.Equal(t, int32(12), forecasts[0].TargetMonth)
	assert.InDelta(t, 0.5, forecasts[0].Exceed, 1e-12)
}
