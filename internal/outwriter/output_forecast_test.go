package outwriter

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/climacomp/internal/contract"
	"github.com/huangsam/climacomp/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleForecasts() []schema.ForecastResult {
	res := schema.ForecastResult{
		Station: "S1",
		Target:  schema.ForecastTarget{Month: 3, Day: 16},
		Present: [schema.NumLags]bool{true, false, true},
	}
	res.Lags[schema.Lag0] = schema.ForecastProbability{Decrease: 0.26, Normal: 0.42, Exceed: 0.32}
	res.Lags[schema.Lag2] = schema.ForecastProbability{Decrease: 0.5, Normal: 0.1, Exceed: 0.2}
	return []schema.ForecastResult{res}
}

func TestForecastRows(t *testing.T) {
	rows := forecastRows(sampleForecasts())
	require.Len(t, rows, 2)
	assert.Equal(t, "Mar_16", rows[0].Target)
	assert.Equal(t, 0, rows[0].Lag)
	assert.Equal(t, contract.NormalValue, rows[0].Dominant)
	assert.InDelta(t, 1.0, rows[0].Total, 1e-9)
	assert.Equal(t, 2, rows[1].Lag)
	assert.Equal(t, contract.DecreaseValue, rows[1].Dominant)
	assert.InDelta(t, 0.8, rows[1].Total, 1e-9)
}

func TestWriteForecastCSV(t *testing.T) {
	cfg := &contract.RunConfig{Precision: 2, Decimal: schema.CommaSeparator}
	var buf bytes.Buffer
	require.NoError(t, writeForecastCSV(&buf, sampleForecasts(), cfg))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "station;target;lag;decrease;normal;exceed;total;dominant", lines[0])
	assert.Equal(t, "S1;Mar_16;0;0,26;0,42;0,32;1,00;Normal", lines[1])
	assert.Equal(t, "S1;Mar_16;2;0,50;0,10;0,20;0,80;Decrease", lines[2])
}

func TestWriteForecastTable(t *testing.T) {
	cfg := &contract.RunConfig{Precision: 2, Decimal: schema.DotSeparator, Width: 120, Workers: 2}
	var buf bytes.Buffer
	require.NoError(t, writeForecastTable(&buf, sampleForecasts(), cfg, 1500*time.Millisecond))

	out := buf.String()
	assert.Contains(t, out, "S1")
	assert.Contains(t, out, "Mar_16")
	assert.Contains(t, out, "0.42")
	assert.Contains(t, out, "Decrease")
	assert.Contains(t, out, "Forecast 1 stations in 1.5s with 2 workers")
}

func TestWriteForecastResultsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forecast.json")
	cfg := &contract.RunConfig{Output: schema.JSONOut, OutputFile: path}
	require.NoError(t, WriteForecastResults(sampleForecasts(), cfg, time.Second))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var rows []forecastRow
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "S1", rows[0].Station)
	assert.InDelta(t, 0.32, rows[0].P.Exceed, 1e-12)
}

func TestWriteForecastResultsParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forecast.parquet")
	cfg := &contract.RunConfig{Output: schema.ParquetOut, OutputFile: path}
	require.NoError(t, WriteForecastResults(sampleForecasts(), cfg, time.Second))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestOutcomeLabel(t *testing.T) {
	assert.Equal(t, "Exceed", outcomeLabel(schema.Exceed, false))
	assert.Contains(t, outcomeLabel(schema.Exceed, true), "Exceed")
}
