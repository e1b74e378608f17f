//go:build integration

// Package integration contains end-to-end tests for the climacomp CLI.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags integration ./integration
package integration

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the default cache files at a temp HOME so runs do not share state.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestAlignReportsVerification(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFixture(t, dir)

	out, err := runCommand(t, dir, "align",
		"--stations", "stations.yaml",
		"--start", "2000", "--end", "2001",
		"--precision", "2",
		"--reports", "--report-dir", "reports",
		"--output", "csv")
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"station", "start_year", "end_year", "records", "null_records", "report_files", "cached"}, records[0])
	assert.Equal(t, "S1", records[1][0])
	assert.Equal(t, "S2", records[2][0])
	for _, r := range records[1:] {
		assert.Equal(t, "2000", r[1])
		assert.Equal(t, "2001", r[2])
		assert.Equal(t, "72", r[3])
		assert.Equal(t, "36", r[5])
	}

	report, err := os.ReadFile(filepath.Join(dir, "reports", "S1", "Lag_0", "S1_Lag_0_Mar.csv"))
	require.NoError(t, err)
	assert.Equal(t, "year,meanD,meanI\n2000,3.50,3.50\n2001,3.50,3.50\n", string(report))
}

func TestAlignUsesCache(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFixture(t, dir)
	args := []string{"align", "--stations", "stations.yaml", "--start", "2000", "--end", "2001", "--output", "csv"}

	first, err := runCommand(t, dir, args...)
	require.NoError(t, err)
	assert.Contains(t, first, ",false")

	second, err := runCommand(t, dir, args...)
	require.NoError(t, err)
	assert.NotContains(t, second, ",false")
	assert.Contains(t, second, ",true")

	status, err := runCommand(t, dir, "cache", "status")
	require.NoError(t, err)
	assert.Contains(t, status, "sqlite")
}

func TestForecastVerification(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeForecastInput(t, dir)

	out, err := runCommand(t, dir, "forecast", "april.yaml", "--output", "csv", "--precision", "2")
	require.NoError(t, err)
	assert.Equal(t,
		"station,target,lag,decrease,normal,exceed,total,dominant\nS1,Apr,0,0.21,0.39,0.40,1.00,Exceed\n",
		out)
}

func TestCalendarVerification(t *testing.T) {
	isolate(t)
	out, err := runCommand(t, t.TempDir(), "calendar", "--mode", "10days", "--output", "csv")
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 37)
	assert.Equal(t, []string{"index", "label", "month", "start", "end"}, records[0])
	assert.Equal(t, "Jan_01", records[1][1])
	assert.Equal(t, "Dec_21", records[36][1])
}

func TestStoreRoundTrip(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFixture(t, dir)
	writeForecastInput(t, dir)

	_, err := runCommand(t, dir, "align", "--stations", "stations.yaml", "--start", "2000", "--end", "2001", "--store-backend", "sqlite")
	require.NoError(t, err)
	_, err = runCommand(t, dir, "forecast", "april.yaml", "--store-backend", "sqlite")
	require.NoError(t, err)

	status, err := runCommand(t, dir, "store", "status", "--store-backend", "sqlite")
	require.NoError(t, err)
	assert.Contains(t, status, "sqlite")

	_, err = runCommand(t, dir, "store", "export", "--store-backend", "sqlite", "--output-file", "results")
	require.NoError(t, err)
	for _, suffix := range []string{".runs.parquet", ".lag_records.parquet", ".forecasts.parquet"} {
		_, err := os.Stat(filepath.Join(dir, "results"+suffix))
		assert.NoError(t, err, suffix)
	}
}
