package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/climacomp/internal/contract"
	"github.com/huangsam/climacomp/internal/parquet"
)

// ExportStore writes the runs, lag records and forecasts of store to three
// Parquet files named after outputFile.
func ExportStore(w io.Writer, store contract.ResultStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("result store is not initialized")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get store status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no run data found to export")
	}
	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	lagRecords, err := store.GetAllLagRecords()
	if err != nil {
		return fmt.Errorf("failed to retrieve lag records: %w", err)
	}
	forecasts, err := store.GetAllForecasts()
	if err != nil {
		return fmt.Errorf("failed to retrieve forecasts: %w", err)
	}

	exports := []struct {
		label string
		path  string
		count int
		write func(string) error
	}{
		{"runs", outputFile + ".runs.parquet", len(runs), func(p string) error {
			return parquet.WriteFile(parquet.ConvertRunRecords(runs), p)
		}},
		{"lag records", outputFile + ".lag_records.parquet", len(lagRecords), func(p string) error {
			return parquet.WriteFile(parquet.ConvertLagRecordRows(lagRecords), p)
		}},
		{"forecasts", outputFile + ".forecasts.parquet", len(forecasts), func(p string) error {
			return parquet.WriteFile(parquet.ConvertForecastRows(forecasts), p)
		}},
	}
	for _, e := range exports {
		if err := e.write(e.path); err != nil {
			return fmt.Errorf("failed to write %s: %w", e.label, err)
		}
		_, _ = fmt.Fprintf(w, "Exported %d %s to: %s\n", e.count, e.label, e.path)
	}
	return nil
}
