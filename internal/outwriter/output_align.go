package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/climacomp/internal/contract"
	"github.com/huangsam/climacomp/internal/parquet"
	"github.com/huangsam/climacomp/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteAlignmentResults outputs one summary per station. Parquet output carries
// every aligned record instead of the summary.
func WriteAlignmentResults(summaries []schema.StationSummary, cfg *contract.RunConfig, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, summaries)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeAlignmentCSV(w, summaries, cfg)
		}, "Wrote CSV")
	case schema.ParquetOut:
		var rows []parquet.LagRecord
		for _, s := range summaries {
			rows = append(rows, parquet.FromLagSeries(s.Station, cfg.Mode, s.Series)...)
		}
		if err := parquet.WriteFile(rows, cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing parquet output: %w", err)
		}
		return nil
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeAlignmentTable(w, summaries, cfg, duration)
		}, "Wrote table")
	}
}

func summaryFields(s schema.StationSummary) []string {
	return []string{
		strconv.Itoa(s.StartYear),
		strconv.Itoa(s.EndYear),
		strconv.Itoa(s.Records),
		strconv.Itoa(s.NullRecords),
		strconv.Itoa(s.ReportFiles),
		strconv.FormatBool(s.Cached),
	}
}

func writeAlignmentCSV(w io.Writer, summaries []schema.StationSummary, cfg *contract.RunConfig) error {
	header := []string{"station", "start_year", "end_year", "records", "null_records", "report_files", "cached"}
	return writeCSVWithHeader(w, cfg.Decimal, header, func(cw *csv.Writer) error {
		for _, s := range summaries {
			if err := cw.Write(append([]string{s.Station}, summaryFields(s)...)); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeAlignmentTable(w io.Writer, summaries []schema.StationSummary, cfg *contract.RunConfig, duration time.Duration) error {
	nameWidth := getMaxTableNameWidth(cfg, 60)

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Station", "Start", "End", "Records", "Nulls", "Reports", "Cached"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, len(summaries))
	total := 0
	for _, s := range summaries {
		data = append(data, append([]string{truncateName(s.Station, nameWidth)}, summaryFields(s)...))
		total += s.Records
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Aligned %d stations (%d records, mode %s, lags %v) in %v with %d workers. Store backend: %s\n",
		len(summaries), total, cfg.Mode, cfg.Lags, duration.Round(time.Millisecond), cfg.Workers, cfg.StoreBackend)
	return err
}
