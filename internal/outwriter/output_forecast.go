package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/climacomp/core/forecast"
	"github.com/huangsam/climacomp/internal/contract"
	"github.com/huangsam/climacomp/internal/parquet"
	"github.com/huangsam/climacomp/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// forecastRow is one present lag of a forecast result.
type forecastRow struct {
	Station  string                     `json:"station"`
	Target   string                     `json:"target"`
	Lag      int                        `json:"lag"`
	Dominant string                     `json:"dominant"`
	Total    float64                    `json:"total"`
	P        schema.ForecastProbability `json:"probability"`
}

func forecastRows(results []schema.ForecastResult) []forecastRow {
	var rows []forecastRow
	for _, res := range results {
		for _, l := range schema.AllLags {
			if !res.Present[l] {
				continue
			}
			p := res.Lags[l]
			rows = append(rows, forecastRow{
				Station:  res.Station,
				Target:   res.Target.Period().Label(),
				Lag:      int(l),
				Dominant: contract.GetPlainLabel(forecast.Dominant(p)),
				Total:    p.Total(),
				P:        p,
			})
		}
	}
	return rows
}

// WriteForecastResults outputs forecast probabilities in the configured format.
func WriteForecastResults(results []schema.ForecastResult, cfg *contract.RunConfig, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, forecastRows(results))
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeForecastCSV(w, results, cfg)
		}, "Wrote CSV")
	case schema.ParquetOut:
		if err := parquet.WriteFile(parquet.FromForecastResults(results), cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing parquet output: %w", err)
		}
		return nil
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeForecastTable(w, results, cfg, duration)
		}, "Wrote table")
	}
}

func writeForecastCSV(w io.Writer, results []schema.ForecastResult, cfg *contract.RunConfig) error {
	fmtFloat := createFormatter(cfg)
	header := []string{"station", "target", "lag", "decrease", "normal", "exceed", "total", "dominant"}
	return writeCSVWithHeader(w, cfg.Decimal, header, func(cw *csv.Writer) error {
		for _, r := range forecastRows(results) {
			rec := []string{
				r.Station,
				r.Target,
				strconv.Itoa(r.Lag),
				fmtFloat(r.P.Decrease),
				fmtFloat(r.P.Normal),
				fmtFloat(r.P.Exceed),
				fmtFloat(r.Total),
				r.Dominant,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeForecastTable(w io.Writer, results []schema.ForecastResult, cfg *contract.RunConfig, duration time.Duration) error {
	fmtFloat := createFormatter(cfg)
	nameWidth := getMaxTableNameWidth(cfg, 70)

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Station", "Target", "Lag", "Decrease", "Normal", "Exceed", "Total", "Dominant"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, res := range results {
		for _, l := range schema.AllLags {
			if !res.Present[l] {
				continue
			}
			p := res.Lags[l]
			data = append(data, []string{
				truncateName(res.Station, nameWidth),
				res.Target.Period().Label(),
				strconv.Itoa(int(l)),
				fmtFloat(p.Decrease),
				fmtFloat(p.Normal),
				fmtFloat(p.Exceed),
				fmtFloat(p.Total()),
				outcomeLabel(forecast.Dominant(p), cfg.UseColors),
			})
		}
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Forecast %d stations in %v with %d workers. Significance gating: %t\n",
		len(results), duration.Round(time.Millisecond), cfg.Workers, cfg.SignificanceGating)
	return err
}

func outcomeLabel(o schema.Outcome, useColors bool) string {
	if useColors {
		return contract.GetColorLabel(o)
	}
	return contract.GetPlainLabel(o)
}
