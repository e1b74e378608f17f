package outwriter

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/huangsam/climacomp/core/calendar"
	"github.com/huangsam/climacomp/internal/contract"
	"github.com/huangsam/climacomp/schema"
	"github.com/olekukonko/tablewriter"
)

// periodRow describes one analysis period of a mode.
type periodRow struct {
	Index  int    `json:"index"`
	Label  string `json:"label"`
	Month  int    `json:"month"`
	Start  int    `json:"start,omitempty"`
	EndDay string `json:"end,omitempty"`
}

func periodRows(mode schema.IntervalMode) []periodRow {
	periods := calendar.Periods(mode)
	rows := make([]periodRow, len(periods))
	for i, p := range periods {
		row := periodRow{Index: i + 1, Label: p.Label(), Month: p.Month}
		if mode.IsSubMonth() {
			row.Start = p.Day
			row.EndDay = "month end"
			if next, ok := calendar.NextBucketStart(mode, p.Day); ok {
				row.EndDay = strconv.Itoa(next - 1)
			}
		}
		rows[i] = row
	}
	return rows
}

// WritePeriods outputs the analysis periods of the configured mode.
func WritePeriods(cfg *contract.RunConfig) error {
	rows := periodRows(cfg.Mode)
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, rows)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			header := []string{"index", "label", "month", "start", "end"}
			return writeCSVWithHeader(w, cfg.Decimal, header, func(cw *csv.Writer) error {
				for _, r := range rows {
					if err := cw.Write(periodFields(r)); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			table := tablewriter.NewWriter(w)
			table.Header([]string{"#", "Label", "Month", "Start", "End"})
			data := make([][]string, len(rows))
			for i, r := range rows {
				data[i] = periodFields(r)
			}
			if err := table.Bulk(data); err != nil {
				return err
			}
			return table.Render()
		}, "Wrote table")
	}
}

func periodFields(r periodRow) []string {
	start := ""
	if r.Start > 0 {
		start = strconv.Itoa(r.Start)
	}
	return []string{strconv.Itoa(r.Index), r.Label, strconv.Itoa(r.Month), start, r.EndDay}
}
