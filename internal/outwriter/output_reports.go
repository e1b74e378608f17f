package outwriter

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/huangsam/climacomp/internal/contract"
	"github.com/huangsam/climacomp/schema"
)

// ReportPath returns <dir>/<station>/Lag_<n>/<station>_Lag_<n>_<period>.csv.
func ReportPath(dir, station string, lag schema.Lag, period schema.Period) string {
	name := fmt.Sprintf("%s_%s_%s.csv", station, lag, period.Label())
	return filepath.Join(dir, station, lag.String(), name)
}

// WriteLagReports writes one delimited file per (lag, period) and returns how many were written.
// Files are written in lag then calendar order.
func WriteLagReports(cfg *contract.RunConfig, station string, reports map[schema.Lag]map[schema.Period][]schema.LagRecord) (int, error) {
	written := 0
	for _, lag := range schema.AllLags {
		byPeriod, ok := reports[lag]
		if !ok {
			continue
		}
		periods := make([]schema.Period, 0, len(byPeriod))
		for p := range byPeriod {
			periods = append(periods, p)
		}
		slices.SortFunc(periods, func(a, b schema.Period) int {
			if a.Month != b.Month {
				return a.Month - b.Month
			}
			return a.Day - b.Day
		})

		for _, p := range periods {
			path := ReportPath(cfg.ReportDir, station, lag, p)
			if err := writeReportFile(cfg, path, byPeriod[p]); err != nil {
				return written, fmt.Errorf("report %s: %w", path, err)
			}
			written++
		}
	}
	return written, nil
}

func writeReportFile(cfg *contract.RunConfig, path string, records []schema.LagRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	err = writeCSVWithHeader(file, cfg.Decimal, reportHeader(cfg.Mode), func(w *csv.Writer) error {
		for _, r := range records {
			row := []string{
				reportKey(cfg.Mode, r.Date),
				contract.FormatNullable(r.MeanD.Float64, r.MeanD.Valid, cfg.Precision, cfg.Decimal, cfg.NullToken),
				contract.FormatNullable(r.MeanI.Float64, r.MeanI.Valid, cfg.Precision, cfg.Decimal, cfg.NullToken),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func reportHeader(mode schema.IntervalMode) []string {
	if mode.IsSubMonth() {
		return []string{"period", "meanD", "meanI"}
	}
	return []string{"year", "meanD", "meanI"}
}

// reportKey is the year in trimester mode and the bucket start date otherwise.
func reportKey(mode schema.IntervalMode, date time.Time) string {
	if mode.IsSubMonth() {
		return date.Format(time.DateOnly)
	}
	return strconv.Itoa(date.Year())
}
