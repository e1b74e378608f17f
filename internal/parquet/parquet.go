// Package parquet provides data structures and functions for exporting climacomp
// results to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/huangsam/climacomp/schema"
	"github.com/parquet-go/parquet-go"
)

// Run maps to the climacomp_runs table.
type Run struct {
	RunID   int64  `parquet:"run_id,snappy"`
	RunUUID string `parquet:"run_uuid,snappy"`
	Command string `parquet:"command,snappy"`

	// StartTime is when the run began (TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is unset while the run has not finished
	EndTime       *time.Time `parquet:"end_time,optional,snappy"`
	RunDurationMs *int32     `parquet:"run_duration_ms,optional,snappy"`

	StationsProcessed int32 `parquet:"stations_processed,snappy"`
	StationsFailed    int32 `parquet:"stations_failed,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// LagRecord is one aligned (period, lag) pair of a station.
// Null means are stored as missing values, never as the text null token.
type LagRecord struct {
	RunID       int64     `parquet:"run_id,snappy"`
	Station     string    `parquet:"station,snappy,dict"`
	Lag         int32     `parquet:"lag,snappy"`
	PeriodLabel string    `parquet:"period_label,snappy,dict"`
	PeriodDate  time.Time `parquet:"period_date,snappy"`
	MeanD       *float64  `parquet:"mean_d,optional,snappy"`
	MeanI       *float64  `parquet:"mean_i,optional,snappy"`
}

// Forecast is the probability triple of one station, target and lag.
type Forecast struct {
	RunID       int64   `parquet:"run_id,snappy"`
	Station     string  `parquet:"station,snappy,dict"`
	TargetMonth int32   `parquet:"target_month,snappy"`
	TargetDay   int32   `parquet:"target_day,snappy"`
	Lag         int32   `parquet:"lag,snappy"`
	Decrease    float64 `parquet:"p_decrease,snappy"`
	Normal      float64 `parquet:"p_normal,snappy"`
	Exceed      float64 `parquet:"p_exceed,snappy"`
	Total       float64 `parquet:"p_total,snappy"`
}

// Write encodes rows to w. The schema is derived from the struct tags of T.
func Write[T any](w io.Writer, rows []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteFile creates outputPath and writes rows to it.
func WriteFile[T any](rows []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := Write(file, rows); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// ConvertRunRecords converts stored runs for export.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, r := range records {
		result[i] = Run{
			RunID:             r.RunID,
			RunUUID:           r.RunUUID,
			Command:           r.Command,
			StartTime:         r.StartTime,
			EndTime:           r.EndTime,
			RunDurationMs:     r.RunDurationMs,
			StationsProcessed: r.StationsProcessed,
			StationsFailed:    r.StationsFailed,
			ConfigParams:      r.ConfigParams,
		}
	}
	return result
}

// ConvertLagRecordRows converts stored lag records for export.
func ConvertLagRecordRows(records []schema.LagRecordRow) []LagRecord {
	result := make([]LagRecord, len(records))
	for i, r := range records {
		result[i] = LagRecord{
			RunID:       r.RunID,
			Station:     r.Station,
			Lag:         r.Lag,
			PeriodLabel: r.PeriodLabel,
			PeriodDate:  r.PeriodDate,
			MeanD:       r.MeanD,
			MeanI:       r.MeanI,
		}
	}
	return result
}

// ConvertForecastRows converts stored forecasts for export.
func ConvertForecastRows(records []schema.ForecastRecordRow) []Forecast {
	result := make([]Forecast, len(records))
	for i, r := range records {
		result[i] = Forecast{
			RunID:       r.RunID,
			Station:     r.Station,
			TargetMonth: r.TargetMonth,
			TargetDay:   r.TargetDay,
			Lag:         r.Lag,
			Decrease:    r.Decrease,
			Normal:      r.Normal,
			Exceed:      r.Exceed,
			Total:       r.Total,
		}
	}
	return result
}

// FromLagSeries flattens the series of one station, lag by lag.
func FromLagSeries(station string, mode schema.IntervalMode, series schema.LagSeries) []LagRecord {
	var result []LagRecord
	for _, l := range schema.AllLags {
		for _, r := range series[l] {
			row := LagRecord{
				Station:     station,
				Lag:         int32(l),
				PeriodLabel: r.Period(mode).Label(),
				PeriodDate:  r.Date,
			}
			if r.MeanD.Valid {
				v := r.MeanD.Float64
				row.MeanD = &v
			}
			if r.MeanI.Valid {
				v := r.MeanI.Float64
				row.MeanI = &v
			}
			result = append(result, row)
		}
	}
	return result
}

// FromForecastResults flattens results into one row per present lag.
func FromForecastResults(results []schema.ForecastResult) []Forecast {
	var rows []Forecast
	for _, res := range results {
		for _, l := range schema.AllLags {
			if !res.Present[l] {
				continue
			}
			p := res.Lags[l]
			rows = append(rows, Forecast{
				Station:     res.Station,
				TargetMonth: int32(res.Target.Month),
				TargetDay:   int32(res.Target.Day),
				Lag:         int32(l),
				Decrease:    p.Decrease,
				Normal:      p.Normal,
				Exceed:      p.Exceed,
				Total:       p.Total(),
			})
		}
	}
	return rows
}
