package schema

import "time"

// RunRecord represents a row from the climacomp_runs table.
type RunRecord struct {
	RunID             int64
	RunUUID           string
	Command           string
	StartTime         time.Time
	EndTime           *time.Time
	RunDurationMs     *int32
	StationsProcessed int32
	StationsFailed    int32
	ConfigParams      *string
}

// LagRecordRow represents a row from the climacomp_lag_records table.
type LagRecordRow struct {
	RunID       int64
	Station     string
	Lag         int32
	PeriodLabel string
	PeriodDate  time.Time
	MeanD       *float64
	MeanI       *float64
}

// ForecastRecordRow represents a row from the climacomp_forecasts table.
type ForecastRecordRow struct {
	RunID       int64
	Station     string
	TargetMonth int32
	TargetDay   int32
	Lag         int32
	Decrease    float64
	Normal      float64
	Exceed      float64
	Total       float64
}
