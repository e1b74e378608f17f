// Package schema has constants and models for all parts of climacomp.
package schema

import (
	"database/sql"
	"fmt"
	"time"
)

// DataState tags how D and I are aggregated within a period.
// The numeric codes match the historical station-file encoding.
type DataState int

// All data states in use.
const (
	StateMonthly       DataState = 1 // monthly series, whole-month periods
	StateDailySubMonth DataState = 2 // daily series, sub-month buckets
	StateDailyMonthly  DataState = 3 // daily series aggregated to whole months
	StateMixedSubMonth DataState = 4 // sub-month buckets with at least one monthly series
)

// Valid reports whether the code is one of the four known states.
func (s DataState) Valid() bool {
	return s >= StateMonthly && s <= StateMixedSubMonth
}

// IsSubMonth reports whether the state aggregates into sub-month buckets.
func (s DataState) IsSubMonth() bool {
	return s == StateDailySubMonth || s == StateMixedSubMonth
}

func (s DataState) String() string {
	switch s {
	case StateMonthly:
		return "monthly"
	case StateDailySubMonth:
		return "daily-submonth"
	case StateDailyMonthly:
		return "daily-monthly"
	case StateMixedSubMonth:
		return "mixed-submonth"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Period identifies an analysis period: a month, plus a bucket start day in sub-month modes.
type Period struct {
	Month int `json:"month"`
	Day   int `json:"day,omitempty"` // 0 for whole-month periods
}

// Label returns a short name such as "Jan" or "Jan_16".
func (p Period) Label() string {
	name := time.Month(p.Month).String()
	if len(name) > 3 {
		name = name[:3]
	}
	if p.Day == 0 {
		return name
	}
	return fmt.Sprintf("%s_%02d", name, p.Day)
}

// Point is one raw (date, value) observation. Valid is false for null tokens.
type Point struct {
	Date  time.Time
	Value float64
	Valid bool
}

// Series is a raw station time series for one variable.
type Series struct {
	Name      string
	Kind      SeriesKind
	Frequency Frequency
	Points    []Point
}

// Station bundles the dependent (D) and independent (I) series of one station.
type Station struct {
	Code  string
	Name  string
	State DataState
	D     Series
	I     Series
}

// Lag is the number of periods the I window is shifted backward.
type Lag int

// All lags supported.
const (
	Lag0 Lag = iota
	Lag1
	Lag2
)

// NumLags is the fixed number of lags.
const NumLags = 3

// AllLags lists every lag in order.
var AllLags = []Lag{Lag0, Lag1, Lag2}

// Valid reports whether the lag is one of 0, 1, 2.
func (l Lag) Valid() bool {
	return l >= Lag0 && l <= Lag2
}

func (l Lag) String() string {
	return fmt.Sprintf("Lag_%d", int(l))
}

// LagRecord is one aggregated (date, meanD, meanI) triple.
// A mean with Valid=false had no non-null contributors.
type LagRecord struct {
	Date  time.Time
	MeanD sql.NullFloat64
	MeanI sql.NullFloat64
}

// Period returns the analysis period the record belongs to.
func (r LagRecord) Period(mode IntervalMode) Period {
	if mode.IsSubMonth() {
		return Period{Month: int(r.Date.Month()), Day: r.Date.Day()}
	}
	return Period{Month: int(r.Date.Month())}
}

// LagSeries holds the ordered records for every lag, indexed by Lag.
type LagSeries [NumLags][]LagRecord

// Tercile is the current state of the independent variable.
type Tercile int

// All terciles.
const (
	Below Tercile = iota
	NormalTercile
	Above
)

// Outcome is the observed class of the dependent variable.
type Outcome int

// All outcomes.
const (
	Decrease Outcome = iota
	NormalOutcome
	Exceed
)

func (o Outcome) String() string {
	switch o {
	case Decrease:
		return "decrease"
	case NormalOutcome:
		return "normal"
	case Exceed:
		return "exceed"
	default:
		return "unknown"
	}
}

// ContingencyCell holds a historical percentage (0-100) and its significance flag.
type ContingencyCell struct {
	Percent     float64 `json:"percent"`
	Significant bool    `json:"significant"`
}

// ContingencyTable is indexed [Outcome][Tercile].
type ContingencyTable [3][3]ContingencyCell

// IndexFrequency holds the current probabilities of I being below, normal or above.
type IndexFrequency struct {
	Below  float64 `json:"below"`
	Normal float64 `json:"normal"`
	Above  float64 `json:"above"`
}

// At returns the frequency of the given tercile.
func (f IndexFrequency) At(t Tercile) float64 {
	switch t {
	case Below:
		return f.Below
	case NormalTercile:
		return f.Normal
	case Above:
		return f.Above
	default:
		return 0
	}
}

// ForecastTarget is a month, plus a bucket start day in sub-month modes.
type ForecastTarget struct {
	Month int `json:"month"`
	Day   int `json:"day,omitempty"`
}

// Period converts the target to its analysis period.
func (t ForecastTarget) Period() Period {
	return Period{Month: t.Month, Day: t.Day}
}

// LagInput is the forecast input for one lag.
type LagInput struct {
	Lag       Lag
	Table     ContingencyTable
	Frequency IndexFrequency
}

// ForecastInput is a complete forecast request for one station and target.
type ForecastInput struct {
	Station string
	Target  ForecastTarget
	Lags    []LagInput
}

// ForecastProbability holds the three outcome probabilities of one lag.
type ForecastProbability struct {
	Decrease float64 `json:"decrease"`
	Normal   float64 `json:"normal"`
	Exceed   float64 `json:"exceed"`
}

// At returns the probability of the given outcome.
func (p ForecastProbability) At(o Outcome) float64 {
	switch o {
	case Decrease:
		return p.Decrease
	case NormalOutcome:
		return p.Normal
	case Exceed:
		return p.Exceed
	default:
		return 0
	}
}

// Total is the sum of the three probabilities. It is below 1 when cells were gated out.
func (p ForecastProbability) Total() float64 {
	return p.Decrease + p.Normal + p.Exceed
}

// ForecastResult holds per-lag probabilities for one station and target.
type ForecastResult struct {
	Station string                       `json:"station"`
	Target  ForecastTarget               `json:"target"`
	Lags    [NumLags]ForecastProbability `json:"lags"`
	Present [NumLags]bool                `json:"present"`
}

// StationSummary describes the alignment of one station for reporting.
type StationSummary struct {
	Station     string    `json:"station"`
	StartYear   int       `json:"start_year"`
	EndYear     int       `json:"end_year"`
	Records     int       `json:"records"`
	NullRecords int       `json:"null_records"`
	ReportFiles int       `json:"report_files"`
	Cached      bool      `json:"cached"`
	Series      LagSeries `json:"-"`
}
