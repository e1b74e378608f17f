package schema

// Custom string types for type safety.
type (
	// IntervalMode represents the analysis-interval mode of a run.
	IntervalMode string

	// Frequency represents the sampling frequency of a source series.
	Frequency string

	// SeriesKind represents the declared type of a source series.
	SeriesKind string

	// OutputMode represents the format of the output.
	OutputMode string

	// DecimalSeparator represents the decimal convention used in reports.
	DecimalSeparator string

	// DatabaseBackend represents the database backend for the store and cache.
	DatabaseBackend string
)

// All interval modes supported.
const (
	TrimesterMode   IntervalMode = "trimester" // default
	FiveDaysMode    IntervalMode = "5days"
	TenDaysMode     IntervalMode = "10days"
	FifteenDaysMode IntervalMode = "15days"
)

// All source frequencies supported.
const (
	DailyFrequency   Frequency = "daily"
	MonthlyFrequency Frequency = "monthly"
)

// Series kinds whose values are supplied already lagged by an external source.
const (
	ONI1Kind SeriesKind = "ONI1"
	ONI2Kind SeriesKind = "ONI2"
	CARKind  SeriesKind = "CAR"
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All decimal separators supported.
const (
	DotSeparator   DecimalSeparator = "dot" // default
	CommaSeparator DecimalSeparator = "comma"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// MaximumPeriod is the processing-period keyword that selects the common span of D and I.
const MaximumPeriod = "maximum"

// DefaultNullTokens are the raw tokens treated as missing values.
var DefaultNullTokens = []string{"nan", "NaN", "NA", "-99999", "99999"}

// AllIntervalModes returns a list of all supported interval modes.
var AllIntervalModes = []IntervalMode{TrimesterMode, FiveDaysMode, TenDaysMode, FifteenDaysMode}

// ValidIntervalModes lists all valid interval modes.
var ValidIntervalModes = map[IntervalMode]struct{}{
	TrimesterMode:   {},
	FiveDaysMode:    {},
	TenDaysMode:     {},
	FifteenDaysMode: {},
}

// ValidFrequencies lists all valid source frequencies.
var ValidFrequencies = map[Frequency]struct{}{
	DailyFrequency:   {},
	MonthlyFrequency: {},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDecimalSeparators lists all valid decimal separators.
var ValidDecimalSeparators = map[DecimalSeparator]struct{}{
	DotSeparator:   {},
	CommaSeparator: {},
}

// ValidDatabaseBackends lists all valid store and cache backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// BucketWidth returns the nominal bucket width in days, or 0 for whole-month periods.
func (m IntervalMode) BucketWidth() int {
	switch m {
	case FiveDaysMode:
		return 5
	case TenDaysMode:
		return 10
	case FifteenDaysMode:
		return 15
	default:
		return 0
	}
}

// IsSubMonth reports whether periods are day-buckets inside a month.
func (m IntervalMode) IsSubMonth() bool {
	return m.BucketWidth() > 0
}

// IsPreLagged reports whether the series is supplied already lagged.
func (k SeriesKind) IsPreLagged() bool {
	switch k {
	case ONI1Kind, ONI2Kind, CARKind:
		return true
	}
	return false
}

// Delimiter returns the report field delimiter that goes with the separator.
func (d DecimalSeparator) Delimiter() rune {
	if d == CommaSeparator {
		return ';'
	}
	return ','
}
