package lag

import (
	"context"
	"testing"
	"time"

	"github.com/huangsam/climacomp/internal/contract"
	"github.com/huangsam/climacomp/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

// dailySeries builds one point per day in [from, to]. value decides the value and
// whether the point is valid; returning skip=true leaves the date out entirely.
func dailySeries(kind schema.SeriesKind, from, to time.Time, value func(time.Time) (v float64, valid bool, skip bool)) schema.Series {
	s := schema.Series{Name: string(kind), Kind: kind, Frequency: schema.DailyFrequency}
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		v, valid, skip := value(d)
		if skip {
			continue
		}
		s.Points = append(s.Points, schema.Point{Date: d, Value: v, Valid: valid})
	}
	return s
}

// monthlySeries builds one point per month in [from, to].
func monthlySeries(kind schema.SeriesKind, from, to time.Time, value func(time.Time) float64) schema.Series {
	s := schema.Series{Name: string(kind), Kind: kind, Frequency: schema.MonthlyFrequency}
	for d := from; !d.After(to); d = d.AddDate(0, 1, 0) {
		s.Points = append(s.Points, schema.Point{Date: d, Value: value(d), Valid: true})
	}
	return s
}

func constant(v float64) func(time.Time) (float64, bool, bool) {
	return func(time.Time) (float64, bool, bool) { return v, true, false }
}

func find(t *testing.T, records []schema.LagRecord, at time.Time) schema.LagRecord {
	t.Helper()
	for _, r := range records {
		if r.Date.Equal(at) {
			return r
		}
	}
	require.Failf(t, "record not found", "no record at %s", at.Format(time.DateOnly))
	return schema.LagRecord{}
}

func runConfig(mode schema.IntervalMode, start, end int) *contract.RunConfig {
	return &contract.RunConfig{
		Mode:      mode,
		StartYear: start,
		EndYear:   end,
		Lags:      schema.AllLags,
	}
}

func TestAlignSubMonthWrapsIntoPreviousMonth(t *testing.T) {
	// I carries the day of month in February and a large marker in January,
	// so any leak of January days into a February window would show.
	iValue := func(d time.Time) (float64, bool, bool) {
		switch d.Month() {
		case time.February:
			return float64(d.Day()), true, false
		case time.January:
			return 1000, true, false
		default:
			return 0, true, false
		}
	}
	station := schema.Station{
		Code:  "S1",
		State: schema.StateDailySubMonth,
		D:     dailySeries("PRCP", date(2000, 1, 1), date(2001, 12, 31), constant(5)),
		I:     dailySeries("IDX", date(2000, 1, 1), date(2001, 12, 31), iValue),
	}

	series, err := NewAligner(runConfig(schema.FifteenDaysMode, 2000, 2001)).Align(context.Background(), station)
	require.NoError(t, err)

	// Non-leap year: February 16..28.
	rec := find(t, series[schema.Lag1], date(2001, 3, 1))
	require.True(t, rec.MeanI.Valid)
	assert.InDelta(t, 22.0, rec.MeanI.Float64, 1e-9)
	assert.InDelta(t, 5.0, rec.MeanD.Float64, 1e-9)

	// Leap year: February 16..29.
	rec = find(t, series[schema.Lag1], date(2000, 3, 1))
	assert.InDelta(t, 22.5, rec.MeanI.Float64, 1e-9)

	// Two buckets back lands on February 1..15.
	rec = find(t, series[schema.Lag2], date(2001, 3, 1))
	assert.InDelta(t, 8.0, rec.MeanI.Float64, 1e-9)

	// Lag 0 stays in March.
	rec = find(t, series[schema.Lag0], date(2001, 3, 1))
	assert.InDelta(t, 0.0, rec.MeanI.Float64, 1e-9)
}

func TestAlignSubMonthLastBucketRunsToMonthEnd(t *testing.T) {
	dValue := func(d time.Time) (float64, bool, bool) {
		if d.Day() == 31 {
			return 100, true, false
		}
		return 0, true, false
	}
	station := schema.Station{
		Code:  "S1",
		State: schema.StateDailySubMonth,
		D:     dailySeries("PRCP", date(2001, 1, 1), date(2001, 12, 31), dValue),
		I:     dailySeries("IDX", date(2001, 1, 1), date(2001, 12, 31), constant(1)),
	}
	series, err := NewAligner(runConfig(schema.FifteenDaysMode, 2001, 2001)).Align(context.Background(), station)
	require.NoError(t, err)

	// January 16..31 has 16 days, one of them 100.
	rec := find(t, series[schema.Lag0], date(2001, 1, 16))
	assert.InDelta(t, 100.0/16, rec.MeanD.Float64, 1e-9)

	// April 16..30 has no day 31.
	rec = find(t, series[schema.Lag0], date(2001, 4, 16))
	assert.InDelta(t, 0.0, rec.MeanD.Float64, 1e-9)
}

func TestAlignTrimesterWrapsYear(t *testing.T) {
	code := func(d time.Time) float64 { return float64(d.Year()*100 + int(d.Month())) }
	station := schema.Station{
		Code:  "S2",
		State: schema.StateMonthly,
		D:     monthlySeries("PRCP", date(2000, 1, 1), date(2001, 12, 1), code),
		I:     monthlySeries("IDX", date(2000, 1, 1), date(2001, 12, 1), code),
	}
	series, err := NewAligner(runConfig(schema.TrimesterMode, 2001, 2001)).Align(context.Background(), station)
	require.NoError(t, err)

	rec := find(t, series[schema.Lag1], date(2001, 1, 1))
	assert.Equal(t, 200012.0, rec.MeanI.Float64)
	assert.Equal(t, 200101.0, rec.MeanD.Float64)

	rec = find(t, series[schema.Lag2], date(2001, 2, 1))
	assert.Equal(t, 200012.0, rec.MeanI.Float64)

	rec = find(t, series[schema.Lag0], date(2001, 7, 1))
	assert.Equal(t, 200107.0, rec.MeanI.Float64)

	for _, l := range schema.AllLags {
		assert.Len(t, series[l], 12)
	}
}

func TestAlignTrimesterDailyMonthMean(t *testing.T) {
	station := schema.Station{
		Code:  "S3",
		State: schema.StateDailyMonthly,
		D: dailySeries("PRCP", date(2001, 1, 1), date(2001, 12, 31), func(d time.Time) (float64, bool, bool) {
			return float64(d.Day()), true, false
		}),
		I: dailySeries("IDX", date(2001, 1, 1), date(2001, 12, 31), constant(2)),
	}
	series, err := NewAligner(runConfig(schema.TrimesterMode, 2001, 2001)).Align(context.Background(), station)
	require.NoError(t, err)

	rec := find(t, series[schema.Lag0], date(2001, 2, 1))
	assert.InDelta(t, 14.5, rec.MeanD.Float64, 1e-9)

	// January lag 1 reaches into 2000, which has no data.
	rec = find(t, series[schema.Lag1], date(2001, 1, 1))
	assert.False(t, rec.MeanI.Valid)
	assert.True(t, rec.MeanD.Valid)
}

func TestAlignNullWindow(t *testing.T) {
	dValue := func(d time.Time) (float64, bool, bool) {
		if d.Month() == time.January && d.Day() < 16 {
			return -99999, false, false
		}
		return 1, true, false
	}
	iValue := func(d time.Time) (float64, bool, bool) {
		// I has no rows at all for the second half of December 2000 and January 1..15.
		if (d.Year() == 2000 && d.Month() == time.December && d.Day() >= 16) ||
			(d.Month() == time.January && d.Day() < 16) {
			return 0, false, true
		}
		return 1, true, false
	}
	station := schema.Station{
		Code:  "S4",
		State: schema.StateDailySubMonth,
		D:     dailySeries("PRCP", date(2001, 1, 1), date(2001, 12, 31), dValue),
		I:     dailySeries("IDX", date(2000, 12, 1), date(2001, 12, 31), iValue),
	}
	series, err := NewAligner(runConfig(schema.FifteenDaysMode, 2001, 2001)).Align(context.Background(), station)
	require.NoError(t, err)

	rec := find(t, series[schema.Lag0], date(2001, 1, 1))
	assert.False(t, rec.MeanD.Valid)
	assert.False(t, rec.MeanI.Valid)

	rec = find(t, series[schema.Lag1], date(2001, 1, 1))
	assert.False(t, rec.MeanI.Valid)

	rec = find(t, series[schema.Lag2], date(2001, 1, 1))
	assert.True(t, rec.MeanI.Valid)
	assert.Equal(t, 1.0, rec.MeanI.Float64)
}

func TestAlignMonthlyDependentInSubMonth(t *testing.T) {
	station := schema.Station{
		Code:  "S5",
		State: schema.StateMixedSubMonth,
		D: monthlySeries("PRCP", date(2000, 12, 1), date(2001, 4, 1), func(d time.Time) float64 {
			return float64(d.Month())
		}),
		I: monthlySeries("IDX", date(2000, 12, 1), date(2001, 4, 1), func(d time.Time) float64 {
			return float64(d.Month()) * 10
		}),
	}
	series, err := NewAligner(runConfig(schema.FifteenDaysMode, 2001, 2001)).Align(context.Background(), station)
	require.NoError(t, err)

	// March: mean of February, March, April.
	rec := find(t, series[schema.Lag2], date(2001, 3, 16))
	assert.InDelta(t, 3.0, rec.MeanD.Float64, 1e-9)

	// January: mean of December 2000, January, February.
	rec = find(t, series[schema.Lag0], date(2001, 1, 1))
	assert.InDelta(t, 5.0, rec.MeanD.Float64, 1e-9)

	// Monthly I takes the value of the month the shifted bucket falls in.
	rec = find(t, series[schema.Lag1], date(2001, 3, 1))
	assert.Equal(t, 20.0, rec.MeanI.Float64)
	rec = find(t, series[schema.Lag1], date(2001, 3, 16))
	assert.Equal(t, 30.0, rec.MeanI.Float64)
	rec = find(t, series[schema.Lag1], date(2001, 1, 1))
	assert.Equal(t, 120.0, rec.MeanI.Float64)
}

func TestAlignPreLaggedIndex(t *testing.T) {
	station := schema.Station{
		Code:  "S6",
		State: schema.StateMonthly,
		D:     monthlySeries("PRCP", date(2001, 1, 1), date(2001, 12, 1), func(time.Time) float64 { return 1 }),
		I: monthlySeries(schema.ONI1Kind, date(2000, 1, 1), date(2001, 12, 1), func(d time.Time) float64 {
			return float64(d.Year()*100 + int(d.Month()))
		}),
	}
	series, err := NewAligner(runConfig(schema.TrimesterMode, 2001, 2001)).Align(context.Background(), station)
	require.NoError(t, err)

	for _, l := range schema.AllLags {
		rec := find(t, series[l], date(2001, 1, 1))
		assert.Equal(t, 200101.0, rec.MeanI.Float64, "lag %d", l)
	}
}

func TestAlignOrderingAndConfiguredLags(t *testing.T) {
	station := schema.Station{
		Code:  "S7",
		State: schema.StateDailySubMonth,
		D:     dailySeries("PRCP", date(1999, 1, 1), date(2001, 12, 31), constant(1)),
		I:     dailySeries("IDX", date(1999, 1, 1), date(2001, 12, 31), constant(1)),
	}
	cfg := runConfig(schema.TenDaysMode, 1999, 2001)
	cfg.Lags = []schema.Lag{schema.Lag0, schema.Lag2}

	series, err := NewAligner(cfg).Align(context.Background(), station)
	require.NoError(t, err)

	assert.Empty(t, series[schema.Lag1])
	require.Len(t, series[schema.Lag0], 3*12*3)
	for i := 1; i < len(series[schema.Lag0]); i++ {
		assert.True(t, series[schema.Lag0][i-1].Date.Before(series[schema.Lag0][i].Date))
	}
	assert.Equal(t, date(1999, 1, 1), series[schema.Lag2][0].Date)
	assert.Equal(t, date(2001, 12, 21), series[schema.Lag2][len(series[schema.Lag2])-1].Date)
}

func TestAlignIsIdempotent(t *testing.T) {
	station := schema.Station{
		Code:  "S8",
		State: schema.StateDailySubMonth,
		D: dailySeries("PRCP", date(2000, 1, 1), date(2001, 12, 31), func(d time.Time) (float64, bool, bool) {
			return float64(d.YearDay()%7) * 1.1, d.Day()%5 != 0, false
		}),
		I: dailySeries("IDX", date(2000, 1, 1), date(2001, 12, 31), func(d time.Time) (float64, bool, bool) {
			return float64(d.Day()) / 3, true, d.Day() == 13
		}),
	}
	aligner := NewAligner(runConfig(schema.FiveDaysMode, 2000, 2001))

	first, err := aligner.Align(context.Background(), station)
	require.NoError(t, err)
	second, err := aligner.Align(context.Background(), station)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	third, err := NewAligner(runConfig(schema.FiveDaysMode, 2000, 2001)).Align(context.Background(), station)
	require.NoError(t, err)
	assert.Equal(t, first, third)
}

func TestAlignErrors(t *testing.T) {
	base := schema.Station{
		Code:  "S9",
		State: schema.StateMonthly,
		D:     monthlySeries("PRCP", date(2001, 1, 1), date(2001, 12, 1), func(time.Time) float64 { return 1 }),
		I:     monthlySeries("IDX", date(2001, 1, 1), date(2001, 12, 1), func(time.Time) float64 { return 1 }),
	}

	t.Run("state does not fit mode", func(t *testing.T) {
		_, err := NewAligner(runConfig(schema.FifteenDaysMode, 2001, 2001)).Align(context.Background(), base)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not fit mode")
	})

	t.Run("unknown state", func(t *testing.T) {
		station := base
		station.State = schema.DataState(9)
		_, err := NewAligner(runConfig(schema.TrimesterMode, 2001, 2001)).Align(context.Background(), station)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be 1, 2, 3, 4")
	})

	t.Run("unknown frequency", func(t *testing.T) {
		station := base
		station.I.Frequency = "hourly"
		_, err := NewAligner(runConfig(schema.TrimesterMode, 2001, 2001)).Align(context.Background(), station)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be daily, monthly")
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewAligner(runConfig(schema.TrimesterMode, 2001, 2001)).Align(ctx, base)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestAlignMaximumPeriod(t *testing.T) {
	station := schema.Station{
		Code:  "S10",
		State: schema.StateMonthly,
		D:     monthlySeries("PRCP", date(1990, 3, 1), date(2005, 12, 1), func(time.Time) float64 { return 1 }),
		I:     monthlySeries("IDX", date(1985, 1, 1), date(2003, 6, 1), func(time.Time) float64 { return 1 }),
	}
	cfg := runConfig(schema.TrimesterMode, 0, 0)
	cfg.MaximumPeriod = true

	series, err := NewAligner(cfg).Align(context.Background(), station)
	require.NoError(t, err)
	assert.Equal(t, date(1991, 1, 1), series[schema.Lag0][0].Date)
	assert.Equal(t, date(2002, 12, 1), series[schema.Lag0][len(series[schema.Lag0])-1].Date)

	// The resolved period is per station and never leaks into the shared config.
	assert.True(t, cfg.MaximumPeriod)
	assert.Zero(t, cfg.StartYear)
	assert.Zero(t, cfg.EndYear)
}

func TestAlignLagOrderDoesNotMatter(t *testing.T) {
	station := schema.Station{
		Code:  "S11",
		State: schema.StateMonthly,
		D:     monthlySeries("PRCP", date(2000, 1, 1), date(2000, 12, 1), func(time.Time) float64 { return 1 }),
		I:     monthlySeries("IDX", date(2000, 1, 1), date(2000, 12, 1), func(time.Time) float64 { return 1 }),
	}
	sorted := runConfig(schema.TrimesterMode, 2000, 2000)
	sorted.Lags = []schema.Lag{schema.Lag0, schema.Lag2}
	reversed := runConfig(schema.TrimesterMode, 2000, 2000)
	reversed.Lags = []schema.Lag{schema.Lag2, schema.Lag0}

	want, err := NewAligner(sorted).Align(context.Background(), station)
	require.NoError(t, err)
	got, err := NewAligner(reversed).Align(context.Background(), station)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Empty(t, got[schema.Lag1])
	assert.NotEmpty(t, got[schema.Lag2])
	assert.Len(t, got[schema.Lag2], len(got[schema.Lag0]))
}
