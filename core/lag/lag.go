// Package lag aligns station series onto analysis periods for every configured lag.
package lag

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/huangsam/climacomp/core/calendar"
	"github.com/huangsam/climacomp/internal/contract"
	"github.com/huangsam/climacomp/schema"
	"github.com/rs/zerolog/log"
)

// Aligner builds per-lag LagSeries for stations. It holds no mutable state,
// so one Aligner can serve many goroutines.
type Aligner struct {
	cfg *contract.RunConfig
}

// NewAligner returns an Aligner bound to the run configuration.
func NewAligner(cfg *contract.RunConfig) *Aligner {
	return &Aligner{cfg: cfg}
}

// dayKey addresses one raw value. Monthly series use day 1.
type dayKey struct {
	year, month, day int
}

// seriesIndex is a lookup over one raw series.
type seriesIndex struct {
	kind   schema.SeriesKind
	freq   schema.Frequency
	values map[dayKey]schema.Point
}

func newSeriesIndex(s schema.Series) *seriesIndex {
	idx := &seriesIndex{
		kind:   s.Kind,
		freq:   s.Frequency,
		values: make(map[dayKey]schema.Point, len(s.Points)),
	}
	for _, p := range s.Points {
		k := dayKey{p.Date.Year(), int(p.Date.Month()), p.Date.Day()}
		if s.Frequency == schema.MonthlyFrequency {
			k.day = 1
		}
		idx.values[k] = p
	}
	return idx
}

// accumulator is a null-aware running mean.
type accumulator struct {
	sum   float64
	count int
}

func (a *accumulator) add(p schema.Point, ok bool) {
	if !ok || !p.Valid || math.IsNaN(p.Value) {
		return
	}
	a.sum += p.Value
	a.count++
}

func (a *accumulator) mean() sql.NullFloat64 {
	if a.count == 0 {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: a.sum / float64(a.count), Valid: true}
}

// month returns the mean over calendar month (year, month): every daily value,
// or the single monthly value.
func (s *seriesIndex) month(year, month int) sql.NullFloat64 {
	var acc accumulator
	if s.freq == schema.MonthlyFrequency {
		p, ok := s.values[dayKey{year, month, 1}]
		acc.add(p, ok)
		return acc.mean()
	}
	for day := 1; day <= calendar.DaysInMonth(year, month); day++ {
		p, ok := s.values[dayKey{year, month, day}]
		acc.add(p, ok)
	}
	return acc.mean()
}

// window returns the mean of daily values in the bucket starting at start.
// The cursor stops at the next bucket start; the last bucket runs to month end.
func (s *seriesIndex) window(mode schema.IntervalMode, year, month, start int) sql.NullFloat64 {
	var acc accumulator
	next, hasNext := calendar.NextBucketStart(mode, start)
	for day := start; day <= 31; day++ {
		if hasNext && day >= next {
			break
		}
		if !calendar.ValidDate(year, month, day) {
			continue
		}
		p, ok := s.values[dayKey{year, month, day}]
		acc.add(p, ok)
	}
	return acc.mean()
}

// threeMonths returns the mean of the monthly values of months M-1, M and M+1.
func (s *seriesIndex) threeMonths(year, month int) sql.NullFloat64 {
	var acc accumulator
	for _, n := range []int{-1, 0, 1} {
		y, m := calendar.ShiftMonth(year, month, n)
		p, ok := s.values[dayKey{y, m, 1}]
		acc.add(p, ok)
	}
	return acc.mean()
}

// Align computes the LagSeries of a station over the processing period.
// Lags that are not configured are left empty.
func (a *Aligner) Align(ctx context.Context, station schema.Station) (schema.LagSeries, error) {
	var series schema.LagSeries
	if err := a.validate(station); err != nil {
		return series, err
	}

	cfg := a.cfg
	if cfg.MaximumPeriod {
		startYear, endYear, err := ResolveProcessPeriod(station)
		if err != nil {
			return series, fmt.Errorf("station %s: %w", station.Code, err)
		}
		cfg = cfg.CloneWithPeriod(startYear, endYear)
	}

	log.Debug().
		Str("station", station.Code).
		Str("state", station.State.String()).
		Int("start", cfg.StartYear).
		Int("end", cfg.EndYear).
		Msg("Aligning station")

	d := newSeriesIndex(station.D)
	i := newSeriesIndex(station.I)
	periods := calendar.Periods(cfg.Mode)

	for year := cfg.StartYear; year <= cfg.EndYear; year++ {
		if err := ctx.Err(); err != nil {
			return schema.LagSeries{}, fmt.Errorf("station %s: %w", station.Code, err)
		}
		for _, p := range periods {
			meanD := a.dependent(d, year, p)
			for _, l := range schema.AllLags {
				if !cfg.HasLag(l) {
					continue
				}
				series[l] = append(series[l], schema.LagRecord{
					Date:  periodDate(year, p),
					MeanD: meanD,
					MeanI: a.independent(i, year, p, l),
				})
			}
		}
	}
	return series, nil
}

// dependent aggregates D for one period. It does not depend on the lag.
func (a *Aligner) dependent(d *seriesIndex, year int, p schema.Period) sql.NullFloat64 {
	if !a.cfg.Mode.IsSubMonth() {
		return d.month(year, p.Month)
	}
	if d.freq == schema.MonthlyFrequency {
		return d.threeMonths(year, p.Month)
	}
	return d.window(a.cfg.Mode, year, p.Month, p.Day)
}

// independent aggregates I for one period, shifted back by the lag.
func (a *Aligner) independent(i *seriesIndex, year int, p schema.Period, l schema.Lag) sql.NullFloat64 {
	if i.kind.IsPreLagged() {
		return i.month(year, p.Month)
	}
	y, m, start := calendar.ShiftBucket(a.cfg.Mode, year, p.Month, p.Day, -int(l))
	if !a.cfg.Mode.IsSubMonth() || i.freq == schema.MonthlyFrequency {
		return i.month(y, m)
	}
	return i.window(a.cfg.Mode, y, m, start)
}

func (a *Aligner) validate(station schema.Station) error {
	if !station.State.Valid() {
		return fmt.Errorf("station %s: invalid data state %d. must be 1, 2, 3, 4", station.Code, int(station.State))
	}
	if station.State.IsSubMonth() != a.cfg.Mode.IsSubMonth() {
		return fmt.Errorf("station %s: data state %d does not fit mode '%s'. trimester needs state 1 or 3, day buckets need state 2 or 4",
			station.Code, int(station.State), a.cfg.Mode)
	}
	for name, s := range map[string]schema.Series{"D": station.D, "I": station.I} {
		if _, ok := schema.ValidFrequencies[s.Frequency]; !ok {
			return fmt.Errorf("station %s: invalid %s frequency '%s'. must be daily, monthly", station.Code, name, s.Frequency)
		}
	}
	return nil
}

func periodDate(year int, p schema.Period) time.Time {
	day := p.Day
	if day == 0 {
		day = 1
	}
	return time.Date(year, time.Month(p.Month), day, 0, 0, 0, 0, time.UTC)
}
