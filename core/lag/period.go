package lag

import (
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/climacomp/schema"
)

// ErrNoCommonPeriod is returned when D and I share no complete year.
var ErrNoCommonPeriod = errors.New("no common full year between D and I")

// ResolveProcessPeriod returns the widest span of complete years covered by both series.
func ResolveProcessPeriod(station schema.Station) (int, int, error) {
	dStart, dEnd, err := fullYears(station.D)
	if err != nil {
		return 0, 0, fmt.Errorf("D series: %w", err)
	}
	iStart, iEnd, err := fullYears(station.I)
	if err != nil {
		return 0, 0, fmt.Errorf("I series: %w", err)
	}
	start := max(dStart, iStart)
	end := min(dEnd, iEnd)
	if start > end {
		return 0, 0, ErrNoCommonPeriod
	}
	return start, end, nil
}

// fullYears returns the first and last years the series covers from January to December.
func fullYears(s schema.Series) (int, int, error) {
	if len(s.Points) == 0 {
		return 0, 0, errors.New("series is empty")
	}
	first, last := s.Points[0].Date, s.Points[0].Date
	for _, p := range s.Points[1:] {
		if p.Date.Before(first) {
			first = p.Date
		}
		if p.Date.After(last) {
			last = p.Date
		}
	}

	start, end := first.Year(), last.Year()
	if first.Month() != time.January || (s.Frequency == schema.DailyFrequency && first.Day() != 1) {
		start++
	}
	if last.Month() != time.December || (s.Frequency == schema.DailyFrequency && last.Day() != 31) {
		end--
	}
	if start > end {
		return 0, 0, fmt.Errorf("no complete year between %s and %s", first.Format(time.DateOnly), last.Format(time.DateOnly))
	}
	return start, end, nil
}

// Reports groups the records of every lag by analysis period, keeping date order.
// The result backs the per-(lag, period) report files.
func (a *Aligner) Reports(series schema.LagSeries) map[schema.Lag]map[schema.Period][]schema.LagRecord {
	out := make(map[schema.Lag]map[schema.Period][]schema.LagRecord)
	for _, l := range schema.AllLags {
		records := series[l]
		if len(records) == 0 {
			continue
		}
		byPeriod := make(map[schema.Period][]schema.LagRecord)
		for _, r := range records {
			p := r.Period(a.cfg.Mode)
			byPeriod[p] = append(byPeriod[p], r)
		}
		out[l] = byPeriod
	}
	return out
}
