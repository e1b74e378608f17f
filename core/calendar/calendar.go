// Package calendar defines analysis periods and the day-bucket arithmetic behind them.
package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/climacomp/schema"
)

var (
	// ErrTrimesterBucket is returned when a bucket lookup is made in whole-month mode.
	ErrTrimesterBucket = errors.New("trimester mode has no intra-month buckets")

	// ErrInvalidTarget is returned when a forecast target does not resolve to a period.
	ErrInvalidTarget = errors.New("invalid forecast target")
)

var (
	fiveDayStarts    = []int{1, 6, 11, 16, 21, 26}
	tenDayStarts     = []int{1, 11, 21}
	fifteenDayStarts = []int{1, 16}
)

// BucketStarts returns the ordered bucket start days for a sub-month mode,
// or nil for trimester mode. The returned slice is a copy.
func BucketStarts(mode schema.IntervalMode) []int {
	var starts []int
	switch mode {
	case schema.FiveDaysMode:
		starts = fiveDayStarts
	case schema.TenDaysMode:
		starts = tenDayStarts
	case schema.FifteenDaysMode:
		starts = fifteenDayStarts
	default:
		return nil
	}
	return append([]int(nil), starts...)
}

// LocateBucket returns the greatest bucket start that is <= day.
// Days past the last start snap to the last start regardless of month length.
func LocateBucket(mode schema.IntervalMode, day int) (int, error) {
	starts := BucketStarts(mode)
	if starts == nil {
		return 0, ErrTrimesterBucket
	}
	if day < 1 || day > 31 {
		return 0, fmt.Errorf("invalid day %d. must be 1-31", day)
	}
	for i := len(starts) - 1; i >= 0; i-- {
		if starts[i] <= day {
			return starts[i], nil
		}
	}
	return starts[0], nil
}

// BucketIndex returns the position of start within the mode's bucket starts.
func BucketIndex(mode schema.IntervalMode, start int) (int, error) {
	starts := BucketStarts(mode)
	if starts == nil {
		return 0, ErrTrimesterBucket
	}
	for i, s := range starts {
		if s == start {
			return i, nil
		}
	}
	return 0, fmt.Errorf("invalid bucket start %d for mode '%s'. must be one of %s", start, mode, joinInts(starts))
}

// NextBucketStart returns the start following start. The last bucket of a month
// has no successor and runs to month end, in which case ok is false.
func NextBucketStart(mode schema.IntervalMode, start int) (next int, ok bool) {
	starts := BucketStarts(mode)
	for i, s := range starts {
		if s == start && i+1 < len(starts) {
			return starts[i+1], true
		}
	}
	return 0, false
}

// DaysInMonth returns the number of days of the month, leap years included.
func DaysInMonth(year, month int) int {
	// Day 0 of the following month normalises to the last day of this one.
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ValidDate reports whether (year, month, day) is a real calendar date.
func ValidDate(year, month, day int) bool {
	if month < 1 || month > 12 || day < 1 {
		return false
	}
	return day <= DaysInMonth(year, month)
}

// ShiftMonth moves (year, month) by n months; negative n moves backward.
func ShiftMonth(year, month, n int) (int, int) {
	total := year*12 + (month - 1) + n
	y := total / 12
	m := total % 12
	if m < 0 {
		m += 12
		y--
	}
	return y, m + 1
}

// ShiftBucket moves a period by n buckets; negative n moves backward.
// Crossing the first bucket of a month lands on the last bucket of the previous
// month, and crossing January lands in December of the previous year.
// In trimester mode the period is a whole month and start stays 0.
func ShiftBucket(mode schema.IntervalMode, year, month, start, n int) (int, int, int) {
	starts := BucketStarts(mode)
	if starts == nil {
		y, m := ShiftMonth(year, month, n)
		return y, m, 0
	}

	idx := 0
	if located, err := LocateBucket(mode, start); err == nil {
		idx, _ = BucketIndex(mode, located)
	}

	total := idx + n
	months := total / len(starts)
	idx = total % len(starts)
	if idx < 0 {
		idx += len(starts)
		months--
	}
	y, m := ShiftMonth(year, month, months)
	return y, m, starts[idx]
}

// Periods returns every period of a year in calendar order.
func Periods(mode schema.IntervalMode) []schema.Period {
	starts := BucketStarts(mode)
	if starts == nil {
		periods := make([]schema.Period, 0, 12)
		for m := 1; m <= 12; m++ {
			periods = append(periods, schema.Period{Month: m})
		}
		return periods
	}
	periods := make([]schema.Period, 0, 12*len(starts))
	for m := 1; m <= 12; m++ {
		for _, s := range starts {
			periods = append(periods, schema.Period{Month: m, Day: s})
		}
	}
	return periods
}

// ValidateTarget checks that a forecast target resolves to a period of the mode.
func ValidateTarget(mode schema.IntervalMode, target schema.ForecastTarget) error {
	if _, ok := schema.ValidIntervalModes[mode]; !ok {
		return fmt.Errorf("invalid interval mode '%s'. must be trimester, 5days, 10days, 15days", mode)
	}
	if target.Month < 1 || target.Month > 12 {
		return fmt.Errorf("%w: month %d out of range. must be 1-12", ErrInvalidTarget, target.Month)
	}
	if !mode.IsSubMonth() {
		if target.Day != 0 {
			return fmt.Errorf("%w: day %d given in trimester mode. must be omitted", ErrInvalidTarget, target.Day)
		}
		return nil
	}
	if _, err := BucketIndex(mode, target.Day); err != nil {
		return fmt.Errorf("%w: day %d for mode '%s'. must be one of %s",
			ErrInvalidTarget, target.Day, mode, joinInts(BucketStarts(mode)))
	}
	return nil
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
