// Package ingest reads station manifests, raw series files and forecast input documents.
package ingest

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/huangsam/climacomp/schema"
)

const (
	dailyLayout   = "2006-01-02"
	monthlyLayout = "2006-01"
)

// ReadSeriesFile reads a two-column (date value) series file.
func ReadSeriesFile(path string, freq schema.Frequency, nullTokens []string) ([]schema.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	points, err := ReadSeries(f, freq, nullTokens)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return points, nil
}

// ReadSeries parses series lines of the form "date value". Fields may be separated by
// whitespace, commas or semicolons; with semicolons a decimal comma is accepted.
// Lines starting with '#' are comments. The first line is a header when its value
// field is neither a number nor a null token; otherwise a bad date fails like any row.
// Values matching a null token, textually or numerically, become invalid points.
func ReadSeries(r io.Reader, freq schema.Frequency, nullTokens []string) ([]schema.Point, error) {
	if _, ok := schema.ValidFrequencies[freq]; !ok {
		return nil, fmt.Errorf("invalid frequency '%s'. must be daily, monthly", freq)
	}
	nulls := newNullSet(nullTokens)

	var points []schema.Point
	scanner := bufio.NewScanner(r)
	lineNo := 0
	seenData := false
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		dateField, valueField, err := splitLine(line)
		if err != nil {
			if !seenData {
				seenData = true // header
				continue
			}
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		v, valid, valueErr := nulls.parse(valueField)
		if !seenData && valueErr != nil {
			seenData = true // header
			continue
		}
		seenData = true

		date, err := parseDate(dateField, freq)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if valueErr != nil {
			return nil, fmt.Errorf("line %d: invalid value %q", lineNo, valueField)
		}
		p := schema.Point{Date: date, Value: v, Valid: valid}

		if n := len(points); n > 0 && !p.Date.After(points[n-1].Date) {
			return nil, fmt.Errorf("line %d: date %s is not after %s", lineNo,
				p.Date.Format(dailyLayout), points[n-1].Date.Format(dailyLayout))
		}
		points = append(points, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return points, nil
}

// nullSet matches values against null tokens. Numeric tokens also match any spelling
// of the same number, so -99999 covers -99999.0 and -9.9999e4.
type nullSet struct {
	tokens  []string
	numbers []float64
	nan     bool
}

func newNullSet(tokens []string) nullSet {
	ns := nullSet{tokens: tokens}
	for _, tok := range tokens {
		f, err := strconv.ParseFloat(tok, 64)
		switch {
		case err != nil:
		case math.IsNaN(f):
			ns.nan = true
		default:
			ns.numbers = append(ns.numbers, f)
		}
	}
	return ns
}

// parse returns the value and whether it is valid. An error means the field is
// neither a number nor a null token.
func (ns nullSet) parse(field string) (float64, bool, error) {
	if slices.Contains(ns.tokens, field) {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, false, err
	}
	if math.IsNaN(v) {
		if ns.nan {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("NaN value %q without a NaN null token", field)
	}
	if slices.Contains(ns.numbers, v) {
		return 0, false, nil
	}
	return v, true, nil
}

func splitLine(line string) (string, string, error) {
	var fields []string
	if strings.Contains(line, ";") {
		for f := range strings.SplitSeq(line, ";") {
			if f = strings.TrimSpace(f); f != "" {
				fields = append(fields, f)
			}
		}
		if len(fields) == 2 {
			fields[1] = strings.Replace(fields[1], ",", ".", 1)
		}
	} else {
		fields = strings.FieldsFunc(line, func(r rune) bool {
			return unicode.IsSpace(r) || r == ','
		})
	}
	if len(fields) != 2 {
		return "", "", fmt.Errorf("expected 2 fields, got %d", len(fields))
	}
	return fields[0], fields[1], nil
}

// parseDate accepts YYYY-MM-DD, plus YYYY-MM for monthly series.
// Monthly dates are normalised to the first of the month.
func parseDate(s string, freq schema.Frequency) (time.Time, error) {
	if freq == schema.MonthlyFrequency {
		if t, err := time.Parse(monthlyLayout, s); err == nil {
			return t, nil
		}
		t, err := time.Parse(dailyLayout, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid monthly date %q. must be YYYY-MM or YYYY-MM-DD", s)
		}
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(dailyLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid daily date %q. must be YYYY-MM-DD", s)
	}
	return t, nil
}
