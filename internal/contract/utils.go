package contract

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/huangsam/climacomp/schema"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Outcome label constants.
const (
	DecreaseValue = "Decrease"
	NormalValue   = "Normal"
	ExceedValue   = "Exceed"
)

// Color variables for console output.
var (
	DecreaseColor = color.New(color.FgRed, color.Bold)
	NormalColor   = color.New(color.FgYellow)
	ExceedColor   = color.New(color.FgCyan, color.Bold)
)

// GetPlainLabel returns a plain text label for a forecast outcome.
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainLabel(o schema.Outcome) string {
	switch o {
	case schema.Decrease:
		return DecreaseValue
	case schema.Exceed:
		return ExceedValue
	default:
		return NormalValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
func GetColorLabel(o schema.Outcome) string {
	text := GetPlainLabel(o)
	switch o {
	case schema.Decrease:
		return DecreaseColor.Sprint(text)
	case schema.Exceed:
		return ExceedColor.Sprint(text)
	default:
		return NormalColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It falls back to os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// SetupLogger configures the global zerolog logger for console use on w.
func SetupLogger(w io.Writer, level zerolog.Level, useColors bool) {
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.Kitchen,
		NoColor:    !useColors,
	})
}

// LogFatal logs a fatal error and exits.
func LogFatal(msg string, err error) {
	log.Fatal().Err(err).Msg(msg)
}

// LogWarn logs a warning message.
func LogWarn(msg string, err error) {
	log.Warn().Err(err).Msg(msg)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for the series cache.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".climacomp_cache.db"
	}
	return filepath.Join(homeDir, ".climacomp_cache.db")
}

// GetStoreDBFilePath returns the path to the SQLite DB file for the result store.
func GetStoreDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".climacomp_store.db"
	}
	return filepath.Join(homeDir, ".climacomp_store.db")
}

// ParseBoolString parses a string into a boolean value.
// It accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}

// FormatDecimal formats v with the given precision and decimal convention.
func FormatDecimal(v float64, precision int, sep schema.DecimalSeparator) string {
	s := strconv.FormatFloat(v, 'f', precision, 64)
	if sep == schema.CommaSeparator {
		s = strings.Replace(s, ".", ",", 1)
	}
	return s
}

// FormatNullable formats a nullable mean, writing nullToken when it is missing.
func FormatNullable(v float64, valid bool, precision int, sep schema.DecimalSeparator, nullToken string) string {
	if !valid || math.IsNaN(v) {
		return nullToken
	}
	return FormatDecimal(v, precision, sep)
}
