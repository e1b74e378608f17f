package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/huangsam/climacomp/internal/contract"
	"github.com/huangsam/climacomp/schema"
	"github.com/rs/zerolog/log"
)

// writeWithFile handles the common pattern of opening a file, writing to it, and cleaning up.
// It accepts a writer function that takes an io.Writer and returns an error.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	if file == os.Stdout {
		return writer(file)
	}

	if err := writer(file); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	log.Info().Str("file", outputFile).Msg(successMsg)
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader writes a header and the rows produced by writeRows.
// The field delimiter follows the decimal convention.
func writeCSVWithHeader(w io.Writer, sep schema.DecimalSeparator, header []string, writeRows func(*csv.Writer) error) error {
	csvWriter := csv.NewWriter(w)
	csvWriter.Comma = sep.Delimiter()

	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := writeRows(csvWriter); err != nil {
		return err
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// createFormatter returns the decimal formatter of the run.
func createFormatter(cfg *contract.RunConfig) func(float64) string {
	return func(v float64) string {
		return contract.FormatDecimal(v, cfg.Precision, cfg.Decimal)
	}
}
