package cmd

import (
	"github.com/huangsam/climacomp/core"
	"github.com/huangsam/climacomp/internal/contract"
	"github.com/huangsam/climacomp/internal/ingest"
	"github.com/huangsam/climacomp/schema"
	"github.com/spf13/cobra"
)

// forecastCmd computes composite forecast probabilities from input documents.
var forecastCmd = &cobra.Command{
	Use:   "forecast <input.yaml>...",
	Short: "Compute composite forecast probabilities from contingency tables.",
	Long: `Combine historical contingency tables with the current index tercile frequencies.

Each input document names a station, a target period and, per lag, a 3x3 table of
percentages (outcome by index tercile) plus the current below/normal/above frequencies.
The probability of each outcome is the sum over terciles of percent/100 * frequency.

With --significance yes, cells not flagged significant are dropped and the remaining
probabilities are not renormalised.

Examples:
  # Forecast a trimester target
  climacomp forecast inputs/april.yaml

  # Forecast 15 day buckets, gating non-significant cells
  climacomp forecast inputs/*.yaml --mode 15days --significance yes

  # Export to parquet
  climacomp forecast inputs/april.yaml --output parquet --output-file april.parquet`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		var inputs []schema.ForecastInput
		for _, path := range args {
			docs, err := ingest.LoadForecastFile(path)
			if err != nil {
				contract.LogFatal("Cannot read forecast input", err)
			}
			inputs = append(inputs, docs...)
		}
		if err := core.ExecuteForecast(rootCtx, cfg, inputs, cacheManager); err != nil {
			contract.LogFatal("Cannot run forecast", err)
		}
	},
}
