package cmd

import (
	"github.com/huangsam/climacomp/core"
	"github.com/huangsam/climacomp/internal/contract"
	"github.com/spf13/cobra"
)

// calendarCmd prints the analysis periods of the configured mode.
var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Show the analysis periods and bucket bounds of an interval mode.",
	Long: `List every analysis period of the configured interval mode in calendar order.

Sub-month modes show the first and last day of each bucket. The last bucket of a
month always runs to the month end, so it spans 28 to 31 days of the month.

Examples:
  climacomp calendar --mode 5days
  climacomp calendar --mode trimester --output json`,
	Args: cobra.NoArgs,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return configSetup()
	},
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteCalendar(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot print calendar", err)
		}
	},
}
