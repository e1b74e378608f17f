package cmd

import (
	"errors"

	"github.com/huangsam/climacomp/core"
	"github.com/huangsam/climacomp/internal/contract"
	"github.com/huangsam/climacomp/internal/ingest"
	"github.com/spf13/cobra"
)

// alignCmd aligns the D and I series of every station in the manifest.
var alignCmd = &cobra.Command{
	Use:   "align",
	Short: "Aggregate D and lagged I into analysis periods for every station.",
	Long: `Run the lag aligner over every station listed in the manifest.

For each station, the dependent variable D is averaged per analysis period and the
independent variable I is averaged over the same period shifted back by 0, 1 or 2
periods. Periods are calendar months in trimester mode, and 5, 10 or 15 day buckets
in the sub-month modes.

Stations that fail to load or align are logged and skipped.

Examples:
  # Align monthly data over a fixed period
  climacomp align --stations stations.yaml --start 1981 --end 2010

  # Use the widest span of complete years shared by D and I
  climacomp align --stations stations.yaml --start maximum

  # 10 day buckets with report files using comma decimals
  climacomp align --stations stations.yaml --mode 10days --reports --decimal comma

  # Record every aligned record in a result store
  climacomp align --stations stations.yaml --store-backend sqlite`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if cfg.StationsFile == "" {
			contract.LogFatal("Cannot run alignment", errors.New("--stations is required"))
		}
		manifest, err := ingest.LoadManifest(cfg.StationsFile)
		if err != nil {
			contract.LogFatal("Cannot read station manifest", err)
		}
		if err := core.ExecuteAlign(rootCtx, cfg, manifest.Stations, cacheManager); err != nil {
			contract.LogFatal("Cannot run alignment", err)
		}
	},
}
