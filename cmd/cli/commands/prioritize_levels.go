package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/demand-prioritizer/pkg/core/services"
)

// PrioritizeStreamsCmd creates the prioritizeStreams command
func PrioritizeStreamsCmd(app *AppContext) *cobra.Command {
	var (
		src           sourceFlags
		strategy      string
		allStrategies bool
		outputDir     string
	)

	cmd := &cobra.Command{
		Use:   "prioritizeStreams",
		Short: "Rank requesting areas within each revenue stream (level 2 only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := src.source(app)
			if err != nil {
				return err
			}

			rankings, err := services.PrioritizeStreams(app.Ctx, source, app.Cfg, app.Logger, services.StreamOptions{
				Strategy:      strategy,
				AllStrategies: allStrategies,
				OutputDir:     outputDir,
			})
			if err != nil {
				return err
			}

			fmt.Println()
			for _, r := range rankings {
				fmt.Printf("✓ %-13s %3d ranked, %d excluded -> %s\n",
					r.Strategy.DisplayName(), len(r.Result.Items), len(r.Result.Exclusions), r.File)
			}
			return nil
		},
	}

	src.register(cmd)
	cmd.Flags().StringVarP(&strategy, "strategy", "s", "", "Strategy: sainte-lague, dhondt or wsjf (defaults to config)")
	cmd.Flags().BoolVar(&allStrategies, "all-strategies", false, "Run every strategy")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Output directory (defaults to config)")

	return cmd
}

// PrioritizeGlobalCmd creates the prioritizeGlobal command
func PrioritizeGlobalCmd(app *AppContext) *cobra.Command {
	var opts services.GlobalOptions

	cmd := &cobra.Command{
		Use:   "prioritizeGlobal <stream_ranking_csv>",
		Short: "Rank revenue streams against each other from an exported stream ranking (level 3 only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.StreamRankingPath = args[0]

			global, err := services.PrioritizeGlobal(app.Ctx, app.Cfg, app.Logger, opts)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ %s global ranking: %d ranked, %d excluded -> %s\n",
				global.Strategy.DisplayName(), len(global.Result.Items), len(global.Result.Exclusions), global.File)
			printWarnings(global.Warnings)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.StreamWeightsPath, "rs-weights", "data/input/rs_weights.csv", "Revenue stream weights CSV file")
	cmd.Flags().StringVarP(&opts.OutputPath, "output", "o", "", "Output file (defaults to demand_<strategy>.csv in the output directory)")
	cmd.Flags().StringVarP(&opts.Strategy, "strategy", "s", "", "Strategy (defaults to the Method column, then config)")

	return cmd
}
