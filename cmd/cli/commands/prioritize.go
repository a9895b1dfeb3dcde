package commands

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jakechorley/demand-prioritizer/pkg/core/services"
)

// PrioritizeCmd creates the prioritize command
func PrioritizeCmd(app *AppContext) *cobra.Command {
	var (
		src             sourceFlags
		strategy        string
		allStrategies   bool
		queueStrategies []string
		outputDir       string
		dryRun          bool
		noHistory       bool
	)

	cmd := &cobra.Command{
		Use:   "prioritize",
		Short: "Rank demand through every queue and export the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := parseQueueStrategies(queueStrategies)
			if err != nil {
				return err
			}
			source, err := src.source(app)
			if err != nil {
				return err
			}

			var store services.RunRecorder
			if !dryRun && !noHistory {
				if store, err = app.Database(); err != nil {
					return err
				}
			}

			result, err := services.Prioritize(app.Ctx, source, store, app.Cfg, app.Logger, services.PrioritizeOptions{
				Strategy:        strategy,
				AllStrategies:   allStrategies,
				QueueStrategies: overrides,
				OutputDir:       outputDir,
				DryRun:          dryRun,
			})
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Prioritization complete (run %s)\n\n", result.RunID)

			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Strategy", "Queue", "Queue Strategy", "Items", "Ranks"})
			for _, run := range result.Runs {
				for _, q := range run.Outcome.Queues {
					ranks := "-"
					if q.FirstRank > 0 {
						ranks = fmt.Sprintf("%d-%d", q.FirstRank, q.LastRank)
					}
					queueStrategy := q.Strategy.DisplayName()
					if !q.Rankable {
						queueStrategy = "not ranked"
					}
					tw.AppendRow(table.Row{run.Strategy.DisplayName(), q.Name, queueStrategy, q.ItemCount, ranks})
				}
				tw.AppendSeparator()
			}
			tw.Render()

			if cycle := result.PlanningCycle; cycle != nil {
				fmt.Printf("\nPlanning cycle: %s, next review %s\n",
					cycle.Start.Format("2006-01-02"), cycle.NextReview.Format("2006-01-02"))
			}

			printWarnings(result.Warnings)

			if dryRun {
				fmt.Println("\nDry run: no files written, run not recorded")
				return nil
			}
			fmt.Println("\nFiles written:")
			for _, f := range result.Files {
				fmt.Printf("  %s\n", f)
			}
			return nil
		},
	}

	src.register(cmd)
	cmd.Flags().StringVarP(&strategy, "strategy", "s", "", "Default strategy: sainte-lague, dhondt or wsjf (defaults to config)")
	cmd.Flags().BoolVar(&allStrategies, "all-strategies", false, "Run every strategy over every queue")
	cmd.Flags().StringArrayVar(&queueStrategies, "queue-strategy", nil, "Per-queue strategy override, e.g. NOW=wsjf (repeatable)")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Output directory (defaults to config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Rank and report without writing files or recording the run")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Write files but do not record the run in the database")

	return cmd
}

func printWarnings(warnings []string) {
	if len(warnings) == 0 {
		return
	}
	fmt.Printf("\n%d warning(s):\n", len(warnings))
	for _, w := range warnings {
		fmt.Printf("  ! %s\n", w)
	}
}
