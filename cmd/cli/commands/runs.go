package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jakechorley/demand-prioritizer/pkg/core/services"
)

// ListRunsCmd creates the listRuns command
func ListRunsCmd(app *AppContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "listRuns",
		Short: "List recorded prioritization runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := app.Database()
			if err != nil {
				return err
			}

			runs, err := services.ListRuns(app.Ctx, database, app.Logger, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("\nNo runs recorded yet")
				return nil
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Run ID", "Created", "Default", "Strategies", "Items", "Ranked", "Excluded", "Next Review"})
			for _, r := range runs {
				nextReview := ""
				if r.NextReview != nil {
					nextReview = r.NextReview.Format("2006-01-02")
				}
				tw.AppendRow(table.Row{
					r.ID,
					r.CreatedAt.Local().Format(app.Cfg.Output.DateFormat),
					r.DefaultStrategy,
					strings.Join(r.Strategies, ", "),
					r.ItemCount,
					r.RankedCount,
					r.ExcludedCount,
					nextReview,
				})
			}
			fmt.Println()
			tw.Render()
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show (0 for all)")
	return cmd
}

// PublishRankingCmd creates the publishRanking command
func PublishRankingCmd(app *AppContext) *cobra.Command {
	var strategy string

	cmd := &cobra.Command{
		Use:   "publishRanking [run_id]",
		Short: "Publish a recorded ranking to a new tab of the ranking spreadsheet",
		Long:  "Publishes the ranking of a recorded run. Without a run ID the latest run is used.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := ""
			if len(args) == 1 {
				runID = args[0]
			}

			database, err := app.Database()
			if err != nil {
				return err
			}
			client, err := app.SheetsClient()
			if err != nil {
				return err
			}

			published, title, err := services.PublishRanking(app.Ctx, database, client, app.Cfg, app.Logger, runID, strategy)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Published %d rows of run %s (%s) to tab %q\n",
				len(published.Rows), published.RunID, published.Strategy, title)
			return nil
		},
	}

	cmd.Flags().StringVarP(&strategy, "strategy", "s", "", "Strategy to publish (defaults to the run's default strategy)")
	return cmd
}
