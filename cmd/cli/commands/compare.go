package commands

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jakechorley/demand-prioritizer/pkg/core/prioritizer"
	"github.com/jakechorley/demand-prioritizer/pkg/core/services"
	"github.com/jakechorley/demand-prioritizer/pkg/loader"
)

// CompareCmd creates the compare command
func CompareCmd(app *AppContext) *cobra.Command {
	var (
		src      sourceFlags
		opts     services.CompareOptions
		noQueues bool
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare the global ranks each strategy gives every item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := src.source(app)
			if err != nil {
				return err
			}
			opts.UseQueues = !noQueues

			comparison, err := services.Compare(app.Ctx, source, app.Cfg, app.Logger, opts)
			if err != nil {
				return err
			}

			fmt.Println()
			renderComparison(comparison, app.Cfg.Output.DecimalPrecision, app.Cfg.Locale.DecimalSeparator)
			if opts.OutputPath != "" {
				fmt.Printf("\nComparison written to %s\n", opts.OutputPath)
			}
			return nil
		},
	}

	src.register(cmd)
	cmd.Flags().StringSliceVar(&opts.Strategies, "strategies", nil, "Strategies to compare (defaults to all)")
	cmd.Flags().BoolVar(&noQueues, "no-queues", false, "Rank all items together instead of sequencing through queues")
	cmd.Flags().IntVarP(&opts.TopN, "top-n", "n", 0, "Only show the top N items")
	cmd.Flags().StringVarP(&opts.OutputPath, "output", "o", "", "Also write the comparison to this CSV file")

	return cmd
}

func renderComparison(comparison *prioritizer.Comparison, precision int, decimal string) {
	header := table.Row{"ID", "Name", "Stream", "Area"}
	for _, s := range comparison.Strategies {
		header = append(header, s.DisplayName())
	}
	header = append(header, "Avg", "Std Dev")

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(header)
	tw.SetColumnConfigs([]table.ColumnConfig{{Name: "Name", WidthMax: 40}})
	for _, r := range comparison.Rows {
		row := table.Row{r.ID, r.Name, r.RevenueStream, r.RequestingArea}
		for _, s := range comparison.Strategies {
			if rank, ok := r.Ranks[s]; ok {
				row = append(row, rank)
			} else {
				row = append(row, "-")
			}
		}
		row = append(row, loader.FormatNumber(r.AvgRank, precision, decimal), loader.FormatNumber(r.RankVariance, precision, decimal))
		tw.AppendRow(row)
	}
	tw.Render()
}
