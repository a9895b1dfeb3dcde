package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jakechorley/demand-prioritizer/pkg/core/services"
	"github.com/jakechorley/demand-prioritizer/pkg/loader"
)

// ValidateCmd creates the validate command
func ValidateCmd(app *AppContext) *cobra.Command {
	var src sourceFlags

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check ideas and weights without ranking anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := src.source(app)
			if err != nil {
				return err
			}

			summary, err := services.Validate(app.Ctx, source, app.Cfg, app.Logger)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Demand data is valid\n\n")

			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendRows([]table.Row{
				{"Items", summary.Items},
				{"Revenue streams", strings.Join(summary.RevenueStreams, ", ")},
				{"Requesting areas", summary.AreaCount},
				{"Area weight rows", summary.AreaWeights},
				{"Stream weight rows", summary.StreamWeights},
				{"Average size", loader.FormatNumber(summary.AverageSize, app.Cfg.Output.DecimalPrecision, app.Cfg.Locale.DecimalSeparator)},
				{"Weights normalized", summary.Normalized},
			})
			tw.AppendSeparator()
			for _, name := range app.Cfg.QueueNames() {
				tw.AppendRow(table.Row{"Queue " + name, summary.ItemsPerQueue[name]})
			}
			tw.AppendRow(table.Row{"No queue", summary.Unqueued})
			tw.Render()

			printWarnings(summary.Warnings)
			return nil
		},
	}

	src.register(cmd)
	return cmd
}
