package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jakechorley/demand-prioritizer/pkg/clients/sheetsclient"
	"github.com/jakechorley/demand-prioritizer/pkg/core/services"
	"github.com/jakechorley/demand-prioritizer/pkg/loader"
)

// sourceFlags selects where demand data is read from
type sourceFlags struct {
	ideas         string
	areaWeights   string
	streamWeights string
	fromSheets    bool
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.ideas, "ideas", "data/input/ideas.csv", "Ideas CSV file")
	cmd.Flags().StringVar(&f.areaWeights, "ra-weights", "data/input/ra_weights.csv", "Requesting area weights CSV file")
	cmd.Flags().StringVar(&f.streamWeights, "rs-weights", "data/input/rs_weights.csv", "Revenue stream weights CSV file")
	cmd.Flags().BoolVar(&f.fromSheets, "from-sheets", false, "Read ideas and weights from the configured Google Sheet")
}

func (f *sourceFlags) source(app *AppContext) (services.DemandSource, error) {
	if !f.fromSheets {
		return &loader.FileSource{
			IdeasPath:         f.ideas,
			AreaWeightsPath:   f.areaWeights,
			StreamWeightsPath: f.streamWeights,
			Config:            app.Cfg,
		}, nil
	}

	if err := app.Cfg.RequireSheets(); err != nil {
		return nil, err
	}
	client, err := app.SheetsClient()
	if err != nil {
		return nil, err
	}
	return sheetsclient.NewDemandSheet(client, app.Cfg), nil
}

// parseQueueStrategies turns repeated QUEUE=strategy flags into a map
func parseQueueStrategies(values []string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, nil
	}

	overrides := make(map[string]string, len(values))
	for _, v := range values {
		queue, strategy, ok := strings.Cut(v, "=")
		queue = strings.TrimSpace(queue)
		strategy = strings.TrimSpace(strategy)
		if !ok || queue == "" || strategy == "" {
			return nil, fmt.Errorf("invalid --queue-strategy %q, expected QUEUE=strategy", v)
		}
		if _, dup := overrides[queue]; dup {
			return nil, fmt.Errorf("queue %s given more than once in --queue-strategy", queue)
		}
		overrides[queue] = strings.ToLower(strategy)
	}
	return overrides, nil
}
