package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/demand-prioritizer/cmd/cli/commands"
	"github.com/jakechorley/demand-prioritizer/internal/config"
	"github.com/jakechorley/demand-prioritizer/pkg/utils/logging"
)

var (
	env        string
	configPath string
	verbose    bool
	app        = &commands.AppContext{Ctx: context.Background()}
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "cli",
		Short:        "Demand prioritizer - rank ideas by proportional allocation or WSJF",
		Long:         `A CLI tool for ranking demand across revenue streams and requesting areas with D'Hondt, Sainte-Laguë or WSJF, sequenced through execution queues.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if err := app.Close(); err != nil && app.Logger != nil {
				app.Logger.Warn("Failed to close database", zap.Error(err))
			}
			if app.Logger != nil {
				app.Logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (defaults to demand_config.<env>.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to the console")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(commands.PrioritizeCmd(app))
	rootCmd.AddCommand(commands.PrioritizeStreamsCmd(app))
	rootCmd.AddCommand(commands.PrioritizeGlobalCmd(app))
	rootCmd.AddCommand(commands.CompareCmd(app))
	rootCmd.AddCommand(commands.ValidateCmd(app))
	rootCmd.AddCommand(commands.ListRunsCmd(app))
	rootCmd.AddCommand(commands.PublishRankingCmd(app))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up the logger and configuration. Clients are created by the commands that need them.
func initApp() error {
	var err error
	app.Env = env

	app.Logger, err = logging.InitLogger(env, logging.Options{Verbose: verbose})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger.Debug("Starting application", zap.String("environment", env))

	if configPath != "" {
		app.Cfg, err = config.LoadFromPath(configPath)
	} else {
		app.Cfg, err = config.LoadWithEnv(env)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded",
		zap.String("default_strategy", app.Cfg.Prioritization.DefaultStrategy),
		zap.Strings("queues", app.Cfg.QueueNames()))

	return nil
}
