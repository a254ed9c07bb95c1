package main

import (
	"github.com/spf13/cobra"

	"github.com/UWorldJK/stocks-etl/internal/app"
	"github.com/UWorldJK/stocks-etl/internal/app/di"
	"github.com/UWorldJK/stocks-etl/internal/config"
)

var rootCmd = &cobra.Command{
	Use:           "etl",
	Short:         "Daily stock metrics pipeline",
	Long:          "Fetches daily prices, computes technical metrics, and persists them to the local database.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.AddCommand(onceCmd, runCmd, sqlCmd, reportCmd)
}

// setup loads the configuration, installs the logger and wires the
// application container. Every subcommand starts here.
func setup() (*config.Config, *di.Container, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	app.NewLogger(cfg.App.LogLevel, cfg.App.LogFormat)

	c, err := di.Build(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, c, nil
}
