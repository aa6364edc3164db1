package cmd

import (
	"context"

	"github.com/urfave/cli/v3"

	"catalog-ops/pkg/config"
	"catalog-ops/pkg/logger"
)

// Root returns the root CLI command.
func Root() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:  "catalogctl",
		Usage: "Batch jobs for the movie and series catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to configuration file",
				Value:       "catalog.yaml",
				Destination: &configPath,
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			cfg, err := config.Load(configPath)
			if err != nil {
				return ctx, err
			}

			logCfg := cfg.Log.Logger()
			if cmd.Bool("debug") {
				logCfg.Level = "debug"
			}
			logger.Init(logCfg)

			cmd.Metadata["config"] = cfg
			return ctx, nil
		},
		Commands: []*cli.Command{
			rehostCommand(),
			uploadCommand(),
			categorizeCommand(),
			probeCommand(),
			replicateCommand(),
			importFeedCommand(),
		},
		Metadata: map[string]any{},
	}
}
