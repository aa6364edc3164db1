package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"catalog-ops/pkg/catalog"
	"catalog-ops/pkg/config"
	"catalog-ops/pkg/logger"
	"catalog-ops/pkg/pipeline"
	"catalog-ops/pkg/resolver"
)

// rehostCommand returns the "rehost" CLI subcommand.
func rehostCommand() *cli.Command {
	return &cli.Command{
		Name:  "rehost",
		Usage: "Download every catalog image, upload it to the storage bucket and rewrite the URLs",
		Flags: []cli.Flag{
			kindFlag(true),
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "Catalog JSON file to read",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Catalog JSON file to write (default: <input>_rehosted.json)",
			},
			&cli.BoolFlag{
				Name:  "follow-html",
				Usage: "Try the lead image of candidates that return an HTML page",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.ConfigFrom(cmd)
			if err != nil {
				return err
			}
			kind, err := kindFrom(cmd)
			if err != nil {
				return err
			}

			input := cmd.String("input")
			output := cmd.String("output")
			if output == "" {
				output = siblingPath(input, "_rehosted")
			}

			store, err := connectStore(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer store.Close()

			resolverCfg := cfg.Resolver.Resolver()
			if cmd.IsSet("follow-html") {
				resolverCfg.FollowHTML = cmd.Bool("follow-html")
			}
			res, err := resolver.New(resolverCfg)
			if err != nil {
				return err
			}

			entries, err := catalog.Load(input, kind)
			if err != nil {
				return err
			}
			logger.Log.Infof("Loaded %d %s from %s", len(entries), kind, input)

			every := cfg.Pipeline.CheckpointEvery
			if every <= 0 {
				every = catalog.DefaultEvery(kind)
			}
			p := pipeline.RehostPipelineBuilder(res, store, pipeline.Config{
				Output:          output,
				CheckpointEvery: every,
				ItemDelay:       cfg.Pipeline.ItemDelay,
			})

			start := time.Now()
			_, stats, err := p.Run(ctx, entries)
			logger.Log.WithFields(logrus.Fields{
				"entries":   stats.Entries,
				"updated":   stats.Updated,
				"errors":    stats.EntryErrors,
				"published": stats.Published,
				"resolved":  stats.Resolved,
			}).Infof("Rehost finished in %s, saved to %s", time.Since(start).Round(time.Second), output)
			if err != nil {
				return fmt.Errorf("rehost: %w", err)
			}
			return nil
		},
	}
}
