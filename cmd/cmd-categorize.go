package cmd

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"catalog-ops/pkg/catalog"
	"catalog-ops/pkg/categorize"
	"catalog-ops/pkg/config"
	"catalog-ops/pkg/logger"
)

// categorizeCommand returns the "categorize" CLI subcommand.
func categorizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "categorize",
		Usage: "Tag random Featured, Trending Now and Top Rated subsets and the new releases",
		Flags: []cli.Flag{
			kindFlag(false),
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "Catalog JSON file to read",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Catalog JSON file to write (default: overwrite input)",
			},
			&cli.Int64Flag{
				Name:  "seed",
				Usage: "Seed for reproducible subsets (overrides categorize.seed)",
			},
			&cli.BoolFlag{
				Name:  "sync",
				Usage: "Also write the categories to the document database",
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
				output = input
			}

			catCfg := cfg.Categorize.Categorizer()
			if cmd.IsSet("seed") {
				catCfg.Seed = cmd.Int64("seed")
			}
			c, err := categorize.New(catCfg)
			if err != nil {
				return err
			}

			doc, err := catalog.LoadDocument(input, kind)
			if err != nil {
				return err
			}
			entries := doc.Entries

			summary := c.Apply(entries)
			logger.Log.WithFields(logrus.Fields{
				"total":       summary.Total,
				"featured":    summary.Featured,
				"trending":    summary.Trending,
				"top_rated":   summary.TopRated,
				"new_release": summary.NewRelease,
				"changed":     summary.Changed,
			}).Info("Categories assigned")

			if err := catalog.WriteDocument(output, doc); err != nil {
				return err
			}
			logger.Log.Infof("Saved %s", output)

			if !cmd.Bool("sync") {
				return nil
			}

			client, err := connectMongo(ctx, cfg)
			if err != nil {
				return err
			}
			defer client.Close(context.Background())

			matched, err := categorize.Sync(ctx, client, kind, entries)
			logger.Log.Infof("Synced categories of %d documents in %s", matched, client.CollectionName(kind))
			if err != nil {
				return fmt.Errorf("sync categories: %w", err)
			}
			return nil
		},
	}
}
