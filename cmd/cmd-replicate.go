package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"catalog-ops/pkg/config"
	"catalog-ops/pkg/domain"
	"catalog-ops/pkg/replication"
)

// replicateCommand returns the "replicate" CLI subcommand.
func replicateCommand() *cli.Command {
	return &cli.Command{
		Name:  "replicate",
		Usage: "Copy the document collections into the Postgres catalog_entry table",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "kind",
				Aliases: []string{"k"},
				Usage:   "Catalog kind: movies, series or all",
				Value:   "all",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.ConfigFrom(cmd)
			if err != nil {
				return err
			}

			kinds := []domain.Kind{domain.KindMovies, domain.KindSeries}
			if cmd.String("kind") != "all" {
				kind, err := kindFrom(cmd)
				if err != nil {
					return err
				}
				kinds = []domain.Kind{kind}
			}

			client, err := connectMongo(ctx, cfg)
			if err != nil {
				return err
			}
			defer client.Close(context.Background())

			sink, err := connectPostgres(ctx, cfg)
			if err != nil {
				return err
			}
			defer sink.Close()

			r, err := replication.NewReplicator(replication.Config{Source: client, Postgres: sink})
			if err != nil {
				return err
			}
			for _, kind := range kinds {
				if _, err := r.Replicate(ctx, kind); err != nil {
					return fmt.Errorf("replicate %s: %w", kind, err)
				}
			}
			return nil
		},
	}
}
