package cmd

import (
	"context"

	"github.com/urfave/cli/v3"

	"catalog-ops/pkg/config"
	"catalog-ops/pkg/logger"
	"catalog-ops/pkg/uploader"
	"catalog-ops/pkg/worker"
)

// uploadCommand returns the "upload" CLI subcommand.
func uploadCommand() *cli.Command {
	return &cli.Command{
		Name:  "upload",
		Usage: "Insert the entries of a catalog JSON file into the document database",
		Flags: []cli.Flag{
			kindFlag(true),
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "Catalog JSON file to read",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "mode",
				Usage: "insert or upsert (overrides upload.mode)",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Number of parallel upload workers (overrides upload.workers)",
			},
			&cli.BoolFlag{
				Name:  "skip-existing",
				Usage: "Skip titles already in the collection",
			},
			&cli.IntFlag{
				Name:  "max",
				Usage: "Upload at most this many entries (0 means no limit)",
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

			upload := cfg.Upload
			if cmd.IsSet("mode") {
				upload.Mode = cmd.String("mode")
			}
			if cmd.IsSet("workers") {
				upload.Workers = cmd.Int("workers")
			}
			if cmd.IsSet("skip-existing") {
				upload.SkipExisting = cmd.Bool("skip-existing")
			}
			if cmd.IsSet("max") {
				upload.MaxEntries = cmd.Int("max")
			}
			mode, err := worker.ParseMode(upload.Mode)
			if err != nil {
				return err
			}

			client, err := connectMongo(ctx, cfg)
			if err != nil {
				return err
			}
			defer client.Close(context.Background())

			svc := uploader.NewService(uploader.Config{
				Store:        client,
				WorkerCount:  upload.Workers,
				Mode:         mode,
				SkipExisting: upload.SkipExisting,
				MaxEntries:   upload.MaxEntries,
			})

			summary, err := svc.Upload(ctx, cmd.String("input"), kind)
			if err != nil {
				return err
			}
			logger.Log.Infof("Uploaded %d %s to %s (%d errors)",
				summary.Succeeded, kind, client.CollectionName(kind), summary.Failed)
			return nil
		},
	}
}
