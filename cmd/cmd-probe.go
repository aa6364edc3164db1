package cmd

import (
	"context"

	"github.com/urfave/cli/v3"

	"catalog-ops/pkg/config"
	"catalog-ops/pkg/logger"
)

// probeCommand returns the "probe" CLI subcommand.
func probeCommand() *cli.Command {
	return &cli.Command{
		Name:  "probe",
		Usage: "Check the storage credentials by finding a bucket and uploading a test object",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.ConfigFrom(cmd)
			if err != nil {
				return err
			}

			store, err := connectStore(ctx, cfg, true)
			if err != nil {
				return err
			}
			defer store.Close()

			logger.Log.WithField("bucket", store.Bucket()).Info("Storage connection OK")
			return nil
		},
	}
}
