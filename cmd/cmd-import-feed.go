package cmd

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/urfave/cli/v3"

	"catalog-ops/pkg/catalog"
	"catalog-ops/pkg/logger"
)

// importFeedCommand returns the "import-feed" CLI subcommand.
func importFeedCommand() *cli.Command {
	return &cli.Command{
		Name:  "import-feed",
		Usage: "Append the items of an RSS, Atom or JSON feed to a catalog file",
		Flags: []cli.Flag{
			kindFlag(false),
			&cli.StringFlag{
				Name:     "feed",
				Aliases:  []string{"f"},
				Usage:    "Feed URL or file",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Usage:    "Catalog JSON file to merge into (created if missing)",
				Required: true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			kind, err := kindFrom(cmd)
			if err != nil {
				return err
			}
			output := cmd.String("output")

			doc := &catalog.Document{Shape: catalog.ShapeArray}
			if _, err := os.Stat(output); err == nil {
				if doc, err = catalog.LoadDocument(output, kind); err != nil {
					return err
				}
			} else if !errors.Is(err, fs.ErrNotExist) {
				return err
			}

			incoming, err := catalog.FromFeed(ctx, cmd.String("feed"))
			if err != nil {
				return err
			}

			merged, added := catalog.Merge(doc.Entries, incoming)
			doc.Entries = merged
			if err := catalog.WriteDocument(output, doc); err != nil {
				return err
			}
			logger.Log.Infof("Imported %d of %d feed items into %s (%d entries)", added, len(incoming), output, len(merged))
			return nil
		},
	}
}
