package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"catalog-ops/cmd"
	"catalog-ops/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Root().Run(ctx, os.Args); err != nil {
		if cause := context.Cause(ctx); cause != nil {
			logger.Log.WithError(err).Warn("Interrupted")
		} else {
			logger.Log.WithError(err).Error("Command failed")
		}
		os.Exit(1)
	}
}
