package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"catalog-ops/pkg/config"
	"catalog-ops/pkg/db"
	"catalog-ops/pkg/domain"
	"catalog-ops/pkg/logger"
	"catalog-ops/pkg/objectstore"
)

func kindFlag(required bool) *cli.StringFlag {
	f := &cli.StringFlag{
		Name:     "kind",
		Aliases:  []string{"k"},
		Usage:    "Catalog kind: movies or series",
		Required: required,
	}
	if !required {
		f.Value = string(domain.KindMovies)
	}
	return f
}

func kindFrom(cmd *cli.Command) (domain.Kind, error) {
	kind, ok := domain.ParseKind(cmd.String("kind"))
	if !ok {
		return "", fmt.Errorf("unknown kind %q (want movies or series)", cmd.String("kind"))
	}
	return kind, nil
}

// siblingPath returns path with suffix inserted before the extension.
func siblingPath(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix + ext
}

// connectMongo opens the document store; the caller closes it.
func connectMongo(ctx context.Context, cfg *config.Config) (*db.Client, error) {
	client := db.NewClient(cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.CollectionMap())

	connectCtx := ctx
	if cfg.Mongo.Timeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, cfg.Mongo.Timeout)
		defer cancel()
	}
	if err := client.Connect(connectCtx); err != nil {
		_ = client.Close(context.Background())
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Log.WithField("database", cfg.Mongo.Database).Info("Connected to MongoDB")
	return client, nil
}

// connectStore loads the credentials and opens the storage bucket.
func connectStore(ctx context.Context, cfg *config.Config, probe bool) (*objectstore.Store, error) {
	creds, err := objectstore.LoadCredentials(cfg.Credentials.File)
	if err != nil {
		return nil, err
	}
	storeCfg := cfg.Storage.Store(creds)
	storeCfg.Probe = storeCfg.Probe || probe

	store, err := objectstore.Connect(ctx, storeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to object storage: %w", err)
	}
	return store, nil
}

type sqlSink interface {
	db.DBProvider
	Close() error
}

// connectPostgres opens the replication sink, directly by DSN or through the
// Supabase connection settings.
func connectPostgres(ctx context.Context, cfg *config.Config) (sqlSink, error) {
	if cfg.Postgres.DSN != "" {
		pg := db.NewPostgresClient(db.PostgresConfig{DSN: cfg.Postgres.DSN, Pool: cfg.Postgres.Pool()})
		if err := pg.Connect(ctx); err != nil {
			return nil, err
		}
		return pg, nil
	}

	sb := db.NewSupabaseClient(db.SupabaseConfig{
		SupabaseURL: cfg.Postgres.SupabaseURL,
		Password:    cfg.Postgres.Password,
		Pool:        cfg.Postgres.Pool(),
	})
	if err := sb.Connect(ctx); err != nil {
		return nil, err
	}
	if !sb.HasDirectDB() {
		_ = sb.Close()
		return nil, fmt.Errorf("postgres: set postgres.dsn or postgres.supabase_url and postgres.password")
	}
	return sb, nil
}
