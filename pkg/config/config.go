// Package config loads catalogctl settings from defaults, a YAML file and
// CATALOG_ environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v3"

	"catalog-ops/pkg/categorize"
	"catalog-ops/pkg/db"
	"catalog-ops/pkg/domain"
	"catalog-ops/pkg/httpclient"
	"catalog-ops/pkg/imagecache"
	"catalog-ops/pkg/logger"
	"catalog-ops/pkg/objectstore"
	"catalog-ops/pkg/resolver"
)

// EnvPrefix marks environment overrides. CATALOG_MONGO__URI sets mongo.uri.
const EnvPrefix = "CATALOG_"

// Config holds all application configuration.
type Config struct {
	Log         LogConfig         `koanf:"log"`
	Credentials CredentialsConfig `koanf:"credentials"`
	Storage     StorageConfig     `koanf:"storage"`
	Mongo       MongoConfig       `koanf:"mongo"`
	Postgres    PostgresConfig    `koanf:"postgres"`
	Resolver    ResolverConfig    `koanf:"resolver"`
	Pipeline    PipelineConfig    `koanf:"pipeline"`
	Categorize  CategorizeConfig  `koanf:"categorize"`
	Upload      UploadConfig      `koanf:"upload"`
}

type LogConfig struct {
	Level      string `koanf:"level" validate:"omitempty,oneof=debug info warn warning error"`
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb" validate:"min=0"`
	MaxBackups int    `koanf:"max_backups" validate:"min=0"`
	MaxAgeDays int    `koanf:"max_age_days" validate:"min=0"`
	Compress   bool   `koanf:"compress"`
}

// CredentialsConfig points at the object storage service account file.
type CredentialsConfig struct {
	File string `koanf:"file"`
}

type StorageConfig struct {
	BucketPatterns []string `koanf:"bucket_patterns" validate:"dive,required"`
	MakePublic     bool     `koanf:"make_public"`
	Probe          bool     `koanf:"probe"`
	Prefix         string   `koanf:"prefix"`
	CacheControl   string   `koanf:"cache_control"`
}

type MongoConfig struct {
	URI         string            `koanf:"uri"`
	Database    string            `koanf:"database" validate:"required"`
	Collections CollectionsConfig `koanf:"collections"`
	Timeout     time.Duration     `koanf:"timeout" validate:"min=0"`
}

type CollectionsConfig struct {
	Movies string `koanf:"movies" validate:"required"`
	Series string `koanf:"series" validate:"required"`
}

// PostgresConfig selects the replication sink: a direct DSN, or Supabase
// connection settings when DSN is empty.
type PostgresConfig struct {
	DSN          string        `koanf:"dsn"`
	SupabaseURL  string        `koanf:"supabase_url"`
	Password     string        `koanf:"password"`
	MaxOpenConns int           `koanf:"max_open_conns" validate:"min=0"`
	MaxIdleConns int           `koanf:"max_idle_conns" validate:"min=0"`
	ConnMaxIdle  time.Duration `koanf:"conn_max_idle"`
	ConnMaxLife  time.Duration `koanf:"conn_max_life"`
}

type ResolverConfig struct {
	CacheDir     string          `koanf:"cache_dir" validate:"required"`
	MinBytes     int64           `koanf:"min_bytes" validate:"min=0"`
	AttemptDelay time.Duration   `koanf:"attempt_delay" validate:"min=0"`
	Timeout      time.Duration   `koanf:"timeout" validate:"required"`
	FollowHTML   bool            `koanf:"follow_html"`
	Client       string          `koanf:"client" validate:"oneof=image browser plain"`
	Rewrites     []resolver.Rule `koanf:"rewrites" validate:"dive"`
	Seed         int64           `koanf:"seed"`
}

type PipelineConfig struct {
	ItemDelay time.Duration `koanf:"item_delay" validate:"min=0"`
	// CheckpointEvery of 0 picks the per kind default.
	CheckpointEvery int `koanf:"checkpoint_every" validate:"min=0"`
}

type CategorizeConfig struct {
	FeaturedPct  int             `koanf:"featured_pct" validate:"min=0,max=100"`
	TrendingPct  int             `koanf:"trending_pct" validate:"min=0,max=100"`
	TopRatedPct  int             `koanf:"top_rated_pct" validate:"min=0,max=100"`
	CurrentYear  int             `koanf:"current_year" validate:"min=0"`
	PreviousYear int             `koanf:"previous_year" validate:"min=0"`
	Tags         categorize.Tags `koanf:"tags"`
	Seed         int64           `koanf:"seed"`
}

type UploadConfig struct {
	Workers      int    `koanf:"workers" validate:"min=1"`
	Mode         string `koanf:"mode" validate:"oneof=insert upsert"`
	SkipExisting bool   `koanf:"skip_existing"`
	MaxEntries   int    `koanf:"max_entries" validate:"min=0"`
}

func defaults() map[string]any {
	cat := categorize.DefaultConfig()
	return map[string]any{
		"log.level":       "info",
		"log.max_size_mb": 50,
		"log.max_backups": 3,

		"credentials.file": "credentials.json",

		"storage.bucket_patterns": objectstore.DefaultBucketPatterns(),
		"storage.make_public":     true,
		"storage.probe":           true,
		"storage.prefix":          objectstore.DefaultPrefix,
		"storage.cache_control":   "3600",

		"mongo.uri":                "mongodb://localhost:27017",
		"mongo.database":           "movies_db",
		"mongo.collections.movies": "movies",
		"mongo.collections.series": "series",
		"mongo.timeout":            "10s",

		"resolver.cache_dir":     "image_cache",
		"resolver.min_bytes":     imagecache.DefaultMinBytes,
		"resolver.attempt_delay": "500ms",
		"resolver.timeout":       "10s",
		"resolver.client":        "image",

		"pipeline.item_delay": "1s",

		"categorize.featured_pct":     cat.FeaturedPct,
		"categorize.trending_pct":     cat.TrendingPct,
		"categorize.top_rated_pct":    cat.TopRatedPct,
		"categorize.tags.featured":    cat.Tags.Featured,
		"categorize.tags.trending":    cat.Tags.Trending,
		"categorize.tags.top_rated":   cat.Tags.TopRated,
		"categorize.tags.new_release": cat.Tags.NewRelease,

		"upload.workers": 4,
		"upload.mode":    "insert",
	}
}

// Load reads and validates configuration. A missing file at path is not an
// error; defaults and environment still apply. A .env file in the working
// directory is loaded into the environment first.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("loading config from %s: %w", path, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// An explicit empty list disables the rewrites.
	if !k.Exists("resolver.rewrites") {
		cfg.Resolver.Rewrites = resolver.DefaultRules()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// envKey maps CATALOG_RESOLVER__CACHE_DIR onto resolver.cache_dir.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	if sum := c.Categorize.FeaturedPct + c.Categorize.TrendingPct + c.Categorize.TopRatedPct; sum > 100 {
		return fmt.Errorf("validating config: categorize percentages sum to %d: %w", sum, categorize.ErrPercentages)
	}
	if _, err := resolver.Candidates("https://example.com/a.jpg", c.Resolver.Rewrites); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	return nil
}

// ConfigFrom extracts the Config from the CLI command metadata.
func ConfigFrom(cmd *cli.Command) (*Config, error) {
	v, ok := cmd.Root().Metadata["config"]
	if !ok {
		return nil, fmt.Errorf("config not found in command metadata")
	}
	cfg, ok := v.(*Config)
	if !ok {
		return nil, fmt.Errorf("config has unexpected type %T", v)
	}
	return cfg, nil
}

func (c LogConfig) Logger() logger.Config {
	return logger.Config{
		Level:      c.Level,
		File:       c.File,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

func (c StorageConfig) Store(creds objectstore.Credentials) objectstore.Config {
	return objectstore.Config{
		Credentials:    creds,
		BucketPatterns: c.BucketPatterns,
		MakePublic:     c.MakePublic,
		Probe:          c.Probe,
		Prefix:         c.Prefix,
		CacheControl:   c.CacheControl,
	}
}

func (c MongoConfig) CollectionMap() map[domain.Kind]string {
	return map[domain.Kind]string{
		domain.KindMovies: c.Collections.Movies,
		domain.KindSeries: c.Collections.Series,
	}
}

func (c PostgresConfig) Pool() db.PoolConfig {
	return db.PoolConfig{
		MaxOpenConns: c.MaxOpenConns,
		MaxIdleConns: c.MaxIdleConns,
		ConnMaxIdle:  c.ConnMaxIdle,
		ConnMaxLife:  c.ConnMaxLife,
	}
}

func (c ResolverConfig) Resolver() resolver.Config {
	return resolver.Config{
		CacheDir:     c.CacheDir,
		MinBytes:     c.MinBytes,
		AttemptDelay: c.AttemptDelay,
		Timeout:      c.Timeout,
		FollowHTML:   c.FollowHTML,
		Client:       httpclient.ClientType(c.Client),
		Rewrites:     c.Rewrites,
		Seed:         c.Seed,
	}
}

func (c CategorizeConfig) Categorizer() categorize.Config {
	return categorize.Config{
		FeaturedPct:  c.FeaturedPct,
		TrendingPct:  c.TrendingPct,
		TopRatedPct:  c.TopRatedPct,
		CurrentYear:  c.CurrentYear,
		PreviousYear: c.PreviousYear,
		Tags:         c.Tags,
		Seed:         c.Seed,
	}
}
