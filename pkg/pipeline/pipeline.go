package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"catalog-ops/pkg/catalog"
	"catalog-ops/pkg/domain"
	"catalog-ops/pkg/logger"
	"catalog-ops/pkg/objectstore"
	"catalog-ops/pkg/resolver"
	"catalog-ops/pkg/slug"
)

// ImageResolver produces a local image file for a source URL
// *resolver.Resolver implements it
type ImageResolver interface {
	Resolve(ctx context.Context, url, title, label string, index int) resolver.Result
}

// Publisher uploads a local file and returns its hosted location
// *objectstore.Store implements it
type Publisher interface {
	Publish(ctx context.Context, localPath, title, label string) objectstore.Result
}

// EntryProcessor rewrites the image fields of one entry
type EntryProcessor interface {
	// ProcessEntry returns the updated copy of entry; entry itself is not modified.
	// name identifies the entry in object paths and cache keys.
	ProcessEntry(ctx context.Context, entry domain.Entry, name string) (domain.Entry, EntryReport, error)
}

// Config controls a rehost run
type Config struct {
	// Output is the catalog file checkpoints are written to
	Output string
	// CheckpointEvery is the snapshot interval in entries
	CheckpointEvery int
	// ItemDelay spaces the start of consecutive entries
	ItemDelay time.Duration
}

// Pipeline runs every catalog entry through the processor, strictly one
// after another, and checkpoints the processed entries to the output file.
type Pipeline struct {
	processor EntryProcessor
	cfg       Config
	limiter   *rate.Limiter
}

// NewPipeline creates a new pipeline around processor
func NewPipeline(processor EntryProcessor, cfg Config) *Pipeline {
	limit := rate.Inf
	if cfg.ItemDelay > 0 {
		limit = rate.Every(cfg.ItemDelay)
	}
	return &Pipeline{
		processor: processor,
		cfg:       cfg,
		limiter:   rate.NewLimiter(limit, 1),
	}
}

// Run processes entries and returns the processed collection.
//
// An entry that fails is kept unchanged. When ctx is cancelled the loop
// stops between entries, the entries processed so far are checkpointed and
// ctx.Err() is returned.
func (p *Pipeline) Run(ctx context.Context, entries []domain.Entry) ([]domain.Entry, Stats, error) {
	var stats Stats
	if p.processor == nil {
		return nil, stats, fmt.Errorf("entry processor is not set")
	}

	cp := &catalog.Checkpointer{Path: p.cfg.Output, Every: p.cfg.CheckpointEvery}
	processed := make([]domain.Entry, 0, len(entries))
	total := len(entries)

	for i, entry := range entries {
		if err := p.limiter.Wait(ctx); err != nil {
			return processed, stats, p.interrupted(cp, processed, err)
		}

		name := EntryName(entry, i)
		log := logger.Log.WithFields(logrus.Fields{"title": name, "index": i + 1, "total": total})
		log.Info("Processing entry")

		updated, report, err := p.processEntry(ctx, entry, name)
		stats.Add(report)

		switch {
		case err != nil && ctx.Err() != nil:
			return processed, stats, p.interrupted(cp, processed, ctx.Err())
		case err != nil:
			stats.EntryErrors++
			log.WithError(err).Error("Error processing entry, keeping original")
			processed = append(processed, entry)
		default:
			if report.Changed() {
				stats.Updated++
			}
			processed = append(processed, updated)
		}
		stats.Entries++

		if _, err := cp.Observe(i, total, processed); err != nil {
			return processed, stats, fmt.Errorf("checkpoint: %w", err)
		}
	}

	if total == 0 {
		if err := cp.Flush(processed); err != nil {
			return processed, stats, fmt.Errorf("checkpoint: %w", err)
		}
	}
	return processed, stats, nil
}

// processEntry shields the run from a panic inside one entry.
func (p *Pipeline) processEntry(ctx context.Context, entry domain.Entry, name string) (updated domain.Entry, report EntryReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing entry: %v", r)
		}
	}()
	return p.processor.ProcessEntry(ctx, entry, name)
}

// EntryName returns the title of the entry at position i, or "Entry <i+1>"
// when the title has no characters usable in a path.
func EntryName(entry domain.Entry, i int) string {
	if title := entry.Title(); slug.Title(title) != "" {
		return title
	}
	return fmt.Sprintf("Entry %d", i+1)
}

func (p *Pipeline) interrupted(cp *catalog.Checkpointer, processed []domain.Entry, cause error) error {
	logger.Log.Warnf("Run interrupted after %d entries, saving checkpoint", len(processed))
	if err := cp.Flush(processed); err != nil {
		return fmt.Errorf("%w (final checkpoint failed: %v)", cause, err)
	}
	return cause
}
