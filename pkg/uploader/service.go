package uploader

import (
	"context"
	"fmt"

	"catalog-ops/pkg/catalog"
	"catalog-ops/pkg/domain"
	"catalog-ops/pkg/filter"
	"catalog-ops/pkg/logger"
	"catalog-ops/pkg/worker"
)

// TitleLister reports which titles the document store already holds
type TitleLister interface {
	GetAllTitles(ctx context.Context, kind domain.Kind) (map[string]bool, error)
}

// Store is everything the upload needs from the document store
// *db.Client implements it
type Store interface {
	worker.Store
	TitleLister
}

// Service migrates catalog JSON files into the document store
type Service struct {
	store        Store
	manager      *worker.Manager
	skipExisting bool
	maxEntries   int
}

// Config holds configuration for the service
type Config struct {
	Store        Store
	WorkerCount  int
	Mode         worker.Mode
	SkipExisting bool
	MaxEntries   int
}

// NewService creates a new upload Service
func NewService(config Config) *Service {
	return &Service{
		store:        config.Store,
		manager:      worker.NewManager(config.WorkerCount, config.Store, config.Mode),
		skipExisting: config.SkipExisting,
		maxEntries:   config.MaxEntries,
	}
}

// Upload reads the catalog at path and writes its entries to the collection for kind
func (s *Service) Upload(ctx context.Context, path string, kind domain.Kind) (worker.Summary, error) {
	entries, err := catalog.Load(path, kind)
	if err != nil {
		return worker.Summary{}, fmt.Errorf("failed to load %s: %w", path, err)
	}
	logger.Log.Infof("Loaded %d %s entries from %s", len(entries), kind, path)

	return s.UploadEntries(ctx, kind, entries)
}

// UploadEntries writes already loaded entries to the collection for kind
func (s *Service) UploadEntries(ctx context.Context, kind domain.Kind, entries []domain.Entry) (worker.Summary, error) {
	filters := []filter.Filter{filter.NewTitledFilter()}

	if s.skipExisting {
		existing, err := s.store.GetAllTitles(ctx, kind)
		if err != nil {
			return worker.Summary{}, fmt.Errorf("failed to get stored titles: %w", err)
		}
		filters = append(filters, filter.NewAlreadyStoredFilter(existing), filter.NewDuplicateTitleFilter())
	}

	filtered, err := filter.FilterEntries(ctx, entries, filters...)
	if err != nil {
		return worker.Summary{}, fmt.Errorf("failed to filter entries: %w", err)
	}

	if skipped := len(entries) - len(filtered); skipped > 0 {
		logger.Log.Infof("Skipped %d entries", skipped)
	}

	if len(filtered) == 0 {
		logger.Log.Info("Nothing to upload")
		return worker.Summary{}, nil
	}

	// Limit to max entries
	if s.maxEntries > 0 && len(filtered) > s.maxEntries {
		filtered = filtered[:s.maxEntries]
	}

	summary, err := s.manager.ProcessEntries(ctx, kind, filtered)
	if err != nil {
		return summary, fmt.Errorf("failed to upload entries: %w", err)
	}

	return summary, nil
}
