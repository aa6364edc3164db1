package worker

import (
	"context"
	"fmt"

	"catalog-ops/pkg/domain"
	"catalog-ops/pkg/logger"
)

// Mode selects how entries are written
type Mode string

const (
	// ModeInsert stores every entry as a new document
	ModeInsert Mode = "insert"
	// ModeUpsert replaces the document with the same title
	ModeUpsert Mode = "upsert"
)

// ParseMode validates a mode name
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeInsert, ModeUpsert:
		return Mode(s), nil
	case "":
		return ModeInsert, nil
	}
	return "", fmt.Errorf("unknown upload mode %q", s)
}

// Store is the document store entries are written to
// *db.Client implements it
type Store interface {
	InsertEntry(ctx context.Context, kind domain.Kind, entry domain.Entry) error
	UpsertEntry(ctx context.Context, kind domain.Kind, entry domain.Entry) error
}

// Worker writes catalog entries to the store
type Worker struct {
	store Store
	kind  domain.Kind
	mode  Mode
}

// NewWorker creates a new worker
func NewWorker(store Store, kind domain.Kind, mode Mode) *Worker {
	return &Worker{
		store: store,
		kind:  kind,
		mode:  mode,
	}
}

// ProcessEntry saves a single entry
func (w *Worker) ProcessEntry(ctx context.Context, entry domain.Entry) error {
	var err error
	switch w.mode {
	case ModeUpsert:
		err = w.store.UpsertEntry(ctx, w.kind, entry)
	default:
		err = w.store.InsertEntry(ctx, w.kind, entry)
	}
	if err != nil {
		return fmt.Errorf("failed to save entry: %w", err)
	}

	logger.Log.Infof("Uploaded: %s", entry.Title())
	return nil
}
