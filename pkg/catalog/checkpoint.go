package catalog

import (
	"catalog-ops/pkg/domain"
	"catalog-ops/pkg/logger"
)

// DefaultEvery returns the checkpoint interval for kind.
func DefaultEvery(kind domain.Kind) int {
	if kind == domain.KindSeries {
		return 5
	}
	return 10
}

// Checkpointer snapshots the processed entries to Path every Every entries
// and after the last one.
type Checkpointer struct {
	Path  string
	Every int
}

// Observe is called after entry i (zero based) of total has been processed.
// entries holds everything processed so far. It reports whether a snapshot
// was written.
func (c *Checkpointer) Observe(i, total int, entries []domain.Entry) (bool, error) {
	n := i + 1
	every := c.Every
	if every <= 0 {
		every = 1
	}
	if n%every != 0 && n != total {
		return false, nil
	}
	if err := c.Flush(entries); err != nil {
		return false, err
	}
	logger.Log.Infof("Progress saved: %d/%d processed", n, total)
	return true, nil
}

// Flush writes entries unconditionally.
func (c *Checkpointer) Flush(entries []domain.Entry) error {
	return Write(c.Path, entries)
}
