package worker

import (
	"context"
	"fmt"
	"sync"

	"catalog-ops/pkg/domain"
	"catalog-ops/pkg/logger"
)

// Summary counts the outcome of a ProcessEntries call
type Summary struct {
	Succeeded int
	Failed    int
}

// Manager manages workers and distributes entries to them
type Manager struct {
	workerCount int
	store       Store
	mode        Mode
}

// NewManager creates a new manager
func NewManager(workerCount int, store Store, mode Mode) *Manager {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &Manager{
		workerCount: workerCount,
		store:       store,
		mode:        mode,
	}
}

// ProcessEntries distributes entries to workers and saves them concurrently
func (m *Manager) ProcessEntries(ctx context.Context, kind domain.Kind, entries []domain.Entry) (Summary, error) {
	// Create job channel
	jobChan := make(chan domain.Entry, len(entries))

	// Send all entries to job channel
	for _, entry := range entries {
		jobChan <- entry
	}
	close(jobChan)

	// Create wait group to wait for all workers
	var wg sync.WaitGroup

	// Results channel to collect success/error from workers (no contention)
	type result struct {
		success  bool
		title    string
		workerID int
		err      error
	}
	resultsChan := make(chan result, len(entries))

	// Start workers
	for i := 0; i < m.workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			w := NewWorker(m.store, kind, m.mode)

			for entry := range jobChan {
				var err error
				if ctxErr := ctx.Err(); ctxErr != nil {
					err = ctxErr
				} else {
					err = w.ProcessEntry(ctx, entry)
				}

				resultsChan <- result{
					success:  err == nil,
					title:    entry.Title(),
					workerID: workerID,
					err:      err,
				}
			}
		}(i)
	}

	// Close results channel when all workers finish
	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	// Aggregate results (single goroutine reads from channel)
	var s Summary
	for res := range resultsChan {
		if res.success {
			s.Succeeded++
			if s.Succeeded%100 == 0 {
				logger.Log.Infof("Progress: %d successful, %d errors", s.Succeeded, s.Failed)
			}
		} else {
			s.Failed++
			logger.Log.Errorf("Worker %d: Error uploading %q: %v", res.workerID, res.title, res.err)
		}
	}

	logger.Log.Infof("Completed: %d successful, %d errors (total: %d)", s.Succeeded, s.Failed, len(entries))

	if err := ctx.Err(); err != nil {
		return s, err
	}
	if s.Failed > 0 && s.Succeeded == 0 {
		return s, fmt.Errorf("all %d entries failed to upload", s.Failed)
	}

	return s, nil
}
