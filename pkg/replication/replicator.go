package replication

import (
	"context"
	"crypto/md5"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"catalog-ops/pkg/db"
	"catalog-ops/pkg/domain"
	"catalog-ops/pkg/logger"
)

const (
	processBatchSize = 100
	numWorkers       = 5
)

// Source lists every document of a catalog kind. *db.Client implements it.
type Source interface {
	GetAllEntries(ctx context.Context, kind domain.Kind) ([]domain.Entry, error)
}

// Config wires the replication dependencies.
type Config struct {
	Source   Source
	Postgres db.DBProvider
}

// Stats reports what a replication run did.
type Stats struct {
	Processed int
	Inserted  int
	Skipped   int
}

// Replicator copies catalog documents into the Postgres catalog_entry table.
//
// It is a one-shot copy: rows already present (same kind and title) are left untouched.
type Replicator struct {
	source Source
	pg     db.DBProvider
	now    func() time.Time
}

func NewReplicator(cfg Config) (*Replicator, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("document source is required")
	}
	if cfg.Postgres == nil {
		return nil, fmt.Errorf("postgres client is required")
	}
	return &Replicator{
		source: cfg.Source,
		pg:     cfg.Postgres,
		now:    time.Now,
	}, nil
}

// Replicate reads every entry of kind from the document store and inserts the
// new ones into catalog_entry.
func (r *Replicator) Replicate(ctx context.Context, kind domain.Kind) (Stats, error) {
	if err := r.ensureSchema(ctx); err != nil {
		return Stats{}, err
	}

	entries, err := r.source.GetAllEntries(ctx, kind)
	if err != nil {
		return Stats{}, fmt.Errorf("read %s: %w", kind, err)
	}

	entries = withTitles(entries)
	logger.Log.Infof("Loaded %d %s entries, processing in batches...", len(entries), kind)

	stats, err := r.processBatches(ctx, kind, entries)
	if err != nil {
		return stats, err
	}

	logger.Log.Infof("Replication complete: processed %d entries, inserted %d, skipped %d",
		stats.Processed, stats.Inserted, stats.Skipped)
	return stats, nil
}

// processBatches runs the batches on a fixed pool and stops at the first error.
func (r *Replicator) processBatches(ctx context.Context, kind domain.Kind, entries []domain.Entry) (Stats, error) {
	type batchJob struct {
		batch []domain.Entry
		start int
		end   int
	}

	type batchResult struct {
		processed int
		inserted  int
		err       error
	}

	numBatches := (len(entries) + processBatchSize - 1) / processBatchSize
	jobs := make(chan batchJob, numBatches)
	results := make(chan batchResult, numBatches)

	for start := 0; start < len(entries); start += processBatchSize {
		end := batchEnd(start, processBatchSize, len(entries))
		jobs <- batchJob{batch: entries[start:end], start: start, end: end}
	}
	close(jobs)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if err := ctx.Err(); err != nil {
					results <- batchResult{err: err}
					continue
				}
				inserted, err := r.processBatch(ctx, kind, job.batch, job.start, job.end)
				results <- batchResult{
					processed: len(job.batch),
					inserted:  inserted,
					err:       err,
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var stats Stats
	var firstErr error
	for result := range results {
		if result.err != nil {
			if firstErr == nil {
				firstErr = result.err
				cancel()
			}
			continue
		}
		stats.Processed += result.processed
		stats.Inserted += result.inserted
		if stats.Processed%1000 == 0 {
			logger.Log.Infof("Progress: processed %d/%d entries, inserted %d", stats.Processed, len(entries), stats.Inserted)
		}
	}
	stats.Skipped = stats.Processed - stats.Inserted

	return stats, firstErr
}

func batchEnd(start, batchSize, totalLen int) int {
	end := start + batchSize
	if end > totalLen {
		return totalLen
	}
	return end
}

// processBatch checks which titles already exist, then inserts the rest in one transaction.
func (r *Replicator) processBatch(ctx context.Context, kind domain.Kind, batch []domain.Entry, start, end int) (int, error) {
	logger.Log.Debugf("Processing batch [%d:%d] (%d entries)", start, end, len(batch))

	existing, err := r.existingTitles(ctx, kind, batch)
	if err != nil {
		return 0, fmt.Errorf("check existing titles for batch [%d:%d]: %w", start, end, err)
	}

	toInsert := filterNew(batch, existing)
	if len(toInsert) == 0 {
		return 0, nil
	}

	inserted, err := r.insertTx(ctx, kind, toInsert)
	if err != nil {
		return 0, fmt.Errorf("insert batch [%d:%d]: %w", start, end, err)
	}
	logger.Log.Debugf("Inserted %d of %d entries from batch [%d:%d]", inserted, len(toInsert), start, end)

	return inserted, nil
}

func (r *Replicator) ensureSchema(ctx context.Context) error {
	if r.pg.DB() == nil {
		return fmt.Errorf("postgres DB not connected")
	}

	const ddl = `
CREATE TABLE IF NOT EXISTS catalog_entry (
  id UUID NOT NULL,
  kind TEXT NOT NULL,
  title TEXT NOT NULL,
  doc JSONB NOT NULL,
  replicated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  PRIMARY KEY (kind, title)
);`

	if _, err := r.pg.DB().ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create catalog_entry table: %w", err)
	}
	return nil
}

func (r *Replicator) existingTitles(ctx context.Context, kind domain.Kind, batch []domain.Entry) (map[string]bool, error) {
	if len(batch) == 0 {
		return map[string]bool{}, nil
	}

	query, args := buildTitleInQuery(kind, batch)
	rows, err := r.pg.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query existing titles: %w", err)
	}
	defer rows.Close()

	set := make(map[string]bool)
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("scan title: %w", err)
		}
		set[title] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return set, nil
}

// buildTitleInQuery builds the existence query for a batch. $1 is the kind,
// the titles follow. The comment tag differs per batch so concurrent batches
// never share a cached prepared statement.
func buildTitleInQuery(kind domain.Kind, batch []domain.Entry) (string, []any) {
	args := make([]any, 0, len(batch)+1)
	args = append(args, string(kind))

	var hashSuffix string
	if len(batch) > 0 {
		hash := md5.Sum([]byte(batch[0].Title()))
		hashSuffix = fmt.Sprintf("%x", hash[:4])
	}

	var b strings.Builder
	fmt.Fprintf(&b, `/* q_%d_%s */ SELECT title FROM catalog_entry WHERE kind = $1 AND title IN (`, len(batch), hashSuffix)
	for i, e := range batch {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "$%d", i+2)
		args = append(args, e.Title())
	}
	b.WriteString(")")
	return b.String(), args
}

// withTitles drops entries without a title and keeps the first of each title.
func withTitles(entries []domain.Entry) []domain.Entry {
	seen := make(map[string]bool, len(entries))
	out := make([]domain.Entry, 0, len(entries))
	for _, e := range entries {
		t := e.Title()
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, e)
	}
	return out
}

func filterNew(all []domain.Entry, existing map[string]bool) []domain.Entry {
	out := make([]domain.Entry, 0, len(all))
	for _, e := range all {
		if existing[e.Title()] {
			continue
		}
		out = append(out, e)
	}
	return out
}

// insertTx returns the number of rows the database actually wrote; rows lost to
// a concurrent insert of the same title hit the conflict clause and count as skipped.
func (r *Replicator) insertTx(ctx context.Context, kind domain.Kind, batch []domain.Entry) (int, error) {
	tx, err := r.pg.DB().BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const insertQuery = `
INSERT INTO catalog_entry (id, kind, title, doc, replicated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (kind, title) DO NOTHING`

	stmt, err := tx.PrepareContext(ctx, insertQuery)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	at := r.now().UTC()
	results := make([]sql.Result, 0, len(batch))
	for _, e := range batch {
		doc, err := json.Marshal(e)
		if err != nil {
			return 0, fmt.Errorf("encode entry %q: %w", e.Title(), err)
		}
		res, err := stmt.ExecContext(ctx, uuid.NewString(), string(kind), e.Title(), string(doc), at)
		if err != nil {
			return 0, fmt.Errorf("insert entry %q: %w", e.Title(), err)
		}
		results = append(results, res)
	}

	inserted, err := rowsAffected(results)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

func rowsAffected(results []sql.Result) (int, error) {
	total := 0
	for _, res := range results {
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		total += int(n)
	}
	return total, nil
}
