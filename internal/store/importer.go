package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lucasmnd/storemap/internal/domain"
)

// TaskError accumulates multiple errors produced during a bulk import.
type TaskError struct {
	Errors []error
}

func (e *TaskError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := "multiple errors:"
	for _, err := range e.Errors {
		msg += " " + err.Error() + ";"
	}
	return msg
}

func (e *TaskError) append(err error) {
	if err == nil {
		return
	}
	e.Errors = append(e.Errors, err)
}

func (e *TaskError) asError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// ImportStats summarizes one bulk import run.
type ImportStats struct {
	Inserted int
	Skipped  int
}

// BulkImporter loads store records into the backend table using a worker
// pool. Records whose id already exists are skipped, so re-running an import
// never clobbers claims made since the last run.
type BulkImporter struct {
	repo    Repository
	workers int
	nowFn   func() time.Time
}

// NewBulkImporter creates a BulkImporter with the provided concurrency.
func NewBulkImporter(repo Repository, workers int) *BulkImporter {
	if workers <= 0 {
		workers = 4
	}
	return &BulkImporter{
		repo:    repo,
		workers: workers,
		nowFn:   time.Now,
	}
}

// WithClock overrides the time provider.
func (bi *BulkImporter) WithClock(nowFn func() time.Time) *BulkImporter {
	if nowFn != nil {
		bi.nowFn = nowFn
	}
	return bi
}

// Import inserts the records concurrently and reports how many were written.
func (bi *BulkImporter) Import(ctx context.Context, records []domain.StoreRecord) (ImportStats, error) {
	var (
		stats   ImportStats
		statsMu sync.Mutex
	)
	err := bi.run(ctx, len(records), func(idx int) error {
		inserted, err := bi.importOne(ctx, records[idx])
		if err != nil {
			return err
		}
		statsMu.Lock()
		if inserted {
			stats.Inserted++
		} else {
			stats.Skipped++
		}
		statsMu.Unlock()
		return nil
	})
	return stats, err
}

func (bi *BulkImporter) importOne(ctx context.Context, rec domain.StoreRecord) (bool, error) {
	_, err := bi.repo.GetByID(ctx, rec.ID)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, domain.ErrNotFound):
		return false, err
	}

	now := bi.nowFn().UTC()
	row := rec.Row()
	row.CreatedAt = now
	row.UpdatedAt = now
	return true, bi.repo.Insert(ctx, row)
}

func (bi *BulkImporter) run(ctx context.Context, total int, workerFn func(idx int) error) error {
	if total == 0 {
		return nil
	}
	indexCh := make(chan int)
	errCh := make(chan error, total)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for idx := range indexCh {
			if err := workerFn(idx); err != nil {
				select {
				case errCh <- err:
				case <-ctx.Done():
					return
				}
			}
		}
	}

	for i := 0; i < bi.workers; i++ {
		wg.Add(1)
		go worker()
	}

Loop:
	for i := 0; i < total; i++ {
		select {
		case indexCh <- i:
		case <-ctx.Done():
			break Loop
		}
	}
	close(indexCh)
	wg.Wait()
	close(errCh)

	var taskErr TaskError
	for err := range errCh {
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		taskErr.append(err)
	}
	return taskErr.asError()
}
