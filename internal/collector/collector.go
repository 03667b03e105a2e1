// Package collector fetches store-like records from the three sources and
// normalizes them into the common shape. A failing source degrades to an
// empty list; collection itself never fails.
package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lucasmnd/storemap/internal/domain"
	"github.com/lucasmnd/storemap/internal/places"
	"github.com/lucasmnd/storemap/internal/seed"
	"github.com/lucasmnd/storemap/internal/store"
)

// defaultLiveQuery is the text sent to the place-search service when
// augmenting the directory near a reference point.
const defaultLiveQuery = "boutique cbd"

// Snapshot holds one normalized list per source, in source priority order.
type Snapshot struct {
	Backend []domain.StoreRecord
	Seed    []domain.StoreRecord
	Live    []domain.StoreRecord
}

// Warning reports a non-fatal source failure.
type Warning struct {
	Source domain.Source
	Err    error
}

func (w Warning) Error() string {
	return fmt.Sprintf("%s: %v", w.Source, w.Err)
}

func (w Warning) Unwrap() error { return domain.ErrSourceUnavailable }

// Collector aggregates the backend table, the bundled seed dataset and the
// live place-search service.
type Collector struct {
	repo      store.Repository
	dataset   *seed.Dataset
	searcher  places.Searcher
	liveQuery string
	logger    *slog.Logger
}

// New builds a Collector. searcher may be nil when no live source is
// configured; the live list is then always empty without a warning.
func New(repo store.Repository, dataset *seed.Dataset, searcher places.Searcher, logger *slog.Logger) *Collector {
	return &Collector{
		repo:      repo,
		dataset:   dataset,
		searcher:  searcher,
		liveQuery: defaultLiveQuery,
		logger:    logger,
	}
}

// WithLiveQuery overrides the text used for live-search augmentation.
func (c *Collector) WithLiveQuery(query string) *Collector {
	if query != "" {
		c.liveQuery = query
	}
	return c
}

// Collect fetches all three sources concurrently around the reference point.
// Failed sources come back empty and are reported as warnings.
func (c *Collector) Collect(ctx context.Context, originLat, originLng float64) (Snapshot, []Warning) {
	var (
		snap     Snapshot
		mu       sync.Mutex
		warnings []Warning
		wg       sync.WaitGroup
	)

	warn := func(source domain.Source, err error) {
		mu.Lock()
		warnings = append(warnings, Warning{Source: source, Err: err})
		mu.Unlock()
		c.logger.Warn("source fetch failed", "source", string(source), "error", err)
	}

	wg.Add(3)
	go func() {
		defer wg.Done()
		rows, err := c.repo.List(ctx)
		if err != nil {
			warn(domain.SourceBackend, err)
			return
		}
		snap.Backend = normalizeBackend(rows)
	}()
	go func() {
		defer wg.Done()
		snap.Seed = c.dataset.Records()
	}()
	go func() {
		defer wg.Done()
		snap.Live = c.collectLive(ctx, originLat, originLng, warn)
	}()
	wg.Wait()

	return snap, warnings
}

func (c *Collector) collectLive(ctx context.Context, lat, lng float64, warn func(domain.Source, error)) []domain.StoreRecord {
	if c.searcher == nil {
		return nil
	}
	results, err := c.searcher.Search(ctx, c.liveQuery, lat, lng)
	if err != nil {
		if errors.Is(err, places.ErrNotConfigured) {
			return nil
		}
		warn(domain.SourceLive, err)
		return nil
	}
	return normalizeLive(results)
}

func normalizeBackend(rows []domain.BackendStore) []domain.StoreRecord {
	records := make([]domain.StoreRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.Record())
	}
	return records
}

// normalizeLive adapts place-search hits to the common shape. The provider's
// free-form fields are best effort: anything unusable becomes an empty
// optional rather than an error.
func normalizeLive(results []places.Result) []domain.StoreRecord {
	records := make([]domain.StoreRecord, 0, len(results))
	for i, r := range results {
		if r.Name == "" {
			continue
		}
		id := r.PlaceID
		if id == "" {
			id = fmt.Sprintf("live-%d", i+1)
		}
		records = append(records, domain.StoreRecord{
			ID:              "live:" + id,
			Name:            r.Name,
			Address:         r.Address,
			Latitude:        r.Lat,
			Longitude:       r.Lng,
			ExternalPlaceID: r.PlaceID,
			Phone:           r.Phone,
			Website:         r.Website,
			Source:          domain.SourceLive,
		})
	}
	return records
}
