// Package directory assembles the merged, distance-ranked store list and
// keeps the marker set in sync with it.
package directory

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lucasmnd/storemap/internal/collector"
	"github.com/lucasmnd/storemap/internal/dedup"
	"github.com/lucasmnd/storemap/internal/marker"
	"github.com/lucasmnd/storemap/internal/rank"
)

// Source supplies the per-source record lists for one refresh.
type Source interface {
	Collect(ctx context.Context, originLat, originLng float64) (collector.Snapshot, []collector.Warning)
}

// Result is a finished directory search.
type Result struct {
	Stores   []rank.RankedStore
	Warnings []collector.Warning
}

// Service orchestrates collect, merge and rank, and owns the marker set.
// Every search gets a generation number; only the newest generation may
// install its result, so a slow refresh can never clobber a newer one.
type Service struct {
	source   Source
	markers  *marker.Manager
	logger   *slog.Logger
	interval time.Duration

	generation atomic.Uint64

	mu     sync.Mutex
	latest Result
	origin [2]float64
}

// NewService builds a Service. markers may be nil when no marker tracking is
// wanted. defaultLat/defaultLng seed the origin used by background refreshes
// until the first explicit search.
func NewService(source Source, markers *marker.Manager, interval time.Duration, defaultLat, defaultLng float64, logger *slog.Logger) *Service {
	return &Service{
		source:   source,
		markers:  markers,
		logger:   logger,
		interval: interval,
		origin:   [2]float64{defaultLat, defaultLng},
	}
}

// Search runs one collect-merge-rank pass around the given origin. limit <= 0
// returns the full ranked list. The returned result always belongs to this
// call; it is installed as the displayed state only when no newer search has
// started meanwhile.
func (s *Service) Search(ctx context.Context, originLat, originLng float64, limit int) (Result, error) {
	gen := s.generation.Add(1)

	snap, warnings := s.source.Collect(ctx, originLat, originLng)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	merged := dedup.Merge(snap.Backend, snap.Seed, snap.Live)
	var ranked []rank.RankedStore
	if limit > 0 {
		ranked = rank.Nearest(merged, originLat, originLng, limit)
	} else {
		ranked = rank.Rank(merged, originLat, originLng)
	}
	result := Result{Stores: ranked, Warnings: warnings}

	// The staleness decision and the install must be one atomic step: checked
	// outside the lock, a stale search could pass, lose the race to a newer
	// install, then overwrite it.
	s.mu.Lock()
	if gen != s.generation.Load() {
		s.mu.Unlock()
		s.logger.Debug("discarding stale search result", "generation", gen)
		return result, nil
	}
	s.latest = result
	s.origin = [2]float64{originLat, originLng}
	if s.markers != nil {
		s.markers.Sync(merged)
	}
	s.mu.Unlock()
	return result, nil
}

// Latest returns the most recently installed result.
func (s *Service) Latest() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Select marks a store as the current selection.
func (s *Service) Select(storeID string) {
	if s.markers != nil {
		s.markers.Select(storeID)
	}
}

// Selected returns the currently selected storeId, empty when none.
func (s *Service) Selected() string {
	if s.markers == nil {
		return ""
	}
	return s.markers.Selected()
}

// Run refreshes the directory on a fixed interval until ctx is cancelled.
// Refreshes reuse the origin of the last explicit search.
func (s *Service) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			origin := s.origin
			s.mu.Unlock()
			if _, err := s.Search(ctx, origin[0], origin[1], 0); err != nil {
				s.logger.Warn("background refresh failed", "error", err)
			}
		}
	}
}
