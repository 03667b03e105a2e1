package directory

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/lucasmnd/storemap/internal/collector"
	"github.com/lucasmnd/storemap/internal/domain"
	"github.com/lucasmnd/storemap/internal/marker"
)

type stubSource struct {
	mu       sync.Mutex
	snap     collector.Snapshot
	warnings []collector.Warning
	release  chan struct{}
	calls    int
}

func (s *stubSource) Collect(ctx context.Context, lat, lng float64) (collector.Snapshot, []collector.Warning) {
	s.mu.Lock()
	s.calls++
	snap, warnings, release := s.snap, s.warnings, s.release
	s.mu.Unlock()
	if release != nil {
		<-release
	}
	return snap, warnings
}

func (s *stubSource) set(snap collector.Snapshot) {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func record(id, name string, lat, lng float64, source domain.Source) domain.StoreRecord {
	return domain.StoreRecord{
		ID:        id,
		Name:      name,
		City:      "Paris",
		Latitude:  lat,
		Longitude: lng,
		Source:    source,
	}
}

func TestSearch_MergesAndRanks(t *testing.T) {
	src := &stubSource{
		snap: collector.Snapshot{
			Backend: []domain.StoreRecord{
				record("b-1", "CBD Bordeaux", 44.8378, -0.5792, domain.SourceBackend),
			},
			Seed: []domain.StoreRecord{
				record("seed-1", "CBD Paris Marais", 48.8566, 2.3522, domain.SourceSeed),
			},
		},
	}
	svc := NewService(src, nil, 0, 48.8566, 2.3522, testLogger())

	result, err := svc.Search(context.Background(), 48.8566, 2.3522, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(result.Stores) != 2 {
		t.Fatalf("expected 2 stores, got %d", len(result.Stores))
	}
	if result.Stores[0].Name != "CBD Paris Marais" {
		t.Fatalf("expected the Paris store nearest, got %q", result.Stores[0].Name)
	}
	if result.Stores[0].DistanceKm > 0.1 {
		t.Fatalf("expected zero distance for the origin store, got %f", result.Stores[0].DistanceKm)
	}
}

func TestSearch_LimitCapsResult(t *testing.T) {
	src := &stubSource{
		snap: collector.Snapshot{
			Seed: []domain.StoreRecord{
				record("seed-1", "CBD Paris Marais", 48.8566, 2.3522, domain.SourceSeed),
				record("seed-2", "CBD Bordeaux", 44.8378, -0.5792, domain.SourceSeed),
				record("seed-3", "Green Heaven", 43.2965, 5.3698, domain.SourceSeed),
			},
		},
	}
	svc := NewService(src, nil, 0, 48.8566, 2.3522, testLogger())

	result, err := svc.Search(context.Background(), 48.8566, 2.3522, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(result.Stores) != 2 {
		t.Fatalf("expected limit to cap the result at 2, got %d", len(result.Stores))
	}
}

func TestSearch_PropagatesWarnings(t *testing.T) {
	src := &stubSource{
		warnings: []collector.Warning{{Source: domain.SourceBackend, Err: context.DeadlineExceeded}},
	}
	svc := NewService(src, nil, 0, 48.8566, 2.3522, testLogger())

	result, err := svc.Search(context.Background(), 48.8566, 2.3522, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Source != domain.SourceBackend {
		t.Fatalf("expected backend warning, got %+v", result.Warnings)
	}
}

func TestSearch_StaleResultNotInstalled(t *testing.T) {
	release := make(chan struct{})
	src := &stubSource{
		snap: collector.Snapshot{
			Seed: []domain.StoreRecord{
				record("seed-old", "CBD Bordeaux", 44.8378, -0.5792, domain.SourceSeed),
			},
		},
		release: release,
	}
	markers := marker.NewManager(nil)
	svc := NewService(src, markers, 0, 48.8566, 2.3522, testLogger())

	done := make(chan Result, 1)
	go func() {
		result, _ := svc.Search(context.Background(), 44.8378, -0.5792, 0)
		done <- result
	}()

	// Wait for the slow search to be in flight, then run a newer one.
	for {
		src.mu.Lock()
		started := src.calls == 1
		src.mu.Unlock()
		if started {
			break
		}
		time.Sleep(time.Millisecond)
	}

	src.mu.Lock()
	src.release = nil
	src.snap = collector.Snapshot{
		Seed: []domain.StoreRecord{
			record("seed-new", "CBD Paris Marais", 48.8566, 2.3522, domain.SourceSeed),
		},
	}
	src.mu.Unlock()

	if _, err := svc.Search(context.Background(), 48.8566, 2.3522, 0); err != nil {
		t.Fatalf("search: %v", err)
	}

	close(release)
	stale := <-done

	// The stale caller still gets its own answer.
	if len(stale.Stores) != 1 || stale.Stores[0].Name != "CBD Bordeaux" {
		t.Fatalf("stale caller result corrupted: %+v", stale.Stores)
	}
	// But the installed state belongs to the newer search.
	latest := svc.Latest()
	if len(latest.Stores) != 1 || latest.Stores[0].Name != "CBD Paris Marais" {
		t.Fatalf("expected newest result installed, got %+v", latest.Stores)
	}
	// Markers follow the same decision: the stale search must not re-sync.
	keys := markers.Keys()
	if len(keys) != 1 || keys[0] != "seed-new" {
		t.Fatalf("expected markers from the newest search, got %v", keys)
	}
}

func TestSearch_SelectionSurvivesRefresh(t *testing.T) {
	src := &stubSource{
		snap: collector.Snapshot{
			Backend: []domain.StoreRecord{
				record("b-1", "CBD Paris Marais", 48.8566, 2.3522, domain.SourceBackend),
				record("b-2", "CBD Bordeaux", 44.8378, -0.5792, domain.SourceBackend),
			},
		},
	}
	markers := marker.NewManager(nil)
	svc := NewService(src, markers, 0, 48.8566, 2.3522, testLogger())

	if _, err := svc.Search(context.Background(), 48.8566, 2.3522, 0); err != nil {
		t.Fatalf("search: %v", err)
	}
	svc.Select("b-1")

	// Refresh with the same backend rows plus a new live record; the merged
	// set keeps the same ids, so the selection must survive.
	src.set(collector.Snapshot{
		Backend: []domain.StoreRecord{
			record("b-1", "CBD Paris Marais", 48.8566, 2.3522, domain.SourceBackend),
			record("b-2", "CBD Bordeaux", 44.8378, -0.5792, domain.SourceBackend),
		},
		Live: []domain.StoreRecord{
			record("live:x", "Green Heaven", 43.2965, 5.3698, domain.SourceLive),
		},
	})
	if _, err := svc.Search(context.Background(), 48.8566, 2.3522, 0); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if svc.Selected() != "b-1" {
		t.Fatalf("expected selection to survive refresh, got %q", svc.Selected())
	}

	// A refresh that drops the store clears the selection.
	src.set(collector.Snapshot{
		Backend: []domain.StoreRecord{
			record("b-2", "CBD Bordeaux", 44.8378, -0.5792, domain.SourceBackend),
		},
	})
	if _, err := svc.Search(context.Background(), 48.8566, 2.3522, 0); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if svc.Selected() != "" {
		t.Fatalf("expected selection cleared, got %q", svc.Selected())
	}
}

func TestRun_RefreshesOnInterval(t *testing.T) {
	src := &stubSource{}
	svc := NewService(src, nil, 5*time.Millisecond, 48.8566, 2.3522, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		src.mu.Lock()
		calls := src.calls
		src.mu.Unlock()
		if calls >= 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("background refresh never ran")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	<-done
}
