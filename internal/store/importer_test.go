package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/lucasmnd/storemap/internal/domain"
)

func importRecords(n int) []domain.StoreRecord {
	records := make([]domain.StoreRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, domain.StoreRecord{
			ID:     fmt.Sprintf("imp-%d", i),
			Name:   "Shop",
			City:   "Paris",
			Source: domain.SourceSeed,
		})
	}
	return records
}

func TestBulkImporter_InsertsAll(t *testing.T) {
	repo := NewMemoryRepository()
	importer := NewBulkImporter(repo, 4)

	records := importRecords(20)
	stats, err := importer.Import(context.Background(), records)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if stats.Inserted != 20 || stats.Skipped != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	rows, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 20 {
		t.Fatalf("expected 20 rows, got %d", len(rows))
	}
	for _, row := range rows {
		if row.CreatedAt.IsZero() || row.UpdatedAt.IsZero() {
			t.Fatalf("row %s missing timestamps", row.ID)
		}
	}
}

func TestBulkImporter_PreservesRecordFields(t *testing.T) {
	repo := NewMemoryRepository()
	importer := NewBulkImporter(repo, 1)

	rec := domain.StoreRecord{
		ID:              "imp-full",
		Name:            "Green Life CBD",
		Address:         "12 Rue des Archives",
		City:            "Paris",
		PostalCode:      "75004",
		Latitude:        48.8584,
		Longitude:       2.3571,
		ExternalPlaceID: "pl-123",
		Phone:           "+33 1 42 00 00 00",
		Website:         "https://greenlife.example",
		Description:     "Boutique CBD",
		Source:          domain.SourceSeed,
	}
	if _, err := importer.Import(context.Background(), []domain.StoreRecord{rec}); err != nil {
		t.Fatalf("import: %v", err)
	}

	row, err := repo.GetByID(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	got := row.Record()
	got.Source = rec.Source
	if got != rec {
		t.Fatalf("record round-trip mismatch:\n got %+v\nwant %+v", got, rec)
	}
}

func TestBulkImporter_SkipsExisting(t *testing.T) {
	repo := NewMemoryRepository()
	importer := NewBulkImporter(repo, 2)

	records := importRecords(5)
	if _, err := importer.Import(context.Background(), records); err != nil {
		t.Fatalf("first import: %v", err)
	}

	// Claim one row, then re-import: nothing may be overwritten.
	if err := repo.Claim(context.Background(), records[0].ID, "u-1"); err != nil {
		t.Fatalf("claim: %v", err)
	}
	stats, err := importer.Import(context.Background(), records)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if stats.Inserted != 0 || stats.Skipped != 5 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	got, err := repo.GetByID(context.Background(), records[0].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ClaimedBy != "u-1" {
		t.Fatalf("re-import clobbered the claim: %+v", got)
	}
}

func TestBulkImporter_CollectsErrors(t *testing.T) {
	repo := NewMemoryRepository()
	importer := NewBulkImporter(repo, 3)

	records := importRecords(4)
	records[2].ID = "" // insert rejects empty ids
	stats, err := importer.Import(context.Background(), records)
	if err == nil {
		t.Fatal("expected an error for the invalid record")
	}
	if stats.Inserted != 3 {
		t.Fatalf("valid records should still land, got %+v", stats)
	}
}

func TestBulkImporter_EmptyInput(t *testing.T) {
	importer := NewBulkImporter(NewMemoryRepository(), 0)
	stats, err := importer.Import(context.Background(), nil)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if stats != (ImportStats{}) {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestBulkImporter_WithClock(t *testing.T) {
	repo := NewMemoryRepository()
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	importer := NewBulkImporter(repo, 1).WithClock(func() time.Time { return fixed })

	if _, err := importer.Import(context.Background(), importRecords(1)); err != nil {
		t.Fatalf("import: %v", err)
	}
	rows, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !rows[0].CreatedAt.Equal(fixed) {
		t.Fatalf("expected fixed timestamp, got %v", rows[0].CreatedAt)
	}
}
