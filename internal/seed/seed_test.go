package seed

import (
	"testing"

	"github.com/lucasmnd/storemap/internal/domain"
)

func TestLoad_EmbeddedDataset(t *testing.T) {
	ds, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	records := ds.Records()
	if len(records) == 0 {
		t.Fatal("embedded dataset is empty")
	}
	for _, r := range records {
		if r.ID == "" || r.Name == "" || r.City == "" {
			t.Fatalf("incomplete seed record: %+v", r)
		}
		if r.Source != domain.SourceSeed {
			t.Fatalf("seed record tagged %q", r.Source)
		}
		if !r.HasCoordinates() {
			t.Fatalf("seed record %s lacks coordinates", r.ID)
		}
	}
}

func TestRecords_ReturnsCopy(t *testing.T) {
	ds, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	first := ds.Records()
	first[0].Name = "mutated"
	if ds.Records()[0].Name == "mutated" {
		t.Fatal("Records must return a copy")
	}
}

func TestFindByNameCity_BidirectionalContainment(t *testing.T) {
	ds, err := parse([]byte(`
- id: s1
  name: CBD Paris Marais
  city: Paris
  lat: 48.8566
  lng: 2.3522
- id: s2
  name: CBD Bordeaux
  city: Bordeaux
  lat: 44.8378
  lng: -0.5792
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	// Query contained in the record name.
	if got := ds.FindByNameCity("Marais", "paris"); len(got) != 1 || got[0].ID != "s1" {
		t.Fatalf("expected s1, got %+v", got)
	}
	// Record name contained in the query.
	if got := ds.FindByNameCity("Le CBD Bordeaux Centre", "Bordeaux"); len(got) != 1 || got[0].ID != "s2" {
		t.Fatalf("expected s2, got %+v", got)
	}
	// Empty city matches any city.
	if got := ds.FindByNameCity("cbd", ""); len(got) != 2 {
		t.Fatalf("expected both records, got %d", len(got))
	}
	// City mismatch excludes.
	if got := ds.FindByNameCity("cbd", "Lyon"); len(got) != 0 {
		t.Fatalf("expected no match, got %+v", got)
	}
	// Empty name never matches.
	if got := ds.FindByNameCity("", "Paris"); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}
