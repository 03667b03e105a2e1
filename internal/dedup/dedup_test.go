package dedup

import (
	"reflect"
	"testing"

	"github.com/lucasmnd/storemap/internal/domain"
)

func TestKey_Precedence(t *testing.T) {
	withPlace := domain.StoreRecord{
		Name: "CBD Paris Marais", ExternalPlaceID: "pl-1",
		Latitude: 48.8566, Longitude: 2.3522,
	}
	if got := Key(withPlace); got != "place:pl-1" {
		t.Fatalf("place id must win, got %q", got)
	}

	withCoords := domain.StoreRecord{
		Name: "CBD Paris Marais", Latitude: 48.8566, Longitude: 2.3522,
	}
	if got := Key(withCoords); got != "geo:48.8566_2.3522" {
		t.Fatalf("unexpected geo key %q", got)
	}

	nameOnly := domain.StoreRecord{
		Name: "CBD Paris Marais ", Address: "24 Rue des Archives", City: " Paris",
	}
	want := "name:cbdparismarais|24ruedesarchives|paris"
	if got := Key(nameOnly); got != want {
		t.Fatalf("unexpected name key %q, want %q", got, want)
	}
}

func TestKey_GeoRequiresBothCoordinates(t *testing.T) {
	r := domain.StoreRecord{Name: "Partial", Latitude: 48.8566}
	if got := Key(r); got != "name:partial||" {
		t.Fatalf("single coordinate must fall through to name key, got %q", got)
	}
}

func TestKey_PlaceIDNeverMergedByGeo(t *testing.T) {
	a := domain.StoreRecord{Name: "A", ExternalPlaceID: "pl-1", Latitude: 48.8566, Longitude: 2.3522}
	b := domain.StoreRecord{Name: "B", Latitude: 48.8566, Longitude: 2.3522}
	if Key(a) == Key(b) {
		t.Fatal("colliding coordinates must not merge a place-id record")
	}
}

func TestMerge_BackendBeatsSeed(t *testing.T) {
	// The scenario from the field: a seed record and a backend record for
	// the same shop, differing by whitespace, case and coordinate noise.
	seed := []domain.StoreRecord{{
		ID: "seed-1", Name: "CBD Paris Marais", City: "Paris",
		Latitude: 48.8566, Longitude: 2.3522, Source: domain.SourceSeed,
	}}
	// Coordinates differ by one 5-decimal grid step, so the geo buckets do
	// not collide; the records resolve through the name-triple alias.
	backend := []domain.StoreRecord{{
		ID: "ST-1", Name: "CBD Paris Marais ", City: "paris",
		Latitude: 48.85661, Longitude: 2.35221, Phone: "0142722149",
		Source: domain.SourceBackend,
	}}

	merged := Merge(backend, seed, nil)
	if len(merged) != 1 {
		t.Fatalf("expected exactly one canonical store, got %d", len(merged))
	}
	got := merged[0]
	if got.ID != "ST-1" || got.Source != domain.SourceBackend {
		t.Fatalf("backend must win identity: %+v", got)
	}
	if got.Phone != "0142722149" {
		t.Fatalf("backend phone lost: %+v", got)
	}
	if !reflect.DeepEqual(got.Sources, []domain.Source{domain.SourceBackend, domain.SourceSeed}) {
		t.Fatalf("unexpected sources %v", got.Sources)
	}
}

func TestMerge_AddressKnownOnOneSideOnly(t *testing.T) {
	// Backend rows often lack a street address while the seed carries one.
	// With the geo buckets one grid step apart, the records must still fold
	// through the address-less name spelling instead of listing twice.
	backend := []domain.StoreRecord{{
		ID: "ST-1", Name: "CBD Paris Marais", City: "Paris",
		Latitude: 48.85661, Longitude: 2.35221, Source: domain.SourceBackend,
	}}
	seed := []domain.StoreRecord{{
		ID: "seed-1", Name: "CBD Paris Marais", Address: "24 Rue des Archives",
		City: "Paris", Latitude: 48.8566, Longitude: 2.3522,
		Phone: "0142722149", Source: domain.SourceSeed,
	}}

	merged := Merge(backend, seed, nil)
	if len(merged) != 1 {
		t.Fatalf("expected 1 canonical store, got %d (duplicate listing)", len(merged))
	}
	got := merged[0]
	if got.ID != "ST-1" {
		t.Fatalf("backend must win identity: %+v", got)
	}
	if got.Address != "24 Rue des Archives" {
		t.Fatalf("seed address not back-filled: %+v", got)
	}
}

func TestMerge_SeedBackfillsEmptyBackendFields(t *testing.T) {
	backend := []domain.StoreRecord{{
		ID: "ST-1", Name: "CBD Bordeaux", ExternalPlaceID: "pl-9",
		Source: domain.SourceBackend,
	}}
	seed := []domain.StoreRecord{{
		ID: "seed-2", Name: "CBD Bordeaux", Address: "5 cours de l'Intendance",
		City: "Bordeaux", PostalCode: "33000", ExternalPlaceID: "pl-9",
		Latitude: 44.8378, Longitude: -0.5792, Phone: "0556812233",
		Source: domain.SourceSeed,
	}}

	merged := Merge(backend, seed, nil)
	if len(merged) != 1 {
		t.Fatalf("expected 1 canonical store, got %d", len(merged))
	}
	got := merged[0]
	if got.ID != "ST-1" {
		t.Fatalf("identity must stay with backend: %+v", got)
	}
	if got.Address != "5 cours de l'Intendance" || got.City != "Bordeaux" ||
		got.PostalCode != "33000" || got.Phone != "0556812233" {
		t.Fatalf("empty fields not back-filled: %+v", got)
	}
	if got.Latitude != 44.8378 || got.Longitude != -0.5792 {
		t.Fatalf("coordinates not back-filled: %+v", got)
	}
}

func TestMerge_LiveAugmentsWithoutOverriding(t *testing.T) {
	backend := []domain.StoreRecord{{
		ID: "ST-1", Name: "CBD Paris Marais", ExternalPlaceID: "pl-1",
		Phone: "0142722149", Source: domain.SourceBackend,
	}}
	live := []domain.StoreRecord{
		{
			ID: "live-1", Name: "CBD Paris Le Marais", ExternalPlaceID: "pl-1",
			Phone: ".relabelled.", Website: "https://cbdmarais.example",
			Source: domain.SourceLive,
		},
		{
			ID: "live-2", Name: "Nouvelle Boutique", ExternalPlaceID: "pl-2",
			Latitude: 48.86, Longitude: 2.34, Source: domain.SourceLive,
		},
	}

	merged := Merge(backend, nil, live)
	if len(merged) != 2 {
		t.Fatalf("expected 2 canonical stores, got %d", len(merged))
	}
	if merged[0].Name != "CBD Paris Marais" || merged[0].Phone != "0142722149" {
		t.Fatalf("live must not override backend fields: %+v", merged[0])
	}
	if merged[0].Website != "https://cbdmarais.example" {
		t.Fatalf("live must back-fill empty fields: %+v", merged[0])
	}
	if merged[1].ID != "live-2" || merged[1].Source != domain.SourceLive {
		t.Fatalf("non-colliding live record must be admitted: %+v", merged[1])
	}
}

func TestMerge_Idempotent(t *testing.T) {
	backend := []domain.StoreRecord{
		{ID: "ST-1", Name: "CBD Paris Marais", Latitude: 48.8566, Longitude: 2.3522, Source: domain.SourceBackend},
		{ID: "ST-2", Name: "CBD Bordeaux", Latitude: 44.8378, Longitude: -0.5792, Source: domain.SourceBackend},
	}
	seed := []domain.StoreRecord{
		{ID: "seed-1", Name: "CBD Paris Marais", Latitude: 48.8566, Longitude: 2.3522, Phone: "0142722149", Source: domain.SourceSeed},
		{ID: "seed-3", Name: "Histoire de Chanvre", City: "Lyon", Source: domain.SourceSeed},
	}
	live := []domain.StoreRecord{
		{ID: "live-1", Name: "Green Heaven", ExternalPlaceID: "pl-4", Source: domain.SourceLive},
	}

	first := Merge(backend, seed, live)
	second := Merge(backend, seed, live)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("merge not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
	if len(first) != 4 {
		t.Fatalf("expected 4 canonical stores, got %d", len(first))
	}
}

func TestMerge_NoKeySharedTwice(t *testing.T) {
	seed := []domain.StoreRecord{
		{ID: "seed-1", Name: "A", Latitude: 48.8566, Longitude: 2.3522, Source: domain.SourceSeed},
		{ID: "seed-dup", Name: "A bis", Latitude: 48.8566, Longitude: 2.3522, Source: domain.SourceSeed},
	}
	merged := Merge(nil, seed, nil)
	keys := make(map[string]bool)
	for _, c := range merged {
		if keys[c.DedupKey] {
			t.Fatalf("duplicate dedup key %q", c.DedupKey)
		}
		keys[c.DedupKey] = true
	}
	if len(merged) != 1 {
		t.Fatalf("expected intra-source duplicates collapsed, got %d", len(merged))
	}
}
