package seed

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lucasmnd/storemap/internal/domain"
)

//go:embed stores.yaml
var rawDataset []byte

type seedEntry struct {
	ID         string  `yaml:"id"`
	Name       string  `yaml:"name"`
	Address    string  `yaml:"address"`
	City       string  `yaml:"city"`
	PostalCode string  `yaml:"postalCode"`
	Latitude   float64 `yaml:"lat"`
	Longitude  float64 `yaml:"lng"`
	Phone      string  `yaml:"phone"`
	Website    string  `yaml:"website"`
}

// Dataset is the bundled read-only list of seed stores.
type Dataset struct {
	records []domain.StoreRecord
}

// Load decodes the embedded dataset. The dataset ships with the binary so a
// decode failure is a build defect, not a runtime condition.
func Load() (*Dataset, error) {
	return parse(rawDataset)
}

// Parse decodes a dataset from raw YAML, for loading alternative store lists
// from disk.
func Parse(raw []byte) (*Dataset, error) {
	return parse(raw)
}

func parse(raw []byte) (*Dataset, error) {
	var entries []seedEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode seed dataset: %w", err)
	}
	records := make([]domain.StoreRecord, 0, len(entries))
	for i, e := range entries {
		id := e.ID
		if id == "" {
			id = fmt.Sprintf("seed-%d", i+1)
		}
		records = append(records, domain.StoreRecord{
			ID:         id,
			Name:       strings.TrimSpace(e.Name),
			Address:    strings.TrimSpace(e.Address),
			City:       strings.TrimSpace(e.City),
			PostalCode: strings.TrimSpace(e.PostalCode),
			Latitude:   e.Latitude,
			Longitude:  e.Longitude,
			Phone:      strings.TrimSpace(e.Phone),
			Website:    strings.TrimSpace(e.Website),
			Source:     domain.SourceSeed,
		})
	}
	return &Dataset{records: records}, nil
}

// Records returns a copy of the seed store list.
func (d *Dataset) Records() []domain.StoreRecord {
	return append([]domain.StoreRecord(nil), d.records...)
}

// FindByNameCity matches seed records by fuzzy bidirectional containment:
// the query matches when either string contains the other after folding.
// City is only compared when the query supplies one.
func (d *Dataset) FindByNameCity(name, city string) []domain.StoreRecord {
	name = fold(name)
	city = fold(city)
	if name == "" {
		return nil
	}
	var matches []domain.StoreRecord
	for _, r := range d.records {
		if !containsEither(fold(r.Name), name) {
			continue
		}
		if city != "" && !containsEither(fold(r.City), city) {
			continue
		}
		matches = append(matches, r)
	}
	return matches
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func containsEither(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
