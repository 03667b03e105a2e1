package generator

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lucasmnd/storemap/internal/domain"
)

type storeEntry struct {
	ID         string  `yaml:"id"`
	Name       string  `yaml:"name"`
	Address    string  `yaml:"address,omitempty"`
	City       string  `yaml:"city"`
	PostalCode string  `yaml:"postalCode,omitempty"`
	Latitude   float64 `yaml:"lat"`
	Longitude  float64 `yaml:"lng"`
	Phone      string  `yaml:"phone,omitempty"`
	Website    string  `yaml:"website,omitempty"`
}

// WriteDataset serializes the records as YAML into the given file path,
// matching the bundled seed schema.
func WriteDataset(records []domain.StoreRecord, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()
	return Encode(records, file)
}

// Encode writes the records as YAML to w.
func Encode(records []domain.StoreRecord, w io.Writer) error {
	entries := make([]storeEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, storeEntry{
			ID:         r.ID,
			Name:       r.Name,
			Address:    r.Address,
			City:       r.City,
			PostalCode: r.PostalCode,
			Latitude:   r.Latitude,
			Longitude:  r.Longitude,
			Phone:      r.Phone,
			Website:    r.Website,
		})
	}
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	if err := encoder.Encode(entries); err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	return nil
}
