// Package generator produces synthetic store datasets for load and merge
// testing. The output matches the bundled seed schema, so the import tool
// can consume it directly.
package generator

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"

	"github.com/lucasmnd/storemap/internal/domain"
)

type city struct {
	Name       string
	PostalCode string
	Lat        float64
	Lng        float64
}

var cities = []city{
	{"Paris", "75001", 48.8566, 2.3522},
	{"Marseille", "13001", 43.2965, 5.3698},
	{"Lyon", "69001", 45.7640, 4.8357},
	{"Toulouse", "31000", 43.6047, 1.4442},
	{"Nice", "06000", 43.7102, 7.2620},
	{"Nantes", "44000", 47.2184, -1.5536},
	{"Montpellier", "34000", 43.6108, 3.8767},
	{"Strasbourg", "67000", 48.5734, 7.7521},
	{"Bordeaux", "33000", 44.8378, -0.5792},
	{"Lille", "59000", 50.6292, 3.0573},
	{"Rennes", "35000", 48.1173, -1.6778},
}

var (
	namePrefixes = []string{"CBD", "Chanvre", "Green", "Herbo", "Alchimie", "La Ferme", "L'Atelier", "Maison"}
	nameSuffixes = []string{"Shop", "Store", "Boutique", "& Sens", "Verte", "du Bien-Être", "Nature", "Zen"}
	streetNames  = []string{"rue des Archives", "avenue de la République", "boulevard Saint-Michel", "rue Nationale", "place du Marché", "rue du Commerce", "quai des Chartrons"}
)

// Generator produces synthetic store records aligned with the seed schema.
type Generator struct {
	cfg  Config
	rand *rand.Rand
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	if cfg.NumStores <= 0 {
		cfg.NumStores = DefaultConfig().NumStores
	}
	if cfg.DuplicateChance < 0 {
		cfg.DuplicateChance = 0
	}
	if cfg.Seed == 0 {
		cfg.Seed = DefaultConfig().Seed
	}
	return &Generator{
		cfg:  cfg,
		rand: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Generate synthesises store records. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) ([]domain.StoreRecord, error) {
	records := make([]domain.StoreRecord, 0, g.cfg.NumStores)
	for i := 0; i < g.cfg.NumStores; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec := g.store(i)
		records = append(records, rec)
		if g.rand.Float64() < g.cfg.DuplicateChance {
			records = append(records, g.duplicate(rec))
		}
	}
	return records, nil
}

func (g *Generator) store(i int) domain.StoreRecord {
	c := cities[g.rand.Intn(len(cities))]
	name := fmt.Sprintf("%s %s %s",
		namePrefixes[g.rand.Intn(len(namePrefixes))],
		nameSuffixes[g.rand.Intn(len(nameSuffixes))],
		c.Name)
	street := fmt.Sprintf("%d %s", 1+g.rand.Intn(199), streetNames[g.rand.Intn(len(streetNames))])

	return domain.StoreRecord{
		ID:         fmt.Sprintf("gen-%04d-%s", i, uuid.Must(uuid.NewRandomFromReader(g.rand)).String()[:8]),
		Name:       name,
		Address:    street,
		City:       c.Name,
		PostalCode: c.PostalCode,
		Latitude:   c.Lat + g.jitter(0.05),
		Longitude:  c.Lng + g.jitter(0.05),
		Phone:      g.phone(),
		Website:    "https://" + slug(name) + ".example.fr",
		Source:     domain.SourceSeed,
	}
}

// duplicate emits the same physical store under a variant spelling with
// slightly shifted coordinates, close enough to fold back into one entry.
func (g *Generator) duplicate(rec domain.StoreRecord) domain.StoreRecord {
	dup := rec
	dup.ID = rec.ID + "-dup"
	dup.Name = strings.ToUpper(rec.Name)
	dup.Latitude = rec.Latitude + g.jitter(0.000004)
	dup.Longitude = rec.Longitude + g.jitter(0.000004)
	dup.Phone = ""
	dup.Website = ""
	return dup
}

func (g *Generator) jitter(scale float64) float64 {
	return (g.rand.Float64()*2 - 1) * scale
}

func (g *Generator) phone() string {
	var b strings.Builder
	b.WriteString("0")
	b.WriteByte(byte('1' + g.rand.Intn(5)))
	for i := 0; i < 8; i++ {
		b.WriteByte(byte('0' + g.rand.Intn(10)))
	}
	return b.String()
}

func slug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
