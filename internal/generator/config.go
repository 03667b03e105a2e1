package generator

// Config drives the synthetic store dataset generator.
type Config struct {
	NumStores int
	// DuplicateChance is the probability that a store is emitted a second
	// time under a variant spelling and slightly shifted coordinates, to
	// exercise merge behaviour under load.
	DuplicateChance float64
	Seed            int64
}

// DefaultConfig returns baseline settings for a realistic test dataset.
func DefaultConfig() Config {
	return Config{
		NumStores:       500,
		DuplicateChance: 0.1,
		Seed:            42,
	}
}
