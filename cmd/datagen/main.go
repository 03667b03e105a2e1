package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/lucasmnd/storemap/internal/generator"
)

func main() {
	cfg := generator.DefaultConfig()
	var (
		stores          = flag.Int("stores", cfg.NumStores, "number of stores to generate")
		duplicateChance = flag.Float64("duplicate-chance", cfg.DuplicateChance, "probability of emitting a near-duplicate entry")
		seed            = flag.Int64("seed", cfg.Seed, "random seed for deterministic generation")
		output          = flag.String("output", "stores.yaml", "file to write the dataset to")
		writeStdout     = flag.Bool("stdout", false, "write the dataset to stdout instead of a file")
	)
	flag.Parse()

	genCfg := generator.Config{
		NumStores:       *stores,
		DuplicateChance: clampProbability(*duplicateChance),
		Seed:            *seed,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	records, err := generator.New(genCfg).Generate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}

	if *writeStdout {
		if err := generator.Encode(records, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write dataset to stdout: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := generator.WriteDataset(records, *output); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write dataset: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Generated %d store records into %s\n", len(records), *output)
}

func clampProbability(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
