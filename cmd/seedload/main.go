// Command seedload imports a store dataset into the backend table. With no
// flags it loads the bundled seed dataset; -file imports an alternative YAML
// list. Existing rows are never overwritten, so the import is safe to re-run
// against a live database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lucasmnd/storemap/internal/config"
	"github.com/lucasmnd/storemap/internal/logging"
	"github.com/lucasmnd/storemap/internal/seed"
	"github.com/lucasmnd/storemap/internal/store"
)

func main() {
	var (
		filePath = flag.String("file", "", "Path to a YAML store list (defaults to the bundled dataset)")
		workers  = flag.Int("workers", 4, "Number of concurrent import workers")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging).With("component", "seedload")

	if cfg.Store.Path == "" {
		logger.Error("STORE_DB_PATH is required for imports")
		os.Exit(1)
	}

	dataset, err := loadDataset(*filePath)
	if err != nil {
		logger.Error("failed to load dataset", "error", err, "path", *filePath)
		os.Exit(1)
	}
	records := dataset.Records()
	if len(records) == 0 {
		logger.Error("dataset is empty", "path", *filePath)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	repo, err := store.NewSQLiteRepository(cfg.Store.Path)
	if err != nil {
		logger.Error("failed to open store table", "error", err, "path", cfg.Store.Path)
		os.Exit(1)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Warn("closing store table failed", "error", err)
		}
	}()

	importer := store.NewBulkImporter(repo, *workers)

	start := time.Now()
	logger.Info("importing stores", "count", len(records), "workers", *workers)
	stats, err := importer.Import(ctx, records)
	if err != nil {
		logger.Error("import failed", "error", err,
			"inserted", stats.Inserted, "skipped", stats.Skipped)
		os.Exit(1)
	}

	logger.Info("import complete",
		"duration", time.Since(start).String(),
		"inserted", stats.Inserted,
		"skipped", stats.Skipped,
	)
}

func loadDataset(path string) (*seed.Dataset, error) {
	if path == "" {
		return seed.Load()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return seed.Parse(raw)
}
