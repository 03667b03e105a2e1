package server

import (
	"context"

	"github.com/lucasmnd/storemap/internal/store"
)

// HealthService defines behaviour for readiness probes.
type HealthService interface {
	Probe(ctx context.Context) error
}

// StoreHealthService verifies store-table connectivity as part of health checks.
type StoreHealthService struct {
	Repo store.Repository
}

// Probe implements the HealthService interface.
func (s StoreHealthService) Probe(ctx context.Context) error {
	if s.Repo == nil {
		return nil
	}
	return s.Repo.Ping(ctx)
}
