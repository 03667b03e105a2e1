// Package claim resolves a free-text (name, city) query to exactly one
// canonical backend record and binds it exclusively to the requesting user.
package claim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/lucasmnd/storemap/internal/domain"
	"github.com/lucasmnd/storemap/internal/seed"
	"github.com/lucasmnd/storemap/internal/store"
)

// placeholderAddress marks a synthesized record the owner still has to fill in.
const placeholderAddress = "to complete"

// Result reports the outcome of a successful claim.
type Result struct {
	StoreID string
	// Created is true when the claim inserted a new backend record, either
	// copied from the seed dataset or synthesized from the query.
	Created bool
	// AlreadyOwned is true when the user's profile already referenced the
	// store and the call was a no-op.
	AlreadyOwned bool
}

// Coordinator runs the claim state machine against the backend table and the
// read-only seed dataset.
type Coordinator struct {
	repo    store.Repository
	dataset *seed.Dataset
	logger  *slog.Logger
	newID   func() string
}

// NewCoordinator builds a Coordinator.
func NewCoordinator(repo store.Repository, dataset *seed.Dataset, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		repo:    repo,
		dataset: dataset,
		logger:  logger.With("component", "claim"),
		newID:   uuid.NewString,
	}
}

// WithIDGenerator overrides the id factory (used primarily in tests).
func (c *Coordinator) WithIDGenerator(fn func() string) *Coordinator {
	if fn != nil {
		c.newID = fn
	}
	return c
}

// Claim resolves the query to one backend record and binds it to userID.
//
// Resolution order: the user's existing reference, then the backend table,
// then the seed dataset (with a proximity probe back into the backend so a
// renamed migration is not re-inserted), then synthesis from the city table.
// Ownership is decided solely by the repository's conditional claim write.
func (c *Coordinator) Claim(ctx context.Context, nameQuery, cityQuery, userID string) (Result, error) {
	nameQuery = strings.TrimSpace(nameQuery)
	cityQuery = strings.TrimSpace(cityQuery)
	if userID == "" {
		return Result{}, errors.New("user id is required")
	}
	if nameQuery == "" {
		return Result{}, fmt.Errorf("empty store name: %w", domain.ErrNotFound)
	}

	// S0: idempotent re-claim through the profile reference.
	profile, err := c.repo.GetProfile(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("load profile: %w", err)
	}
	if profile.StoreID != "" {
		_, err := c.repo.GetByID(ctx, profile.StoreID)
		switch {
		case err == nil:
			return Result{StoreID: profile.StoreID, AlreadyOwned: true}, nil
		case errors.Is(err, domain.ErrNotFound):
			// The referenced record vanished; drop the reference and
			// resolve the query from scratch.
			c.logger.Warn("clearing dangling store reference",
				"userId", userID, "storeId", profile.StoreID)
			if err := c.repo.ClearProfileStore(ctx, userID); err != nil {
				return Result{}, fmt.Errorf("clear dangling reference: %w", err)
			}
		default:
			return Result{}, err
		}
	}

	// S1: backend substring search.
	matches, err := c.repo.SearchByName(ctx, nameQuery, cityQuery)
	if err != nil {
		return Result{}, fmt.Errorf("backend search: %w", err)
	}
	if len(matches) > 0 {
		return c.claimExisting(ctx, matches[0].ID, userID)
	}

	// S2: seed dataset, guarded by a proximity probe into the backend.
	if seedMatches := c.dataset.FindByNameCity(nameQuery, cityQuery); len(seedMatches) > 0 {
		seedRec := seedMatches[0]
		if seedRec.HasCoordinates() {
			existing, found, err := c.repo.FindByBucket(ctx, seedRec.Latitude, seedRec.Longitude)
			if err != nil {
				return Result{}, fmt.Errorf("proximity probe: %w", err)
			}
			if found {
				// Same location already migrated under another spelling.
				return c.claimExisting(ctx, existing.ID, userID)
			}
		}
		return c.insertAndClaim(ctx, c.fromSeed(seedRec), userID)
	}

	// S3: synthesize, which needs at least a city.
	if cityQuery == "" {
		return Result{}, fmt.Errorf("no match for %q: %w", nameQuery, domain.ErrNotFound)
	}
	return c.insertAndClaim(ctx, c.synthesize(nameQuery, cityQuery), userID)
}

// claimExisting applies the atomic claim to a known backend record and
// finalizes the profile reference.
func (c *Coordinator) claimExisting(ctx context.Context, storeID, userID string) (Result, error) {
	if err := c.repo.Claim(ctx, storeID, userID); err != nil {
		return Result{}, err
	}
	if err := c.finalize(ctx, storeID, userID); err != nil {
		return Result{}, err
	}
	return Result{StoreID: storeID}, nil
}

func (c *Coordinator) insertAndClaim(ctx context.Context, rec domain.BackendStore, userID string) (Result, error) {
	if err := c.repo.Insert(ctx, rec); err != nil {
		return Result{}, fmt.Errorf("insert store: %v: %w", err, domain.ErrPersistence)
	}
	if err := c.repo.Claim(ctx, rec.ID, userID); err != nil {
		return Result{}, err
	}
	if err := c.finalize(ctx, rec.ID, userID); err != nil {
		return Result{}, err
	}
	c.logger.Info("claimed new store", "storeId", rec.ID, "userId", userID, "city", rec.City)
	return Result{StoreID: rec.ID, Created: true}, nil
}

// finalize writes the profile reference. A failed write releases the claim
// again so no partial state survives; the caller is told to retry.
func (c *Coordinator) finalize(ctx context.Context, storeID, userID string) error {
	err := c.repo.SaveProfile(ctx, domain.UserProfile{
		UserID:    userID,
		StoreID:   storeID,
		StoreType: domain.StoreTypeBoutique,
	})
	if err == nil {
		return nil
	}
	if releaseErr := c.repo.ReleaseClaim(ctx, storeID, userID); releaseErr != nil {
		c.logger.Error("claim rollback failed", "storeId", storeID, "error", releaseErr)
	}
	return fmt.Errorf("profile update: %v: %w", err, domain.ErrPersistence)
}

// fromSeed copies a seed record into a fresh backend row.
func (c *Coordinator) fromSeed(r domain.StoreRecord) domain.BackendStore {
	return domain.BackendStore{
		ID:              c.newID(),
		Name:            r.Name,
		Address:         r.Address,
		City:            r.City,
		PostalCode:      r.PostalCode,
		Latitude:        r.Latitude,
		Longitude:       r.Longitude,
		Phone:           r.Phone,
		Website:         r.Website,
		ExternalPlaceID: r.ExternalPlaceID,
	}
}

// synthesize builds a minimal record for a business known only by name and
// city, positioned at the city default (or the country centre).
func (c *Coordinator) synthesize(name, city string) domain.BackendStore {
	d := defaultForCity(city)
	return domain.BackendStore{
		ID:         c.newID(),
		Name:       name,
		Address:    placeholderAddress,
		City:       city,
		PostalCode: d.PostalCode,
		Latitude:   d.Lat,
		Longitude:  d.Lng,
	}
}
