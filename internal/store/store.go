package store

import (
	"context"

	"github.com/lucasmnd/storemap/internal/domain"
)

// Repository is the persistence contract for the backend store table and the
// user profile claim references. Implementations must make Claim a single
// atomic conditional write: two concurrent claims on the same unclaimed row
// must resolve to exactly one winner.
type Repository interface {
	// Ping verifies connectivity, used by health probes.
	Ping(ctx context.Context) error

	Insert(ctx context.Context, s domain.BackendStore) error
	Update(ctx context.Context, s domain.BackendStore) error
	GetByID(ctx context.Context, id string) (domain.BackendStore, error)
	List(ctx context.Context) ([]domain.BackendStore, error)

	// SearchByName matches name by case-insensitive substring; when city is
	// non-empty it is matched the same way.
	SearchByName(ctx context.Context, name, city string) ([]domain.BackendStore, error)

	// FindByBucket returns the store whose rounded coordinates fall in the
	// same proximity bucket as the given point, if any.
	FindByBucket(ctx context.Context, lat, lng float64) (domain.BackendStore, bool, error)

	// Claim sets claimed_by and user_id to userID only if claimed_by is
	// still empty or already equals userID. A lost race or a different
	// owner yields domain.ErrConflict; a missing row yields
	// domain.ErrNotFound.
	Claim(ctx context.Context, storeID, userID string) error

	// ReleaseClaim clears claimed_by/user_id, but only when held by userID.
	// Used to roll back a claim whose profile write failed.
	ReleaseClaim(ctx context.Context, storeID, userID string) error

	GetProfile(ctx context.Context, userID string) (domain.UserProfile, error)
	SaveProfile(ctx context.Context, p domain.UserProfile) error
	ClearProfileStore(ctx context.Context, userID string) error

	Close() error
}
