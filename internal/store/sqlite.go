package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/lucasmnd/storemap/internal/domain"
	"github.com/lucasmnd/storemap/internal/geo"
)

// SQLiteRepository persists the backend store table in a single SQLite file.
type SQLiteRepository struct {
	db    *sql.DB
	nowFn func() time.Time
}

var _ Repository = (*SQLiteRepository)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS stores (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	address TEXT NOT NULL DEFAULT '',
	city TEXT NOT NULL DEFAULT '',
	postal_code TEXT NOT NULL DEFAULT '',
	latitude REAL NOT NULL DEFAULT 0,
	longitude REAL NOT NULL DEFAULT 0,
	geo_bucket TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	website TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	external_place_id TEXT NOT NULL DEFAULT '',
	user_id TEXT NOT NULL DEFAULT '',
	claimed_by TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_stores_geo_bucket ON stores(geo_bucket);

CREATE TABLE IF NOT EXISTS profiles (
	user_id TEXT PRIMARY KEY,
	store_id TEXT NOT NULL DEFAULT '',
	store_type TEXT NOT NULL DEFAULT '',
	updated_at TEXT NOT NULL
);
`

// NewSQLiteRepository opens (creating if needed) the database at path and
// ensures the schema exists.
func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	if path == "" {
		path = "storemap.db"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// The claim update relies on a single writer at a time.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteRepository{db: db, nowFn: time.Now}, nil
}

// Ping verifies database connectivity.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close releases the underlying database handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

const storeColumns = `id, name, address, city, postal_code, latitude, longitude,
	phone, website, description, external_place_id, user_id, claimed_by,
	created_at, updated_at`

// Insert adds a new store row.
func (r *SQLiteRepository) Insert(ctx context.Context, s domain.BackendStore) error {
	if s.ID == "" {
		return errors.New("store id is required")
	}
	now := r.nowFn().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO stores (id, name, address, city, postal_code, latitude, longitude,
			geo_bucket, phone, website, description, external_place_id, user_id,
			claimed_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Name, s.Address, s.City, s.PostalCode, s.Latitude, s.Longitude,
		bucketFor(s), s.Phone, s.Website, s.Description, s.ExternalPlaceID,
		s.UserID, s.ClaimedBy, formatTime(s.CreatedAt), formatTime(s.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert store %s: %w", s.ID, err)
	}
	return nil
}

// Update rewrites the mutable fields of an existing store row.
func (r *SQLiteRepository) Update(ctx context.Context, s domain.BackendStore) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE stores SET name = ?, address = ?, city = ?, postal_code = ?,
			latitude = ?, longitude = ?, geo_bucket = ?, phone = ?, website = ?,
			description = ?, external_place_id = ?, updated_at = ?
		WHERE id = ?`,
		s.Name, s.Address, s.City, s.PostalCode, s.Latitude, s.Longitude,
		bucketFor(s), s.Phone, s.Website, s.Description, s.ExternalPlaceID,
		formatTime(r.nowFn().UTC()), s.ID)
	if err != nil {
		return fmt.Errorf("update store %s: %w", s.ID, err)
	}
	return requireRow(res, s.ID)
}

// GetByID fetches a single store row.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (domain.BackendStore, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+storeColumns+` FROM stores WHERE id = ?`, id)
	s, err := scanStore(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.BackendStore{}, fmt.Errorf("store %s: %w", id, domain.ErrNotFound)
	}
	return s, err
}

// List returns all store rows in insertion order.
func (r *SQLiteRepository) List(ctx context.Context) ([]domain.BackendStore, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+storeColumns+` FROM stores ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	defer rows.Close()
	return collectStores(rows)
}

// SearchByName performs a case-insensitive substring match on name, and on
// city when supplied. The match runs in Go: sqlite's lower() folds ASCII
// only, and store names carry accents ("Bien-Être") that must fold the same
// way the in-memory repository folds them.
func (r *SQLiteRepository) SearchByName(ctx context.Context, name, city string) ([]domain.BackendStore, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	city = strings.ToLower(strings.TrimSpace(city))

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+storeColumns+` FROM stores ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("search stores: %w", err)
	}
	defer rows.Close()

	all, err := collectStores(rows)
	if err != nil {
		return nil, err
	}
	var matches []domain.BackendStore
	for _, s := range all {
		if !strings.Contains(strings.ToLower(s.Name), name) {
			continue
		}
		if city != "" && !strings.Contains(strings.ToLower(s.City), city) {
			continue
		}
		matches = append(matches, s)
	}
	return matches, nil
}

// FindByBucket locates a store whose rounded coordinates fall in the same
// proximity bucket as the given point.
func (r *SQLiteRepository) FindByBucket(ctx context.Context, lat, lng float64) (domain.BackendStore, bool, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+storeColumns+` FROM stores WHERE geo_bucket = ? AND geo_bucket != '' LIMIT 1`,
		geo.BucketKey(lat, lng))
	s, err := scanStore(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.BackendStore{}, false, nil
	}
	if err != nil {
		return domain.BackendStore{}, false, err
	}
	return s, true, nil
}

// Claim conditionally binds the store to userID. The guard is evaluated in
// the same statement as the write, which is what makes concurrent claims
// safe: the second claimant's UPDATE matches zero rows.
func (r *SQLiteRepository) Claim(ctx context.Context, storeID, userID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE stores SET claimed_by = ?, user_id = ?, updated_at = ?
		WHERE id = ? AND (claimed_by = '' OR claimed_by = ?)`,
		userID, userID, formatTime(r.nowFn().UTC()), storeID, userID)
	if err != nil {
		return fmt.Errorf("claim store %s: %w", storeID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("claim store %s: %w", storeID, err)
	}
	if affected > 0 {
		return nil
	}

	// Zero rows: the store is either missing or held by someone else.
	if _, err := r.GetByID(ctx, storeID); err != nil {
		return err
	}
	return fmt.Errorf("store %s: %w", storeID, domain.ErrConflict)
}

// ReleaseClaim undoes a claim held by userID.
func (r *SQLiteRepository) ReleaseClaim(ctx context.Context, storeID, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE stores SET claimed_by = '', user_id = '', updated_at = ?
		WHERE id = ? AND claimed_by = ?`,
		formatTime(r.nowFn().UTC()), storeID, userID)
	if err != nil {
		return fmt.Errorf("release claim %s: %w", storeID, err)
	}
	return nil
}

// GetProfile fetches the claim reference for a user, returning a zero-valued
// profile when none exists yet.
func (r *SQLiteRepository) GetProfile(ctx context.Context, userID string) (domain.UserProfile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT user_id, store_id, store_type, updated_at FROM profiles WHERE user_id = ?`,
		userID)
	var p domain.UserProfile
	var updated string
	err := row.Scan(&p.UserID, &p.StoreID, &p.StoreType, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.UserProfile{UserID: userID}, nil
	}
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("get profile %s: %w", userID, err)
	}
	p.UpdatedAt = parseTime(updated)
	return p, nil
}

// SaveProfile upserts the claim reference for a user.
func (r *SQLiteRepository) SaveProfile(ctx context.Context, p domain.UserProfile) error {
	if p.UserID == "" {
		return errors.New("profile user id is required")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, store_id, store_type, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			store_id = excluded.store_id,
			store_type = excluded.store_type,
			updated_at = excluded.updated_at`,
		p.UserID, p.StoreID, p.StoreType, formatTime(r.nowFn().UTC()))
	if err != nil {
		return fmt.Errorf("save profile %s: %w", p.UserID, err)
	}
	return nil
}

// ClearProfileStore drops a dangling store reference from a profile.
func (r *SQLiteRepository) ClearProfileStore(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE profiles SET store_id = '', store_type = '', updated_at = ?
		WHERE user_id = ?`,
		formatTime(r.nowFn().UTC()), userID)
	if err != nil {
		return fmt.Errorf("clear profile %s: %w", userID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStore(row rowScanner) (domain.BackendStore, error) {
	var s domain.BackendStore
	var created, updated string
	err := row.Scan(&s.ID, &s.Name, &s.Address, &s.City, &s.PostalCode,
		&s.Latitude, &s.Longitude, &s.Phone, &s.Website, &s.Description,
		&s.ExternalPlaceID, &s.UserID, &s.ClaimedBy, &created, &updated)
	if err != nil {
		return domain.BackendStore{}, err
	}
	s.CreatedAt = parseTime(created)
	s.UpdatedAt = parseTime(updated)
	return s, nil
}

func collectStores(rows *sql.Rows) ([]domain.BackendStore, error) {
	var stores []domain.BackendStore
	for rows.Next() {
		s, err := scanStore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan store: %w", err)
		}
		stores = append(stores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stores: %w", err)
	}
	return stores, nil
}

func bucketFor(s domain.BackendStore) string {
	if s.Latitude == 0 && s.Longitude == 0 {
		return ""
	}
	return geo.BucketKey(s.Latitude, s.Longitude)
}

func requireRow(res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("store %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t
	}
	return time.Time{}
}
