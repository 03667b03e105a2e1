package domain

import "time"

// Source identifies which collector produced a store record.
type Source string

const (
	SourceSeed    Source = "seed"
	SourceBackend Source = "backend"
	SourceLive    Source = "live"
)

// StoreRecord is a source-scoped, ephemeral store representation. IDs are
// unique only within their source; cross-source identity is decided by the
// dedup key, never by ID.
type StoreRecord struct {
	ID              string
	Name            string
	Address         string
	City            string
	PostalCode      string
	Latitude        float64
	Longitude       float64
	ExternalPlaceID string
	Phone           string
	Website         string
	Description     string
	// OwnerUserID is set only on backend-sourced records whose row has been
	// claimed.
	OwnerUserID string
	Source      Source
}

// HasCoordinates reports whether the record carries a usable position.
// Zero/zero is treated as absent, matching the collectors' default fill.
func (r StoreRecord) HasCoordinates() bool {
	return r.Latitude != 0 || r.Longitude != 0
}

// CanonicalStore is the single merged representation of a business after
// deduplication. It exists only for the duration of a merge pass.
type CanonicalStore struct {
	StoreRecord
	DedupKey string
	// Sources lists the tags of every record folded into this entry, in
	// admission order. The first element is the identity winner.
	Sources []Source
}

// BackendStore is a persisted row of the backend store table.
type BackendStore struct {
	ID              string
	Name            string
	Address         string
	City            string
	PostalCode      string
	Latitude        float64
	Longitude       float64
	Phone           string
	Website         string
	Description     string
	ExternalPlaceID string
	UserID          string
	ClaimedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Row converts a source-scoped record into a persistable backend row. The
// inverse of BackendStore.Record; timestamps are left for the writer to fill.
func (r StoreRecord) Row() BackendStore {
	return BackendStore{
		ID:              r.ID,
		Name:            r.Name,
		Address:         r.Address,
		City:            r.City,
		PostalCode:      r.PostalCode,
		Latitude:        r.Latitude,
		Longitude:       r.Longitude,
		Phone:           r.Phone,
		Website:         r.Website,
		Description:     r.Description,
		ExternalPlaceID: r.ExternalPlaceID,
		ClaimedBy:       r.OwnerUserID,
	}
}

// Record converts a persisted row into the common source-scoped shape.
func (b BackendStore) Record() StoreRecord {
	return StoreRecord{
		ID:              b.ID,
		Name:            b.Name,
		Address:         b.Address,
		City:            b.City,
		PostalCode:      b.PostalCode,
		Latitude:        b.Latitude,
		Longitude:       b.Longitude,
		ExternalPlaceID: b.ExternalPlaceID,
		Phone:           b.Phone,
		Website:         b.Website,
		Description:     b.Description,
		OwnerUserID:     b.ClaimedBy,
		Source:          SourceBackend,
	}
}

// UserProfile carries the claim back-reference written on successful claims.
type UserProfile struct {
	UserID    string
	StoreID   string
	StoreType string
	UpdatedAt time.Time
}

// StoreTypeBoutique is the store_type written for directory claims.
const StoreTypeBoutique = "boutique"
