package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lucasmnd/storemap/internal/domain"
	"github.com/lucasmnd/storemap/internal/geo"
)

// MemoryRepository is an in-memory Repository used for unit tests and for
// running the server without a database file. The claim compare-and-set is
// performed under the repository mutex so it carries the same atomicity
// guarantee as the SQLite conditional update.
type MemoryRepository struct {
	mu       sync.Mutex
	stores   map[string]domain.BackendStore
	order    []string
	profiles map[string]domain.UserProfile

	err        error
	profileErr error
	nowFn      func() time.Time
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository instantiates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		stores:   make(map[string]domain.BackendStore),
		profiles: make(map[string]domain.UserProfile),
		nowFn:    time.Now,
	}
}

// WithError configures the repository to fail every store operation with err.
func (m *MemoryRepository) WithError(err error) *MemoryRepository {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithProfileError configures profile writes to fail with err, leaving store
// operations untouched. Used to exercise claim rollback.
func (m *MemoryRepository) WithProfileError(err error) *MemoryRepository {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profileErr = err
	return m
}

// WithClock overrides the time provider.
func (m *MemoryRepository) WithClock(nowFn func() time.Time) *MemoryRepository {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nowFn = nowFn
	return m
}

func (m *MemoryRepository) Ping(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *MemoryRepository) Close() error { return nil }

func (m *MemoryRepository) Insert(_ context.Context, s domain.BackendStore) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if s.ID == "" {
		return fmt.Errorf("store id is required")
	}
	if _, exists := m.stores[s.ID]; exists {
		return fmt.Errorf("store %s already exists", s.ID)
	}
	now := m.nowFn().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	m.stores[s.ID] = s
	m.order = append(m.order, s.ID)
	return nil
}

func (m *MemoryRepository) Update(_ context.Context, s domain.BackendStore) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	current, ok := m.stores[s.ID]
	if !ok {
		return fmt.Errorf("store %s: %w", s.ID, domain.ErrNotFound)
	}
	s.UserID = current.UserID
	s.ClaimedBy = current.ClaimedBy
	s.CreatedAt = current.CreatedAt
	s.UpdatedAt = m.nowFn().UTC()
	m.stores[s.ID] = s
	return nil
}

func (m *MemoryRepository) GetByID(_ context.Context, id string) (domain.BackendStore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.BackendStore{}, m.err
	}
	s, ok := m.stores[id]
	if !ok {
		return domain.BackendStore{}, fmt.Errorf("store %s: %w", id, domain.ErrNotFound)
	}
	return s, nil
}

func (m *MemoryRepository) List(context.Context) ([]domain.BackendStore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	stores := make([]domain.BackendStore, 0, len(m.order))
	for _, id := range m.order {
		stores = append(stores, m.stores[id])
	}
	return stores, nil
}

func (m *MemoryRepository) SearchByName(_ context.Context, name, city string) ([]domain.BackendStore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	name = strings.ToLower(strings.TrimSpace(name))
	city = strings.ToLower(strings.TrimSpace(city))

	var matches []domain.BackendStore
	for _, id := range m.order {
		s := m.stores[id]
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

func (m *MemoryRepository) FindByBucket(_ context.Context, lat, lng float64) (domain.BackendStore, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.BackendStore{}, false, m.err
	}
	want := geo.BucketKey(lat, lng)
	for _, id := range m.order {
		s := m.stores[id]
		if s.Latitude == 0 && s.Longitude == 0 {
			continue
		}
		if geo.BucketKey(s.Latitude, s.Longitude) == want {
			return s, true, nil
		}
	}
	return domain.BackendStore{}, false, nil
}

func (m *MemoryRepository) Claim(_ context.Context, storeID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	s, ok := m.stores[storeID]
	if !ok {
		return fmt.Errorf("store %s: %w", storeID, domain.ErrNotFound)
	}
	if s.ClaimedBy != "" && s.ClaimedBy != userID {
		return fmt.Errorf("store %s: %w", storeID, domain.ErrConflict)
	}
	s.ClaimedBy = userID
	s.UserID = userID
	s.UpdatedAt = m.nowFn().UTC()
	m.stores[storeID] = s
	return nil
}

func (m *MemoryRepository) ReleaseClaim(_ context.Context, storeID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	s, ok := m.stores[storeID]
	if !ok || s.ClaimedBy != userID {
		return nil
	}
	s.ClaimedBy = ""
	s.UserID = ""
	s.UpdatedAt = m.nowFn().UTC()
	m.stores[storeID] = s
	return nil
}

func (m *MemoryRepository) GetProfile(_ context.Context, userID string) (domain.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.UserProfile{}, m.err
	}
	p, ok := m.profiles[userID]
	if !ok {
		return domain.UserProfile{UserID: userID}, nil
	}
	return p, nil
}

func (m *MemoryRepository) SaveProfile(_ context.Context, p domain.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profileErr != nil {
		return m.profileErr
	}
	if m.err != nil {
		return m.err
	}
	if p.UserID == "" {
		return fmt.Errorf("profile user id is required")
	}
	p.UpdatedAt = m.nowFn().UTC()
	m.profiles[p.UserID] = p
	return nil
}

func (m *MemoryRepository) ClearProfileStore(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	p, ok := m.profiles[userID]
	if !ok {
		return nil
	}
	p.StoreID = ""
	p.StoreType = ""
	p.UpdatedAt = m.nowFn().UTC()
	m.profiles[userID] = p
	return nil
}
