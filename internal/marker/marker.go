// Package marker keeps a visual-marker set in sync with the canonical store
// set. One marker per storeId; refreshes touch only the keys that changed.
package marker

import (
	"sync"

	"github.com/lucasmnd/storemap/internal/domain"
)

// Marker is the displayed state for one canonical store.
type Marker struct {
	StoreID  string
	Name     string
	Lat      float64
	Lng      float64
	Selected bool
}

// Event describes a single marker mutation emitted by the manager.
type Event struct {
	Kind    EventKind
	StoreID string
	Marker  Marker
}

// EventKind discriminates marker mutations.
type EventKind string

const (
	EventAdd    EventKind = "add"
	EventRemove EventKind = "remove"
	EventRedraw EventKind = "redraw"
)

// Manager owns the marker set. Selection wiring is an injected callback
// scoped to the instance, so two managers never share state through a
// process-wide slot.
type Manager struct {
	mu      sync.Mutex
	markers map[string]*Marker
	order   []string
	current string // selected storeId

	onEvent func(Event)
}

// NewManager builds a Manager. onEvent receives every applied mutation; nil
// disables emission.
func NewManager(onEvent func(Event)) *Manager {
	return &Manager{
		markers: make(map[string]*Marker),
		onEvent: onEvent,
	}
}

// Diff summarizes one Sync pass.
type Diff struct {
	Added   []string
	Removed []string
	Kept    int
}

// Sync reconciles the marker set against a fresh canonical set: new keys are
// added, vanished keys removed, surviving keys left untouched so they never
// flicker. A selected marker that survives keeps its selection.
func (m *Manager) Sync(stores []domain.CanonicalStore) Diff {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := make(map[string]domain.CanonicalStore, len(stores))
	for _, s := range stores {
		next[s.ID] = s
	}

	var diff Diff

	// Remove first so a reused key cannot collide.
	kept := m.order[:0]
	for _, id := range m.order {
		if _, ok := next[id]; ok {
			kept = append(kept, id)
			continue
		}
		marker := m.markers[id]
		delete(m.markers, id)
		diff.Removed = append(diff.Removed, id)
		if m.current == id {
			m.current = ""
		}
		m.emit(Event{Kind: EventRemove, StoreID: id, Marker: *marker})
	}
	m.order = kept
	diff.Kept = len(kept)

	for _, s := range stores {
		if _, ok := m.markers[s.ID]; ok {
			continue
		}
		marker := &Marker{
			StoreID:  s.ID,
			Name:     s.Name,
			Lat:      s.Latitude,
			Lng:      s.Longitude,
			Selected: s.ID == m.current,
		}
		m.markers[s.ID] = marker
		m.order = append(m.order, s.ID)
		diff.Added = append(diff.Added, s.ID)
		m.emit(Event{Kind: EventAdd, StoreID: s.ID, Marker: *marker})
	}

	return diff
}

// Select marks one store as selected, redrawing only the marker that lost
// the selection and the one that gained it.
func (m *Manager) Select(storeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == storeID {
		return
	}
	if prev, ok := m.markers[m.current]; ok {
		prev.Selected = false
		m.emit(Event{Kind: EventRedraw, StoreID: prev.StoreID, Marker: *prev})
	}
	m.current = ""
	if next, ok := m.markers[storeID]; ok {
		next.Selected = true
		m.current = storeID
		m.emit(Event{Kind: EventRedraw, StoreID: storeID, Marker: *next})
	}
}

// Selected returns the currently selected storeId, empty when none.
func (m *Manager) Selected() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Keys returns the displayed storeIds in admission order.
func (m *Manager) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...)
}

func (m *Manager) emit(e Event) {
	if m.onEvent != nil {
		m.onEvent(e)
	}
}
