// Package rank orders canonical stores by distance from a reference point.
package rank

import (
	"sort"

	"github.com/lucasmnd/storemap/internal/domain"
	"github.com/lucasmnd/storemap/internal/geo"
)

// RankedStore pairs a canonical store with its distance from the origin.
type RankedStore struct {
	domain.CanonicalStore
	DistanceKm float64
}

// Rank sorts stores ascending by great-circle distance from the origin.
// Ties keep their admission order. Stores without coordinates sort last,
// also in admission order.
func Rank(stores []domain.CanonicalStore, originLat, originLng float64) []RankedStore {
	ranked := make([]RankedStore, 0, len(stores))
	for _, s := range stores {
		r := RankedStore{CanonicalStore: s, DistanceKm: -1}
		if s.HasCoordinates() {
			r.DistanceKm = geo.Distance(originLat, originLng, s.Latitude, s.Longitude)
		}
		ranked = append(ranked, r)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		di, dj := ranked[i].DistanceKm, ranked[j].DistanceKm
		if di < 0 {
			return false
		}
		if dj < 0 {
			return true
		}
		return di < dj
	})
	return ranked
}

// Nearest returns at most n stores closest to the origin. Used wherever
// "N nearest" semantics are needed, independently of the full listing.
func Nearest(stores []domain.CanonicalStore, originLat, originLng float64, n int) []RankedStore {
	ranked := Rank(stores, originLat, originLng)
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
