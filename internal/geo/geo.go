package geo

import (
	"fmt"
	"math"

	geohash "github.com/TomiHiltunen/geohash-golang"
	"github.com/golang/geo/s2"
)

// earthRadiusKm is the mean Earth radius used for great-circle distances.
const earthRadiusKm = 6371.0

// cellPrecision is the geohash length used for location bucketing of
// live-search lookups (~5km cells).
const cellPrecision = 5

// Distance returns the great-circle distance in kilometres between two
// points given in degrees.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	a := s2.LatLngFromDegrees(lat1, lng1)
	b := s2.LatLngFromDegrees(lat2, lng2)
	return a.Distance(b).Radians() * earthRadiusKm
}

// Round5 rounds a coordinate to 5 decimal places (~1.1m grid), the
// resolution used for proximity bucketing.
func Round5(v float64) float64 {
	return math.Round(v*1e5) / 1e5
}

// BucketKey returns the proximity bucket identifier for a coordinate pair.
// Two records with equal bucket keys are considered the same location.
func BucketKey(lat, lng float64) string {
	return fmt.Sprintf("geo:%s_%s", formatRounded(lat), formatRounded(lng))
}

// Cell returns a coarse geohash cell for the coordinate, used to scope
// cached live-search responses to a neighbourhood.
func Cell(lat, lng float64) string {
	return geohash.EncodeWithPrecision(lat, lng, cellPrecision)
}

func formatRounded(v float64) string {
	return trimZeros(fmt.Sprintf("%.5f", Round5(v)))
}

// trimZeros drops trailing fraction zeros so 48.85660 and 48.8566 produce
// the same bucket key regardless of how the source serialized them.
func trimZeros(s string) string {
	i := len(s)
	for i > 0 && s[i-1] == '0' {
		i--
	}
	if i > 0 && s[i-1] == '.' {
		i--
	}
	return s[:i]
}
