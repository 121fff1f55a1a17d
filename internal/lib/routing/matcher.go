package routing

import (
	"math"

	"github.com/supmap/navigation/internal/lib/geo"
)

// DefaultToleranceMeters is the standard route-match tolerance. Every
// call site in this module compares in meters; the degree-delta variant
// below exists only as an explicitly named pre-filter.
const DefaultToleranceMeters = 100.0

// MatchesWithinMeters reports whether any point of the route lies within
// toleranceMeters of the incident location, using great-circle distance.
// O(len(route)); returns on the first match.
func MatchesWithinMeters(route Route, incident geo.Point, toleranceMeters float64) bool {
	for _, pt := range route {
		if geo.Distance(pt, incident) <= toleranceMeters {
			return true
		}
	}
	return false
}

// MatchesWithinDegrees is a cheap coordinate-space approximation: it
// reports whether any route point is within delta degrees of the incident
// on both axes independently. It is a pre-filter for MatchesWithinMeters,
// never a replacement — a degree delta is not a physical distance and the
// two tolerances must not be mixed within one comparison.
func MatchesWithinDegrees(route Route, incident geo.Point, delta float64) bool {
	for _, pt := range route {
		if math.Abs(pt.Lat-incident.Lat) < delta && math.Abs(pt.Lng-incident.Lng) < delta {
			return true
		}
	}
	return false
}

// MinDistanceMeters returns the smallest great-circle distance from the
// incident to any route point, or +Inf for an empty route. Used for
// logging and notification payloads, not for match decisions.
func MinDistanceMeters(route Route, incident geo.Point) float64 {
	min := math.Inf(1)
	for _, pt := range route {
		if d := geo.Distance(pt, incident); d < min {
			min = d
		}
	}
	return min
}
