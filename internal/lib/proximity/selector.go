package proximity

import (
	"github.com/supmap/navigation/internal/lib/geo"
	"github.com/supmap/navigation/internal/lib/incident"
)

// DefaultRadiusMeters is the standard proximity radius for user alerts.
const DefaultRadiusMeters = 300.0

// Match is an incident paired with its distance to the queried position.
type Match struct {
	Incident incident.Incident
	Distance float64
}

// Nearest returns the closest incident within radiusMeters of pos, or
// ok=false when none qualifies. Ties on distance are broken by the lowest
// incident ID so the result is deterministic for identical inputs.
//
// Nearest is a pure function of its arguments: no I/O, no side effects.
func Nearest(pos geo.Point, incidents []incident.Incident, radiusMeters float64) (Match, bool) {
	var best Match
	found := false

	for _, inc := range incidents {
		d := geo.Distance(pos, inc.Location())
		if d > radiusMeters {
			continue
		}
		if !found || d < best.Distance || (d == best.Distance && inc.ID < best.Incident.ID) {
			best = Match{Incident: inc, Distance: d}
			found = true
		}
	}

	return best, found
}
