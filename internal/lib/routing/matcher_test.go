package routing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/supmap/navigation/internal/lib/geo"
)

func equatorRoute() Route {
	return Route{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 0.01},
		{Lat: 0, Lng: 0.02},
	}
}

func TestMatchesWithinMeters_IncidentOnRoute(t *testing.T) {
	incident := geo.Point{Lat: 0, Lng: 0.01}
	assert.True(t, MatchesWithinMeters(equatorRoute(), incident, 50))
}

func TestMatchesWithinMeters_IncidentFarAway(t *testing.T) {
	incident := geo.Point{Lat: 1, Lng: 1}
	assert.False(t, MatchesWithinMeters(equatorRoute(), incident, 50))
}

func TestMatchesWithinMeters_JustInsideTolerance(t *testing.T) {
	// ~111m north of the second route point.
	incident := geo.Point{Lat: 0.001, Lng: 0.01}
	assert.True(t, MatchesWithinMeters(equatorRoute(), incident, 150))
	assert.False(t, MatchesWithinMeters(equatorRoute(), incident, 100))
}

func TestMatchesWithinMeters_EmptyRoute(t *testing.T) {
	assert.False(t, MatchesWithinMeters(Route{}, geo.Point{}, 1000))
}

func TestMatchesWithinDegrees(t *testing.T) {
	route := equatorRoute()

	assert.True(t, MatchesWithinDegrees(route, geo.Point{Lat: 0.0005, Lng: 0.0105}, 0.001))
	assert.False(t, MatchesWithinDegrees(route, geo.Point{Lat: 0.002, Lng: 0.01}, 0.001))

	// Both axes must be inside the delta independently.
	assert.False(t, MatchesWithinDegrees(route, geo.Point{Lat: 0.0005, Lng: 0.05}, 0.001))
}

func TestMinDistanceMeters(t *testing.T) {
	incident := geo.Point{Lat: 0, Lng: 0.01}
	assert.InDelta(t, 0, MinDistanceMeters(equatorRoute(), incident), 0.001)

	assert.True(t, math.IsInf(MinDistanceMeters(Route{}, incident), 1))
}
