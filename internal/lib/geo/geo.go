package geo

import (
	"errors"
	"math"

	"github.com/twpayne/go-polyline"
)

// Mean Earth radius in meters for the spherical model used throughout.
const earthRadiusMeters = 6371000

// Distance computes the great-circle distance between two points in meters
// using the haversine formula.
//
// Inputs are not validated: callers are responsible for producing sane
// coordinates, and malformed input (NaN, out-of-range degrees) propagates
// into the result instead of failing. That keeps Distance a pure, total
// function with no error path.
func Distance(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}

// DecodePolyline decodes a Google-encoded polyline string into a point
// sequence, preserving travel order.
func DecodePolyline(encoded string) ([]Point, error) {
	if encoded == "" {
		return nil, errors.New("encoded polyline string is empty")
	}

	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, errors.New("failed to decode polyline: " + err.Error())
	}

	points := make([]Point, len(coords))
	for i, coord := range coords {
		points[i] = Point{Lat: coord[0], Lng: coord[1]}
	}
	return points, nil
}

// IsValid reports whether a point lies within the valid coordinate ranges.
// Distance deliberately does not call this; request validation does.
func IsValid(p Point) bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}
