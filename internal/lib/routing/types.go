package routing

import "github.com/supmap/navigation/internal/lib/geo"

// Route is an ordered sequence of points describing a planned path.
// Insertion order is the travel order. Routes are owned by the itinerary
// store; this package only reads them.
type Route []geo.Point
