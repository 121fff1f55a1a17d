package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/supmap/navigation/internal/clients/google"
	"github.com/supmap/navigation/internal/clients/itineraries"
	"github.com/supmap/navigation/internal/lib/geo"
	"github.com/supmap/navigation/internal/lib/incident"
	"github.com/supmap/navigation/internal/lib/routing"
)

// ItineraryFetcher fetches stored itineraries.
type ItineraryFetcher interface {
	GetByID(ctx context.Context, token string, id int64) (itineraries.Itinerary, error)
}

// RouteProvider computes driving routes between two endpoints.
type RouteProvider interface {
	Routes(ctx context.Context, origin, destination string, avoidTolls bool) ([]google.Route, error)
}

// RecalculationService checks a stored itinerary against active incidents
// and requests a replacement route when the itinerary is affected.
type RecalculationService struct {
	itineraries     ItineraryFetcher
	incidents       IncidentLister
	provider        RouteProvider
	toleranceMeters float64
}

// NewRecalculationService creates a recalculation service. toleranceMeters
// <= 0 falls back to the default route match tolerance.
func NewRecalculationService(itins ItineraryFetcher, incidents IncidentLister, provider RouteProvider, toleranceMeters float64) *RecalculationService {
	if toleranceMeters <= 0 {
		toleranceMeters = routing.DefaultToleranceMeters
	}
	return &RecalculationService{
		itineraries:     itins,
		incidents:       incidents,
		provider:        provider,
		toleranceMeters: toleranceMeters,
	}
}

// RecalculationResult is the outcome of a recalculation check.
type RecalculationResult struct {
	Recalculated      bool                `json:"recalculated"`
	AffectedIncidents []incident.Incident `json:"affected_incidents"`
	OldRoute          routing.Route       `json:"old_route,omitempty"`
	NewRoute          *google.Route       `json:"new_route,omitempty"`
}

// RecalculateOptions carries the optional reroute endpoints. A set
// CurrentPosition replaces the itinerary start as the origin, and a
// non-empty NewDestination replaces the itinerary end.
type RecalculateOptions struct {
	CurrentPosition *geo.Point
	NewDestination  string
}

// Recalculate loads the itinerary, collects the active incidents whose
// position lies within the route tolerance of any route vertex, and when
// at least one is found asks the route provider for a toll-free
// replacement from the driver's current position (fallback: itinerary
// start) to the requested destination (fallback: itinerary end). When no
// incident affects the route it returns without contacting the provider.
//
// A failure to list active incidents is an error, never treated as
// "no incidents". google.ErrNoRoute passes through unwrapped beyond
// errors.Is so callers can distinguish it from provider failures.
func (s *RecalculationService) Recalculate(ctx context.Context, token string, itineraryID int64, opts RecalculateOptions) (RecalculationResult, error) {
	itin, err := s.itineraries.GetByID(ctx, token, itineraryID)
	if err != nil {
		if errors.Is(err, itineraries.ErrNotFound) {
			return RecalculationResult{}, err
		}
		return RecalculationResult{}, fmt.Errorf("failed to fetch itinerary %d: %w", itineraryID, err)
	}

	active, err := s.incidents.ListActive(ctx, token)
	if err != nil {
		return RecalculationResult{}, fmt.Errorf("failed to list active incidents: %w", err)
	}

	route := itin.Route()
	var affected []incident.Incident
	for _, inc := range active {
		if routing.MatchesWithinMeters(route, inc.Location(), s.toleranceMeters) {
			affected = append(affected, inc)
		}
	}

	if len(affected) == 0 {
		return RecalculationResult{AffectedIncidents: []incident.Incident{}, OldRoute: route}, nil
	}

	zap.L().Info("itinerary affected by incidents, requesting new route",
		zap.Int64("itinerary_id", itineraryID),
		zap.Int("incident_count", len(affected)))

	origin := itin.StartLocation
	if opts.CurrentPosition != nil {
		origin = google.FormatPoint(*opts.CurrentPosition)
	}
	destination := itin.EndLocation
	if opts.NewDestination != "" {
		destination = opts.NewDestination
	}

	routes, err := s.provider.Routes(ctx, origin, destination, true)
	if err != nil {
		if errors.Is(err, google.ErrNoRoute) {
			return RecalculationResult{}, err
		}
		return RecalculationResult{}, fmt.Errorf("failed to compute replacement route: %w", err)
	}
	if len(routes) == 0 {
		return RecalculationResult{}, google.ErrNoRoute
	}

	return RecalculationResult{
		Recalculated:      true,
		AffectedIncidents: affected,
		OldRoute:          route,
		NewRoute:          &routes[0],
	}, nil
}
