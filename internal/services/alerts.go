package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/supmap/navigation/internal/clients/notify"
	"github.com/supmap/navigation/internal/lib/dedup"
	"github.com/supmap/navigation/internal/lib/geo"
	"github.com/supmap/navigation/internal/lib/incident"
	"github.com/supmap/navigation/internal/lib/proximity"
)

// ErrInvalidPosition is returned when a reported position is outside
// valid coordinate ranges.
var ErrInvalidPosition = errors.New("invalid position")

// IncidentLister fetches incidents from the incident store.
type IncidentLister interface {
	ListPending(ctx context.Context, token string) ([]incident.Incident, error)
	ListActive(ctx context.Context, token string) ([]incident.Incident, error)
}

// Notifier delivers notifications to the notification sink.
type Notifier interface {
	NotifyContribute(ctx context.Context, token string, userID int64, message string, payload notify.Payload) error
	NotifyRecalculate(ctx context.Context, token string, userID int64, message string, payload notify.Payload) error
}

const (
	contributeMessage  = "An incident was reported nearby. Can you confirm it?"
	recalculateMessage = "An incident is on your route. Do you want to recalculate your itinerary?"
)

// AlertService correlates user positions with nearby incidents and
// emits at-most-once notifications per user/incident pair.
type AlertService struct {
	incidents    IncidentLister
	notifier     Notifier
	sent         dedup.Store
	radiusMeters float64
}

// NewAlertService creates an alert service. radiusMeters <= 0 falls back
// to the default proximity radius.
func NewAlertService(incidents IncidentLister, notifier Notifier, sent dedup.Store, radiusMeters float64) *AlertService {
	if radiusMeters <= 0 {
		radiusMeters = proximity.DefaultRadiusMeters
	}
	return &AlertService{
		incidents:    incidents,
		notifier:     notifier,
		sent:         sent,
		radiusMeters: radiusMeters,
	}
}

// AlertResult reports what a position update resolved to.
type AlertResult struct {
	Notified   bool             `json:"notified"`
	IncidentID int64            `json:"incident_id,omitempty"`
	Distance   float64          `json:"distance,omitempty"`
	Type       incident.Type    `json:"type,omitempty"`
	Reason     string           `json:"reason,omitempty"`
	Match      *proximity.Match `json:"-"`
}

// HandlePositionUpdate processes a location report: it finds the nearest
// pending incident within the proximity radius and asks the user to
// confirm it, at most once per user/incident pair.
func (s *AlertService) HandlePositionUpdate(ctx context.Context, token string, userID int64, pos geo.Point) (AlertResult, error) {
	if !geo.IsValid(pos) {
		return AlertResult{}, fmt.Errorf("%w: lat=%f lng=%f", ErrInvalidPosition, pos.Lat, pos.Lng)
	}

	pending, err := s.incidents.ListPending(ctx, token)
	if err != nil {
		return AlertResult{}, fmt.Errorf("failed to list pending incidents: %w", err)
	}

	match, ok := proximity.Nearest(pos, pending, s.radiusMeters)
	if !ok {
		return AlertResult{Reason: "no incident nearby"}, nil
	}

	key := dedup.ProximityKey(userID, match.Incident.ID)
	if !s.sent.CheckAndMark(key) {
		return AlertResult{Reason: "already notified", IncidentID: match.Incident.ID}, nil
	}

	payload := notify.Payload{IncidentID: match.Incident.ID, Distance: match.Distance}
	if err := s.notifier.NotifyContribute(ctx, token, userID, contributeMessage, payload); err != nil {
		zap.L().Warn("contribution notification failed",
			zap.Int64("user_id", userID),
			zap.Int64("incident_id", match.Incident.ID),
			zap.Error(err))
		return AlertResult{Reason: "notification failed", IncidentID: match.Incident.ID}, nil
	}

	return AlertResult{
		Notified:   true,
		IncidentID: match.Incident.ID,
		Distance:   match.Distance,
		Type:       match.Incident.Type,
		Match:      &match,
	}, nil
}

// HandleRecalculationAlert processes a position report tied to an active
// itinerary: when an active incident is within the proximity radius it
// suggests a recalculation, at most once per user/itinerary/incident.
func (s *AlertService) HandleRecalculationAlert(ctx context.Context, token string, userID, itineraryID int64, pos geo.Point) (AlertResult, error) {
	if !geo.IsValid(pos) {
		return AlertResult{}, fmt.Errorf("%w: lat=%f lng=%f", ErrInvalidPosition, pos.Lat, pos.Lng)
	}

	active, err := s.incidents.ListActive(ctx, token)
	if err != nil {
		return AlertResult{}, fmt.Errorf("failed to list active incidents: %w", err)
	}

	match, ok := proximity.Nearest(pos, active, s.radiusMeters)
	if !ok {
		return AlertResult{Reason: "no incident nearby"}, nil
	}

	key := dedup.RecalculationKey(userID, itineraryID, match.Incident.ID)
	if !s.sent.CheckAndMark(key) {
		return AlertResult{Reason: "already notified", IncidentID: match.Incident.ID}, nil
	}

	payload := notify.Payload{IncidentID: match.Incident.ID, ItineraryID: itineraryID, Distance: match.Distance}
	if err := s.notifier.NotifyRecalculate(ctx, token, userID, recalculateMessage, payload); err != nil {
		zap.L().Warn("recalculation notification failed",
			zap.Int64("user_id", userID),
			zap.Int64("itinerary_id", itineraryID),
			zap.Int64("incident_id", match.Incident.ID),
			zap.Error(err))
		return AlertResult{Reason: "notification failed", IncidentID: match.Incident.ID}, nil
	}

	return AlertResult{
		Notified:   true,
		IncidentID: match.Incident.ID,
		Distance:   match.Distance,
		Type:       match.Incident.Type,
		Match:      &match,
	}, nil
}
