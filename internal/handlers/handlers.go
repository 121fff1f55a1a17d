// Package handlers exposes the navigation engine over HTTP.
package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/supmap/navigation/internal/clients/google"
	"github.com/supmap/navigation/internal/clients/itineraries"
	"github.com/supmap/navigation/internal/lib/congestion"
	"github.com/supmap/navigation/internal/lib/geo"
	"github.com/supmap/navigation/internal/services"
)

// Handler contains all HTTP handlers.
type Handler struct {
	alerts     *services.AlertService
	recalc     *services.RecalculationService
	statistics *services.StatisticsService
}

// NewHandler creates a new handler.
func NewHandler(alerts *services.AlertService, recalc *services.RecalculationService, statistics *services.StatisticsService) *Handler {
	return &Handler{
		alerts:     alerts,
		recalc:     recalc,
		statistics: statistics,
	}
}

const kmlContentType = "application/vnd.google-earth.kml+xml"

// bearerToken extracts the bearer token forwarded to collaborator services.
func bearerToken(c *fiber.Ctx) string {
	auth := c.Get(fiber.HeaderAuthorization)
	return strings.TrimPrefix(auth, "Bearer ")
}

// HealthCheck returns service health status.
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "supmap-navigation",
	})
}

type positionUpdateRequest struct {
	UserID    int64   `json:"userId"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// UpdateLocation correlates a reported position with nearby pending
// incidents and asks the user to confirm the closest one.
func (h *Handler) UpdateLocation(c *fiber.Ctx) error {
	var req positionUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.UserID <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "userId is required")
	}

	res, err := h.alerts.HandlePositionUpdate(c.Context(), bearerToken(c), req.UserID, geo.Point{Lat: req.Latitude, Lng: req.Longitude})
	if err != nil {
		if errors.Is(err, services.ErrInvalidPosition) {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid coordinates")
		}
		zap.L().Error("position update failed", zap.Int64("user_id", req.UserID), zap.Error(err))
		return fiber.NewError(fiber.StatusBadGateway, "Failed to check nearby incidents")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    res,
	})
}

type recalculationAlertRequest struct {
	UserID      int64   `json:"userId"`
	ItineraryID int64   `json:"itineraryId"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// NotifyRecalculate checks a position report against active incidents and
// suggests recalculating the itinerary when one is close by.
func (h *Handler) NotifyRecalculate(c *fiber.Ctx) error {
	var req recalculationAlertRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.UserID <= 0 || req.ItineraryID <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "userId and itineraryId are required")
	}

	res, err := h.alerts.HandleRecalculationAlert(c.Context(), bearerToken(c), req.UserID, req.ItineraryID, geo.Point{Lat: req.Latitude, Lng: req.Longitude})
	if err != nil {
		if errors.Is(err, services.ErrInvalidPosition) {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid coordinates")
		}
		zap.L().Error("recalculation alert failed", zap.Int64("user_id", req.UserID), zap.Error(err))
		return fiber.NewError(fiber.StatusBadGateway, "Failed to check nearby incidents")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    res,
	})
}

type recalculateRequest struct {
	CurrentPosition *struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"current_position"`
	NewEndLocation string `json:"new_end_location"`
}

// RecalculateItinerary re-routes a stored itinerary around active
// incidents, from the driver's current position when one is supplied.
func (h *Handler) RecalculateItinerary(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid itinerary id")
	}

	// The body is optional: without one the itinerary's own endpoints are used.
	var req recalculateRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
	}

	opts := services.RecalculateOptions{NewDestination: req.NewEndLocation}
	if req.CurrentPosition != nil {
		pos := geo.Point{Lat: req.CurrentPosition.Lat, Lng: req.CurrentPosition.Lng}
		if !geo.IsValid(pos) {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid coordinates")
		}
		opts.CurrentPosition = &pos
	}

	res, err := h.recalc.Recalculate(c.Context(), bearerToken(c), int64(id), opts)
	if err != nil {
		switch {
		case errors.Is(err, itineraries.ErrNotFound):
			return fiber.NewError(fiber.StatusNotFound, "Itinerary not found")
		case errors.Is(err, google.ErrNoRoute):
			return fiber.NewError(fiber.StatusUnprocessableEntity, "No alternative route found")
		default:
			zap.L().Error("recalculation failed", zap.Int("itinerary_id", id), zap.Error(err))
			return fiber.NewError(fiber.StatusBadGateway, "Failed to recalculate itinerary")
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    res,
	})
}

// CongestionPeriods returns the recurring congestion time buckets around a
// point, as JSON or KML.
func (h *Handler) CongestionPeriods(c *fiber.Ctx) error {
	if c.Query("lat") == "" || c.Query("lng") == "" {
		return fiber.NewError(fiber.StatusBadRequest, "lat and lng are required")
	}
	center := geo.Point{Lat: c.QueryFloat("lat"), Lng: c.QueryFloat("lng")}
	if !geo.IsValid(center) {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid coordinates")
	}

	width := congestion.WindowHour
	switch c.Query("window", "hour") {
	case "hour":
	case "30min":
		width = congestion.WindowHalfHour
	default:
		return fiber.NewError(fiber.StatusBadRequest, "window must be hour or 30min")
	}

	radius := c.QueryFloat("radius")
	threshold := c.QueryInt("threshold")

	buckets, err := h.statistics.CongestionPeriods(c.Context(), center, radius, width, threshold)
	if err != nil {
		zap.L().Error("congestion aggregation failed", zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to compute congestion periods")
	}

	if c.Query("format") == "kml" || strings.Contains(c.Get(fiber.HeaderAccept), kmlContentType) {
		c.Set(fiber.HeaderContentType, kmlContentType)
		return congestion.WriteKML(c.Response().BodyWriter(), "Congestion periods", center, buckets)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    buckets,
		"count":   len(buckets),
	})
}

// IncidentsPerDay returns the per-day incident report counts.
func (h *Handler) IncidentsPerDay(c *fiber.Ctx) error {
	counts, err := h.statistics.IncidentsPerDay(c.Context())
	if err != nil {
		zap.L().Error("daily incident count query failed", zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch daily incident counts")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    counts,
		"count":   len(counts),
	})
}

// CongestionZone returns the latest cached snapshot for a configured zone.
func (h *Handler) CongestionZone(c *fiber.Ctx) error {
	snap, found, err := h.statistics.Snapshot(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to read zone snapshot")
	}
	if !found {
		return fiber.NewError(fiber.StatusNotFound, "No snapshot for zone")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    snap,
	})
}
