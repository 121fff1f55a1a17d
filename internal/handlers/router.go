package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/supmap/navigation/internal/services"
)

// SetupRoutes configures all HTTP routes.
func SetupRoutes(app *fiber.App, alerts *services.AlertService, recalc *services.RecalculationService, statistics *services.StatisticsService) {
	handler := NewHandler(alerts, recalc, statistics)

	app.Get("/health", handler.HealthCheck)

	app.Post("/location/update", handler.UpdateLocation)
	app.Post("/itinerary/notify-recalculate", handler.NotifyRecalculate)
	app.Post("/itineraries/:id/recalculate", handler.RecalculateItinerary)

	app.Get("/statistics/congestion-periods", handler.CongestionPeriods)
	app.Get("/statistics/incidents-per-day", handler.IncidentsPerDay)
	app.Get("/statistics/zones/:id", handler.CongestionZone)
}
