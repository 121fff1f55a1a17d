package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/supmap/navigation/internal/cache"
	"github.com/supmap/navigation/internal/clients/google"
	"github.com/supmap/navigation/internal/clients/incidents"
	"github.com/supmap/navigation/internal/clients/itineraries"
	"github.com/supmap/navigation/internal/clients/notify"
	"github.com/supmap/navigation/internal/config"
	"github.com/supmap/navigation/internal/handlers"
	"github.com/supmap/navigation/internal/lib/dedup"
	"github.com/supmap/navigation/internal/services"
	"github.com/supmap/navigation/internal/store"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err := config.InitLogger(cfg.Log); err != nil {
		return err
	}
	defer zap.L().Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	incidentClient := incidents.NewClient(cfg.Collaborators.IncidentStoreURL)
	itineraryClient := itineraries.NewClient(cfg.Collaborators.ItineraryStoreURL)
	notifyClient := notify.NewClient(cfg.Collaborators.NotificationSinkURL)
	googleClient := google.NewClient(cfg.Collaborators.GoogleAPIKey)

	snapshotCache := cache.New()
	snapshotCache.StartPeriodicCleanup(ctx, time.Minute)

	alerts := services.NewAlertService(incidentClient, notifyClient, dedup.NewMemoryStore(), cfg.Engine.ProximityRadiusMeters)
	recalc := services.NewRecalculationService(itineraryClient, incidentClient, googleClient, cfg.Engine.RouteToleranceMeters)

	var statistics *services.StatisticsService
	if cfg.Statistics.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.Statistics.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to statistics database: %w", err)
		}
		defer pool.Close()

		statistics = services.NewStatisticsService(store.NewStatisticsStore(pool), snapshotCache, cfg.Statistics)
		statistics.StartPeriodicRefresh(ctx)
		defer statistics.Stop()
	} else {
		zap.L().Warn("statistics database not configured, congestion endpoints disabled")
		statistics = services.NewStatisticsService(nil, snapshotCache, cfg.Statistics)
	}

	app := fiber.New(fiber.Config{
		AppName:      "supmap-navigation",
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: joinOrigins(cfg.Server.CorsOrigins),
	}))

	handlers.SetupRoutes(app, alerts, recalc, statistics)

	errChan := make(chan error, 1)
	go func() {
		zap.L().Info("server listening", zap.Int("port", cfg.Server.Port))
		errChan <- app.Listen(fmt.Sprintf(":%d", cfg.Server.Port))
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	zap.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}
	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

func joinOrigins(origins []string) string {
	return strings.Join(origins, ",")
}
