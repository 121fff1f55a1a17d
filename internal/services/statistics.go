package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/supmap/navigation/internal/cache"
	"github.com/supmap/navigation/internal/config"
	"github.com/supmap/navigation/internal/lib/congestion"
	"github.com/supmap/navigation/internal/lib/geo"
	"github.com/supmap/navigation/internal/lib/incident"
	"github.com/supmap/navigation/internal/store"
)

// TrafficIncidentSource reads incident statistics from the statistics store.
type TrafficIncidentSource interface {
	TrafficIncidents(ctx context.Context) ([]incident.Incident, error)
	IncidentsPerDay(ctx context.Context) ([]store.DailyCount, error)
}

// StatisticsService computes recurring congestion periods from stored
// traffic incidents, with a per-zone snapshot refreshed in the background.
type StatisticsService struct {
	source TrafficIncidentSource
	cache  *cache.Cache
	cfg    config.StatisticsConfig

	stopChan chan struct{}
	running  atomic.Bool
}

// NewStatisticsService creates a statistics service.
func NewStatisticsService(source TrafficIncidentSource, c *cache.Cache, cfg config.StatisticsConfig) *StatisticsService {
	return &StatisticsService{
		source:   source,
		cache:    c,
		cfg:      cfg,
		stopChan: make(chan struct{}),
	}
}

// CongestionPeriods aggregates the stored traffic incidents around center
// into time-of-day buckets and keeps the ones at or above minCount.
func (s *StatisticsService) CongestionPeriods(ctx context.Context, center geo.Point, radiusMeters float64, width time.Duration, minCount int) ([]congestion.Bucket, error) {
	if s.source == nil {
		return nil, errors.New("statistics store not configured")
	}
	if radiusMeters <= 0 {
		radiusMeters = s.cfg.DefaultRadius
	}
	if minCount <= 0 {
		minCount = s.cfg.DefaultThreshold
	}

	incidents, err := s.source.TrafficIncidents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read traffic incidents: %w", err)
	}

	buckets, err := congestion.Aggregate(incidents, center, radiusMeters, width, minCount)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate congestion periods: %w", err)
	}
	return buckets, nil
}

// IncidentsPerDay returns the per-day incident report counts, all types
// included.
func (s *StatisticsService) IncidentsPerDay(ctx context.Context) ([]store.DailyCount, error) {
	if s.source == nil {
		return nil, errors.New("statistics store not configured")
	}
	counts, err := s.source.IncidentsPerDay(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read daily incident counts: %w", err)
	}
	return counts, nil
}

// ZoneSnapshot is a cached congestion snapshot for a configured zone.
type ZoneSnapshot struct {
	ZoneID      string              `json:"zone_id"`
	ZoneName    string              `json:"zone_name"`
	Center      geo.Point           `json:"center"`
	Hourly      []congestion.Bucket `json:"hourly"`
	HalfHourly  []congestion.Bucket `json:"half_hourly"`
	RefreshedAt time.Time           `json:"refreshed_at"`
}

func zoneCacheKey(zoneID string) string {
	return "congestion:zone:" + zoneID
}

// Snapshot returns the cached snapshot for a zone, if present and fresh.
func (s *StatisticsService) Snapshot(zoneID string) (ZoneSnapshot, bool, error) {
	var snap ZoneSnapshot
	found, err := s.cache.Get(zoneCacheKey(zoneID), &snap)
	if err != nil {
		return ZoneSnapshot{}, false, fmt.Errorf("failed to read zone snapshot: %w", err)
	}
	return snap, found, nil
}

// StartPeriodicRefresh begins the background per-zone snapshot refresh.
func (s *StatisticsService) StartPeriodicRefresh(ctx context.Context) {
	if s.source == nil || len(s.cfg.Zones) == 0 {
		return
	}
	if !s.running.CompareAndSwap(false, true) {
		return
	}

	zap.L().Info("starting congestion snapshot refresh",
		zap.Duration("interval", s.cfg.RefreshInterval),
		zap.Int("zones", len(s.cfg.Zones)))

	go s.refreshLoop(ctx)
}

// Stop gracefully stops the periodic refresh.
func (s *StatisticsService) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	close(s.stopChan)
}

// IsRunning reports whether the background refresh is active.
func (s *StatisticsService) IsRunning() bool {
	return s.running.Load()
}

func (s *StatisticsService) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RefreshInterval)
	defer ticker.Stop()

	s.refreshZones(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.refreshZones(ctx)
		}
	}
}

func (s *StatisticsService) refreshZones(ctx context.Context) {
	refreshCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	incidents, err := s.source.TrafficIncidents(refreshCtx)
	if err != nil {
		zap.L().Warn("congestion snapshot refresh failed", zap.Error(err))
		return
	}

	now := time.Now().UTC()
	for _, zone := range s.cfg.Zones {
		center := geo.Point{Lat: zone.Lat, Lng: zone.Lng}

		hourly, err := congestion.Aggregate(incidents, center, zone.RadiusMeters, congestion.WindowHour, s.cfg.DefaultThreshold)
		if err != nil {
			zap.L().Warn("zone aggregation failed", zap.String("zone", zone.ID), zap.Error(err))
			continue
		}
		halfHourly, err := congestion.Aggregate(incidents, center, zone.RadiusMeters, congestion.WindowHalfHour, s.cfg.DefaultThreshold)
		if err != nil {
			zap.L().Warn("zone aggregation failed", zap.String("zone", zone.ID), zap.Error(err))
			continue
		}

		snap := ZoneSnapshot{
			ZoneID:      zone.ID,
			ZoneName:    zone.Name,
			Center:      center,
			Hourly:      hourly,
			HalfHourly:  halfHourly,
			RefreshedAt: now,
		}
		if err := s.cache.Set(zoneCacheKey(zone.ID), snap, s.cfg.SnapshotTTL); err != nil {
			zap.L().Warn("zone snapshot cache write failed", zap.String("zone", zone.ID), zap.Error(err))
		}
	}
}
