package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supmap/navigation/internal/cache"
	"github.com/supmap/navigation/internal/config"
	"github.com/supmap/navigation/internal/lib/congestion"
	"github.com/supmap/navigation/internal/lib/geo"
	"github.com/supmap/navigation/internal/lib/incident"
	"github.com/supmap/navigation/internal/store"
)

type fakeIncidentSource struct {
	incidents []incident.Incident
	daily     []store.DailyCount
	err       error
	calls     int
}

func (f *fakeIncidentSource) TrafficIncidents(_ context.Context) ([]incident.Incident, error) {
	f.calls++
	return f.incidents, f.err
}

func (f *fakeIncidentSource) IncidentsPerDay(_ context.Context) ([]store.DailyCount, error) {
	return f.daily, f.err
}

func trafficIncident(id int64, lat, lng float64, at time.Time) incident.Incident {
	return incident.Incident{
		ID:        id,
		Type:      incident.TypeTraffic,
		Latitude:  lat,
		Longitude: lng,
		Status:    incident.StatusActive,
		CreatedAt: at,
	}
}

func statsConfig() config.StatisticsConfig {
	return config.StatisticsConfig{
		RefreshInterval:  time.Minute,
		SnapshotTTL:      2 * time.Minute,
		DefaultThreshold: 2,
		DefaultRadius:    1000,
	}
}

func TestCongestionPeriods(t *testing.T) {
	at := time.Date(2025, 3, 10, 8, 12, 0, 0, time.UTC)
	source := &fakeIncidentSource{incidents: []incident.Incident{
		trafficIncident(1, 48.8566, 2.3522, at),
		trafficIncident(2, 48.8567, 2.3523, at.Add(10*time.Minute)),
		trafficIncident(3, 48.8565, 2.3521, at.Add(20*time.Minute)),
	}}
	svc := NewStatisticsService(source, cache.New(), statsConfig())

	buckets, err := svc.CongestionPeriods(context.Background(), geo.Point{Lat: 48.8566, Lng: 2.3522}, 500, congestion.WindowHour, 3)
	require.NoError(t, err)

	require.Len(t, buckets, 1)
	assert.Equal(t, time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC), buckets[0].PeriodStart)
	assert.Equal(t, 3, buckets[0].Count)
}

func TestCongestionPeriodsDefaultsApplied(t *testing.T) {
	at := time.Date(2025, 3, 10, 8, 12, 0, 0, time.UTC)
	source := &fakeIncidentSource{incidents: []incident.Incident{
		trafficIncident(1, 48.8566, 2.3522, at),
		trafficIncident(2, 48.8567, 2.3523, at),
	}}
	svc := NewStatisticsService(source, cache.New(), statsConfig())

	// radius and minCount of zero fall back to config defaults (1000m, 2).
	buckets, err := svc.CongestionPeriods(context.Background(), geo.Point{Lat: 48.8566, Lng: 2.3522}, 0, congestion.WindowHour, 0)
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	assert.Equal(t, 2, buckets[0].Count)
}

func TestCongestionPeriodsSourceError(t *testing.T) {
	source := &fakeIncidentSource{err: errors.New("db down")}
	svc := NewStatisticsService(source, cache.New(), statsConfig())

	_, err := svc.CongestionPeriods(context.Background(), geo.Point{}, 500, congestion.WindowHour, 1)
	assert.Error(t, err)
}

func TestCongestionPeriodsBadWindow(t *testing.T) {
	source := &fakeIncidentSource{}
	svc := NewStatisticsService(source, cache.New(), statsConfig())

	_, err := svc.CongestionPeriods(context.Background(), geo.Point{}, 500, 15*time.Minute, 1)
	assert.Error(t, err)
}

func TestRefreshZonesWritesSnapshots(t *testing.T) {
	at := time.Date(2025, 3, 10, 8, 12, 0, 0, time.UTC)
	source := &fakeIncidentSource{incidents: []incident.Incident{
		trafficIncident(1, 48.8566, 2.3522, at),
		trafficIncident(2, 48.8567, 2.3523, at),
	}}
	cfg := statsConfig()
	cfg.Zones = []config.Zone{{ID: "paris", Name: "Paris", Lat: 48.8566, Lng: 2.3522, RadiusMeters: 2000}}
	svc := NewStatisticsService(source, cache.New(), cfg)

	svc.refreshZones(context.Background())

	snap, found, err := svc.Snapshot("paris")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Paris", snap.ZoneName)
	require.Len(t, snap.Hourly, 1)
	assert.Equal(t, 2, snap.Hourly[0].Count)
	require.Len(t, snap.HalfHourly, 1)
	assert.Equal(t, 1, source.calls)
}

func TestSnapshotMissingZone(t *testing.T) {
	svc := NewStatisticsService(&fakeIncidentSource{}, cache.New(), statsConfig())

	_, found, err := svc.Snapshot("nowhere")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestIncidentsPerDay(t *testing.T) {
	day := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
	source := &fakeIncidentSource{daily: []store.DailyCount{{Date: day, Count: 4}}}
	svc := NewStatisticsService(source, cache.New(), statsConfig())

	counts, err := svc.IncidentsPerDay(context.Background())
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, int64(4), counts[0].Count)
}

func TestIncidentsPerDaySourceError(t *testing.T) {
	source := &fakeIncidentSource{err: errors.New("db down")}
	svc := NewStatisticsService(source, cache.New(), statsConfig())

	_, err := svc.IncidentsPerDay(context.Background())
	assert.Error(t, err)
}

func TestStartStopLifecycle(t *testing.T) {
	cfg := statsConfig()
	svc := NewStatisticsService(&fakeIncidentSource{}, cache.New(), cfg)

	// No zones configured: start is a no-op and stop stays safe.
	svc.StartPeriodicRefresh(context.Background())
	assert.False(t, svc.IsRunning())
	svc.Stop()

	cfg.Zones = []config.Zone{{ID: "paris", Lat: 48.8566, Lng: 2.3522, RadiusMeters: 2000}}
	svc = NewStatisticsService(&fakeIncidentSource{}, cache.New(), cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.StartPeriodicRefresh(ctx)
	assert.True(t, svc.IsRunning())
	svc.StartPeriodicRefresh(ctx)

	svc.Stop()
	assert.False(t, svc.IsRunning())
	svc.Stop()
}
