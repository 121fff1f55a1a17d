// Package store reads the durable statistics tables written by the
// aggregation collaborator.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/supmap/navigation/internal/lib/incident"
)

const queryTimeout = 5 * time.Second

// Querier is the subset of pgxpool.Pool the store needs; pgxmock
// implements it for tests.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// StatisticsStore queries incident snapshots from the incident_statistics
// table. The table is owned and written by the statistics collaborator;
// this store only reads it.
type StatisticsStore struct {
	db Querier
}

// NewStatisticsStore creates a statistics reader over the given pool.
func NewStatisticsStore(db Querier) *StatisticsStore {
	return &StatisticsStore{db: db}
}

// TrafficIncidents returns all traffic-type incident snapshots, the input
// for congestion aggregation.
func (s *StatisticsStore) TrafficIncidents(ctx context.Context) ([]incident.Incident, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.db.Query(ctx, `
		SELECT incident_id, type, status, created_at, latitude, longitude
		FROM incident_statistics
		WHERE type = 'traffic'`)
	if err != nil {
		return nil, fmt.Errorf("failed to query incident statistics: %w", err)
	}
	defer rows.Close()

	var incidents []incident.Incident
	for rows.Next() {
		var (
			inc       incident.Incident
			typ       string
			status    string
			createdAt time.Time
		)
		if err := rows.Scan(&inc.ID, &typ, &status, &createdAt, &inc.Latitude, &inc.Longitude); err != nil {
			return nil, fmt.Errorf("failed to scan incident statistic: %w", err)
		}
		inc.Type = incident.Type(typ)
		inc.Status = incident.Status(status)
		inc.CreatedAt = createdAt
		incidents = append(incidents, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read incident statistics: %w", err)
	}

	return incidents, nil
}

// DailyCount is the number of incidents reported on a given day.
type DailyCount struct {
	Date  time.Time `json:"report_date"`
	Count int64     `json:"incident_count"`
}

// IncidentsPerDay returns the per-day incident report counts, all types
// included, in date order.
func (s *StatisticsStore) IncidentsPerDay(ctx context.Context) ([]DailyCount, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.db.Query(ctx, `
		SELECT DATE(created_at) AS report_date, COUNT(*) AS incident_count
		FROM incident_statistics
		GROUP BY report_date
		ORDER BY report_date`)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily incident counts: %w", err)
	}
	defer rows.Close()

	var counts []DailyCount
	for rows.Next() {
		var dc DailyCount
		if err := rows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan daily incident count: %w", err)
		}
		counts = append(counts, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read daily incident counts: %w", err)
	}

	return counts, nil
}
