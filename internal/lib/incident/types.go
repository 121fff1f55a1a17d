package incident

import (
	"time"

	"github.com/supmap/navigation/internal/lib/geo"
)

// Type classifies a reported road condition.
type Type string

const (
	TypeAccident Type = "accident"
	TypeTraffic  Type = "traffic"
	TypeClosed   Type = "closed"
	TypePolice   Type = "police"
	TypeObstacle Type = "obstacle"
)

// Status is the incident lifecycle: pending -> active -> resolved.
type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusResolved Status = "resolved"
)

// Incident is a read-only snapshot of a reported incident. The incident
// store owns the record and its lifecycle; everything in this module
// consumes snapshots fetched per operation and never mutates them.
type Incident struct {
	ID         int64     `json:"id"`
	Type       Type      `json:"type"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Status     Status    `json:"status"`
	ReporterID int64     `json:"user_id"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Location returns the incident position as a geo point.
func (i Incident) Location() geo.Point {
	return geo.Point{Lat: i.Latitude, Lng: i.Longitude}
}
