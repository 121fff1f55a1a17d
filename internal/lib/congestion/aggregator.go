package congestion

import (
	"fmt"
	"sort"
	"time"

	"github.com/supmap/navigation/internal/lib/geo"
	"github.com/supmap/navigation/internal/lib/incident"
)

// Supported bucket widths. The aggregation windows are fixed: on-the-hour
// buckets, or hour/half-hour boundary buckets for the 30-minute mode.
const (
	WindowHour     = time.Hour
	WindowHalfHour = 30 * time.Minute
)

// Bucket counts traffic incidents whose timestamps fall into one fixed
// time window. PeriodStart is the UTC start of the window.
type Bucket struct {
	PeriodStart time.Time `json:"period_start"`
	Count       int       `json:"traffic_incident_count"`
}

// Aggregate buckets traffic-type incidents around a center point into
// fixed-width UTC time windows and returns the windows whose count meets
// minCount, sorted ascending by window start.
//
// Each call is a fresh, stateless computation over the snapshot it is
// given; nothing carries over between runs.
func Aggregate(incidents []incident.Incident, center geo.Point, radiusMeters float64, width time.Duration, minCount int) ([]Bucket, error) {
	if width != WindowHour && width != WindowHalfHour {
		return nil, fmt.Errorf("unsupported bucket width %v: must be 30m or 1h", width)
	}

	counts := make(map[time.Time]int)
	for _, inc := range incidents {
		if inc.Type != incident.TypeTraffic {
			continue
		}
		if geo.Distance(center, inc.Location()) > radiusMeters {
			continue
		}
		// time.Truncate rounds down on absolute time, which lands exactly
		// on UTC hour and half-hour boundaries for the supported widths.
		counts[inc.CreatedAt.UTC().Truncate(width)]++
	}

	buckets := make([]Bucket, 0, len(counts))
	for start, n := range counts {
		if n >= minCount {
			buckets = append(buckets, Bucket{PeriodStart: start, Count: n})
		}
	}

	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].PeriodStart.Before(buckets[j].PeriodStart)
	})

	return buckets, nil
}
