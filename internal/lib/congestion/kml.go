package congestion

import (
	"fmt"
	"io"
	"time"

	"github.com/twpayne/go-kml/v2"

	"github.com/supmap/navigation/internal/lib/geo"
)

// WriteKML renders congestion buckets as KML placemarks at the zone
// center, one per period, for inspection in a map viewer.
func WriteKML(w io.Writer, name string, center geo.Point, buckets []Bucket) error {
	children := []kml.Element{kml.Name(name)}

	for _, b := range buckets {
		children = append(children, kml.Placemark(
			kml.Name(b.PeriodStart.Format(time.RFC3339)),
			kml.Description(fmt.Sprintf("%d traffic incidents", b.Count)),
			kml.TimeStamp(kml.When(b.PeriodStart)),
			kml.Point(
				kml.Coordinates(kml.Coordinate{Lon: center.Lng, Lat: center.Lat}),
			),
		))
	}

	return kml.KML(kml.Document(children...)).WriteIndent(w, "", "  ")
}
