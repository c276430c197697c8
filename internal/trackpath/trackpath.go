// Package trackpath orders capture records into the travel path and lays out
// the map markers for captures and detected damage.
package trackpath

import (
	"slices"

	"github.com/jengzang/crackmap-backend-go/internal/models"
	"github.com/jengzang/crackmap-backend-go/internal/spatial"
)

// MinDrawablePoints is the smallest path that shows a direction of travel
const MinDrawablePoints = 2

// Path is the time-ordered sequence of capture positions
type Path []spatial.Point

// Drawable reports whether the path has enough points for a polyline
func (p Path) Drawable() bool {
	return len(p) >= MinDrawablePoints
}

// LengthMeters returns the great-circle length of the path
func (p Path) LengthMeters() float64 {
	return spatial.PathLength(p)
}

// Coordinates returns the path as [lat, lon] pairs
func (p Path) Coordinates() [][2]float64 {
	coords := make([][2]float64, len(p))
	for i, pt := range p {
		coords[i] = pt.LatLng()
	}
	return coords
}

// compareCaptureTime orders by timestamp ascending, undated records last
func compareCaptureTime(a, b models.ImageCaptureRecord) int {
	switch {
	case a.Timestamp == nil && b.Timestamp == nil:
		return 0
	case a.Timestamp == nil:
		return 1
	case b.Timestamp == nil:
		return -1
	}
	return a.Timestamp.Compare(*b.Timestamp)
}

// OrderCaptures returns a chronologically sorted copy of the records.
// Records without a timestamp follow all dated ones; equal keys keep scan order.
func OrderCaptures(records []models.ImageCaptureRecord) []models.ImageCaptureRecord {
	ordered := slices.Clone(records)
	slices.SortStableFunc(ordered, compareCaptureTime)
	return ordered
}

// Sequence orders the records and assigns 1-based sequence numbers
func Sequence(records []models.ImageCaptureRecord) []models.ImageCaptureRecord {
	ordered := OrderCaptures(records)
	for i := range ordered {
		ordered[i].Sequence = i + 1
	}
	return ordered
}

// BuildPath returns the positions of GPS-tagged captures in travel order
func BuildPath(records []models.ImageCaptureRecord) Path {
	ordered := OrderCaptures(records)
	path := make(Path, 0, len(ordered))
	for _, r := range ordered {
		if !r.HasGPS {
			continue
		}
		path = append(path, spatial.Point{Lat: r.Latitude, Lon: r.Longitude})
	}
	return path
}

// CaptureMarker is a lightweight position indicator for one capture
type CaptureMarker struct {
	Position  spatial.Point
	ImageName string
	Timestamp string // empty when unknown
}

// BuildCaptureMarkers returns a marker per GPS-tagged capture in travel order
func BuildCaptureMarkers(records []models.ImageCaptureRecord) []CaptureMarker {
	ordered := OrderCaptures(records)
	markers := make([]CaptureMarker, 0, len(ordered))
	for _, r := range ordered {
		if !r.HasGPS {
			continue
		}
		m := CaptureMarker{
			Position:  spatial.Point{Lat: r.Latitude, Lon: r.Longitude},
			ImageName: r.ImageName,
		}
		if r.Timestamp != nil {
			m.Timestamp = r.Timestamp.Format(models.TimestampLayout)
		}
		markers = append(markers, m)
	}
	return markers
}

// DamageMarker places one damage record on the map. Its popup is derived
// from the record alone, so markers need no ordering.
type DamageMarker struct {
	Position spatial.Point
	Record   models.ImageDamageRecord
}

// BuildDamageMarkers returns one marker per damage record, in input order
func BuildDamageMarkers(records []models.ImageDamageRecord) []DamageMarker {
	markers := make([]DamageMarker, len(records))
	for i, r := range records {
		markers[i] = DamageMarker{
			Position: spatial.Point{Lat: r.Latitude, Lon: r.Longitude},
			Record:   r,
		}
	}
	return markers
}
