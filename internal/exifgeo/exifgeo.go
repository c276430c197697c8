// Package exifgeo reads the GPS position and capture time embedded in image EXIF tags.
package exifgeo

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/jengzang/crackmap-backend-go/internal/models"
)

// DateTimeLayout is the EXIF datetime form (YYYY:MM:DD HH:MM:SS)
const DateTimeLayout = "2006:01:02 15:04:05"

// timestampFields are tried in order; the first one that parses wins
var timestampFields = []exif.FieldName{
	exif.DateTime,
	exif.DateTimeOriginal,
	exif.DateTimeDigitized,
}

// Geotag is the geolocation data embedded in a single image
type Geotag struct {
	Latitude  float64
	Longitude float64
	HasGPS    bool
	Timestamp *time.Time
}

// Location returns the GPS position with the capture time, or nil when the image has no GPS tags
func (g Geotag) Location() *models.Location {
	if !g.HasGPS {
		return nil
	}
	return &models.Location{Latitude: g.Latitude, Longitude: g.Longitude, Timestamp: g.Timestamp}
}

// tagReader abstracts the EXIF fields needed for geolocation
type tagReader interface {
	rationals(name exif.FieldName, n int) ([]float64, bool)
	text(name exif.FieldName) (string, bool)
}

// ReadFile decodes the EXIF block of an image file
func ReadFile(path string) (Geotag, error) {
	f, err := os.Open(path)
	if err != nil {
		return Geotag{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode reads geolocation tags from an EXIF-bearing image stream.
// Missing GPS or datetime tags are not errors; only an unreadable EXIF block is.
func Decode(r io.Reader) (Geotag, error) {
	x, err := exif.Decode(r)
	if err != nil {
		return Geotag{}, fmt.Errorf("failed to decode exif: %w", err)
	}
	return fromTags(exifTags{x: x}), nil
}

func fromTags(tags tagReader) Geotag {
	var g Geotag

	lat, latOK := coordinate(tags, exif.GPSLatitude, exif.GPSLatitudeRef)
	lon, lonOK := coordinate(tags, exif.GPSLongitude, exif.GPSLongitudeRef)
	if latOK && lonOK {
		g.Latitude = lat
		g.Longitude = lon
		g.HasGPS = true
	}

	g.Timestamp = ParseTimestamp(tags.text)
	return g
}

func coordinate(tags tagReader, valueField, refField exif.FieldName) (float64, bool) {
	dms, ok := tags.rationals(valueField, 3)
	if !ok {
		return 0, false
	}
	ref, ok := tags.text(refField)
	if !ok {
		return 0, false
	}
	return DMSToDecimal(dms[0], dms[1], dms[2], ref), true
}

// DMSToDecimal converts degrees/minutes/seconds to signed decimal degrees.
// South and West references negate the result.
func DMSToDecimal(degrees, minutes, seconds float64, ref string) float64 {
	decimal := degrees + minutes/60.0 + seconds/3600.0
	switch strings.ToUpper(strings.TrimSpace(ref)) {
	case "S", "W":
		return -decimal
	}
	return decimal
}

// ParseTimestamp returns the first datetime field that parses, or nil
func ParseTimestamp(lookup func(exif.FieldName) (string, bool)) *time.Time {
	for _, field := range timestampFields {
		raw, ok := lookup(field)
		if !ok {
			continue
		}
		ts, err := time.Parse(DateTimeLayout, strings.TrimSpace(raw))
		if err != nil {
			continue
		}
		return &ts
	}
	return nil
}

type exifTags struct {
	x *exif.Exif
}

func (t exifTags) rationals(name exif.FieldName, n int) ([]float64, bool) {
	tag, err := t.x.Get(name)
	if err != nil {
		return nil, false
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		num, den, err := tag.Rat2(i)
		if err != nil || den == 0 {
			return nil, false
		}
		out[i] = float64(num) / float64(den)
	}
	return out, true
}

func (t exifTags) text(name exif.FieldName) (string, bool) {
	tag, err := t.x.Get(name)
	if err != nil {
		return "", false
	}
	s, err := tag.StringVal()
	if err != nil {
		return "", false
	}
	s = strings.TrimRight(s, "\x00")
	if s == "" {
		return "", false
	}
	return s, true
}
