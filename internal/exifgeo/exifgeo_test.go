package exifgeo

import (
	"bytes"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTags struct {
	rats  map[exif.FieldName][]float64
	texts map[exif.FieldName]string
}

func (f fakeTags) rationals(name exif.FieldName, n int) ([]float64, bool) {
	v, ok := f.rats[name]
	if !ok || len(v) < n {
		return nil, false
	}
	return v[:n], true
}

func (f fakeTags) text(name exif.FieldName) (string, bool) {
	v, ok := f.texts[name]
	return v, ok
}

func TestDMSToDecimal(t *testing.T) {
	tests := []struct {
		d, m, s float64
		ref     string
		want    float64
	}{
		{37, 33, 59.4, "N", 37.5665},
		{126, 58, 40.8, "E", 126.978},
		{33, 52, 4, "S", -(33 + 52.0/60 + 4.0/3600)},
		{118, 14, 37.2, "W", -118.2436666},
		{10, 30, 0, " w ", -10.5},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, DMSToDecimal(tt.d, tt.m, tt.s, tt.ref), 1e-6)
	}
}

func TestFromTags_FullGeotag(t *testing.T) {
	g := fromTags(fakeTags{
		rats: map[exif.FieldName][]float64{
			exif.GPSLatitude:  {37, 33, 59.4},
			exif.GPSLongitude: {126, 58, 40.8},
		},
		texts: map[exif.FieldName]string{
			exif.GPSLatitudeRef:  "N",
			exif.GPSLongitudeRef: "E",
			exif.DateTime:        "2023:10:15 14:30:00",
		},
	})

	require.True(t, g.HasGPS)
	assert.InDelta(t, 37.5665, g.Latitude, 1e-6)
	assert.InDelta(t, 126.978, g.Longitude, 1e-6)
	require.NotNil(t, g.Timestamp)
	assert.Equal(t, time.Date(2023, 10, 15, 14, 30, 0, 0, time.UTC), *g.Timestamp)

	loc := g.Location()
	require.NotNil(t, loc)
	assert.Equal(t, g.Timestamp, loc.Timestamp)
}

func TestFromTags_LatitudeWithoutLongitudeIsNoGPS(t *testing.T) {
	g := fromTags(fakeTags{
		rats:  map[exif.FieldName][]float64{exif.GPSLatitude: {37, 0, 0}},
		texts: map[exif.FieldName]string{exif.GPSLatitudeRef: "N"},
	})
	assert.False(t, g.HasGPS)
	assert.Nil(t, g.Location())
}

func TestFromTags_MissingRefIsNoGPS(t *testing.T) {
	g := fromTags(fakeTags{
		rats: map[exif.FieldName][]float64{
			exif.GPSLatitude:  {37, 0, 0},
			exif.GPSLongitude: {127, 0, 0},
		},
		texts: map[exif.FieldName]string{exif.GPSLatitudeRef: "N"},
	})
	assert.False(t, g.HasGPS)
}

func TestParseTimestamp_FirstParseableFieldWins(t *testing.T) {
	fields := map[exif.FieldName]string{
		exif.DateTime:          "not a date",
		exif.DateTimeOriginal:  "2024:01:02 03:04:05",
		exif.DateTimeDigitized: "2025:01:01 00:00:00",
	}
	lookup := func(name exif.FieldName) (string, bool) {
		v, ok := fields[name]
		return v, ok
	}

	ts := ParseTimestamp(lookup)
	require.NotNil(t, ts)
	assert.Equal(t, 2024, ts.Year())
	assert.Equal(t, 5, ts.Second())
}

func TestParseTimestamp_NoneParse(t *testing.T) {
	lookup := func(exif.FieldName) (string, bool) { return "2024-01-02T03:04:05", true }
	assert.Nil(t, ParseTimestamp(lookup))
}

func TestDecode_ImageWithoutExif(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))))

	_, err := Decode(&buf)
	assert.Error(t, err)
}
