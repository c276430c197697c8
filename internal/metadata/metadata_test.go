package metadata

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/crackmap-backend-go/internal/exifgeo"
	"github.com/jengzang/crackmap-backend-go/internal/models"
)

type staticResolver struct {
	name string
	loc  *models.Location
	err  error
}

func (s staticResolver) Name() string { return s.name }

func (s staticResolver) Resolve(string, string) (models.Location, error) {
	if s.err != nil {
		return models.Location{}, s.err
	}
	if s.loc == nil {
		return models.Location{}, ErrLocationNotFound
	}
	return *s.loc, nil
}

func fakeExif(tags map[string]exifgeo.Geotag) *ExifResolver {
	return &ExifResolver{read: func(path string) (exifgeo.Geotag, error) {
		g, ok := tags[filepath.Base(path)]
		if !ok {
			return exifgeo.Geotag{}, errors.New("exif: no exif data")
		}
		return g, nil
	}}
}

func TestChain_IndexPreferredOverExif(t *testing.T) {
	idx := NewIndex([]models.ImageCaptureRecord{
		models.NewCaptureRecord("a.jpg", "/in/a.jpg", &models.Location{Latitude: 37.1, Longitude: 127.1}, nil),
	})
	exif := fakeExif(map[string]exifgeo.Geotag{
		"a.jpg": {Latitude: 10, Longitude: 20, HasGPS: true},
	})

	loc, err := NewChain(nil, idx, exif).Resolve("a.jpg", "/in/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, 37.1, loc.Latitude)
	assert.Equal(t, 127.1, loc.Longitude)
}

func TestChain_FallsBackToExif(t *testing.T) {
	idx := NewIndex(nil)
	exif := fakeExif(map[string]exifgeo.Geotag{
		"b.jpg": {Latitude: -33.5, Longitude: 151.2, HasGPS: true},
	})

	loc, err := NewChain(nil, idx, exif).Resolve("b.jpg", "/in/b.jpg")
	require.NoError(t, err)
	assert.Equal(t, -33.5, loc.Latitude)
}

func TestChain_IndexEntryWithoutGPSFallsThrough(t *testing.T) {
	idx := NewIndex([]models.ImageCaptureRecord{models.NewCaptureRecord("c.jpg", "", nil, nil)})
	exif := fakeExif(map[string]exifgeo.Geotag{"c.jpg": {Latitude: 1, Longitude: 2, HasGPS: true}})

	loc, err := NewChain(nil, idx, exif).Resolve("c.jpg", "/in/c.jpg")
	require.NoError(t, err)
	assert.Equal(t, 1.0, loc.Latitude)
}

func TestChain_NotFound(t *testing.T) {
	chain := NewChain(nil,
		NewIndex(nil),
		staticResolver{name: "broken", err: errors.New("disk on fire")},
		fakeExif(map[string]exifgeo.Geotag{"d.jpg": {HasGPS: false}}),
	)

	_, err := chain.Resolve("d.jpg", "/in/d.jpg")
	assert.ErrorIs(t, err, ErrLocationNotFound)
	assert.Contains(t, err.Error(), "d.jpg")
}

func TestExifResolver_RejectsOutOfRange(t *testing.T) {
	exif := fakeExif(map[string]exifgeo.Geotag{"e.jpg": {Latitude: 95, Longitude: 20, HasGPS: true}})
	_, err := exif.Resolve("e.jpg", "/in/e.jpg")
	assert.ErrorIs(t, err, ErrLocationNotFound)
}

func TestChain_StopsAtFirstHit(t *testing.T) {
	chain := NewChain(nil,
		staticResolver{name: "first", loc: &models.Location{Latitude: 1}},
		staticResolver{name: "second", loc: &models.Location{Latitude: 2}},
	)
	loc, err := chain.Resolve("x", "x")
	require.NoError(t, err)
	assert.Equal(t, 1.0, loc.Latitude)
}

func TestJSON_RoundTripKeepsNulls(t *testing.T) {
	ts := time.Date(2023, 10, 15, 14, 30, 0, 0, time.UTC)
	in := []models.ImageCaptureRecord{
		models.NewCaptureRecord("a.jpg", "/in/a.jpg", &models.Location{Latitude: 37.5, Longitude: 127}, &ts),
		models.NewCaptureRecord("b.png", "/in/b.png", nil, nil),
	}
	in[0].Sequence, in[1].Sequence = 1, 2

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, in))
	assert.Contains(t, buf.String(), `"latitude": null`)
	assert.Contains(t, buf.String(), `"timestamp": "2023-10-15T14:30:00"`)

	out, err := ReadJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestReadJSON_OriginalFormat(t *testing.T) {
	doc := `[
	  {"sequence": 1, "image_name": "IMG_1.jpg", "latitude": 37.56, "longitude": 126.97,
	   "timestamp": "2023-10-15T14:30:00", "has_gps": true, "has_timestamp": true},
	  {"sequence": 2, "image_name": "IMG_2.jpg", "latitude": 37.0, "longitude": null,
	   "timestamp": "garbage", "has_gps": true, "has_timestamp": true}
	]`

	records, err := ReadJSON(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.True(t, records[0].HasGPS)
	assert.True(t, records[0].HasTimestamp)
	assert.False(t, records[1].HasGPS, "latitude without longitude is not a position")
	assert.False(t, records[1].HasTimestamp)
}

func TestJSON_OffsetTimestampsKeepInstant(t *testing.T) {
	doc := `[
	  {"sequence": 1, "image_name": "a.jpg", "latitude": 37.0, "longitude": 127.0,
	   "timestamp": "2024-01-02T10:00:00+09:00", "has_gps": true, "has_timestamp": true},
	  {"sequence": 2, "image_name": "b.jpg", "latitude": 37.1, "longitude": 127.1,
	   "timestamp": "2024-01-02T02:00:00.750Z", "has_gps": true, "has_timestamp": true}
	]`
	records, err := ReadJSON(strings.NewReader(doc))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "nested", "dir", "captures.json")
	require.NoError(t, SaveJSON(path, records))
	back, err := LoadJSON(path)
	require.NoError(t, err)
	require.Len(t, back, 2)

	assert.True(t, time.Date(2024, 1, 2, 1, 0, 0, 0, time.UTC).Equal(*back[0].Timestamp))
	assert.True(t, time.Date(2024, 1, 2, 2, 0, 0, 750_000_000, time.UTC).Equal(*back[1].Timestamp))
}

func TestReadJSON_Malformed(t *testing.T) {
	_, err := ReadJSON(strings.NewReader(`{"not": "an array"}`))
	assert.Error(t, err)
}

func TestExtractor_Extract(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"c.JPG", "a.jpg", "b.png", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.jpg"), 0o755))

	early := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	late := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	tags := map[string]exifgeo.Geotag{
		"a.jpg": {Latitude: 1, Longitude: 1, HasGPS: true, Timestamp: &late},
		"c.JPG": {Latitude: 2, Longitude: 2, HasGPS: true, Timestamp: &early},
	}

	e := NewExtractor(nil)
	e.read = fakeExif(tags).read

	records, summary, err := e.Extract(context.Background(), dir)
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, "c.JPG", records[0].ImageName)
	assert.Equal(t, "a.jpg", records[1].ImageName)
	assert.Equal(t, "b.png", records[2].ImageName)
	assert.Equal(t, 3, records[2].Sequence)
	assert.Equal(t, models.CaptureSummary{TotalImages: 3, WithGPS: 2, WithTimestamp: 2}, summary)
}

func TestExtractor_MissingDir(t *testing.T) {
	_, _, err := NewExtractor(nil).Extract(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
