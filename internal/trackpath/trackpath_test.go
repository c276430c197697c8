package trackpath

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/crackmap-backend-go/internal/models"
	"github.com/jengzang/crackmap-backend-go/internal/spatial"
)

func at(hour int) *time.Time {
	t := time.Date(2024, 5, 1, hour, 0, 0, 0, time.UTC)
	return &t
}

func capture(name string, lat, lon float64, ts *time.Time) models.ImageCaptureRecord {
	return models.NewCaptureRecord(name, "/in/"+name, &models.Location{Latitude: lat, Longitude: lon}, ts)
}

func names(records []models.ImageCaptureRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ImageName
	}
	return out
}

func TestOrderCaptures_UndatedLast(t *testing.T) {
	in := []models.ImageCaptureRecord{
		capture("none", 1, 1, nil),
		capture("two", 2, 2, at(2)),
		capture("one", 3, 3, at(1)),
	}

	assert.Equal(t, []string{"one", "two", "none"}, names(OrderCaptures(in)))
	assert.Equal(t, []string{"none", "two", "one"}, names(in), "input must not be reordered")

	path := BuildPath(in)
	assert.Equal(t, Path{{Lat: 3, Lon: 3}, {Lat: 2, Lon: 2}, {Lat: 1, Lon: 1}}, path)
}

func TestOrderCaptures_StableForTies(t *testing.T) {
	in := []models.ImageCaptureRecord{
		capture("a", 0, 0, at(5)),
		capture("x", 0, 0, nil),
		capture("b", 0, 0, at(5)),
		capture("y", 0, 0, nil),
		capture("c", 0, 0, at(1)),
	}
	assert.Equal(t, []string{"c", "a", "b", "x", "y"}, names(OrderCaptures(in)))
}

func TestSequence(t *testing.T) {
	out := Sequence([]models.ImageCaptureRecord{capture("b", 0, 0, at(2)), capture("a", 0, 0, at(1))})
	assert.Equal(t, 1, out[0].Sequence)
	assert.Equal(t, "a", out[0].ImageName)
	assert.Equal(t, 2, out[1].Sequence)
}

func TestBuildPath_SkipsRecordsWithoutGPS(t *testing.T) {
	noGPS := models.NewCaptureRecord("nogps", "/in/nogps", nil, at(0))
	path := BuildPath([]models.ImageCaptureRecord{noGPS, capture("a", 37.5, 127.0, at(1))})

	require.Len(t, path, 1)
	assert.False(t, path.Drawable())
	assert.Equal(t, 0.0, path.LengthMeters())
}

func TestPath_Coordinates(t *testing.T) {
	p := Path{{Lat: 1, Lon: 2}, {Lat: 3, Lon: 4}}
	assert.True(t, p.Drawable())
	assert.Equal(t, [][2]float64{{1, 2}, {3, 4}}, p.Coordinates())
	assert.Greater(t, p.LengthMeters(), 0.0)
}

func TestBuildCaptureMarkers(t *testing.T) {
	markers := BuildCaptureMarkers([]models.ImageCaptureRecord{
		capture("late", 1, 1, nil),
		models.NewCaptureRecord("nogps", "", nil, nil),
		capture("early", 2, 2, at(9)),
	})

	require.Len(t, markers, 2)
	assert.Equal(t, "early", markers[0].ImageName)
	assert.Equal(t, "2024-05-01T09:00:00", markers[0].Timestamp)
	assert.Equal(t, "", markers[1].Timestamp)
}

func TestBuildDamageMarkers_KeepsInputOrder(t *testing.T) {
	records := []models.ImageDamageRecord{
		{ImageName: "b.jpg", Latitude: 2, Longitude: 3, CrackCount: 1},
		{ImageName: "a.jpg", Latitude: 4, Longitude: 5, CrackCount: 2},
	}
	markers := BuildDamageMarkers(records)

	require.Len(t, markers, 2)
	assert.Equal(t, spatial.Point{Lat: 2, Lon: 3}, markers[0].Position)
	assert.Equal(t, "a.jpg", markers[1].Record.ImageName)
}
