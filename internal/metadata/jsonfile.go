package metadata

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jengzang/crackmap-backend-go/internal/models"
)

// captureJSON is the interchange form of a capture record. Missing values are null.
type captureJSON struct {
	Sequence     int      `json:"sequence"`
	ImageName    string   `json:"image_name"`
	ImagePath    string   `json:"image_path,omitempty"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Timestamp    *string  `json:"timestamp"`
	HasGPS       bool     `json:"has_gps"`
	HasTimestamp bool     `json:"has_timestamp"`
}

func toJSON(r models.ImageCaptureRecord) captureJSON {
	out := captureJSON{
		Sequence:     r.Sequence,
		ImageName:    r.ImageName,
		ImagePath:    r.ImagePath,
		HasGPS:       r.HasGPS,
		HasTimestamp: r.HasTimestamp,
	}
	if r.HasGPS {
		lat, lon := r.Latitude, r.Longitude
		out.Latitude = &lat
		out.Longitude = &lon
	}
	if r.Timestamp != nil {
		s := models.FormatTimestamp(r.Timestamp)
		out.Timestamp = &s
	}
	return out
}

func fromJSON(c captureJSON) models.ImageCaptureRecord {
	var loc *models.Location
	if c.HasGPS && c.Latitude != nil && c.Longitude != nil {
		loc = &models.Location{Latitude: *c.Latitude, Longitude: *c.Longitude}
	}

	var ts *time.Time
	if c.Timestamp != nil {
		// An unparseable timestamp is treated as absent
		ts, _ = models.ParseTimestamp(*c.Timestamp)
	}

	rec := models.NewCaptureRecord(c.ImageName, c.ImagePath, loc, ts)
	rec.Sequence = c.Sequence
	return rec
}

// ReadJSON decodes capture records from a JSON array
func ReadJSON(r io.Reader) ([]models.ImageCaptureRecord, error) {
	var raw []captureJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode capture metadata: %w", err)
	}

	records := make([]models.ImageCaptureRecord, len(raw))
	for i, c := range raw {
		records[i] = fromJSON(c)
	}
	return records, nil
}

// LoadJSON reads capture records from a JSON file
func LoadJSON(path string) ([]models.ImageCaptureRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture metadata: %w", err)
	}
	defer f.Close()

	return ReadJSON(f)
}

// WriteJSON encodes capture records as an indented JSON array
func WriteJSON(w io.Writer, records []models.ImageCaptureRecord) error {
	out := make([]captureJSON, len(records))
	for i, r := range records {
		out[i] = toJSON(r)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode capture metadata: %w", err)
	}
	return nil
}

// SaveJSON writes capture records to a JSON file, creating its directory
func SaveJSON(path string, records []models.ImageCaptureRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create capture metadata directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create capture metadata file: %w", err)
	}

	if err := WriteJSON(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
