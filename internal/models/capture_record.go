package models

import "time"

// TimestampLayout is the ISO-8601 form of a capture timestamp without zone
const TimestampLayout = "2006-01-02T15:04:05"

// Location is a resolved capture position with an optional timestamp
type Location struct {
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// ImageCaptureRecord is one entry per processed image, used for path reconstruction
type ImageCaptureRecord struct {
	ID           int64      `json:"id" db:"id"`
	RunID        string     `json:"runId,omitempty" db:"run_id"`
	Sequence     int        `json:"sequence" db:"sequence"`
	ImageName    string     `json:"imageName" db:"image_name"`
	ImagePath    string     `json:"imagePath" db:"image_path"`
	Latitude     float64    `json:"latitude" db:"latitude"`
	Longitude    float64    `json:"longitude" db:"longitude"`
	Timestamp    *time.Time `json:"timestamp,omitempty" db:"captured_at"`
	HasGPS       bool       `json:"hasGps" db:"has_gps"`
	HasTimestamp bool       `json:"hasTimestamp" db:"has_timestamp"`
}

// NewCaptureRecord builds a capture record whose GPS and timestamp flags
// match the supplied values. A nil ts falls back to the location timestamp.
func NewCaptureRecord(name, path string, loc *Location, ts *time.Time) ImageCaptureRecord {
	rec := ImageCaptureRecord{
		ImageName: name,
		ImagePath: path,
	}
	if loc != nil {
		rec.Latitude = loc.Latitude
		rec.Longitude = loc.Longitude
		rec.HasGPS = true
		if ts == nil {
			ts = loc.Timestamp
		}
	}
	if ts != nil {
		t := *ts
		rec.Timestamp = &t
		rec.HasTimestamp = true
	}
	return rec
}

// Location returns the capture position, or nil when the record has no GPS
func (r ImageCaptureRecord) Location() *Location {
	if !r.HasGPS {
		return nil
	}
	return &Location{Latitude: r.Latitude, Longitude: r.Longitude, Timestamp: r.Timestamp}
}

// CaptureSummary holds the batch-level counts reported at the end of a run
type CaptureSummary struct {
	TotalImages   int `json:"totalImages"`
	WithGPS       int `json:"withGps"`
	WithTimestamp int `json:"withTimestamp"`
	WithDamage    int `json:"withDamage"`
	Failed        int `json:"failed"`
}

// Summarize counts GPS and timestamp coverage over capture records
func Summarize(records []ImageCaptureRecord) CaptureSummary {
	s := CaptureSummary{TotalImages: len(records)}
	for _, r := range records {
		if r.HasGPS {
			s.WithGPS++
		}
		if r.HasTimestamp {
			s.WithTimestamp++
		}
	}
	return s
}
