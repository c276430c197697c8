// Package damagemap composes the travel path, capture points and damage
// markers into self-contained Leaflet map documents.
package damagemap

import (
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/jengzang/crackmap-backend-go/internal/models"
	"github.com/jengzang/crackmap-backend-go/internal/spatial"
	"github.com/jengzang/crackmap-backend-go/internal/trackpath"
)

var (
	// ErrEmptyDamageSet is returned when the total map has no damage records
	// to center on
	ErrEmptyDamageSet = errors.New("no damage records to map")
	// ErrMissingReferenceImage marks a popup rendered without its image
	ErrMissingReferenceImage = errors.New("reference image not found")
)

const (
	displayTimeLayout = "2006-01-02 15:04:05"
	unknownTime       = "time unknown"
)

// Options configures map rendering
type Options struct {
	ImageDir        string // directory holding the overlay images
	TotalZoom       int
	SingleZoom      int
	TileURL         string
	TileAttribution string
}

// DefaultOptions returns satellite tiles at zoom 11 and 15
func DefaultOptions() Options {
	return Options{
		TotalZoom:       11,
		SingleZoom:      15,
		TileURL:         "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}",
		TileAttribution: "Esri World Imagery",
	}
}

// Builder renders map documents
type Builder struct {
	opts   Options
	logger *zap.Logger
}

// NewBuilder creates a Builder. Zero zoom levels and tile settings fall back
// to DefaultOptions.
func NewBuilder(opts Options, logger *zap.Logger) *Builder {
	def := DefaultOptions()
	if opts.TotalZoom == 0 {
		opts.TotalZoom = def.TotalZoom
	}
	if opts.SingleZoom == 0 {
		opts.SingleZoom = def.SingleZoom
	}
	if opts.TileURL == "" {
		opts.TileURL = def.TileURL
		opts.TileAttribution = def.TileAttribution
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{opts: opts, logger: logger}
}

// RenderTotal builds the composite map: the time-ordered path through every
// GPS-tagged capture, a point per capture and a marker per damage record.
// The map is centered on the mean position of the damage records.
func (b *Builder) RenderTotal(damage []models.ImageDamageRecord, captures []models.ImageCaptureRecord) (*Document, error) {
	if len(damage) == 0 {
		return nil, ErrEmptyDamageSet
	}

	doc := b.newDocument("Crack damage map", b.opts.TotalZoom)
	doc.Center = spatial.Centroid(damagePoints(damage))

	if path := trackpath.BuildPath(captures); path.Drawable() {
		doc.Path = path.Coordinates()
		doc.PathLengthMeters = path.LengthMeters()
	}
	for _, m := range trackpath.BuildCaptureMarkers(captures) {
		doc.Captures = append(doc.Captures, captureView{
			Position: m.Position.LatLng(),
			Tooltip:  captureTooltip(m),
		})
	}
	if err := b.addDamage(doc, trackpath.BuildDamageMarkers(damage)); err != nil {
		return nil, err
	}
	return doc, nil
}

// RenderSingle builds a map centered on one damage record
func (b *Builder) RenderSingle(rec models.ImageDamageRecord) (*Document, error) {
	doc := b.newDocument("Crack damage: "+rec.ImageName, b.opts.SingleZoom)
	doc.Center = spatial.Point{Lat: rec.Latitude, Lon: rec.Longitude}
	if err := b.addDamage(doc, trackpath.BuildDamageMarkers([]models.ImageDamageRecord{rec})); err != nil {
		return nil, err
	}
	return doc, nil
}

func (b *Builder) newDocument(title string, zoom int) *Document {
	return &Document{
		Title:           title,
		Zoom:            zoom,
		TileURL:         b.opts.TileURL,
		TileAttribution: b.opts.TileAttribution,
		Path:            [][2]float64{},
		Captures:        []captureView{},
		Damage:          []damageView{},
	}
}

func (b *Builder) addDamage(doc *Document, markers []trackpath.DamageMarker) error {
	for _, m := range markers {
		popup := NewPopup(m.Record)
		data, err := b.referenceImage(m.Record)
		if err != nil {
			b.logger.Debug("popup without reference image",
				zap.String("image", m.Record.ImageName),
				zap.Error(err))
		} else {
			popup.ImageData = data
		}

		html, err := popup.HTML()
		if err != nil {
			return fmt.Errorf("failed to render popup for %s: %w", m.Record.ImageName, err)
		}
		doc.Damage = append(doc.Damage, damageView{
			Position: m.Position.LatLng(),
			Tooltip:  damageTooltip(m.Record),
			Popup:    html,
		})
	}
	return nil
}

// referenceImage returns the record's overlay image as a data URL
func (b *Builder) referenceImage(rec models.ImageDamageRecord) (template.URL, error) {
	if rec.ImagePath == "" {
		return "", ErrMissingReferenceImage
	}
	path := rec.ImagePath
	if !filepath.IsAbs(path) && b.opts.ImageDir != "" {
		path = filepath.Join(b.opts.ImageDir, path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrMissingReferenceImage, path)
		}
		return "", err
	}
	return template.URL("data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(raw)), nil
}

func damagePoints(records []models.ImageDamageRecord) []spatial.Point {
	points := make([]spatial.Point, len(records))
	for i, r := range records {
		points[i] = spatial.Point{Lat: r.Latitude, Lon: r.Longitude}
	}
	return points
}

func displayTime(rec models.ImageDamageRecord) string {
	if rec.Timestamp == nil {
		return unknownTime
	}
	return rec.Timestamp.Format(displayTimeLayout)
}

func captureTooltip(m trackpath.CaptureMarker) string {
	ts := strings.Replace(m.Timestamp, "T", " ", 1)
	if ts == "" {
		ts = unknownTime
	}
	return m.ImageName + "\n" + ts
}

func damageTooltip(rec models.ImageDamageRecord) string {
	return fmt.Sprintf("%s\ncracks %d (max width %.1fmm)", displayTime(rec), rec.CrackCount, rec.MaxWidthMM)
}
