package damagemap

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"

	"github.com/jengzang/crackmap-backend-go/internal/spatial"
)

var documentTemplate = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/bootstrap@3.4.1/dist/css/bootstrap-glyphicons.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<script src="https://unpkg.com/leaflet-polylinedecorator@1.6.0/dist/leaflet.polylineDecorator.js"></script>
<style>html, body, #map { height: 100%; margin: 0; } .damage-icon { color: #fff; background: #d9534f; border-radius: 50%; text-align: center; line-height: 24px; }</style>
</head>
<body>
<div id="map"></div>
<script>
var map = L.map('map').setView({{.Center.LatLng}}, {{.Zoom}});
L.tileLayer({{.TileURL}}, { attribution: {{.TileAttribution}} }).addTo(map);

var path = {{.Path}};
if (path.length >= 2) {
  var line = L.polyline(path, { color: 'red', weight: 3, opacity: 0.7 }).addTo(map);
  L.polylineDecorator(line, {
    patterns: [{ offset: 25, repeat: 100, symbol: L.Symbol.arrowHead({ pixelSize: 10, pathOptions: { color: 'red', fillOpacity: 1, weight: 0 } }) }]
  }).addTo(map);
}

{{.Captures}}.forEach(function (c) {
  L.circleMarker(c.position, { radius: 3, color: 'cyan', fillColor: 'cyan', fillOpacity: 1 })
    .bindTooltip(c.tooltip).addTo(map);
});

var damageIcon = L.divIcon({ className: 'damage-icon', html: '<span class="glyphicon glyphicon-info-sign"></span>', iconSize: [24, 24] });
{{.Damage}}.forEach(function (d) {
  L.marker(d.position, { icon: damageIcon })
    .bindTooltip(d.tooltip)
    .bindPopup(d.popup, { maxWidth: 320 })
    .addTo(map);
});
</script>
</body>
</html>
`))

type captureView struct {
	Position [2]float64 `json:"position"`
	Tooltip  string     `json:"tooltip"`
}

type damageView struct {
	Position [2]float64 `json:"position"`
	Tooltip  string     `json:"tooltip"`
	Popup    string     `json:"popup"`
}

// Document is a rendered map ready to be written as HTML
type Document struct {
	Title            string
	Center           spatial.Point
	Zoom             int
	TileURL          string
	TileAttribution  string
	Path             [][2]float64
	PathLengthMeters float64
	Captures         []captureView
	Damage           []damageView
}

// CaptureCount returns the number of capture points on the map
func (d *Document) CaptureCount() int {
	return len(d.Captures)
}

// DamageCount returns the number of damage markers on the map
func (d *Document) DamageCount() int {
	return len(d.Damage)
}

// WriteHTML writes the document as a standalone HTML page
func (d *Document) WriteHTML(w io.Writer) error {
	return documentTemplate.Execute(w, d)
}

// Save writes the document to path, creating parent directories
func (d *Document) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create map directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := d.WriteHTML(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to render %s: %w", path, err)
	}
	return f.Close()
}
