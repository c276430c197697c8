package damagemap

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/jengzang/crackmap-backend-go/internal/models"
)

var popupTemplate = template.Must(template.New("popup").Parse(`<div class="crack-popup">
<h4>{{.ImageName}}</h4>
<table>
<tr><th>Time</th><td>{{.Timestamp}}</td></tr>
<tr><th>Latitude</th><td>{{.Latitude}}</td></tr>
<tr><th>Longitude</th><td>{{.Longitude}}</td></tr>
<tr><th>Cracks</th><td>{{.CrackCount}}</td></tr>
<tr><th>Avg width</th><td>{{.AvgWidth}} mm</td></tr>
<tr><th>Max width</th><td>{{.MaxWidth}} mm</td></tr>
<tr><th>Total length</th><td>{{.TotalLength}} mm</td></tr>
</table>
{{- if .ImageData}}
<img src="{{.ImageData}}" width="300" alt="{{.ImageName}}">
{{- end}}
</div>`))

// Popup is the content shown when a damage marker is clicked
type Popup struct {
	ImageName   string
	Timestamp   string
	Latitude    string
	Longitude   string
	CrackCount  int
	AvgWidth    string
	MaxWidth    string
	TotalLength string
	ImageData   template.URL // empty when the reference image is unavailable
}

// NewPopup formats the record's fields for display. Coordinates keep 6
// decimals and millimeter values 2.
func NewPopup(rec models.ImageDamageRecord) Popup {
	return Popup{
		ImageName:   rec.ImageName,
		Timestamp:   displayTime(rec),
		Latitude:    fmt.Sprintf("%.6f", rec.Latitude),
		Longitude:   fmt.Sprintf("%.6f", rec.Longitude),
		CrackCount:  rec.CrackCount,
		AvgWidth:    fmt.Sprintf("%.2f", rec.AvgWidthMM),
		MaxWidth:    fmt.Sprintf("%.2f", rec.MaxWidthMM),
		TotalLength: fmt.Sprintf("%.2f", rec.TotalLengthMM),
	}
}

// HTML renders the popup body
func (p Popup) HTML() (string, error) {
	var sb strings.Builder
	if err := popupTemplate.Execute(&sb, p); err != nil {
		return "", err
	}
	return sb.String(), nil
}
