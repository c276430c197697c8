package measure

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jengzang/crackmap-backend-go/internal/models"
)

var errMalformed = errors.New("malformed value")

// ParseError reports a crack measurement or coordinate string that could not be parsed
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Measurement holds the three pixel values reported per crack instance.
// Widths are half-widths (distance from the skeleton to the edge).
type Measurement struct {
	AvgHalfWidthPX float64
	MaxHalfWidthPX float64
	LengthPX       float64
}

// ParseMeasurement parses an "avg x max x length" string
func ParseMeasurement(s string) (Measurement, error) {
	parts := strings.Split(s, "x")
	if len(parts) != 3 {
		return Measurement{}, &ParseError{Field: "measurement", Value: s, Err: errMalformed}
	}

	var vals [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Measurement{}, &ParseError{Field: "measurement", Value: s, Err: err}
		}
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return Measurement{}, &ParseError{Field: "measurement", Value: s, Err: errMalformed}
		}
		vals[i] = v
	}

	return Measurement{
		AvgHalfWidthPX: vals[0],
		MaxHalfWidthPX: vals[1],
		LengthPX:       vals[2],
	}, nil
}

// ParseBounds parses a "(x1,y1)-(x2,y2)" corner pair
func ParseBounds(s string) (models.PixelBounds, error) {
	cleaned := strings.NewReplacer("(", "", ")", "", " ", "").Replace(s)
	corners := strings.Split(cleaned, "-")
	if len(corners) != 2 {
		return models.PixelBounds{}, &ParseError{Field: "coordinates", Value: s, Err: errMalformed}
	}

	var pts [2][2]int
	for i, c := range corners {
		xy := strings.Split(c, ",")
		if len(xy) != 2 {
			return models.PixelBounds{}, &ParseError{Field: "coordinates", Value: s, Err: errMalformed}
		}
		for j := range xy {
			v, err := strconv.Atoi(xy[j])
			if err != nil {
				return models.PixelBounds{}, &ParseError{Field: "coordinates", Value: s, Err: err}
			}
			pts[i][j] = v
		}
	}

	return models.PixelBounds{X1: pts[0][0], Y1: pts[0][1], X2: pts[1][0], Y2: pts[1][1]}, nil
}
