// Package metadata correlates images with their capture position and time,
// and builds the capture metadata store consumed by path reconstruction.
package metadata

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jengzang/crackmap-backend-go/internal/exifgeo"
	"github.com/jengzang/crackmap-backend-go/internal/models"
	"github.com/jengzang/crackmap-backend-go/internal/spatial"
)

// ErrLocationNotFound is returned when no source yields a GPS position for an image
var ErrLocationNotFound = errors.New("location not found")

// Resolver looks up the capture location of one image
type Resolver interface {
	Name() string
	Resolve(imageName, imagePath string) (models.Location, error)
}

// Chain tries resolvers in rank order until one succeeds
type Chain struct {
	resolvers []Resolver
	logger    *zap.Logger
}

// NewChain creates a ranked resolver chain
func NewChain(logger *zap.Logger, resolvers ...Resolver) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{resolvers: resolvers, logger: logger}
}

// Name returns the resolver name
func (c *Chain) Name() string {
	return "chain"
}

// Resolve returns the first location found. It never substitutes a default
// position; a miss on every source is ErrLocationNotFound.
func (c *Chain) Resolve(imageName, imagePath string) (models.Location, error) {
	for _, r := range c.resolvers {
		loc, err := r.Resolve(imageName, imagePath)
		if err == nil {
			c.logger.Debug("location resolved",
				zap.String("image", imageName),
				zap.String("source", r.Name()),
				zap.Float64("lat", loc.Latitude),
				zap.Float64("lon", loc.Longitude),
			)
			return loc, nil
		}
		if !errors.Is(err, ErrLocationNotFound) {
			c.logger.Debug("location source failed",
				zap.String("image", imageName),
				zap.String("source", r.Name()),
				zap.Error(err),
			)
		}
	}
	return models.Location{}, fmt.Errorf("%w: %s", ErrLocationNotFound, imageName)
}

// ExifResolver reads GPS tags embedded in the image file
type ExifResolver struct {
	read func(path string) (exifgeo.Geotag, error)
}

// NewExifResolver creates a resolver backed by the image's EXIF block
func NewExifResolver() *ExifResolver {
	return &ExifResolver{read: exifgeo.ReadFile}
}

// Name returns the resolver name
func (r *ExifResolver) Name() string {
	return "exif"
}

// Resolve reads the embedded geotag of imagePath
func (r *ExifResolver) Resolve(imageName, imagePath string) (models.Location, error) {
	g, err := r.read(imagePath)
	if err != nil {
		return models.Location{}, fmt.Errorf("%w: %v", ErrLocationNotFound, err)
	}
	loc := g.Location()
	if loc == nil {
		return models.Location{}, ErrLocationNotFound
	}
	if !(spatial.Point{Lat: loc.Latitude, Lon: loc.Longitude}).Valid() {
		return models.Location{}, fmt.Errorf("%w: coordinate %v,%v out of range", ErrLocationNotFound, loc.Latitude, loc.Longitude)
	}
	return *loc, nil
}
