package metadata

import (
	"github.com/jengzang/crackmap-backend-go/internal/models"
)

// Index maps image file names to their precomputed capture records
type Index struct {
	byName map[string]models.ImageCaptureRecord
}

// NewIndex builds an index keyed by image name. A later record with the
// same name replaces an earlier one.
func NewIndex(records []models.ImageCaptureRecord) *Index {
	idx := &Index{byName: make(map[string]models.ImageCaptureRecord, len(records))}
	for _, r := range records {
		idx.byName[r.ImageName] = r
	}
	return idx
}

// Len returns the number of indexed images
func (i *Index) Len() int {
	return len(i.byName)
}

// Lookup returns the record stored for an image name
func (i *Index) Lookup(imageName string) (models.ImageCaptureRecord, bool) {
	r, ok := i.byName[imageName]
	return r, ok
}

// Name returns the resolver name
func (i *Index) Name() string {
	return "index"
}

// Resolve returns the indexed location. An entry without GPS counts as a miss
// so the next source can still be tried.
func (i *Index) Resolve(imageName, _ string) (models.Location, error) {
	r, ok := i.Lookup(imageName)
	if !ok {
		return models.Location{}, ErrLocationNotFound
	}
	loc := r.Location()
	if loc == nil {
		return models.Location{}, ErrLocationNotFound
	}
	return *loc, nil
}
