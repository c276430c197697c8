// Package segmentation adapts the external crack segmentation model. The
// model itself runs out of process; this package only moves its per-image
// output into RawCrackInstance values.
package segmentation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jengzang/crackmap-backend-go/internal/models"
)

// Kinds accepted by New
const (
	KindCommand = "command"
	KindSidecar = "sidecar"
)

// SidecarSuffix is appended to an image path to locate its precomputed output
const SidecarSuffix = ".cracks.json"

// ErrNoOutput is returned when the model produced nothing for an image
var ErrNoOutput = errors.New("segmentation produced no output")

// Result is the model output for one image
type Result struct {
	MaskPath  string                    // optional binary crack mask
	Instances []models.RawCrackInstance // one per connected crack component
}

// Segmenter runs crack segmentation for a single image
type Segmenter interface {
	Segment(ctx context.Context, imagePath string) (*Result, error)
}

// Config selects and configures a Segmenter
type Config struct {
	Kind    string   // "command" or "sidecar"
	Command string   // executable for KindCommand
	Args    []string // leading arguments, the image and output paths are appended
	WorkDir string   // scratch directory for command output
}

// New builds the Segmenter named by cfg.Kind
func New(cfg Config) (Segmenter, error) {
	switch cfg.Kind {
	case KindSidecar, "":
		return NewSidecarSegmenter(), nil
	case KindCommand:
		if cfg.Command == "" {
			return nil, fmt.Errorf("segmentation command is required for kind %q", KindCommand)
		}
		return NewCommandSegmenter(cfg.Command, cfg.Args, cfg.WorkDir), nil
	default:
		return nil, fmt.Errorf("unknown segmenter kind %q", cfg.Kind)
	}
}

type instanceJSON struct {
	Coordinates string `json:"coordinates"`
	Measurement string `json:"measurement"`
	ClassID     int    `json:"class_id"`
}

type resultJSON struct {
	MaskPath  string         `json:"mask_path"`
	Instances []instanceJSON `json:"instances"`
}

// ReadResult decodes model output. A relative mask path is resolved against
// baseDir.
func ReadResult(r io.Reader, baseDir string) (*Result, error) {
	var raw resultJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoOutput
		}
		return nil, fmt.Errorf("failed to decode segmentation output: %w", err)
	}

	res := &Result{
		MaskPath:  raw.MaskPath,
		Instances: make([]models.RawCrackInstance, len(raw.Instances)),
	}
	if res.MaskPath != "" && !filepath.IsAbs(res.MaskPath) && baseDir != "" {
		res.MaskPath = filepath.Join(baseDir, res.MaskPath)
	}
	for i, in := range raw.Instances {
		res.Instances[i] = models.RawCrackInstance{
			Coordinates: in.Coordinates,
			Measurement: in.Measurement,
			ClassID:     in.ClassID,
		}
	}
	return res, nil
}

func readResultFile(path, baseDir string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoOutput, filepath.Base(path))
		}
		return nil, err
	}
	defer f.Close()
	return ReadResult(f, baseDir)
}
