// Package overlay paints the crack mask over the source image and writes the
// downscaled reference image shown in map popups.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	xdraw "golang.org/x/image/draw"
)

// Style controls how the crack mask is rendered
type Style struct {
	Color   color.RGBA
	Alpha   float64 // overlay opacity in [0, 1]
	Width   int     // output width in pixels
	Height  int     // output height in pixels
	Quality int     // JPEG quality
}

// DefaultStyle is a red overlay at 0.6 opacity on a 400x400 JPEG
func DefaultStyle() Style {
	return Style{
		Color:   color.RGBA{R: 255, A: 255},
		Alpha:   0.6,
		Width:   400,
		Height:  400,
		Quality: 85,
	}
}

// Validate checks the style values
func (s Style) Validate() error {
	if s.Alpha < 0 || s.Alpha > 1 {
		return fmt.Errorf("overlay alpha %v outside [0, 1]", s.Alpha)
	}
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("invalid overlay size %dx%d", s.Width, s.Height)
	}
	if s.Quality < 1 || s.Quality > 100 {
		return fmt.Errorf("invalid jpeg quality %d", s.Quality)
	}
	return nil
}

// ParseHexColor parses "#rrggbb" or "rrggbb"
func ParseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// OutputName returns the reference image file name for a source image.
// PNG sources are written as JPEG.
func OutputName(imageName string) string {
	ext := filepath.Ext(imageName)
	if strings.EqualFold(ext, ".png") {
		return strings.TrimSuffix(imageName, ext) + ".jpg"
	}
	return imageName
}

// Blend paints color over every pixel where the mask is non-zero:
// out = src*(1-alpha) + color*alpha. A mask of a different size is sampled
// proportionally.
func Blend(src image.Image, mask image.Image, style Style) *image.RGBA {
	b := src.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(out, out.Bounds(), src, b.Min, xdraw.Src)
	if mask == nil {
		return out
	}

	mb := mask.Bounds()
	a := style.Alpha
	for y := 0; y < b.Dy(); y++ {
		my := mb.Min.Y + y*mb.Dy()/b.Dy()
		for x := 0; x < b.Dx(); x++ {
			mx := mb.Min.X + x*mb.Dx()/b.Dx()
			if color.GrayModel.Convert(mask.At(mx, my)).(color.Gray).Y == 0 {
				continue
			}
			i := out.PixOffset(x, y)
			out.Pix[i+0] = mix(out.Pix[i+0], style.Color.R, a)
			out.Pix[i+1] = mix(out.Pix[i+1], style.Color.G, a)
			out.Pix[i+2] = mix(out.Pix[i+2], style.Color.B, a)
		}
	}
	return out
}

func mix(base, paint uint8, alpha float64) uint8 {
	v := float64(base)*(1-alpha) + float64(paint)*alpha
	if v > 255 {
		v = 255
	}
	return uint8(v + 0.5)
}

// Resize scales img to w x h
func Resize(img image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Over, nil)
	return dst
}

// Load decodes a JPEG or PNG file
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

// Render blends the mask (optional, empty path skips it) over the source
// image, resizes it and writes a JPEG to dstPath.
func Render(srcPath, maskPath, dstPath string, style Style) error {
	src, err := Load(srcPath)
	if err != nil {
		return err
	}

	var mask image.Image
	if maskPath != "" {
		if mask, err = Load(maskPath); err != nil {
			return fmt.Errorf("failed to load mask: %w", err)
		}
	}

	out := Resize(Blend(src, mask, style), style.Width, style.Height)

	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dstPath, err)
	}
	if err := jpeg.Encode(f, out, &jpeg.Options{Quality: style.Quality}); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return f.Close()
}
