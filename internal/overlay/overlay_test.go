package overlay

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestBlend_OnlyMaskedPixels(t *testing.T) {
	src := solid(4, 4, color.RGBA{R: 0, G: 100, B: 200, A: 255})
	mask := image.NewGray(image.Rect(0, 0, 4, 4))
	mask.SetGray(1, 2, color.Gray{Y: 1})

	out := Blend(src, mask, DefaultStyle())

	assert.Equal(t, color.RGBA{R: 0, G: 100, B: 200, A: 255}, out.RGBAAt(0, 0))
	// 0*0.4 + 255*0.6 = 153, 100*0.4 = 40, 200*0.4 = 80
	assert.Equal(t, color.RGBA{R: 153, G: 40, B: 80, A: 255}, out.RGBAAt(1, 2))
}

func TestBlend_MaskOfDifferentSize(t *testing.T) {
	src := solid(4, 4, color.RGBA{A: 255})
	mask := image.NewGray(image.Rect(0, 0, 2, 2))
	mask.SetGray(1, 1, color.Gray{Y: 255})

	out := Blend(src, mask, Style{Color: color.RGBA{G: 255, A: 255}, Alpha: 1})
	assert.Equal(t, uint8(255), out.RGBAAt(3, 3).G)
	assert.Equal(t, uint8(0), out.RGBAAt(0, 0).G)
}

func TestBlend_NilMaskCopiesSource(t *testing.T) {
	src := solid(2, 2, color.RGBA{R: 9, A: 255})
	out := Blend(src, nil, DefaultStyle())
	assert.Equal(t, src.Pix, out.Pix)
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#FF8000")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 255, G: 128, B: 0, A: 255}, c)

	_, err = ParseHexColor("red")
	assert.Error(t, err)
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "a.jpg", OutputName("a.png"))
	assert.Equal(t, "b.jpg", OutputName("b.PNG"))
	assert.Equal(t, "c.JPG", OutputName("c.JPG"))
}

func TestStyleValidate(t *testing.T) {
	assert.NoError(t, DefaultStyle().Validate())
	s := DefaultStyle()
	s.Alpha = 1.5
	assert.Error(t, s.Validate())
}

func TestRender_WritesResizedJPEG(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "src.png")
	f, err := os.Create(srcPath)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, solid(32, 16, color.RGBA{B: 255, A: 255})))
	require.NoError(t, f.Close())

	dst := filepath.Join(dir, "out", "src.jpg")
	style := DefaultStyle()
	style.Width, style.Height = 20, 10
	require.NoError(t, Render(srcPath, "", dst, style))

	img, err := Load(dst)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 20, 10), img.Bounds())

	assert.Error(t, Render(filepath.Join(dir, "missing.png"), "", dst, style))
}
