package epdfont

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// GlyphRaster is a grayscale rendering of a single glyph. Pixels holds
// Width*Height 8-bit coverage values in row-major order. Left and Top
// position the bitmap relative to the baseline origin, with Top counting
// upwards from the baseline to the first row.
type GlyphRaster struct {
	Width    int
	Height   int
	Pixels   []uint8
	AdvanceX int
	Left     int
	Top      int
}

// A Rasterizer renders glyphs at a fixed pixel size.
type Rasterizer interface {
	Rasterize(cp rune) (*GlyphRaster, error)
	LineMetrics() (height, ascender, descender int)
}

type faceRasterizer struct {
	face font.Face
}

// NewRasterizer renders glyphs from a TrueType or OpenType font at the given
// point size and resolution with full hinting.
func NewRasterizer(b []byte, size, dpi float64) (Rasterizer, error) {
	f, err := truetype.Parse(b)
	if err != nil {
		return nil, err
	}
	face := truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     dpi,
		Hinting: font.HintingFull,
	})
	return &faceRasterizer{face}, nil
}

func (rast *faceRasterizer) Rasterize(cp rune) (*GlyphRaster, error) {
	dr, mask, maskp, advance, ok := rast.face.Glyph(fixed.Point26_6{}, cp)
	if !ok {
		return nil, fmt.Errorf("no glyph for %U", cp)
	}

	glyph := &GlyphRaster{
		Width:    dr.Dx(),
		Height:   dr.Dy(),
		AdvanceX: advance.Floor(),
		Left:     dr.Min.X,
		Top:      -dr.Min.Y,
	}
	if glyph.Width == 0 || glyph.Height == 0 {
		// whitespace glyphs carry only an advance
		glyph.Width, glyph.Height = 0, 0
		return glyph, nil
	}

	img := image.NewAlpha(image.Rect(0, 0, glyph.Width, glyph.Height))
	draw.DrawMask(img, img.Bounds(), image.Opaque, image.Point{}, mask, maskp, draw.Src)
	glyph.Pixels = img.Pix
	return glyph, nil
}

func (rast *faceRasterizer) LineMetrics() (int, int, int) {
	metrics := rast.face.Metrics()
	return metrics.Height.Ceil(), metrics.Ascent.Ceil(), -metrics.Descent.Ceil()
}
