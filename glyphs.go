package epdfont

import (
	"fmt"
	"math"
)

// Glyph describes one packed glyph bitmap. DataOffset points into the flat
// concatenated bitmap buffer.
type Glyph struct {
	Width      uint8
	Height     uint8
	AdvanceX   uint8
	Left       int16
	Top        int16
	DataLength uint16
	DataOffset uint32
	Codepoint  rune
}

// AssembleGlyphs rasterizes, quantizes and packs every covered codepoint in
// ascending order and concatenates the packed bitmaps into one buffer.
// Each codepoint is rendered by the font that serves it.
func AssembleGlyphs(stack *FontStack, intervals []Interval, served map[rune]int, is2Bit bool, t Thresholds) ([]Glyph, []byte, error) {
	var glyphs []Glyph
	var bitmaps []byte
	for _, interval := range intervals {
		for cp := interval.First; cp <= interval.Last; cp++ {
			f := stack.Fonts[served[cp]]
			raster, err := f.Rasterizer.Rasterize(cp)
			if err != nil {
				return nil, nil, fmt.Errorf("%s: %v", f.Path, err)
			}

			var packed []byte
			if is2Bit {
				packed = Quantize2Bit(raster, t)
			} else {
				packed = Quantize1Bit(raster, t)
			}

			if math.MaxUint8 < raster.Width || math.MaxUint8 < raster.Height ||
				raster.AdvanceX < 0 || math.MaxUint8 < raster.AdvanceX ||
				raster.Left < math.MinInt16 || math.MaxInt16 < raster.Left ||
				raster.Top < math.MinInt16 || math.MaxInt16 < raster.Top ||
				math.MaxUint16 < len(packed) {
				return nil, nil, fmt.Errorf("glyph %U exceeds field limits", cp)
			}

			glyphs = append(glyphs, Glyph{
				Width:      uint8(raster.Width),
				Height:     uint8(raster.Height),
				AdvanceX:   uint8(raster.AdvanceX),
				Left:       int16(raster.Left),
				Top:        int16(raster.Top),
				DataLength: uint16(len(packed)),
				DataOffset: uint32(len(bitmaps)),
				Codepoint:  cp,
			})
			bitmaps = append(bitmaps, packed...)
		}
	}
	return glyphs, bitmaps, nil
}
