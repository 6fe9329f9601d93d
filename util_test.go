package epdfont

import "fmt"

// mapCmap is a cmap subtable backed by a plain map, used to build small
// in-memory fonts for tests.
type mapCmap struct {
	toGlyph map[rune]uint16
	toRune  map[uint16]rune
}

func (m *mapCmap) Get(r rune) (uint16, bool) {
	glyphID, ok := m.toGlyph[r]
	return glyphID, ok
}

func (m *mapCmap) ToUnicode(glyphID uint16) (rune, bool) {
	r, ok := m.toRune[glyphID]
	return r, ok
}

func newTestSFNT(cps map[rune]uint16) *SFNT {
	m := &mapCmap{toGlyph: cps, toRune: map[uint16]rune{}}
	maxGlyphID := uint16(0)
	for r, glyphID := range cps {
		m.toRune[glyphID] = r
		if maxGlyphID < glyphID {
			maxGlyphID = glyphID
		}
	}
	hmtx := &hmtxTable{HMetrics: make([]hmtxLongHorMetric, maxGlyphID+1)}
	for i := range hmtx.HMetrics {
		hmtx.HMetrics[i].AdvanceWidth = 500
	}
	return &SFNT{
		Cmap: &cmapTable{Subtables: []cmapSubtable{m}},
		Head: &headTable{UnitsPerEm: 1000},
		Hmtx: hmtx,
		Maxp: &maxpTable{NumGlyphs: maxGlyphID + 1},
	}
}

// mapRasterizer serves prebuilt rasters.
type mapRasterizer struct {
	rasters                     map[rune]*GlyphRaster
	height, ascender, descender int
}

func (m *mapRasterizer) Rasterize(cp rune) (*GlyphRaster, error) {
	if raster, ok := m.rasters[cp]; ok {
		return raster, nil
	}
	return nil, fmt.Errorf("no glyph for %U", cp)
}

func (m *mapRasterizer) LineMetrics() (int, int, int) {
	return m.height, m.ascender, m.descender
}

func newTestFont(cps map[rune]uint16, rasters map[rune]*GlyphRaster) *Font {
	return &Font{
		Path:       "test",
		SFNT:       newTestSFNT(cps),
		Rasterizer: &mapRasterizer{rasters: rasters, height: 12, ascender: 9, descender: -3},
	}
}
