package epdfont

import (
	"testing"

	"github.com/tdewolff/test"
)

func TestAssembleGlyphs(t *testing.T) {
	rasters := map[rune]*GlyphRaster{
		'A': {Width: 2, Height: 2, Pixels: []uint8{0xFF, 0x00, 0x00, 0xFF}, AdvanceX: 3, Left: 0, Top: 2},
		'B': {Width: 8, Height: 2, Pixels: make([]uint8, 16), AdvanceX: 9, Left: 1, Top: 2},
		' ': {AdvanceX: 4},
	}
	for i := range rasters['B'].Pixels {
		rasters['B'].Pixels[i] = 0xFF
	}
	f := newTestFont(map[rune]uint16{' ': 1, 'A': 2, 'B': 3}, rasters)
	stack := &FontStack{Fonts: []*Font{f}}
	intervals := []Interval{{First: ' ', Last: ' ', Offset: 0}, {First: 'A', Last: 'B', Offset: 1}}
	served := map[rune]int{' ': 0, 'A': 0, 'B': 0}

	glyphs, bitmaps, err := AssembleGlyphs(stack, intervals, served, false, DefaultThresholds)
	test.Error(t, err)
	test.T(t, len(glyphs), 3)

	// glyphs are in ascending codepoint order
	test.T(t, glyphs[0].Codepoint, ' ')
	test.T(t, glyphs[1].Codepoint, 'A')
	test.T(t, glyphs[2].Codepoint, 'B')

	// whitespace carries an advance but no bitmap
	test.T(t, glyphs[0].DataLength, uint16(0))
	test.T(t, glyphs[0].AdvanceX, uint8(4))

	// offsets accumulate through the shared buffer
	test.T(t, glyphs[1].DataOffset, uint32(0))
	test.T(t, glyphs[1].DataLength, uint16(1))
	test.T(t, glyphs[2].DataOffset, uint32(1))
	test.T(t, glyphs[2].DataLength, uint16(2))
	test.T(t, len(bitmaps), 3)

	test.T(t, bitmaps[0], uint8(0x90)) // 1001 padded
	test.T(t, bitmaps[1], uint8(0xFF))
	test.T(t, bitmaps[2], uint8(0xFF))
}

func TestAssembleGlyphsOverflow(t *testing.T) {
	rasters := map[rune]*GlyphRaster{
		'A': {Width: 300, Height: 1, Pixels: make([]uint8, 300), AdvanceX: 3},
	}
	f := newTestFont(map[rune]uint16{'A': 1}, rasters)
	stack := &FontStack{Fonts: []*Font{f}}
	intervals := []Interval{{First: 'A', Last: 'A', Offset: 0}}

	if _, _, err := AssembleGlyphs(stack, intervals, map[rune]int{'A': 0}, false, DefaultThresholds); err == nil {
		t.Fatal("expected error")
	}
}
