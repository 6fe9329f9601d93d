package epdfont

import (
	"bytes"
	"compress/flate"
	"io"
	"testing"

	"github.com/tdewolff/test"
)

func TestCompressGroups(t *testing.T) {
	bitmaps := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	glyphs := []Glyph{
		{Codepoint: 'A', DataOffset: 0, DataLength: 3},
		{Codepoint: 'B', DataOffset: 3, DataLength: 2},
		{Codepoint: 0x0400, DataOffset: 5, DataLength: 3},
	}

	groupGlyphs, groups, compressed, err := CompressGroups(glyphs, bitmaps)
	test.Error(t, err)
	test.T(t, len(groups), 2)
	test.T(t, len(groupGlyphs), 3)

	// groups tile the glyph array with no gaps or overlaps
	var next, total uint32
	for _, g := range groups {
		test.T(t, g.FirstGlyphIndex, next)
		next += g.GlyphCount
		total += g.GlyphCount
	}
	test.T(t, total, uint32(len(glyphs)))

	// glyph offsets restart at zero inside each group
	test.T(t, groupGlyphs[0].GroupOffset, uint32(0))
	test.T(t, groupGlyphs[1].GroupOffset, uint32(3))
	test.T(t, groupGlyphs[2].GroupOffset, uint32(0))

	// every group decompresses back to its slice of the original buffer
	var offset uint32
	for _, g := range groups {
		zr := flate.NewReader(bytes.NewReader(compressed[g.CompressedOffset : g.CompressedOffset+g.CompressedLength]))
		data, err := io.ReadAll(zr)
		test.Error(t, err)
		test.Error(t, zr.Close())
		test.T(t, uint32(len(data)), g.UncompressedLength)
		test.Bytes(t, data, bitmaps[offset:offset+g.UncompressedLength])
		offset += g.UncompressedLength
	}
}

func TestScriptGroup(t *testing.T) {
	test.T(t, scriptGroup('A'), 0)
	test.T(t, scriptGroup(0x00C0), 1)
	test.T(t, scriptGroup(0x0410), 4)
	test.T(t, scriptGroup(0xFFFD), 11)
	test.T(t, scriptGroup(0x3000), -1)
}
