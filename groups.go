package epdfont

import (
	"bytes"
	"compress/flate"
)

// Group describes one compressed run of glyph bitmaps. Glyphs in the same
// Unicode block co-occur in typical text, so grouping by block keeps the
// reader's LRU decompression cache effective.
type Group struct {
	CompressedOffset   uint32
	CompressedLength   uint32
	UncompressedLength uint32
	GlyphCount         uint32
	FirstGlyphIndex    uint32
}

// GroupGlyph is the compressed-mode counterpart of Glyph. GroupOffset points
// into the group's decompressed buffer rather than the flat bitmap buffer.
type GroupGlyph struct {
	Width       uint8
	Height      uint8
	AdvanceX    uint8
	Left        int16
	Top         int16
	DataLength  uint16
	GroupOffset uint32
	Codepoint   rune
}

var scriptGroupRanges = [][2]rune{
	{0x0000, 0x007F}, // ASCII
	{0x0080, 0x00FF}, // Latin-1 Supplement
	{0x0100, 0x017F}, // Latin Extended-A
	{0x0300, 0x036F}, // Combining Diacritical Marks
	{0x0400, 0x04FF}, // Cyrillic
	{0x2000, 0x206F}, // General Punctuation
	{0x2070, 0x209F}, // Superscripts and Subscripts
	{0x20A0, 0x20CF}, // Currency Symbols
	{0x2190, 0x21FF}, // Arrows
	{0x2200, 0x22FF}, // Mathematical Operators
	{0xFB00, 0xFB06}, // Alphabetic Presentation Forms
	{0xFFFD, 0xFFFD}, // Replacement Character
}

func scriptGroup(cp rune) int {
	for i, rng := range scriptGroupRanges {
		if rng[0] <= cp && cp <= rng[1] {
			return i
		}
	}
	return -1
}

// CompressGroups partitions the glyph array along Unicode block boundaries
// and DEFLATE-compresses each partition's concatenated bitmaps as one raw
// stream. It returns the rewritten glyph records, the group table and the
// concatenated compressed data.
func CompressGroups(glyphs []Glyph, bitmaps []byte) ([]GroupGlyph, []Group, []byte, error) {
	type span struct {
		first, count int
	}
	var spans []span
	groupID := -2 // never a valid script group
	for i, glyph := range glyphs {
		if sg := scriptGroup(glyph.Codepoint); sg != groupID {
			spans = append(spans, span{first: i, count: 1})
			groupID = sg
		} else {
			spans[len(spans)-1].count++
		}
	}

	groupGlyphs := make([]GroupGlyph, 0, len(glyphs))
	groups := make([]Group, 0, len(spans))
	var compressed []byte
	for _, s := range spans {
		var data []byte
		for _, glyph := range glyphs[s.first : s.first+s.count] {
			groupGlyphs = append(groupGlyphs, GroupGlyph{
				Width:       glyph.Width,
				Height:      glyph.Height,
				AdvanceX:    glyph.AdvanceX,
				Left:        glyph.Left,
				Top:         glyph.Top,
				DataLength:  glyph.DataLength,
				GroupOffset: uint32(len(data)),
				Codepoint:   glyph.Codepoint,
			})
			data = append(data, bitmaps[glyph.DataOffset:glyph.DataOffset+uint32(glyph.DataLength)]...)
		}

		buf := bytes.Buffer{}
		zw, err := flate.NewWriter(&buf, flate.BestCompression)
		if err != nil {
			return nil, nil, nil, err
		}
		if _, err = zw.Write(data); err != nil {
			return nil, nil, nil, err
		} else if err = zw.Close(); err != nil {
			return nil, nil, nil, err
		}

		groups = append(groups, Group{
			CompressedOffset:   uint32(len(compressed)),
			CompressedLength:   uint32(buf.Len()),
			UncompressedLength: uint32(len(data)),
			GlyphCount:         uint32(s.count),
			FirstGlyphIndex:    uint32(s.first),
		})
		compressed = append(compressed, buf.Bytes()...)
	}
	return groupGlyphs, groups, compressed, nil
}
