package epdfont

import (
	"bytes"
	"strings"
	"testing"

	"github.com/tdewolff/test"
)

func TestCpLabel(t *testing.T) {
	test.T(t, cpLabel('A'), "A")
	test.T(t, cpLabel('\\'), "<backslash>")
	test.T(t, cpLabel(' '), "U+0020")
	test.T(t, cpLabel(0x0416), "U+0416")
}

func TestWriteHeader(t *testing.T) {
	font := &FontData{
		Name:     "Demo12",
		Families: []string{"Demo Sans", "Demo Symbols"},
		Size:     12,
		Is2Bit:   false,
		Intervals: []Interval{
			{First: 'A', Last: 'B', Offset: 0},
		},
		Glyphs: []Glyph{
			{Width: 2, Height: 2, AdvanceX: 3, Left: 0, Top: 2, DataLength: 1, DataOffset: 0, Codepoint: 'A'},
			{Width: 2, Height: 2, AdvanceX: 3, Left: 0, Top: 2, DataLength: 1, DataOffset: 1, Codepoint: 'B'},
		},
		Bitmaps: []byte{0x90, 0x60},
		KernTable: &KernTable{
			LeftClasses:     []KernClassEntry{{Codepoint: 'A', Class: 1}},
			RightClasses:    []KernClassEntry{{Codepoint: 'B', Class: 1}},
			Matrix:          []int8{-2},
			LeftClassCount:  1,
			RightClassCount: 1,
		},
		Ligatures:  []LigaturePair{{Pair: 0x00660066, Ligature: 0xFB00}},
		LineHeight: 14,
		Ascender:   11,
		Descender:  -3,
	}

	buf := &bytes.Buffer{}
	err := WriteHeader(buf, font, "fontconvert Demo12 12 demo.ttf")
	test.Error(t, err)
	out := buf.String()

	lines := []string{
		" * name: Demo12",
		" * fonts: Demo Sans, Demo Symbols",
		" * size: 12",
		" * mode: 1-bit",
		" * Command used: fontconvert Demo12 12 demo.ttf",
		"#pragma once",
		`#include "EpdFontData.h"`,
		"static const uint8_t Demo12Bitmaps[2] = {",
		"    0x90, 0x60,",
		"static const EpdGlyph Demo12Glyphs[] = {",
		"    { 2, 2, 3, 0, 2, 1, 0 }, // A",
		"    { 2, 2, 3, 0, 2, 1, 1 }, // B",
		"static const EpdUnicodeInterval Demo12Intervals[] = {",
		"    { 0x41, 0x42, 0x0 },",
		"static const EpdKernClassEntry Demo12KernLeftClasses[] = {",
		"    { 0x0041, 1 }, // A",
		"static const EpdKernClassEntry Demo12KernRightClasses[] = {",
		"    { 0x0042, 1 }, // B",
		"static const int8_t Demo12KernMatrix[] = {",
		"      -2,",
		"static const EpdLigaturePair Demo12LigaturePairs[] = {",
		"    { 0x00660066, 0xFB00 }, // f f -> U+FB00",
		"static const EpdFontData Demo12 = {",
	}
	for _, line := range lines {
		if !strings.Contains(out, line+"\n") {
			t.Fatalf("missing line %q in output:\n%s", line, out)
		}
	}

	descriptor := "static const EpdFontData Demo12 = {\n" +
		"    Demo12Bitmaps,\n" +
		"    Demo12Glyphs,\n" +
		"    Demo12Intervals,\n" +
		"    1,\n" +
		"    14,\n" +
		"    11,\n" +
		"    -3,\n" +
		"    false,\n" +
		"    nullptr,\n" +
		"    0,\n" +
		"    Demo12KernLeftClasses,\n" +
		"    Demo12KernRightClasses,\n" +
		"    Demo12KernMatrix,\n" +
		"    1,\n" +
		"    1,\n" +
		"    1,\n" +
		"    1,\n" +
		"    Demo12LigaturePairs,\n" +
		"    1,\n" +
		"};\n"
	if !strings.HasSuffix(out, descriptor) {
		t.Fatalf("bad descriptor, got:\n%s", out)
	}
}

func TestWriteHeaderFlatKerning(t *testing.T) {
	font := &FontData{
		Name:        "Flat8",
		Size:        8,
		FlatKerning: true,
		Intervals:   []Interval{{First: 'A', Last: 'A', Offset: 0}},
		Glyphs:      []Glyph{{AdvanceX: 3, Codepoint: 'A'}},
		KernPairs:   []KernPair{{Pair: 0x00410056, Adjust: -3}},
		LineHeight:  10,
		Ascender:    8,
		Descender:   -2,
	}

	buf := &bytes.Buffer{}
	test.Error(t, WriteHeader(buf, font, "fontconvert"))
	out := buf.String()

	if !strings.Contains(out, "    { 0x00410056, -3 }, // A V\n") {
		t.Fatalf("missing kern pair in output:\n%s", out)
	}
	descriptor := "    false,\n" +
		"    nullptr,\n" +
		"    0,\n" +
		"    Flat8KernPairs,\n" +
		"    1,\n" +
		"    nullptr,\n" +
		"    0,\n" +
		"};\n"
	if !strings.HasSuffix(out, descriptor) {
		t.Fatalf("bad descriptor, got:\n%s", out)
	}
}

func TestWriteHeaderNoKerning(t *testing.T) {
	font := &FontData{
		Name:      "Bare8",
		Size:      8,
		Intervals: []Interval{{First: 'A', Last: 'A', Offset: 0}},
		Glyphs:    []Glyph{{AdvanceX: 3, Codepoint: 'A'}},
	}

	buf := &bytes.Buffer{}
	test.Error(t, WriteHeader(buf, font, "fontconvert"))
	out := buf.String()

	descriptor := "    nullptr,\n" +
		"    nullptr,\n" +
		"    nullptr,\n" +
		"    0,\n" +
		"    0,\n" +
		"    0,\n" +
		"    0,\n" +
		"    nullptr,\n" +
		"    0,\n" +
		"};\n"
	if !strings.HasSuffix(out, descriptor) {
		t.Fatalf("bad descriptor, got:\n%s", out)
	}
}

func TestWriteHeaderCompressed(t *testing.T) {
	font := &FontData{
		Name:      "Comp8",
		Size:      8,
		Intervals: []Interval{{First: 'A', Last: 'A', Offset: 0}},
		GroupGlyphs: []GroupGlyph{
			{Width: 2, Height: 2, AdvanceX: 3, DataLength: 1, GroupOffset: 0, Codepoint: 'A'},
		},
		Groups:  []Group{{CompressedOffset: 0, CompressedLength: 5, UncompressedLength: 1, GlyphCount: 1, FirstGlyphIndex: 0}},
		Bitmaps: []byte{0x01, 0x02, 0x03, 0x04, 0x05},
	}

	buf := &bytes.Buffer{}
	test.Error(t, WriteHeader(buf, font, "fontconvert --compress"))
	out := buf.String()

	if !strings.Contains(out, " * mode: 1-bit  compressed: true\n") {
		t.Fatalf("missing compressed mode in banner:\n%s", out)
	}
	if !strings.Contains(out, "static const EpdFontGroup Comp8Groups[] = {\n    { 0, 5, 1, 1, 0 },\n") {
		t.Fatalf("missing group table:\n%s", out)
	}
	if !strings.Contains(out, "    Comp8Groups,\n    1,\n") {
		t.Fatalf("missing group descriptor fields:\n%s", out)
	}
}
