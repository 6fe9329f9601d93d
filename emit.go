package epdfont

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

func cpLabel(cp rune) string {
	if cp == '\\' {
		return "<backslash>"
	} else if 0x20 < cp && cp < 0x7F {
		return string(cp)
	}
	return fmt.Sprintf("U+%04X", cp)
}

func pairLabel(pair uint32) string {
	return cpLabel(rune(pair>>16)) + " " + cpLabel(rune(pair&0xFFFF))
}

func writeByteRows(buf *bytes.Buffer, b []byte) {
	for i := 0; i < len(b); i += 16 {
		end := i + 16
		if len(b) < end {
			end = len(b)
		}
		buf.WriteString("   ")
		for _, v := range b[i:end] {
			fmt.Fprintf(buf, " 0x%02X,", v)
		}
		buf.WriteString("\n")
	}
}

// WriteHeader emits the converted font as a C header for the reader
// firmware. The command line that produced the font goes into the banner so
// a conversion can be reproduced from the generated file alone.
func WriteHeader(w io.Writer, font *FontData, command string) error {
	buf := &bytes.Buffer{}

	mode := "1-bit"
	if font.Is2Bit {
		mode = "2-bit"
	}
	if len(font.Groups) != 0 {
		mode += "  compressed: true"
	}
	fmt.Fprintf(buf, "/**\n * generated by fontconvert\n * name: %s\n", font.Name)
	if len(font.Families) != 0 {
		fmt.Fprintf(buf, " * fonts: %s\n", strings.Join(font.Families, ", "))
	}
	fmt.Fprintf(buf, ` * size: %d
 * mode: %s
 * Command used: %s
 */
#pragma once
#include "EpdFontData.h"

`, font.Size, mode, command)

	fmt.Fprintf(buf, "static const uint8_t %sBitmaps[%d] = {\n", font.Name, len(font.Bitmaps))
	writeByteRows(buf, font.Bitmaps)
	buf.WriteString("};\n\n")

	fmt.Fprintf(buf, "static const EpdGlyph %sGlyphs[] = {\n", font.Name)
	if len(font.Groups) != 0 {
		for _, g := range font.GroupGlyphs {
			fmt.Fprintf(buf, "    { %d, %d, %d, %d, %d, %d, %d }, // %s\n",
				g.Width, g.Height, g.AdvanceX, g.Left, g.Top, g.DataLength, g.GroupOffset, cpLabel(g.Codepoint))
		}
	} else {
		for _, g := range font.Glyphs {
			fmt.Fprintf(buf, "    { %d, %d, %d, %d, %d, %d, %d }, // %s\n",
				g.Width, g.Height, g.AdvanceX, g.Left, g.Top, g.DataLength, g.DataOffset, cpLabel(g.Codepoint))
		}
	}
	buf.WriteString("};\n\n")

	fmt.Fprintf(buf, "static const EpdUnicodeInterval %sIntervals[] = {\n", font.Name)
	for _, interval := range font.Intervals {
		fmt.Fprintf(buf, "    { 0x%X, 0x%X, 0x%X },\n", interval.First, interval.Last, interval.Offset)
	}
	buf.WriteString("};\n\n")

	if len(font.Groups) != 0 {
		fmt.Fprintf(buf, "static const EpdFontGroup %sGroups[] = {\n", font.Name)
		for _, g := range font.Groups {
			fmt.Fprintf(buf, "    { %d, %d, %d, %d, %d },\n",
				g.CompressedOffset, g.CompressedLength, g.UncompressedLength, g.GlyphCount, g.FirstGlyphIndex)
		}
		buf.WriteString("};\n\n")
	}

	if font.KernTable != nil {
		kern := font.KernTable
		fmt.Fprintf(buf, "static const EpdKernClassEntry %sKernLeftClasses[] = {\n", font.Name)
		for _, entry := range kern.LeftClasses {
			fmt.Fprintf(buf, "    { 0x%04X, %d }, // %s\n", entry.Codepoint, entry.Class, cpLabel(entry.Codepoint))
		}
		buf.WriteString("};\n\n")

		fmt.Fprintf(buf, "static const EpdKernClassEntry %sKernRightClasses[] = {\n", font.Name)
		for _, entry := range kern.RightClasses {
			fmt.Fprintf(buf, "    { 0x%04X, %d }, // %s\n", entry.Codepoint, entry.Class, cpLabel(entry.Codepoint))
		}
		buf.WriteString("};\n\n")

		fmt.Fprintf(buf, "static const int8_t %sKernMatrix[] = {\n", font.Name)
		for row := 0; row < kern.LeftClassCount; row++ {
			buf.WriteString("    ")
			for col := 0; col < kern.RightClassCount; col++ {
				if 0 < col {
					buf.WriteString(", ")
				}
				fmt.Fprintf(buf, "%4d", kern.Matrix[row*kern.RightClassCount+col])
			}
			buf.WriteString(",\n")
		}
		buf.WriteString("};\n\n")
	} else if len(font.KernPairs) != 0 {
		fmt.Fprintf(buf, "static const EpdKernPair %sKernPairs[] = {\n", font.Name)
		for _, pair := range font.KernPairs {
			fmt.Fprintf(buf, "    { 0x%08X, %d }, // %s\n", pair.Pair, pair.Adjust, pairLabel(pair.Pair))
		}
		buf.WriteString("};\n\n")
	}

	if len(font.Ligatures) != 0 {
		fmt.Fprintf(buf, "static const EpdLigaturePair %sLigaturePairs[] = {\n", font.Name)
		for _, pair := range font.Ligatures {
			fmt.Fprintf(buf, "    { 0x%08X, 0x%04X }, // %s -> %s\n",
				pair.Pair, pair.Ligature, pairLabel(pair.Pair), cpLabel(pair.Ligature))
		}
		buf.WriteString("};\n\n")
	}

	fmt.Fprintf(buf, "static const EpdFontData %s = {\n", font.Name)
	fmt.Fprintf(buf, "    %sBitmaps,\n", font.Name)
	fmt.Fprintf(buf, "    %sGlyphs,\n", font.Name)
	fmt.Fprintf(buf, "    %sIntervals,\n", font.Name)
	fmt.Fprintf(buf, "    %d,\n", len(font.Intervals))
	fmt.Fprintf(buf, "    %d,\n", font.LineHeight)
	fmt.Fprintf(buf, "    %d,\n", font.Ascender)
	fmt.Fprintf(buf, "    %d,\n", font.Descender)
	if font.Is2Bit {
		buf.WriteString("    true,\n")
	} else {
		buf.WriteString("    false,\n")
	}
	if len(font.Groups) != 0 {
		fmt.Fprintf(buf, "    %sGroups,\n", font.Name)
		fmt.Fprintf(buf, "    %d,\n", len(font.Groups))
	} else {
		buf.WriteString("    nullptr,\n")
		buf.WriteString("    0,\n")
	}
	if font.KernTable != nil {
		kern := font.KernTable
		fmt.Fprintf(buf, "    %sKernLeftClasses,\n", font.Name)
		fmt.Fprintf(buf, "    %sKernRightClasses,\n", font.Name)
		fmt.Fprintf(buf, "    %sKernMatrix,\n", font.Name)
		fmt.Fprintf(buf, "    %d,\n", len(kern.LeftClasses))
		fmt.Fprintf(buf, "    %d,\n", len(kern.RightClasses))
		fmt.Fprintf(buf, "    %d,\n", kern.LeftClassCount)
		fmt.Fprintf(buf, "    %d,\n", kern.RightClassCount)
	} else if font.FlatKerning {
		if len(font.KernPairs) != 0 {
			fmt.Fprintf(buf, "    %sKernPairs,\n", font.Name)
			fmt.Fprintf(buf, "    %d,\n", len(font.KernPairs))
		} else {
			buf.WriteString("    nullptr,\n")
			buf.WriteString("    0,\n")
		}
	} else {
		buf.WriteString("    nullptr,\n")
		buf.WriteString("    nullptr,\n")
		buf.WriteString("    nullptr,\n")
		buf.WriteString("    0,\n")
		buf.WriteString("    0,\n")
		buf.WriteString("    0,\n")
		buf.WriteString("    0,\n")
	}
	if len(font.Ligatures) != 0 {
		fmt.Fprintf(buf, "    %sLigaturePairs,\n", font.Name)
		fmt.Fprintf(buf, "    %d,\n", len(font.Ligatures))
	} else {
		buf.WriteString("    nullptr,\n")
		buf.WriteString("    0,\n")
	}
	buf.WriteString("};\n")

	_, err := w.Write(buf.Bytes())
	return err
}
