package epdfont

import (
	"log"
	"sort"
)

// Interval is an inclusive Unicode range fully covered by the font stack.
// Offset is the index of the range's first glyph in the output glyph array,
// so a renderer finds the glyph of codepoint cp at Offset+(cp-First).
type Interval struct {
	First  rune
	Last   rune
	Offset uint32
}

// DefaultIntervals lists the Unicode ranges exported when no additional
// ranges are requested.
var DefaultIntervals = [][2]rune{
	{0x0000, 0x007F}, // Basic Latin
	{0x0080, 0x00FF}, // Latin-1 Supplement
	{0x0100, 0x017F}, // Latin Extended-A
	{0x2000, 0x206F}, // General Punctuation
	{0x2010, 0x203A}, // typographic dashes and quotes
	{0x2040, 0x205F}, // fractions and spacing
	{0x20A0, 0x20CF}, // Currency Symbols
	{0x0300, 0x036F}, // Combining Diacritical Marks
	{0x0400, 0x04FF}, // Cyrillic
	{0x2070, 0x209F}, // Superscripts and Subscripts
	{0x2200, 0x22FF}, // Mathematical Operators
	{0x2190, 0x21FF}, // Arrows
	{0xFB00, 0xFB06}, // Alphabetic Presentation Forms (ligatures)
	{0xFFFD, 0xFFFD}, // Replacement Character
}

// MergeIntervals sorts the requested ranges and coalesces overlapping or
// adjacent ones into a maximal disjoint set.
func MergeIntervals(ranges [][2]rune) [][2]rune {
	if len(ranges) == 0 {
		return nil
	}

	sorted := make([][2]rune, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i][0] != sorted[j][0] {
			return sorted[i][0] < sorted[j][0]
		}
		return sorted[i][1] < sorted[j][1]
	})

	merged := sorted[:1]
	for _, rng := range sorted[1:] {
		last := &merged[len(merged)-1]
		if rng[0] <= last[1]+1 {
			if last[1] < rng[1] {
				last[1] = rng[1]
			}
			continue
		}
		merged = append(merged, rng)
	}
	return merged
}

// ResolveIntervals merges the requested ranges and drops every codepoint that
// no font in the stack serves. It returns the covered intervals with output
// offsets assigned, plus the index of the serving font per covered codepoint.
// With strict set, dropped codepoints are reported on warn.
func ResolveIntervals(stack *FontStack, ranges [][2]rune, strict bool, warn *log.Logger) ([]Interval, map[rune]int) {
	var intervals []Interval
	served := map[rune]int{}
	var offset uint32
	add := func(first, last rune) {
		intervals = append(intervals, Interval{First: first, Last: last, Offset: offset})
		offset += uint32(last - first + 1)
	}

	for _, rng := range MergeIntervals(ranges) {
		start := rng[0]
		for cp := rng[0]; cp <= rng[1]; cp++ {
			if i, ok := stack.Serve(cp); ok {
				served[cp] = i
				continue
			}
			if strict && warn != nil {
				warn.Printf("codepoint %U not covered by any font", cp)
			}
			if start < cp {
				add(start, cp-1)
			}
			start = cp + 1
		}
		if start <= rng[1] {
			add(start, rng[1])
		}
	}
	return intervals, served
}
