package epdfont

import (
	"log"
	"math"
	"sort"
)

// Combining marks have zero advance and must not take part in pair
// adjustments.
const (
	combiningMarksFirst = 0x0300
	combiningMarksLast  = 0x036F
)

// KernClassEntry maps a codepoint to its kerning class. Class ids start at 1.
type KernClassEntry struct {
	Codepoint rune
	Class     uint16
}

// KernPair is a flat-mode kerning entry. Pair packs left<<16|right.
type KernPair struct {
	Pair   uint32
	Adjust int8
}

// KernTable is the class-compressed kerning table. The matrix holds
// LeftClassCount*RightClassCount pixel adjustments in row-major order, with
// row and column indices being class id minus one.
type KernTable struct {
	LeftClasses     []KernClassEntry
	RightClasses    []KernClassEntry
	Matrix          []int8
	LeftClassCount  int
	RightClassCount int
}

func packPair(left, right rune) uint32 {
	return uint32(left)<<16 | uint32(right)&0xFFFF
}

func inRanges(cp rune, ranges [][2]rune) bool {
	for _, rng := range ranges {
		if rng[0] <= cp && cp <= rng[1] {
			return true
		}
	}
	return false
}

// ExtractKerning collects pair adjustments for every covered codepoint from
// the legacy kern table and the GPOS kern feature of the font serving it.
// Design-unit values accumulate across subtables, then scale to whole pixels
// at the given ppem. Zero adjustments are dropped and the rest clamp to the
// int8 range. Combining marks and other zero-advance glyphs never kern, and a
// non-empty scope further restricts which codepoints are eligible. When two
// fonts yield the same pair, the earlier font in the stack wins, and when two
// codepoints share a glyph the lowest codepoint carries the pair.
func ExtractKerning(stack *FontStack, served map[rune]int, scope [][2]rune, ppem float64) (map[uint32]int8, error) {
	fontCps := make([][]rune, len(stack.Fonts))
	for cp, i := range served {
		if combiningMarksFirst <= cp && cp <= combiningMarksLast {
			continue
		} else if len(scope) != 0 && !inRanges(cp, scope) {
			continue
		}
		fontCps[i] = append(fontCps[i], cp)
	}

	kern := map[uint32]int8{}
	for i, f := range stack.Fonts {
		if len(fontCps[i]) == 0 {
			continue
		}
		sort.Slice(fontCps[i], func(a, b int) bool {
			return fontCps[i][a] < fontCps[i][b]
		})

		glyphToCp := map[uint16]rune{}
		glyphs := make([]uint16, 0, len(fontCps[i]))
		for _, cp := range fontCps[i] {
			gid := f.SFNT.GlyphIndex(cp)
			if gid == 0 || f.SFNT.NumGlyphs() <= gid {
				continue
			} else if _, ok := glyphToCp[gid]; ok {
				// shared glyph, the lowest codepoint already carries it
				continue
			} else if f.SFNT.GlyphAdvance(gid) == 0 {
				// zero-advance glyphs are marks outside the combining range
				continue
			}
			glyphToCp[gid] = cp
			glyphs = append(glyphs, gid)
		}

		// raw design-unit adjustments per glyph pair
		raw := map[uint32]int{}
		add := func(left, right uint16, value int16) {
			if _, ok := glyphToCp[left]; !ok {
				return
			} else if _, ok := glyphToCp[right]; !ok {
				return
			}
			raw[uint32(left)<<16|uint32(right)] += int(value)
		}
		if f.SFNT.Kern != nil {
			for _, left := range glyphs {
				for _, right := range glyphs {
					if value := f.SFNT.Kern.Get(left, right); value != 0 {
						add(left, right, value)
					}
				}
			}
		}
		if f.SFNT.Gpos != nil {
			if err := f.SFNT.Gpos.PairAdjustments(glyphs, add); err != nil {
				return nil, err
			}
		}

		scale := ppem / float64(f.SFNT.UnitsPerEm())
		for key, du := range raw {
			adjust := int(math.Floor(float64(du) * scale))
			if adjust == 0 {
				continue
			} else if adjust < math.MinInt8 {
				adjust = math.MinInt8
			} else if math.MaxInt8 < adjust {
				adjust = math.MaxInt8
			}
			pair := packPair(glyphToCp[uint16(key>>16)], glyphToCp[uint16(key)])
			if _, ok := kern[pair]; !ok {
				kern[pair] = int8(adjust)
			}
		}
	}
	return kern, nil
}

// CompressKernClasses partitions the left and right codepoints of the pair
// map into equivalence classes. Two left codepoints merge when their
// adjustment rows over all right codepoints are identical, and symmetrically
// for right codepoints over columns. Class ids are assigned in first-seen
// order over ascending codepoints, so reruns produce identical tables.
func CompressKernClasses(kern map[uint32]int8, warn *log.Logger) *KernTable {
	if len(kern) == 0 {
		return nil
	}

	leftSet := map[rune]bool{}
	rightSet := map[rune]bool{}
	for pair := range kern {
		leftSet[rune(pair>>16)] = true
		rightSet[rune(pair&0xFFFF)] = true
	}
	lefts := sortedRunes(leftSet)
	rights := sortedRunes(rightSet)

	table := &KernTable{}
	leftClass := map[rune]uint16{}
	profileClass := map[string]uint16{}
	for _, lcp := range lefts {
		profile := make([]byte, len(rights))
		for j, rcp := range rights {
			profile[j] = byte(kern[packPair(lcp, rcp)])
		}
		class, ok := profileClass[string(profile)]
		if !ok {
			table.LeftClassCount++
			class = uint16(table.LeftClassCount)
			profileClass[string(profile)] = class
		}
		leftClass[lcp] = class
		table.LeftClasses = append(table.LeftClasses, KernClassEntry{Codepoint: lcp, Class: class})
	}

	rightClass := map[rune]uint16{}
	profileClass = map[string]uint16{}
	for _, rcp := range rights {
		profile := make([]byte, len(lefts))
		for j, lcp := range lefts {
			profile[j] = byte(kern[packPair(lcp, rcp)])
		}
		class, ok := profileClass[string(profile)]
		if !ok {
			table.RightClassCount++
			class = uint16(table.RightClassCount)
			profileClass[string(profile)] = class
		}
		rightClass[rcp] = class
		table.RightClasses = append(table.RightClasses, KernClassEntry{Codepoint: rcp, Class: class})
	}

	if (255 < table.LeftClassCount || 255 < table.RightClassCount) && warn != nil {
		warn.Printf("kerning class count exceeds uint8 range (left=%d, right=%d)", table.LeftClassCount, table.RightClassCount)
	}

	table.Matrix = make([]int8, table.LeftClassCount*table.RightClassCount)
	for pair, adjust := range kern {
		lc := int(leftClass[rune(pair>>16)]) - 1
		rc := int(rightClass[rune(pair&0xFFFF)]) - 1
		table.Matrix[lc*table.RightClassCount+rc] = adjust
	}
	return table
}

// FlattenKernPairs emits the pair map as a flat array strictly ascending by
// packed key for binary search.
func FlattenKernPairs(kern map[uint32]int8) []KernPair {
	pairs := make([]KernPair, 0, len(kern))
	for pair, adjust := range kern {
		pairs = append(pairs, KernPair{Pair: pair, Adjust: adjust})
	}
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].Pair < pairs[j].Pair
	})
	return pairs
}

func sortedRunes(set map[rune]bool) []rune {
	runes := make([]rune, 0, len(set))
	for cp := range set {
		runes = append(runes, cp)
	}
	sort.Slice(runes, func(i, j int) bool {
		return runes[i] < runes[j]
	})
	return runes
}
