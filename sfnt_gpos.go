package epdfont

import (
	"fmt"
	"math/bits"

	"github.com/tdewolff/parse/v2"
)

// GPOS lookup types used by the kerning extractor. Other positioning kinds
// (cursive attachment, mark positioning, contextual) carry no plain pair
// advance and are skipped.
const (
	gposPairAdjustment = 2
	gposExtension      = 9
)

type gposTable struct {
	*layoutTable
}

func (sfnt *SFNT) parseGpos() error {
	b, ok := sfnt.Tables["GPOS"]
	if !ok {
		return fmt.Errorf("GPOS: missing table")
	}

	t, err := parseLayoutTable(b, "GPOS")
	if err != nil {
		return err
	}
	sfnt.Gpos = &gposTable{t}
	return nil
}

// PairAdjustments calls add with the x-advance adjustment of every glyph pair
// covered by a PairPos subtable registered under the "kern" feature, for every
// pair whose both glyphs are in the given candidate list. Values of multiple
// subtables for the same pair accumulate through repeated calls; zero
// adjustments are not reported.
func (gpos *gposTable) PairAdjustments(glyphs []uint16, add func(left, right uint16, xAdvance int16)) error {
	include := make(map[uint16]bool, len(glyphs))
	for _, glyphID := range glyphs {
		include[glyphID] = true
	}

	for _, index := range gpos.FeatureLookups("kern") {
		lookup := gpos.Lookups[index]
		for _, subtable := range lookup.Subtables {
			kind, data, err := unwrapExtension(lookup.Type, gposExtension, subtable, "GPOS")
			if err != nil {
				return err
			} else if kind != gposPairAdjustment {
				continue
			}
			if err := parsePairPos(data, glyphs, include, add); err != nil {
				return err
			}
		}
	}
	return nil
}

func valueRecordSize(format uint16) uint32 {
	return 2 * uint32(bits.OnesCount16(format))
}

// readXAdvance reads a value record and returns its x-advance field, zero
// when the value format has none.
func readXAdvance(r *parse.BinaryReader, format uint16) int16 {
	var xAdvance int16
	if format&0x0001 != 0 { // xPlacement
		_ = r.ReadInt16()
	}
	if format&0x0002 != 0 { // yPlacement
		_ = r.ReadInt16()
	}
	if format&0x0004 != 0 { // xAdvance
		xAdvance = r.ReadInt16()
	}
	if format&0x0008 != 0 { // yAdvance
		_ = r.ReadInt16()
	}
	for mask := uint16(0x0010); mask <= 0x0080; mask <<= 1 { // device table offsets
		if format&mask != 0 {
			_ = r.ReadUint16()
		}
	}
	return xAdvance
}

// parsePairPos decodes a PairPos subtable, dispatching on its format:
// format 1 stores explicit per-glyph pair sets, format 2 a class matrix.
func parsePairPos(b []byte, glyphs []uint16, include map[uint16]bool, add func(left, right uint16, xAdvance int16)) error {
	if len(b) < 2 {
		return fmt.Errorf("GPOS: bad PairPos subtable")
	}

	r := parse.NewBinaryReader(b)
	format := r.ReadUint16()
	switch format {
	case 1:
		if len(b) < 10 {
			return fmt.Errorf("GPOS: bad PairPos subtable")
		}
		coverageOffset := r.ReadUint16()
		valueFormat1 := r.ReadUint16()
		valueFormat2 := r.ReadUint16()
		pairSetCount := r.ReadUint16()
		if r.Len() < 2*uint32(pairSetCount) || uint32(len(b)) < uint32(coverageOffset) {
			return fmt.Errorf("GPOS: bad PairPos subtable")
		}
		coverage, err := parseCoverage(b[coverageOffset:], "GPOS")
		if err != nil {
			return err
		}
		recordSize := 2 + valueRecordSize(valueFormat1) + valueRecordSize(valueFormat2)
		for i, left := range coverage {
			if int(pairSetCount) <= i {
				return fmt.Errorf("GPOS: bad PairPos coverage")
			}
			pairSetOffset := r.ReadUint16() // pairSetOffsets[i]
			if !include[left] {
				continue
			}
			if uint32(len(b)) < uint32(pairSetOffset)+2 {
				return fmt.Errorf("GPOS: bad pairSet %d", i)
			}
			rs := parse.NewBinaryReader(b[pairSetOffset:])
			pairValueCount := rs.ReadUint16()
			if rs.Len() < uint32(pairValueCount)*recordSize {
				return fmt.Errorf("GPOS: bad pairSet %d", i)
			}
			for j := 0; j < int(pairValueCount); j++ {
				right := rs.ReadUint16()
				xAdvance := readXAdvance(rs, valueFormat1)
				_ = rs.ReadBytes(valueRecordSize(valueFormat2))
				if include[right] && xAdvance != 0 {
					add(left, right, xAdvance)
				}
			}
		}
	case 2:
		if len(b) < 16 {
			return fmt.Errorf("GPOS: bad PairPos subtable")
		}
		coverageOffset := r.ReadUint16()
		valueFormat1 := r.ReadUint16()
		valueFormat2 := r.ReadUint16()
		classDef1Offset := r.ReadUint16()
		classDef2Offset := r.ReadUint16()
		class1Count := r.ReadUint16()
		class2Count := r.ReadUint16()
		if uint32(len(b)) < uint32(coverageOffset) || uint32(len(b)) < uint32(classDef1Offset) || uint32(len(b)) < uint32(classDef2Offset) {
			return fmt.Errorf("GPOS: bad PairPos subtable")
		}
		recordSize := valueRecordSize(valueFormat1) + valueRecordSize(valueFormat2)
		matrixLength := uint32(class1Count) * uint32(class2Count) * recordSize
		if uint32(len(b))-16 < matrixLength {
			return fmt.Errorf("GPOS: bad PairPos subtable")
		}
		coverage, err := parseCoverage(b[coverageOffset:], "GPOS")
		if err != nil {
			return err
		}
		classDef1, err := parseClassDef(b[classDef1Offset:], "GPOS")
		if err != nil {
			return err
		}
		classDef2, err := parseClassDef(b[classDef2Offset:], "GPOS")
		if err != nil {
			return err
		}
		covered := make(map[uint16]bool, len(coverage))
		for _, glyphID := range coverage {
			covered[glyphID] = true
		}
		for _, left := range glyphs {
			if !covered[left] {
				continue
			}
			class1 := classDef1.Get(left)
			if class1Count <= class1 {
				continue
			}
			for _, right := range glyphs {
				class2 := classDef2.Get(right)
				if class2Count <= class2 {
					continue
				}
				offset := 16 + (uint32(class1)*uint32(class2Count)+uint32(class2))*recordSize
				rs := parse.NewBinaryReader(b[offset:])
				if xAdvance := readXAdvance(rs, valueFormat1); xAdvance != 0 {
					add(left, right, xAdvance)
				}
			}
		}
	default:
		return fmt.Errorf("GPOS: bad PairPos format %d", format)
	}
	return nil
}
