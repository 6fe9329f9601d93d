package epdfont

import (
	"testing"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/test"
)

// pairPosFormat1 builds a PairPos format 1 subtable with one covered left
// glyph and explicit (right glyph, xAdvance) records.
func pairPosFormat1(left uint16, records [][2]int) []byte {
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(1)      // format
	w.WriteUint16(12)     // coverageOffset
	w.WriteUint16(0x0004) // valueFormat1, xAdvance only
	w.WriteUint16(0)      // valueFormat2
	w.WriteUint16(1)      // pairSetCount
	w.WriteUint16(18)     // pairSetOffsets[0]

	w.WriteUint16(1) // coverage format
	w.WriteUint16(1)
	w.WriteUint16(left)

	w.WriteUint16(uint16(len(records)))
	for _, record := range records {
		w.WriteUint16(uint16(record[0]))
		w.WriteInt16(int16(record[1]))
	}
	return w.Bytes()
}

// pairPosFormat2 builds a PairPos format 2 subtable with two left and two
// right classes and a single non-zero matrix cell at [1][1].
func pairPosFormat2(left, right uint16, xAdvance int16) []byte {
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(2)      // format
	w.WriteUint16(24)     // coverageOffset
	w.WriteUint16(0x0004) // valueFormat1
	w.WriteUint16(0)      // valueFormat2
	w.WriteUint16(30)     // classDef1Offset
	w.WriteUint16(38)     // classDef2Offset
	w.WriteUint16(2)      // class1Count
	w.WriteUint16(2)      // class2Count

	w.WriteInt16(0) // class matrix
	w.WriteInt16(0)
	w.WriteInt16(0)
	w.WriteInt16(xAdvance)

	w.WriteUint16(1) // coverage format
	w.WriteUint16(1)
	w.WriteUint16(left)

	w.WriteUint16(1) // classDef format
	w.WriteUint16(left)
	w.WriteUint16(1)
	w.WriteUint16(1)

	w.WriteUint16(1)
	w.WriteUint16(right)
	w.WriteUint16(1)
	w.WriteUint16(1)
	return w.Bytes()
}

func kernGpos(lookupType uint16, sub []byte) *gposTable {
	return &gposTable{&layoutTable{
		tag:      "GPOS",
		Features: []featureRecord{{Tag: "kern", LookupIndices: []uint16{0}}},
		Lookups:  []layoutLookup{{Type: lookupType, Subtables: [][]byte{sub}}},
	}}
}

func TestGposPairPosFormat1(t *testing.T) {
	gpos := kernGpos(gposPairAdjustment, pairPosFormat1(1, [][2]int{{2, -50}, {3, -30}, {4, -10}}))

	got := map[uint32]int16{}
	err := gpos.PairAdjustments([]uint16{1, 2, 3}, func(left, right uint16, xAdvance int16) {
		got[uint32(left)<<16|uint32(right)] += xAdvance
	})
	test.Error(t, err)
	test.T(t, len(got), 2) // glyph 4 is not a candidate
	test.T(t, got[1<<16|2], int16(-50))
	test.T(t, got[1<<16|3], int16(-30))
}

func TestGposPairPosFormat2(t *testing.T) {
	gpos := kernGpos(gposPairAdjustment, pairPosFormat2(1, 2, -40))

	got := map[uint32]int16{}
	err := gpos.PairAdjustments([]uint16{1, 2}, func(left, right uint16, xAdvance int16) {
		got[uint32(left)<<16|uint32(right)] += xAdvance
	})
	test.Error(t, err)
	test.T(t, len(got), 1) // the zero cells are never reported
	test.T(t, got[1<<16|2], int16(-40))
}

func TestGposExtension(t *testing.T) {
	inner := pairPosFormat1(1, [][2]int{{2, -50}})
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(1) // extension format
	w.WriteUint16(gposPairAdjustment)
	w.WriteUint32(8) // extensionOffset
	w.WriteBytes(inner)
	gpos := kernGpos(gposExtension, w.Bytes())

	got := map[uint32]int16{}
	err := gpos.PairAdjustments([]uint16{1, 2}, func(left, right uint16, xAdvance int16) {
		got[uint32(left)<<16|uint32(right)] += xAdvance
	})
	test.Error(t, err)
	test.T(t, got[1<<16|2], int16(-50))
}

func TestParseGpos(t *testing.T) {
	sub := pairPosFormat1(1, [][2]int{{2, -50}})

	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(1) // majorVersion
	w.WriteUint16(0) // minorVersion
	w.WriteUint16(0) // scriptListOffset
	w.WriteUint16(10)
	w.WriteUint16(24)

	// featureList
	w.WriteUint16(1)
	w.WriteString("kern")
	w.WriteUint16(8)
	w.WriteUint16(0) // featureParamsOffset
	w.WriteUint16(1)
	w.WriteUint16(0)

	// lookupList
	w.WriteUint16(1)
	w.WriteUint16(4)
	w.WriteUint16(gposPairAdjustment)
	w.WriteUint16(0) // lookupFlag
	w.WriteUint16(1)
	w.WriteUint16(8)
	w.WriteBytes(sub)

	sfnt := &SFNT{Tables: map[string][]byte{"GPOS": w.Bytes()}}
	test.Error(t, sfnt.parseGpos())
	test.T(t, len(sfnt.Gpos.Features), 1)
	test.T(t, sfnt.Gpos.Features[0].Tag, "kern")
	test.T(t, len(sfnt.Gpos.Lookups), 1)

	got := map[uint32]int16{}
	err := sfnt.Gpos.PairAdjustments([]uint16{1, 2}, func(left, right uint16, xAdvance int16) {
		got[uint32(left)<<16|uint32(right)] += xAdvance
	})
	test.Error(t, err)
	test.T(t, got[1<<16|2], int16(-50))
}
