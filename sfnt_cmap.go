package epdfont

import (
	"fmt"
	"sync"

	"github.com/tdewolff/parse/v2"
)

// MaxCmapSegments is the maximum number of cmap segments that will be accepted.
const MaxCmapSegments = 20000

type cmapFormat0 struct {
	GlyphIdArray [256]uint8

	unicodeMap map[uint16]rune
	once       sync.Once
}

func (subtable *cmapFormat0) Get(r rune) (uint16, bool) {
	if r < 0 || 256 <= r {
		return 0, false
	}
	return uint16(subtable.GlyphIdArray[r]), true
}

func (subtable *cmapFormat0) ToUnicode(glyphID uint16) (rune, bool) {
	if 256 <= glyphID {
		return 0, false
	}
	subtable.once.Do(func() {
		subtable.unicodeMap = make(map[uint16]rune, 256)
		for r, id := range subtable.GlyphIdArray {
			subtable.unicodeMap[uint16(id)] = rune(r)
		}
	})
	r, ok := subtable.unicodeMap[glyphID]
	return r, ok
}

type cmapFormat4 struct {
	StartCode     []uint16
	EndCode       []uint16
	IdDelta       []int16
	IdRangeOffset []uint16
	GlyphIdArray  []uint16

	unicodeMap map[uint16]rune
	once       sync.Once
}

func (subtable *cmapFormat4) Get(r rune) (uint16, bool) {
	if r < 0 || 65536 <= r {
		return 0, false
	}
	n := len(subtable.StartCode)
	for i := 0; i < n; i++ {
		if subtable.StartCode[i] <= uint16(r) && uint16(r) <= subtable.EndCode[i] {
			if subtable.IdRangeOffset[i] == 0 {
				// is modulo 65536 with the idDelta cast and addition overflow
				return uint16(subtable.IdDelta[i]) + uint16(r), true
			}
			// idRangeOffset/2  ->  offset value to index of words
			// r-startCode  ->  difference of rune with startCode
			// -(n-i)  ->  subtract offset from the current idRangeOffset item
			index := int(subtable.IdRangeOffset[i]/2) + int(uint16(r)-subtable.StartCode[i]) - (n - i)
			if index < 0 || len(subtable.GlyphIdArray) <= index {
				return 0, false
			}
			return subtable.GlyphIdArray[index], true
		}
	}
	return 0, false
}

func (subtable *cmapFormat4) ToUnicode(glyphID uint16) (rune, bool) {
	subtable.once.Do(func() {
		subtable.unicodeMap = map[uint16]rune{}
		n := len(subtable.StartCode)
		for i := 0; i < n; i++ {
			for r := rune(subtable.StartCode[i]); r <= rune(subtable.EndCode[i]); r++ {
				var id uint16
				if subtable.IdRangeOffset[i] == 0 {
					id = uint16(subtable.IdDelta[i]) + uint16(r)
				} else {
					index := int(subtable.IdRangeOffset[i]/2) + int(uint16(r)-subtable.StartCode[i]) - (n - i)
					if index < 0 || len(subtable.GlyphIdArray) <= index {
						continue
					}
					id = subtable.GlyphIdArray[index]
				}
				if _, ok := subtable.unicodeMap[id]; !ok {
					subtable.unicodeMap[id] = r
				}
			}
		}
	})
	r, ok := subtable.unicodeMap[glyphID]
	return r, ok
}

type cmapFormat6 struct {
	FirstCode    uint16
	GlyphIdArray []uint16
}

func (subtable *cmapFormat6) Get(r rune) (uint16, bool) {
	if r < int32(subtable.FirstCode) || uint32(len(subtable.GlyphIdArray)) <= uint32(r)-uint32(subtable.FirstCode) {
		return 0, false
	}
	return subtable.GlyphIdArray[uint32(r)-uint32(subtable.FirstCode)], true
}

func (subtable *cmapFormat6) ToUnicode(glyphID uint16) (rune, bool) {
	for i, id := range subtable.GlyphIdArray {
		if id == glyphID {
			return rune(subtable.FirstCode) + rune(i), true
		}
	}
	return 0, false
}

type cmapFormat12 struct {
	StartCharCode []uint32
	EndCharCode   []uint32
	StartGlyphID  []uint32

	unicodeMap map[uint16]rune
	once       sync.Once
}

func (subtable *cmapFormat12) Get(r rune) (uint16, bool) {
	if r < 0 {
		return 0, false
	}
	for i := 0; i < len(subtable.StartCharCode); i++ {
		if subtable.StartCharCode[i] <= uint32(r) && uint32(r) <= subtable.EndCharCode[i] {
			return uint16((uint32(r) - subtable.StartCharCode[i]) + subtable.StartGlyphID[i]), true
		}
	}
	return 0, false
}

func (subtable *cmapFormat12) ToUnicode(glyphID uint16) (rune, bool) {
	subtable.once.Do(func() {
		subtable.unicodeMap = map[uint16]rune{}
		for i := 0; i < len(subtable.StartCharCode); i++ {
			for r := subtable.StartCharCode[i]; r <= subtable.EndCharCode[i]; r++ {
				id := uint16((r - subtable.StartCharCode[i]) + subtable.StartGlyphID[i])
				if _, ok := subtable.unicodeMap[id]; !ok {
					subtable.unicodeMap[id] = rune(r)
				}
			}
		}
	})
	r, ok := subtable.unicodeMap[glyphID]
	return r, ok
}

type cmapSubtable interface {
	Get(rune) (uint16, bool)
	ToUnicode(uint16) (rune, bool)
}

type cmapTable struct {
	Subtables []cmapSubtable
}

// Get returns the glyph ID for the corresponding rune. It looks for each subtable in the order in which they appear and returns the first match, or 0 when no match is found.
func (cmap *cmapTable) Get(r rune) uint16 {
	for _, subtable := range cmap.Subtables {
		if glyphID, ok := subtable.Get(r); ok && glyphID != 0 {
			return glyphID
		}
	}
	return 0
}

// ToUnicode returns the rune for the corresponding glyph ID. It looks for each subtable in the order in which they appear and returns the first match, or 0 when no match is found.
func (cmap *cmapTable) ToUnicode(glyphID uint16) rune {
	for _, subtable := range cmap.Subtables {
		if r, ok := subtable.ToUnicode(glyphID); ok {
			return r
		}
	}
	return 0
}

func (sfnt *SFNT) parseCmap() error {
	if sfnt.Maxp == nil {
		return fmt.Errorf("cmap: missing maxp table")
	}

	b, ok := sfnt.Tables["cmap"]
	if !ok {
		return fmt.Errorf("cmap: missing table")
	} else if len(b) < 4 {
		return fmt.Errorf("cmap: bad table")
	}

	sfnt.Cmap = &cmapTable{}
	r := parse.NewBinaryReader(b)
	if r.ReadUint16() != 0 {
		return fmt.Errorf("cmap: bad version")
	}
	numTables := r.ReadUint16()
	if uint32(len(b)) < 4+8*uint32(numTables) {
		return fmt.Errorf("cmap: bad table")
	}

	// prefer the unicode encodings, in the order the records appear
	for j := 0; j < int(numTables); j++ {
		platformID := r.ReadUint16()
		encodingID := r.ReadUint16()
		offset := r.ReadUint32()
		if uint32(len(b))-8 < offset {
			return fmt.Errorf("cmap: bad subtable %d", j)
		}

		isUnicode := platformID == 0 ||
			platformID == 3 && (encodingID == 1 || encodingID == 10) ||
			platformID == 1 && encodingID == 0
		if !isUnicode {
			continue
		}

		subtable, err := parseCmapSubtable(b[offset:], j)
		if err != nil {
			return err
		} else if subtable != nil {
			sfnt.Cmap.Subtables = append(sfnt.Cmap.Subtables, subtable)
		}
	}
	if len(sfnt.Cmap.Subtables) == 0 {
		return fmt.Errorf("cmap: no supported unicode subtable")
	}
	return nil
}

// parseCmapSubtable parses one cmap subtable. Formats other than 0, 4, 6 and
// 12 carry no plain unicode mapping we can use and are skipped.
func parseCmapSubtable(b []byte, j int) (cmapSubtable, error) {
	if len(b) < 2 {
		return nil, fmt.Errorf("cmap: bad subtable %d", j)
	}

	rs := parse.NewBinaryReader(b)
	format := rs.ReadUint16()
	switch format {
	case 0:
		if len(b) < 6+256 {
			return nil, fmt.Errorf("cmap: bad subtable %d", j)
		}
		_ = rs.ReadUint16() // length
		_ = rs.ReadUint16() // language
		subtable := &cmapFormat0{}
		copy(subtable.GlyphIdArray[:], rs.ReadBytes(256))
		return subtable, nil
	case 4:
		if len(b) < 14 {
			return nil, fmt.Errorf("cmap: bad subtable %d", j)
		}
		length := uint32(rs.ReadUint16())
		if uint32(len(b)) < length || length < 14 {
			return nil, fmt.Errorf("cmap: bad subtable %d", j)
		}
		_ = rs.ReadUint16() // language
		segCountX2 := rs.ReadUint16()
		if segCountX2%2 != 0 || MaxCmapSegments < segCountX2/2 {
			return nil, fmt.Errorf("cmap: bad segCount for subtable %d", j)
		}
		segCount := int(segCountX2 / 2)
		if length < 16+8*uint32(segCount) {
			return nil, fmt.Errorf("cmap: bad subtable %d", j)
		}
		_ = rs.ReadUint16() // searchRange
		_ = rs.ReadUint16() // entrySelector
		_ = rs.ReadUint16() // rangeShift

		subtable := &cmapFormat4{
			StartCode:     make([]uint16, segCount),
			EndCode:       make([]uint16, segCount),
			IdDelta:       make([]int16, segCount),
			IdRangeOffset: make([]uint16, segCount),
		}
		for i := 0; i < segCount; i++ {
			subtable.EndCode[i] = rs.ReadUint16()
		}
		_ = rs.ReadUint16() // reservedPad
		for i := 0; i < segCount; i++ {
			subtable.StartCode[i] = rs.ReadUint16()
		}
		for i := 0; i < segCount; i++ {
			subtable.IdDelta[i] = rs.ReadInt16()
		}
		for i := 0; i < segCount; i++ {
			subtable.IdRangeOffset[i] = rs.ReadUint16()
		}
		numWords := (length - rs.Pos()) / 2
		subtable.GlyphIdArray = make([]uint16, numWords)
		for i := 0; i < int(numWords); i++ {
			subtable.GlyphIdArray[i] = rs.ReadUint16()
		}
		return subtable, nil
	case 6:
		if len(b) < 10 {
			return nil, fmt.Errorf("cmap: bad subtable %d", j)
		}
		_ = rs.ReadUint16() // length
		_ = rs.ReadUint16() // language
		subtable := &cmapFormat6{}
		subtable.FirstCode = rs.ReadUint16()
		entryCount := rs.ReadUint16()
		if uint32(len(b)) < 10+2*uint32(entryCount) {
			return nil, fmt.Errorf("cmap: bad subtable %d", j)
		}
		subtable.GlyphIdArray = make([]uint16, entryCount)
		for i := 0; i < int(entryCount); i++ {
			subtable.GlyphIdArray[i] = rs.ReadUint16()
		}
		return subtable, nil
	case 12:
		if len(b) < 16 {
			return nil, fmt.Errorf("cmap: bad subtable %d", j)
		}
		_ = rs.ReadUint16() // reserved
		length := rs.ReadUint32()
		if uint32(len(b)) < length || length < 16 {
			return nil, fmt.Errorf("cmap: bad subtable %d", j)
		}
		_ = rs.ReadUint32() // language
		numGroups := rs.ReadUint32()
		if MaxCmapSegments < numGroups || length < 16+12*numGroups {
			return nil, fmt.Errorf("cmap: bad numGroups for subtable %d", j)
		}
		subtable := &cmapFormat12{
			StartCharCode: make([]uint32, numGroups),
			EndCharCode:   make([]uint32, numGroups),
			StartGlyphID:  make([]uint32, numGroups),
		}
		for i := 0; i < int(numGroups); i++ {
			subtable.StartCharCode[i] = rs.ReadUint32()
			subtable.EndCharCode[i] = rs.ReadUint32()
			subtable.StartGlyphID[i] = rs.ReadUint32()
			if subtable.EndCharCode[i] < subtable.StartCharCode[i] {
				return nil, fmt.Errorf("cmap: bad subtable %d", j)
			}
		}
		return subtable, nil
	}
	// formats 2, 8, 10, 13 and 14 don't add plain unicode mappings
	return nil, nil
}
