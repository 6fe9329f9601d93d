package epdfont

import (
	"fmt"
	"sort"

	"github.com/tdewolff/parse/v2"
)

// Common plumbing for the GPOS and GSUB tables: both share the
// ScriptList/FeatureList/LookupList structure, coverage tables and class
// definition tables. See
// https://learn.microsoft.com/en-us/typography/opentype/spec/chapter2

type featureRecord struct {
	Tag           string
	LookupIndices []uint16
}

type layoutLookup struct {
	Type      uint16
	Flag      uint16
	Subtables [][]byte
}

type layoutTable struct {
	tag      string
	Features []featureRecord
	Lookups  []layoutLookup
}

// FeatureLookups returns the sorted, deduplicated lookup indices registered
// under any of the given feature tags.
func (t *layoutTable) FeatureLookups(tags ...string) []uint16 {
	seen := map[uint16]bool{}
	for _, feature := range t.Features {
		for _, tag := range tags {
			if feature.Tag == tag {
				for _, index := range feature.LookupIndices {
					seen[index] = true
				}
			}
		}
	}
	indices := make([]uint16, 0, len(seen))
	for index := range seen {
		if int(index) < len(t.Lookups) {
			indices = append(indices, index)
		}
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
	return indices
}

func parseLayoutTable(b []byte, tag string) (*layoutTable, error) {
	if len(b) < 10 {
		return nil, fmt.Errorf("%s: bad table", tag)
	}

	r := parse.NewBinaryReader(b)
	majorVersion := r.ReadUint16()
	minorVersion := r.ReadUint16()
	if majorVersion != 1 || 1 < minorVersion {
		return nil, fmt.Errorf("%s: bad version", tag)
	}
	_ = r.ReadUint16() // scriptListOffset
	featureListOffset := r.ReadUint16()
	lookupListOffset := r.ReadUint16()

	t := &layoutTable{tag: tag}

	// feature list
	if featureListOffset != 0 {
		if uint32(len(b)) < uint32(featureListOffset)+2 {
			return nil, fmt.Errorf("%s: bad featureList", tag)
		}
		rf := parse.NewBinaryReader(b[featureListOffset:])
		featureCount := rf.ReadUint16()
		if rf.Len() < 6*uint32(featureCount) {
			return nil, fmt.Errorf("%s: bad featureList", tag)
		}
		for i := 0; i < int(featureCount); i++ {
			featureTag := rf.ReadString(4)
			featureOffset := rf.ReadUint16()
			if uint32(len(b))-uint32(featureListOffset) < uint32(featureOffset)+4 {
				return nil, fmt.Errorf("%s: bad feature %d", tag, i)
			}
			rt := parse.NewBinaryReader(b[uint32(featureListOffset)+uint32(featureOffset):])
			_ = rt.ReadUint16() // featureParamsOffset
			lookupIndexCount := rt.ReadUint16()
			if rt.Len() < 2*uint32(lookupIndexCount) {
				return nil, fmt.Errorf("%s: bad feature %d", tag, i)
			}
			feature := featureRecord{Tag: featureTag}
			feature.LookupIndices = make([]uint16, lookupIndexCount)
			for j := 0; j < int(lookupIndexCount); j++ {
				feature.LookupIndices[j] = rt.ReadUint16()
			}
			t.Features = append(t.Features, feature)
		}
	}

	// lookup list
	if lookupListOffset != 0 {
		if uint32(len(b)) < uint32(lookupListOffset)+2 {
			return nil, fmt.Errorf("%s: bad lookupList", tag)
		}
		rl := parse.NewBinaryReader(b[lookupListOffset:])
		lookupCount := rl.ReadUint16()
		if rl.Len() < 2*uint32(lookupCount) {
			return nil, fmt.Errorf("%s: bad lookupList", tag)
		}
		for i := 0; i < int(lookupCount); i++ {
			lookupOffset := uint32(lookupListOffset) + uint32(rl.ReadUint16())
			if uint32(len(b)) < lookupOffset+6 {
				return nil, fmt.Errorf("%s: bad lookup %d", tag, i)
			}
			rt := parse.NewBinaryReader(b[lookupOffset:])
			lookup := layoutLookup{}
			lookup.Type = rt.ReadUint16()
			lookup.Flag = rt.ReadUint16()
			subtableCount := rt.ReadUint16()
			if rt.Len() < 2*uint32(subtableCount) {
				return nil, fmt.Errorf("%s: bad lookup %d", tag, i)
			}
			for j := 0; j < int(subtableCount); j++ {
				subtableOffset := lookupOffset + uint32(rt.ReadUint16())
				if uint32(len(b)) < subtableOffset {
					return nil, fmt.Errorf("%s: bad subtable %d of lookup %d", tag, j, i)
				}
				lookup.Subtables = append(lookup.Subtables, b[subtableOffset:])
			}
			t.Lookups = append(t.Lookups, lookup)
		}
	}
	return t, nil
}

// unwrapExtension resolves an Extension subtable (GPOS type 9, GSUB type 7)
// to its wrapped subtable kind and data. Non-extension lookups pass through.
func unwrapExtension(lookupType, extensionType uint16, b []byte, tag string) (uint16, []byte, error) {
	if lookupType != extensionType {
		return lookupType, b, nil
	}
	if len(b) < 8 {
		return 0, nil, fmt.Errorf("%s: bad extension subtable", tag)
	}
	r := parse.NewBinaryReader(b)
	if format := r.ReadUint16(); format != 1 {
		return 0, nil, fmt.Errorf("%s: bad extension format %d", tag, format)
	}
	innerType := r.ReadUint16()
	innerOffset := r.ReadUint32()
	if innerType == extensionType || uint32(len(b)) < innerOffset {
		return 0, nil, fmt.Errorf("%s: bad extension subtable", tag)
	}
	return innerType, b[innerOffset:], nil
}

// parseCoverage returns the covered glyphs in coverage-index order.
func parseCoverage(b []byte, tag string) ([]uint16, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("%s: bad coverage table", tag)
	}

	r := parse.NewBinaryReader(b)
	format := r.ReadUint16()
	if format == 1 {
		glyphCount := r.ReadUint16()
		if r.Len() < 2*uint32(glyphCount) {
			return nil, fmt.Errorf("%s: bad coverage table", tag)
		}
		glyphs := make([]uint16, glyphCount)
		for i := 0; i < int(glyphCount); i++ {
			glyphs[i] = r.ReadUint16()
		}
		return glyphs, nil
	} else if format == 2 {
		rangeCount := r.ReadUint16()
		if r.Len() < 6*uint32(rangeCount) {
			return nil, fmt.Errorf("%s: bad coverage table", tag)
		}
		var glyphs []uint16
		for i := 0; i < int(rangeCount); i++ {
			start := r.ReadUint16()
			end := r.ReadUint16()
			_ = r.ReadUint16() // startCoverageIndex
			if end < start {
				return nil, fmt.Errorf("%s: bad coverage range %d", tag, i)
			}
			for glyphID := uint32(start); glyphID <= uint32(end); glyphID++ {
				glyphs = append(glyphs, uint16(glyphID))
			}
		}
		return glyphs, nil
	}
	return nil, fmt.Errorf("%s: bad coverage format %d", tag, format)
}

type classRange struct {
	Start, End uint16
	Class      uint16
}

type classDef struct {
	Ranges []classRange // sorted by Start
}

// Get returns the glyph's class, or 0 when the glyph is in no class.
func (def *classDef) Get(glyphID uint16) uint16 {
	lo, hi := 0, len(def.Ranges)
	for lo < hi {
		mid := (lo + hi) / 2
		if def.Ranges[mid].End < glyphID {
			lo = mid + 1
		} else if glyphID < def.Ranges[mid].Start {
			hi = mid
		} else {
			return def.Ranges[mid].Class
		}
	}
	return 0
}

func parseClassDef(b []byte, tag string) (*classDef, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("%s: bad classDef table", tag)
	}

	def := &classDef{}
	r := parse.NewBinaryReader(b)
	format := r.ReadUint16()
	if format == 1 {
		startGlyphID := r.ReadUint16()
		glyphCount := r.ReadUint16()
		if r.Len() < 2*uint32(glyphCount) {
			return nil, fmt.Errorf("%s: bad classDef table", tag)
		}
		for i := 0; i < int(glyphCount); i++ {
			class := r.ReadUint16()
			if class != 0 {
				glyphID := startGlyphID + uint16(i)
				def.Ranges = append(def.Ranges, classRange{glyphID, glyphID, class})
			}
		}
	} else if format == 2 {
		classRangeCount := r.ReadUint16()
		if r.Len() < 6*uint32(classRangeCount) {
			return nil, fmt.Errorf("%s: bad classDef table", tag)
		}
		for i := 0; i < int(classRangeCount); i++ {
			start := r.ReadUint16()
			end := r.ReadUint16()
			class := r.ReadUint16()
			if end < start {
				return nil, fmt.Errorf("%s: bad classDef range %d", tag, i)
			}
			if class != 0 {
				def.Ranges = append(def.Ranges, classRange{start, end, class})
			}
		}
	} else {
		return nil, fmt.Errorf("%s: bad classDef format %d", tag, format)
	}
	sort.Slice(def.Ranges, func(i, j int) bool { return def.Ranges[i].Start < def.Ranges[j].Start })
	return def, nil
}
