package epdfont

import (
	"fmt"

	"github.com/tdewolff/parse/v2"
)

// GSUB lookup types used by the ligature extractor. Single, multiple,
// alternate and contextual substitutions don't describe plain many-to-one
// ligatures and are skipped.
const (
	gsubLigature  = 4
	gsubExtension = 7
)

type gsubTable struct {
	*layoutTable
}

func (sfnt *SFNT) parseGsub() error {
	b, ok := sfnt.Tables["GSUB"]
	if !ok {
		return fmt.Errorf("GSUB: missing table")
	}

	t, err := parseLayoutTable(b, "GSUB")
	if err != nil {
		return err
	}
	sfnt.Gsub = &gsubTable{t}
	return nil
}

// ligatureRule maps an input glyph sequence (two or more glyphs) to its
// substitute glyph.
type ligatureRule struct {
	Glyphs   []uint16
	Ligature uint16
}

// LigatureRules returns the rules of every LigatureSubst subtable registered
// under any of the given feature tags, in table order.
func (gsub *gsubTable) LigatureRules(tags ...string) ([]ligatureRule, error) {
	var rules []ligatureRule
	for _, index := range gsub.FeatureLookups(tags...) {
		lookup := gsub.Lookups[index]
		for _, subtable := range lookup.Subtables {
			kind, data, err := unwrapExtension(lookup.Type, gsubExtension, subtable, "GSUB")
			if err != nil {
				return nil, err
			} else if kind != gsubLigature {
				continue
			}
			if rules, err = parseLigatureSubst(data, rules); err != nil {
				return nil, err
			}
		}
	}
	return rules, nil
}

func parseLigatureSubst(b []byte, rules []ligatureRule) ([]ligatureRule, error) {
	if len(b) < 6 {
		return nil, fmt.Errorf("GSUB: bad LigatureSubst subtable")
	}

	r := parse.NewBinaryReader(b)
	if format := r.ReadUint16(); format != 1 {
		return nil, fmt.Errorf("GSUB: bad LigatureSubst format %d", format)
	}
	coverageOffset := r.ReadUint16()
	ligatureSetCount := r.ReadUint16()
	if r.Len() < 2*uint32(ligatureSetCount) || uint32(len(b)) < uint32(coverageOffset) {
		return nil, fmt.Errorf("GSUB: bad LigatureSubst subtable")
	}
	coverage, err := parseCoverage(b[coverageOffset:], "GSUB")
	if err != nil {
		return nil, err
	}

	for i := 0; i < int(ligatureSetCount); i++ {
		ligatureSetOffset := r.ReadUint16()
		if len(coverage) <= i {
			return nil, fmt.Errorf("GSUB: bad LigatureSubst coverage")
		} else if uint32(len(b)) < uint32(ligatureSetOffset)+2 {
			return nil, fmt.Errorf("GSUB: bad ligatureSet %d", i)
		}
		first := coverage[i]

		rs := parse.NewBinaryReader(b[ligatureSetOffset:])
		ligatureCount := rs.ReadUint16()
		if rs.Len() < 2*uint32(ligatureCount) {
			return nil, fmt.Errorf("GSUB: bad ligatureSet %d", i)
		}
		for j := 0; j < int(ligatureCount); j++ {
			ligatureOffset := uint32(ligatureSetOffset) + uint32(rs.ReadUint16())
			if uint32(len(b)) < ligatureOffset+4 {
				return nil, fmt.Errorf("GSUB: bad ligature %d of set %d", j, i)
			}
			rt := parse.NewBinaryReader(b[ligatureOffset:])
			ligatureGlyph := rt.ReadUint16()
			componentCount := rt.ReadUint16()
			if componentCount == 0 || rt.Len() < 2*(uint32(componentCount)-1) {
				return nil, fmt.Errorf("GSUB: bad ligature %d of set %d", j, i)
			}
			glyphs := make([]uint16, componentCount)
			glyphs[0] = first
			for k := 1; k < int(componentCount); k++ {
				glyphs[k] = rt.ReadUint16()
			}
			if 2 <= len(glyphs) {
				rules = append(rules, ligatureRule{Glyphs: glyphs, Ligature: ligatureGlyph})
			}
		}
	}
	return rules, nil
}
