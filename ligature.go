package epdfont

import (
	"log"
	"sort"
)

// LigaturePair maps a packed codepoint pair (left<<16|right) to the
// codepoint of its ligature glyph. Multi-character ligatures chain through
// intermediate pairs, so the table stays strictly pairwise.
type LigaturePair struct {
	Pair     uint32
	Ligature rune
}

// Ligature codepoints of the Alphabetic Presentation Forms block for known
// input sequences. Used as a fallback when the substitute glyph has no cmap
// entry.
var standardLigatures = map[string]rune{
	"ff":  0xFB00, // ff
	"fi":  0xFB01, // fi
	"fl":  0xFB02, // fl
	"ffi": 0xFB03, // ffi
	"ffl": 0xFB04, // ffl
	"ſt":  0xFB05, // long s + t
	"st":  0xFB06, // st
}

// ligatureFeatures names the GSUB features extracted. Discretionary (dlig)
// and historical (hlig) ligatures are off by default in text renderers and
// are left out.
var ligatureFeatures = []string{"liga", "rlig"}

// ExtractLigatures collects ligature substitution pairs from the GSUB tables
// of the font stack. Only ligatures whose input codepoints are all served by
// the same font and whose output codepoint is covered survive. Sequences of
// three or more codepoints resolve shortest first, so a longer chain can use
// the pair emitted for its prefix. Across fonts the first discovery of a
// pair wins, and the result is strictly ascending by packed key.
func ExtractLigatures(stack *FontStack, served map[rune]int, warn *log.Logger) ([]LigaturePair, error) {
	covered := map[rune]bool{}
	fontCps := make([]map[rune]bool, len(stack.Fonts))
	for i := range fontCps {
		fontCps[i] = map[rune]bool{}
	}
	for cp, i := range served {
		covered[cp] = true
		if cp < combiningMarksFirst || combiningMarksLast < cp {
			fontCps[i][cp] = true
		}
	}

	seen := map[uint32]bool{}
	var pairs []LigaturePair
	for i, f := range stack.Fonts {
		if f.SFNT.Gsub == nil || len(fontCps[i]) == 0 {
			continue
		}
		fontPairs, err := extractFontLigatures(f, fontCps[i], covered, warn)
		if err != nil {
			return nil, err
		}
		for _, pair := range fontPairs {
			if !seen[pair.Pair] {
				seen[pair.Pair] = true
				pairs = append(pairs, pair)
			}
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].Pair < pairs[j].Pair
	})
	return pairs, nil
}

func extractFontLigatures(f *Font, cps, covered map[rune]bool, warn *log.Logger) ([]LigaturePair, error) {
	rules, err := f.SFNT.Gsub.LigatureRules(ligatureFeatures...)
	if err != nil {
		return nil, err
	}

	// sequence of input codepoints to ligature codepoint
	resolved := map[string]rune{}
	var seqs []string
	for _, rule := range rules {
		seq := make([]rune, len(rule.Glyphs))
		valid := true
		for j, gid := range rule.Glyphs {
			if seq[j] = f.SFNT.ToUnicode(gid); seq[j] == 0 {
				valid = false
				break
			}
		}
		if !valid {
			continue
		}

		lig := f.SFNT.ToUnicode(rule.Ligature)
		if lig == 0 {
			if std, ok := standardLigatures[string(seq)]; ok {
				lig = std
			} else if warn != nil {
				warn.Printf("ligatures: dropping %s: substitute glyph %d has no cmap entry", seqLabel(seq), rule.Ligature)
				continue
			} else {
				continue
			}
		}
		if !covered[lig] {
			continue
		}
		ok := true
		for _, cp := range seq {
			if !cps[cp] {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		if _, ok := resolved[string(seq)]; !ok {
			resolved[string(seq)] = lig
			seqs = append(seqs, string(seq))
		}
	}

	// resolve shortest sequences first so longer chains find the ligature
	// emitted for their prefix
	sort.Slice(seqs, func(i, j int) bool {
		ri, rj := []rune(seqs[i]), []rune(seqs[j])
		if len(ri) != len(rj) {
			return len(ri) < len(rj)
		}
		return seqs[i] < seqs[j]
	})

	var pairs []LigaturePair
	emitted := map[string]rune{}
	for _, key := range seqs {
		seq := []rune(key)
		lig := resolved[key]
		if len(seq) == 2 {
			pairs = append(pairs, LigaturePair{Pair: packPair(seq[0], seq[1]), Ligature: lig})
			emitted[key] = lig
			continue
		}
		intermediate, ok := emitted[string(seq[:len(seq)-1])]
		if !ok {
			if warn != nil {
				warn.Printf("ligatures: skipping %d-char ligature %s -> %U: no intermediate ligature for prefix", len(seq), seqLabel(seq), lig)
			}
			continue
		}
		pairs = append(pairs, LigaturePair{Pair: packPair(intermediate, seq[len(seq)-1]), Ligature: lig})
		emitted[key] = lig
	}
	return pairs, nil
}

func seqLabel(seq []rune) string {
	s := ""
	for i, cp := range seq {
		if 0 < i {
			s += ", "
		}
		s += cpLabel(cp)
	}
	return "(" + s + ")"
}
