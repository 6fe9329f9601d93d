package epdfont

import (
	"fmt"
	"log"
	"path/filepath"
)

// Options control a font conversion.
type Options struct {
	Name        string    // C identifier prefix for the emitted tables
	Size        int       // point size
	DPI         float64   // render resolution, 150 when zero
	Is2Bit      bool      // 2-bit grayscale instead of 1-bit bitmaps
	Compress    bool      // group and DEFLATE the glyph bitmaps
	FlatKerning bool      // emit a flat pair table instead of kerning classes
	Intervals   [][2]rune // additional codepoint ranges on top of the defaults
	KernScope   [][2]rune // when non-empty, only these ranges take part in kerning
	Strict      bool      // report every codepoint dropped for lack of coverage
	Thresholds  Thresholds
}

// FontData is a converted font ready for emission. Exactly one of Glyphs or
// GroupGlyphs is set, and at most one of KernTable or KernPairs.
type FontData struct {
	Name        string
	Families    []string
	Size        int
	Is2Bit      bool
	FlatKerning bool
	Intervals   []Interval
	Glyphs      []Glyph
	GroupGlyphs []GroupGlyph
	Groups      []Group
	Bitmaps     []byte
	KernTable   *KernTable
	KernPairs   []KernPair
	Ligatures   []LigaturePair
	LineHeight  int
	Ascender    int
	Descender   int
}

// Convert loads the given font files as a priority-ordered stack and runs the
// full conversion pipeline. Non-fatal diagnostics go to warn when set.
func Convert(paths []string, opts Options, warn *log.Logger) (*FontData, error) {
	if opts.Size <= 0 {
		return nil, fmt.Errorf("bad font size %d", opts.Size)
	}
	dpi := opts.DPI
	if dpi == 0.0 {
		dpi = 150.0
	}
	thresholds := opts.Thresholds
	if thresholds == (Thresholds{}) {
		thresholds = DefaultThresholds
	}

	stack, err := LoadFontStack(paths, float64(opts.Size), dpi)
	if err != nil {
		return nil, err
	}

	ranges := append([][2]rune{}, DefaultIntervals...)
	ranges = append(ranges, opts.Intervals...)
	intervals, served := ResolveIntervals(stack, ranges, opts.Strict, warn)
	if len(intervals) == 0 {
		return nil, fmt.Errorf("no requested codepoint is covered by any font")
	}

	glyphs, bitmaps, err := AssembleGlyphs(stack, intervals, served, opts.Is2Bit, thresholds)
	if err != nil {
		return nil, err
	}

	font := &FontData{
		Name:      opts.Name,
		Size:      opts.Size,
		Is2Bit:    opts.Is2Bit,
		Intervals: intervals,
	}
	for _, f := range stack.Fonts {
		family := f.SFNT.FamilyName()
		if family == "" {
			family = filepath.Base(f.Path)
		}
		font.Families = append(font.Families, family)
	}

	if opts.Compress {
		groupGlyphs, groups, compressed, err := CompressGroups(glyphs, bitmaps)
		if err != nil {
			return nil, err
		}
		font.GroupGlyphs = groupGlyphs
		font.Groups = groups
		font.Bitmaps = compressed
		if warn != nil && 0 < len(bitmaps) {
			warn.Printf("compression: %d -> %d bytes (%.1f%%), %d groups",
				len(bitmaps), len(compressed), 100.0*float64(len(compressed))/float64(len(bitmaps)), len(groups))
		}
	} else {
		font.Glyphs = glyphs
		font.Bitmaps = bitmaps
	}

	ppem := float64(opts.Size) * dpi / 72.0
	kern, err := ExtractKerning(stack, served, opts.KernScope, ppem)
	if err != nil {
		return nil, err
	}
	if opts.FlatKerning {
		font.FlatKerning = true
		font.KernPairs = FlattenKernPairs(kern)
	} else {
		font.KernTable = CompressKernClasses(kern, warn)
	}

	if font.Ligatures, err = ExtractLigatures(stack, served, warn); err != nil {
		return nil, err
	}

	// line metrics come from the font that serves the pipe character, it
	// spans the full line in most text faces
	metricsFont := stack.Fonts[0]
	if i, ok := stack.Serve('|'); ok {
		metricsFont = stack.Fonts[i]
	}
	font.LineHeight, font.Ascender, font.Descender = metricsFont.Rasterizer.LineMetrics()
	return font, nil
}
