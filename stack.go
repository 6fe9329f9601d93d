package epdfont

import (
	"fmt"
	"os"
)

// Font pairs the parsed table data of a font file with a rasterizer for it.
type Font struct {
	Path       string
	SFNT       *SFNT
	Rasterizer Rasterizer
}

// FontStack is an ordered list of fonts. Earlier fonts take precedence, later
// fonts fill in codepoints the earlier ones don't cover.
type FontStack struct {
	Fonts []*Font
}

// LoadFontStack reads and parses the given font files in order. Each font is
// prepared for rasterization at the given point size and resolution.
func LoadFontStack(paths []string, size, dpi float64) (*FontStack, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no fonts given")
	}

	stack := &FontStack{}
	for _, path := range paths {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		b, err = ToSFNT(b)
		if err != nil {
			return nil, fmt.Errorf("%s: %v", path, err)
		}
		sfnt, err := ParseSFNT(b, 0)
		if err != nil {
			return nil, fmt.Errorf("%s: %v", path, err)
		}
		rast, err := NewRasterizer(b, size, dpi)
		if err != nil {
			return nil, fmt.Errorf("%s: %v", path, err)
		}
		stack.Fonts = append(stack.Fonts, &Font{
			Path:       path,
			SFNT:       sfnt,
			Rasterizer: rast,
		})
	}
	return stack, nil
}

// Serve returns the index of the first font in the stack that maps the
// codepoint to a real glyph.
func (stack *FontStack) Serve(cp rune) (int, bool) {
	for i, f := range stack.Fonts {
		if f.SFNT.GlyphIndex(cp) != 0 {
			return i, true
		}
	}
	return 0, false
}
