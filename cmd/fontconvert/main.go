package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/tdewolff/argp"
	"github.com/tdewolff/prompt"
	"github.com/znelson/epdfont"
)

var (
	Error   *log.Logger
	Warning *log.Logger
)

func main() {
	Error = log.New(os.Stderr, "ERROR: ", 0)
	Warning = log.New(os.Stderr, "WARNING: ", 0)

	var name, output string
	var size int
	var dpi float64
	var is2Bit, compress, flatKerning, strict bool
	fontstack := []string{}
	intervals := []string{}
	kernScope := []string{}

	cmd := argp.New("Generate a C header file from a font stack to be used with e-paper displays")
	cmd.AddOpt(&is2Bit, "", "2bit", "Generate 2-bit greyscale bitmaps instead of 1-bit black and white.")
	cmd.AddOpt(&compress, "", "compress", "Compress glyph bitmaps using DEFLATE with group-based compression.")
	cmd.AddOpt(&flatKerning, "", "flat-kerning", "Emit a flat kerning pair table instead of kerning classes.")
	cmd.AddOpt(argp.Append{I: &intervals}, "", "additional-intervals", "Additional code point interval to export as min,max. Can be repeated.")
	cmd.AddOpt(argp.Append{I: &kernScope}, "", "kern-scope", "Restrict kerning to code point interval min,max. Can be repeated.")
	cmd.AddOpt(&strict, "", "strict", "Report every code point dropped for lack of font coverage.")
	cmd.AddOpt(&dpi, "", "dpi", "Render resolution in dots per inch, 150 by default.")
	cmd.AddOpt(&output, "o", "output", "Output header file, writes to stdout when omitted.")
	cmd.AddVal(&name, "name", "Name of the font.")
	cmd.AddVal(&size, "size", "Font size in points.")
	cmd.AddRest(&fontstack, "fontstack", "Font files ordered by descending priority.")
	cmd.Parse()

	if len(fontstack) == 0 {
		Error.Println("no font files given")
		os.Exit(1)
	}

	opts := epdfont.Options{
		Name:        name,
		Size:        size,
		DPI:         dpi,
		Is2Bit:      is2Bit,
		Compress:    compress,
		FlatKerning: flatKerning,
		Strict:      strict,
	}
	var err error
	if opts.Intervals, err = parseRanges(intervals); err != nil {
		Error.Println(err)
		os.Exit(1)
	}
	if opts.KernScope, err = parseRanges(kernScope); err != nil {
		Error.Println(err)
		os.Exit(1)
	}

	font, err := epdfont.Convert(fontstack, opts, Warning)
	if err != nil {
		Error.Println(err)
		os.Exit(1)
	}

	var w *os.File
	if output == "" || output == "-" {
		w = os.Stdout
	} else {
		if _, err := os.Stat(output); err == nil {
			if !prompt.YesNo(fmt.Sprintf("%s already exists, overwrite?", output), false) {
				return
			}
		}
		if w, err = os.Create(output); err != nil {
			Error.Println(err)
			os.Exit(1)
		}
	}

	if err := epdfont.WriteHeader(w, font, strings.Join(os.Args, " ")); err != nil {
		w.Close()
		Error.Println(err)
		os.Exit(1)
	} else if err := w.Close(); err != nil {
		Error.Println(err)
		os.Exit(1)
	}
}

// parseRanges parses repeated min,max arguments, each bound in any base the
// 0 prefix rules allow (eg. 0x1F600).
func parseRanges(args []string) ([][2]rune, error) {
	var ranges [][2]rune
	for _, arg := range args {
		parts := strings.Split(arg, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid interval: %s", arg)
		}
		first, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 0, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid interval: %s: %v", arg, err)
		}
		last, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 0, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid interval: %s: %v", arg, err)
		}
		if last < first || first < 0 {
			return nil, fmt.Errorf("invalid interval: %s", arg)
		}
		ranges = append(ranges, [2]rune{rune(first), rune(last)})
	}
	return ranges, nil
}
