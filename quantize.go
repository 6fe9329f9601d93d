package epdfont

// Thresholds control how 4-bit grayscale coverage quantizes down to the
// packed output depth. Nibbles are the top 4 bits of 8-bit coverage.
type Thresholds struct {
	Ink    uint8    // 1-bit mode: a nibble at or above this value is ink
	Levels [3]uint8 // 2-bit mode: lowest nibble for levels 1, 2 and 3
}

// DefaultThresholds match the quantization used by the reader firmware.
var DefaultThresholds = Thresholds{Ink: 2, Levels: [3]uint8{4, 8, 12}}

// PackedLength returns the byte length of a packed bitmap of the given
// dimensions.
func PackedLength(width, height int, is2Bit bool) int {
	bits := width * height
	if is2Bit {
		bits *= 2
	}
	return (bits + 7) / 8
}

// Quantize1Bit packs a grayscale raster into a 1-bit bitmap, one bit per
// pixel MSB first in row-major order. A partial final byte is padded with
// zero bits on the right.
func Quantize1Bit(raster *GlyphRaster, t Thresholds) []byte {
	n := raster.Width * raster.Height
	if n == 0 {
		return nil
	}

	b := make([]byte, 0, (n+7)/8)
	var px uint8
	for i := 0; i < n; i++ {
		px <<= 1
		if raster.Pixels[i]>>4 >= t.Ink {
			px |= 1
		}
		if i%8 == 7 {
			b = append(b, px)
			px = 0
		}
	}
	if n%8 != 0 {
		b = append(b, px<<(8-n%8))
	}
	return b
}

// Quantize2Bit packs a grayscale raster into a 2-bit bitmap, two bits per
// pixel MSB first in row-major order. Level 0 is white and level 3 is black.
// A partial final byte is padded with zero bits on the right.
func Quantize2Bit(raster *GlyphRaster, t Thresholds) []byte {
	n := raster.Width * raster.Height
	if n == 0 {
		return nil
	}

	b := make([]byte, 0, (n+3)/4)
	var px uint8
	for i := 0; i < n; i++ {
		px <<= 2
		nibble := raster.Pixels[i] >> 4
		if nibble >= t.Levels[2] {
			px |= 3
		} else if nibble >= t.Levels[1] {
			px |= 2
		} else if nibble >= t.Levels[0] {
			px |= 1
		}
		if i%4 == 3 {
			b = append(b, px)
			px = 0
		}
	}
	if n%4 != 0 {
		b = append(b, px<<(2*(4-n%4)))
	}
	return b
}
