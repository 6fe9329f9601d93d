package epdfont

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/tdewolff/parse/v2"
)

// Specification:
// https://www.w3.org/TR/WOFF/

type woffTable struct {
	tag          string
	offset       uint32
	length       uint32
	origLength   uint32
	origChecksum uint32
}

func uint32ToString(v uint32) string {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return string(b)
}

func calcChecksum(b []byte) uint32 {
	if len(b)%4 != 0 {
		panic("data not multiple of four bytes")
	}
	var sum uint32
	for i := 0; i < len(b); i += 4 {
		sum += binary.BigEndian.Uint32(b[i : i+4])
	}
	return sum
}

// ParseWOFF parses the WOFF font format and returns its contained SFNT font format (TTF or OTF). See https://www.w3.org/TR/WOFF/
func ParseWOFF(b []byte) ([]byte, error) {
	if len(b) < 44 {
		return nil, ErrInvalidFontData
	}

	r := parse.NewBinaryReader(b)
	signature := r.ReadString(4)
	if signature != "wOFF" {
		return nil, fmt.Errorf("bad signature")
	}
	flavor := r.ReadUint32()
	if uint32ToString(flavor) == "ttcf" {
		return nil, fmt.Errorf("collections are unsupported")
	}
	length := r.ReadUint32()
	numTables := r.ReadUint16()
	reserved := r.ReadUint16()
	totalSfntSize := r.ReadUint32()
	_ = r.ReadUint16() // majorVersion
	_ = r.ReadUint16() // minorVersion
	_ = r.ReadUint32() // metaOffset
	_ = r.ReadUint32() // metaLength
	_ = r.ReadUint32() // metaOrigLength
	_ = r.ReadUint32() // privOffset
	_ = r.ReadUint32() // privLength
	if length != uint32(len(b)) {
		return nil, fmt.Errorf("length in header must match file size")
	} else if numTables == 0 {
		return nil, fmt.Errorf("numTables in header must not be zero")
	} else if reserved != 0 {
		return nil, fmt.Errorf("reserved in header must be zero")
	}

	tables := make([]woffTable, 0, numTables)
	sfntLength := uint32(12 + 16*int(numTables))
	for i := 0; i < int(numTables); i++ {
		tag := uint32ToString(r.ReadUint32())
		offset := r.ReadUint32()
		compLength := r.ReadUint32()
		origLength := r.ReadUint32()
		origChecksum := r.ReadUint32()
		if r.EOF() {
			return nil, ErrInvalidFontData
		} else if uint32(len(b)) < offset || uint32(len(b))-offset < compLength {
			return nil, fmt.Errorf("%s: bad table offset or length", tag)
		} else if origLength < compLength {
			return nil, fmt.Errorf("%s: compressed length must not exceed original length", tag)
		} else if 0 < i && tag <= tables[i-1].tag {
			return nil, fmt.Errorf("tables must be sorted alphabetically")
		}

		if math.MaxUint32-3 < origLength {
			return nil, ErrInvalidFontData
		}
		sfntLength += (origLength + 3) & ^uint32(3) // padded length

		tables = append(tables, woffTable{
			tag:          tag,
			offset:       offset,
			length:       compLength,
			origLength:   origLength,
			origChecksum: origChecksum,
		})
	}
	if sfntLength != totalSfntSize {
		return nil, fmt.Errorf("totalSfntSize is incorrect")
	}

	var searchRange uint16 = 1
	var entrySelector uint16
	{
		n := numTables
		for 1 < n {
			n >>= 1
			searchRange <<= 1
			entrySelector++
		}
	}
	searchRange *= 16
	rangeShift := numTables*16 - searchRange

	w := parse.NewBinaryWriter(make([]byte, 0, totalSfntSize))
	w.WriteUint32(flavor)
	w.WriteUint16(numTables)
	w.WriteUint16(searchRange)
	w.WriteUint16(entrySelector)
	w.WriteUint16(rangeShift)

	var iCheckSumAdjustment uint32
	offset := uint32(12 + 16*int(numTables))
	for _, table := range tables {
		w.WriteString(table.tag)
		w.WriteUint32(table.origChecksum)
		w.WriteUint32(offset)
		w.WriteUint32(table.origLength)
		if table.tag == "head" {
			iCheckSumAdjustment = offset + 8
		}
		offset += (table.origLength + 3) & ^uint32(3)
	}

	for _, table := range tables {
		data := b[table.offset : table.offset+table.length : table.offset+table.length]
		if table.length != table.origLength {
			zr, err := zlib.NewReader(bytes.NewReader(data))
			if err != nil {
				return nil, fmt.Errorf("%s: %v", table.tag, err)
			}
			buf := bytes.Buffer{}
			if _, err = io.Copy(&buf, zr); err != nil {
				return nil, fmt.Errorf("%s: %v", table.tag, err)
			} else if err = zr.Close(); err != nil {
				return nil, fmt.Errorf("%s: %v", table.tag, err)
			}
			data = buf.Bytes()
		}
		if uint32(len(data)) != table.origLength {
			return nil, fmt.Errorf("%s: decompressed length does not match original length", table.tag)
		}

		w.WriteBytes(data)
		for w.Len()%4 != 0 {
			w.WriteByte(0)
		}
	}

	if iCheckSumAdjustment == 0 {
		return nil, fmt.Errorf("head: missing table")
	}

	// update head checkSumAdjustment over the rebuilt font
	out := w.Bytes()
	binary.BigEndian.PutUint32(out[iCheckSumAdjustment:], 0)
	checksum := 0xB1B0AFBA - calcChecksum(out)
	binary.BigEndian.PutUint32(out[iCheckSumAdjustment:], checksum)
	return out, nil
}
