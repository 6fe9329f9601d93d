package epdfont

import (
	"testing"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/test"
)

func kernTableBytes(coverage uint8, pairs []kernPair) []byte {
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(0) // version
	w.WriteUint16(1) // nTables

	w.WriteUint16(0) // subtable version
	w.WriteUint16(uint16(14 + 6*len(pairs)))
	w.WriteUint8(0) // format
	w.WriteUint8(coverage)
	w.WriteUint16(uint16(len(pairs)))
	w.WriteUint16(0) // searchRange
	w.WriteUint16(0) // entrySelector
	w.WriteUint16(0) // rangeShift
	for _, pair := range pairs {
		w.WriteUint32(pair.Key)
		w.WriteInt16(pair.Value)
	}
	return w.Bytes()
}

func TestParseKern(t *testing.T) {
	sfnt := &SFNT{Tables: map[string][]byte{"kern": kernTableBytes(0x01, []kernPair{
		{Key: 1<<16 | 2, Value: -70},
		{Key: 1<<16 | 3, Value: -40},
	})}}
	test.Error(t, sfnt.parseKern())
	test.T(t, len(sfnt.Kern.Subtables), 1)
	test.T(t, sfnt.Kern.Get(1, 2), int16(-70))
	test.T(t, sfnt.Kern.Get(1, 3), int16(-40))
	test.T(t, sfnt.Kern.Get(2, 1), int16(0))
}

func TestParseKernUnsorted(t *testing.T) {
	sfnt := &SFNT{Tables: map[string][]byte{"kern": kernTableBytes(0x01, []kernPair{
		{Key: 1<<16 | 3, Value: -40},
		{Key: 1<<16 | 2, Value: -70},
	})}}
	test.Error(t, sfnt.parseKern())
	test.T(t, sfnt.Kern.Get(1, 2), int16(-70))
}

func TestKernVerticalSkipped(t *testing.T) {
	// coverage without the horizontal bit never contributes
	sfnt := &SFNT{Tables: map[string][]byte{"kern": kernTableBytes(0x00, []kernPair{
		{Key: 1<<16 | 2, Value: -70},
	})}}
	test.Error(t, sfnt.parseKern())
	test.T(t, sfnt.Kern.Get(1, 2), int16(0))
}

func TestKernGetAccumulates(t *testing.T) {
	kern := &kernTable{Subtables: []kernFormat0{
		{Coverage: 0x01, Pairs: []kernPair{{Key: 1<<16 | 2, Value: -70}}},
		{Coverage: 0x01, Pairs: []kernPair{{Key: 1<<16 | 2, Value: -10}}},
		{Coverage: 0x00, Pairs: []kernPair{{Key: 1<<16 | 2, Value: 99}}},
	}}
	test.T(t, kern.Get(1, 2), int16(-80))
	test.T(t, kern.Get(2, 1), int16(0))
}
