package epdfont

import (
	"testing"

	"github.com/tdewolff/test"
)

func TestMergeIntervals(t *testing.T) {
	tests := []struct {
		in  [][2]rune
		out [][2]rune
	}{
		{[][2]rune{{10, 20}}, [][2]rune{{10, 20}}},
		{[][2]rune{{10, 20}, {15, 30}}, [][2]rune{{10, 30}}},
		{[][2]rune{{10, 20}, {21, 30}}, [][2]rune{{10, 30}}},
		{[][2]rune{{21, 30}, {10, 20}}, [][2]rune{{10, 30}}},
		{[][2]rune{{10, 20}, {22, 30}}, [][2]rune{{10, 20}, {22, 30}}},
		{[][2]rune{{10, 30}, {15, 18}}, [][2]rune{{10, 30}}},
	}
	for _, tt := range tests {
		merged := MergeIntervals(tt.in)
		test.T(t, len(merged), len(tt.out))
		for i := range tt.out {
			test.T(t, merged[i], tt.out[i])
		}
	}
}

func TestResolveIntervals(t *testing.T) {
	first := newTestFont(map[rune]uint16{'A': 1, 'B': 2, 'C': 3, 'X': 4}, nil)
	second := newTestFont(map[rune]uint16{'B': 1, 'E': 2}, nil)
	stack := &FontStack{Fonts: []*Font{first, second}}

	intervals, served := ResolveIntervals(stack, [][2]rune{{'A', 'F'}, {'X', 'X'}}, false, nil)
	test.T(t, len(intervals), 3)
	test.T(t, intervals[0], Interval{First: 'A', Last: 'C', Offset: 0})
	test.T(t, intervals[1], Interval{First: 'E', Last: 'E', Offset: 3})
	test.T(t, intervals[2], Interval{First: 'X', Last: 'X', Offset: 4})

	// the first font in the stack wins for codepoints both cover
	test.T(t, served['B'], 0)
	test.T(t, served['E'], 1)
	_, ok := served['D']
	test.T(t, ok, false)
}

func TestResolveIntervalsEmpty(t *testing.T) {
	stack := &FontStack{Fonts: []*Font{newTestFont(map[rune]uint16{'A': 1}, nil)}}
	intervals, _ := ResolveIntervals(stack, [][2]rune{{'0', '9'}}, false, nil)
	test.T(t, len(intervals), 0)
}
