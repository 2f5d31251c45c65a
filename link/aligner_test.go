// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package link

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"
)

func TestAlignmentNonScrambled(t *testing.T) {
	lanes := [][][]byte{
		{{0, 1}, {0, 1}, {0, 1}, {0, 1}, {0, 2}, {0, 2}, {0, 2}, {0, 2}},
		{{1, 0}, {1, 1}, {1, 2}, {1, 3}, {1, 4}, {1, 5}, {1, 6}, {1, 7}},
		{{2, 0}, {2, 1}, {2, 2}, {2, 3}, {2, 4}, {2, 5}, {2, 6}, {2, 7}},
		{{3, 0}, {3, 1}, {3, 2}, {3, 3}, {3, 4}, {3, 5}, {3, 6}, {3, 7}},
	}
	want := [][]Frame{
		{
			{0, 1}, {0, F}, {0, 1}, {0, A},
			{0, 2}, {0, F}, {0, 2}, {0, A},
		},
		{{1, 0}, {1, 1}, {1, 2}, {1, 3}, {1, 4}, {1, 5}, {1, 6}, {1, 7}},
		{{2, 0}, {2, 1}, {2, 2}, {2, 3}, {2, 4}, {2, 5}, {2, 6}, {2, 7}},
		{{3, 0}, {3, 1}, {3, 2}, {3, 3}, {3, 4}, {3, 5}, {3, 6}, {3, 7}},
	}

	got := InsertAlignment(lanes, 4, false)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid aligned lanes:\ngot= %v\nwant=%v", got, want)
	}

	back, err := RemoveAlignment(got, 4, false)
	if err != nil {
		t.Fatalf("could not remove alignment: %+v", err)
	}
	if !reflect.DeepEqual(back, lanes) {
		t.Fatalf("invalid round-trip:\ngot= %v\nwant=%v", back, lanes)
	}
}

func TestAlignmentBoundary(t *testing.T) {
	for _, tc := range []struct {
		name      string
		k         int
		scrambled bool
		last      []byte
		want      []Symbol
	}{
		{
			name: "repeat-across-boundary",
			k:    4,
			last: []byte{1, 2, 9, 9, 4, 4, 7, 8},
			want: []Symbol{1, 2, 9, A, 4, F, 7, 8},
		},
		{
			name: "repeat-after-boundary",
			k:    4,
			last: []byte{1, 2, 3, 4, 4, 5, 6, 6},
			want: []Symbol{1, 2, 3, 4, F, 5, 6, A},
		},
		{
			name: "long-run",
			k:    3,
			last: []byte{5, 5, 5, 5, 5, 5, 5},
			want: []Symbol{5, F, 5, F, 5, A, 5},
		},
		{
			name: "k=1",
			k:    1,
			last: []byte{5, 5, 5, 6},
			want: []Symbol{5, A, 5, 6},
		},
		{
			name:      "scrambled",
			k:         4,
			scrambled: true,
			last:      []byte{0x7c, 0xfc, 0x7c, 0x7c, 0xfc, 0x7c, 0x7c, 0xfc},
			want:      []Symbol{0x7c, F, 0x7c, A, F, 0x7c, 0x7c, F},
		},
		{
			name:      "scrambled-repeats",
			k:         2,
			scrambled: true,
			last:      []byte{3, 3, 3, 3},
			want:      []Symbol{3, 3, 3, 3},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var (
				aln = NewAligner(tc.k, tc.scrambled)
				rcv = NewAligner(tc.k, tc.scrambled)
			)
			for i, v := range tc.last {
				frame := aln.Insert([]byte{0xaa, v})
				if got, want := frame, (Frame{0xaa, tc.want[i]}); !reflect.DeepEqual(got, want) {
					t.Fatalf("frame %d: invalid aligned frame: got=%v, want=%v", i, got, want)
				}
				p, err := rcv.Remove(frame)
				if err != nil {
					t.Fatalf("frame %d: could not remove alignment: %+v", i, err)
				}
				if got, want := p, []byte{0xaa, v}; !reflect.DeepEqual(got, want) {
					t.Fatalf("frame %d: invalid frame: got=%v, want=%v", i, got, want)
				}
			}
		})
	}
}

func TestAlignmentRoundTrip(t *testing.T) {
	var (
		rnd      = rand.New(rand.NewSource(1234))
		alphabet = []byte{0x00, 0x01, 0x7c, 0xfc, 0xbc, 0x1c}
	)

	for _, scrambled := range []bool{false, true} {
		for k := 1; k <= 6; k++ {
			for iter := 0; iter < 20; iter++ {
				var (
					nlanes = 1 + rnd.Intn(4)
					nbytes = 1 + rnd.Intn(3)
					lanes  = make([][][]byte, nlanes)
				)
				for i := range lanes {
					lanes[i] = make([][]byte, rnd.Intn(4*k+3))
					for j := range lanes[i] {
						frame := make([]byte, nbytes)
						for ii := range frame {
							frame[ii] = alphabet[rnd.Intn(len(alphabet))]
						}
						lanes[i][j] = frame
					}
				}

				orig := make([][][]byte, len(lanes))
				for i := range lanes {
					orig[i] = make([][]byte, len(lanes[i]))
					for j := range lanes[i] {
						orig[i][j] = append([]byte(nil), lanes[i][j]...)
					}
				}

				aligned := InsertAlignment(lanes, k, scrambled)
				got, err := RemoveAlignment(aligned, k, scrambled)
				if err != nil {
					t.Fatalf("scrambled=%v k=%d: could not remove alignment: %+v", scrambled, k, err)
				}
				if !reflect.DeepEqual(got, orig) {
					t.Fatalf("scrambled=%v k=%d: invalid round-trip:\ngot= %v\nwant=%v\naligned=%v",
						scrambled, k, got, orig, aligned,
					)
				}
				if !reflect.DeepEqual(lanes, orig) {
					t.Fatalf("scrambled=%v k=%d: input lanes modified", scrambled, k)
				}
			}
		}
	}
}

func TestAlignerReset(t *testing.T) {
	aln := NewAligner(4, false)
	_ = aln.Insert([]byte{1})
	_ = aln.Insert([]byte{2})

	aln.Reset()
	if got, want := aln.Insert([]byte{2}), (Frame{2}); !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid frame after reset: got=%v, want=%v", got, want)
	}
	for i, want := range []Frame{{F}, {2}, {A}} {
		got := aln.Insert([]byte{2})
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("frame %d: got=%v, want=%v", i+1, got, want)
		}
	}
}

func TestAlignerEmptyFrame(t *testing.T) {
	aln := NewAligner(2, false)
	if got := aln.Insert(nil); len(got) != 0 {
		t.Fatalf("invalid empty frame: %v", got)
	}
	// the empty frame consumed the first frame slot of the multiframe.
	if got, want := aln.Insert([]byte{7}), (Frame{7}); !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid frame: got=%v, want=%v", got, want)
	}
	if got, want := aln.Insert([]byte{7}), (Frame{F}); !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid frame: got=%v, want=%v", got, want)
	}

	rcv := NewAligner(2, false)
	p, err := rcv.Remove(Frame{})
	if err != nil {
		t.Fatalf("could not remove alignment from empty frame: %+v", err)
	}
	if len(p) != 0 {
		t.Fatalf("invalid empty frame: %v", p)
	}
}

func TestAlignerMalformed(t *testing.T) {
	for _, tc := range []struct {
		name      string
		scrambled bool
		frames    []Frame
		want      string
	}{
		{
			name:   "no-previous-frame",
			frames: []Frame{{1, F}},
			want:   "link: malformed alignment character /F/ (frame=0, octet=1)",
		},
		{
			name:   "unknown-control",
			frames: []Frame{{1, 2}, {1, K}},
			want:   "link: malformed alignment character /K/ (frame=1, octet=1)",
		},
		{
			name:      "unknown-control-scrambled",
			scrambled: true,
			frames:    []Frame{{1, R}},
			want:      "link: malformed alignment character /R/ (frame=0, octet=1)",
		},
		{
			name:   "align-off-boundary",
			frames: []Frame{{1, 2}, {1, A}},
			want:   "link: malformed alignment character /A/ (frame=1, octet=1)",
		},
		{
			name:      "align-off-boundary-scrambled",
			scrambled: true,
			frames:    []Frame{{1, A}},
			want:      "link: malformed alignment character /A/ (frame=0, octet=1)",
		},
		{
			name:   "frame-align-on-boundary",
			frames: []Frame{{1, 2}, {1, 3}, {1, 4}, {1, F}},
			want:   "link: malformed alignment character /F/ (frame=3, octet=1)",
		},
		{
			name:   "consecutive-alignment",
			frames: []Frame{{1, 2}, {1, F}, {1, F}},
			want:   "link: malformed alignment character /F/ (frame=2, octet=1)",
		},
		{
			name:   "consecutive-alignment-boundary",
			frames: []Frame{{1, 2}, {1, 2}, {1, F}, {1, A}},
			want:   "link: malformed alignment character /A/ (frame=3, octet=1)",
		},
		{
			name:   "control-inside-frame",
			frames: []Frame{{1, 2}, {1, 2}, {A, 2}},
			want:   "link: malformed alignment character /A/ (frame=2, octet=0)",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var (
				aln = NewAligner(4, tc.scrambled)
				err error
			)
			for _, frame := range tc.frames {
				_, err = aln.Remove(frame)
				if err != nil {
					break
				}
			}
			if err == nil {
				t.Fatalf("expected an error")
			}
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("invalid error type: %T (%+v)", err, err)
			}
			if got, want := err.Error(), tc.want; got != want {
				t.Fatalf("invalid error:\ngot= %q\nwant=%q", got, want)
			}
		})
	}

	_, err := RemoveAlignment([][]Frame{{{1}}, {{2}, {3}, {K}}}, 4, false)
	if err == nil {
		t.Fatalf("expected an error")
	}
	if got, want := err.Error(), "link: could not remove alignment from lane 1, frame 2: link: malformed alignment character /K/ (frame=2, octet=0)"; got != want {
		t.Fatalf("invalid error:\ngot= %q\nwant=%q", got, want)
	}
}

func TestNewAlignerPanics(t *testing.T) {
	defer func() {
		if e := recover(); e == nil {
			t.Fatalf("expected a panic")
		}
	}()
	_ = NewAligner(0, false)
}
