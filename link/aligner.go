// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package link

import (
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Sentinel values replaced by alignment characters when scrambling
// is enabled.
const (
	scrA = 0x7c
	scrF = 0xfc
)

var (
	ErrMalformed = errors.New("link: malformed alignment character")
)

// Aligner inserts and removes the alignment characters of a lane.
// Frames must be processed in order: the transformation of a frame
// depends on the last octet of the previous one.
//
// An Aligner is not safe for concurrent use. Use one Aligner per lane.
type Aligner struct {
	k         int  // frames per multiframe
	scrambled bool // scrambling enabled

	n    int    // index of the next frame
	last Symbol // last octet of the previous frame
	ctrl bool   // previous received frame ended with an alignment character
}

// NewAligner returns an aligner for multiframes of k frames.
func NewAligner(k int, scrambled bool) *Aligner {
	if k <= 0 {
		panic(fmt.Errorf("link: invalid number of frames per multiframe (k=%d)", k))
	}
	return &Aligner{
		k:         k,
		scrambled: scrambled,
		last:      noSymbol,
	}
}

// Reset resets the aligner to the start of a multiframe,
// with no previous frame.
func (aln *Aligner) Reset() {
	aln.n = 0
	aln.last = noSymbol
	aln.ctrl = false
}

func (aln *Aligner) next() bool {
	boundary := (aln.n+1)%aln.k == 0
	aln.n++
	if aln.n == aln.k {
		aln.n = 0
	}
	return boundary
}

// Insert returns the frame to transmit for the data octets p,
// replacing its last octet with an alignment character when needed.
func (aln *Aligner) Insert(p []byte) Frame {
	frame := DataFrame(p)
	boundary := aln.next()
	if len(frame) == 0 {
		return frame
	}

	dn := frame[len(frame)-1]
	switch {
	case aln.scrambled:
		if dn == Data(scrA) && boundary {
			dn = A
		}
		if dn == Data(scrF) {
			dn = F
		}
	default:
		if dn == aln.last {
			if boundary {
				dn = A
			} else {
				dn = F
			}
		}
	}

	frame[len(frame)-1] = dn
	aln.last = dn

	return frame
}

// Remove returns the data octets of a received frame, restoring
// the octet replaced by an alignment character.
//
// Alignment characters are only accepted where Insert could have
// produced them: /A/ on the last frame of a multiframe, and, without
// scrambling, /F/ on any other frame provided the previous frame was not
// itself terminated by an alignment character.
func (aln *Aligner) Remove(frame Frame) ([]byte, error) {
	n := aln.n
	boundary := aln.next()

	p := make([]byte, len(frame))
	for i, s := range frame {
		if s.IsControl() && i != len(frame)-1 {
			return nil, &MalformedError{Frame: n, Pos: i, Sym: s}
		}
		p[i] = s.Octet()
	}
	if len(frame) == 0 {
		return p, nil
	}

	var (
		pos = len(frame) - 1
		dn  = frame[pos]
		bad = &MalformedError{Frame: n, Pos: pos, Sym: dn}
	)
	if dn.IsControl() {
		switch {
		case dn != A && dn != F:
			return nil, bad
		case dn == A && !boundary:
			return nil, bad
		case aln.scrambled && dn == A:
			dn = Data(scrA)
		case aln.scrambled:
			dn = Data(scrF)
		case dn == F && boundary:
			return nil, bad
		case aln.last == noSymbol, aln.ctrl:
			return nil, bad
		default:
			dn = aln.last
		}
	}

	p[pos] = dn.Octet()
	aln.ctrl = frame[pos].IsControl()
	aln.last = dn

	return p, nil
}

// MalformedError describes a control character found where no alignment
// character could have been inserted.
type MalformedError struct {
	Frame int    // frame index within the multiframe
	Pos   int    // octet position within the frame
	Sym   Symbol // offending symbol
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf(
		"link: malformed alignment character %v (frame=%d, octet=%d)",
		e.Sym, e.Frame, e.Pos,
	)
}

func (e *MalformedError) Unwrap() error { return ErrMalformed }

// InsertAlignment inserts alignment characters into all the lanes.
// lanes[i][j][k] is the octet k of frame j of lane i.
// Lanes are processed concurrently, with one Aligner per lane.
func InsertAlignment(lanes [][][]byte, k int, scrambled bool) [][]Frame {
	var (
		grp errgroup.Group
		out = make([][]Frame, len(lanes))
	)
	for i := range lanes {
		i := i
		grp.Go(func() error {
			aln := NewAligner(k, scrambled)
			lane := make([]Frame, len(lanes[i]))
			for j, frame := range lanes[i] {
				lane[j] = aln.Insert(frame)
			}
			out[i] = lane
			return nil
		})
	}
	_ = grp.Wait() // can not fail.
	return out
}

// RemoveAlignment removes alignment characters from all the lanes.
// lanes[i][j][k] is the symbol k of frame j of lane i.
// Lanes are processed concurrently, with one Aligner per lane.
func RemoveAlignment(lanes [][]Frame, k int, scrambled bool) ([][][]byte, error) {
	var (
		grp errgroup.Group
		out = make([][][]byte, len(lanes))
	)
	for i := range lanes {
		i := i
		grp.Go(func() error {
			aln := NewAligner(k, scrambled)
			lane := make([][]byte, len(lanes[i]))
			for j, frame := range lanes[i] {
				p, err := aln.Remove(frame)
				if err != nil {
					return fmt.Errorf("link: could not remove alignment from lane %d, frame %d: %w", i, j, err)
				}
				lane[j] = p
			}
			out[i] = lane
			return nil
		})
	}
	err := grp.Wait()
	if err != nil {
		return nil, err
	}
	return out, nil
}
