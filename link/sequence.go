// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package link

import (
	"fmt"

	"github.com/go-lpc/jesd/ilas"
)

// ILASMultiframes is the number of multiframes in an initial lane
// alignment sequence.
const ILASMultiframes = 4

// SplitFrames splits the lane octets p into frames of f octets.
func SplitFrames(p []byte, f int) ([][]byte, error) {
	if f <= 0 {
		return nil, fmt.Errorf("link: invalid number of octets per frame (f=%d)", f)
	}
	if len(p)%f != 0 {
		return nil, fmt.Errorf(
			"link: lane octets (n=%d) not a multiple of the frame size (f=%d)",
			len(p), f,
		)
	}
	frames := make([][]byte, 0, len(p)/f)
	for i := 0; i < len(p); i += f {
		frames = append(frames, p[i:i+f:i+f])
	}
	return frames, nil
}

// JoinFrames concatenates frames into a lane octet stream.
func JoinFrames(frames [][]byte) []byte {
	n := 0
	for _, f := range frames {
		n += len(f)
	}
	p := make([]byte, 0, n)
	for _, f := range frames {
		p = append(p, f...)
	}
	return p
}

// CGS returns n code group synchronization characters.
func CGS(n int) Frame {
	f := make(Frame, n)
	for i := range f {
		f[i] = K
	}
	return f
}

// ILAS returns the initial lane alignment sequence for a lane with
// octetsPerFrame octets per frame, k frames per multiframe,
// carrying the configuration cfg.
//
// Each multiframe starts with /R/ and ends with /A/.
// The second multiframe carries /Q/ followed by the configuration data.
// When withCounter is true, the remaining octets hold a ramp.
func ILAS(octetsPerFrame, k int, cfg ilas.Config, withCounter bool) (Frame, error) {
	opm := octetsPerFrame * k
	if opm < 2+ilas.Size+1 {
		return nil, fmt.Errorf(
			"link: multiframe too small to hold ILAS configuration (octets/multiframe=%d)",
			opm,
		)
	}

	data := cfg.Octets()
	seq := make(Frame, 0, ILASMultiframes*opm)
	for i := 0; i < ILASMultiframes; i++ {
		mf := make(Frame, opm)
		if withCounter {
			for j := range mf {
				mf[j] = Data(byte(i*opm + j))
			}
		}
		mf[0] = R
		mf[len(mf)-1] = A
		if i == 1 {
			mf[1] = Q
			for j, v := range data {
				mf[2+j] = Data(v)
			}
		}
		seq = append(seq, mf...)
	}
	return seq, nil
}

// ParseILAS extracts and validates the configuration carried by
// an initial lane alignment sequence.
func ParseILAS(seq Frame, octetsPerFrame, k int) (ilas.Config, error) {
	var cfg ilas.Config
	opm := octetsPerFrame * k
	if len(seq) != ILASMultiframes*opm {
		return cfg, fmt.Errorf(
			"link: invalid ILAS length (got=%d, want=%d)",
			len(seq), ILASMultiframes*opm,
		)
	}

	for i := 0; i < ILASMultiframes; i++ {
		mf := seq[i*opm : (i+1)*opm]
		if mf[0] != R {
			return cfg, fmt.Errorf("link: ILAS multiframe %d does not start with /R/ (got=%v)", i, mf[0])
		}
		if mf[len(mf)-1] != A {
			return cfg, fmt.Errorf("link: ILAS multiframe %d does not end with /A/ (got=%v)", i, mf[len(mf)-1])
		}
	}

	mf := seq[opm : 2*opm]
	if mf[1] != Q {
		return cfg, fmt.Errorf("link: ILAS multiframe 1 does not carry /Q/ (got=%v)", mf[1])
	}

	raw := make([]byte, ilas.Size)
	for i, s := range mf[2 : 2+ilas.Size] {
		if s.IsControl() {
			return cfg, fmt.Errorf("link: ILAS configuration octet %d is a control character (%v)", i, s)
		}
		raw[i] = s.Octet()
	}

	err := cfg.UnmarshalBinary(raw)
	if err != nil {
		return cfg, fmt.Errorf("link: could not decode ILAS configuration: %w", err)
	}
	return cfg, nil
}
