// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package link

// ScramblerSeed is the initial state of the scrambler shift register.
const ScramblerSeed = 0x7f80

const scrMask = 1<<15 - 1

// Scrambler implements the self-synchronous 1 + x^14 + x^15 scrambler.
// Octets are scrambled most significant bit first.
type Scrambler struct {
	state uint16
}

// NewScrambler returns a scrambler initialized with ScramblerSeed.
func NewScrambler() *Scrambler {
	return &Scrambler{state: ScramblerSeed & scrMask}
}

// Reset restores the initial scrambler state.
func (scr *Scrambler) Reset() {
	scr.state = ScramblerSeed & scrMask
}

// Scramble scrambles p in place.
func (scr *Scrambler) Scramble(p []byte) {
	for i, v := range p {
		var o byte
		for bit := 7; bit >= 0; bit-- {
			in := uint16(v>>bit) & 1
			out := in ^ tap(scr.state)
			scr.state = (scr.state<<1 | out) & scrMask
			o |= byte(out) << bit
		}
		p[i] = o
	}
}

// Descrambler reverts the transformation of a Scrambler.
type Descrambler struct {
	state uint16
}

// NewDescrambler returns a descrambler initialized with ScramblerSeed.
func NewDescrambler() *Descrambler {
	return &Descrambler{state: ScramblerSeed & scrMask}
}

// Reset restores the initial descrambler state.
func (dsc *Descrambler) Reset() {
	dsc.state = ScramblerSeed & scrMask
}

// Descramble descrambles p in place.
func (dsc *Descrambler) Descramble(p []byte) {
	for i, v := range p {
		var o byte
		for bit := 7; bit >= 0; bit-- {
			in := uint16(v>>bit) & 1
			out := in ^ tap(dsc.state)
			dsc.state = (dsc.state<<1 | in) & scrMask
			o |= byte(out) << bit
		}
		p[i] = o
	}
}

// tap returns the feedback bit: the scrambled bits emitted 14 and 15
// positions ago.
func tap(state uint16) uint16 {
	return (state>>13 ^ state>>14) & 1
}
