// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package link

import "fmt"

// Symbol is an octet tagged with a control-character flag, as exchanged
// with the 8b/10b line coding layer.
type Symbol uint16

// ControlBit marks a symbol as a control character.
const ControlBit Symbol = 0x100

// Control character codes.
const (
	CodeR byte = 0x1c // K28.0, start of multi-frame
	CodeA byte = 0x7c // K28.3, lane alignment
	CodeQ byte = 0x9c // K28.4, start of configuration data
	CodeK byte = 0xbc // K28.5, group synchronization
	CodeF byte = 0xfc // K28.7, frame alignment
)

// Control characters.
const (
	R = ControlBit | Symbol(CodeR)
	A = ControlBit | Symbol(CodeA)
	Q = ControlBit | Symbol(CodeQ)
	K = ControlBit | Symbol(CodeK)
	F = ControlBit | Symbol(CodeF)
)

// noSymbol is the "no previous octet" marker of a freshly reset lane.
const noSymbol Symbol = 0xffff

// Data returns the data symbol for octet v.
func Data(v byte) Symbol { return Symbol(v) }

// Ctrl returns the control symbol for code v.
func Ctrl(v byte) Symbol { return ControlBit | Symbol(v) }

// IsControl returns whether s is a control character.
func (s Symbol) IsControl() bool { return s&ControlBit != 0 }

// Octet returns the 8-bit value of s, stripped of its control tag.
func (s Symbol) Octet() byte { return byte(s) }

func (s Symbol) String() string {
	if !s.IsControl() {
		return fmt.Sprintf("0x%02x", s.Octet())
	}
	switch s.Octet() {
	case CodeR:
		return "/R/"
	case CodeA:
		return "/A/"
	case CodeQ:
		return "/Q/"
	case CodeK:
		return "/K/"
	case CodeF:
		return "/F/"
	}
	return fmt.Sprintf("K(0x%02x)", s.Octet())
}

// Frame is a sequence of symbols forming one frame of a lane.
type Frame []Symbol

// Octets returns the octet values of the frame, along with
// a bit mask of the symbols that are control characters.
func (f Frame) Octets() (data []byte, ctrl []bool) {
	data = make([]byte, len(f))
	ctrl = make([]bool, len(f))
	for i, s := range f {
		data[i] = s.Octet()
		ctrl[i] = s.IsControl()
	}
	return data, ctrl
}

// DataFrame returns a frame made of the data octets p.
func DataFrame(p []byte) Frame {
	f := make(Frame, len(p))
	for i, v := range p {
		f[i] = Data(v)
	}
	return f
}
