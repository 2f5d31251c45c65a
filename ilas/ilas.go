// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ilas holds the link configuration descriptor exchanged by
// JESD204B endpoints during the initial lane alignment sequence.
package ilas // import "github.com/go-lpc/jesd/ilas"

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/xerrors"
)

var (
	ErrShortBuffer = errors.New("ilas: short buffer")
)

// Config is the link configuration data carried by one lane.
// Count parameters (L, F, K, M, N, NP, S) hold the on-wire "minus one"
// encoding.
type Config struct {
	DID       uint32
	BID       uint32
	ADJCNT    uint32
	LID       uint32
	PHADJ     uint32
	ADJDIR    uint32
	L         uint32
	SCR       uint32
	F         uint32
	K         uint32
	M         uint32
	N         uint32
	CS        uint32
	NP        uint32
	SUBCLASSV uint32
	S         uint32
	JESDV     uint32
	CF        uint32
	HD        uint32
	RES1      uint32
	RES2      uint32
	FCHK      uint32
}

func (cfg *Config) ptr(id FieldID) *uint32 {
	switch id {
	case DID:
		return &cfg.DID
	case BID:
		return &cfg.BID
	case ADJCNT:
		return &cfg.ADJCNT
	case LID:
		return &cfg.LID
	case PHADJ:
		return &cfg.PHADJ
	case ADJDIR:
		return &cfg.ADJDIR
	case L:
		return &cfg.L
	case SCR:
		return &cfg.SCR
	case F:
		return &cfg.F
	case K:
		return &cfg.K
	case M:
		return &cfg.M
	case N:
		return &cfg.N
	case CS:
		return &cfg.CS
	case NP:
		return &cfg.NP
	case SUBCLASSV:
		return &cfg.SUBCLASSV
	case S:
		return &cfg.S
	case JESDV:
		return &cfg.JESDV
	case CF:
		return &cfg.CF
	case HD:
		return &cfg.HD
	case RES1:
		return &cfg.RES1
	case RES2:
		return &cfg.RES2
	case FCHK:
		return &cfg.FCHK
	}
	panic(fmt.Errorf("ilas: invalid field id %d", int(id)))
}

// Get returns the value of the field id.
func (cfg *Config) Get(id FieldID) uint32 {
	return *cfg.ptr(id)
}

// Set sets the value of the field id.
func (cfg *Config) Set(id FieldID, v uint32) {
	*cfg.ptr(id) = v
}

// Octets packs the configuration into its 14-octet wire representation.
// Values wider than their field are truncated; use Validate to detect them.
// The checksum octet is always recomputed from octets 0 to 10.
func (cfg *Config) Octets() [Size]byte {
	var p [Size]byte
	for i := FieldID(0); i < numFields; i++ {
		f := layout[i]
		v := cfg.Get(i) & f.Mask()
		p[f.Octet] |= byte(v << f.Offset)
	}
	p[layout[FCHK].Octet] = checksum(p[:])
	return p
}

// Checksum returns the checksum octet of the packed configuration.
func (cfg *Config) Checksum() byte {
	p := cfg.Octets()
	return p[layout[FCHK].Octet]
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (cfg Config) MarshalBinary() ([]byte, error) {
	p := cfg.Octets()
	return p[:], nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
// UnmarshalBinary checks the received checksum.
func (cfg *Config) UnmarshalBinary(p []byte) error {
	if len(p) < Size {
		return xerrors.Errorf("ilas: could not decode configuration (len=%d): %w", len(p), ErrShortBuffer)
	}

	var v Config
	for i := FieldID(0); i < numFields; i++ {
		f := layout[i]
		v.Set(i, uint32(p[f.Octet]>>f.Offset)&f.Mask())
	}

	comp := checksum(p)
	if recv := byte(v.FCHK); recv != comp {
		return &ChecksumError{Recv: recv, Comp: comp}
	}

	*cfg = v
	return nil
}

// Validate checks all configuration values fit in their field.
func (cfg *Config) Validate() error {
	var bad []FieldID
	for i := FieldID(0); i < numFields; i++ {
		if cfg.Get(i) > layout[i].Mask() {
			bad = append(bad, i)
		}
	}
	if len(bad) == 0 {
		return nil
	}
	err := &OverflowError{Fields: bad, Values: make([]uint32, len(bad))}
	for i, id := range bad {
		err.Values[i] = cfg.Get(id)
	}
	return err
}

func (cfg Config) String() string {
	o := new(strings.Builder)
	o.WriteString("ilas.Config{")
	for i := FieldID(0); i < numFields; i++ {
		if i > 0 {
			o.WriteString(", ")
		}
		fmt.Fprintf(o, "%s: %d", i, cfg.Get(i))
	}
	o.WriteString("}")
	return o.String()
}

// checksum sums the octets holding the packed link configuration
// fields (octets 0 to 10), modulo 256.
func checksum(p []byte) byte {
	var sum byte
	for _, v := range p[:CF.octet()+1] {
		sum += v
	}
	return sum
}

func (id FieldID) octet() int { return int(layout[id].Octet) }

// Dump writes an hexadecimal dump of p to w, 8 octets per line.
func Dump(w io.Writer, p []byte) error {
	o := new(strings.Builder)
	for i, v := range p {
		if i%8 == 0 && len(p) > 8 {
			if i > 0 {
				o.WriteString("\n")
			}
			fmt.Fprintf(o, "%04x: ", i)
		}
		fmt.Fprintf(o, "%02x ", v)
	}
	o.WriteString("\n")
	_, err := io.WriteString(w, o.String())
	return err
}
