// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ilas

import "fmt"

// Size is the size in octets of a link configuration descriptor.
const Size = 14

// Field describes where a configuration parameter lives inside
// the 14-octet descriptor.
type Field struct {
	Octet  uint8 // octet index, 0..13
	Offset uint8 // bit offset inside the octet
	Width  uint8 // width in bits
}

// Mask returns the mask of valid values for the field.
func (f Field) Mask() uint32 {
	return 1<<f.Width - 1
}

// FieldID identifies a configuration parameter.
type FieldID int

const (
	DID       FieldID = iota // device id
	BID                      // bank id
	ADJCNT                   // N/A (subclass 2 only)
	LID                      // lane id
	PHADJ                    // N/A (subclass 2 only)
	ADJDIR                   // N/A (subclass 2 only)
	L                        // lanes - 1
	SCR                      // scrambling enable
	F                        // octets/frame - 1
	K                        // frames/multiframe - 1
	M                        // converters - 1
	N                        // bits/converter - 1
	CS                       // control bits/sample
	NP                       // bits/sample - 1
	SUBCLASSV                // device subclass version
	S                        // samples/(converter and frame) - 1
	JESDV                    // jesd204 version
	CF                       // control words/frame
	HD                       // high density format
	RES1                     // reserved
	RES2                     // reserved
	FCHK                     // checksum

	numFields
)

var layout = [numFields]Field{
	DID:       {0, 0, 8},
	BID:       {1, 0, 4},
	ADJCNT:    {1, 4, 4},
	LID:       {2, 0, 5},
	PHADJ:     {2, 5, 1},
	ADJDIR:    {2, 6, 1},
	L:         {3, 0, 5},
	SCR:       {3, 7, 1},
	F:         {4, 0, 8},
	K:         {5, 0, 5},
	M:         {6, 0, 8},
	N:         {7, 0, 5},
	CS:        {7, 6, 2},
	NP:        {8, 0, 5},
	SUBCLASSV: {8, 5, 3},
	S:         {9, 0, 5},
	JESDV:     {9, 5, 3},
	CF:        {10, 0, 5},
	HD:        {10, 7, 1}, // some ILAS generators use bit 5 (0x20), changing the checksum
	RES1:      {11, 0, 8},
	RES2:      {12, 0, 8},
	FCHK:      {13, 0, 8},
}

var names = [numFields]string{
	DID:       "did",
	BID:       "bid",
	ADJCNT:    "adjcnt",
	LID:       "lid",
	PHADJ:     "phadj",
	ADJDIR:    "adjdir",
	L:         "l",
	SCR:       "scr",
	F:         "f",
	K:         "k",
	M:         "m",
	N:         "n",
	CS:        "cs",
	NP:        "np",
	SUBCLASSV: "subclassv",
	S:         "s",
	JESDV:     "jesdv",
	CF:        "cf",
	HD:        "hd",
	RES1:      "res1",
	RES2:      "res2",
	FCHK:      "chksum",
}

// Fields returns the list of all descriptor fields, in wire order.
func Fields() []FieldID {
	ids := make([]FieldID, numFields)
	for i := range ids {
		ids[i] = FieldID(i)
	}
	return ids
}

// Layout returns the location of the field id inside the descriptor.
func Layout(id FieldID) Field {
	return layout[id]
}

func (id FieldID) String() string {
	if id < 0 || id >= numFields {
		return fmt.Sprintf("FieldID(%d)", int(id))
	}
	return names[id]
}
