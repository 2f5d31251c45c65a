// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ilas

import (
	"fmt"
	"strings"
)

// ChecksumError is returned when a received descriptor carries a checksum
// inconsistent with its content.
type ChecksumError struct {
	Recv byte // received checksum
	Comp byte // computed checksum
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("ilas: inconsistent checksum: recv=0x%02x comp=0x%02x", e.Recv, e.Comp)
}

// OverflowError lists the configuration values that do not fit in their
// descriptor field and would be silently truncated on the wire.
type OverflowError struct {
	Fields []FieldID
	Values []uint32
}

func (e *OverflowError) Error() string {
	o := new(strings.Builder)
	o.WriteString("ilas: value overflows field:")
	for i, id := range e.Fields {
		if i > 0 {
			o.WriteString(",")
		}
		fmt.Fprintf(o, " %s=%d (max=%d)", id, e.Values[i], layout[id].Mask())
	}
	return o.String()
}
