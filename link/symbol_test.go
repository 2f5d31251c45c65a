// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package link

import (
	"reflect"
	"testing"
)

func TestSymbol(t *testing.T) {
	for _, tc := range []struct {
		sym  Symbol
		ctrl bool
		oct  byte
		str  string
	}{
		{Data(0x00), false, 0x00, "0x00"},
		{Data(0xbc), false, 0xbc, "0xbc"},
		{R, true, 0x1c, "/R/"},
		{A, true, 0x7c, "/A/"},
		{Q, true, 0x9c, "/Q/"},
		{K, true, 0xbc, "/K/"},
		{F, true, 0xfc, "/F/"},
		{Ctrl(0xf7), true, 0xf7, "K(0xf7)"},
	} {
		t.Run(tc.str, func(t *testing.T) {
			if got, want := tc.sym.IsControl(), tc.ctrl; got != want {
				t.Fatalf("invalid control flag: got=%v, want=%v", got, want)
			}
			if got, want := tc.sym.Octet(), tc.oct; got != want {
				t.Fatalf("invalid octet: got=0x%02x, want=0x%02x", got, want)
			}
			if got, want := tc.sym.String(), tc.str; got != want {
				t.Fatalf("invalid string: got=%q, want=%q", got, want)
			}
		})
	}

	if Ctrl(CodeK) != K {
		t.Fatalf("invalid control symbol: got=%v, want=%v", Ctrl(CodeK), K)
	}
	if Data(CodeK) == K {
		t.Fatalf("data and control symbols with the same octet compare equal")
	}
}

func TestFrameOctets(t *testing.T) {
	f := Frame{Data(1), K, Data(0xbc), A}
	data, ctrl := f.Octets()
	if got, want := data, []byte{0x01, 0xbc, 0xbc, 0x7c}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid octets: got=%v, want=%v", got, want)
	}
	if got, want := ctrl, []bool{false, true, false, true}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid control mask: got=%v, want=%v", got, want)
	}

	if got, want := DataFrame([]byte{1, 0xbc}), (Frame{Data(1), Data(0xbc)}); !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid data frame: got=%v, want=%v", got, want)
	}
}
