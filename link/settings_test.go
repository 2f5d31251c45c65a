// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package link

import (
	"errors"
	"testing"

	"github.com/go-lpc/jesd/ilas"
)

func newTestSettings(t *testing.T, opts ...Option) Settings {
	t.Helper()
	set, err := NewSettings(
		NewPhysicalSettings(4, 4, 16, 16),
		TransportSettings{F: 2, S: 1, K: 16},
		0x5a, 5,
		opts...,
	)
	if err != nil {
		t.Fatalf("could not create link settings: %+v", err)
	}
	return set
}

func TestNewSettings(t *testing.T) {
	for _, tc := range []struct {
		name string
		phy  PhysicalSettings
		tpl  TransportSettings
		did  int
		bid  int
		nib  int
		opf  int
		opl  int
		err  string
	}{
		{
			name: "4 lanes",
			phy:  NewPhysicalSettings(4, 4, 16, 16),
			tpl:  TransportSettings{F: 2, S: 1, K: 16},
			nib:  4, opf: 2, opl: 2,
		},
		{
			name: "1 lane",
			phy:  NewPhysicalSettings(1, 2, 12, 16),
			tpl:  TransportSettings{F: 4, S: 1, K: 32},
			nib:  4, opf: 2, opl: 4,
		},
		{
			name: "2 samples",
			phy:  NewPhysicalSettings(2, 2, 14, 16),
			tpl:  TransportSettings{F: 4, S: 2, K: 8, CS: 2},
			nib:  4, opf: 4, opl: 4,
		},
		{
			name: "non-integral octets/frame",
			phy:  NewPhysicalSettings(1, 1, 12, 12),
			tpl:  TransportSettings{F: 2, S: 1, K: 16},
			err:  "link: non-integral octets/frame (3/2)",
		},
		{
			name: "non-integral octets/lane",
			phy:  NewPhysicalSettings(2, 1, 8, 8),
			tpl:  TransportSettings{F: 1, S: 1, K: 32},
			err:  "link: non-integral octets/lane (1/2)",
		},
		{
			name: "no lane",
			phy:  NewPhysicalSettings(0, 1, 16, 16),
			tpl:  TransportSettings{F: 2, S: 1, K: 16},
			err:  "link: invalid L=0: link: unsupported link geometry",
		},
		{
			name: "no frame",
			phy:  NewPhysicalSettings(1, 1, 16, 16),
			tpl:  TransportSettings{F: 2, S: 1, K: 0},
			err:  "link: invalid K=0: link: unsupported link geometry",
		},
		{
			name: "negative bank",
			phy:  NewPhysicalSettings(1, 1, 16, 16),
			tpl:  TransportSettings{F: 2, S: 1, K: 16},
			bid:  -1,
			err:  "link: invalid BID=-1: link: unsupported link geometry",
		},
		{
			name: "too many lanes",
			phy:  NewPhysicalSettings(33, 33, 16, 16),
			tpl:  TransportSettings{F: 2, S: 1, K: 16},
			err:  "link: invalid settings: ilas: value overflows field: lid=32 (max=31), l=32 (max=31)",
		},
		{
			name: "device id",
			phy:  NewPhysicalSettings(1, 1, 16, 16),
			tpl:  TransportSettings{F: 2, S: 1, K: 16},
			did:  256,
			err:  "link: invalid settings: ilas: value overflows field: did=256 (max=255)",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			set, err := NewSettings(tc.phy, tc.tpl, tc.did, tc.bid)
			switch {
			case err != nil && tc.err != "":
				if got, want := err.Error(), tc.err; got != want {
					t.Fatalf("invalid error:\ngot= %q\nwant=%q", got, want)
				}
				return
			case err != nil:
				t.Fatalf("could not create settings: %+v", err)
			case tc.err != "":
				t.Fatalf("expected an error (%s)", tc.err)
			}

			if got, want := set.NibblesPerWord, tc.nib; got != want {
				t.Fatalf("invalid nibbles/word: got=%d, want=%d", got, want)
			}
			if got, want := set.OctetsPerFrame, tc.opf; got != want {
				t.Fatalf("invalid octets/frame: got=%d, want=%d", got, want)
			}
			if got, want := set.OctetsPerLane, tc.opl; got != want {
				t.Fatalf("invalid octets/lane: got=%d, want=%d", got, want)
			}
		})
	}
}

func TestSettingsErrors(t *testing.T) {
	_, err := NewSettings(
		NewPhysicalSettings(2, 1, 8, 8),
		TransportSettings{F: 1, S: 1, K: 32},
		0, 0,
	)
	if !errors.Is(err, ErrGeometry) {
		t.Fatalf("invalid error: %+v", err)
	}
	var gerr *GeometryError
	if !errors.As(err, &gerr) {
		t.Fatalf("invalid error type: %T", err)
	}
	if gerr.Name != "octets/lane" || gerr.Num != 1 || gerr.Den != 2 {
		t.Fatalf("invalid geometry error: %#v", gerr)
	}

	_, err = NewSettings(
		NewPhysicalSettings(1, 1, 3, 3),
		TransportSettings{F: 1, S: 1, K: 1},
		0, 0,
	)
	if !errors.Is(err, ErrGeometry) {
		t.Fatalf("invalid error: %+v", err)
	}
	if got, want := err.Error(), "link: invalid nibbles/word (NP=3): link: unsupported link geometry"; got != want {
		t.Fatalf("invalid error:\ngot= %q\nwant=%q", got, want)
	}

	_, err = NewSettings(
		NewPhysicalSettings(1, 1, 16, 16),
		TransportSettings{F: 2, S: 1, K: 16},
		256, 0,
	)
	var oerr *ilas.OverflowError
	if !errors.As(err, &oerr) {
		t.Fatalf("invalid error type: %T", err)
	}
}

func TestSettingsConfig(t *testing.T) {
	set := newTestSettings(t, WithScrambling(true), WithHighDensity(true))

	cfg := set.Config(2)
	for _, tc := range []struct {
		id   ilas.FieldID
		want uint32
	}{
		{ilas.DID, 0x5a},
		{ilas.BID, 5},
		{ilas.LID, 2},
		{ilas.L, 3},
		{ilas.M, 3},
		{ilas.N, 15},
		{ilas.NP, 15},
		{ilas.F, 1},
		{ilas.S, 0},
		{ilas.K, 15},
		{ilas.CS, 0},
		{ilas.SCR, 1},
		{ilas.HD, 1},
		{ilas.SUBCLASSV, 1},
		{ilas.JESDV, 1},
		{ilas.ADJCNT, 0},
		{ilas.CF, 0},
	} {
		if got, want := cfg.Get(tc.id), tc.want; got != want {
			t.Errorf("invalid %s: got=%d, want=%d", tc.id, got, want)
		}
	}

	cfgs := set.Configs()
	if got, want := len(cfgs), 4; got != want {
		t.Fatalf("invalid number of descriptors: got=%d, want=%d", got, want)
	}
	for i, cfg := range cfgs {
		if got, want := cfg.LID, uint32(i); got != want {
			t.Fatalf("invalid lane id: got=%d, want=%d", got, want)
		}
		if got, want := set.Checksum(i), cfg.Octets()[ilas.Size-1]; got != want {
			t.Fatalf("lane %d: invalid checksum: got=0x%02x, want=0x%02x", i, got, want)
		}
	}

	// lane ids are packed in the low bits of octet 2.
	if got, want := set.Checksum(3)-set.Checksum(0), byte(3); got != want {
		t.Fatalf("invalid checksum difference: got=%d, want=%d", got, want)
	}
}

func TestSettingsMatch(t *testing.T) {
	set := newTestSettings(t)

	cfg := set.Config(1)
	cfg.FCHK = uint32(cfg.Checksum())
	if err := set.Match(cfg); err != nil {
		t.Fatalf("unexpected mismatch: %+v", err)
	}

	bad := cfg
	bad.K = 7
	err := set.Match(bad)
	if err == nil {
		t.Fatalf("expected a mismatch")
	}
	if got, want := err.Error(), "link: lane 1 configuration mismatch for k (got=7, want=15)"; got != want {
		t.Fatalf("invalid error:\ngot= %q\nwant=%q", got, want)
	}

	bad = cfg
	bad.SCR = 1
	err = set.Match(bad)
	if err == nil {
		t.Fatalf("expected a mismatch")
	}
	if got, want := err.Error(), "link: lane 1 configuration mismatch for scr (got=1, want=0)"; got != want {
		t.Fatalf("invalid error:\ngot= %q\nwant=%q", got, want)
	}

	bad = cfg
	bad.LID = 4
	err = set.Match(bad)
	if err == nil {
		t.Fatalf("expected an error")
	}
	if got, want := err.Error(), "link: invalid lane id 4 (lanes=4)"; got != want {
		t.Fatalf("invalid error:\ngot= %q\nwant=%q", got, want)
	}
}
