// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package link

import (
	"errors"
	"fmt"

	"github.com/go-lpc/jesd/ilas"
)

var (
	ErrGeometry = errors.New("link: unsupported link geometry")
)

// PhysicalSettings describes the converter device side of a link.
type PhysicalSettings struct {
	L  int // lanes
	M  int // converters
	N  int // bits/converter
	NP int // bits/sample

	SubclassV int // device subclass version
	JESDV     int // jesd204 revision

	// subclass 2 only. always zero.
	AdjCnt int
	AdjDir int
	PhAdj  int
}

// NewPhysicalSettings returns the physical settings of a subclass 1,
// JESD204B link.
func NewPhysicalSettings(l, m, n, np int) PhysicalSettings {
	return PhysicalSettings{
		L:         l,
		M:         m,
		N:         n,
		NP:        np,
		SubclassV: 0b001,
		JESDV:     0b001,
	}
}

// TransportSettings describes how samples are mapped onto frames.
type TransportSettings struct {
	F  int // octets/(lane and frame)
	S  int // samples/(converter and frame)
	K  int // frames/multiframe
	CS int // control bits/sample
}

// Settings holds the complete, validated, description of a link.
type Settings struct {
	Phy       PhysicalSettings
	Transport TransportSettings

	DID       int  // device id
	BID       int  // bank id
	HD        bool // high density format
	Scrambled bool // scrambling enabled

	// derived geometry
	NibblesPerWord int
	OctetsPerFrame int
	OctetsPerLane  int
}

// Option configures optional link settings.
type Option func(*Settings)

// WithHighDensity enables or disables the high density format.
func WithHighDensity(v bool) Option {
	return func(set *Settings) {
		set.HD = v
	}
}

// WithScrambling enables or disables payload scrambling.
func WithScrambling(v bool) Option {
	return func(set *Settings) {
		set.Scrambled = v
	}
}

// NewSettings validates the physical and transport settings and derives
// the link geometry.
// NewSettings rejects geometries whose derived divisions are not exact and
// values that can not be represented in the link configuration descriptor.
func NewSettings(phy PhysicalSettings, tpl TransportSettings, did, bid int, opts ...Option) (Settings, error) {
	set := Settings{
		Phy:       phy,
		Transport: tpl,
		DID:       did,
		BID:       bid,
	}
	for _, opt := range opts {
		opt(&set)
	}

	for _, v := range []struct {
		name string
		v    int
	}{
		{"L", phy.L},
		{"M", phy.M},
		{"N", phy.N},
		{"NP", phy.NP},
		{"F", tpl.F},
		{"S", tpl.S},
		{"K", tpl.K},
	} {
		if v.v <= 0 {
			return Settings{}, fmt.Errorf("link: invalid %s=%d: %w", v.name, v.v, ErrGeometry)
		}
	}
	for _, v := range []struct {
		name string
		v    int
	}{
		{"DID", did},
		{"BID", bid},
		{"CS", tpl.CS},
		{"SUBCLASSV", phy.SubclassV},
		{"JESDV", phy.JESDV},
	} {
		if v.v < 0 {
			return Settings{}, fmt.Errorf("link: invalid %s=%d: %w", v.name, v.v, ErrGeometry)
		}
	}

	set.NibblesPerWord = phy.NP / 4
	if set.NibblesPerWord == 0 {
		return Settings{}, fmt.Errorf("link: invalid nibbles/word (NP=%d): %w", phy.NP, ErrGeometry)
	}

	num := tpl.S * set.NibblesPerWord
	if num%2 != 0 {
		return Settings{}, &GeometryError{
			Name: "octets/frame", Num: num, Den: 2,
		}
	}
	set.OctetsPerFrame = num / 2

	num = set.OctetsPerFrame * phy.M
	if num%phy.L != 0 {
		return Settings{}, &GeometryError{
			Name: "octets/lane", Num: num, Den: phy.L,
		}
	}
	set.OctetsPerLane = num / phy.L

	// the highest lane id must fit in the descriptor, as well as all the
	// other parameters.
	cfg := set.Config(phy.L - 1)
	if err := cfg.Validate(); err != nil {
		return Settings{}, fmt.Errorf("link: invalid settings: %w", err)
	}

	return set, nil
}

// Config returns the link configuration descriptor of lane lid.
func (set Settings) Config(lid int) ilas.Config {
	return ilas.Config{
		DID: uint32(set.DID),
		BID: uint32(set.BID),
		LID: uint32(lid),

		L:         uint32(set.Phy.L - 1),
		M:         uint32(set.Phy.M - 1),
		N:         uint32(set.Phy.N - 1),
		NP:        uint32(set.Phy.NP - 1),
		SUBCLASSV: uint32(set.Phy.SubclassV),
		ADJCNT:    uint32(set.Phy.AdjCnt),
		ADJDIR:    uint32(set.Phy.AdjDir),
		PHADJ:     uint32(set.Phy.PhAdj),
		JESDV:     uint32(set.Phy.JESDV),

		F:   uint32(set.Transport.F - 1),
		K:   uint32(set.Transport.K - 1),
		S:   uint32(set.Transport.S - 1),
		CS:  uint32(set.Transport.CS),
		HD:  b2u(set.HD),
		SCR: b2u(set.Scrambled),
	}
}

// Checksum returns the checksum of the configuration descriptor of lane lid.
func (set Settings) Checksum(lid int) byte {
	cfg := set.Config(lid)
	return cfg.Checksum()
}

// Configs returns the configuration descriptors of all the lanes.
func (set Settings) Configs() []ilas.Config {
	cfgs := make([]ilas.Config, set.Phy.L)
	for i := range cfgs {
		cfgs[i] = set.Config(i)
	}
	return cfgs
}

// Match checks a received descriptor is consistent with the link settings.
// Only the lane id is allowed to differ.
func (set Settings) Match(cfg ilas.Config) error {
	if int(cfg.LID) >= set.Phy.L {
		return fmt.Errorf("link: invalid lane id %d (lanes=%d)", cfg.LID, set.Phy.L)
	}
	want := set.Config(int(cfg.LID))
	want.FCHK = cfg.FCHK
	if want != cfg {
		for _, id := range ilas.Fields() {
			if got, exp := cfg.Get(id), want.Get(id); got != exp {
				return fmt.Errorf(
					"link: lane %d configuration mismatch for %s (got=%d, want=%d)",
					cfg.LID, id, got, exp,
				)
			}
		}
	}
	return nil
}

// GeometryError is returned when the physical and transport settings lead
// to a non-integral link geometry.
type GeometryError struct {
	Name string
	Num  int
	Den  int
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf(
		"link: non-integral %s (%d/%d)",
		e.Name, e.Num, e.Den,
	)
}

func (e *GeometryError) Unwrap() error { return ErrGeometry }

func b2u(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}
