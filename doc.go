// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package jesd holds code for the JESD204B link layer between converters
// and FPGA transceivers.
//
// The module is organized as:
//   - ilas: the 14-octet link configuration descriptor sent during the
//     initial lane alignment sequence, with its checksum;
//   - link: link settings and geometry, frame alignment characters,
//     scrambling, CGS/ILAS sequences and per-lane TX/RX state machines;
//   - pll: channel and quad PLL divider searches for a reference clock
//     and a line rate;
//   - conddb: named link and clock configurations stored in MySQL.
//
// Commands:
//   - jesd-cfg displays the descriptors, checksums and PLL settings of a link;
//   - jesd-link runs a looped-back link under go-daq/tdaq run control.
package jesd // import "github.com/go-lpc/jesd"

import (
	"fmt"
	"runtime/debug"
)

const modpath = "github.com/go-lpc/jesd"

// Version returns the version of jesd and its checksum, as recorded in the
// build information of the running binary.
func Version() (version, sum string) {
	b, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	return versionOf(b)
}

func versionOf(b *debug.BuildInfo) (version, sum string) {
	mod := moduleOf(b)
	if mod == nil {
		return "", ""
	}

	rep := mod.Replace
	switch {
	case rep == nil:
		return mod.Version, mod.Sum
	case rep.Path != "" && rep.Version != "":
		return fmt.Sprintf("%s %s", rep.Path, rep.Version), rep.Sum
	case rep.Version != "":
		return rep.Version, rep.Sum
	case rep.Path != "":
		return rep.Path, rep.Sum
	default:
		// local replacement without version information.
		return mod.Version + "*", ""
	}
}

func moduleOf(b *debug.BuildInfo) *debug.Module {
	if b == nil {
		return nil
	}
	if b.Main.Path == modpath {
		return &b.Main
	}
	for _, m := range b.Deps {
		if m.Path == modpath {
			return m
		}
	}
	return nil
}
