// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package conddb

import (
	"github.com/go-lpc/jesd/link"
	"github.com/go-lpc/jesd/pll"
)

// Settings is an alias for validated link settings.
type Settings = link.Settings

// Link is a row of the jesd_links table.
// Counts are stored with their natural values, not the N-1 encoding of
// the link configuration descriptor.
type Link struct {
	Name      string `json:"name" toml:"name"`
	DID       int    `json:"did" toml:"did"`
	BID       int    `json:"bid" toml:"bid"`
	L         int    `json:"l" toml:"l"`
	M         int    `json:"m" toml:"m"`
	N         int    `json:"n" toml:"n"`
	NP        int    `json:"np" toml:"np"`
	SubclassV int    `json:"subclassv" toml:"subclassv"`
	F         int    `json:"f" toml:"f"`
	S         int    `json:"s" toml:"s"`
	K         int    `json:"k" toml:"k"`
	CS        int    `json:"cs" toml:"cs"`
	HD        bool   `json:"hd" toml:"hd"`
	SCR       bool   `json:"scr" toml:"scr"`
}

// Settings validates the link description.
func (lnk Link) Settings() (link.Settings, error) {
	phy := link.NewPhysicalSettings(lnk.L, lnk.M, lnk.N, lnk.NP)
	phy.SubclassV = lnk.SubclassV
	return link.NewSettings(
		phy,
		link.TransportSettings{F: lnk.F, S: lnk.S, K: lnk.K, CS: lnk.CS},
		lnk.DID, lnk.BID,
		link.WithHighDensity(lnk.HD),
		link.WithScrambling(lnk.SCR),
	)
}

// ClockPlan is the reference clock and line rate of a link.
type ClockPlan struct {
	Link     string `json:"link" toml:"-"`
	RefClk   int64  `json:"refclk" toml:"refclk"`     // Hz
	LineRate int64  `json:"linerate" toml:"linerate"` // bit/s
}

// Channel returns the channel PLL configuration of the clock plan.
func (plan ClockPlan) Channel() (pll.ChannelConfig, error) {
	return pll.ComputeChannel(plan.RefClk, plan.LineRate)
}

// Quad returns the quad PLL configuration of the clock plan.
func (plan ClockPlan) Quad() (pll.QuadConfig, error) {
	return pll.ComputeQuad(plan.RefClk, plan.LineRate)
}
